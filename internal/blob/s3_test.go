package blob

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeS3 serves a minimal path-style S3 API for one bucket.
type fakeS3 struct {
	mu       sync.Mutex
	objects  map[string]string
	metadata map[string]string
	deleted  []string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/docs")
	key := strings.TrimPrefix(path, "/")

	switch {
	case r.Method == http.MethodGet && r.URL.Query().Get("list-type") == "2":
		prefix := r.URL.Query().Get("prefix")
		var b strings.Builder
		b.WriteString(`<?xml version="1.0" encoding="UTF-8"?><ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/"><Name>docs</Name><IsTruncated>false</IsTruncated>`)
		for k := range f.objects {
			if strings.HasPrefix(k, prefix) {
				b.WriteString("<Contents><Key>" + k + "</Key></Contents>")
			}
		}
		b.WriteString("</ListBucketResult>")
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(b.String()))
	case r.Method == http.MethodPut:
		f.objects[key] = "uploaded"
		f.metadata[key] = r.Header.Get("X-Amz-Meta-Originalname")
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodGet:
		body, ok := f.objects[key]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`))
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(body))
	case r.Method == http.MethodHead:
		if _, ok := f.objects[key]; !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		w.Header().Set("Content-Length", "8")
		w.Header().Set("X-Amz-Meta-Originalname", f.metadata[key])
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodDelete:
		delete(f.objects, key)
		f.deleted = append(f.deleted, key)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestS3(t *testing.T) (*S3Store, *fakeS3) {
	t.Helper()
	fake := &fakeS3{objects: map[string]string{}, metadata: map[string]string{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	store, err := NewS3Store(context.Background(), S3Config{
		Bucket:          "docs",
		Region:          "us-east-1",
		Endpoint:        srv.URL,
		AccessKeyID:     "test",
		SecretAccessKey: "test",
		UsePathStyle:    true,
	})
	if err != nil {
		t.Fatalf("NewS3Store() error = %v", err)
	}
	return store, fake
}

func TestNewS3Store_RequiresBucket(t *testing.T) {
	if _, err := NewS3Store(context.Background(), S3Config{Region: "us-east-1"}); err == nil {
		t.Fatal("NewS3Store() expected error for missing bucket")
	}
}

func TestS3Store_RoundTrip(t *testing.T) {
	store, fake := newTestS3(t)
	ctx := context.Background()
	key := Key("u1", "d1", "notes.txt")

	url, err := store.Put(ctx, key, []byte("hello"), "text/plain", map[string]string{"originalName": "nötes\n.txt"})
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if !strings.HasSuffix(url, "/docs/u1/d1/notes.txt") {
		t.Errorf("Put() url = %q", url)
	}
	if got := fake.metadata[key]; got != "ntes.txt" {
		t.Errorf("metadata originalName = %q, want sanitized %q", got, "ntes.txt")
	}

	data, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(data) != "uploaded" {
		t.Errorf("Get() = %q", data)
	}

	info, err := store.Head(ctx, key)
	if err != nil {
		t.Fatalf("Head() error = %v", err)
	}
	if info.ContentType != "text/plain" {
		t.Errorf("Head() content type = %q", info.ContentType)
	}

	keys, err := store.List(ctx, UserPrefix("u1"))
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(keys) != 1 || keys[0] != key {
		t.Errorf("List() = %v, want [%s]", keys, key)
	}

	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if len(fake.deleted) != 1 {
		t.Errorf("deleted = %v", fake.deleted)
	}
}

func TestS3Store_NotFound(t *testing.T) {
	store, _ := newTestS3(t)
	ctx := context.Background()

	if _, err := store.Get(ctx, "u1/missing/a.txt"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
	if _, err := store.Head(ctx, "u1/missing/a.txt"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Head() error = %v, want ErrNotFound", err)
	}
}

func TestS3Store_PresignGet(t *testing.T) {
	store, _ := newTestS3(t)

	url, err := store.PresignGet(context.Background(), "u1/d1/a.pdf", 15*time.Minute)
	if err != nil {
		t.Fatalf("PresignGet() error = %v", err)
	}
	if !strings.Contains(url, "X-Amz-Expires=900") {
		t.Errorf("PresignGet() url = %q, want 900s expiry", url)
	}
	if !strings.Contains(url, "/docs/u1/d1/a.pdf") {
		t.Errorf("PresignGet() url = %q, want object path", url)
	}
}

func TestKeyHelpers(t *testing.T) {
	key := Key("u1", "d1", "dir name/file.pdf")
	user, doc, name, ok := ParseKey(key)
	if !ok || user != "u1" || doc != "d1" || name != "dir name/file.pdf" {
		t.Errorf("ParseKey(%q) = %q %q %q %v", key, user, doc, name, ok)
	}
	if _, _, _, ok := ParseKey("u1/only"); ok {
		t.Error("ParseKey() accepted a two-part key")
	}
}

func TestSanitizeHeaderValue(t *testing.T) {
	tests := map[string]string{
		"plain.pdf":    "plain.pdf",
		" résumé.pdf ": "rsum.pdf",
		"a\r\nb":       "ab",
		"\x00\x1f":     "",
	}
	for in, want := range tests {
		if got := SanitizeHeaderValue(in); got != want {
			t.Errorf("SanitizeHeaderValue(%q) = %q, want %q", in, got, want)
		}
	}
}
