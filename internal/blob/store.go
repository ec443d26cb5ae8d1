package blob

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_store.go -package=mocks documind/internal/blob Store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned when an object does not exist.
var ErrNotFound = errors.New("blob not found")

// DefaultPresignTTL is the lifetime of download links.
const DefaultPresignTTL = 60 * time.Minute

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// Store holds uploaded file bytes.
type Store interface {
	// Put writes data under key and returns the object URL.
	Put(ctx context.Context, key string, data []byte, contentType string, metadata map[string]string) (string, error)
	// Get returns the object bytes or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Delete removes the object. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Head returns object attributes or ErrNotFound.
	Head(ctx context.Context, key string) (ObjectInfo, error)
	// PresignGet returns a time-limited download URL.
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
	// List returns the keys under prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Key builds the object key of a document: {userId}/{docId}/{filename}.
func Key(userID, docID, filename string) string {
	return fmt.Sprintf("%s/%s/%s", userID, docID, filename)
}

// UserPrefix is the key prefix of every object a user owns.
func UserPrefix(userID string) string {
	return userID + "/"
}

// ParseKey splits a document key into its parts.
func ParseKey(key string) (userID, docID, filename string, ok bool) {
	parts := strings.SplitN(key, "/", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", "", "", false
	}
	return parts[0], parts[1], parts[2], true
}

// SanitizeHeaderValue strips control and non-ASCII characters so the value
// is safe as an object metadata header.
func SanitizeHeaderValue(v string) string {
	var b strings.Builder
	for _, r := range v {
		if r < 0x20 || r >= 0x7f {
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}
