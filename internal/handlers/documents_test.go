package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/mock/gomock"

	"documind/internal/contextutil"
	"documind/internal/service"
	"documind/internal/service/mocks"
	"documind/internal/storage"
)

func documentRouter(h *DocumentHandler) http.Handler {
	r := chi.NewRouter()
	r.Post("/documents", h.Upload)
	r.Get("/documents", h.List)
	r.Get("/documents/{docId}", h.Get)
	r.Patch("/documents/{docId}", h.Update)
	r.Delete("/documents/{docId}", h.Delete)
	r.Get("/documents/{docId}/download", h.Download)
	r.Post("/documents/{docId}/reprocess", h.Reprocess)
	return r
}

func multipartRequest(t *testing.T, filename, contentType string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		t.Fatalf("CreatePart() error = %v", err)
	}
	_, _ = part.Write(data)
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/documents", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req.WithContext(contextutil.WithUserID(req.Context(), testUser))
}

func TestDocumentHandler_Upload(t *testing.T) {
	tests := []struct {
		name       string
		data       []byte
		mockSetup  func(*mocks.MockDocumentService)
		wantStatus int
	}{
		{
			name: "accepted",
			data: []byte("quarterly report"),
			mockSetup: func(m *mocks.MockDocumentService) {
				m.EXPECT().
					Upload(gomock.Any(), service.UploadRequest{
						UserID:   testUser,
						Filename: "report.txt",
						MIMEType: "text/plain",
						Data:     []byte("quarterly report"),
					}).
					Return(service.UploadResult{DocID: "d1", Filename: "report.txt", Status: storage.StatusPending, TaskID: "t1"}, nil)
			},
			wantStatus: http.StatusAccepted,
		},
		{
			name: "unsupported type",
			data: []byte("x"),
			mockSetup: func(m *mocks.MockDocumentService) {
				m.EXPECT().Upload(gomock.Any(), gomock.Any()).
					Return(service.UploadResult{}, &service.ValidationError{Field: "mimeType", Message: "unsupported"})
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "body over the limit",
			data:       bytes.Repeat([]byte("a"), 3<<20),
			mockSetup:  func(m *mocks.MockDocumentService) {},
			wantStatus: http.StatusRequestEntityTooLarge,
		},
		{
			name: "queue unavailable",
			data: []byte("x"),
			mockSetup: func(m *mocks.MockDocumentService) {
				m.EXPECT().Upload(gomock.Any(), gomock.Any()).
					Return(service.UploadResult{}, fmt.Errorf("queue: %w", service.ErrExternalService))
			},
			wantStatus: http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			svc := mocks.NewMockDocumentService(ctrl)
			tt.mockSetup(svc)

			w := httptest.NewRecorder()
			documentRouter(NewDocumentHandler(svc, 1<<20)).ServeHTTP(w, multipartRequest(t, "report.txt", "text/plain", tt.data))

			if w.Code != tt.wantStatus {
				t.Fatalf("Upload() status = %v, want %v (body %s)", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}

func TestDocumentHandler_UploadMissingFile(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockDocumentService(ctrl)

	w := httptest.NewRecorder()
	documentRouter(NewDocumentHandler(svc, 0)).ServeHTTP(w, newRequest(t, http.MethodPost, "/documents", "{}"))

	if w.Code != http.StatusBadRequest {
		t.Errorf("Upload() status = %v, want 400", w.Code)
	}
}

func TestDocumentHandler_List(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		mockSetup  func(*mocks.MockDocumentService)
		wantStatus int
	}{
		{
			name:   "defaults",
			target: "/documents",
			mockSetup: func(m *mocks.MockDocumentService) {
				m.EXPECT().List(gomock.Any(), testUser, 1, 0).
					Return(storage.Page{Page: 1, Limit: 10}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:   "explicit page",
			target: "/documents?page=3&limit=25",
			mockSetup: func(m *mocks.MockDocumentService) {
				m.EXPECT().List(gomock.Any(), testUser, 3, 25).
					Return(storage.Page{
						Documents:  []storage.Document{{DocID: "d1"}},
						Total:      51,
						Page:       3,
						Limit:      25,
						TotalPages: 3,
					}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "bad page",
			target:     "/documents?page=two",
			mockSetup:  func(m *mocks.MockDocumentService) {},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			svc := mocks.NewMockDocumentService(ctrl)
			tt.mockSetup(svc)

			w := httptest.NewRecorder()
			documentRouter(NewDocumentHandler(svc, 0)).ServeHTTP(w, newRequest(t, http.MethodGet, tt.target, nil))

			if w.Code != tt.wantStatus {
				t.Fatalf("List() status = %v, want %v", w.Code, tt.wantStatus)
			}
			if w.Code != http.StatusOK {
				return
			}
			var resp ListDocumentsResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Documents == nil {
				t.Error("documents decoded as null")
			}
		})
	}
}

func TestDocumentHandler_GetNotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockDocumentService(ctrl)
	svc.EXPECT().Get(gomock.Any(), "d9", testUser).Return(nil, fmt.Errorf("document d9: %w", service.ErrNotFound))

	w := httptest.NewRecorder()
	documentRouter(NewDocumentHandler(svc, 0)).ServeHTTP(w, newRequest(t, http.MethodGet, "/documents/d9", nil))

	if w.Code != http.StatusNotFound {
		t.Errorf("Get() status = %v, want 404", w.Code)
	}
}

func TestDocumentHandler_Update(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockDocumentService(ctrl)

	title := "Q3 Budget"
	svc.EXPECT().
		Update(gomock.Any(), "d1", testUser, service.UpdateRequest{Title: &title}).
		Return(&storage.Document{DocID: "d1", Metadata: storage.DocumentMetadata{Title: title}}, nil)

	w := httptest.NewRecorder()
	documentRouter(NewDocumentHandler(svc, 0)).ServeHTTP(w, newRequest(t, http.MethodPatch, "/documents/d1", UpdateDocumentRequest{Title: &title}))

	if w.Code != http.StatusOK {
		t.Fatalf("Update() status = %v, want 200", w.Code)
	}
	var doc storage.Document
	if err := json.NewDecoder(w.Body).Decode(&doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.Metadata.Title != title {
		t.Errorf("title = %q", doc.Metadata.Title)
	}
}

func TestDocumentHandler_Download(t *testing.T) {
	link := service.DownloadLink{URL: "https://bucket.example/u/d1/a.pdf?sig=1", Filename: "a.pdf", ExpiresAt: time.Now().Add(time.Hour)}

	t.Run("json", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc := mocks.NewMockDocumentService(ctrl)
		svc.EXPECT().DownloadURL(gomock.Any(), "d1", testUser).Return(link, nil)

		w := httptest.NewRecorder()
		documentRouter(NewDocumentHandler(svc, 0)).ServeHTTP(w, newRequest(t, http.MethodGet, "/documents/d1/download", nil))

		if w.Code != http.StatusOK {
			t.Fatalf("Download() status = %v", w.Code)
		}
		var got service.DownloadLink
		_ = json.NewDecoder(w.Body).Decode(&got)
		if got.URL != link.URL {
			t.Errorf("url = %q", got.URL)
		}
	})

	t.Run("redirect", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc := mocks.NewMockDocumentService(ctrl)
		svc.EXPECT().DownloadURL(gomock.Any(), "d1", testUser).Return(link, nil)

		w := httptest.NewRecorder()
		documentRouter(NewDocumentHandler(svc, 0)).ServeHTTP(w, newRequest(t, http.MethodGet, "/documents/d1/download?redirect=true", nil))

		if w.Code != http.StatusFound || w.Header().Get("Location") != link.URL {
			t.Errorf("Download() = %v %q", w.Code, w.Header().Get("Location"))
		}
	})
}

func TestDocumentHandler_Delete(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockDocumentService(ctrl)
	svc.EXPECT().Delete(gomock.Any(), "d1", testUser).
		Return(service.DeleteReport{Deleted: true, Warnings: []string{"vector store skipped"}, Skipped: []string{"vectors"}}, nil)

	w := httptest.NewRecorder()
	documentRouter(NewDocumentHandler(svc, 0)).ServeHTTP(w, newRequest(t, http.MethodDelete, "/documents/d1", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Delete() status = %v", w.Code)
	}
	var report service.DeleteReport
	_ = json.NewDecoder(w.Body).Decode(&report)
	if !report.Deleted || len(report.Warnings) != 1 {
		t.Errorf("report = %+v", report)
	}
}

func TestDocumentHandler_Reprocess(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"queued", nil, http.StatusAccepted},
		{"still processing", fmt.Errorf("document d1 is still processing: %w", service.ErrConflict), http.StatusConflict},
		{"missing", fmt.Errorf("document d1: %w", service.ErrNotFound), http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			svc := mocks.NewMockDocumentService(ctrl)
			svc.EXPECT().Reprocess(gomock.Any(), "d1", testUser).
				Return(service.UploadResult{DocID: "d1", Status: storage.StatusPending}, tt.err)

			w := httptest.NewRecorder()
			documentRouter(NewDocumentHandler(svc, 0)).ServeHTTP(w, newRequest(t, http.MethodPost, "/documents/d1/reprocess", nil))

			if w.Code != tt.wantStatus {
				t.Errorf("Reprocess() status = %v, want %v", w.Code, tt.wantStatus)
			}
		})
	}
}
