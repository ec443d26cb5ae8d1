package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHealthHandler_ServeHTTP(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("dial tcp: connection refused") }

	tests := []struct {
		name       string
		method     string
		checks     map[string]Check
		wantStatus int
		wantChecks map[string]string
		wantIssues []string
	}{
		{
			name:       "all healthy",
			method:     http.MethodGet,
			checks:     map[string]Check{"vector_store": ok, "graph_store": ok, "metadata_store": ok, "queue": ok},
			wantStatus: http.StatusOK,
			wantChecks: map[string]string{"vector_store": "ok", "graph_store": "ok", "metadata_store": "ok", "queue": "ok"},
		},
		{
			name:       "one dependency down",
			method:     http.MethodGet,
			checks:     map[string]Check{"vector_store": ok, "graph_store": down, "queue": down},
			wantStatus: http.StatusServiceUnavailable,
			wantChecks: map[string]string{"vector_store": "ok", "graph_store": "error", "queue": "error"},
			wantIssues: []string{"graph_store_unavailable", "queue_unavailable"},
		},
		{
			name:       "method not allowed",
			method:     http.MethodPost,
			checks:     map[string]Check{"vector_store": ok},
			wantStatus: http.StatusMethodNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			NewHealthHandler(tt.checks).ServeHTTP(w, httptest.NewRequest(tt.method, "/api/health", nil))

			if w.Code != tt.wantStatus {
				t.Fatalf("ServeHTTP() status = %v, want %v", w.Code, tt.wantStatus)
			}
			if tt.wantChecks == nil {
				return
			}
			var resp HealthResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			for name, want := range tt.wantChecks {
				if resp.Checks[name] != want {
					t.Errorf("check %s = %q, want %q", name, resp.Checks[name], want)
				}
			}
			if len(resp.Issues) != len(tt.wantIssues) {
				t.Fatalf("issues = %v, want %v", resp.Issues, tt.wantIssues)
			}
			for i := range tt.wantIssues {
				if resp.Issues[i] != tt.wantIssues[i] {
					t.Errorf("issues = %v, want %v", resp.Issues, tt.wantIssues)
				}
			}
		})
	}
}

func TestHealthHandler_Timeout(t *testing.T) {
	slow := func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}
	h := NewHealthHandler(map[string]Check{"graph_store": slow})
	h.healthCheckTimeout = 10 * time.Millisecond

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("ServeHTTP() status = %v, want 503", w.Code)
	}
}
