package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/mock/gomock"

	"documind/internal/audit"
	"documind/internal/entities"
	"documind/internal/graphstore"
	"documind/internal/service"
	"documind/internal/service/mocks"
)

func graphRouter(h *GraphHandler) http.Handler {
	r := chi.NewRouter()
	r.Get("/graph", h.Graph)
	r.Post("/graph/similarity", h.Analyze(service.AnalysisSimilarity))
	r.Post("/graph/topics", h.Analyze(service.AnalysisTopics))
	r.Post("/graph/cluster", h.Analyze(service.AnalysisCluster))
	r.Post("/admin/reconcile", h.Reconcile)
	r.Get("/admin/reconcile/{runId}", h.ReconcileRun)
	return r
}

func TestGraphHandler_Graph(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		wantQuery  *service.GraphQuery
		err        error
		wantStatus int
	}{
		{
			name:       "defaults",
			target:     "/graph",
			wantQuery:  &service.GraphQuery{UserID: testUser, MaxNodes: DefaultMaxNodes},
			wantStatus: http.StatusOK,
		},
		{
			name:   "filters",
			target: "/graph?docIds=d1,d2&docIds=d3&entityTypes=person,LOCATION&maxNodes=50",
			wantQuery: &service.GraphQuery{
				UserID:      testUser,
				DocIDs:      []string{"d1", "d2", "d3"},
				EntityTypes: []string{"PERSON", "LOCATION"},
				MaxNodes:    50,
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "bad maxNodes",
			target:     "/graph?maxNodes=lots",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid entity type",
			target:     "/graph?entityTypes=planet",
			err:        &service.ValidationError{Field: "entityTypes", Message: "must be one of PERSON ORGANIZATION LOCATION DATE MONEY OTHER"},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			svc := mocks.NewMockAnalysisService(ctrl)
			switch {
			case tt.wantQuery != nil:
				svc.EXPECT().Graph(gomock.Any(), *tt.wantQuery).Return(graphstore.Graph{
					Nodes: []graphstore.Node{{ID: "d1", Type: graphstore.NodeDocument, Label: "a.pdf"}},
				}, nil)
			case tt.err != nil:
				svc.EXPECT().Graph(gomock.Any(), gomock.Any()).Return(graphstore.Graph{}, tt.err)
			}

			w := httptest.NewRecorder()
			graphRouter(NewGraphHandler(svc)).ServeHTTP(w, newRequest(t, http.MethodGet, tt.target, nil))

			if w.Code != tt.wantStatus {
				t.Fatalf("Graph() status = %v, want %v (body %s)", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}

func TestGraphHandler_Analyze(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		mockSetup  func(*mocks.MockAnalysisService)
		wantStatus int
	}{
		{
			name:   "queued",
			target: "/graph/similarity",
			mockSetup: func(m *mocks.MockAnalysisService) {
				m.EXPECT().Submit(gomock.Any(), service.AnalysisSimilarity, testUser, 0).
					Return(service.TaskRef{TaskID: "t1", Type: "analysis:similarity"}, nil)
			},
			wantStatus: http.StatusAccepted,
		},
		{
			name:   "topics with max",
			target: "/graph/topics?maxTopics=4",
			mockSetup: func(m *mocks.MockAnalysisService) {
				m.EXPECT().Submit(gomock.Any(), service.AnalysisTopics, testUser, 4).
					Return(service.TaskRef{TaskID: "t2", Type: "analysis:topics"}, nil)
			},
			wantStatus: http.StatusAccepted,
		},
		{
			name:   "inline",
			target: "/graph/cluster?sync=true",
			mockSetup: func(m *mocks.MockAnalysisService) {
				m.EXPECT().Run(gomock.Any(), service.AnalysisCluster, testUser, 0).
					Return(service.AnalysisResult{Kind: service.AnalysisCluster, Cluster: &entities.ClusterStats{Entities: 7, Edges: 3}}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:   "queue down",
			target: "/graph/topics",
			mockSetup: func(m *mocks.MockAnalysisService) {
				m.EXPECT().Submit(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Return(service.TaskRef{}, fmt.Errorf("enqueue: %w: %w", service.ErrExternalService, errors.New("redis: connection refused")))
			},
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "bad maxTopics",
			target:     "/graph/topics?maxTopics=x",
			mockSetup:  func(m *mocks.MockAnalysisService) {},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			svc := mocks.NewMockAnalysisService(ctrl)
			tt.mockSetup(svc)

			w := httptest.NewRecorder()
			graphRouter(NewGraphHandler(svc)).ServeHTTP(w, newRequest(t, http.MethodPost, tt.target, nil))

			if w.Code != tt.wantStatus {
				t.Fatalf("Analyze() status = %v, want %v (body %s)", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}

func TestGraphHandler_Reconcile(t *testing.T) {
	t.Run("queued", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc := mocks.NewMockAnalysisService(ctrl)
		svc.EXPECT().SubmitReconcile(gomock.Any(), testUser).Return(service.TaskRef{TaskID: "t1", Type: "audit:reconcile"}, nil)

		w := httptest.NewRecorder()
		graphRouter(NewGraphHandler(svc)).ServeHTTP(w, newRequest(t, http.MethodPost, "/admin/reconcile", nil))

		if w.Code != http.StatusAccepted {
			t.Fatalf("Reconcile() status = %v", w.Code)
		}
	})

	t.Run("inline", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc := mocks.NewMockAnalysisService(ctrl)
		svc.EXPECT().Reconcile(gomock.Any(), testUser).
			Return(&audit.Run{ID: "r1", Status: audit.RunCompleted, FindingsCount: 1}, nil)

		w := httptest.NewRecorder()
		graphRouter(NewGraphHandler(svc)).ServeHTTP(w, newRequest(t, http.MethodPost, "/admin/reconcile?sync=1", nil))

		if w.Code != http.StatusOK {
			t.Fatalf("Reconcile() status = %v", w.Code)
		}
		var run audit.Run
		_ = json.NewDecoder(w.Body).Decode(&run)
		if run.ID != "r1" || run.FindingsCount != 1 {
			t.Errorf("run = %+v", run)
		}
	})
}

func TestGraphHandler_ReconcileRun(t *testing.T) {
	tests := []struct {
		name       string
		run        *audit.Run
		err        error
		wantStatus int
	}{
		{"found", &audit.Run{ID: "r1", Status: audit.RunCompleted}, nil, http.StatusOK},
		{"other user or missing", nil, fmt.Errorf("run r1: %w", service.ErrNotFound), http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			svc := mocks.NewMockAnalysisService(ctrl)
			svc.EXPECT().ReconcileRun(gomock.Any(), "r1", testUser).Return(tt.run, tt.err)

			w := httptest.NewRecorder()
			graphRouter(NewGraphHandler(svc)).ServeHTTP(w, newRequest(t, http.MethodGet, "/admin/reconcile/r1", nil))

			if w.Code != tt.wantStatus {
				t.Errorf("ReconcileRun() status = %v, want %v", w.Code, tt.wantStatus)
			}
		})
	}
}
