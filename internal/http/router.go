package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"documind/internal/handlers"
	"documind/internal/service"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	DocumentService service.DocumentService
	ChatService     service.ChatService
	AnalysisService service.AnalysisService
	HealthChecks    map[string]handlers.Check
	MaxFileSize     int64
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(CORS)

	documentHandler := handlers.NewDocumentHandler(deps.DocumentService, deps.MaxFileSize)
	chatHandler := handlers.NewChatHandler(deps.ChatService)
	graphHandler := handlers.NewGraphHandler(deps.AnalysisService)

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodGet, "/health", handlers.NewHealthHandler(deps.HealthChecks))

		r.Group(func(r chi.Router) {
			r.Use(RequireUser)

			r.Route("/documents", func(r chi.Router) {
				r.Post("/", documentHandler.Upload)
				r.Get("/", documentHandler.List)
				r.Get("/{docId}", documentHandler.Get)
				r.Patch("/{docId}", documentHandler.Update)
				r.Delete("/{docId}", documentHandler.Delete)
				r.Get("/{docId}/download", documentHandler.Download)
				r.Post("/{docId}/reprocess", documentHandler.Reprocess)
			})

			r.Method(http.MethodPost, "/chat", chatHandler)
			r.Post("/search", chatHandler.Search)

			r.Get("/graph", graphHandler.Graph)
			r.Post("/graph/similarity", graphHandler.Analyze(service.AnalysisSimilarity))
			r.Post("/graph/topics", graphHandler.Analyze(service.AnalysisTopics))
			r.Post("/graph/cluster", graphHandler.Analyze(service.AnalysisCluster))

			r.Post("/admin/reconcile", graphHandler.Reconcile)
			r.Get("/admin/reconcile/{runId}", graphHandler.ReconcileRun)
		})
	})

	return r
}
