package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"documind/internal/contextutil"
	"documind/internal/service"
)

// DefaultMaxNodes caps graph responses when maxNodes is not given.
const DefaultMaxNodes = 500

// GraphHandler serves the knowledge graph, analysis triggers and
// reconciliation runs.
type GraphHandler struct {
	analysis service.AnalysisService
}

// NewGraphHandler creates a new GraphHandler.
func NewGraphHandler(analysis service.AnalysisService) *GraphHandler {
	return &GraphHandler{analysis: analysis}
}

// Graph returns the caller's pruned subgraph.
//
// swagger:route GET /api/graph getGraph
//
// Query parameters: docIds and entityTypes (comma separated or repeated),
// maxNodes (default 500).
func (h *GraphHandler) Graph(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	maxNodes, err := queryInt(r, "maxNodes", DefaultMaxNodes)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	entityTypes := queryList(r, "entityTypes")
	for i, t := range entityTypes {
		entityTypes[i] = strings.ToUpper(t)
	}

	g, err := h.analysis.Graph(ctx, service.GraphQuery{
		UserID:      contextutil.UserIDFromContext(ctx),
		DocIDs:      queryList(r, "docIds"),
		EntityTypes: entityTypes,
		MaxNodes:    maxNodes,
	})
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to load graph")
		return
	}
	writeJSON(ctx, w, http.StatusOK, g)
}

// Analyze returns the trigger for one analysis pass. The pass is queued and
// 202 is returned with the task reference; sync=true runs it inline and
// returns the result.
//
// swagger:route POST /api/graph/{kind} runAnalysis
func (h *GraphHandler) Analyze(kind service.AnalysisKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		logger := contextutil.LoggerFromContext(ctx)
		userID := contextutil.UserIDFromContext(ctx)

		maxTopics, err := queryInt(r, "maxTopics", 0)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		if isSync(r) {
			logger.InfoContext(ctx, "running analysis inline", "kind", kind)
			res, err := h.analysis.Run(ctx, kind, userID, maxTopics)
			if err != nil {
				handleServiceError(w, ctx, err, "Analysis failed")
				return
			}
			writeJSON(ctx, w, http.StatusOK, res)
			return
		}

		ref, err := h.analysis.Submit(ctx, kind, userID, maxTopics)
		if err != nil {
			handleServiceError(w, ctx, err, "Failed to queue analysis")
			return
		}
		writeJSON(ctx, w, http.StatusAccepted, ref)
	}
}

// Reconcile audits the caller's documents across the stores. Queued unless
// sync=true.
//
// swagger:route POST /api/admin/reconcile reconcile
func (h *GraphHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := contextutil.UserIDFromContext(ctx)

	if isSync(r) {
		run, err := h.analysis.Reconcile(ctx, userID)
		if err != nil {
			handleServiceError(w, ctx, err, "Reconciliation failed")
			return
		}
		writeJSON(ctx, w, http.StatusOK, run)
		return
	}

	ref, err := h.analysis.SubmitReconcile(ctx, userID)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to queue reconciliation")
		return
	}
	writeJSON(ctx, w, http.StatusAccepted, ref)
}

// ReconcileRun returns a recorded reconciliation run with its findings.
//
// swagger:route GET /api/admin/reconcile/{runId} getReconcileRun
func (h *GraphHandler) ReconcileRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	run, err := h.analysis.ReconcileRun(ctx, chi.URLParam(r, "runId"), contextutil.UserIDFromContext(ctx))
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to load reconciliation run")
		return
	}
	writeJSON(ctx, w, http.StatusOK, run)
}

func isSync(r *http.Request) bool {
	v := r.URL.Query().Get("sync")
	return v == "true" || v == "1"
}

// queryList collects a parameter given either repeated or comma separated.
func queryList(r *http.Request, key string) []string {
	var out []string
	for _, raw := range r.URL.Query()[key] {
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}
