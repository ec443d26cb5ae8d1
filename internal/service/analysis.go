package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_analysis_service.go -package=mocks documind/internal/service AnalysisService

import (
	"context"
	"errors"
	"fmt"

	"documind/internal/audit"
	"documind/internal/contextutil"
	"documind/internal/entities"
	"documind/internal/graphstore"
	"documind/internal/queue"
	"documind/internal/similarity"
	"documind/internal/topics"
)

// AnalysisKind selects a graph analysis pass.
type AnalysisKind string

const (
	AnalysisSimilarity AnalysisKind = "similarity"
	AnalysisTopics     AnalysisKind = "topics"
	AnalysisCluster    AnalysisKind = "cluster"
)

func (k AnalysisKind) taskType() (string, bool) {
	switch k {
	case AnalysisSimilarity:
		return queue.TypeAnalysisSimilarity, true
	case AnalysisTopics:
		return queue.TypeAnalysisTopics, true
	case AnalysisCluster:
		return queue.TypeAnalysisCluster, true
	}
	return "", false
}

// TaskRef identifies queued work.
type TaskRef struct {
	TaskID string `json:"taskId"`
	Type   string `json:"type"`
}

// AnalysisResult is the outcome of an inline analysis run. Only the field of
// the requested kind is set.
type AnalysisResult struct {
	Kind       AnalysisKind           `json:"kind"`
	Similarity *similarity.Result     `json:"similarity,omitempty"`
	Topics     *topics.Result         `json:"topics,omitempty"`
	Cluster    *entities.ClusterStats `json:"cluster,omitempty"`
}

// GraphQuery selects a user's subgraph for visualization.
type GraphQuery struct {
	UserID      string `validate:"required"`
	DocIDs      []string
	EntityTypes []string `validate:"dive,oneof=PERSON ORGANIZATION LOCATION DATE MONEY OTHER"`
	MaxNodes    int      `validate:"gte=0,lte=5000"`
}

// AnalysisService runs graph analyses and reconciliation, inline or queued.
type AnalysisService interface {
	// Submit queues an analysis pass.
	Submit(ctx context.Context, kind AnalysisKind, userID string, maxTopics int) (TaskRef, error)
	// Run executes an analysis pass inline.
	Run(ctx context.Context, kind AnalysisKind, userID string, maxTopics int) (AnalysisResult, error)
	// Graph returns the user's pruned subgraph.
	Graph(ctx context.Context, q GraphQuery) (graphstore.Graph, error)
	// SubmitReconcile queues a reconciliation run.
	SubmitReconcile(ctx context.Context, userID string) (TaskRef, error)
	// Reconcile runs reconciliation inline.
	Reconcile(ctx context.Context, userID string) (*audit.Run, error)
	// ReconcileRun returns a recorded run of userID.
	ReconcileRun(ctx context.Context, runID, userID string) (*audit.Run, error)
}

// AnalysisDeps are the collaborators of an AnalysisService.
type AnalysisDeps struct {
	Graph      graphstore.GraphStore
	Similarity queue.SimilarityAnalyzer
	Topics     queue.TopicModeler
	Clusterer  queue.Clusterer
	Reconciler queue.Reconciler
	Runs       audit.RunStore
	Queue      queue.Submitter
}

// analysisService implements AnalysisService.
type analysisService struct {
	deps AnalysisDeps
}

// NewAnalysisService creates a new AnalysisService.
func NewAnalysisService(deps AnalysisDeps) AnalysisService {
	return &analysisService{deps: deps}
}

func (s *analysisService) Submit(ctx context.Context, kind AnalysisKind, userID string, maxTopics int) (TaskRef, error) {
	taskType, ok := kind.taskType()
	if !ok {
		return TaskRef{}, &ValidationError{Field: "kind", Message: fmt.Sprintf("unknown analysis %q", kind)}
	}
	if userID == "" {
		return TaskRef{}, &ValidationError{Field: "userId", Message: "is required"}
	}
	id, err := s.deps.Queue.SubmitAnalysis(ctx, taskType, userID, maxTopics)
	if err != nil {
		return TaskRef{}, fmt.Errorf("%w: %w", ErrExternalService, err)
	}
	return TaskRef{TaskID: id, Type: taskType}, nil
}

func (s *analysisService) Run(ctx context.Context, kind AnalysisKind, userID string, maxTopics int) (AnalysisResult, error) {
	logger := contextutil.LoggerFromContext(ctx).With("analysis", kind, "user_id", userID)
	if userID == "" {
		return AnalysisResult{}, &ValidationError{Field: "userId", Message: "is required"}
	}

	out := AnalysisResult{Kind: kind}
	switch kind {
	case AnalysisSimilarity:
		res, err := s.deps.Similarity.Analyze(ctx, userID)
		if err != nil {
			return out, WrapError(err, "similarity analysis failed")
		}
		out.Similarity = &res
	case AnalysisTopics:
		res, err := s.deps.Topics.Run(ctx, userID, maxTopics)
		if err != nil {
			return out, WrapError(err, "topic modeling failed")
		}
		out.Topics = &res
	case AnalysisCluster:
		res, err := s.deps.Clusterer.Cluster(ctx, userID)
		if err != nil {
			return out, WrapError(err, "entity clustering failed")
		}
		out.Cluster = &res
	default:
		return out, &ValidationError{Field: "kind", Message: fmt.Sprintf("unknown analysis %q", kind)}
	}
	logger.InfoContext(ctx, "analysis completed inline")
	return out, nil
}

func (s *analysisService) Graph(ctx context.Context, q GraphQuery) (graphstore.Graph, error) {
	if err := validateStruct(q); err != nil {
		return graphstore.Graph{}, err
	}
	g, err := s.deps.Graph.GetGraph(ctx, q.UserID, q.DocIDs)
	if err != nil {
		return graphstore.Graph{}, WrapError(err, "failed to load graph")
	}
	return g.Prune(q.EntityTypes, q.MaxNodes), nil
}

func (s *analysisService) SubmitReconcile(ctx context.Context, userID string) (TaskRef, error) {
	if userID == "" {
		return TaskRef{}, &ValidationError{Field: "userId", Message: "is required"}
	}
	id, err := s.deps.Queue.SubmitReconcile(ctx, userID)
	if err != nil {
		return TaskRef{}, fmt.Errorf("%w: %w", ErrExternalService, err)
	}
	return TaskRef{TaskID: id, Type: queue.TypeAuditReconcile}, nil
}

func (s *analysisService) Reconcile(ctx context.Context, userID string) (*audit.Run, error) {
	if userID == "" {
		return nil, &ValidationError{Field: "userId", Message: "is required"}
	}
	run, err := s.deps.Reconciler.Run(ctx, userID)
	if err != nil {
		return nil, WrapError(err, "reconciliation failed")
	}
	return run, nil
}

func (s *analysisService) ReconcileRun(ctx context.Context, runID, userID string) (*audit.Run, error) {
	run, err := s.deps.Runs.GetRun(ctx, runID)
	if errors.Is(err, audit.ErrRunNotFound) || (err == nil && run.UserID != userID) {
		return nil, fmt.Errorf("reconcile run %s: %w", runID, ErrNotFound)
	}
	if err != nil {
		return nil, WrapError(err, "failed to load reconcile run")
	}
	return run, nil
}
