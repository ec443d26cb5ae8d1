package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"documind/internal/audit"
	"documind/internal/contextutil"
	"documind/internal/entities"
	"documind/internal/extract"
	"documind/internal/indexer"
	"documind/internal/similarity"
	"documind/internal/storage"
	"documind/internal/topics"
)

// RetriesExhaustedMessage is stored on documents whose last ingestion retry failed
// outside the pipeline stages.
const RetriesExhaustedMessage = "Processing failed after retries"

// Ingester runs the ingestion pipeline.
type Ingester interface {
	Process(ctx context.Context, docID, userID string) (indexer.Result, error)
	MarkFailed(ctx context.Context, docID, userID, message string) error
}

type SimilarityAnalyzer interface {
	Analyze(ctx context.Context, userID string) (similarity.Result, error)
}

type TopicModeler interface {
	Run(ctx context.Context, userID string, maxTopics int) (topics.Result, error)
}

type Clusterer interface {
	Cluster(ctx context.Context, userID string) (entities.ClusterStats, error)
}

type Reconciler interface {
	Run(ctx context.Context, userID string) (*audit.Run, error)
}

// Handlers holds the work each task type runs. Nil handlers are not registered.
type Handlers struct {
	Ingester   Ingester
	Similarity SimilarityAnalyzer
	Topics     TopicModeler
	Clusterer  Clusterer
	Reconciler Reconciler
}

// Processor executes queued tasks.
type Processor struct {
	h Handlers
	// retryInfo reports the current retry count and the task's retry budget.
	retryInfo func(ctx context.Context) (retried, maxRetry int)
}

// NewProcessor creates a Processor.
func NewProcessor(h Handlers) *Processor {
	return &Processor{h: h, retryInfo: asynqRetryInfo}
}

func asynqRetryInfo(ctx context.Context) (int, int) {
	retried, _ := asynq.GetRetryCount(ctx)
	maxRetry, _ := asynq.GetMaxRetry(ctx)
	return retried, maxRetry
}

// Register installs the task handlers on mux.
func (p *Processor) Register(mux *asynq.ServeMux) {
	if p.h.Ingester != nil {
		mux.HandleFunc(TypeDocumentIngest, p.HandleIngest)
	}
	if p.h.Similarity != nil {
		mux.HandleFunc(TypeAnalysisSimilarity, p.HandleAnalysis)
	}
	if p.h.Topics != nil {
		mux.HandleFunc(TypeAnalysisTopics, p.HandleAnalysis)
	}
	if p.h.Clusterer != nil {
		mux.HandleFunc(TypeAnalysisCluster, p.HandleAnalysis)
	}
	if p.h.Reconciler != nil {
		mux.HandleFunc(TypeAuditReconcile, p.HandleReconcile)
	}
}

// Permanent reports whether an ingestion error cannot be fixed by retrying.
func Permanent(err error) bool {
	return errors.Is(err, extract.ErrUnsupportedFormat) ||
		errors.Is(err, extract.ErrExtractionFailed) ||
		errors.Is(err, indexer.ErrNoChunks) ||
		errors.Is(err, storage.ErrNotFound)
}

// HandleIngest runs the pipeline for one document.
func (p *Processor) HandleIngest(ctx context.Context, t *asynq.Task) error {
	var payload IngestPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("invalid %s payload: %v: %w", t.Type(), err, asynq.SkipRetry)
	}
	if payload.DocID == "" || payload.UserID == "" {
		return fmt.Errorf("invalid %s payload: missing ids: %w", t.Type(), asynq.SkipRetry)
	}

	retried, maxRetry := p.retryInfo(ctx)
	logger := contextutil.LoggerFromContext(ctx).With(
		"task_type", t.Type(),
		"doc_id", payload.DocID,
		"user_id", payload.UserID,
		"retry", retried,
	)
	ctx = contextutil.WithLogger(ctx, logger)

	start := time.Now()
	res, err := p.h.Ingester.Process(ctx, payload.DocID, payload.UserID)
	if err == nil {
		logger.InfoContext(ctx, "ingestion task completed",
			"chunks", res.ChunksProcessed,
			"entities", res.EntitiesExtracted,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil
	}

	if Permanent(err) {
		logger.WarnContext(ctx, "ingestion failed permanently", "error", err)
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}

	// The pipeline records stage failures itself; anything earlier is recorded
	// once no retries remain.
	if retried >= maxRetry && res.FailedStage == "" {
		writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if merr := p.h.Ingester.MarkFailed(writeCtx, payload.DocID, payload.UserID, RetriesExhaustedMessage); merr != nil {
			logger.ErrorContext(ctx, "failed to mark document failed", "error", merr)
		}
	}
	logger.ErrorContext(ctx, "ingestion task failed", "error", err, "max_retry", maxRetry)
	return err
}

// HandleAnalysis runs similarity, topic, or clustering analysis for a user.
func (p *Processor) HandleAnalysis(ctx context.Context, t *asynq.Task) error {
	var payload AnalysisPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil || payload.UserID == "" {
		return fmt.Errorf("invalid %s payload: %w", t.Type(), asynq.SkipRetry)
	}

	logger := contextutil.LoggerFromContext(ctx).With("task_type", t.Type(), "user_id", payload.UserID)
	ctx = contextutil.WithLogger(ctx, logger)

	switch t.Type() {
	case TypeAnalysisSimilarity:
		res, err := p.h.Similarity.Analyze(ctx, payload.UserID)
		if err != nil {
			return err
		}
		logger.InfoContext(ctx, "similarity analysis completed", "pairs", res.Pairs, "edges", res.Edges, "skipped", len(res.Skipped))
	case TypeAnalysisTopics:
		res, err := p.h.Topics.Run(ctx, payload.UserID, payload.MaxTopics)
		if err != nil {
			return err
		}
		logger.InfoContext(ctx, "topic modeling completed", "topics", len(res.Topics), "assignments", len(res.Assignments))
	case TypeAnalysisCluster:
		stats, err := p.h.Clusterer.Cluster(ctx, payload.UserID)
		if err != nil {
			return err
		}
		logger.InfoContext(ctx, "entity clustering completed", "entities", stats.Entities, "edges", stats.Edges)
	default:
		return fmt.Errorf("unknown analysis task %q: %w", t.Type(), asynq.SkipRetry)
	}
	return nil
}

// HandleReconcile runs one reconciliation pass.
func (p *Processor) HandleReconcile(ctx context.Context, t *asynq.Task) error {
	var payload ReconcilePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil || payload.UserID == "" {
		return fmt.Errorf("invalid %s payload: %w", t.Type(), asynq.SkipRetry)
	}

	logger := contextutil.LoggerFromContext(ctx).With("task_type", t.Type(), "user_id", payload.UserID)
	ctx = contextutil.WithLogger(ctx, logger)

	run, err := p.h.Reconciler.Run(ctx, payload.UserID)
	if err != nil {
		return err
	}
	logger.InfoContext(ctx, "reconcile task completed", "run_id", run.ID, "findings", run.FindingsCount)
	return nil
}
