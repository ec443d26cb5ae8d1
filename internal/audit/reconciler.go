package audit

import (
	"context"
	"fmt"
	"sort"
	"time"

	"documind/internal/blob"
	"documind/internal/contextutil"
	"documind/internal/graphstore"
	"documind/internal/storage"
	"documind/internal/vectorstore"
)

// DefaultStuckAfter is how long a document may stay in processing before it
// is reported as stuck.
const DefaultStuckAfter = time.Hour

// DocumentFinder lists document metadata records.
type DocumentFinder interface {
	Find(ctx context.Context, f storage.Filter) ([]storage.Document, error)
}

// BlobLister lists stored object keys.
type BlobLister interface {
	List(ctx context.Context, prefix string) ([]string, error)
}

// ReconcilerDeps holds the stores a Reconciler compares. Blobs may be nil.
type ReconcilerDeps struct {
	Documents DocumentFinder
	Vectors   vectorstore.VectorStore
	Graph     graphstore.GraphStore
	Blobs     BlobLister
	Runs      RunStore
}

// Reconciler compares the metadata, vector, graph and blob stores of a user
// and records the inconsistencies it finds. It never repairs anything.
type Reconciler struct {
	deps       ReconcilerDeps
	stuckAfter time.Duration
	now        func() time.Time
}

// NewReconciler creates a Reconciler. stuckAfter <= 0 uses DefaultStuckAfter.
func NewReconciler(deps ReconcilerDeps, stuckAfter time.Duration) *Reconciler {
	if stuckAfter <= 0 {
		stuckAfter = DefaultStuckAfter
	}
	return &Reconciler{deps: deps, stuckAfter: stuckAfter, now: time.Now}
}

// Run executes one reconciliation pass for userID and returns the persisted run.
func (r *Reconciler) Run(ctx context.Context, userID string) (*Run, error) {
	logger := contextutil.LoggerFromContext(ctx).With("user_id", userID)
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}

	runID, err := r.deps.Runs.StartRun(ctx, userID, r.now())
	if err != nil {
		return nil, err
	}
	logger = logger.With("run_id", runID)
	logger.InfoContext(ctx, "reconciliation started")

	findings, checked, err := r.collect(ctx, userID)
	if err != nil {
		logger.ErrorContext(ctx, "reconciliation failed", "error", err)
		if ferr := r.deps.Runs.FinishRun(context.WithoutCancel(ctx), runID, RunFailed, checked, err.Error()); ferr != nil {
			logger.ErrorContext(ctx, "failed to record failed run", "error", ferr)
		}
		return nil, fmt.Errorf("reconcile run %s: %w", runID, err)
	}

	if err := r.deps.Runs.AddFindings(ctx, runID, findings); err != nil {
		return nil, err
	}
	if err := r.deps.Runs.FinishRun(ctx, runID, RunCompleted, checked, ""); err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "reconciliation completed", "documents_checked", checked, "findings", len(findings))
	return r.deps.Runs.GetRun(ctx, runID)
}

func (r *Reconciler) collect(ctx context.Context, userID string) ([]Finding, int, error) {
	docs, err := r.deps.Documents.Find(ctx, storage.Filter{UserID: userID})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list documents: %w", err)
	}

	known := make(map[string]bool, len(docs))
	for _, d := range docs {
		known[d.DocID] = true
	}

	var findings []Finding
	cutoff := r.now().Add(-r.stuckAfter)
	checked := 0
	for _, d := range docs {
		switch d.ProcessingStatus {
		case storage.StatusCompleted:
			f, err := r.checkCounts(ctx, d)
			if err != nil {
				return nil, checked, err
			}
			checked++
			if f != nil {
				findings = append(findings, *f)
			}
		case storage.StatusProcessing:
			checked++
			if d.UpdatedAt.Before(cutoff) {
				findings = append(findings, Finding{
					Kind:   KindStuckProcessing,
					DocID:  d.DocID,
					Detail: fmt.Sprintf("processing since %s", d.UpdatedAt.UTC().Format(time.RFC3339)),
				})
			}
		}
	}

	orphans, err := r.orphans(ctx, userID, known)
	if err != nil {
		return nil, checked, err
	}
	return append(findings, orphans...), checked, nil
}

func (r *Reconciler) checkCounts(ctx context.Context, d storage.Document) (*Finding, error) {
	points, err := r.deps.Vectors.CountByDocument(ctx, d.DocID, d.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to count vectors of %s: %w", d.DocID, err)
	}
	chunks, err := r.deps.Graph.CountChunks(ctx, d.DocID, d.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to count graph chunks of %s: %w", d.DocID, err)
	}

	meta := d.Metadata.ChunkCount
	if meta == points && points == chunks {
		return nil, nil
	}
	return &Finding{
		Kind:           KindChunkMismatch,
		DocID:          d.DocID,
		Detail:         fmt.Sprintf("metadata=%d vectors=%d graph=%d", meta, points, chunks),
		MetadataChunks: &meta,
		VectorPoints:   &points,
		GraphChunks:    &chunks,
	}, nil
}

func (r *Reconciler) orphans(ctx context.Context, userID string, known map[string]bool) ([]Finding, error) {
	var findings []Finding

	vectorDocs, err := r.deps.Vectors.ListDocumentIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list vector documents: %w", err)
	}
	for _, id := range sortedUnknown(vectorDocs, known) {
		findings = append(findings, Finding{Kind: KindOrphanVectors, DocID: id, Detail: "vector points without a document record"})
	}

	graphDocs, err := r.deps.Graph.ListDocuments(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list graph documents: %w", err)
	}
	ids := make([]string, 0, len(graphDocs))
	for _, d := range graphDocs {
		ids = append(ids, d.DocID)
	}
	for _, id := range sortedUnknown(ids, known) {
		findings = append(findings, Finding{Kind: KindOrphanGraph, DocID: id, Detail: "graph document without a document record"})
	}

	if r.deps.Blobs == nil {
		return findings, nil
	}
	keys, err := r.deps.Blobs.List(ctx, blob.UserPrefix(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to list blobs: %w", err)
	}
	ids = ids[:0]
	for _, k := range keys {
		if _, docID, _, ok := blob.ParseKey(k); ok {
			ids = append(ids, docID)
		}
	}
	for _, id := range sortedUnknown(ids, known) {
		findings = append(findings, Finding{Kind: KindOrphanBlob, DocID: id, Detail: "stored file without a document record"})
	}
	return findings, nil
}

// sortedUnknown returns the distinct ids not in known, sorted.
func sortedUnknown(ids []string, known map[string]bool) []string {
	seen := make(map[string]bool)
	var out []string
	for _, id := range ids {
		if id == "" || known[id] || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
