package indexer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"documind/internal/contextutil"
	"documind/internal/entities"
	"documind/internal/extract"
	"documind/internal/graphstore"
	"documind/internal/llm"
	"documind/internal/storage"
	"documind/internal/vectorstore"
)

// ErrNoChunks is returned when a document yields no text to index.
var ErrNoChunks = errors.New("document produced no chunks")

const (
	DefaultEntityBatchSize  = 3
	DefaultEntityBatchDelay = time.Second
	defaultChunkWorkers     = 8
)

// BlobReader reads uploaded file bytes.
type BlobReader interface {
	Get(ctx context.Context, key string) ([]byte, error)
}

// TextExtractor converts file bytes to text.
type TextExtractor interface {
	Extract(ctx context.Context, data []byte, mimeType string) (extract.Result, error)
}

// Embedder embeds texts in input order.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// ChunkProcessor extracts entities from one chunk into the graph.
type ChunkProcessor interface {
	ProcessChunk(ctx context.Context, in entities.ChunkInput) (entities.ChunkResult, error)
}

// EntityResolver links freshly extracted entities to the rest of the user's graph.
type EntityResolver interface {
	ResolveCrossDocument(ctx context.Context, userID string, fresh []graphstore.EntityNode) (entities.ResolveStats, error)
}

// PipelineDeps are the collaborators of a Pipeline.
type PipelineDeps struct {
	Documents storage.DocumentStore
	Blobs     BlobReader
	Extractor TextExtractor
	Chunker   *Chunker
	Embedder  Embedder
	Vectors   vectorstore.VectorStore
	Graph     graphstore.GraphStore
	Entities  ChunkProcessor
	Resolver  EntityResolver
}

// PipelineConfig tunes the entity extraction throttle.
type PipelineConfig struct {
	// EntityBatchSize chunks are processed concurrently per batch.
	EntityBatchSize int
	// EntityBatchDelay is the pause between batches.
	EntityBatchDelay time.Duration
}

// Pipeline ingests one document through every store.
type Pipeline struct {
	PipelineDeps
	cfg PipelineConfig
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(deps PipelineDeps, cfg PipelineConfig) *Pipeline {
	if cfg.EntityBatchSize <= 0 {
		cfg.EntityBatchSize = DefaultEntityBatchSize
	}
	if cfg.EntityBatchDelay < 0 {
		cfg.EntityBatchDelay = 0
	}
	return &Pipeline{PipelineDeps: deps, cfg: cfg}
}

// run carries the state passed between stages.
type run struct {
	doc       *storage.Document
	extracted extract.Result
	metadata  storage.DocumentMetadata
	chunks    []Chunk
	vectors   [][]float32
	points    []vectorstore.Point
	entities  []graphstore.EntityNode
	res       *Result
}

// Process runs every stage for the document in order: status processing,
// extract, metadata, chunk, embed, store vectors, graph nodes, entities,
// resolution, then status completed. The first failing stage marks the
// document failed and stops the run; the returned error wraps the cause.
func (p *Pipeline) Process(ctx context.Context, docID, userID string) (Result, error) {
	logger := contextutil.LoggerFromContext(ctx).With("doc_id", docID, "user_id", userID)
	ctx = contextutil.WithLogger(ctx, logger)

	res := Result{DocID: docID, Timings: make(map[Stage]time.Duration)}

	doc, err := p.Documents.Get(ctx, docID, userID)
	if err != nil {
		return res, fmt.Errorf("failed to load document: %w", err)
	}
	if err := p.Documents.UpdateStatus(ctx, docID, userID, storage.StatusUpdate{Status: storage.StatusProcessing}); err != nil {
		return res, fmt.Errorf("failed to mark document processing: %w", err)
	}

	r := &run{doc: doc, metadata: doc.Metadata, res: &res}
	stages := []struct {
		stage Stage
		fn    func(context.Context, *run) error
	}{
		{StageExtract, p.extract},
		{StageMetadata, p.updateMetadata},
		{StageChunk, p.chunk},
		{StageEmbed, p.embed},
		{StageVectors, p.storeVectors},
		{StageGraph, p.createGraphNodes},
		{StageEntities, p.extractEntities},
		{StageResolve, p.resolve},
	}

	started := time.Now()
	for _, s := range stages {
		t0 := time.Now()
		err := s.fn(ctx, r)
		res.Timings[s.stage] = time.Since(t0)
		if err != nil {
			return res, p.fail(ctx, r, s.stage, err)
		}
	}

	r.metadata.ChunkCount = len(r.chunks)
	stats := ComputeChunkStats(r.chunks)
	r.metadata.ChunkStats = &stats
	if err := p.Documents.UpdateStatus(ctx, docID, userID, storage.StatusUpdate{
		Status:   storage.StatusCompleted,
		Metadata: &r.metadata,
	}); err != nil {
		return res, p.fail(ctx, r, StageCompleted, err)
	}

	res.Success = true
	logger.InfoContext(ctx, "document processed",
		"chunks", res.ChunksProcessed,
		"entities", res.EntitiesExtracted,
		"same_as", res.SameAsEdges,
		"similar", res.SimilarEdges,
		"duration", time.Since(started))
	return res, nil
}

// MarkFailed records a failure that happened outside Process, such as a
// task exhausting its retries.
func (p *Pipeline) MarkFailed(ctx context.Context, docID, userID, message string) error {
	return p.Documents.UpdateStatus(ctx, docID, userID, storage.StatusUpdate{
		Status:       storage.StatusFailed,
		ErrorMessage: message,
	})
}

func (p *Pipeline) fail(ctx context.Context, r *run, stage Stage, cause error) error {
	logger := contextutil.LoggerFromContext(ctx)
	r.res.FailedStage = stage
	r.res.Error = FailureMessage(stage, cause)
	logger.ErrorContext(ctx, "document processing failed", "stage", stage, "error", cause)

	// The run context may already be cancelled; the failure must still be recorded.
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := p.MarkFailed(writeCtx, r.doc.DocID, r.doc.UserID, r.res.Error); err != nil {
		logger.ErrorContext(ctx, "failed to mark document failed", "error", err)
	}
	return fmt.Errorf("%s stage failed: %w", stage, cause)
}

// FailureMessage is the short user-facing reason stored on a failed document.
func FailureMessage(stage Stage, err error) string {
	switch {
	case errors.Is(err, extract.ErrUnsupportedFormat):
		return "Unsupported file format"
	case errors.Is(err, extract.ErrExtractionFailed):
		return "Could not extract text from the document"
	case errors.Is(err, ErrNoChunks):
		return "Document contains no text to index"
	case errors.Is(err, llm.ErrEmbeddingFailed):
		return "Embedding generation failed"
	case errors.Is(err, vectorstore.ErrStoreUnavailable):
		return "Vector store unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Sprintf("Processing timed out during %s", stage)
	}
	return fmt.Sprintf("Processing failed during %s", stage)
}

func (p *Pipeline) extract(ctx context.Context, r *run) error {
	data, err := p.Blobs.Get(ctx, r.doc.BlobKey)
	if err != nil {
		return fmt.Errorf("failed to download file: %w", err)
	}
	r.extracted, err = p.Extractor.Extract(ctx, data, r.doc.MIMEType)
	return err
}

func (p *Pipeline) updateMetadata(ctx context.Context, r *run) error {
	m := r.extracted.Metadata
	if r.metadata.Title == "" {
		r.metadata.Title = m.Title
	}
	if r.metadata.Author == "" {
		r.metadata.Author = m.Author
	}
	if r.metadata.Subject == "" {
		r.metadata.Subject = m.Subject
	}
	r.metadata.PageCount = m.PageCount
	r.metadata.WordCount = m.WordCount

	return p.Documents.UpdateStatus(ctx, r.doc.DocID, r.doc.UserID, storage.StatusUpdate{
		Status:   storage.StatusProcessing,
		Metadata: &r.metadata,
	})
}

func (p *Pipeline) chunk(ctx context.Context, r *run) error {
	r.chunks = p.Chunker.Chunk(extract.Preprocess(r.extracted.Text))
	if len(r.chunks) == 0 {
		return ErrNoChunks
	}
	r.res.ChunksProcessed = len(r.chunks)
	return nil
}

func (p *Pipeline) embed(ctx context.Context, r *run) error {
	texts := make([]string, len(r.chunks))
	for i, c := range r.chunks {
		texts[i] = c.Text
	}
	vectors, err := p.Embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return err
	}
	if len(vectors) != len(r.chunks) {
		return fmt.Errorf("%w: expected %d embeddings, got %d", llm.ErrEmbeddingFailed, len(r.chunks), len(vectors))
	}
	r.vectors = vectors
	return nil
}

// storeVectors replaces any points left by an earlier run of the document.
func (p *Pipeline) storeVectors(ctx context.Context, r *run) error {
	now := time.Now().UTC()
	r.points = make([]vectorstore.Point, len(r.chunks))
	for i, c := range r.chunks {
		id := uuid.NewString()
		r.points[i] = vectorstore.Point{
			ID:     id,
			Vector: r.vectors[i],
			Payload: vectorstore.Payload{
				PointID:       id,
				DocID:         r.doc.DocID,
				UserID:        r.doc.UserID,
				ChunkID:       c.ID,
				ChunkIndex:    c.Index,
				Text:          c.Text,
				StartPosition: c.StartPosition,
				EndPosition:   c.EndPosition,
				Filename:      r.doc.Filename,
				CreatedAt:     now,
			},
		}
	}

	if err := p.Vectors.EnsureCollection(ctx); err != nil {
		return fmt.Errorf("failed to initialize collection: %w", err)
	}
	if err := p.Vectors.DeleteByDocument(ctx, r.doc.DocID, r.doc.UserID); err != nil {
		return fmt.Errorf("failed to clear previous vectors: %w", err)
	}
	return p.Vectors.Upsert(ctx, r.points)
}

// createGraphNodes rebuilds the document subgraph: the Document node, then
// one Chunk node per point, keyed by the point id.
func (p *Pipeline) createGraphNodes(ctx context.Context, r *run) error {
	if err := p.Graph.DeleteDocumentSubgraph(ctx, r.doc.DocID, r.doc.UserID); err != nil {
		return fmt.Errorf("failed to clear previous graph: %w", err)
	}
	err := p.Graph.UpsertDocument(ctx, graphstore.DocumentNode{
		DocID:     r.doc.DocID,
		UserID:    r.doc.UserID,
		Filename:  r.doc.Filename,
		Title:     r.metadata.Title,
		CreatedAt: r.doc.UploadedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to create document node: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(defaultChunkWorkers)
	for _, pt := range r.points {
		g.Go(func() error {
			return p.Graph.UpsertChunk(gctx, graphstore.ChunkNode{
				ChunkID:    pt.ID,
				DocID:      r.doc.DocID,
				UserID:     r.doc.UserID,
				Text:       pt.Payload.Text,
				ChunkIndex: pt.Payload.ChunkIndex,
			})
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("failed to create chunk nodes: %w", err)
	}
	return nil
}

// extractEntities processes chunks in fixed-size concurrent batches with a
// pause between batches.
func (p *Pipeline) extractEntities(ctx context.Context, r *run) error {
	logger := contextutil.LoggerFromContext(ctx)
	size := p.cfg.EntityBatchSize

	for start := 0; start < len(r.points); start += size {
		if start > 0 && p.cfg.EntityBatchDelay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.cfg.EntityBatchDelay):
			}
		}

		end := min(start+size, len(r.points))
		batch := r.points[start:end]
		results := make([]entities.ChunkResult, len(batch))

		g, gctx := errgroup.WithContext(ctx)
		for i, pt := range batch {
			g.Go(func() error {
				out, err := p.Entities.ProcessChunk(gctx, entities.ChunkInput{
					UserID:  r.doc.UserID,
					DocID:   r.doc.DocID,
					ChunkID: pt.ID,
					Text:    pt.Payload.Text,
				})
				results[i] = out
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		for _, out := range results {
			r.entities = append(r.entities, out.Entities...)
			r.res.EntitiesExtracted += len(out.Entities)
			r.res.Relationships += out.Relationships
			r.res.CooccurrenceEdges += out.CooccurrenceEdges
		}
		logger.DebugContext(ctx, "entity batch processed", "from", start, "to", end, "entities", r.res.EntitiesExtracted)
	}
	return nil
}

func (p *Pipeline) resolve(ctx context.Context, r *run) error {
	if len(r.entities) == 0 {
		return nil
	}
	stats, err := p.Resolver.ResolveCrossDocument(ctx, r.doc.UserID, r.entities)
	if err != nil {
		return fmt.Errorf("failed to resolve entities: %w", err)
	}
	r.res.SameAsEdges = stats.SameAs
	r.res.SimilarEdges = stats.Similar
	return nil
}
