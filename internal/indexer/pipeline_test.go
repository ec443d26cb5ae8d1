package indexer

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"documind/internal/blob"
	"documind/internal/entities"
	"documind/internal/extract"
	"documind/internal/graphstore"
	"documind/internal/llm"
	"documind/internal/storage"
	"documind/internal/vectorstore"
)

const testDims = 4

type stubEmbedder struct {
	err   error
	calls int
}

func (s *stubEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t)), 1, float32(i), 0.5}
	}
	return out, nil
}

type recordingProcessor struct {
	mu     sync.Mutex
	chunks []string
}

func (r *recordingProcessor) ProcessChunk(_ context.Context, in entities.ChunkInput) (entities.ChunkResult, error) {
	r.mu.Lock()
	r.chunks = append(r.chunks, in.ChunkID)
	r.mu.Unlock()
	return entities.ChunkResult{
		Entities: []graphstore.EntityNode{{
			EntityID: entities.EntityID(in.DocID, entities.CategoryOther, in.ChunkID),
			UserID:   in.UserID,
			DocID:    in.DocID,
			Name:     in.ChunkID,
			Category: string(entities.CategoryOther),
		}},
		CooccurrenceEdges: 1,
	}, nil
}

type countingResolver struct {
	fresh int
}

func (c *countingResolver) ResolveCrossDocument(_ context.Context, _ string, fresh []graphstore.EntityNode) (entities.ResolveStats, error) {
	c.fresh += len(fresh)
	return entities.ResolveStats{SameAs: 1}, nil
}

type harness struct {
	docs      *storage.MemoryDocumentStore
	blobs     *blob.MemoryStore
	vectors   *vectorstore.MemoryStore
	graph     *graphstore.MemoryStore
	embedder  *stubEmbedder
	processor *recordingProcessor
	resolver  *countingResolver
	pipeline  *Pipeline
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	chunker, err := NewChunker(DefaultChunkSize, DefaultChunkOverlap)
	if err != nil {
		t.Fatalf("NewChunker() error = %v", err)
	}
	h := &harness{
		docs:      storage.NewMemoryDocumentStore(),
		blobs:     blob.NewMemoryStore(),
		vectors:   vectorstore.NewMemoryStore(testDims),
		graph:     graphstore.NewMemoryStore(),
		embedder:  &stubEmbedder{},
		processor: &recordingProcessor{},
		resolver:  &countingResolver{},
	}
	h.pipeline = NewPipeline(PipelineDeps{
		Documents: h.docs,
		Blobs:     h.blobs,
		Extractor: extract.NewExtractor(),
		Chunker:   chunker,
		Embedder:  h.embedder,
		Vectors:   h.vectors,
		Graph:     h.graph,
		Entities:  h.processor,
		Resolver:  h.resolver,
	}, PipelineConfig{EntityBatchSize: 2})
	return h
}

func (h *harness) upload(t *testing.T, docID, filename, mimeType string, data []byte) {
	t.Helper()
	key := blob.Key("u1", docID, filename)
	if _, err := h.blobs.Put(context.Background(), key, data, mimeType, nil); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	err := h.docs.Insert(context.Background(), &storage.Document{
		DocID:    docID,
		UserID:   "u1",
		Filename: filename,
		MIMEType: mimeType,
		BlobKey:  key,
	})
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
}

func compact(in []storage.ProcessingStatus) []storage.ProcessingStatus {
	var out []storage.ProcessingStatus
	for _, s := range in {
		if len(out) == 0 || out[len(out)-1] != s {
			out = append(out, s)
		}
	}
	return out
}

func TestPipeline_Process_TextDocument(t *testing.T) {
	h := newHarness(t)
	h.upload(t, "doc-1", "essay.txt", extract.MIMEText, []byte(makeWords(1200)))

	res, err := h.pipeline.Process(context.Background(), "doc-1", "u1")
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if !res.Success || res.ChunksProcessed != 3 {
		t.Fatalf("Process() = %+v, want success with 3 chunks", res)
	}
	if res.EntitiesExtracted != 3 || res.CooccurrenceEdges != 3 || res.SameAsEdges != 1 {
		t.Errorf("Process() entity stats = %+v", res)
	}
	if h.resolver.fresh != 3 {
		t.Errorf("resolver saw %d entities, want 3", h.resolver.fresh)
	}

	want := []storage.ProcessingStatus{storage.StatusPending, storage.StatusProcessing, storage.StatusCompleted}
	got := compact(h.docs.History("doc-1"))
	if len(got) != len(want) {
		t.Fatalf("status history = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("status history = %v, want %v", got, want)
		}
	}

	doc, err := h.docs.Get(context.Background(), "doc-1", "u1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if doc.Metadata.ChunkCount != 3 || doc.Metadata.WordCount != 1200 {
		t.Errorf("metadata = %+v, want 3 chunks and 1200 words", doc.Metadata)
	}
	if doc.Metadata.ChunkStats == nil || doc.Metadata.ChunkStats.MaxWords != 500 {
		t.Errorf("chunk stats = %+v", doc.Metadata.ChunkStats)
	}

	payloads, err := h.vectors.ListDocumentChunks(context.Background(), "doc-1", "u1")
	if err != nil {
		t.Fatalf("ListDocumentChunks() error = %v", err)
	}
	if len(payloads) != 3 {
		t.Fatalf("vector points = %d, want 3", len(payloads))
	}
	normalized := extract.Preprocess(makeWords(1200))
	for i, p := range payloads {
		if p.ChunkIndex != i || p.ChunkID != chunkID(i) {
			t.Errorf("payload[%d] index/id = %d/%s", i, p.ChunkIndex, p.ChunkID)
		}
		if normalized[p.StartPosition:p.EndPosition] != p.Text {
			t.Errorf("payload[%d] offsets do not match text", i)
		}
	}
	if payloads[0].StartPosition != 0 || payloads[2].EndPosition != len(normalized) {
		t.Errorf("chunks do not span the document: %d..%d", payloads[0].StartPosition, payloads[2].EndPosition)
	}

	chunks, err := h.graph.CountChunks(context.Background(), "doc-1", "u1")
	if err != nil {
		t.Fatalf("CountChunks() error = %v", err)
	}
	if chunks != 3 {
		t.Errorf("graph chunk nodes = %d, want 3", chunks)
	}

	// Entity extraction references the chunk node id, which is the point id.
	pointIDs := map[string]bool{}
	for _, p := range payloads {
		pointIDs[p.PointID] = true
	}
	for _, id := range h.processor.chunks {
		if !pointIDs[id] {
			t.Errorf("entity extraction used chunk id %q, not a point id", id)
		}
	}
}

func TestPipeline_Process_Reprocess(t *testing.T) {
	h := newHarness(t)
	h.upload(t, "doc-1", "essay.txt", extract.MIMEText, []byte(makeWords(1200)))

	for i := 0; i < 2; i++ {
		if _, err := h.pipeline.Process(context.Background(), "doc-1", "u1"); err != nil {
			t.Fatalf("Process() run %d error = %v", i, err)
		}
	}
	n, _ := h.vectors.CountByDocument(context.Background(), "doc-1", "u1")
	if n != 3 {
		t.Errorf("vector points after reprocess = %d, want 3", n)
	}
	c, _ := h.graph.CountChunks(context.Background(), "doc-1", "u1")
	if c != 3 {
		t.Errorf("graph chunks after reprocess = %d, want 3", c)
	}
}

func TestPipeline_Process_Failures(t *testing.T) {
	tests := []struct {
		name      string
		mimeType  string
		content   string
		embedErr  error
		wantStage Stage
		wantIs    error
		wantMsg   string
	}{
		{
			name:      "unsupported format",
			mimeType:  "image/png",
			content:   "binary",
			wantStage: StageExtract,
			wantIs:    extract.ErrUnsupportedFormat,
			wantMsg:   "Unsupported file format",
		},
		{
			name:      "no text",
			mimeType:  extract.MIMEText,
			content:   "   \n\t ",
			wantStage: StageChunk,
			wantIs:    ErrNoChunks,
			wantMsg:   "Document contains no text to index",
		},
		{
			name:      "embedding failure",
			mimeType:  extract.MIMEText,
			content:   makeWords(40),
			embedErr:  llm.ErrEmbeddingFailed,
			wantStage: StageEmbed,
			wantIs:    llm.ErrEmbeddingFailed,
			wantMsg:   "Embedding generation failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.embedder.err = tt.embedErr
			h.upload(t, "doc-1", "file", tt.mimeType, []byte(tt.content))

			res, err := h.pipeline.Process(context.Background(), "doc-1", "u1")
			if !errors.Is(err, tt.wantIs) {
				t.Fatalf("Process() error = %v, want %v", err, tt.wantIs)
			}
			if res.Success || res.FailedStage != tt.wantStage {
				t.Errorf("Process() = %+v, want failure at %s", res, tt.wantStage)
			}

			doc, _ := h.docs.Get(context.Background(), "doc-1", "u1")
			if doc.ProcessingStatus != storage.StatusFailed {
				t.Errorf("status = %s, want failed", doc.ProcessingStatus)
			}
			if doc.ErrorMessage != tt.wantMsg {
				t.Errorf("error message = %q, want %q", doc.ErrorMessage, tt.wantMsg)
			}
			if h.vectors.Len() != 0 {
				t.Errorf("vectors stored after failure at %s", tt.wantStage)
			}
			if len(h.processor.chunks) != 0 {
				t.Error("entity extraction ran after an earlier stage failed")
			}
		})
	}
}

func TestPipeline_Process_MissingDocument(t *testing.T) {
	h := newHarness(t)
	_, err := h.pipeline.Process(context.Background(), "nope", "u1")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Process() error = %v, want ErrNotFound", err)
	}
}

func TestFailureMessage(t *testing.T) {
	msg := FailureMessage(StageGraph, errors.New("neo4j: connection refused at 10.0.0.3"))
	if strings.Contains(msg, "10.0.0.3") {
		t.Errorf("FailureMessage() leaked the cause: %q", msg)
	}
	if msg != "Processing failed during graph" {
		t.Errorf("FailureMessage() = %q", msg)
	}
}
