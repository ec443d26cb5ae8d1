package similarity

import (
	"context"
	"fmt"

	"documind/internal/contextutil"
	"documind/internal/graphstore"
	"documind/internal/llm"
	"documind/internal/vectorstore"
)

const DefaultThreshold = 0.3

// Embedder embeds texts in input order.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Result summarizes one analysis run.
type Result struct {
	Documents int `json:"documents"`
	Pairs     int `json:"pairs"`
	Edges     int `json:"edges"`
	// Skipped lists documents whose embedding could not be computed.
	Skipped []string `json:"skipped,omitempty"`
}

// Analyzer links a user's documents whose mean chunk embeddings are close.
type Analyzer struct {
	vectors   vectorstore.VectorStore
	graph     graphstore.GraphStore
	embedder  Embedder
	threshold float64
}

// NewAnalyzer creates an analyzer. threshold <= 0 uses DefaultThreshold.
func NewAnalyzer(vectors vectorstore.VectorStore, graph graphstore.GraphStore, embedder Embedder, threshold float64) *Analyzer {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Analyzer{vectors: vectors, graph: graph, embedder: embedder, threshold: threshold}
}

// Analyze compares every pair of the user's documents once and writes a
// DOCUMENT_SIMILAR_TO edge for pairs above the threshold. Fewer than two
// documents is a no-op.
func (a *Analyzer) Analyze(ctx context.Context, userID string) (Result, error) {
	logger := contextutil.LoggerFromContext(ctx)

	docs, err := a.graph.ListDocuments(ctx, userID)
	if err != nil {
		return Result{}, fmt.Errorf("failed to list documents: %w", err)
	}
	res := Result{Documents: len(docs)}
	if len(docs) < 2 {
		return res, nil
	}

	type docVector struct {
		id  string
		vec []float32
	}
	var vectors []docVector
	for _, d := range docs {
		vec, err := a.documentEmbedding(ctx, d.DocID, userID)
		if err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			logger.WarnContext(ctx, "skipping document in similarity analysis", "doc_id", d.DocID, "error", err)
			res.Skipped = append(res.Skipped, d.DocID)
			continue
		}
		vectors = append(vectors, docVector{d.DocID, vec})
	}

	seen := make(map[string]bool)
	for i := range vectors {
		for j := range vectors {
			if i == j {
				continue
			}
			key := pairKey(vectors[i].id, vectors[j].id)
			if seen[key] {
				continue
			}
			seen[key] = true
			res.Pairs++

			sim := llm.CosineSimilarity(vectors[i].vec, vectors[j].vec)
			if sim <= a.threshold {
				continue
			}
			if err := a.graph.CreateDocumentSimilarityEdge(ctx, vectors[i].id, vectors[j].id, userID, sim); err != nil {
				return res, fmt.Errorf("failed to create document similarity edge: %w", err)
			}
			res.Edges++
		}
	}

	logger.InfoContext(ctx, "document similarity analysis completed",
		"documents", res.Documents, "pairs", res.Pairs, "edges", res.Edges, "skipped", len(res.Skipped))
	return res, nil
}

// documentEmbedding re-embeds the document's chunk texts and averages them.
func (a *Analyzer) documentEmbedding(ctx context.Context, docID, userID string) ([]float32, error) {
	chunks, err := a.vectors.ListDocumentChunks(ctx, docID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chunks: %w", err)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("document has no chunks")
	}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	embeddings, err := a.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, err
	}
	mean := llm.MeanVector(embeddings)
	if mean == nil {
		return nil, fmt.Errorf("inconsistent embedding dimensions")
	}
	return mean, nil
}

func pairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "|" + b
}
