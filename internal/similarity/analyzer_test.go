package similarity

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"documind/internal/graphstore"
	"documind/internal/vectorstore"
)

type tableEmbedder map[string][]float32

func (t tableEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, ok := t[text]
		if !ok {
			return nil, errors.New("embedding provider failed")
		}
		out[i] = vec
	}
	return out, nil
}

type corpus struct {
	vectors *vectorstore.MemoryStore
	graph   *graphstore.MemoryStore
}

func newCorpus(t *testing.T, docs map[string][]string) *corpus {
	t.Helper()
	ctx := context.Background()
	c := &corpus{vectors: vectorstore.NewMemoryStore(2), graph: graphstore.NewMemoryStore()}
	for docID, texts := range docs {
		require.NoError(t, c.graph.UpsertDocument(ctx, graphstore.DocumentNode{DocID: docID, UserID: "u1"}))
		for i, text := range texts {
			id := fmt.Sprintf("%s-%d", docID, i)
			require.NoError(t, c.vectors.Upsert(ctx, []vectorstore.Point{{
				ID:      id,
				Vector:  []float32{0, 1},
				Payload: vectorstore.Payload{PointID: id, DocID: docID, UserID: "u1", ChunkIndex: i, Text: text},
			}}))
		}
	}
	return c
}

var fruitEmbedder = tableEmbedder{
	"apple": {1, 0},
	"pear":  {0.9, 0.1},
	"car":   {0, 1},
}

func TestAnalyzer_Analyze(t *testing.T) {
	c := newCorpus(t, map[string][]string{
		"d1": {"apple", "pear"},
		"d2": {"apple"},
		"d3": {"car"},
		"d4": {},
		"d5": {"boom"},
	})

	res, err := NewAnalyzer(c.vectors, c.graph, fruitEmbedder, 0).Analyze(context.Background(), "u1")
	require.NoError(t, err)

	assert.Equal(t, 5, res.Documents)
	assert.ElementsMatch(t, []string{"d4", "d5"}, res.Skipped)
	assert.Equal(t, 3, res.Pairs, "each unordered pair is compared once")
	assert.Equal(t, 1, res.Edges)

	g, err := c.graph.GetGraph(context.Background(), "u1", nil)
	require.NoError(t, err)
	var edges []graphstore.Edge
	for _, e := range g.Edges {
		if e.Type == graphstore.RelDocumentSimilarTo {
			edges = append(edges, e)
		}
	}
	require.Len(t, edges, 1)
	assert.Equal(t, "d1", edges[0].Source)
	assert.Equal(t, "d2", edges[0].Target)
	assert.Greater(t, edges[0].Properties["similarity"], 0.99)
}

func TestAnalyzer_NeedsTwoDocuments(t *testing.T) {
	c := newCorpus(t, map[string][]string{"d1": {"apple"}})
	res, err := NewAnalyzer(c.vectors, c.graph, fruitEmbedder, 0).Analyze(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Documents)
	assert.Zero(t, res.Pairs)
	assert.Zero(t, res.Edges)
}

func TestAnalyzer_Threshold(t *testing.T) {
	c := newCorpus(t, map[string][]string{
		"d1": {"apple"},
		"d2": {"pear"},
	})
	// cos(apple, pear) is about 0.994.
	res, err := NewAnalyzer(c.vectors, c.graph, fruitEmbedder, 0.995).Analyze(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Pairs)
	assert.Zero(t, res.Edges)
}

func TestPairKey(t *testing.T) {
	assert.Equal(t, pairKey("b", "a"), pairKey("a", "b"))
	assert.NotEqual(t, pairKey("a", "b"), pairKey("a", "c"))
}
