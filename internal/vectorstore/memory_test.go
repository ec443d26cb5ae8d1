package vectorstore

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func point(id, user, doc string, idx int, vec ...float32) Point {
	return Point{
		ID:     id,
		Vector: vec,
		Payload: Payload{
			PointID:    id,
			DocID:      doc,
			UserID:     user,
			ChunkID:    fmt.Sprintf("chunk_%d", idx),
			ChunkIndex: idx,
			Text:       "text " + id,
		},
	}
}

func seededStore(t *testing.T) *MemoryStore {
	t.Helper()
	s := NewMemoryStore(2)
	require.NoError(t, s.EnsureCollection(context.Background()))
	require.NoError(t, s.Upsert(context.Background(), []Point{
		point("p1", "alice", "d1", 0, 1, 0),
		point("p2", "alice", "d1", 1, 0.9, 0.1),
		point("p3", "alice", "d2", 0, 0, 1),
		point("p4", "bob", "d3", 0, 1, 0),
	}))
	return s
}

func TestMemoryStore_SearchIsScopedToUser(t *testing.T) {
	s := seededStore(t)

	results, err := s.Search(context.Background(), SearchRequest{Vector: []float32{1, 0}, UserID: "alice", Limit: 10})
	require.NoError(t, err)
	require.Len(t, results, 3)
	for _, r := range results {
		assert.Equal(t, "alice", r.Payload.UserID)
	}
	assert.Equal(t, "p1", results[0].PointID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}
}

func TestMemoryStore_SearchFilters(t *testing.T) {
	s := seededStore(t)
	ctx := context.Background()

	t.Run("doc ids", func(t *testing.T) {
		results, err := s.Search(ctx, SearchRequest{Vector: []float32{1, 0}, UserID: "alice", Limit: 10, DocIDs: []string{"d2"}})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "d2", results[0].Payload.DocID)
	})

	t.Run("score threshold", func(t *testing.T) {
		results, err := s.Search(ctx, SearchRequest{Vector: []float32{1, 0}, UserID: "alice", Limit: 10, ScoreThreshold: 0.5})
		require.NoError(t, err)
		assert.Len(t, results, 2)
	})

	t.Run("limit", func(t *testing.T) {
		results, err := s.Search(ctx, SearchRequest{Vector: []float32{1, 0}, UserID: "alice", Limit: 1})
		require.NoError(t, err)
		assert.Len(t, results, 1)
	})

	t.Run("other user's documents are never returned", func(t *testing.T) {
		results, err := s.Search(ctx, SearchRequest{Vector: []float32{1, 0}, UserID: "alice", Limit: 10, DocIDs: []string{"d3"}})
		require.NoError(t, err)
		assert.Empty(t, results)
	})
}

func TestMemoryStore_DocumentOperations(t *testing.T) {
	s := seededStore(t)
	ctx := context.Background()

	n, err := s.CountByDocument(ctx, "d1", "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	chunks, err := s.ListDocumentChunks(ctx, "d1", "alice")
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, 0, chunks[0].ChunkIndex)
	assert.Equal(t, 1, chunks[1].ChunkIndex)

	ids, err := s.ListDocumentIDs(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"d1", "d2"}, ids)

	// Wrong owner deletes nothing.
	require.NoError(t, s.DeleteByDocument(ctx, "d1", "bob"))
	assert.Equal(t, 4, s.Len())

	require.NoError(t, s.DeleteByDocument(ctx, "d1", "alice"))
	n, err = s.CountByDocument(ctx, "d1", "alice")
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 2, s.Len())
}

func TestMemoryStore_UpsertReplacesByID(t *testing.T) {
	s := NewMemoryStore(2)
	ctx := context.Background()
	require.NoError(t, s.Upsert(ctx, []Point{point("p1", "alice", "d1", 0, 1, 0)}))
	require.NoError(t, s.Upsert(ctx, []Point{point("p1", "alice", "d1", 0, 0, 1)}))
	assert.Equal(t, 1, s.Len())

	err := s.Upsert(ctx, []Point{point("p2", "alice", "d1", 1, 1, 0, 0)})
	assert.Error(t, err)
	assert.Equal(t, 1, s.Len())
}
