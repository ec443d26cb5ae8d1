package audit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"documind/internal/blob"
	"documind/internal/graphstore"
	"documind/internal/storage"
	"documind/internal/vectorstore"
)

type fixture struct {
	docs    *storage.MemoryDocumentStore
	vectors *vectorstore.MemoryStore
	graph   *graphstore.MemoryStore
	blobs   *blob.MemoryStore
	ctx     context.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return &fixture{
		docs:    storage.NewMemoryDocumentStore(),
		vectors: vectorstore.NewMemoryStore(2),
		graph:   graphstore.NewMemoryStore(),
		blobs:   blob.NewMemoryStore(),
		ctx:     context.Background(),
	}
}

// indexed stores a document with the given counts in each store.
func (f *fixture) indexed(t *testing.T, docID string, metaChunks, points, graphChunks int) {
	t.Helper()
	require.NoError(t, f.docs.Insert(f.ctx, &storage.Document{DocID: docID, UserID: "u1", Filename: docID + ".txt"}))
	require.NoError(t, f.docs.UpdateStatus(f.ctx, docID, "u1", storage.StatusUpdate{
		Status:   storage.StatusCompleted,
		Metadata: &storage.DocumentMetadata{ChunkCount: metaChunks},
	}))
	f.storeData(t, docID, points, graphChunks)
}

func (f *fixture) storeData(t *testing.T, docID string, points, graphChunks int) {
	t.Helper()
	var pts []vectorstore.Point
	for i := 0; i < points; i++ {
		id := fmt.Sprintf("%s-p%d", docID, i)
		pts = append(pts, vectorstore.Point{ID: id, Vector: []float32{1, 0}, Payload: vectorstore.Payload{PointID: id, DocID: docID, UserID: "u1", ChunkIndex: i}})
	}
	require.NoError(t, f.vectors.Upsert(f.ctx, pts))
	require.NoError(t, f.graph.UpsertDocument(f.ctx, graphstore.DocumentNode{DocID: docID, UserID: "u1"}))
	for i := 0; i < graphChunks; i++ {
		require.NoError(t, f.graph.UpsertChunk(f.ctx, graphstore.ChunkNode{ChunkID: fmt.Sprintf("%s-c%d", docID, i), DocID: docID, UserID: "u1", ChunkIndex: i}))
	}
	_, err := f.blobs.Put(f.ctx, blob.Key("u1", docID, docID+".txt"), []byte("x"), "text/plain", nil)
	require.NoError(t, err)
}

func (f *fixture) reconciler(t *testing.T) *Reconciler {
	t.Helper()
	return NewReconciler(ReconcilerDeps{
		Documents: f.docs,
		Vectors:   f.vectors,
		Graph:     f.graph,
		Blobs:     f.blobs,
		Runs:      newTestDB(t),
	}, time.Hour)
}

func kinds(run *Run) map[FindingKind][]string {
	out := map[FindingKind][]string{}
	for _, f := range run.Findings {
		out[f.Kind] = append(out[f.Kind], f.DocID)
	}
	return out
}

func TestReconciler_Run(t *testing.T) {
	f := newFixture(t)
	f.indexed(t, "healthy", 3, 3, 3)
	f.indexed(t, "partial", 3, 2, 3)

	// Stuck: moved to processing two hours ago.
	require.NoError(t, f.docs.Insert(f.ctx, &storage.Document{DocID: "stuck", UserID: "u1"}))
	f.docs.SetClock(func() time.Time { return time.Now().Add(-2 * time.Hour) })
	require.NoError(t, f.docs.UpdateStatus(f.ctx, "stuck", "u1", storage.StatusUpdate{Status: storage.StatusProcessing}))
	f.docs.SetClock(time.Now)

	// Recently started processing is not stuck.
	require.NoError(t, f.docs.Insert(f.ctx, &storage.Document{DocID: "busy", UserID: "u1"}))
	require.NoError(t, f.docs.UpdateStatus(f.ctx, "busy", "u1", storage.StatusUpdate{Status: storage.StatusProcessing}))

	// Data left behind by a deleted document.
	f.storeData(t, "ghost", 2, 2)

	run, err := f.reconciler(t).Run(f.ctx, "u1")
	require.NoError(t, err)

	assert.Equal(t, RunCompleted, run.Status)
	assert.Equal(t, 4, run.DocumentsChecked)
	assert.Equal(t, len(run.Findings), run.FindingsCount)

	got := kinds(run)
	assert.Equal(t, []string{"partial"}, got[KindChunkMismatch])
	assert.Equal(t, []string{"stuck"}, got[KindStuckProcessing])
	assert.Equal(t, []string{"ghost"}, got[KindOrphanVectors])
	assert.Equal(t, []string{"ghost"}, got[KindOrphanGraph])
	assert.Equal(t, []string{"ghost"}, got[KindOrphanBlob])

	for _, finding := range run.Findings {
		if finding.Kind == KindChunkMismatch {
			require.NotNil(t, finding.VectorPoints)
			assert.Equal(t, 2, *finding.VectorPoints)
			assert.Equal(t, 3, *finding.MetadataChunks)
		}
	}
}

func TestReconciler_Run_Clean(t *testing.T) {
	f := newFixture(t)
	f.indexed(t, "d1", 2, 2, 2)

	run, err := f.reconciler(t).Run(f.ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, run.Findings)
	assert.Equal(t, 1, run.DocumentsChecked)
}

type failingVectors struct {
	*vectorstore.MemoryStore
}

func (failingVectors) CountByDocument(context.Context, string, string) (int, error) {
	return 0, vectorstore.ErrStoreUnavailable
}

func TestReconciler_Run_StoreFailure(t *testing.T) {
	f := newFixture(t)
	f.indexed(t, "d1", 2, 2, 2)
	runs := newTestDB(t)

	r := NewReconciler(ReconcilerDeps{
		Documents: f.docs,
		Vectors:   failingVectors{f.vectors},
		Graph:     f.graph,
		Runs:      runs,
	}, 0)
	_, err := r.Run(f.ctx, "u1")
	require.ErrorIs(t, err, vectorstore.ErrStoreUnavailable)

	recorded, err := runs.ListRuns(f.ctx, "u1", 1)
	require.NoError(t, err)
	require.Len(t, recorded, 1)
	assert.Equal(t, RunFailed, recorded[0].Status)
	assert.NotEmpty(t, recorded[0].Error)
}

func TestReconciler_Run_RequiresUser(t *testing.T) {
	f := newFixture(t)
	_, err := f.reconciler(t).Run(f.ctx, "")
	assert.Error(t, err)
}
