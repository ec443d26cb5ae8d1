package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func toD(t *testing.T, v any) bson.D {
	t.Helper()
	raw, err := bson.Marshal(v)
	require.NoError(t, err)
	var d bson.D
	require.NoError(t, bson.Unmarshal(raw, &d))
	return d
}

func sampleDocument() Document {
	return Document{
		DocID:            "doc-1",
		UserID:           "user-1",
		Filename:         "report.pdf",
		OriginalName:     "report.pdf",
		MIMEType:         "application/pdf",
		Size:             2048,
		BlobKey:          "user-1/doc-1/report.pdf",
		UploadedAt:       time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		UpdatedAt:        time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		ProcessingStatus: StatusCompleted,
		Metadata:         DocumentMetadata{Title: "Q1 Report", ChunkCount: 3},
	}
}

func TestDocumentRepo(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ns := "documind.documents"

	mt.Run("insert defaults", func(mt *mtest.T) {
		repo := NewDocumentRepo(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		doc := &Document{DocID: "doc-1", UserID: "user-1"}
		require.NoError(mt, repo.Insert(context.Background(), doc))
		assert.Equal(mt, StatusPending, doc.ProcessingStatus)
		assert.False(mt, doc.UploadedAt.IsZero())
	})

	mt.Run("get found", func(mt *mtest.T) {
		repo := NewDocumentRepo(mt.Coll)
		want := sampleDocument()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, toD(mt.T, want)))

		got, err := repo.Get(context.Background(), "doc-1", "user-1")
		require.NoError(mt, err)
		assert.Equal(mt, want.Filename, got.Filename)
		assert.Equal(mt, want.Metadata, got.Metadata)
		assert.Equal(mt, StatusCompleted, got.ProcessingStatus)
	})

	mt.Run("get missing", func(mt *mtest.T) {
		repo := NewDocumentRepo(mt.Coll)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := repo.Get(context.Background(), "doc-1", "user-2")
		assert.True(mt, errors.Is(err, ErrNotFound))
	})

	mt.Run("list paginates", func(mt *mtest.T) {
		repo := NewDocumentRepo(mt.Coll)
		doc := sampleDocument()
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{{Key: "n", Value: int32(21)}}),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, toD(mt.T, doc)),
		)

		page, err := repo.List(context.Background(), "user-1", 3, 0)
		require.NoError(mt, err)
		assert.Equal(mt, int64(21), page.Total)
		assert.Equal(mt, DefaultPageLimit, page.Limit)
		assert.Equal(mt, 3, page.TotalPages)
		assert.Len(mt, page.Documents, 1)
	})

	mt.Run("update status", func(mt *mtest.T) {
		repo := NewDocumentRepo(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))

		err := repo.UpdateStatus(context.Background(), "doc-1", "user-1", StatusUpdate{
			Status:   StatusCompleted,
			Metadata: &DocumentMetadata{ChunkCount: 3},
		})
		require.NoError(mt, err)
	})

	mt.Run("update status missing", func(mt *mtest.T) {
		repo := NewDocumentRepo(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))

		err := repo.UpdateStatus(context.Background(), "doc-1", "user-1", StatusUpdate{Status: StatusFailed, ErrorMessage: "boom"})
		assert.True(mt, errors.Is(err, ErrNotFound))
	})

	mt.Run("update status rejects unknown", func(mt *mtest.T) {
		repo := NewDocumentRepo(mt.Coll)
		err := repo.UpdateStatus(context.Background(), "doc-1", "user-1", StatusUpdate{Status: "archived"})
		assert.Error(mt, err)
	})

	mt.Run("delete", func(mt *mtest.T) {
		repo := NewDocumentRepo(mt.Coll)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}),
		)

		require.NoError(mt, repo.Delete(context.Background(), "doc-1", "user-1"))
		assert.True(mt, errors.Is(repo.Delete(context.Background(), "doc-1", "user-1"), ErrNotFound))
	})
}

func TestMemoryDocumentStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryDocumentStore()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		s.SetClock(func() time.Time { return base.Add(time.Duration(i) * time.Hour) })
		require.NoError(t, s.Insert(ctx, &Document{DocID: id, UserID: "u1"}))
	}
	require.NoError(t, s.Insert(ctx, &Document{DocID: "other", UserID: "u2"}))

	page, err := s.List(ctx, "u1", 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Documents, 2)
	assert.Equal(t, "c", page.Documents[0].DocID, "newest first")

	_, err = s.Get(ctx, "other", "u1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.UpdateStatus(ctx, "a", "u1", StatusUpdate{Status: StatusProcessing}))
	require.NoError(t, s.UpdateStatus(ctx, "a", "u1", StatusUpdate{Status: StatusFailed, ErrorMessage: "no text"}))
	assert.Equal(t, []ProcessingStatus{StatusPending, StatusProcessing, StatusFailed}, s.History("a"))

	doc, err := s.Get(ctx, "a", "u1")
	require.NoError(t, err)
	assert.Equal(t, "no text", doc.ErrorMessage)
	assert.NotNil(t, doc.ProcessedAt)

	title := "Renamed"
	patched, err := s.Patch(ctx, "b", "u1", DocumentPatch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", patched.Metadata.Title)

	failed, err := s.Find(ctx, Filter{Status: StatusFailed})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "a", failed[0].DocID)

	require.NoError(t, s.Delete(ctx, "c", "u1"))
	assert.ErrorIs(t, s.Delete(ctx, "c", "u1"), ErrNotFound)
}
