package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_document_store.go -package=mocks documind/internal/storage DocumentStore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
)

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// DocumentStore defines the interface for document metadata operations.
// Every method is scoped by (docID, userID); a document owned by another
// user is reported as ErrNotFound.
type DocumentStore interface {
	// Insert stores a new document record.
	Insert(ctx context.Context, doc *Document) error
	// Get returns the document or ErrNotFound.
	Get(ctx context.Context, docID, userID string) (*Document, error)
	// List returns a page of the user's documents, newest upload first.
	List(ctx context.Context, userID string, page, limit int) (Page, error)
	// Find returns every document matching the filter.
	Find(ctx context.Context, f Filter) ([]Document, error)
	// UpdateStatus sets status, error message, and optionally metadata atomically.
	UpdateStatus(ctx context.Context, docID, userID string, u StatusUpdate) error
	// Patch applies user edits and returns the updated document.
	Patch(ctx context.Context, docID, userID string, p DocumentPatch) (*Document, error)
	// Delete removes the record. Returns ErrNotFound if nothing was deleted.
	Delete(ctx context.Context, docID, userID string) error
}

// DocumentRepo implements DocumentStore on a MongoDB collection.
type DocumentRepo struct {
	coll *mongo.Collection
	now  func() time.Time
}

// NewDocumentRepo creates a new DocumentRepo.
func NewDocumentRepo(coll *mongo.Collection) *DocumentRepo {
	return &DocumentRepo{coll: coll, now: time.Now}
}

func byOwner(docID, userID string) bson.M {
	return bson.M{"docId": docID, "userId": userID}
}

// Insert stores a new document record. UploadedAt and UpdatedAt default to now.
func (r *DocumentRepo) Insert(ctx context.Context, doc *Document) error {
	now := r.now().UTC()
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = now
	}
	doc.UpdatedAt = now
	if doc.ProcessingStatus == "" {
		doc.ProcessingStatus = StatusPending
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}
	return nil
}

// Get returns the document or ErrNotFound.
func (r *DocumentRepo) Get(ctx context.Context, docID, userID string) (*Document, error) {
	var doc Document
	err := r.coll.FindOne(ctx, byOwner(docID, userID)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return &doc, nil
}

// List returns a page of the user's documents sorted by upload time,
// newest first. page is 1-based; limit is clamped to [1, MaxPageLimit].
func (r *DocumentRepo) List(ctx context.Context, userID string, page, limit int) (Page, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}

	filter := bson.M{"userId": userID}
	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return Page{}, fmt.Errorf("failed to count documents: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "uploadedAt", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return Page{}, fmt.Errorf("failed to list documents: %w", err)
	}
	docs := []Document{}
	if err := cursor.All(ctx, &docs); err != nil {
		return Page{}, fmt.Errorf("failed to decode documents: %w", err)
	}

	return Page{
		Documents:  docs,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: int((total + int64(limit) - 1) / int64(limit)),
	}, nil
}

// Find returns every document matching the filter, oldest update first.
func (r *DocumentRepo) Find(ctx context.Context, f Filter) ([]Document, error) {
	filter := bson.M{}
	if f.UserID != "" {
		filter["userId"] = f.UserID
	}
	if len(f.DocIDs) > 0 {
		filter["docId"] = bson.M{"$in": f.DocIDs}
	}
	if f.Status != "" {
		filter["processingStatus"] = f.Status
	}
	if !f.UpdatedBefore.IsZero() {
		filter["updatedAt"] = bson.M{"$lt": f.UpdatedBefore}
	}

	cursor, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "updatedAt", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to find documents: %w", err)
	}
	var docs []Document
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode documents: %w", err)
	}
	return docs, nil
}

// UpdateStatus sets status and error message in a single update. Completed
// and failed documents get processedAt; metadata is replaced when provided.
func (r *DocumentRepo) UpdateStatus(ctx context.Context, docID, userID string, u StatusUpdate) error {
	if !u.Status.Valid() {
		return fmt.Errorf("invalid processing status %q", u.Status)
	}
	now := r.now().UTC()
	set := bson.M{
		"processingStatus": u.Status,
		"updatedAt":        now,
	}
	update := bson.M{"$set": set}
	if u.ErrorMessage != "" {
		set["errorMessage"] = u.ErrorMessage
	} else {
		update["$unset"] = bson.M{"errorMessage": ""}
	}
	if u.Status == StatusCompleted || u.Status == StatusFailed {
		set["processedAt"] = now
	}
	if u.Metadata != nil {
		set["metadata"] = *u.Metadata
	}

	res, err := r.coll.UpdateOne(ctx, byOwner(docID, userID), update)
	if err != nil {
		return fmt.Errorf("failed to update document status: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Patch applies user edits and returns the updated document.
func (r *DocumentRepo) Patch(ctx context.Context, docID, userID string, p DocumentPatch) (*Document, error) {
	set := bson.M{"updatedAt": r.now().UTC()}
	if p.Filename != nil {
		set["filename"] = *p.Filename
	}
	if p.Title != nil {
		set["metadata.title"] = *p.Title
	}
	if p.Author != nil {
		set["metadata.author"] = *p.Author
	}
	if p.Subject != nil {
		set["metadata.subject"] = *p.Subject
	}

	var doc Document
	err := r.coll.FindOneAndUpdate(ctx, byOwner(docID, userID), bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update document: %w", err)
	}
	return &doc, nil
}

// Delete removes the record. Returns ErrNotFound if nothing was deleted.
func (r *DocumentRepo) Delete(ctx context.Context, docID, userID string) error {
	res, err := r.coll.DeleteOne(ctx, byOwner(docID, userID))
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

var _ DocumentStore = (*DocumentRepo)(nil)
