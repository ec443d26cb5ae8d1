package vectorstore

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_vector_store.go -package=mocks documind/internal/vectorstore VectorStore

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrStoreUnavailable is returned when the vector database cannot be reached.
// Callers may skip the operation and report it instead of failing.
var ErrStoreUnavailable = errors.New("vector store unavailable")

// Payload is the data stored next to every chunk vector. Field names on the
// wire are fixed so existing collections stay readable.
type Payload struct {
	PointID       string
	DocID         string
	UserID        string
	ChunkID       string
	ChunkIndex    int
	Text          string
	StartPosition int
	EndPosition   int
	Filename      string
	CreatedAt     time.Time
}

// Point is a chunk vector with its payload. ID must be a UUID.
type Point struct {
	ID      string
	Vector  []float32
	Payload Payload
}

// SearchRequest describes a filtered nearest-neighbour query.
type SearchRequest struct {
	Vector []float32
	// UserID is mandatory; results never cross users.
	UserID string
	Limit  int
	// ScoreThreshold drops hits scoring below it.
	ScoreThreshold float32
	// DocIDs restricts results to these documents when non-empty.
	DocIDs []string
}

// SearchResult is a single hit, ordered by descending Score.
type SearchResult struct {
	PointID string
	Score   float32
	Payload Payload
}

// VectorStore defines the interface for vector storage operations.
type VectorStore interface {
	// EnsureCollection creates the collection and payload indexes if missing.
	EnsureCollection(ctx context.Context) error
	// Upsert inserts or replaces points by ID.
	Upsert(ctx context.Context, points []Point) error
	// Search runs a cosine-similarity query scoped to a user.
	Search(ctx context.Context, req SearchRequest) ([]SearchResult, error)
	// DeleteByDocument removes every point of the document owned by userID.
	DeleteByDocument(ctx context.Context, docID, userID string) error
	// CountByDocument returns the number of points stored for the document.
	CountByDocument(ctx context.Context, docID, userID string) (int, error)
	// ListDocumentChunks returns the payloads of a document ordered by chunk index.
	ListDocumentChunks(ctx context.Context, docID, userID string) ([]Payload, error)
	// ListDocumentIDs returns the distinct document ids with points for userID.
	ListDocumentIDs(ctx context.Context, userID string) ([]string, error)
}

func validateSearch(req SearchRequest) error {
	if req.UserID == "" {
		return fmt.Errorf("user id is required")
	}
	if req.Limit <= 0 {
		return fmt.Errorf("limit must be greater than 0")
	}
	if len(req.Vector) == 0 {
		return fmt.Errorf("query vector is empty")
	}
	return nil
}

// ToMap converts the payload to its stored representation.
func (p Payload) ToMap() map[string]any {
	return map[string]any{
		"pointId":       p.PointID,
		"docId":         p.DocID,
		"userId":        p.UserID,
		"chunkId":       p.ChunkID,
		"chunkIndex":    int64(p.ChunkIndex),
		"text":          p.Text,
		"startPosition": int64(p.StartPosition),
		"endPosition":   int64(p.EndPosition),
		"filename":      p.Filename,
		"createdAt":     p.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// PayloadFromMap reads a stored payload; unknown or missing keys are left zero.
func PayloadFromMap(m map[string]any) Payload {
	p := Payload{
		PointID:       asString(m["pointId"]),
		DocID:         asString(m["docId"]),
		UserID:        asString(m["userId"]),
		ChunkID:       asString(m["chunkId"]),
		ChunkIndex:    asInt(m["chunkIndex"]),
		Text:          asString(m["text"]),
		StartPosition: asInt(m["startPosition"]),
		EndPosition:   asInt(m["endPosition"]),
		Filename:      asString(m["filename"]),
	}
	if ts := asString(m["createdAt"]); ts != "" {
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			p.CreatedAt = t
		}
	}
	return p
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}
