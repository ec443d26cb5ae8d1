package graphstore

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_graph_store.go -package=mocks documind/internal/graphstore GraphStore

import (
	"context"
	"time"
)

// NodeType is the label of a graph node.
type NodeType string

const (
	NodeDocument NodeType = "Document"
	NodeChunk    NodeType = "Chunk"
	NodeEntity   NodeType = "Entity"
	NodeTopic    NodeType = "Topic"
)

// RelType is the type of a graph relationship.
type RelType string

const (
	RelContains          RelType = "CONTAINS"
	RelMentions          RelType = "MENTIONS"
	RelCooccursWith      RelType = "COOCCURS_WITH"
	RelSimilarTo         RelType = "SIMILAR_TO"
	RelSameAs            RelType = "SAME_AS"
	RelDocumentSimilarTo RelType = "DOCUMENT_SIMILAR_TO"
	RelCategorizes       RelType = "CATEGORIZES"
	RelRelatedTo         RelType = "RELATED_TO"
)

// Symmetric reports whether the relationship has no meaningful direction.
func (r RelType) Symmetric() bool {
	switch r {
	case RelCooccursWith, RelSimilarTo, RelDocumentSimilarTo:
		return true
	}
	return false
}

// DocumentNode is the graph representation of an uploaded document.
type DocumentNode struct {
	DocID     string
	UserID    string
	Filename  string
	Title     string
	CreatedAt time.Time
}

// ChunkNode is a chunk linked from its document by CONTAINS. ChunkID equals
// the vector point id of the same chunk.
type ChunkNode struct {
	ChunkID    string
	DocID      string
	UserID     string
	Text       string
	ChunkIndex int
}

// EntityNode is a named entity, merged by (EntityID, UserID).
type EntityNode struct {
	EntityID   string
	UserID     string
	DocID      string
	Name       string
	Category   string
	Confidence float64
}

// TopicNode is a theme produced by topic modeling.
type TopicNode struct {
	TopicID     string
	UserID      string
	Name        string
	Description string
	Keywords    []string
	Confidence  float64
}

// Node is a visualization node.
type Node struct {
	ID         string         `json:"id"`
	Type       NodeType       `json:"type"`
	Label      string         `json:"label"`
	Properties map[string]any `json:"properties,omitempty"`
}

// Edge is a visualization edge.
type Edge struct {
	Type       RelType        `json:"type"`
	Source     string         `json:"source"`
	Target     string         `json:"target"`
	Properties map[string]any `json:"properties,omitempty"`
}

// Graph is a user's subgraph.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// GraphStore defines the property graph operations. Every operation is
// scoped to a single user; edges never connect nodes of different users.
type GraphStore interface {
	// EnsureSchema creates uniqueness constraints and indexes idempotently.
	EnsureSchema(ctx context.Context) error
	// VerifyConnectivity checks that the database is reachable.
	VerifyConnectivity(ctx context.Context) error

	UpsertDocument(ctx context.Context, doc DocumentNode) error
	// UpsertChunk creates the chunk and its CONTAINS edge from the document.
	UpsertChunk(ctx context.Context, chunk ChunkNode) error
	// UpsertEntity merges the entity and its MENTIONS edge from the chunk.
	UpsertEntity(ctx context.Context, chunkID string, entity EntityNode) error
	UpsertTopic(ctx context.Context, topic TopicNode) error

	CreateSimilarityEdge(ctx context.Context, a, b, userID string, score float64, rel RelType) error
	// CreateCooccurrenceEdge merges a COOCCURS_WITH edge, bumping its count
	// when increment is set and the edge already exists.
	CreateCooccurrenceEdge(ctx context.Context, a, b, userID string, confidence float64, increment bool) error
	// CreateSameAsEdge links duplicate to primary.
	CreateSameAsEdge(ctx context.Context, duplicate, primary, userID string, confidence float64) error
	CreateRelatedEdge(ctx context.Context, source, target, userID, relationType string, confidence float64) error
	CreateDocumentSimilarityEdge(ctx context.Context, docA, docB, userID string, similarity float64) error
	// CreateTopicEdge links a topic to a document via CATEGORIZES.
	CreateTopicEdge(ctx context.Context, topicID, docID, userID string, relevance float64) error

	// ListEntities returns the user's entities, restricted to category when non-empty.
	ListEntities(ctx context.Context, userID, category string) ([]EntityNode, error)
	ListDocuments(ctx context.Context, userID string) ([]DocumentNode, error)
	CountChunks(ctx context.Context, docID, userID string) (int, error)
	// GetGraph returns the user's subgraph, restricted to docIDs when non-empty.
	GetGraph(ctx context.Context, userID string, docIDs []string) (Graph, error)
	// DeleteDocumentSubgraph removes the document, then chunks with no
	// remaining CONTAINS edge, then entities with no remaining MENTIONS edge.
	DeleteDocumentSubgraph(ctx context.Context, docID, userID string) error
}
