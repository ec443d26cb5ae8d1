package rag

import "time"

// SearchRequest represents a semantic search over a user's documents.
type SearchRequest struct {
	// Query is the natural-language search text.
	Query string
	// UserID scopes the search; results never cross users.
	UserID string
	// Limit caps the number of results. Defaults to DefaultSearchLimit.
	Limit int
	// MinScore drops hits below this cosine score. Defaults to DefaultMinScore.
	MinScore float64
	// DocIDs restricts the search to these documents when non-empty.
	DocIDs []string
}

// DocumentInfo is the document metadata attached to a hit.
type DocumentInfo struct {
	Filename   string    `json:"filename"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// SearchResult is one ranked chunk.
type SearchResult struct {
	// ChunkID is the vector point id, which is also the graph Chunk node id.
	ChunkID    string       `json:"chunkId"`
	DocID      string       `json:"docId"`
	ChunkIndex int          `json:"chunkIndex"`
	Text       string       `json:"text"`
	Score      float64      `json:"score"`
	Document   DocumentInfo `json:"document"`
}

// AnswerRequest represents a question answered from retrieved chunks.
type AnswerRequest struct {
	Query  string
	UserID string
	// MaxResults caps the sources given to the model. Defaults to DefaultAnswerSources.
	MaxResults int
	// MinScore defaults to DefaultMinScore.
	MinScore float64
	DocIDs   []string
}

// AnswerResponse is a grounded answer with the sources it was built from.
type AnswerResponse struct {
	Answer     string         `json:"answer"`
	Sources    []SearchResult `json:"sources"`
	Confidence float64        `json:"confidence"`
	// NoResults is set when retrieval found nothing; Answer then holds NoResultsAnswer.
	NoResults bool `json:"noResults"`
}
