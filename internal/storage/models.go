package storage

import "time"

// ProcessingStatus is the ingestion state of a document.
type ProcessingStatus string

const (
	StatusPending    ProcessingStatus = "pending"
	StatusProcessing ProcessingStatus = "processing"
	StatusCompleted  ProcessingStatus = "completed"
	StatusFailed     ProcessingStatus = "failed"
)

// Valid reports whether s is a known status.
func (s ProcessingStatus) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// ChunkStats summarizes chunk sizes for a document, in words.
type ChunkStats struct {
	MinWords int     `bson:"minWords" json:"minWords"`
	MaxWords int     `bson:"maxWords" json:"maxWords"`
	Mean     float64 `bson:"meanWords" json:"meanWords"`
	P95Words int     `bson:"p95Words" json:"p95Words"`
}

// DocumentMetadata is what ingestion learned about a document.
type DocumentMetadata struct {
	Title      string      `bson:"title,omitempty" json:"title,omitempty"`
	Author     string      `bson:"author,omitempty" json:"author,omitempty"`
	Subject    string      `bson:"subject,omitempty" json:"subject,omitempty"`
	PageCount  int         `bson:"pageCount,omitempty" json:"pageCount,omitempty"`
	WordCount  int         `bson:"wordCount,omitempty" json:"wordCount,omitempty"`
	ChunkCount int         `bson:"chunkCount,omitempty" json:"chunkCount,omitempty"`
	ChunkStats *ChunkStats `bson:"chunkStats,omitempty" json:"chunkStats,omitempty"`
}

// Document is the metadata record of an uploaded file.
type Document struct {
	DocID            string           `bson:"docId" json:"docId"`
	UserID           string           `bson:"userId" json:"userId"`
	Filename         string           `bson:"filename" json:"filename"`
	OriginalName     string           `bson:"originalName" json:"originalName"`
	MIMEType         string           `bson:"mimeType" json:"mimeType"`
	Size             int64            `bson:"size" json:"size"`
	BlobKey          string           `bson:"blobKey" json:"blobKey"`
	UploadedAt       time.Time        `bson:"uploadedAt" json:"uploadedAt"`
	UpdatedAt        time.Time        `bson:"updatedAt" json:"updatedAt"`
	ProcessedAt      *time.Time       `bson:"processedAt,omitempty" json:"processedAt,omitempty"`
	ProcessingStatus ProcessingStatus `bson:"processingStatus" json:"processingStatus"`
	ErrorMessage     string           `bson:"errorMessage,omitempty" json:"errorMessage,omitempty"`
	Metadata         DocumentMetadata `bson:"metadata" json:"metadata"`
}

// StatusUpdate moves a document to a new status. Metadata, when set, is
// written in the same update.
type StatusUpdate struct {
	Status       ProcessingStatus
	ErrorMessage string
	Metadata     *DocumentMetadata
}

// DocumentPatch holds user-editable fields; nil fields are left unchanged.
type DocumentPatch struct {
	Filename *string
	Title    *string
	Author   *string
	Subject  *string
}

// Filter selects documents for listing. Empty fields match everything.
type Filter struct {
	UserID        string
	DocIDs        []string
	Status        ProcessingStatus
	UpdatedBefore time.Time
}

// Page is one page of a user's documents, newest first.
type Page struct {
	Documents  []Document
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}
