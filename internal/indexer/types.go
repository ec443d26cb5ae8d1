package indexer

import "time"

// Chunk is a positioned word window of a document's normalized text.
type Chunk struct {
	Index         int    // 0-based position within the document
	ID            string // "chunk_{Index}", local to the document
	Text          string // words joined by single spaces
	StartPosition int    // byte offset of the first word in the normalized text
	EndPosition   int    // StartPosition + len(Text)
	WordCount     int
}

// Stage names the step an ingestion run is in; failures report the stage.
type Stage string

const (
	StageExtract   Stage = "extract"
	StageMetadata  Stage = "metadata"
	StageChunk     Stage = "chunk"
	StageEmbed     Stage = "embed"
	StageVectors   Stage = "store_vectors"
	StageGraph     Stage = "graph"
	StageEntities  Stage = "entities"
	StageResolve   Stage = "resolve"
	StageCompleted Stage = "completed"
)

// Result summarizes one ingestion run.
type Result struct {
	Success           bool
	DocID             string
	ChunksProcessed   int
	EntitiesExtracted int
	Relationships     int
	CooccurrenceEdges int
	SameAsEdges       int
	SimilarEdges      int
	FailedStage       Stage
	Error             string
	Timings           map[Stage]time.Duration
}
