package audit

import "time"

// RunStatus is the state of a reconciliation run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// FindingKind classifies a cross-store inconsistency.
type FindingKind string

const (
	// KindChunkMismatch: a completed document whose metadata chunk count,
	// vector point count and graph chunk count disagree.
	KindChunkMismatch FindingKind = "chunk_count_mismatch"
	// KindStuckProcessing: a document left in processing past the cutoff.
	KindStuckProcessing FindingKind = "stuck_processing"
	// KindOrphanVectors: vector points whose document has no metadata record.
	KindOrphanVectors FindingKind = "orphan_vectors"
	// KindOrphanGraph: a Document node without a metadata record.
	KindOrphanGraph FindingKind = "orphan_graph"
	// KindOrphanBlob: a stored file without a metadata record.
	KindOrphanBlob FindingKind = "orphan_blob"
)

// Finding is one inconsistency observed during a run.
type Finding struct {
	Kind   FindingKind `json:"kind"`
	DocID  string      `json:"docId"`
	Detail string      `json:"detail"`
	// Counts are set for chunk mismatches only.
	MetadataChunks *int `json:"metadataChunks,omitempty"`
	VectorPoints   *int `json:"vectorPoints,omitempty"`
	GraphChunks    *int `json:"graphChunks,omitempty"`
}

// Run is a persisted reconciliation run.
type Run struct {
	ID               string     `json:"runId"`
	UserID           string     `json:"userId"`
	Status           RunStatus  `json:"status"`
	StartedAt        time.Time  `json:"startedAt"`
	FinishedAt       *time.Time `json:"finishedAt,omitempty"`
	DocumentsChecked int        `json:"documentsChecked"`
	FindingsCount    int        `json:"findingsCount"`
	Error            string     `json:"error,omitempty"`
	Findings         []Finding  `json:"findings,omitempty"`
}
