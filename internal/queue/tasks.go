package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// Task types.
const (
	TypeDocumentIngest     = "document:ingest"
	TypeAnalysisSimilarity = "analysis:similarity"
	TypeAnalysisTopics     = "analysis:topics"
	TypeAnalysisCluster    = "analysis:cluster"
	TypeAuditReconcile     = "audit:reconcile"
)

// Queue names with their worker priority weights.
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

// Queues maps queue names to priority weights for the worker server.
var Queues = map[string]int{
	QueueCritical: 6,
	QueueDefault:  3,
	QueueLow:      1,
}

// IngestPayload identifies the document to index.
type IngestPayload struct {
	DocID  string `json:"docId"`
	UserID string `json:"userId"`
}

// AnalysisPayload scopes an analysis pass to a user.
type AnalysisPayload struct {
	UserID string `json:"userId"`
	// MaxTopics applies to topic modeling only.
	MaxTopics int `json:"maxTopics,omitempty"`
}

// ReconcilePayload scopes a reconciliation run to a user.
type ReconcilePayload struct {
	UserID string `json:"userId"`
}

// TaskOptions are the retry and timeout settings applied to every task.
type TaskOptions struct {
	MaxRetry int
	Timeout  time.Duration
}

func (o TaskOptions) asynq(queue string) []asynq.Option {
	opts := []asynq.Option{asynq.Queue(queue)}
	if o.MaxRetry >= 0 {
		opts = append(opts, asynq.MaxRetry(o.MaxRetry))
	}
	if o.Timeout > 0 {
		opts = append(opts, asynq.Timeout(o.Timeout))
	}
	return opts
}

// NewIngestTask builds a document ingestion task.
func NewIngestTask(docID, userID string, o TaskOptions) (*asynq.Task, error) {
	if docID == "" || userID == "" {
		return nil, fmt.Errorf("doc id and user id are required")
	}
	payload, err := json.Marshal(IngestPayload{DocID: docID, UserID: userID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeDocumentIngest, payload, o.asynq(QueueCritical)...), nil
}

// NewAnalysisTask builds one of the analysis:* tasks.
func NewAnalysisTask(taskType, userID string, maxTopics int, o TaskOptions) (*asynq.Task, error) {
	switch taskType {
	case TypeAnalysisSimilarity, TypeAnalysisTopics, TypeAnalysisCluster:
	default:
		return nil, fmt.Errorf("unknown analysis task type %q", taskType)
	}
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}
	payload, err := json.Marshal(AnalysisPayload{UserID: userID, MaxTopics: maxTopics})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(taskType, payload, o.asynq(QueueDefault)...), nil
}

// NewReconcileTask builds an audit:reconcile task.
func NewReconcileTask(userID string, o TaskOptions) (*asynq.Task, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}
	payload, err := json.Marshal(ReconcilePayload{UserID: userID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeAuditReconcile, payload, o.asynq(QueueLow)...), nil
}
