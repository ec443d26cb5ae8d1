package queue

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_submitter.go -package=mocks documind/internal/queue Submitter

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"

	"documind/internal/contextutil"
)

// ErrTaskNotFound is returned when a task id is unknown to the queue.
var ErrTaskNotFound = errors.New("task not found")

// RedisConfig addresses the Redis instance backing the queue.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// ClientOpt returns the asynq connection option.
func (c RedisConfig) ClientOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: c.Addr, Password: c.Password, DB: c.DB}
}

// Submitter enqueues background work and returns the task id.
type Submitter interface {
	SubmitIngest(ctx context.Context, docID, userID string) (string, error)
	SubmitAnalysis(ctx context.Context, taskType, userID string, maxTopics int) (string, error)
	SubmitReconcile(ctx context.Context, userID string) (string, error)
}

// TaskInfo is the observable state of a submitted task.
type TaskInfo struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Queue     string `json:"queue"`
	State     string `json:"state"`
	Retried   int    `json:"retried"`
	MaxRetry  int    `json:"maxRetry"`
	LastError string `json:"lastError,omitempty"`
}

// Client enqueues tasks on Redis.
type Client struct {
	client    *asynq.Client
	inspector *asynq.Inspector
	opts      TaskOptions
}

// NewClient creates a Client.
func NewClient(redis RedisConfig, opts TaskOptions) *Client {
	return &Client{
		client:    asynq.NewClient(redis.ClientOpt()),
		inspector: asynq.NewInspector(redis.ClientOpt()),
		opts:      opts,
	}
}

// Close releases the Redis connections.
func (c *Client) Close() error {
	return errors.Join(c.client.Close(), c.inspector.Close())
}

func (c *Client) SubmitIngest(ctx context.Context, docID, userID string) (string, error) {
	task, err := NewIngestTask(docID, userID, c.opts)
	if err != nil {
		return "", err
	}
	return c.enqueue(ctx, task, "doc_id", docID)
}

func (c *Client) SubmitAnalysis(ctx context.Context, taskType, userID string, maxTopics int) (string, error) {
	task, err := NewAnalysisTask(taskType, userID, maxTopics, c.opts)
	if err != nil {
		return "", err
	}
	return c.enqueue(ctx, task)
}

func (c *Client) SubmitReconcile(ctx context.Context, userID string) (string, error) {
	task, err := NewReconcileTask(userID, c.opts)
	if err != nil {
		return "", err
	}
	return c.enqueue(ctx, task)
}

func (c *Client) enqueue(ctx context.Context, task *asynq.Task, attrs ...any) (string, error) {
	info, err := c.client.EnqueueContext(ctx, task)
	if err != nil {
		return "", fmt.Errorf("failed to enqueue %s task: %w", task.Type(), err)
	}
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "task enqueued",
		append([]any{"task_type", task.Type(), "task_id", info.ID, "queue", info.Queue}, attrs...)...)
	return info.ID, nil
}

// TaskState looks a task up in every queue.
func (c *Client) TaskState(ctx context.Context, taskID string) (TaskInfo, error) {
	for name := range Queues {
		info, err := c.inspector.GetTaskInfo(name, taskID)
		if errors.Is(err, asynq.ErrTaskNotFound) || errors.Is(err, asynq.ErrQueueNotFound) {
			continue
		}
		if err != nil {
			return TaskInfo{}, fmt.Errorf("failed to get task info: %w", err)
		}
		return taskInfo(info), nil
	}
	return TaskInfo{}, ErrTaskNotFound
}

func taskInfo(info *asynq.TaskInfo) TaskInfo {
	return TaskInfo{
		ID:        info.ID,
		Type:      info.Type,
		Queue:     info.Queue,
		State:     info.State.String(),
		Retried:   info.Retried,
		MaxRetry:  info.MaxRetry,
		LastError: info.LastErr,
	}
}
