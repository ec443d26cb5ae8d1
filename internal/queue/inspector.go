package queue

import (
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
)

// Inspector lists and requeues archived (dead-letter) tasks.
type Inspector struct {
	inspector *asynq.Inspector
}

// NewInspector creates an Inspector.
func NewInspector(redis RedisConfig) *Inspector {
	return &Inspector{inspector: asynq.NewInspector(redis.ClientOpt())}
}

// Close releases the Redis connection.
func (i *Inspector) Close() error {
	return i.inspector.Close()
}

// Ping reports whether Redis is reachable.
func (i *Inspector) Ping() error {
	if _, err := i.inspector.Queues(); err != nil {
		return fmt.Errorf("failed to reach redis: %w", err)
	}
	return nil
}

// ListDead returns archived tasks of queue, or of every queue when queue is empty.
func (i *Inspector) ListDead(queue string) ([]TaskInfo, error) {
	var out []TaskInfo
	for _, q := range queueNames(queue) {
		tasks, err := i.inspector.ListArchivedTasks(q, asynq.PageSize(100))
		if err != nil {
			if errors.Is(err, asynq.ErrQueueNotFound) {
				continue
			}
			return nil, fmt.Errorf("failed to list archived tasks in %s: %w", q, err)
		}
		for _, t := range tasks {
			out = append(out, taskInfo(t))
		}
	}
	return out, nil
}

// Requeue moves one archived task back to pending.
func (i *Inspector) Requeue(queue, taskID string) error {
	for _, q := range queueNames(queue) {
		err := i.inspector.RunTask(q, taskID)
		if err == nil {
			return nil
		}
		if errors.Is(err, asynq.ErrQueueNotFound) || errors.Is(err, asynq.ErrTaskNotFound) {
			continue
		}
		return fmt.Errorf("failed to requeue task %s: %w", taskID, err)
	}
	return ErrTaskNotFound
}

// RequeueAll moves every archived task back to pending and returns the count.
func (i *Inspector) RequeueAll(queue string) (int, error) {
	total := 0
	for _, q := range queueNames(queue) {
		n, err := i.inspector.RunAllArchivedTasks(q)
		if err != nil {
			if errors.Is(err, asynq.ErrQueueNotFound) {
				continue
			}
			return total, fmt.Errorf("failed to requeue archived tasks in %s: %w", q, err)
		}
		total += n
	}
	return total, nil
}

func queueNames(queue string) []string {
	if queue != "" {
		return []string{queue}
	}
	return []string{QueueCritical, QueueDefault, QueueLow}
}
