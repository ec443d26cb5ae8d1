package queue

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/hibiken/asynq"

	"documind/internal/contextutil"
)

// ServerConfig tunes the worker server.
type ServerConfig struct {
	Concurrency     int
	ShutdownTimeout time.Duration
	LogLevel        slog.Level
}

// NewServer creates the asynq worker server. It logs through logger and
// reports every failed attempt.
func NewServer(redis RedisConfig, cfg ServerConfig, logger *slog.Logger) *asynq.Server {
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
	return asynq.NewServer(redis.ClientOpt(), asynq.Config{
		Concurrency:     cfg.Concurrency,
		Queues:          Queues,
		StrictPriority:  false,
		ShutdownTimeout: cfg.ShutdownTimeout,
		Logger:          &asynqLogger{l: logger},
		LogLevel:        asynqLevel(cfg.LogLevel),
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, t *asynq.Task, err error) {
			retried, _ := asynq.GetRetryCount(ctx)
			maxRetry, _ := asynq.GetMaxRetry(ctx)
			contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "task attempt failed",
				"task_type", t.Type(),
				"retry", retried,
				"max_retry", maxRetry,
				"error", err,
			)
		}),
	})
}

// NewServeMux returns a mux running p's handlers with a task-scoped logger.
func NewServeMux(p *Processor, logger *slog.Logger) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Use(func(next asynq.Handler) asynq.Handler {
		return asynq.HandlerFunc(func(ctx context.Context, t *asynq.Task) error {
			l := logger.With("task_type", t.Type())
			if id, ok := asynq.GetTaskID(ctx); ok {
				l = l.With("task_id", id)
			}
			return next.ProcessTask(contextutil.WithLogger(ctx, l), t)
		})
	})
	p.Register(mux)
	return mux
}

// asynqLogger routes asynq's internal logging to slog.
type asynqLogger struct {
	l *slog.Logger
}

func (a *asynqLogger) Debug(args ...any) { a.l.Debug(fmt.Sprint(args...)) }
func (a *asynqLogger) Info(args ...any)  { a.l.Info(fmt.Sprint(args...)) }
func (a *asynqLogger) Warn(args ...any)  { a.l.Warn(fmt.Sprint(args...)) }
func (a *asynqLogger) Error(args ...any) { a.l.Error(fmt.Sprint(args...)) }
func (a *asynqLogger) Fatal(args ...any) {
	a.l.Error(fmt.Sprint(args...))
	os.Exit(1)
}

func asynqLevel(l slog.Level) asynq.LogLevel {
	switch {
	case l <= slog.LevelDebug:
		return asynq.DebugLevel
	case l <= slog.LevelInfo:
		return asynq.InfoLevel
	case l <= slog.LevelWarn:
		return asynq.WarnLevel
	default:
		return asynq.ErrorLevel
	}
}
