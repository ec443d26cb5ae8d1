package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"documind/internal/app"
	"documind/internal/config"
	"documind/internal/queue"
)

// deadLetters is the part of the queue inspector the requeue command uses.
type deadLetters interface {
	ListDead(queue string) ([]queue.TaskInfo, error)
	Requeue(queue, taskID string) error
	RequeueAll(queue string) (int, error)
	Close() error
}

// env holds what commands open lazily, so tests can substitute them.
type env struct {
	out          io.Writer
	openApp      func(ctx context.Context) (*app.App, error)
	newInspector func() (deadLetters, error)
}

func defaultEnv() *env {
	return &env{
		out: os.Stdout,
		openApp: func(ctx context.Context) (*app.App, error) {
			cfg, err := loadConfig()
			if err != nil {
				return nil, err
			}
			return app.New(ctx, cfg)
		},
		newInspector: func() (deadLetters, error) {
			cfg, err := loadConfig()
			if err != nil {
				return nil, err
			}
			return queue.NewInspector(queue.RedisConfig{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}), nil
		},
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	slog.SetDefault(app.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat))
	return cfg, nil
}

func newRootCmd(e *env) *cobra.Command {
	root := &cobra.Command{
		Use:           "documindctl",
		Short:         "Operate a documind deployment",
		Long:          `Bulk import documents, audit store consistency, run graph analyses and requeue failed tasks.`,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.SetOut(e.out)

	root.AddCommand(newImportCmd(e))
	root.AddCommand(newReconcileCmd(e))
	root.AddCommand(newAnalyzeCmd(e))
	root.AddCommand(newRequeueCmd(e))
	root.AddCommand(newStatusCmd(e))
	return root
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
