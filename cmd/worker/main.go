package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"documind/internal/app"
	"documind/internal/config"
	"documind/internal/queue"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := app.NewLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	a, err := app.New(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer func() {
		_ = a.Close(context.Background())
	}()

	redis := queue.RedisConfig{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
	srv := queue.NewServer(redis, queue.ServerConfig{
		Concurrency: cfg.WorkerConcurrency,
		LogLevel:    cfg.LogLevel,
	}, logger)
	mux := queue.NewServeMux(queue.NewProcessor(a.TaskHandlers()), logger)

	slog.Info("Starting worker",
		"redis", cfg.RedisAddr,
		"concurrency", cfg.WorkerConcurrency,
		"max_retry", cfg.TaskMaxRetry,
		"task_timeout", cfg.TaskTimeout,
	)
	// Run blocks until SIGINT or SIGTERM, then drains in-flight tasks.
	if err := srv.Run(mux); err != nil {
		slog.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	slog.Info("Worker stopped")
}
