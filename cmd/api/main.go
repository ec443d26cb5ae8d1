package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"documind/internal/app"
	"documind/internal/config"
	"documind/internal/http"
)

//go:generate swagger generate spec -o swagger.json

// General API information
//
// This API stores documents, indexes them into a vector and graph store, and
// answers questions about them with cited sources.
//
// swagger:meta
//
// ---
// swagger: '2.0'
// info:
//   title: Documind API
//   description: |
//     Document intelligence API: upload files, browse the knowledge graph built
//     from them, search semantically and ask grounded questions.
//     Every /api route except /api/health requires the X-User-ID header.
//   version: 1.0.0
// schemes:
//   - http
//   - https
// consumes:
//   - application/json
// produces:
//   - application/json

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := app.NewLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer func() {
		_ = a.Close(context.Background())
	}()

	router := http.NewRouter(&http.Deps{
		DocumentService: a.DocumentService(),
		ChatService:     a.ChatService(),
		AnalysisService: a.AnalysisService(),
		HealthChecks:    a.HealthChecks(),
		MaxFileSize:     cfg.MaxFileSizeBytes(),
	})

	addr := ":" + cfg.APIPort
	server := &nethttp.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("Graceful shutdown failed", "error", err)
		}
	}()

	slog.Info("Starting API server", "addr", addr)
	slog.Debug("LLM configuration", "base_url", cfg.OpenAIBaseURL, "model", cfg.LLMModel, "embedding_model", cfg.EmbeddingModel)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		log.Fatalf("API server failed to start: %v", err)
	}
	slog.Info("API server stopped")
}
