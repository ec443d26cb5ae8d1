// Package app assembles the stores, clients and services shared by the
// documind binaries.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"go.mongodb.org/mongo-driver/mongo"

	"documind/internal/audit"
	"documind/internal/blob"
	"documind/internal/config"
	"documind/internal/entities"
	"documind/internal/extract"
	"documind/internal/graphstore"
	"documind/internal/handlers"
	"documind/internal/indexer"
	"documind/internal/llm"
	"documind/internal/queue"
	"documind/internal/rag"
	"documind/internal/service"
	"documind/internal/similarity"
	"documind/internal/storage"
	"documind/internal/topics"
	"documind/internal/vectorstore"
)

const llmRetries = 2

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func NewLogger(w io.Writer, level slog.Level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// App holds every production dependency.
type App struct {
	Config *config.Config

	Mongo     *mongo.Client
	Documents *storage.DocumentRepo
	Blobs     *blob.S3Store
	Vectors   *vectorstore.QdrantStore
	Graph     *graphstore.Neo4jStore
	AuditDB   *sql.DB
	Runs      *audit.Ledger

	LLM      *llm.Client
	Embedder *llm.EmbeddingsClient

	Pipeline   *indexer.Pipeline
	Resolver   *entities.Resolver
	Similarity *similarity.Analyzer
	Topics     *topics.Modeler
	Reconciler *audit.Reconciler
	Engine     rag.Engine

	Queue     *queue.Client
	Inspector *queue.Inspector

	closers []func(ctx context.Context) error
}

// New connects to every store, bootstraps their schemas and builds the
// domain components. Close releases whatever was opened, also on error.
func New(ctx context.Context, cfg *config.Config) (_ *App, err error) {
	a := &App{Config: cfg}
	defer func() {
		if err != nil {
			_ = a.Close(context.Background())
		}
	}()
	logger := slog.Default()

	a.Mongo, err = storage.Connect(ctx, cfg.MongoURI)
	if err != nil {
		return nil, err
	}
	a.onClose(a.Mongo.Disconnect)
	coll := a.Mongo.Database(cfg.MongoDatabase).Collection(storage.DocumentsCollection)
	if err := storage.EnsureIndexes(ctx, coll); err != nil {
		return nil, err
	}
	a.Documents = storage.NewDocumentRepo(coll)
	logger.Info("Metadata store ready", "database", cfg.MongoDatabase)

	a.Blobs, err = blob.NewS3Store(ctx, blob.S3Config{
		Bucket:          cfg.S3Bucket,
		Region:          cfg.S3Region,
		Endpoint:        cfg.S3Endpoint,
		AccessKeyID:     cfg.S3AccessKeyID,
		SecretAccessKey: cfg.S3SecretAccessKey,
		UsePathStyle:    cfg.S3UsePathStyle,
	})
	if err != nil {
		return nil, err
	}

	a.Vectors, err = vectorstore.NewQdrantStore(vectorstore.QdrantConfig{
		URL:        cfg.QdrantURL,
		APIKey:     cfg.QdrantAPIKey,
		Collection: cfg.QdrantCollection,
		VectorSize: cfg.EmbeddingDimensions,
		Timeout:    cfg.VectorTimeout,
	})
	if err != nil {
		return nil, err
	}
	a.onClose(func(context.Context) error { return a.Vectors.Close() })
	if err := a.Vectors.EnsureCollection(ctx); err != nil {
		return nil, err
	}
	logger.Info("Qdrant collection ready", "collection", cfg.QdrantCollection, "vector_size", cfg.EmbeddingDimensions)

	a.Graph, err = graphstore.NewNeo4jStore(graphstore.Neo4jConfig{
		URI:      cfg.Neo4jURI,
		Username: cfg.Neo4jUser,
		Password: cfg.Neo4jPassword,
		Database: cfg.Neo4jDatabase,
		Timeout:  cfg.GraphTimeout,
	})
	if err != nil {
		return nil, err
	}
	a.onClose(a.Graph.Close)
	if err := a.Graph.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	logger.Info("Neo4j schema ready", "database", cfg.Neo4jDatabase)

	a.AuditDB, err = audit.Open(cfg.AuditDBPath)
	if err != nil {
		return nil, err
	}
	a.onClose(func(context.Context) error { return a.AuditDB.Close() })
	if err := audit.Migrate(a.AuditDB); err != nil {
		return nil, err
	}
	a.Runs = audit.NewLedger(a.AuditDB)

	a.LLM = llm.NewClient(llm.ClientConfig{
		APIKey:            cfg.OpenAIAPIKey,
		BaseURL:           cfg.OpenAIBaseURL,
		Model:             cfg.LLMModel,
		Timeout:           cfg.LLMTimeout,
		RequestsPerMinute: cfg.LLMRPM,
		MaxRetries:        llmRetries,
	})
	a.Embedder = llm.NewEmbeddingsClient(llm.EmbeddingsConfig{
		APIKey:     cfg.OpenAIAPIKey,
		BaseURL:    cfg.OpenAIBaseURL,
		Model:      cfg.EmbeddingModel,
		Dimensions: cfg.EmbeddingDimensions,
		BatchSize:  cfg.EmbeddingBatchSize,
		BatchDelay: cfg.EmbeddingBatchDelay,
		Timeout:    cfg.EmbeddingTimeout,
		MaxRetries: llmRetries,
	})

	if err := a.buildDomain(); err != nil {
		return nil, err
	}

	redis := queue.RedisConfig{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
	a.Queue = queue.NewClient(redis, queue.TaskOptions{MaxRetry: cfg.TaskMaxRetry, Timeout: cfg.TaskTimeout})
	a.onClose(func(context.Context) error { return a.Queue.Close() })
	a.Inspector = queue.NewInspector(redis)
	a.onClose(func(context.Context) error { return a.Inspector.Close() })

	return a, nil
}

func (a *App) buildDomain() error {
	cfg := a.Config
	t := cfg.Thresholds

	chunker, err := indexer.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		return fmt.Errorf("failed to create chunker: %w", err)
	}

	a.Resolver = entities.NewResolver(a.Graph, entities.ResolverConfig{
		SameAsThreshold:      t.SameAs,
		SimilarThreshold:     t.Similar,
		CooccurrenceMaxBonus: t.CooccurrenceBonus,
	})
	extractor := entities.NewExtractor(a.LLM, t.EntityMinChunkChars, t.EntityMaxPerChunk)

	a.Pipeline = indexer.NewPipeline(indexer.PipelineDeps{
		Documents: a.Documents,
		Blobs:     a.Blobs,
		Extractor: extract.NewExtractor(),
		Chunker:   chunker,
		Embedder:  a.Embedder,
		Vectors:   a.Vectors,
		Graph:     a.Graph,
		Entities:  entities.NewProcessor(extractor, a.Graph, a.Resolver),
		Resolver:  a.Resolver,
	}, indexer.PipelineConfig{
		EntityBatchSize:  t.EntityBatchSize,
		EntityBatchDelay: t.EntityBatchDelay,
	})

	a.Similarity = similarity.NewAnalyzer(a.Vectors, a.Graph, a.Embedder, t.DocumentSimilarity)
	a.Topics = topics.NewModeler(a.LLM, a.Graph, t.TopicRelevance)
	a.Reconciler = audit.NewReconciler(audit.ReconcilerDeps{
		Documents: a.Documents,
		Vectors:   a.Vectors,
		Graph:     a.Graph,
		Blobs:     a.Blobs,
		Runs:      a.Runs,
	}, cfg.StuckProcessingAfter)
	a.Engine = rag.NewEngine(a.Embedder, a.Vectors, a.Documents, a.LLM)
	return nil
}

// DocumentService returns the document lifecycle service.
func (a *App) DocumentService() service.DocumentService {
	return service.NewDocumentService(service.DocumentDeps{
		Documents: a.Documents,
		Blobs:     a.Blobs,
		Vectors:   a.Vectors,
		Graph:     a.Graph,
		Queue:     a.Queue,
	}, service.DocumentConfig{
		MaxFileSize: a.Config.MaxFileSizeBytes(),
		PresignTTL:  blob.DefaultPresignTTL,
		StuckAfter:  a.Config.StuckProcessingAfter,
	})
}

// ChatService returns the search and question answering service.
func (a *App) ChatService() service.ChatService {
	return service.NewChatService(a.Engine)
}

// AnalysisService returns the graph analysis and reconciliation service.
func (a *App) AnalysisService() service.AnalysisService {
	return service.NewAnalysisService(service.AnalysisDeps{
		Graph:      a.Graph,
		Similarity: a.Similarity,
		Topics:     a.Topics,
		Clusterer:  a.Resolver,
		Reconciler: a.Reconciler,
		Runs:       a.Runs,
		Queue:      a.Queue,
	})
}

// TaskHandlers returns the work the worker runs per task type.
func (a *App) TaskHandlers() queue.Handlers {
	return queue.Handlers{
		Ingester:   a.Pipeline,
		Similarity: a.Similarity,
		Topics:     a.Topics,
		Clusterer:  a.Resolver,
		Reconciler: a.Reconciler,
	}
}

// HealthChecks probes each backing service.
func (a *App) HealthChecks() map[string]handlers.Check {
	return map[string]handlers.Check{
		"vector_store": func(ctx context.Context) error {
			ok, err := a.Vectors.CollectionExists(ctx)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("collection %s does not exist", a.Config.QdrantCollection)
			}
			return nil
		},
		"graph_store":    a.Graph.VerifyConnectivity,
		"metadata_store": func(ctx context.Context) error { return a.Mongo.Ping(ctx, nil) },
		"queue":          func(context.Context) error { return a.Inspector.Ping() },
	}
}

func (a *App) onClose(fn func(ctx context.Context) error) {
	a.closers = append(a.closers, fn)
}

// Close releases connections in reverse order of opening.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
