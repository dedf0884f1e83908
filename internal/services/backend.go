package services

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"

	"github.com/documate-ai/backend/internal/chunk"
	"github.com/documate-ai/backend/internal/gcp"
	"github.com/documate-ai/backend/internal/pdf"
	"github.com/documate-ai/backend/internal/store"
)

// Config holds the environment-derived settings shared by all entrypoints.
type Config struct {
	ProjectID      string
	VertexAIRegion string
	UploadBucket   string
	EmbeddingModel string
	StoreBackend   string
	SQLitePath     string
	DummyUserID    string
}

// ConfigFromEnv reads configuration from the environment.
func ConfigFromEnv() Config {
	return Config{
		ProjectID:      gcp.GetEnv("PROJECT_ID", ""),
		VertexAIRegion: gcp.GetEnv("VERTEX_AI_REGION", "us-central1"),
		UploadBucket:   gcp.GetEnv("UPLOAD_BUCKET", ""),
		EmbeddingModel: gcp.GetEnv("EMBEDDING_MODEL", gcp.DefaultEmbeddingModel),
		StoreBackend:   gcp.GetEnv("STORE_BACKEND", "firestore"),
		SQLitePath:     gcp.GetEnv("SQLITE_PATH", "documate.db"),
		DummyUserID:    gcp.GetEnv("DUMMY_USER_ID", ""),
	}
}

// Backend bundles the fully wired services for the entrypoints. Construction
// happens once per process behind sync.Once in each main.
type Backend struct {
	Config    Config
	Processor *Processor
	QA        *QAService
	Store     store.Store
	Gemini    *gcp.GeminiClient
	Bucket    *storage.BucketHandle

	embedder      *gcp.EmbeddingClient
	storageClient *storage.Client
}

// NewBackend constructs all clients and services from the environment.
func NewBackend(ctx context.Context) (*Backend, error) {
	cfg := ConfigFromEnv()
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("NewBackend: PROJECT_ID environment variable not set")
	}
	if cfg.UploadBucket == "" {
		return nil, fmt.Errorf("NewBackend: UPLOAD_BUCKET environment variable not set")
	}

	gemini, err := gcp.NewGeminiClient(ctx, cfg.ProjectID, cfg.VertexAIRegion)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	embedder, err := gcp.NewEmbeddingClient(ctx, cfg.ProjectID, cfg.VertexAIRegion, cfg.EmbeddingModel)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding client: %w", err)
	}
	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	bucket := storageClient.Bucket(cfg.UploadBucket)

	st, err := newStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	extractor := pdf.NewExtractor()
	splitter := chunk.NewSplitter()
	processor := NewProcessor(
		extractor,
		gcp.NewPDFBucket(bucket),
		gcp.NewTextModel(gemini.SummaryModel),
		gcp.NewTextModel(gemini.EntityModel),
		embedder,
		splitter,
		st,
	)

	retriever := NewRetriever(st, embedder)
	answerer := NewAnswerer(gcp.NewTextModel(gemini.AnswerModel))
	tools := NewToolRegistry(st, retriever)
	agent := NewAgent(func() AgentChat { return gemini.StartAgentChat() }, tools)
	qa := NewQAService(retriever, answerer, agent, st)

	return &Backend{
		Config:        cfg,
		Processor:     processor,
		QA:            qa,
		Store:         st,
		Gemini:        gemini,
		Bucket:        bucket,
		embedder:      embedder,
		storageClient: storageClient,
	}, nil
}

func newStore(ctx context.Context, cfg Config) (store.Store, error) {
	switch cfg.StoreBackend {
	case "firestore":
		client, err := gcp.NewFirestoreClient(ctx, cfg.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("failed to create Firestore client: %w", err)
		}
		return store.NewFirestoreStore(client), nil
	case "sqlite":
		st, err := store.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite store: %w", err)
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q (want firestore or sqlite)", cfg.StoreBackend)
	}
}

// Close releases the external clients. Cloud Functions never call this;
// long-running local processes do on shutdown.
func (b *Backend) Close() error {
	var firstErr error
	if err := b.Gemini.Close(); err != nil {
		firstErr = err
	}
	if err := b.embedder.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := b.storageClient.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
