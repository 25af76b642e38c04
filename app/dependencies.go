package app

import (
	"context"
	"fmt"

	"github.com/upb/catalog-assistant/config"
	"github.com/upb/catalog-assistant/repositories"
	"github.com/upb/catalog-assistant/repositories/postgres"
	"github.com/upb/catalog-assistant/services/generator"
	"github.com/upb/catalog-assistant/services/indexer"
	"github.com/upb/catalog-assistant/services/providers/openai"
	"github.com/upb/catalog-assistant/services/responder"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection; both the server
// and the ingest tool build their object graph from here.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB
	Logger *zap.Logger

	// Repositories
	Corpus        repositories.CorpusRepository
	Conversations repositories.ConversationRepository

	// Model provider (embedding + chat completion)
	Provider *openai.Client

	// Services
	Responder *responder.Service
	Generator *generator.Service
	Indexer   *indexer.Service
}

// NewDependencies creates and wires up all application dependencies
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initDatabase(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := deps.initRepositories(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize repositories: %w", err)
	}

	if err := deps.initProvider(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize model provider: %w", err)
	}

	deps.initServices(cfg)

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initDatabase initializes the PostgreSQL connection pool and schema
func (d *Dependencies) initDatabase(ctx context.Context, cfg *config.Config) error {
	db, err := postgres.NewDB(cfg.Database, d.Logger)
	if err != nil {
		return err
	}
	d.DB = db

	if err := db.InitSchema(ctx, cfg.Vector.FieldPath, cfg.Vector.Dimension); err != nil {
		return err
	}

	return nil
}

// initRepositories initializes the corpus and conversation repositories
func (d *Dependencies) initRepositories(cfg *config.Config) error {
	corpus, err := postgres.NewCorpusRepository(d.DB, postgres.IndexConfig{
		Name:      cfg.Vector.IndexName,
		Field:     cfg.Vector.FieldPath,
		Metric:    cfg.Vector.Metric,
		Dimension: cfg.Vector.Dimension,
	}, d.Logger)
	if err != nil {
		return err
	}

	d.Corpus = corpus
	d.Conversations = postgres.NewConversationRepository(d.DB, d.Logger)

	d.Logger.Info("repositories initialized")
	return nil
}

// initProvider initializes the OpenAI client used for both embeddings and chat
func (d *Dependencies) initProvider(cfg *config.Config) error {
	provider, err := openai.NewClient(openai.Config{
		APIKey:             cfg.OpenAI.APIKey,
		BaseURL:            cfg.OpenAI.BaseURL,
		EmbeddingModel:     cfg.Vector.EmbeddingModel,
		EmbeddingDimension: cfg.Vector.Dimension,
		ChatModel:          cfg.Chat.Model,
		Temperature:        cfg.Chat.Temperature,
		Timeout:            cfg.OpenAI.Timeout,
	})
	if err != nil {
		return err
	}

	d.Provider = provider
	d.Logger.Info("model provider initialized",
		zap.String("embedding_model", cfg.Vector.EmbeddingModel),
		zap.String("chat_model", cfg.Chat.Model))
	return nil
}

// initServices wires the responder, generator, and indexer services
func (d *Dependencies) initServices(cfg *config.Config) {
	d.Responder = responder.NewService(
		d.Provider,
		d.Provider,
		d.Corpus,
		d.Conversations,
		responder.Config{
			TopK:     cfg.Vector.TopK,
			MinScore: cfg.Vector.MinScore,
		},
		d.Logger,
	)
	d.Generator = generator.NewService(d.Provider, d.Logger)
	d.Indexer = indexer.NewService(d.Provider, d.Corpus, d.Logger)

	d.Logger.Info("services initialized")
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
	}

	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}
