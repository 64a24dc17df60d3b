// Package app wires configuration, storage, the embedding client, and the
// retrieval components into a ready-to-use application object. Components
// are constructed explicitly and passed down; nothing is ambient.
package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quillhq/kbsearch/db"
	"github.com/quillhq/kbsearch/internal/config"
	"github.com/quillhq/kbsearch/internal/gemini"
	"github.com/quillhq/kbsearch/internal/indexer"
	"github.com/quillhq/kbsearch/internal/log"
	"github.com/quillhq/kbsearch/internal/observability"
	"github.com/quillhq/kbsearch/internal/search"
	"github.com/quillhq/kbsearch/internal/store"
)

// App holds the wired application components.
type App struct {
	Config    *config.Config
	Logger    log.Logger
	Pool      *pgxpool.Pool
	Embedder  *gemini.Embedder
	Chunks    *store.Chunks
	Documents *store.Documents
	Engine    *search.Engine
	Indexer   *indexer.Job

	shutdownTracing func(context.Context) error
}

// Setup builds the application: run migrations, open the connection pool,
// create the embedding client, and wire the retrieval engine and indexing
// job. Call Close when done.
func Setup(ctx context.Context, cfg *config.Config, logger log.Logger) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app: config is required")
	}
	if logger == nil {
		logger = log.NewNop()
	}

	shutdownTracing := func(context.Context) error { return nil }
	if cfg.Datadog.Enabled {
		var err error
		shutdownTracing, err = observability.SetupDatadog(ctx, observability.Config{
			AgentHost:   cfg.Datadog.AgentHost,
			Environment: cfg.Datadog.Environment,
			ServiceName: cfg.Datadog.ServiceName,
		})
		if err != nil {
			return nil, fmt.Errorf("setting up tracing: %w", err)
		}
	}

	pool, err := providePool(ctx, cfg)
	if err != nil {
		return nil, err
	}

	embedder, err := gemini.New(ctx, gemini.Config{
		APIKey:    os.Getenv("GEMINI_API_KEY"),
		Model:     cfg.EmbedderModel,
		Dimension: cfg.EmbeddingDim,
		BatchSize: cfg.EmbedBatchSize,
	}, logger)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating embedder: %w", err)
	}

	chunks := store.NewChunks(pool, logger)
	documents := store.NewDocuments(pool, logger)

	engine, err := search.New(embedder, chunks, documents, logger)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating search engine: %w", err)
	}

	job, err := indexer.New(documents, embedder, chunks, logger)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating indexer: %w", err)
	}

	logger.Info("application ready",
		"embedder_model", cfg.EmbedderModel,
		"embedding_dim", cfg.EmbeddingDim)

	return &App{
		Config:          cfg,
		Logger:          logger,
		Pool:            pool,
		Embedder:        embedder,
		Chunks:          chunks,
		Documents:       documents,
		Engine:          engine,
		Indexer:         job,
		shutdownTracing: shutdownTracing,
	}, nil
}

// Close flushes traces and releases the connection pool.
func (a *App) Close(ctx context.Context) error {
	var err error
	if a.shutdownTracing != nil {
		if terr := a.shutdownTracing(ctx); terr != nil {
			err = fmt.Errorf("flushing traces: %w", terr)
		}
	}
	a.Pool.Close()
	return err
}

// providePool runs migrations and opens a configured connection pool.
func providePool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	if err := db.Migrate(cfg.PostgresURL()); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parsing connection config: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return pool, nil
}
