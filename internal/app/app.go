// Package app wires configuration, storage, publishing and the HTTP server
// into one application container.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/newsmill/blog-ingest/internal/api"
	"github.com/newsmill/blog-ingest/internal/article"
	"github.com/newsmill/blog-ingest/internal/clock/system"
	"github.com/newsmill/blog-ingest/internal/config"
	"github.com/newsmill/blog-ingest/internal/extract"
	"github.com/newsmill/blog-ingest/internal/id/uuid"
	"github.com/newsmill/blog-ingest/internal/identity"
	"github.com/newsmill/blog-ingest/internal/ingest"
	"github.com/newsmill/blog-ingest/internal/logging"
	"github.com/newsmill/blog-ingest/internal/normalize"
	memorypublisher "github.com/newsmill/blog-ingest/internal/publisher/memory"
	gcppublisher "github.com/newsmill/blog-ingest/internal/publisher/pubsub"
	memorystore "github.com/newsmill/blog-ingest/internal/store/memory"
	mongostore "github.com/newsmill/blog-ingest/internal/store/mongo"
	pgstore "github.com/newsmill/blog-ingest/internal/store/postgres"
)

// App contains the application's dependencies.
type App struct {
	cfg       config.Config
	logger    *zap.Logger
	store     article.Store
	catalog   article.Catalog
	publisher article.Publisher
	pubCloser interface{ Close() error }
	runner    *ingest.Runner
	apiServer *api.Server
}

// Build creates the application's dependencies from configuration.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("logger init failed: %w", err)
	}
	zap.ReplaceGlobals(logger)

	a := &App{cfg: cfg, logger: logger}
	logger.Info("building application dependencies",
		zap.String("store_provider", cfg.Store.Provider),
		zap.Int("batch_size", cfg.Ingest.BatchSize))

	if err := a.setupStore(ctx); err != nil {
		return nil, err
	}
	if err := a.setupPublisher(ctx); err != nil {
		return nil, err
	}

	coordinator := ingest.NewCoordinator(a.store, identity.New(), logger.Named("ingest"))
	normalizer := normalize.New(system.New(), logger.Named("normalize"))
	a.runner = ingest.NewRunner(
		coordinator,
		normalizer,
		extract.New(),
		uuid.NewGenerator(),
		a.publisher,
		logger.Named("ingest"),
		ingest.RunnerConfig{
			BatchSize: cfg.Ingest.BatchSize,
			Precheck:  cfg.Ingest.Precheck,
			Topic:     cfg.PubSub.TopicName,
		},
	)

	a.apiServer = api.NewServer(a.catalog, logger.Named("api"))
	return a, nil
}

func (a *App) setupStore(ctx context.Context) error {
	switch a.cfg.Store.Provider {
	case "postgres":
		a.logger.Info("using postgres store",
			zap.String("table", a.cfg.Store.Postgres.Table))
		st, err := pgstore.New(ctx, pgstore.Config{
			DSN:             a.cfg.Store.Postgres.DSN,
			Table:           a.cfg.Store.Postgres.Table,
			MaxConns:        a.cfg.Store.Postgres.MaxConns,
			MinConns:        a.cfg.Store.Postgres.MinConns,
			MaxConnLifetime: a.cfg.Store.Postgres.MaxConnLifetime,
		})
		if err != nil {
			return fmt.Errorf("postgres store init failed: %w", err)
		}
		a.store, a.catalog = st, st
	case "mongo":
		a.logger.Info("using mongo store",
			zap.String("database", a.cfg.Store.Mongo.Database),
			zap.String("collection", a.cfg.Store.Mongo.Collection))
		st, err := mongostore.New(ctx, mongostore.Config{
			URI:        a.cfg.Store.Mongo.URI,
			Database:   a.cfg.Store.Mongo.Database,
			Collection: a.cfg.Store.Mongo.Collection,
		})
		if err != nil {
			return fmt.Errorf("mongo store init failed: %w", err)
		}
		a.store, a.catalog = st, st
	default:
		a.logger.Info("using in-memory store")
		st := memorystore.New()
		a.store, a.catalog = st, st
	}
	return nil
}

func (a *App) setupPublisher(ctx context.Context) error {
	if a.cfg.PubSub.TopicName == "" || a.cfg.PubSub.ProjectID == "" {
		a.logger.Warn("no Pub/Sub topic configured, using in-memory publisher")
		a.publisher = memorypublisher.New()
		return nil
	}
	pub, err := gcppublisher.New(ctx, a.cfg.PubSub.ProjectID)
	if err != nil {
		return fmt.Errorf("pubsub publisher init failed: %w", err)
	}
	a.logger.Info("Pub/Sub publisher initialized",
		zap.String("project", a.cfg.PubSub.ProjectID),
		zap.String("topic", a.cfg.PubSub.TopicName))
	a.publisher = pub
	a.pubCloser = pub
	return nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:           a.apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		a.logger.Info("http server started", zap.Int("port", a.cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	a.logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("server shutdown error", zap.Error(err))
	}
	return a.Close(shutdownCtx)
}

// Close gracefully shuts down the application.
func (a *App) Close(ctx context.Context) error {
	if a.pubCloser != nil {
		if err := a.pubCloser.Close(); err != nil {
			a.logger.Warn("publisher close failed", zap.Error(err))
		}
	}
	if a.store != nil {
		if err := a.store.Close(ctx); err != nil {
			a.logger.Warn("store close failed", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
	return nil
}

// Config returns the loaded configuration.
func (a *App) Config() config.Config { return a.cfg }

// Logger returns the application logger.
func (a *App) Logger() *zap.Logger { return a.logger }

// Runner returns the ingestion runner.
func (a *App) Runner() *ingest.Runner { return a.runner }

// Catalog returns the read surface of the store.
func (a *App) Catalog() article.Catalog { return a.catalog }
