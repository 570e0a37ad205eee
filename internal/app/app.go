package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"docsplit/internal/blob"
	"docsplit/internal/config"
	"docsplit/internal/extract"
	"docsplit/internal/infrastructure"
	custommw "docsplit/internal/middleware"
	"docsplit/internal/operations"
	"docsplit/internal/pdf"
	"docsplit/internal/pipeline"
	"docsplit/internal/queue"
	"docsplit/internal/records"
	handlers "docsplit/internal/transport/http"
)

// Version is set at build time.
var Version = "dev"

// Application wires the configuration, stores, queue, pipeline and HTTP
// server together.
type Application struct {
	Config    *config.Config
	Logger    *slog.Logger
	Router    *chi.Mux
	Server    *http.Server
	Queue     *queue.MemoryQueue
	Service   *operations.Service
	Records   records.Store
	Processor *pipeline.Processor

	closers []func() error
}

// New builds the application from configuration. When a Google Cloud
// project is configured the stores are backed by Firestore and Cloud
// Storage and extraction runs on Vertex AI; otherwise everything runs
// in memory with a no-op extractor, which is the local development mode.
func New(ctx context.Context) (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}

	app := &Application{
		Config: cfg,
		Logger: logger,
	}

	var (
		opStore     operations.Store
		recordStore records.Store
		blobStore   blob.Store
		extractor   extract.Extractor
	)

	if cfg.Google.ProjectID != "" {
		fsClient, err := firestore.NewClient(ctx, cfg.Google.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("create firestore client: %w", err)
		}
		app.closers = append(app.closers, fsClient.Close)

		gcsClient, err := storage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("create storage client: %w", err)
		}
		app.closers = append(app.closers, gcsClient.Close)

		gemini, err := extract.NewGeminiExtractor(ctx,
			cfg.Google.ProjectID, cfg.Google.Region, cfg.Extractor.Model, logger)
		if err != nil {
			return nil, fmt.Errorf("create extractor: %w", err)
		}
		app.closers = append(app.closers, gemini.Close)

		opStore = operations.NewFirestoreStore(fsClient, cfg.Google.OperationsCollection)
		recordStore = records.NewFirestoreStore(fsClient, cfg.Google.DocumentsCollection)
		blobStore = blob.NewGCSStore(gcsClient)
		extractor = gemini

		logger.InfoContext(ctx, "using google cloud backends",
			slog.String("project_id", cfg.Google.ProjectID),
			slog.String("region", cfg.Google.Region),
			slog.String("model", cfg.Extractor.Model))
	} else {
		opStore = operations.NewMemoryStore()
		recordStore = records.NewMemoryStore()
		blobStore = blob.NewMemoryStore()
		extractor = extract.NoopExtractor{}

		logger.InfoContext(ctx, "no project configured, using in-memory backends")
	}

	app.Queue = queue.NewMemoryQueue(
		cfg.Queue.Workers, cfg.Queue.Capacity, cfg.Queue.MaxDeliveries, logger)
	app.Service = operations.NewService(opStore, app.Queue, logger)
	app.Records = recordStore

	engine := pdf.NewEngine()
	app.Processor = pipeline.NewProcessor(
		app.Service, blobStore, engine, engine, extractor, recordStore,
		cfg.Storage.OutputContainer, logger)

	app.Router = app.buildRouter()
	app.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      app.Router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return app, nil
}

func (app *Application) buildRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(custommw.RequestID)
	r.Use(custommw.RealIP)
	r.Use(custommw.StructuredLogger(app.Logger))
	r.Use(custommw.Recoverer(app.Logger))
	r.Use(custommw.Timeout(app.Config.Server.RequestTimeout, app.Logger))
	r.Use(render.SetContentType(render.ContentTypeJSON))

	if app.Config.RateLimit.Enabled {
		limiter := custommw.NewRateLimiter(
			app.Config.RateLimit.RPS, app.Config.RateLimit.Burst, app.Logger)
		r.Use(limiter.Handler)
	}

	opsHandler := handlers.NewOperationsHandler(app.Service, app.Queue, app.Records, app.Logger)
	healthHandler := handlers.NewHealthHandler(Version, app.Queue.Depth, app.Logger)

	r.Route("/api", func(r chi.Router) {
		r.Mount("/operations", opsHandler.Routes())
		r.Mount("/health", healthHandler.Routes())
	})
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// Run starts the queue consumers and the HTTP server and blocks until the
// context is cancelled, then shuts both down gracefully.
func (app *Application) Run(ctx context.Context) error {
	app.Queue.Start(ctx, app.Processor.Process)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		app.Logger.InfoContext(gctx, "http server starting",
			slog.String("addr", app.Server.Addr),
			slog.String("version", Version))
		if err := app.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		app.Logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(
			context.Background(), app.Config.Server.ShutdownTimeout)
		defer cancel()

		if err := app.Server.Shutdown(shutdownCtx); err != nil {
			app.Logger.Error("http server shutdown failed",
				slog.String("error", err.Error()))
		}

		if err := app.Queue.Stop(app.Config.Server.ShutdownTimeout); err != nil {
			app.Logger.Warn("queue drain incomplete",
				slog.String("error", err.Error()))
		}

		app.close()
		return nil
	})

	err := g.Wait()
	app.Logger.Info("application stopped")
	return err
}

func (app *Application) close() {
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i](); err != nil {
			app.Logger.Warn("close failed", slog.String("error", err.Error()))
		}
	}
}
