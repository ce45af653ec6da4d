package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"

	"freightbase/internal/batch"
	"freightbase/internal/config"
	"freightbase/internal/database"
	"freightbase/internal/errors"
	"freightbase/internal/exporter"
	"freightbase/internal/extraction"
	"freightbase/internal/files"
	"freightbase/internal/infrastructure"
	"freightbase/internal/mapping"
	customMiddleware "freightbase/internal/middleware"
	"freightbase/internal/services"
	handlers "freightbase/internal/transport/http"
	"freightbase/internal/validation"
)

const (
	Version = "1.0.0"
	AppName = "FreightBase"
)

// BuildTime is set at compile time via ldflags.
var BuildTime = "unknown"

// Application is the composed service: configuration, storage, the
// extraction queue, and the HTTP surface.
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	DB            *sqlx.DB
	Queue         *batch.Queue
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Services      *ServiceContainer
}

// ServiceContainer holds the application services.
type ServiceContainer struct {
	Extraction *services.ExtractionService
	Baseline   *services.BaselineService
	Mappings   *services.MappingService
	Health     *services.HealthService
}

// NewApplication builds a fully wired application from configuration.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("application starting",
		slog.String("name", AppName),
		slog.String("version", Version))

	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}

	otelProviders, err := infrastructure.InitializeOTel(context.Background(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices opens storage and wires the service layer.
func (a *Application) initializeServices() error {
	db, err := database.Open(a.Config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	a.DB = db

	repo := database.NewUploadRepository(db, a.Logger)
	store := mapping.NewStore(db, a.Logger)
	mapper := mapping.NewMapper(store, mapping.NewResolver(), a.Logger, a.OTelProviders.Metrics)

	limits := extraction.Limits{
		MaxTabs:       a.Config.Extraction.MaxTabs,
		MaxRowsPerTab: a.Config.Extraction.MaxRowsPerTab,
	}
	engine := extraction.NewEngine(mapper, a.Logger, limits, a.OTelProviders.Metrics)

	storage := files.NewManager(a.Config.Storage.UploadsDir, a.Logger)
	validator := validation.NewFileValidator(a.Logger, a.Config.Extraction.MaxUploadBytes)

	a.Queue = batch.NewQueue(a.Config.Extraction.BatchWorkers, repo, storage, engine, a.Logger)

	reportExporter := exporter.NewBaselineExporter(a.Config.Storage.ReportsDir)

	a.Services = &ServiceContainer{
		Extraction: services.NewExtractionService(repo, storage, a.Queue, validator, a.Logger),
		Baseline:   services.NewBaselineService(repo, reportExporter, a.Logger),
		Mappings:   services.NewMappingService(store, mapper, a.Logger),
		Health:     services.NewHealthService(Version, BuildTime, db, a.Logger),
	}

	return nil
}

// setupRouter configures the HTTP router with all routes.
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// Ordering: RequestID → RealIP → OTel → Logger → Recoverer.
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.OTelProviders)
	if err != nil {
		a.Logger.Error("failed to create OpenTelemetry middleware", slog.String("error", err.Error()))
	} else {
		r.Use(otelMiddleware.Handler)
	}

	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(customMiddleware.Recoverer(a.Logger))
	r.Use(customMiddleware.SecurityHeaders)

	if a.Config.Security.RateLimit.Enabled {
		r.Use(customMiddleware.NewRateLimiter(
			a.Config.Security.RateLimit.RPS,
			a.Config.Security.RateLimit.Burst,
			a.Logger,
		).Handler)
	}

	errorHandler := errors.NewErrorHandler(a.Logger, false)
	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	validation := customMiddleware.NewValidationMiddleware(a.Logger, errorHandler)

	r.Route("/api", func(r chi.Router) {
		// Uploads of large workbooks need the long request timeout.
		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.Logger))
		r.Use(validation.ValidateRequest)

		extractionHandler := handlers.NewExtractionHandler(
			a.Services.Extraction, a.Logger, errorHandler, a.Config.Extraction.MaxUploadBytes)
		r.Mount("/extraction", extractionHandler.Routes())

		baselineHandler := handlers.NewBaselineHandler(a.Services.Baseline, a.Logger, errorHandler)
		r.Mount("/baseline", baselineHandler.Routes())

		mappingHandler := handlers.NewMappingHandler(a.Services.Mappings, a.Logger, errorHandler)
		r.Mount("/mappings", mappingHandler.Routes())
	})

	healthHandler := handlers.NewHealthHandler(a.Services.Health, a.Logger)
	r.Mount("/healthz", healthHandler.Routes())

	// Prometheus endpoint stays outside the middleware chain.
	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	a.Router = r
}

// createServer creates the HTTP server.
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// Start launches the extraction workers and the HTTP server. A server
// failure cancels the supplied context so main can unwind.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Queue.Start(ctx)

	go func() {
		a.Logger.InfoContext(ctx, "HTTP server listening",
			slog.String("addr", a.Server.Addr))
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.ErrorContext(ctx, "server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	return nil
}

// Stop gracefully stops the application: server first so no new jobs
// arrive, then the queue drains, then storage closes.
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if a.Queue != nil {
		if err := a.Queue.Stop(a.Config.Server.ShutdownTimeout); err != nil {
			a.Logger.ErrorContext(ctx, "job queue did not drain", slog.String("error", err.Error()))
		}
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "telemetry shutdown error", slog.String("error", err.Error()))
		}
	}

	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Logger.ErrorContext(ctx, "database close error", slog.String("error", err.Error()))
		}
	}

	if err := infrastructure.CloseLogFile(); err != nil {
		fmt.Printf("failed to close log file: %v\n", err)
	}

	a.Logger.InfoContext(ctx, "application stopped")
	return nil
}

// shutdownGrace is how long Stop may take before main gives up.
const shutdownGrace = 45 * time.Second

// Run starts the application and blocks until the context is cancelled,
// then performs a graceful shutdown.
func (a *Application) Run(ctx context.Context, cancel context.CancelFunc) error {
	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	<-ctx.Done()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer stopCancel()
	return a.Stop(stopCtx)
}
