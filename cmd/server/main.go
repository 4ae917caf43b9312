package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	appcarrier "github.com/erp/carrier-sync/internal/application/carrier"
	"github.com/erp/carrier-sync/internal/infrastructure/cache"
	"github.com/erp/carrier-sync/internal/infrastructure/config"
	"github.com/erp/carrier-sync/internal/infrastructure/feed"
	"github.com/erp/carrier-sync/internal/infrastructure/logger"
	"github.com/erp/carrier-sync/internal/infrastructure/persistence"
	"github.com/erp/carrier-sync/internal/infrastructure/scheduler"
	"github.com/erp/carrier-sync/internal/infrastructure/telemetry"
	"github.com/erp/carrier-sync/internal/interfaces/http/handler"
	"github.com/erp/carrier-sync/internal/interfaces/http/middleware"
	"github.com/erp/carrier-sync/internal/interfaces/http/router"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

const shutdownTimeout = 30 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting carrier sync service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	ctx := context.Background()

	// Telemetry
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}

	syncMetrics, err := telemetry.NewSyncMetrics(telemetry.SyncMetricsConfig{
		Meter:  meterProvider.Meter("carrier.sync"),
		Logger: log,
	})
	if err != nil {
		log.Fatal("Failed to initialize sync metrics", zap.Error(err))
	}

	// Database
	db, err := persistence.NewDatabase(&cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connected successfully")

	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:    cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL: cfg.Telemetry.DBLogFullSQL,
		DBSystem:   "postgresql",
	}, log); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}

	repo := persistence.NewGormCarrierRepository(db.DB)

	// Feed
	downloader, err := feed.NewDownloader(&feed.DownloaderConfig{
		APIKey:            cfg.Feed.APIKey,
		BaseURL:           cfg.Feed.BaseURL,
		RateLimitInterval: cfg.Feed.RateLimitInterval,
		MaxResponseBytes:  cfg.Feed.MaxResponseBytes,
	})
	if err != nil {
		log.Fatal("Failed to configure feed downloader (set CARRIER_FEED_API_KEY)", zap.Error(err))
	}

	// Country cache
	countryCache, err := cache.NewCountryCacheFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(!cfg.IsProduction()),
	).CreateCache()
	if err != nil {
		log.Fatal("Failed to initialize country cache", zap.Error(err))
	}

	queries := appcarrier.NewQueryService(repo, countryCache, log)

	synchronizer := appcarrier.NewSynchronizer(downloader, feed.NewParser(), repo,
		appcarrier.WithLogger(log),
		appcarrier.WithMetrics(syncMetrics),
		appcarrier.WithTracer(tracerProvider.Tracer("carrier.sync")),
		appcarrier.WithOnCompleted(queries.OnSyncCompleted),
	)

	// Scheduler
	syncTrigger, err := scheduler.NewSyncTrigger(scheduler.SyncTriggerConfig{
		Interval:    cfg.Scheduler.Interval,
		JobTimeout:  cfg.Scheduler.JobTimeout,
		RunOnStart:  cfg.Scheduler.RunOnStart,
		HistorySize: cfg.Scheduler.HistorySize,
	}, synchronizer, log)
	if err != nil {
		log.Fatal("Failed to create sync trigger", zap.Error(err))
	}
	if cfg.Scheduler.Enabled {
		if err := syncTrigger.Start(ctx); err != nil {
			log.Fatal("Failed to start sync trigger", zap.Error(err))
		}
	} else {
		log.Info("Scheduled carrier sync disabled; use POST /api/v1/carriers/sync")
	}

	// HTTP
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Invalid trusted proxies", zap.Error(err))
	}
	engine.Use(
		logger.RequestID(),
		logger.GinMiddleware(log),
		logger.Recovery(log),
		otelgin.Middleware(cfg.Telemetry.ServiceName),
		middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
			MeterProvider: meterProvider,
			Enabled:       cfg.Telemetry.Enabled,
			Logger:        log,
		}),
	)

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(handler.NewCarrierHandler(queries, syncTrigger)).
		RegisterRoot(handler.NewSystemHandler(cfg.App.Name, version, db))
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := syncTrigger.Stop(shutdownCtx); err != nil {
		log.Error("Sync trigger did not stop cleanly", zap.Error(err))
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if closer, ok := countryCache.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			log.Error("Error closing country cache", zap.Error(err))
		}
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down meter provider", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down tracer provider", zap.Error(err))
	}
	if err := db.Close(); err != nil {
		log.Error("Error closing database", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
