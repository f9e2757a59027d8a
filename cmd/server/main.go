package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/HammerMeetNail/postcoach/internal/assets"
	"github.com/HammerMeetNail/postcoach/internal/config"
	"github.com/HammerMeetNail/postcoach/internal/database"
	"github.com/HammerMeetNail/postcoach/internal/extract"
	"github.com/HammerMeetNail/postcoach/internal/extract/tesseract"
	"github.com/HammerMeetNail/postcoach/internal/handlers"
	"github.com/HammerMeetNail/postcoach/internal/logging"
	"github.com/HammerMeetNail/postcoach/internal/metrics"
	"github.com/HammerMeetNail/postcoach/internal/middleware"
	"github.com/HammerMeetNail/postcoach/internal/services"
	"github.com/HammerMeetNail/postcoach/migrations"
)

func main() {
	if err := run(); err != nil {
		logging.Error("Application error", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
}

func run() error {
	logger := logging.New()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	level := logging.ParseLevel(cfg.Server.LogLevel)
	if cfg.Server.Debug {
		level = logging.LevelDebug
	}
	logger.SetLevel(level)
	logging.SetDefaultLevel(level)

	logger.Info("Starting postcoach server...", map[string]interface{}{
		"env": cfg.Server.Environment,
	})

	// Connect to PostgreSQL
	logger.Info("Connecting to PostgreSQL", map[string]interface{}{
		"host": cfg.Database.Host,
		"port": cfg.Database.Port,
	})
	db, err := database.NewPostgresDB(cfg.Database.DSN(), database.PoolOptions{
		MaxConns: int32(cfg.Database.MaxConns),
		MinConns: int32(cfg.Database.MinConns),
	})
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	defer db.Close()

	logger.Info("Running database migrations...")
	if err := migrate(cfg.Database.DSN()); err != nil {
		return err
	}
	logger.Info("Migrations completed")

	// Connect to Redis
	logger.Info("Connecting to Redis", map[string]interface{}{
		"addr": cfg.Redis.Addr(),
	})
	redisDB, err := database.NewRedisDB(database.RedisOptions{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer func() { _ = redisDB.Close() }()

	appMetrics := metrics.New()

	ocr := tesseract.New(cfg.Extraction.OCRLanguages...)
	logger.Info("Text extraction ready", map[string]interface{}{
		"tesseract":       ocr.Version(),
		"languages":       ocr.Languages(),
		"max_concurrency": cfg.Extraction.MaxConcurrency,
	})
	dispatcher := extract.NewDispatcher(
		extract.NewPDFExtractor(cfg.Extraction.MaxPDFPages),
		ocr,
		cfg.Extraction.MaxConcurrency,
	)

	analysisService := services.NewAnalysisService(
		services.NewPoolAdapter(db.Pool),
		services.NewRedisAdapter(redisDB.Client),
		dispatcher,
		services.AnalysisOptions{
			MaxUploadBytes: cfg.Server.MaxUploadBytes,
			CacheTTL:       cfg.Cache.TTL,
			Logger:         logger,
			Metrics:        appMetrics,
		},
	)

	manifest := assets.NewManifest(cfg.Server.WebDir)
	if err := manifest.Load(); err != nil {
		return fmt.Errorf("loading asset manifest: %w", err)
	}
	pageHandler, err := handlers.NewPageHandler(filepath.Join(cfg.Server.WebDir, "templates"), manifest, cfg.Server.MaxUploadBytes)
	if err != nil {
		return fmt.Errorf("loading templates: %w", err)
	}

	var rateLimiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		rateLimiter = middleware.NewRateLimiter(
			middleware.NewRedisWindowCounter(redisDB.Client),
			cfg.RateLimit.Requests,
			cfg.RateLimit.Window,
			"ratelimit:analyze:",
			nil,
		).SetLogger(logger).SetMetrics(appMetrics)
	}

	handler := newRouter(routerConfig{
		analysis: handlers.NewAnalysisHandler(analysisService, cfg.Server.MaxUploadBytes, logger),
		health: handlers.NewHealthHandler(
			handlers.NamedCheck{Name: "postgres", Checker: db},
			handlers.NamedCheck{Name: "redis", Checker: redisDB},
		),
		pages:          pageHandler,
		metrics:        appMetrics,
		rateLimiter:    rateLimiter,
		logger:         logger,
		staticDir:      filepath.Join(cfg.Server.WebDir, "static"),
		secure:         cfg.Server.Secure,
		production:     cfg.Server.IsProduction(),
		allowedOrigins: cfg.Server.AllowedOrigins,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:        addr,
		Handler:     handler,
		ReadTimeout: 30 * time.Second,
		// OCR of a large scan can take a while.
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server listening", map[string]interface{}{
			"addr": addr,
		})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server error: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	logger.Info("Server is shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	server.SetKeepAlivesEnabled(false)
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Could not gracefully shutdown the server", map[string]interface{}{
			"error": err.Error(),
		})
	}

	logger.Info("Server stopped")
	return nil
}

func migrate(dsn string) error {
	migrator, err := database.NewMigrator(dsn, migrations.FS)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	defer func() { _ = migrator.Close() }()

	if err := migrator.Up(); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}
