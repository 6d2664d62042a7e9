package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dosada05/mergington-activities/config"
	"github.com/Dosada05/mergington-activities/db"
	"github.com/Dosada05/mergington-activities/handlers"
	"github.com/Dosada05/mergington-activities/live"
	"github.com/Dosada05/mergington-activities/repositories"
	api "github.com/Dosada05/mergington-activities/routes"
	"github.com/Dosada05/mergington-activities/services"
	"github.com/Dosada05/mergington-activities/storage"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

const (
	dbConnectTimeout = 5 * time.Second
	shutdownTimeout  = 15 * time.Second
)

// @title Mergington High School API
// @version 1.0
// @description API for viewing and signing up for extracurricular activities
// @BasePath /
func main() {
	if err := run(); err != nil {
		slog.Error("application failed", slog.Any("error", err))
		os.Exit(1)
	}
	slog.Info("application exited")
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)
	logger.Info("configuration loaded",
		slog.Int("port", cfg.ServerPort),
		slog.String("store", string(cfg.StoreDriver)),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rosterRepo, closeStore, err := openRosterRepository(cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	wsHub := live.NewHub(logger)

	activityService := services.NewActivityService(rosterRepo, wsHub, logger)

	var snapshotService *services.SnapshotService
	r2Config := storage.CloudflareR2UploaderConfig{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		BucketName:      cfg.R2BucketName,
		PublicBaseURL:   cfg.R2PublicBaseURL,
		Endpoint:        cfg.R2Endpoint,
	}
	if r2Config.Enabled() {
		uploader, err := storage.NewCloudflareR2Uploader(ctx, r2Config)
		if err != nil {
			return fmt.Errorf("failed to initialize Cloudflare R2 uploader: %w", err)
		}
		snapshotService = services.NewSnapshotService(rosterRepo, uploader, logger)
		logger.Info("Cloudflare R2 snapshot uploader initialized", slog.String("bucket", cfg.R2BucketName))
	} else {
		logger.Info("R2 not configured, roster snapshots disabled")
	}

	activityHandler := handlers.NewActivityHandler(activityService, logger)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub, cfg.CORSAllowedOrigins, logger)

	router := chi.NewRouter()
	api.SetupRoutes(router, api.Options{
		StaticDir:      cfg.StaticDir,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Logger:         logger,
	}, activityHandler, webSocketHandler)
	logger.Info("Routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return wsHub.Run(gCtx)
	})

	if snapshotService != nil {
		g.Go(func() error {
			return snapshotService.RunScheduler(gCtx, cfg.SnapshotInterval)
		})
	}

	g.Go(func() error {
		logger.Info("starting server", slog.String("address", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			return err
		}
		logger.Info("server shutdown complete")
		return nil
	})

	return g.Wait()
}

// openRosterRepository builds the configured store, optionally wrapped in the
// Redis cache. The returned func releases whatever was opened.
func openRosterRepository(cfg *config.Config, logger *slog.Logger) (repositories.RosterRepository, func(), error) {
	var (
		repo    repositories.RosterRepository
		closers []func() error
	)

	switch cfg.StoreDriver {
	case config.StorePostgres:
		if err := db.RunMigrations(cfg.DatabaseURL, logger); err != nil {
			return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		dbConn, err := db.Connect(cfg.DatabaseURL, dbConnectTimeout)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		closers = append(closers, dbConn.Close)
		repo = repositories.NewPostgresRosterRepository(dbConn)
		logger.Info("database connection established")

	case config.StoreSQLite:
		dbConn, err := db.OpenSQLite(cfg.SQLitePath, dbConnectTimeout)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		closers = append(closers, dbConn.Close)
		repo = repositories.NewSQLiteRosterRepository(dbConn)
		logger.Info("sqlite store opened", slog.String("path", cfg.SQLitePath))

	default:
		fileRepo, err := repositories.NewFileRosterRepository(cfg.ActivitiesFile)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize roster file store: %w", err)
		}
		repo = fileRepo
		logger.Info("file store ready", slog.String("path", cfg.ActivitiesFile))
	}

	if cfg.CacheEnabled() {
		rdb := redis.NewClient(&redis.Options{
			Addr:         cfg.RedisAddr,
			Password:     cfg.RedisPassword,
			DB:           cfg.RedisDB,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		})
		closers = append(closers, rdb.Close)
		repo = repositories.NewCachedRosterRepository(repo, rdb, cfg.RosterCacheTTL, logger)
		logger.Info("roster cache enabled", slog.String("redis", cfg.RedisAddr), slog.Duration("ttl", cfg.RosterCacheTTL))
	}

	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				logger.Error("failed to close store resource", slog.Any("error", err))
			}
		}
	}
	return repo, closeAll, nil
}
