package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/JonMunkholm/coverage/internal/config"
	"github.com/JonMunkholm/coverage/internal/core"
	"github.com/JonMunkholm/coverage/internal/logging"
	"github.com/JonMunkholm/coverage/internal/web"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"sheet", cfg.Workbook.Sheet,
		"keywords", cfg.KeywordSet().Selected(),
		"upload_max_concurrent", cfg.Workbook.MaxConcurrent,
		"snapshots_enabled", cfg.Database.Enabled(),
		"rate_limit_enabled", cfg.Rate.Enabled,
	)
	slog.Debug("effective configuration", "config", cfg.String())

	ctx := context.Background()

	var store core.SnapshotStore
	if cfg.Database.Enabled() {
		pool, err := connect(ctx, cfg.Database)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		snapshots := core.NewPgSnapshotStore(pool)
		if err := snapshots.EnsureSchema(ctx); err != nil {
			slog.Error("failed to create snapshot table", "error", err)
			os.Exit(1)
		}
		store = snapshots
	}

	service := core.NewService(core.Options{
		Keywords:      cfg.KeywordSet(),
		DefaultSheet:  cfg.Workbook.Sheet,
		MaxFileSize:   cfg.Workbook.MaxFileSize,
		MaxConcurrent: cfg.Workbook.MaxConcurrent,
		MaxWaitTime:   cfg.Workbook.MaxWaitTime,
		Store:         store,
		Logger:        slog.Default(),
	})

	// Preload the configured workbook so its report is available at startup
	if path := cfg.Workbook.Path; path != "" {
		if !core.FileExists(path) {
			slog.Warn("workbook not found, skipping preload", "path", path)
		} else if info, err := service.RegisterFile(ctx, core.DefaultWorkbookID, path, cfg.Workbook.Sheet); err != nil {
			slog.Error("failed to load workbook", "path", path, "error", core.FormatUserError(err), "detail", err)
		} else {
			slog.Info("workbook loaded", "id", info.ID, "rows", info.Rows, "sheet", info.Sheet)
		}
	}

	// Create server with config
	server := web.NewServer(service, cfg)

	// Create cancellable context for background jobs
	jobCtx, cancelJobs := context.WithCancel(context.Background())

	// Evict stale uploads and prune old snapshots
	go service.StartMaintenance(jobCtx, core.MaintenanceConfig{
		WorkbookTTL:       cfg.Maintenance.WorkbookTTL,
		SnapshotRetention: cfg.Maintenance.SnapshotRetention,
		CheckInterval:     cfg.Maintenance.Interval,
	})

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		// Stop background jobs
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Wait for workbooks still being parsed
		uploadStatus := service.UploadLimiterStatus()
		if uploadStatus.Active > 0 {
			slog.Info("waiting for uploads to complete", "active", uploadStatus.Active)
			if err := service.WaitForUploads(shutdownCtx); err != nil {
				slog.Warn("uploads did not complete in time", "error", err)
			} else {
				slog.Info("all uploads completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil {
		slog.Info("server stopped", "error", err)
	}
}

// connect opens and verifies the snapshot database pool.
func connect(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, err
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	if u, err := url.Parse(cfg.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}
	return pool, nil
}
