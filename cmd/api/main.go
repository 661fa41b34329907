// Copyright (c) 2026 Crate. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the Crate HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Open the catalogue storage (PostgreSQL with migrations, or in-memory).
//  4. Connect to Redis when configured.
//  5. Wire services and HTTP handlers.
//  6. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/taibuivan/crate/internal/api"
	"github.com/taibuivan/crate/internal/core/lookup"
	"github.com/taibuivan/crate/internal/core/release"
	"github.com/taibuivan/crate/internal/memstore"
	"github.com/taibuivan/crate/internal/platform/config"
	"github.com/taibuivan/crate/internal/platform/constants"
	"github.com/taibuivan/crate/internal/platform/migration"
	pgstore "github.com/taibuivan/crate/internal/platform/postgres"
	redisstore "github.com/taibuivan/crate/internal/platform/redis"
	"github.com/taibuivan/crate/internal/platform/sec"
)

// storage is the catalogue backend selected by STORAGE_DRIVER.
type storage struct {
	lookups  lookup.Repository
	releases release.Repository
	tx       release.Transactor
	ping     func(ctx context.Context) error
	close    func()
}

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	log := newLogger(slog.LevelInfo)
	log.Info("service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		log = newLogger(slog.LevelDebug)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.String("storage_driver", cfg.StorageDriver),
	)

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 3. Storage ────────────────────────────────────────────────────────
	store, err := openStorage(startupCtx, cfg, log)
	must(log, err, "open storage")
	defer store.close()

	// ── 4. Redis ──────────────────────────────────────────────────────────
	var (
		nameCache  lookup.NameCache
		checkCache func(ctx context.Context) error
	)
	if cfg.RedisURL != "" {
		rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
		must(log, err, "connect to redis")
		defer closeRedis(log, rdb)

		nameCache = lookup.NewRedisNameCache(rdb, cfg.NameCacheTTL)
		checkCache = func(ctx context.Context) error { return redisstore.Ping(ctx, rdb) }
	} else {
		log.Info("name_cache_disabled")
	}

	// ── 5. Token Verification ─────────────────────────────────────────────
	verifier, err := sec.NewVerifier(cfg.JWTPubKeyPath, constants.AuthIssuer)
	must(log, err, "initialize jwt verifier")

	// ── 6. Health handlers (wired with real dependency checkers) ──────────
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: store.ping,
		CheckCache:    checkCache,
	}, log)

	// ── 7. Domain Wiring ──────────────────────────────────────────────────
	lookupService := lookup.NewService(store.lookups, store.tx, nameCache, log)

	detector := release.NewDetector(store.releases, store.lookups, log)
	writer := release.NewWriter(store.releases, store.lookups, detector, store.tx,
		release.WriterConfig{DuplicateCheckOnUpdate: cfg.DuplicateCheckOnUpdate}, log)
	mapper := release.NewMapper(lookup.NewNameSource(store.lookups, nameCache, log), log)
	releaseService := release.NewService(store.releases, writer, detector, mapper, log)

	// ── 8. HTTP Server ────────────────────────────────────────────────────
	serverCtx, serverCancel := context.WithCancel(context.Background())
	defer serverCancel()

	server := api.NewServer(serverCtx, cfg, log, verifier, api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Lookups:   lookup.NewHandler(lookupService),
		Releases:  release.NewHandler(releaseService),
	})

	// ── 9. Graceful Shutdown ──────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown_signal_received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server_startup_error", slog.Any("error", err))
	}

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("server_shutting_down", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown_error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server_stopped")
}

func newLogger(level slog.Level) *slog.Logger {
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})).
		With(slog.String("app", constants.AppName))
	slog.SetDefault(log)
	return log
}

func openStorage(ctx context.Context, cfg *config.Config, log *slog.Logger) (*storage, error) {
	if !cfg.UsesPostgres() {
		log.Warn("memory_storage_enabled")
		mem := memstore.New()
		return &storage{
			lookups:  mem.LookupRepository(),
			releases: mem.ReleaseRepository(),
			tx:       mem,
			close:    func() {},
		}, nil
	}

	pool, err := pgstore.NewPool(ctx, cfg.DatabaseURL, log)
	if err != nil {
		return nil, err
	}

	if cfg.RunMigrations {
		if err := migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log); err != nil {
			pool.Close()
			return nil, err
		}
	}

	return &storage{
		lookups:  lookup.NewPostgresRepository(pool),
		releases: release.NewPostgresRepository(pool),
		tx:       pgstore.NewTxManager(pool),
		ping:     func(ctx context.Context) error { return pgstore.Ping(ctx, pool) },
		close: func() {
			log.Info("closing_postgres_pool")
			pool.Close()
		},
	}, nil
}

func closeRedis(log *slog.Logger, client *goredis.Client) {
	log.Info("closing_redis_client")
	if err := client.Close(); err != nil {
		log.Error("redis_close_error", slog.Any("error", err))
	}
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, step string) {
	if err != nil {
		log.Error("startup_failure",
			slog.String("step", step),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
