package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/ahmetcoskunkizilkaya/pullup-club-backend/internal/billing"
	"github.com/ahmetcoskunkizilkaya/pullup-club-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/pullup-club-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/pullup-club-backend/internal/logging"
	"github.com/ahmetcoskunkizilkaya/pullup-club-backend/internal/ratelimit"
	"github.com/ahmetcoskunkizilkaya/pullup-club-backend/internal/repository"
	"github.com/ahmetcoskunkizilkaya/pullup-club-backend/internal/repository/memory"
	"github.com/ahmetcoskunkizilkaya/pullup-club-backend/internal/server"
	"github.com/gofiber/fiber/v2"
)

func main() {
	// Structured logging (JSON to stdout)
	logging.Setup()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	var (
		stores       server.Stores
		pgLogHandler *logging.PGHandler
		cleanupDone  = make(chan struct{})
	)

	if cfg.StoreDriver == config.StoreMemory {
		slog.Warn("using in-memory store, data is lost on restart")
		mem := memory.NewStore()
		stores = server.Stores{
			Users:         mem.Users,
			Profiles:      mem.Profiles,
			Submissions:   mem.Submissions,
			Customers:     mem.Customers,
			Subscriptions: mem.Subscriptions,
		}
	} else {
		if err := database.Connect(cfg); err != nil {
			slog.Error("database connection failed", "error", err)
			os.Exit(1)
		}
		if err := database.Migrate(); err != nil {
			slog.Error("migration failed", "error", err)
			os.Exit(1)
		}

		// PostgreSQL log handler (ERROR+ async batch)
		pgLogHandler = logging.NewPGHandler(database.DB)
		slog.SetDefault(slog.New(logging.NewMultiHandler(
			logging.NewJSONHandler(os.Stdout, slog.LevelInfo),
			pgLogHandler,
		)))

		// Log cleanup (30-day retention)
		logging.StartCleanup(database.DB, cleanupDone)

		stores = server.Stores{
			Users:         repository.NewUserRepository(database.DB),
			Profiles:      repository.NewProfileRepository(database.DB),
			Submissions:   repository.NewSubmissionRepository(database.DB),
			Customers:     repository.NewCustomerRepository(database.DB),
			Subscriptions: repository.NewSubscriptionRepository(database.DB),
			Ping:          database.Ping,
		}
	}

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	deps := server.Deps{
		Stores:    stores,
		Billing:   billing.NewStripeProvider(cfg.StripeSecretKey, cfg.StripeWebhookSecret),
		AccessLog: true,
	}

	var limiterStorage *ratelimit.RedisStorage
	if cfg.RedisURL != "" {
		storage, err := ratelimit.NewRedisStorage(cfg.RedisURL)
		if err != nil {
			slog.Error("redis unavailable, rate limits stay per instance", "error", err)
		} else {
			limiterStorage = storage
			deps.LimiterStorage = storage
		}
	}

	app, err := server.New(cfg, deps)
	if err != nil {
		slog.Error("server setup failed", "error", err)
		os.Exit(1)
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port, "store", cfg.StoreDriver, "require_subscription", cfg.RequireSubscription)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	shutdown(app, cleanupDone, pgLogHandler, limiterStorage)
	slog.Info("server stopped")
}

func shutdown(app *fiber.App, cleanupDone chan struct{}, pgLogHandler *logging.PGHandler, limiterStorage *ratelimit.RedisStorage) {
	close(cleanupDone)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	if pgLogHandler != nil {
		pgLogHandler.Stop()
	}
	sentry.Flush(2 * time.Second)

	if limiterStorage != nil {
		if err := limiterStorage.Close(); err != nil {
			slog.Error("redis close error", "error", err)
		}
	}

	// Close database connections
	if database.DB != nil {
		if sqlDB, err := database.DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				slog.Error("database close error", "error", err)
			}
		}
	}
}
