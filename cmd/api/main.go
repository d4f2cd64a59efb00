// CanineKind | 2026
// main.go

package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/caninekind/portal-api/internal/account"
	"github.com/caninekind/portal-api/internal/admin"
	"github.com/caninekind/portal-api/internal/catalog"
	"github.com/caninekind/portal-api/internal/config"
	"github.com/caninekind/portal-api/internal/core"
	"github.com/caninekind/portal-api/internal/events"
	"github.com/caninekind/portal-api/internal/forms"
	"github.com/caninekind/portal-api/internal/health"
	"github.com/caninekind/portal-api/internal/identity"
	"github.com/caninekind/portal-api/internal/invite"
	"github.com/caninekind/portal-api/internal/middleware"
	"github.com/caninekind/portal-api/internal/progress"
	"github.com/caninekind/portal-api/internal/server"
	"github.com/caninekind/portal-api/migrations"
)

const (
	drainDelay = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	// Local development convenience; production injects real env vars.
	_ = godotenv.Load()

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	if cfg.Database.Migrate {
		if err := migrations.Up(db.DB.DB); err != nil {
			return err
		}
		logger.Info("migrations applied")
	}

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	jwtManager, err := identity.NewJWTManager(cfg.JWT)
	if err != nil {
		return err
	}
	logger.Info("JWT manager initialized",
		"algorithm", "ES256",
		"key_id", jwtManager.GetKeyID(),
	)

	observer := events.NewLogObserver(logger)

	accountRepo := account.NewRepository(db.DB)
	accountSvc := account.NewService(accountRepo, observer)
	accountHandler := account.NewHandler(accountSvc)

	catalogRepo := catalog.NewRepository(db.DB)
	catalogSvc := catalog.NewService(catalogRepo)
	catalogHandler := catalog.NewHandler(catalogSvc)

	progressRepo := progress.NewRepository(db)
	progressSvc := progress.NewService(
		progressRepo,
		catalogSvc,
		accountSvc,
		observer,
	)
	progressHandler := progress.NewHandler(progressSvc, accountSvc)

	formsRepo := forms.NewRepository(db.DB)
	formsSvc := forms.NewService(formsRepo)
	formsHandler := forms.NewHandler(formsSvc, accountSvc)

	var mailer invite.Mailer
	if cfg.Invite.ConsoleMailer {
		mailer = invite.NewConsoleMailer(logger)
	} else {
		mailer = invite.NewResendMailer(
			cfg.Invite.ResendAPIKey,
			cfg.Invite.FromEmail,
		)
	}

	inviteRepo := invite.NewRepository(db.DB)
	inviteSvc := invite.NewService(
		inviteRepo,
		mailer,
		observer,
		cfg.Invite.Expiry,
		cfg.App.PortalURL,
	)
	inviteHandler := invite.NewHandler(inviteSvc)

	healthHandler := health.NewHandler(db, redis)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		DBStats:     db.Stats,
		RedisStats:  redis.PoolStats,
		DBPing:      db.Ping,
		RedisPing:   redis.Ping,
		Accounts:    accountRepo,
		Invitations: inviteSvc,
	})

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
	router.Use(
		middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
			Limit: middleware.PerMinute(
				cfg.RateLimit.Requests,
				cfg.RateLimit.Burst,
			),
			FailOpen: true,
		}).Handler,
	)
	router.Use(middleware.SecurityHeaders(cfg.App.Environment == "production"))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)

	router.Get("/.well-known/jwks.json", jwtManager.GetJWKSHandler())

	authenticator := middleware.Authenticator(jwtManager)
	adminOnly := middleware.RequireAdmin(accountSvc)

	router.Route("/v1", func(r chi.Router) {
		accountHandler.RegisterRoutes(r, authenticator)
		accountHandler.RegisterAdminRoutes(r, authenticator, adminOnly)

		catalogHandler.RegisterRoutes(r, authenticator)
		catalogHandler.RegisterAdminRoutes(r, authenticator, adminOnly)

		progressHandler.RegisterRoutes(r, authenticator)
		progressHandler.RegisterAdminRoutes(r, authenticator, adminOnly)

		formsHandler.RegisterRoutes(r, authenticator)
		formsHandler.RegisterAdminRoutes(r, authenticator, adminOnly)

		inviteHandler.RegisterRoutes(r, authenticator)
		inviteHandler.RegisterAdminRoutes(r, authenticator, adminOnly)

		adminHandler.RegisterRoutes(r, authenticator, adminOnly)
	})

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
