package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aussiebroadwan/medoffice/internal/auth/domain"
	httpapi "github.com/aussiebroadwan/medoffice/internal/auth/http"
	"github.com/aussiebroadwan/medoffice/internal/auth/service"
	"github.com/aussiebroadwan/medoffice/internal/auth/store"
	"github.com/aussiebroadwan/medoffice/internal/auth/store/drivers/redis"
	"github.com/aussiebroadwan/medoffice/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/medoffice/pkg/cryptox"
	"github.com/aussiebroadwan/medoffice/pkg/jwtx"
	"github.com/aussiebroadwan/medoffice/pkg/slogx"
	goredis "github.com/redis/go-redis/v9"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the auth service application with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db         store.Store
	keyManager *jwtx.KeyManager
	redis      *goredis.Client // Optional: nil without REDIS_ADDR
	limiter    *redis.AttemptLimiter

	// Services
	authService         *service.AuthService
	accountService      *service.AccountService
	bootstrapService    *service.BootstrapService
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "auth-service",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	// Set pepper path for password hashing
	cryptox.SetPepperPath(app.cfg.PepperFile)

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	keyManager, err := InitAuthKeys(app.cfg, app.logger)
	if err != nil {
		_ = app.db.Close()
		return nil, fmt.Errorf("failed to initialize JWT keys: %w", err)
	}
	app.keyManager = keyManager

	if err := app.initLimiter(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	if err := app.initServices(); err != nil {
		app.closeBackends()
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	// Start housekeeping service
	app.housekeepingService.Start()

	app.logger.Info("auth service starting", "port", app.cfg.Port, "version", BuildVersion)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		// Perform graceful shutdown
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	// Shutdown the HTTP server
	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	// Stop the housekeeping service
	app.housekeepingService.Stop()

	if err := app.closeBackends(); err != nil {
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

func (app *Application) closeBackends() error {
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("error closing redis", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}
	return nil
}

// initDatabase initializes the database and applies migrations
func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	version, _, err := db.SchemaVersion()
	if err != nil {
		_ = db.Close()
		return err
	}
	app.logger.Info("database migrations applied", "schema_version", version)
	return nil
}

// initLimiter connects to redis when configured. Without it failed second
// factor attempts are only throttled by the per-IP rate limits.
func (app *Application) initLimiter() error {
	if app.cfg.RedisAddr == "" {
		app.logger.Warn("REDIS_ADDR not set, second factor attempt limiter disabled")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rdb, err := redis.Dial(ctx, redis.Options{
		Addr:     app.cfg.RedisAddr,
		Password: app.cfg.RedisPassword,
		DB:       app.cfg.RedisDB,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}

	app.redis = rdb
	app.limiter = redis.NewAttemptLimiter(rdb)
	app.logger.Info("second factor attempt limiter enabled",
		"addr", app.cfg.RedisAddr,
		"max_attempts", app.limiter.MaxAttempts,
		"cooldown", app.limiter.Cooldown,
	)
	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices() error {
	roles := app.cfg.SecondFactorRoles
	if strings.EqualFold(strings.TrimSpace(roles), "none") {
		roles = ""
	}
	policy, err := domain.ParseRolePolicy(roles)
	if err != nil {
		return fmt.Errorf("invalid AUTH_2FA_ROLES: %w", err)
	}

	bypass := app.cfg.EffectiveBypassCode()
	if app.cfg.BypassCode != "" && bypass == "" {
		app.logger.Warn("AUTH_2FA_BYPASS_CODE ignored in production", "env", app.cfg.Env)
	} else if bypass != "" {
		app.logger.Warn("second factor bypass code enabled", "env", app.cfg.Env)
	}

	app.authService = &service.AuthService{
		Store:         app.db,
		Tokens:        app.keyManager,
		Issuer:        app.cfg.Issuer,
		Policy:        policy,
		Skew:          app.cfg.TOTPSkew,
		BypassCode:    bypass,
		ReauthOnReset: app.cfg.ReauthOnReset,
		SessionTTL:    app.cfg.SessionTTL,
		PendingTTL:    app.cfg.PendingTTL,
	}
	if app.limiter != nil {
		app.authService.Limiter = app.limiter
	}

	app.accountService = &service.AccountService{Store: app.db}
	app.bootstrapService = &service.BootstrapService{
		Store: app.db,
		Token: app.cfg.BootstrapToken,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
		app.cfg.BackupCodeRetention,
	)
	return nil
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.keyManager.KeySet,
		app.keyManager.Verifier,
		app.cfg.Issuer,
		BuildVersion,
		app.db,
		app.logger,
	)

	// Wire services to router
	router.AuthService = app.authService
	router.AccountService = app.accountService
	router.BootstrapService = app.bootstrapService
	if app.limiter != nil {
		router.Limiter = app.limiter // nil interface keeps readyz from probing
	}
	router.ApplyRoutes()

	app.router = router

	// Initialize HTTP server
	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
