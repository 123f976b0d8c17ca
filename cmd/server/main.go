package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"

	auth "github.com/goliatone/go-session-auth"
	"github.com/goliatone/go-session-auth/config"
	"github.com/goliatone/go-session-auth/limiter"
	"github.com/goliatone/go-session-auth/logging"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config *config.Config
	logger *logging.SlogLogger
	db     *bun.DB
	redis  *redis.Client
	repo   auth.RepositoryManager
	srv    router.Server[*fiber.App]
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	app, err := NewApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	errCh := make(chan error, 1)
	go func() {
		app.logger.Info("server listening", "addr", cfg.ListenAddr(), "env", cfg.Environment)
		errCh <- app.srv.Serve(cfg.ListenAddr())
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		app.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return app.srv.Shutdown(shutdownCtx)
	}
}

// NewApp wires storage, the auth core and the HTTP server
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	log := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	log.Debug("configuration loaded", "config", print.MaybePrettyJSON(cfg.Redacted()))

	db, err := auth.OpenDatabase(cfg.DatabaseURL, cfg.DBDebug)
	if err != nil {
		return nil, err
	}

	repo := auth.NewRepositoryManager(db, log)
	repo.MustValidate()

	if err := repo.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	tokens, err := auth.NewTokenService(
		[]byte(cfg.GetSigningKey()),
		cfg.GetTokenExpiration(),
		auth.WithTokenLogger(log),
	)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	auther := auth.NewAuthenticator(repo.Users(), tokens, cfg).
		WithLogger(log).
		WithPasswordHasher(auth.NewBcryptHasher(cfg.BcryptCost)).
		WithActivitySink(auth.LoggerActivitySink(log)).
		WithHashidIDs(cfg.UseHashidIDs)

	a := &App{
		config: cfg,
		logger: log,
		db:     db,
		repo:   repo,
	}

	if cfg.LoginThrottleEnabled() {
		throttle, client, err := limiter.NewFromURL(cfg.RedisURL, limiter.Config{
			MaxAttempts: cfg.LoginMaxAttempts,
			Cooldown:    cfg.LoginCooldown,
		})
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		a.redis = client
		auther.WithLoginThrottle(throttle)
	}

	resolver := auth.NewSessionResolver(tokens, repo.Users(), log)
	httpAuth := auth.NewHTTPAuthenticator(resolver, cfg).WithLogger(log)

	a.srv = newServer(cfg, log)
	auth.RegisterAuthRoutes(a.srv.Router().Group("/api/auth"),
		auth.WithAuther(auther),
		auth.WithHTTPAuthenticator(httpAuth),
		auth.WithControllerLogger(log),
	)

	return a, nil
}

func newServer(cfg *config.Config, log *logging.SlogLogger) router.Server[*fiber.App] {
	return router.NewFiberAdapter(func(*fiber.App) *fiber.App {
		app := fiber.New(fiber.Config{
			AppName:               "session-auth",
			DisableStartupMessage: true,
			ErrorHandler:          auth.NewFiberErrorHandler(log, cfg.IsDevelopment()),
		})

		app.Use(recover.New(recover.Config{EnableStackTrace: cfg.IsDevelopment()}))
		app.Use(logger.New())
		app.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.ClientURL,
			AllowCredentials: true,
		}))

		return app
	})
}

func (a *App) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("redis close error", "error", err)
		}
	}
	if err := a.db.Close(); err != nil {
		a.logger.Warn("database close error", "error", err)
	}
}
