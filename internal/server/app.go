// Package server wires configuration, storage, mail delivery and the
// HTTP/gRPC front ends of the auth server and runs them until shutdown.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"

	"github.com/yapplr/yapplr/internal/dbx"
	"github.com/yapplr/yapplr/internal/logging"
	"github.com/yapplr/yapplr/internal/server/auth"
	"github.com/yapplr/yapplr/internal/server/config"
	gs "github.com/yapplr/yapplr/internal/server/grpc"
	"github.com/yapplr/yapplr/internal/server/httpapi"
	"github.com/yapplr/yapplr/internal/server/jobs"
	"github.com/yapplr/yapplr/internal/server/mail"
	"github.com/yapplr/yapplr/internal/server/metrics"
	"github.com/yapplr/yapplr/internal/server/repositories/repomanager"
	"github.com/yapplr/yapplr/internal/server/services"
	"github.com/yapplr/yapplr/internal/server/throttle"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	redis   *redis.Client
	jobs    *jobs.Client
	metrics *metrics.Metrics
	tokens  *auth.TokenIssuer
	auth    *services.AuthService
}

// NewApp validates c, connects to Postgres, applies migrations and builds
// the services. A short signing key fails with common.ErrMisconfiguredSecret.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	tokens, err := auth.NewTokenIssuer(auth.TokenSettings{
		SecretKey: c.SecretKey,
		Issuer:    c.Issuer,
		Audience:  c.Audience,
		Validity:  c.SessionTokenValidity,
	})
	if err != nil {
		return nil, err
	}

	db, err := openDB(ctx, c.DatabaseDSN, retry.WithMaxRetries(8, retry.NewExponential(250*time.Millisecond)))
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	app := &App{
		config:  c,
		logger:  logger,
		db:      db,
		metrics: metrics.New(db),
		tokens:  tokens,
	}

	var limiter services.LoginLimiter
	if c.RedisAddr != "" {
		app.redis = redis.NewClient(&redis.Options{Addr: c.RedisAddr, DB: c.RedisDB})
		if err := app.redis.Ping(ctx).Err(); err != nil {
			logger.Warn(ctx, "redis ping", "error", err)
		}
		limiter = throttle.NewLoginThrottle(app.redis, throttle.Settings{
			MaxAttempts: c.LoginMaxAttempts,
			Window:      c.LoginWindow,
			Lockout:     c.LoginLockout,
		})
		app.jobs = jobs.NewClient(asynq.RedisClientOpt{Addr: c.RedisAddr, DB: c.RedisDB})
	}

	mailer, err := app.newMailer(ctx)
	if err != nil {
		app.close()
		return nil, err
	}

	app.auth, err = services.NewAuthService(services.AuthDeps{
		DB:           db,
		Tx:           dbx.NewSQLTransactor(db),
		Repos:        rm,
		Tokens:       tokens,
		Hasher:       auth.NewPasswordHasher(c.BcryptCost),
		Mailer:       mailer,
		Limiter:      limiter,
		Metrics:      app.metrics,
		Logger:       logger,
		ResetLinkURL: c.ResetLinkURL,
	})
	if err != nil {
		app.close()
		return nil, err
	}
	return app, nil
}

// newMailer queues email for the worker when Redis is configured and
// otherwise delivers in-process.
func (app *App) newMailer(ctx context.Context) (mail.Sender, error) {
	if app.jobs != nil {
		return mail.NewQueueSender(app.jobs), nil
	}
	return mail.NewSender(ctx, app.config.Mail, app.logger)
}

// openDB opens a pgx-backed *sql.DB and pings it until it answers or the
// backoff gives up.
func openDB(ctx context.Context, dsn string, b retry.Backoff) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := pingDB(ctx, db, b); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func pingDB(ctx context.Context, db *sql.DB, b retry.Backoff) error {
	return retry.Do(ctx, b, func(ctx context.Context) error {
		if err := db.PingContext(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
}

// Run serves HTTP and gRPC until SIGINT/SIGTERM or a server failure.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	defer app.close()

	app.logger.Info(ctx, "Starting app...")

	httpSrv := &http.Server{
		Addr: app.config.HTTPAddr,
		Handler: httpapi.NewRouter(httpapi.RouterConfig{
			Auth:            app.auth,
			Tokens:          app.tokens,
			Logger:          app.logger,
			Metrics:         app.metrics,
			Ping:            app.db.PingContext,
			ResetLinkURL:    app.config.ResetLinkURL,
			RequestTimeout:  app.config.RequestTimeout,
			RateLimitPerMin: app.config.RateLimitPerMin,
			Production:      app.config.Production,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}
	grpcSrv := gs.NewGRPCServer(app.config.GRPCAddr, app.logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		app.logger.Info(gctx, "Starting HTTP server", "address", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return grpcSrv.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		grpcSrv.SetServing(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), app.config.ShutdownTimeout)
		defer cancel()
		app.logger.Info(shutdownCtx, "Stopping HTTP server...")
		return httpSrv.Shutdown(shutdownCtx)
	})
	grpcSrv.SetServing(true)

	return g.Wait()
}

func (app *App) close() {
	if app.jobs != nil {
		_ = app.jobs.Close()
	}
	if app.redis != nil {
		_ = app.redis.Close()
	}
	if app.db != nil {
		_ = app.db.Close()
	}
}
