package server

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/yapplr/yapplr/internal/logging"
	"github.com/yapplr/yapplr/internal/server/config"
	"github.com/yapplr/yapplr/internal/server/jobs"
	"github.com/yapplr/yapplr/internal/server/mail"
)

// RunWorker drains the mail queue, delivering through the configured
// provider, until SIGINT/SIGTERM.
func RunWorker(ctx context.Context, c *config.Config) error {
	if c.RedisAddr == "" {
		return errors.New("worker needs a redis address")
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel).With("module", "worker")
	sender, err := mail.NewSender(ctx, c.Mail, logger)
	if err != nil {
		return err
	}

	w := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: c.RedisAddr, DB: c.RedisDB},
		Sender:    sender,
		Logger:    logger,
	})
	logger.Info(ctx, "Starting worker", "redis", c.RedisAddr, "provider", c.Mail.Provider)
	return w.Run(ctx)
}
