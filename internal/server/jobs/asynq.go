package jobs

import (
	"context"
	"errors"

	"github.com/hibiken/asynq"

	"github.com/yapplr/yapplr/internal/logging"
	"github.com/yapplr/yapplr/internal/server/mail"
)

// Worker wraps the asynq server.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	log    logging.Logger
}

type WorkerConfig struct {
	RedisOpts   asynq.RedisClientOpt
	Concurrency int
	Sender      mail.Sender
	Logger      logging.Logger
}

func NewWorker(cfg WorkerConfig) *Worker {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 5
	}
	srv := asynq.NewServer(cfg.RedisOpts, asynq.Config{
		Concurrency: cfg.Concurrency,
		Queues:      map[string]int{QueueDefault: 1},
	})
	mux := asynq.NewServeMux()
	mux.Handle(TaskTypeSendEmail, NewMailHandler(cfg.Sender, cfg.Logger))
	return &Worker{server: srv, mux: mux, log: cfg.Logger}
}

// Run processes tasks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	if w == nil {
		return errors.New("worker: not configured")
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- w.server.Run(w.mux)
	}()
	select {
	case <-ctx.Done():
		w.log.Info(ctx, "worker shutting down")
		w.server.Shutdown()
		return nil
	case err := <-errCh:
		return err
	}
}

type taskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

// Client submits tasks to the queue.
type Client struct {
	client   taskEnqueuer
	maxRetry int
}

func NewClient(redisOpts asynq.RedisClientOpt) *Client {
	return &Client{client: asynq.NewClient(redisOpts), maxRetry: 5}
}

func (c *Client) EnqueueSendEmail(ctx context.Context, payload SendEmailPayload) (*asynq.TaskInfo, error) {
	task, err := NewSendEmailTask(payload)
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault), asynq.MaxRetry(c.maxRetry))
}

// EnqueueMail implements mail.Enqueuer.
func (c *Client) EnqueueMail(ctx context.Context, msg mail.Message) error {
	_, err := c.EnqueueSendEmail(ctx, payloadFromMessage(msg))
	return err
}

func (c *Client) Close() error {
	return c.client.Close()
}
