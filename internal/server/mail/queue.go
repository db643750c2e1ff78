package mail

import "context"

// Enqueuer hands a message to a background delivery queue.
type Enqueuer interface {
	EnqueueMail(ctx context.Context, msg Message) error
}

// QueueSender defers delivery to a worker process. Send succeeds once the
// message is queued.
type QueueSender struct {
	q Enqueuer
}

func NewQueueSender(q Enqueuer) *QueueSender {
	return &QueueSender{q: q}
}

func (s *QueueSender) Send(ctx context.Context, msg Message) error {
	return s.q.EnqueueMail(ctx, msg)
}
