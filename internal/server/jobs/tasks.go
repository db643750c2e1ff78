// Package jobs moves email delivery off the request path: the API process
// enqueues tasks on Redis through asynq and the worker process drains them.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/yapplr/yapplr/internal/logging"
	"github.com/yapplr/yapplr/internal/server/mail"
)

const (
	QueueDefault      = "default"
	TaskTypeSendEmail = "mail:send"
)

// SendEmailPayload is the JSON body of a TaskTypeSendEmail task.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
	Text    string `json:"text,omitempty"`
}

func payloadFromMessage(m mail.Message) SendEmailPayload {
	return SendEmailPayload{To: m.To, Subject: m.Subject, HTML: m.HTML, Text: m.Text}
}

func (p SendEmailPayload) message() mail.Message {
	return mail.Message{To: p.To, Subject: p.Subject, HTML: p.HTML, Text: p.Text}
}

func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data), nil
}

// MailHandler delivers queued emails through a concrete provider.
type MailHandler struct {
	sender mail.Sender
	log    logging.Logger
}

func NewMailHandler(sender mail.Sender, log logging.Logger) *MailHandler {
	return &MailHandler{sender: sender, log: log}
}

// ProcessTask implements asynq.Handler. Malformed payloads are dropped;
// delivery errors are returned so asynq retries them.
func (h *MailHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var p SendEmailPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		h.log.Error(ctx, "dropping malformed email task", "error", err)
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}
	if p.To == "" {
		h.log.Error(ctx, "dropping email task without recipient")
		return fmt.Errorf("empty recipient: %w", asynq.SkipRetry)
	}
	if err := h.sender.Send(ctx, p.message()); err != nil {
		h.log.Warn(ctx, "email delivery failed", "subject", p.Subject, "error", err)
		return err
	}
	h.log.Info(ctx, "email delivered", "subject", p.Subject)
	return nil
}
