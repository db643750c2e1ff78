// Package mail delivers transactional email through a pluggable provider.
package mail

import (
	"context"
	"fmt"

	"github.com/yapplr/yapplr/internal/logging"
	"github.com/yapplr/yapplr/internal/server/config"
)

// Message is a single outgoing email. Text is optional.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Sender delivers a Message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// NewSender builds the provider selected by cfg.Provider.
func NewSender(ctx context.Context, cfg config.MailConfig, log logging.Logger) (Sender, error) {
	switch cfg.Provider {
	case "", "console":
		return NewConsoleSender(log), nil
	case "smtp":
		return NewSMTPSender(cfg), nil
	case "ses":
		return NewSESSender(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown mail provider %q", cfg.Provider)
	}
}

// ConsoleSender logs that a message would have been sent. Bodies are left
// out because reset emails carry live tokens.
type ConsoleSender struct {
	log logging.Logger
}

func NewConsoleSender(log logging.Logger) *ConsoleSender {
	return &ConsoleSender{log: log}
}

func (s *ConsoleSender) Send(ctx context.Context, msg Message) error {
	s.log.Info(ctx, "email (console)", "to", msg.To, "subject", msg.Subject, "bytes", len(msg.HTML)+len(msg.Text))
	return nil
}
