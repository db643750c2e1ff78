package mail

import (
	"context"
	"net"
	"net/smtp"
	"strconv"

	"github.com/jordan-wright/email"

	"github.com/yapplr/yapplr/internal/server/config"
)

// SMTPSender delivers through an SMTP relay using PLAIN auth when a
// username is configured.
type SMTPSender struct {
	from     string
	addr     string
	auth     smtp.Auth
	sendMail func(e *email.Email, addr string, a smtp.Auth) error
}

func NewSMTPSender(cfg config.MailConfig) *SMTPSender {
	var auth smtp.Auth
	if cfg.SMTPUsername != "" {
		auth = smtp.PlainAuth("", cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPHost)
	}
	return &SMTPSender{
		from: cfg.From,
		addr: net.JoinHostPort(cfg.SMTPHost, strconv.Itoa(cfg.SMTPPort)),
		auth: auth,
		sendMail: func(e *email.Email, addr string, a smtp.Auth) error {
			return e.Send(addr, a)
		},
	}
}

// Send ignores ctx; net/smtp has no context support.
func (s *SMTPSender) Send(_ context.Context, msg Message) error {
	e := email.NewEmail()
	e.From = s.from
	e.To = []string{msg.To}
	e.Subject = msg.Subject
	e.HTML = []byte(msg.HTML)
	if msg.Text != "" {
		e.Text = []byte(msg.Text)
	}
	return s.sendMail(e, s.addr, s.auth)
}
