// Package mail delivers the out-of-band links behind email verification, magic link and password reset.
package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/telecare/auth-server/internal/config"
)

type Message struct {
	To      string
	Subject string
	Body    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPMailer sends plain text mail with PLAIN auth.
type SMTPMailer struct {
	addr     string
	from     string
	auth     smtp.Auth
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

var _ Mailer = (*SMTPMailer)(nil)

func NewSMTPMailer(cfg config.EnvConfig) *SMTPMailer {
	return &SMTPMailer{
		addr:     fmt.Sprintf("%s:%s", cfg.GetSmtpHost(), cfg.GetSmtpPort()),
		from:     cfg.GetSmtpAccount(),
		auth:     smtp.PlainAuth("", cfg.GetSmtpAccount(), cfg.GetSmtpPassword(), cfg.GetSmtpHost()),
		sendMail: smtp.SendMail,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := m.sendMail(m.addr, m.auth, m.from, []string{msg.To}, m.render(msg)); err != nil {
		return errors.Wrapf(err, "[SMTPMailer.Send] to %s", msg.To)
	}
	log.Info().Str("to", msg.To).Str("subject", msg.Subject).Msg("mail sent")
	return nil
}

func (m *SMTPMailer) render(msg Message) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n\r\n")
	b.WriteString(msg.Body)
	return []byte(b.String())
}

// LogMailer only logs messages. Used in DEV when no SMTP host is configured.
type LogMailer struct{}

var _ Mailer = LogMailer{}

func (LogMailer) Send(_ context.Context, msg Message) error {
	log.Info().Str("to", msg.To).Str("subject", msg.Subject).Str("body", msg.Body).Msg("mail (not sent)")
	return nil
}
