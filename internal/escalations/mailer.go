package escalations

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/TThanhhDatt/agent-bot/pkg/config"
)

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPMailer sends plain-text escalation notices through an authenticated SMTP relay.
type SMTPMailer struct {
	addr      string
	auth      smtp.Auth
	from      string
	recipient string
	send      sendMailFunc
}

// NewSMTPMailer returns nil when the SMTP configuration is incomplete.
func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	if !cfg.Complete() {
		return nil
	}
	from := cfg.From
	if from == "" {
		from = cfg.User
	}
	return &SMTPMailer{
		addr:      net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		auth:      smtp.PlainAuth("", cfg.User, cfg.Password, cfg.Host),
		from:      from,
		recipient: cfg.Recipient,
		send:      smtp.SendMail,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := buildMessage(m.from, m.recipient, subject, body)
	if err := m.send(m.addr, m.auth, m.from, []string{m.recipient}, msg); err != nil {
		return fmt.Errorf("send escalation mail: %w", err)
	}
	return nil
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", sanitizeHeader(subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return []byte(b.String())
}

func sanitizeHeader(value string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(value)
}
