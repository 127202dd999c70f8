// Package mail is the outbound-mail transport the notifier uses. Delivery is
// best-effort; callers log failures and move on.
package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/rs/zerolog"
)

type Message struct {
	To       string
	Subject  string
	HTMLBody string
}

type Mailer interface {
	Send(ctx context.Context, m Message) error
}

// SMTPMailer delivers through a plain SMTP relay.
type SMTPMailer struct {
	Addr string // host:port
	From string
}

func (s *SMTPMailer) Send(_ context.Context, m Message) error {
	if m.To == "" {
		return fmt.Errorf("mail: empty recipient")
	}
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.From)
	fmt.Fprintf(&b, "To: %s\r\n", m.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", m.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(m.HTMLBody)
	if err := smtp.SendMail(s.Addr, nil, s.From, []string{m.To}, []byte(b.String())); err != nil {
		return fmt.Errorf("mail: send to %s: %w", m.To, err)
	}
	return nil
}

// LogMailer only logs the message. Used when no SMTP relay is configured.
type LogMailer struct {
	Log zerolog.Logger
}

func (l *LogMailer) Send(_ context.Context, m Message) error {
	l.Log.Info().Str("to", m.To).Str("subject", m.Subject).Msg("mail (not sent, no relay configured)")
	return nil
}
