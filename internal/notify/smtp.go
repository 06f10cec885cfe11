package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/rs/zerolog"
)

// SMTPTransport delivers notifications over plain SMTP.
type SMTPTransport struct {
	addr     string // host:port
	from     string
	username string
	password string
}

func NewSMTPTransport(addr, from, username, password string) *SMTPTransport {
	return &SMTPTransport{
		addr:     addr,
		from:     from,
		username: username,
		password: password,
	}
}

// Send honors ctx by running the blocking SMTP exchange in a goroutine
// and abandoning it on deadline; the dispatcher records the expiry as
// a failed attempt.
func (t *SMTPTransport) Send(ctx context.Context, recipient, subject, body string) error {
	msg := buildMessage(t.from, recipient, subject, body)

	var auth smtp.Auth
	if t.username != "" {
		host := t.addr
		if i := strings.IndexByte(host, ':'); i >= 0 {
			host = host[:i]
		}
		auth = smtp.PlainAuth("", t.username, t.password, host)
	}

	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(t.addr, auth, t.from, []string{recipient}, msg)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("smtp send: %w", ctx.Err())
	}
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}

// LogTransport is the dev fallback when no SMTP server is configured:
// messages land in the process log instead of a mailbox.
type LogTransport struct {
	log zerolog.Logger
}

func NewLogTransport(log zerolog.Logger) *LogTransport {
	return &LogTransport{log: log}
}

func (t *LogTransport) Send(_ context.Context, recipient, subject, _ string) error {
	t.log.Info().
		Str("recipient", recipient).
		Str("subject", subject).
		Msg("notification delivered to log transport")
	return nil
}
