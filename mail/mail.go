package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// Message is a plain-text email handed to a [Transport].
type Message struct {
	To      string
	Subject string
	Body    string
}

// Transport delivers a single message. Implementations must be safe for
// concurrent use; the [Dispatcher] calls Send from its worker goroutine.
type Transport interface {
	Send(ctx context.Context, msg Message) error
}

// FuncTransport adapts a function into a [Transport]. Useful in tests and
// for callers with an existing mail client.
type FuncTransport func(ctx context.Context, msg Message) error

func (f FuncTransport) Send(ctx context.Context, msg Message) error {
	return f(ctx, msg)
}

// SMTPTransport sends messages over a plain SMTP endpoint.
//
// SMTPTransport instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SMTPTransport struct {
	Addr string // host:port
	From string
	Auth smtp.Auth
}

func (t *SMTPTransport) Send(_ context.Context, msg Message) error {
	if t.Addr == "" || t.From == "" {
		return fmt.Errorf("smtp transport not configured")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", t.From)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.Body)

	return smtp.SendMail(t.Addr, t.Auth, t.From, []string{msg.To}, []byte(b.String()))
}
