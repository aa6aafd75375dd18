// Package mailer delivers the marketplace's fire-and-forget notification
// emails over SMTP.
package mailer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wneessen/go-mail"
)

// Mailer implements engine.Notifier over an SMTP relay.
type Mailer struct {
	client *mail.Client
	from   string
}

func New(host string, port int, username, password, from string) (*Mailer, error) {
	const op = "NewMailer"
	client, err := mail.NewClient(host,
		mail.WithPort(port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(username),
		mail.WithPassword(password),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	)
	if err != nil {
		return nil, fmt.Errorf("[%s] fail to create SMTP client, err=%w", op, err)
	}
	return &Mailer{client: client, from: from}, nil
}

func (m *Mailer) Send(ctx context.Context, to, subject, body string) error {
	const op = "Send"
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("[%s] invalid sender address, err=%w", op, err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("[%s] invalid recipient address, err=%w", op, err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)
	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("[%s] fail to send mail, err=%w", op, err)
	}
	return nil
}

// LogNotifier stands in when no SMTP relay is configured: every message
// is logged and dropped.
type LogNotifier struct{}

func (LogNotifier) Send(ctx context.Context, to, subject, body string) error {
	slog.Info("Drop notification (SMTP not configured)",
		slog.String("to", to),
		slog.String("subject", subject))
	return nil
}
