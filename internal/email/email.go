// Package email sends transactional mail through SendGrid, or only logs it
// when no API key is configured.
package email

import (
	"context"
	"fmt"
	"html"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

// Message is a single outgoing email.
type Message struct {
	To      string
	ToName  string
	ReplyTo string
	Subject string
	Text    string
	HTML    string
}

// Mailer delivers messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SendGridMailer delivers through the SendGrid v3 mail API.
type SendGridMailer struct {
	client   *sendgrid.Client
	from     string
	fromName string
}

// NewSendGridMailer returns a mailer sending as from.
func NewSendGridMailer(apiKey, from string) *SendGridMailer {
	return &SendGridMailer{client: sendgrid.NewSendClient(apiKey), from: from, fromName: "Nexus TechHub"}
}

// Send implements Mailer.
func (m *SendGridMailer) Send(ctx context.Context, msg Message) error {
	resp, err := m.client.SendWithContext(ctx, buildMail(m.fromName, m.from, msg))
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid: status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

func buildMail(fromName, from string, msg Message) *mail.SGMailV3 {
	text := msg.Text
	if text == "" {
		text = msg.Subject
	}
	body := msg.HTML
	if body == "" {
		body = "<pre>" + html.EscapeString(text) + "</pre>"
	}
	m := mail.NewSingleEmail(
		mail.NewEmail(fromName, from),
		msg.Subject,
		mail.NewEmail(msg.ToName, msg.To),
		text,
		body,
	)
	if msg.ReplyTo != "" {
		m.SetReplyTo(mail.NewEmail("", msg.ReplyTo))
	}
	return m
}

// LogMailer writes messages to the log instead of sending them.
type LogMailer struct {
	log *zap.Logger
}

// NewLogMailer returns a LogMailer.
func NewLogMailer(log *zap.Logger) *LogMailer {
	return &LogMailer{log: log}
}

// Send implements Mailer.
func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	m.log.Info("email (not sent, no SENDGRID_API_KEY)",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
	)
	return nil
}
