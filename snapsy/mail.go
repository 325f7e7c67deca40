// snapsy/mail.go
package snapsy

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"
)

// Mailer dispatches a persisted contact message. Delivery is best-effort:
// the saved record is the source of truth and a send failure is only logged.
type Mailer interface {
	SendContact(ctx context.Context, msg *ContactMessage) error
}

// SMTPMailer forwards contact messages to the site owner's inbox.
type SMTPMailer struct {
	host     string
	port     int
	username string
	password string
	from     string
	to       string
}

func NewSMTPMailer(host string, port int, username, password, from, to string) *SMTPMailer {
	return &SMTPMailer{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		to:       to,
	}
}

func (m *SMTPMailer) SendContact(ctx context.Context, msg *ContactMessage) error {
	mm := mail.NewMsg()
	if err := mm.From(m.from); err != nil {
		return fmt.Errorf("invalid from address: %w", err)
	}
	if err := mm.To(m.to); err != nil {
		return fmt.Errorf("invalid to address: %w", err)
	}
	mm.Subject("New contact message from " + msg.Name)
	mm.SetBodyString(mail.TypeTextPlain, fmt.Sprintf(
		"Name: %s\nEmail: %s\nReceived: %s\n\n%s\n",
		msg.Name, msg.Email, msg.CreatedAt.Format("2006-01-02 15:04:05 MST"), msg.Message,
	))

	client, err := mail.NewClient(m.host,
		mail.WithPort(m.port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.username),
		mail.WithPassword(m.password),
	)
	if err != nil {
		return fmt.Errorf("failed to create mail client: %w", err)
	}
	return client.DialAndSendWithContext(ctx, mm)
}

// NopMailer is used when SMTP is not configured.
type NopMailer struct{}

func (NopMailer) SendContact(context.Context, *ContactMessage) error { return nil }
