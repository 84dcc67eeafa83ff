package mail

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	gomail "github.com/wneessen/go-mail"
)

const smtpsPort = 465

type deliverFunc func(ctx context.Context, client *gomail.Client, msg *gomail.Msg) error

func dialAndSend(ctx context.Context, client *gomail.Client, msg *gomail.Msg) error {
	return client.DialAndSendWithContext(ctx, msg)
}

// SMTPTransport submits mail to an authenticated relay. Port 465 uses implicit TLS,
// any other port requires STARTTLS.
type SMTPTransport struct {
	host     string
	port     int
	username string
	password string
	deliver  deliverFunc
}

func NewSMTP(host string, port int, username, password string) *SMTPTransport {
	if host == "" {
		host = "smtp.gmail.com"
	}
	if port == 0 {
		port = 587
	}
	return &SMTPTransport{
		host:     host,
		port:     port,
		username: username,
		password: password,
		deliver:  dialAndSend,
	}
}

func (t *SMTPTransport) Name() string { return string(ProviderSMTP) }

func (t *SMTPTransport) client() (*gomail.Client, error) {
	opts := []gomail.Option{
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(t.username),
		gomail.WithPassword(t.password),
	}
	if t.port == smtpsPort {
		opts = append(opts, gomail.WithSSLPort(false))
	} else {
		opts = append(opts, gomail.WithTLSPortPolicy(gomail.TLSMandatory))
	}
	// Explicit port last so the TLS options cannot move it.
	opts = append(opts, gomail.WithPort(t.port))
	return gomail.NewClient(t.host, opts...)
}

func (t *SMTPTransport) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	m, err := NewMsg(msg)
	if err != nil {
		return fmt.Errorf("failed to build email: %w", err)
	}
	client, err := t.client()
	if err != nil {
		return fmt.Errorf("failed to configure SMTP client: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", t.host, t.port)
	if err := t.deliver(ctx, client, m); err != nil {
		return fmt.Errorf("failed to send email via %s: %w", addr, err)
	}

	log.Debug().
		Str("relay", addr).
		Int("attachments", len(msg.Attachments)).
		Msg("SMTP relay accepted message")
	return nil
}
