package mail

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendGridTransport sends through the SendGrid v3 mail API.
type SendGridTransport struct {
	client *sendgrid.Client
}

func NewSendGrid(apiKey string) *SendGridTransport {
	return &SendGridTransport{client: sendgrid.NewSendClient(apiKey)}
}

func (t *SendGridTransport) Name() string { return string(ProviderSendGrid) }

func (t *SendGridTransport) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	v3, err := buildSendGridMail(msg)
	if err != nil {
		return err
	}

	resp, err := t.client.SendWithContext(ctx, v3)
	if err != nil {
		return fmt.Errorf("failed to send email via SendGrid: %w", err)
	}
	if err := checkSendGridResponse(resp); err != nil {
		return err
	}

	log.Debug().
		Int("status", resp.StatusCode).
		Str("message_id", firstHeader(resp, "X-Message-Id")).
		Msg("SendGrid accepted message")
	return nil
}

func buildSendGridMail(msg Message) (*sgmail.SGMailV3, error) {
	m := sgmail.NewV3Mail()
	m.SetFrom(sgmail.NewEmail("", msg.EnvelopeFrom()))
	m.Subject = msg.Subject

	p := sgmail.NewPersonalization()
	for _, to := range msg.To {
		p.AddTos(sgmail.NewEmail("", to))
	}
	m.AddPersonalizations(p)
	m.AddContent(sgmail.NewContent("text/plain", msg.Body))

	for _, att := range msg.Attachments {
		data, err := os.ReadFile(att.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to read attachment %s: %w", att.Path, err)
		}
		a := sgmail.NewAttachment()
		a.SetContent(base64.StdEncoding.EncodeToString(data))
		a.SetType(att.Type())
		a.SetFilename(att.Name())
		a.SetDisposition("attachment")
		m.AddAttachment(a)
	}
	return m, nil
}

func checkSendGridResponse(resp *rest.Response) error {
	if resp == nil {
		return fmt.Errorf("SendGrid returned no response")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("SendGrid rejected message: HTTP %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

func firstHeader(resp *rest.Response, key string) string {
	for k, values := range resp.Headers {
		if len(values) > 0 && http.CanonicalHeaderKey(k) == http.CanonicalHeaderKey(key) {
			return values[0]
		}
	}
	return ""
}
