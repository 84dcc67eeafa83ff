package mail

import (
	"context"
	"fmt"

	"github.com/mailgun/mailgun-go/v4"
	"github.com/rs/zerolog/log"
)

// MailgunTransport sends through the Mailgun messages API.
type MailgunTransport struct {
	mg *mailgun.MailgunImpl
}

// NewMailgun creates a transport for domain. apiBase selects a region such as mailgun.APIBaseEU.
func NewMailgun(domain, apiKey, apiBase string) *MailgunTransport {
	mg := mailgun.NewMailgun(domain, apiKey)
	if apiBase != "" {
		mg.SetAPIBase(apiBase)
	}
	return &MailgunTransport{mg: mg}
}

func (t *MailgunTransport) Name() string { return string(ProviderMailgun) }

func (t *MailgunTransport) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	m := t.mg.NewMessage(msg.From, msg.Subject, msg.Body, msg.To...)
	for _, att := range msg.Attachments {
		m.AddAttachment(att.Path)
	}

	resp, id, err := t.mg.Send(ctx, m)
	if err != nil {
		return fmt.Errorf("failed to send email via Mailgun: %w", err)
	}

	log.Debug().
		Str("message_id", id).
		Str("response", resp).
		Msg("Mailgun accepted message")
	return nil
}
