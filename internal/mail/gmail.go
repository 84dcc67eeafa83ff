package mail

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// GmailTransport sends through the Gmail API as a domain user impersonated by a service account.
type GmailTransport struct {
	service *gmail.Service
}

// NewGmail authenticates with the service account key in credentialsFile and acts as sender.
func NewGmail(ctx context.Context, credentialsFile, sender string) (*GmailTransport, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read gmail credentials: %w", err)
	}

	conf, err := google.JWTConfigFromJSON(data, gmail.GmailSendScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse gmail credentials: %w", err)
	}
	conf.Subject = sender

	return newGmailWithOptions(ctx, option.WithTokenSource(conf.TokenSource(ctx)))
}

func newGmailWithOptions(ctx context.Context, opts ...option.ClientOption) (*GmailTransport, error) {
	service, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail service: %w", err)
	}
	return &GmailTransport{service: service}, nil
}

func (t *GmailTransport) Name() string { return string(ProviderGmail) }

func (t *GmailTransport) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	raw, err := BuildMIME(msg)
	if err != nil {
		return fmt.Errorf("failed to build email: %w", err)
	}

	sent, err := t.service.Users.Messages.
		Send("me", &gmail.Message{Raw: base64.URLEncoding.EncodeToString(raw)}).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to send email via Gmail API: %w", err)
	}

	log.Debug().Str("message_id", sent.Id).Msg("Gmail accepted message")
	return nil
}
