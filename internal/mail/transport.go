package mail

import (
	"context"
	"fmt"
	"strings"
)

// Transport delivers a message through one provider.
type Transport interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}

// Provider names a delivery backend.
type Provider string

const (
	ProviderSMTP     Provider = "smtp"
	ProviderSES      Provider = "ses"
	ProviderMailgun  Provider = "mailgun"
	ProviderSendGrid Provider = "sendgrid"
	ProviderGmail    Provider = "gmail"
)

// Settings select and configure a provider.
// Provider API keys fall back to Password when unset.
type Settings struct {
	Provider Provider
	Username string
	Password string

	SMTPHost string
	SMTPPort int

	SESRegion string

	MailgunDomain  string
	MailgunAPIKey  string
	MailgunAPIBase string

	SendGridAPIKey string

	GmailCredentialsFile string
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// ParseProvider normalises a provider name; empty selects SMTP.
func ParseProvider(name string) (Provider, error) {
	switch p := Provider(strings.ToLower(strings.TrimSpace(name))); p {
	case "":
		return ProviderSMTP, nil
	case ProviderSMTP, ProviderSES, ProviderMailgun, ProviderSendGrid, ProviderGmail:
		return p, nil
	default:
		return "", fmt.Errorf("unknown mail provider %q", name)
	}
}

// NewTransport builds the transport selected by s.Provider.
func NewTransport(ctx context.Context, s Settings) (Transport, error) {
	switch s.Provider {
	case ProviderSMTP, "":
		return NewSMTP(s.SMTPHost, s.SMTPPort, s.Username, s.Password), nil
	case ProviderSES:
		return NewSES(ctx, s.SESRegion)
	case ProviderMailgun:
		if s.MailgunDomain == "" {
			return nil, fmt.Errorf("mailgun requires a sending domain")
		}
		return NewMailgun(s.MailgunDomain, firstNonEmpty(s.MailgunAPIKey, s.Password), s.MailgunAPIBase), nil
	case ProviderSendGrid:
		return NewSendGrid(firstNonEmpty(s.SendGridAPIKey, s.Password)), nil
	case ProviderGmail:
		if s.GmailCredentialsFile == "" {
			return nil, fmt.Errorf("gmail requires a service account credentials file")
		}
		return NewGmail(ctx, s.GmailCredentialsFile, s.Username)
	default:
		return nil, fmt.Errorf("unknown mail provider %q", s.Provider)
	}
}
