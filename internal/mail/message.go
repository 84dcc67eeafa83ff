// Package mail builds report messages and hands them to a delivery provider.
package mail

import (
	"bytes"
	"errors"
	"fmt"
	"mime"
	netmail "net/mail"
	"os"
	"path/filepath"
	"strings"

	gomail "github.com/wneessen/go-mail"
)

// Attachment is a file sent with the message.
type Attachment struct {
	Path string
	// Filename defaults to the base name of Path.
	Filename    string
	ContentType string
}

// Name is the filename presented to recipients.
func (a Attachment) Name() string {
	if a.Filename != "" {
		return a.Filename
	}
	return filepath.Base(a.Path)
}

// Type is the MIME type of the attachment.
func (a Attachment) Type() string {
	if a.ContentType != "" {
		return a.ContentType
	}
	return ContentTypeFor(a.Name())
}

// Message is one outgoing mail.
type Message struct {
	From        string
	To          []string
	Subject     string
	Body        string
	Attachments []Attachment
}

var spreadsheetTypes = map[string]string{
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".xls":  "application/vnd.ms-excel",
	".csv":  "text/csv",
}

// ContentTypeFor guesses a MIME type from a filename's extension.
func ContentTypeFor(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if t, ok := spreadsheetTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return "application/octet-stream"
}

// Validate checks addresses and attachment paths before any provider is contacted.
func (m Message) Validate() error {
	if _, err := netmail.ParseAddress(m.From); err != nil {
		return fmt.Errorf("invalid sender %q: %w", m.From, err)
	}
	if len(m.To) == 0 {
		return errors.New("message has no recipients")
	}
	for _, to := range m.To {
		if _, err := netmail.ParseAddress(to); err != nil {
			return fmt.Errorf("invalid recipient %q: %w", to, err)
		}
	}
	for _, att := range m.Attachments {
		if _, err := os.Stat(att.Path); err != nil {
			return fmt.Errorf("attachment %s: %w", att.Name(), err)
		}
	}
	return nil
}

// EnvelopeFrom is the bare address of the sender.
func (m Message) EnvelopeFrom() string {
	addr, err := netmail.ParseAddress(m.From)
	if err != nil {
		return m.From
	}
	return addr.Address
}

// NewMsg converts m into a go-mail message. Addresses and subject are RFC 2047 encoded
// and attachments are base64 wrapped at 76 columns by go-mail.
func NewMsg(m Message) (*gomail.Msg, error) {
	msg := gomail.NewMsg()
	if err := msg.From(m.From); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", m.From, err)
	}
	if err := msg.To(m.To...); err != nil {
		return nil, fmt.Errorf("invalid recipients: %w", err)
	}
	msg.Subject(m.Subject)
	msg.SetDate()
	msg.SetBodyString(gomail.TypeTextPlain, m.Body)

	for _, att := range m.Attachments {
		// AttachFile skips unreadable files silently.
		if _, err := os.Stat(att.Path); err != nil {
			return nil, fmt.Errorf("failed to read attachment %s: %w", att.Path, err)
		}
		msg.AttachFile(att.Path,
			gomail.WithFileName(att.Name()),
			gomail.WithFileContentType(gomail.ContentType(att.Type())),
		)
	}
	return msg, nil
}

// BuildMIME renders m as an RFC 5322 message with a multipart/mixed body.
func BuildMIME(m Message) ([]byte, error) {
	msg, err := NewMsg(m)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := msg.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to render message: %w", err)
	}
	return buf.Bytes(), nil
}
