// Package delivery composes the report mail and cleans the scratch directory once it is sent.
package delivery

import (
	"bytes"
	"context"
	"fmt"
	"text/template"

	"dtc_dms_report/internal/artifact"
	"dtc_dms_report/internal/failure"
	"dtc_dms_report/internal/mail"
	"dtc_dms_report/internal/window"

	"github.com/rs/zerolog/log"
)

var bodyTemplate = template.Must(template.New("body").Parse(
	`รายงาน DMS ประจำวันที่ {{.DateKey}} ช่วงเวลา {{.Range}}

(Auto-generated email)`))

// Compose builds the report message. The subject names the exported file and the window label.
func Compose(from string, to []string, w window.Window, source artifact.Artifact, attachmentPath string) (mail.Message, error) {
	var body bytes.Buffer
	err := bodyTemplate.Execute(&body, struct {
		DateKey string
		Range   string
	}{w.DateKey, w.Range()})
	if err != nil {
		return mail.Message{}, fmt.Errorf("failed to render mail body: %w", err)
	}

	return mail.Message{
		From:        from,
		To:          to,
		Subject:     fmt.Sprintf("%s %s", source.Name, w.Label()),
		Body:        body.String(),
		Attachments: []mail.Attachment{{Path: attachmentPath}},
	}, nil
}

// Report describes what Deliver did after sending.
type Report struct {
	Provider string
	Removed  []string
	// CleanupErr is a delete failure; it never fails the delivery.
	CleanupErr error
}

// Deliver sends msg, then empties scratchDir unless keepFiles is set.
// A send failure leaves the scratch directory untouched.
func Deliver(ctx context.Context, transport mail.Transport, msg mail.Message, scratchDir string, keepFiles bool) (Report, error) {
	report := Report{Provider: transport.Name()}

	log.Info().
		Str("provider", transport.Name()).
		Strs("to", msg.To).
		Str("subject", msg.Subject).
		Int("attachments", len(msg.Attachments)).
		Msg("Sending report")

	if err := transport.Send(ctx, msg); err != nil {
		return report, fmt.Errorf("failed to deliver report: %w", err)
	}
	log.Info().Str("provider", transport.Name()).Msg("Report sent")

	if keepFiles {
		log.Info().Str("dir", scratchDir).Msg("Keeping scratch files")
		return report, nil
	}

	removed, err := artifact.Clear(scratchDir)
	report.Removed = removed
	if err != nil {
		report.CleanupErr = failure.New(failure.Delete, "cleanup", err)
		log.Warn().Err(report.CleanupErr).Msg("Could not remove every scratch file")
	} else {
		log.Info().Strs("removed", removed).Msg("Scratch files removed")
	}
	return report, nil
}
