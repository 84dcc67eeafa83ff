// Package pipeline runs one report harvest from login to delivery.
package pipeline

import (
	"context"
	"fmt"

	"dtc_dms_report/internal/artifact"
	"dtc_dms_report/internal/config"
	"dtc_dms_report/internal/convert"
	"dtc_dms_report/internal/dashboard"
	"dtc_dms_report/internal/delivery"
	"dtc_dms_report/internal/mail"
	"dtc_dms_report/internal/window"

	"github.com/rs/zerolog/log"
)

// Publisher mirrors the converted table somewhere besides the mail.
type Publisher interface {
	Publish(ctx context.Context, rows [][]string) error
}

type Config struct {
	Credentials dashboard.Credentials
	Filters     dashboard.FilterSpec

	From string
	To   []string

	ScratchDir string
	KeepFiles  bool

	Convert  convert.Options
	Variants config.Variants
	Timing   config.Timing
}

// Result is what a run produced, including recoverable problems.
type Result struct {
	Window     window.Window
	Export     artifact.Artifact
	Attachment string
	Converted  bool
	Rows       int
	Filters    dashboard.FilterResult
	Delivery   delivery.Report
	Warnings   []error
}

type Pipeline struct {
	cfg       Config
	page      dashboard.Page
	transport mail.Transport
	publisher Publisher
}

// New creates a pipeline. publisher may be nil.
func New(cfg Config, page dashboard.Page, transport mail.Transport, publisher Publisher) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		page:      page,
		transport: transport,
		publisher: publisher,
	}
}

// Run executes every stage in order. The first fatal failure stops the run and is
// returned; recoverable failures are logged and collected in Result.Warnings.
func (p *Pipeline) Run(ctx context.Context, w window.Window) (Result, error) {
	result := Result{Window: w}

	driver := dashboard.NewDriver(p.page, p.cfg.Variants, p.cfg.Timing)

	log.Info().Str("stage", "login").Msg("Starting stage")
	if err := driver.Login(ctx, p.cfg.Credentials); err != nil {
		return result, err
	}

	log.Info().Str("stage", "navigate").Msg("Starting stage")
	if err := driver.OpenReport(ctx); err != nil {
		return result, err
	}

	log.Info().Str("stage", "filter").Msg("Starting stage")
	filters, err := driver.ApplyFilters(ctx, p.cfg.Filters, w)
	result.Filters = filters
	for _, keyword := range filters.Missed {
		result.Warnings = append(result.Warnings, fmt.Errorf("report type %q not found", keyword))
	}
	if err != nil {
		return result, err
	}

	log.Info().Str("stage", "export").Msg("Starting stage")
	exported, err := driver.Export(ctx, p.cfg.ScratchDir)
	if err != nil {
		return result, err
	}
	result.Export = exported

	log.Info().Str("stage", "convert").Msg("Starting stage")
	result.Attachment = exported.Path
	dst := convert.OutputPath(exported.Path)
	table, err := convert.File(exported.Path, dst, p.cfg.Convert)
	if err != nil {
		log.Warn().
			Err(err).
			Str("file", exported.Name).
			Msg("Conversion failed, attaching raw export")
		result.Warnings = append(result.Warnings, err)
	} else {
		result.Attachment = dst
		result.Converted = true
		result.Rows = len(table.Rows)
	}

	if p.publisher != nil && result.Converted {
		if err := p.publisher.Publish(ctx, table.Values()); err != nil {
			log.Warn().Err(err).Msg("Sheet mirror not updated")
			result.Warnings = append(result.Warnings, fmt.Errorf("sheet mirror: %w", err))
		}
	}

	log.Info().Str("stage", "deliver").Msg("Starting stage")
	msg, err := delivery.Compose(p.cfg.From, p.cfg.To, w, exported, result.Attachment)
	if err != nil {
		return result, err
	}
	report, err := delivery.Deliver(ctx, p.transport, msg, p.cfg.ScratchDir, p.cfg.KeepFiles)
	result.Delivery = report
	if err != nil {
		return result, err
	}
	if report.CleanupErr != nil {
		result.Warnings = append(result.Warnings, report.CleanupErr)
	}

	return result, nil
}
