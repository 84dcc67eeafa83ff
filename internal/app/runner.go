package app

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"dtc_dms_report/internal/browser"
	"dtc_dms_report/internal/dashboard"
	"dtc_dms_report/internal/failure"
	"dtc_dms_report/internal/mail"
	"dtc_dms_report/internal/notifications"
	"dtc_dms_report/internal/pipeline"
	"dtc_dms_report/internal/window"

	"github.com/rs/zerolog/log"
)

const (
	ExitOK      = 0
	ExitFailure = 1
	ExitConfig  = 2
)

const (
	screenshotTimeout = 15 * time.Second
	notifyTimeout     = 30 * time.Second
)

// ExitCode maps a run error to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case failure.KindOf(err) == failure.Config:
		return ExitConfig
	default:
		return ExitFailure
	}
}

// Session is a live browser page the runner owns for one run.
type Session interface {
	dashboard.Page
	Screenshot(ctx context.Context) ([]byte, error)
	Close() error
}

// Launcher starts a browser session.
type Launcher func(ctx context.Context, opts browser.Options) (Session, error)

// StartBrowser launches Chrome through chromedp.
func StartBrowser(ctx context.Context, opts browser.Options) (Session, error) {
	session, err := browser.Start(ctx, opts)
	if err != nil {
		return nil, err
	}
	return session, nil
}

type Notifier interface {
	NotifyRun(ctx context.Context, summary notifications.RunSummary) error
}

// Deps are the collaborators Main wires around a loaded Config.
type Deps struct {
	Launch    Launcher
	Transport func(ctx context.Context, cfg *Config) (mail.Transport, error)
	Publisher func(ctx context.Context, cfg *Config) (pipeline.Publisher, error)
	Notifier  func(cfg *Config) Notifier
	// Configure adjusts the loaded config, e.g. from command-line flags.
	Configure func(cfg *Config)
	Now       func() time.Time
}

// Main loads configuration, builds the runner and executes one run, returning the exit code.
// Nothing touches the network or the browser until configuration is complete.
func Main(ctx context.Context, deps Deps) int {
	cfg, err := LoadConfig()
	if err != nil {
		log.Error().Err(err).Msg("Configuration incomplete, aborting before any browser activity")
		return ExitCode(err)
	}
	if deps.Configure != nil {
		deps.Configure(cfg)
	}

	transport, err := deps.Transport(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Msg("Mail transport could not be configured")
		return ExitCode(err)
	}

	var publisher pipeline.Publisher
	if deps.Publisher != nil {
		publisher, err = deps.Publisher(ctx, cfg)
		if err != nil {
			log.Warn().Err(err).Msg("Sheet mirror unavailable, continuing without it")
			publisher = nil
		}
	}

	var notifier Notifier
	if deps.Notifier != nil {
		notifier = deps.Notifier(cfg)
	}

	runner := &Runner{
		Config:    cfg,
		Launch:    deps.Launch,
		Transport: transport,
		Publisher: publisher,
		Notifier:  notifier,
		Now:       deps.Now,
	}
	return runner.Execute(ctx)
}

// Runner is the process boundary: it owns the browser session, turns fatal
// errors into a screenshot and an exit code, and reports the outcome.
type Runner struct {
	Config    *Config
	Launch    Launcher
	Transport mail.Transport
	Publisher pipeline.Publisher
	Notifier  Notifier
	Now       func() time.Time
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// Execute performs one run and returns the process exit code.
func (r *Runner) Execute(ctx context.Context) int {
	started := time.Now()
	w := window.Today(r.now(), r.Config.Location)

	log.Info().
		Str("date", w.DateKey).
		Str("start", w.StartText()).
		Str("end", w.EndText()).
		Msg("Starting DMS report run")

	runCtx, cancel := context.WithTimeout(ctx, r.Config.Timing.Run)
	defer cancel()

	result, err := r.run(runCtx, w)
	elapsed := time.Since(started)

	for _, warning := range result.Warnings {
		log.Warn().Err(warning).Msg("Run completed with warning")
	}

	r.notify(ctx, r.summarize(w, result, err, elapsed))

	code := ExitCode(err)
	if err != nil {
		log.Error().
			Err(err).
			Str("kind", string(failure.KindOf(err))).
			Int("exit_code", code).
			Dur("elapsed", elapsed).
			Msg("Run failed")
		return code
	}

	log.Info().
		Str("attachment", result.Attachment).
		Bool("converted", result.Converted).
		Int("rows", result.Rows).
		Int("warnings", len(result.Warnings)).
		Dur("elapsed", elapsed).
		Msg("Run complete")
	return code
}

func (r *Runner) run(ctx context.Context, w window.Window) (pipeline.Result, error) {
	cfg := r.Config

	session, err := r.Launch(ctx, cfg.Browser)
	if err != nil {
		if failure.KindOf(err) == "" {
			err = failure.New(failure.Launch, "start-browser", err)
		}
		return pipeline.Result{Window: w}, err
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.Warn().Err(err).Msg("Browser session did not close cleanly")
		}
	}()

	p := pipeline.New(pipeline.Config{
		Credentials: cfg.Credentials,
		Filters:     cfg.Filters,
		From:        cfg.From,
		To:          cfg.Recipients,
		ScratchDir:  cfg.ScratchDir,
		KeepFiles:   cfg.KeepFiles,
		Convert:     cfg.Convert,
		Variants:    cfg.Variants,
		Timing:      cfg.Timing,
	}, session, r.Transport, r.Publisher)

	result, err := p.Run(ctx, w)
	if err != nil && failure.IsFatal(err) {
		r.captureScreenshot(ctx, session)
	}
	return result, err
}

// captureScreenshot saves the viewport for offline diagnosis. It runs even when ctx has expired.
func (r *Runner) captureScreenshot(ctx context.Context, session Session) {
	shotCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), screenshotTimeout)
	defer cancel()

	png, err := session.Screenshot(shotCtx)
	if err != nil {
		log.Warn().Err(err).Msg("Could not capture failure screenshot")
		return
	}
	if err := os.WriteFile(r.Config.ScreenshotPath, png, 0o644); err != nil {
		log.Warn().Err(err).Str("path", r.Config.ScreenshotPath).Msg("Could not write failure screenshot")
		return
	}
	log.Info().Str("path", r.Config.ScreenshotPath).Msg("Saved failure screenshot")
}

func (r *Runner) summarize(w window.Window, result pipeline.Result, err error, elapsed time.Duration) notifications.RunSummary {
	summary := notifications.RunSummary{
		DateKey:    w.DateKey,
		Window:     w.Range(),
		Succeeded:  err == nil,
		Err:        err,
		Converted:  result.Converted,
		Rows:       result.Rows,
		Recipients: len(r.Config.Recipients),
		Missed:     result.Filters.Missed,
		Duration:   elapsed,
	}
	if result.Attachment != "" {
		summary.Attachment = filepath.Base(result.Attachment)
	}
	if err != nil {
		summary.FailureKind = string(failure.KindOf(err))
	}
	return summary
}

func (r *Runner) notify(ctx context.Context, summary notifications.RunSummary) {
	if r.Notifier == nil {
		return
	}
	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	if err := r.Notifier.NotifyRun(notifyCtx, summary); err != nil {
		log.Warn().Err(err).Msg("Run notification not delivered")
	}
}
