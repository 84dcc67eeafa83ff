package browser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"dtc_dms_report/internal/failure"

	"github.com/chromedp/cdproto/browser"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"
)

// Options configures the automation context.
type Options struct {
	Headless    bool
	Width       int
	Height      int
	DownloadDir string
	ExecPath    string
	// OperationTimeout bounds every command sent to the page.
	OperationTimeout time.Duration
}

// Session owns one isolated browser for the duration of a run.
type Session struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	timeout     time.Duration
	closeOnce   sync.Once
	closeErr    error
}

// DefaultOptions is a 1920x1080 headless browser downloading into ./downloads.
var DefaultOptions = Options{
	Headless:         true,
	Width:            1920,
	Height:           1080,
	DownloadDir:      "downloads",
	OperationTimeout: 60 * time.Second,
}

func (o Options) withDefaults() Options {
	if o.Width <= 0 || o.Height <= 0 {
		o.Width, o.Height = DefaultOptions.Width, DefaultOptions.Height
	}
	if o.DownloadDir == "" {
		o.DownloadDir = DefaultOptions.DownloadDir
	}
	if o.OperationTimeout <= 0 {
		o.OperationTimeout = DefaultOptions.OperationTimeout
	}
	return o
}

// Start launches the browser, redirects downloads to opts.DownloadDir and sets the viewport.
func Start(ctx context.Context, opts Options) (*Session, error) {
	opts = opts.withDefaults()
	downloadDir, err := filepath.Abs(opts.DownloadDir)
	if err != nil {
		return nil, failure.New(failure.Launch, "resolve-download-dir", err)
	}
	if err := os.MkdirAll(downloadDir, 0o755); err != nil {
		return nil, failure.New(failure.Launch, "create-download-dir", err)
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.NoSandbox,
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("start-maximized", true),
		chromedp.WindowSize(opts.Width, opts.Height),
	)
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	browserCtx, cancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			log.Debug().Msgf(format, args...)
		}),
	)

	s := &Session{
		ctx:         browserCtx,
		cancel:      cancel,
		allocCancel: allocCancel,
		timeout:     opts.OperationTimeout,
	}

	log.Debug().
		Bool("headless", opts.Headless).
		Str("download_dir", downloadDir).
		Dur("operation_timeout", opts.OperationTimeout).
		Msg("Launching browser")

	// The first Run allocates the browser; it must not carry a timeout or the
	// browser would die with it.
	if err := chromedp.Run(browserCtx); err != nil {
		s.Close()
		return nil, failure.New(failure.Launch, "allocate-browser", err)
	}

	err = s.run(ctx,
		browser.SetDownloadBehavior(browser.SetDownloadBehaviorBehaviorAllow).
			WithDownloadPath(downloadDir).
			WithEventsEnabled(true),
		chromedp.EmulateViewport(int64(opts.Width), int64(opts.Height)),
	)
	if err != nil {
		s.Close()
		return nil, failure.New(failure.Launch, "configure-browser", err)
	}

	log.Info().Str("download_dir", downloadDir).Msg("Browser launched")
	return s, nil
}

// Close releases the browser. Safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = chromedp.Cancel(s.ctx)
		s.cancel()
		s.allocCancel()
		if s.closeErr != nil {
			log.Warn().Err(s.closeErr).Msg("Browser did not close cleanly")
		} else {
			log.Debug().Msg("Browser closed")
		}
	})
	return s.closeErr
}

// run executes actions on the page, bounded by both ctx and the operation timeout.
func (s *Session) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := s.run(ctx, chromedp.Navigate(url), chromedp.WaitReady("body", chromedp.ByQuery)); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

func (s *Session) WaitVisible(ctx context.Context, sel Selector) error {
	if err := s.run(ctx, chromedp.WaitVisible(sel.Expr, sel.by())); err != nil {
		return fmt.Errorf("failed waiting for %s: %w", sel, err)
	}
	return nil
}

func (s *Session) WaitGone(ctx context.Context, sel Selector) error {
	if err := s.run(ctx, chromedp.WaitNotPresent(sel.Expr, sel.by())); err != nil {
		return fmt.Errorf("failed waiting for %s to disappear: %w", sel, err)
	}
	return nil
}

// Click clicks the first visible node matching sel.
func (s *Session) Click(ctx context.Context, sel Selector) error {
	if err := s.run(ctx, chromedp.Click(sel.Expr, sel.by(), chromedp.NodeVisible)); err != nil {
		return fmt.Errorf("failed to click %s: %w", sel, err)
	}
	return nil
}

func (s *Session) SetValue(ctx context.Context, sel Selector, value string) error {
	if err := s.run(ctx, chromedp.SetValue(sel.Expr, value, sel.by())); err != nil {
		return fmt.Errorf("failed to set value of %s: %w", sel, err)
	}
	return nil
}

// Type focuses sel and sends text as key events.
func (s *Session) Type(ctx context.Context, sel Selector, text string) error {
	if err := s.run(ctx, chromedp.SendKeys(sel.Expr, text, sel.by())); err != nil {
		return fmt.Errorf("failed to type into %s: %w", sel, err)
	}
	return nil
}

// Press sends key to the focused element.
func (s *Session) Press(ctx context.Context, key string) error {
	if err := s.run(ctx, chromedp.KeyEvent(key)); err != nil {
		return fmt.Errorf("failed to press key %q: %w", key, err)
	}
	return nil
}

// Evaluate runs script in the page and decodes its result into out.
func (s *Session) Evaluate(ctx context.Context, script string, out any) error {
	if err := s.run(ctx, chromedp.Evaluate(script, out)); err != nil {
		return fmt.Errorf("failed to evaluate script: %w", err)
	}
	return nil
}

// Screenshot captures the current viewport as PNG.
func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := s.run(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, fmt.Errorf("failed to capture screenshot: %w", err)
	}
	return buf, nil
}
