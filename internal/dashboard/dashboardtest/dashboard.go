// Package dashboardtest provides an in-memory DTC dashboard for tests that drive a full run.
package dashboardtest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"dtc_dms_report/internal/browser"
	"dtc_dms_report/internal/config"
)

// ErrNotFound is returned for selectors the simulated page does not contain.
var ErrNotFound = errors.New("element not found")

// PNG is what Screenshot returns.
var PNG = []byte("\x89PNG\r\n\x1a\n")

// Dashboard simulates the current dashboard layout: login form first, then the
// text-labelled sidebar, the report form and an export button that downloads ExportBody.
type Dashboard struct {
	mu sync.Mutex

	Variants    config.Variants
	Password    string
	DownloadDir string
	ExportName  string
	ExportBody  []byte

	// NoExport makes the export button do nothing.
	NoExport bool
	// MissingReportTypes are keywords no strategy can find.
	MissingReportTypes []string
	ScreenshotErr      error

	loggedIn bool
	typed    map[string]string
	actions  []string
	closed   int
	shots    int
}

func New(variants config.Variants, password, downloadDir string) *Dashboard {
	return &Dashboard{
		Variants:    variants,
		Password:    password,
		DownloadDir: downloadDir,
		ExportName:  "DMS_Report.xls",
		ExportBody:  []byte(`<table><tr><th>ทะเบียน</th><th>เหตุการณ์</th></tr><tr><td>70-1234</td><td>ง่วงนอน</td></tr></table>`),
		typed:       make(map[string]string),
	}
}

func (d *Dashboard) present(sel browser.Selector) bool {
	v := d.Variants
	if !d.loggedIn {
		return sel == browser.CSS(v.UsernameInput) || sel == browser.CSS(v.PasswordInput)
	}
	switch sel {
	case browser.XPath(v.MenuXPath),
		browser.XPath(v.ReportLinkXPath),
		browser.CSS(v.StartDateInput),
		browser.CSS(v.EndDateInput),
		browser.XPath(v.SearchXPath),
		browser.CSS(v.ExportByID):
		return true
	}
	return false
}

func (d *Dashboard) record(format string, args ...any) {
	d.actions = append(d.actions, fmt.Sprintf(format, args...))
}

func (d *Dashboard) find(sel browser.Selector) error {
	if !d.present(sel) {
		return fmt.Errorf("%s: %w", sel, ErrNotFound)
	}
	return nil
}

func (d *Dashboard) Navigate(ctx context.Context, url string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("navigate %s", url)
	if url == d.Variants.LoginURL {
		d.loggedIn = false
	}
	return nil
}

func (d *Dashboard) WaitVisible(ctx context.Context, sel browser.Selector) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.find(sel)
}

func (d *Dashboard) WaitGone(ctx context.Context, sel browser.Selector) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.present(sel) {
		return fmt.Errorf("%s still visible", sel)
	}
	return nil
}

func (d *Dashboard) Click(ctx context.Context, sel browser.Selector) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.find(sel); err != nil {
		return err
	}
	d.record("click %s", sel)

	if sel == browser.CSS(d.Variants.ExportByID) && !d.NoExport {
		path := filepath.Join(d.DownloadDir, d.ExportName)
		if err := os.WriteFile(path, d.ExportBody, 0o644); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dashboard) SetValue(ctx context.Context, sel browser.Selector, value string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.find(sel); err != nil {
		return err
	}
	d.typed[sel.String()] = value
	return nil
}

func (d *Dashboard) Type(ctx context.Context, sel browser.Selector, text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.find(sel); err != nil {
		return err
	}
	d.record("type %s", sel)
	d.typed[sel.String()] += text
	return nil
}

func (d *Dashboard) Press(ctx context.Context, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("press %q", key)
	if key == browser.KeyEnter && !d.loggedIn {
		if d.typed[browser.CSS(d.Variants.PasswordInput).String()] == d.Password {
			d.loggedIn = true
		}
	}
	return nil
}

func (d *Dashboard) Evaluate(ctx context.Context, script string, out any) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.loggedIn {
		return errors.New("page has no report form")
	}

	var value any
	switch {
	case strings.Contains(script, "dms:truck-ready"):
		value = true
	case strings.Contains(script, "dms:truck-select"):
		value = "ทั้งหมด"
	case strings.Contains(script, "dms:checkbox-label"),
		strings.Contains(script, "dms:text-scan"),
		strings.Contains(script, "dms:dropdown-chosen"):
		value = !d.missing(script)
	case strings.Contains(script, "dms:js-click"):
		value = true
	default:
		return fmt.Errorf("unsupported script: %.40s", script)
	}
	d.record("eval %.30s", script)

	switch o := out.(type) {
	case *bool:
		*o = value.(bool)
	case *string:
		*o = value.(string)
	default:
		return fmt.Errorf("unsupported out type %T", out)
	}
	return nil
}

func (d *Dashboard) missing(script string) bool {
	for _, keyword := range d.MissingReportTypes {
		if strings.Contains(script, `"`+keyword+`"`) {
			return true
		}
	}
	return false
}

func (d *Dashboard) Screenshot(ctx context.Context) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.shots++
	if d.ScreenshotErr != nil {
		return nil, d.ScreenshotErr
	}
	return PNG, nil
}

func (d *Dashboard) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed++
	return nil
}

// Typed returns what was entered into sel.
func (d *Dashboard) Typed(sel browser.Selector) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.typed[sel.String()]
}

// Actions returns the recorded interactions in order.
func (d *Dashboard) Actions() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.actions...)
}

// Closed reports how many times Close was called.
func (d *Dashboard) Closed() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// Screenshots reports how many screenshots were taken.
func (d *Dashboard) Screenshots() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shots
}
