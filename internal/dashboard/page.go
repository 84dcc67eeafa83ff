package dashboard

import (
	"context"

	"dtc_dms_report/internal/browser"
)

// Page is the subset of the browser engine the driver needs.
// *browser.Session satisfies it.
type Page interface {
	Navigate(ctx context.Context, url string) error
	WaitVisible(ctx context.Context, sel browser.Selector) error
	WaitGone(ctx context.Context, sel browser.Selector) error
	Click(ctx context.Context, sel browser.Selector) error
	SetValue(ctx context.Context, sel browser.Selector, value string) error
	Type(ctx context.Context, sel browser.Selector, text string) error
	Press(ctx context.Context, key string) error
	Evaluate(ctx context.Context, script string, out any) error
}

// Credentials authenticate against the dashboard.
type Credentials struct {
	Username string
	Password string
}

// FilterSpec is the criteria applied to the report view before export.
type FilterSpec struct {
	// TruckScope is "ALL", a specific vehicle id, or empty to keep the dashboard default.
	TruckScope string
	// ReportTypes are matched as substrings of visible option text.
	ReportTypes []string
}

// AppliedFilter records which strategy resolved a report-type keyword.
type AppliedFilter struct {
	Keyword  string
	Strategy string
}

// FilterResult summarises what was applied to the report view.
type FilterResult struct {
	TruckScope string
	Applied    []AppliedFilter
	Missed     []string
}
