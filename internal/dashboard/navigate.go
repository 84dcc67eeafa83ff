package dashboard

import (
	"context"

	"dtc_dms_report/internal/browser"
	"dtc_dms_report/internal/failure"
	"dtc_dms_report/internal/wait"

	"github.com/rs/zerolog/log"
)

// OpenReport reaches the DMS status report view.
func (d *Driver) OpenReport(ctx context.Context) error {
	v := d.variants

	var strategies []Strategy
	if v.ReportURL != "" {
		strategies = append(strategies, Strategy{
			Name:    "direct-url",
			Timeout: d.timing.Operation,
			Run: func(ctx context.Context, page Page) error {
				return page.Navigate(ctx, v.ReportURL)
			},
		})
	}
	strategies = append(strategies,
		d.sidebarStrategy("sidebar-text", func(ctx context.Context, page Page) error {
			return page.Click(ctx, browser.XPath(v.MenuXPath))
		}),
		d.sidebarStrategy("sidebar-position", func(ctx context.Context, page Page) error {
			return page.Click(ctx, browser.CSS(v.MenuPosition))
		}),
		d.sidebarStrategy("sidebar-icon", func(ctx context.Context, page Page) error {
			var ok bool
			if err := page.Evaluate(ctx, jsClickScript(v.MenuIcon), &ok); err != nil {
				return err
			}
			if !ok {
				return errScriptNoMatch
			}
			return nil
		}),
	)

	used, err := d.attempt(ctx, "open-report", strategies...)
	if err != nil {
		return failure.New(failure.Navigation, "open-report", err)
	}
	log.Info().Str("strategy", used).Msg("Report view opened")

	if err := wait.Settle(ctx, d.timing.ReportSettle, "report view load"); err != nil {
		return failure.New(failure.Navigation, "open-report", err)
	}
	return nil
}

// sidebarStrategy opens the report menu with open, then follows the report link.
// It gets room for the menu settle and both link strategies.
func (d *Driver) sidebarStrategy(name string, open func(ctx context.Context, page Page) error) Strategy {
	return Strategy{
		Name:    name,
		Timeout: d.timing.MenuSettle + 2*d.timing.Strategy,
		Run: func(ctx context.Context, page Page) error {
			if err := open(ctx, page); err != nil {
				return err
			}
			if err := wait.Settle(ctx, d.timing.MenuSettle, "menu expand"); err != nil {
				return err
			}
			_, err := Attempt(ctx, page, "report-link", d.timing.Strategy,
				clickStrategy("link-text", browser.XPath(d.variants.ReportLinkXPath)),
				clickStrategy("link-position", browser.CSS(d.variants.ReportLinkPosition)),
			)
			return err
		},
	}
}
