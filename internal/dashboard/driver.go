// Package dashboard drives the DTC web dashboard through login, navigation,
// filtering and export using ordered fallback strategies for every UI action.
package dashboard

import (
	"context"
	"errors"

	"dtc_dms_report/internal/browser"
	"dtc_dms_report/internal/config"
)

// Driver performs dashboard steps against a Page.
type Driver struct {
	page     Page
	variants config.Variants
	timing   config.Timing
}

func NewDriver(page Page, variants config.Variants, timing config.Timing) *Driver {
	return &Driver{
		page:     page,
		variants: variants,
		timing:   timing,
	}
}

// attempt runs a fallback chain bounded by the configured per-strategy timeout.
func (d *Driver) attempt(ctx context.Context, action string, strategies ...Strategy) (string, error) {
	return Attempt(ctx, d.page, action, d.timing.Strategy, strategies...)
}

func clickStrategy(name string, sel browser.Selector) Strategy {
	return Strategy{
		Name: name,
		Run: func(ctx context.Context, page Page) error {
			return page.Click(ctx, sel)
		},
	}
}

var errScriptNoMatch = errors.New("script found no matching element")

func scriptStrategy(name, script string) Strategy {
	return Strategy{
		Name: name,
		Run: func(ctx context.Context, page Page) error {
			return evalMatch(ctx, page, script)
		},
	}
}

// evalMatch runs a script that reports whether it found its target.
func evalMatch(ctx context.Context, page Page, script string) error {
	var ok bool
	if err := page.Evaluate(ctx, script, &ok); err != nil {
		return err
	}
	if !ok {
		return errScriptNoMatch
	}
	return nil
}
