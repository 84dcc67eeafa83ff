package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"dtc_dms_report/internal/browser"
	"dtc_dms_report/internal/failure"
	"dtc_dms_report/internal/wait"
	"dtc_dms_report/internal/window"

	"github.com/rs/zerolog/log"
)

// ScopeAll selects every vehicle.
const ScopeAll = "ALL"

// ApplyFilters sets truck scope, report types and the date window, then runs the search.
// Unmatched report types are reported in the result, not as an error.
func (d *Driver) ApplyFilters(ctx context.Context, filters FilterSpec, w window.Window) (FilterResult, error) {
	result := FilterResult{}

	scope, err := d.SelectTruckScope(ctx, filters.TruckScope)
	if err != nil {
		return result, err
	}
	result.TruckScope = scope

	types := d.SelectReportTypes(ctx, filters.ReportTypes)
	result.Applied = types.Applied
	result.Missed = types.Missed

	if err := d.EnterDateRange(ctx, w); err != nil {
		return result, err
	}
	if err := d.TriggerSearch(ctx); err != nil {
		return result, err
	}
	return result, nil
}

// SelectTruckScope waits for the vehicle list to populate and selects scope.
// An empty scope leaves the dashboard default untouched. It returns the selected option text.
func (d *Driver) SelectTruckScope(ctx context.Context, scope string) (string, error) {
	scope = strings.TrimSpace(scope)
	if scope == "" {
		log.Info().Msg("No truck scope requested, keeping dashboard default")
		return "", nil
	}

	labels := d.variants.AllScopeLabels
	var selected string

	strategies := make([]Strategy, 0, len(d.variants.TruckSelects))
	for _, sel := range d.variants.TruckSelects {
		strategies = append(strategies, Strategy{
			Name:    "select:" + sel,
			Timeout: d.timing.OptionPoll.Timeout + d.timing.Strategy,
			Run: func(ctx context.Context, page Page) error {
				// The list is filled asynchronously after the view loads.
				err := wait.Until(ctx, d.timing.OptionPoll, func(ctx context.Context) (bool, error) {
					var ready bool
					if err := page.Evaluate(ctx, truckReadyScript(sel, labels), &ready); err != nil {
						return false, err
					}
					return ready, nil
				})
				if err != nil {
					return fmt.Errorf("vehicle options never loaded: %w", err)
				}

				var text string
				if err := page.Evaluate(ctx, truckSelectScript(sel, labels, scope), &text); err != nil {
					return err
				}
				if text == "" {
					return fmt.Errorf("no vehicle option matches %q", scope)
				}
				selected = text
				return nil
			},
		})
	}

	used, err := d.attempt(ctx, "truck-scope", strategies...)
	if err != nil {
		return "", failure.New(failure.Filter, "truck-scope", err)
	}
	log.Info().
		Str("scope", scope).
		Str("option", selected).
		Str("strategy", used).
		Msg("Truck scope selected")
	return selected, nil
}

// SelectReportTypes applies each keyword through the report-type strategies.
// A keyword no strategy can apply is logged and recorded as missed.
func (d *Driver) SelectReportTypes(ctx context.Context, keywords []string) FilterResult {
	result := FilterResult{}
	seen := make(map[string]bool, len(keywords))

	for _, keyword := range keywords {
		keyword = strings.TrimSpace(keyword)
		if keyword == "" || seen[keyword] {
			continue
		}
		seen[keyword] = true

		used, err := d.attempt(ctx, "report-type", d.reportTypeStrategies(keyword)...)
		if err != nil {
			log.Warn().
				Err(err).
				Str("keyword", keyword).
				Msg("Report type not applied")
			result.Missed = append(result.Missed, keyword)
			continue
		}
		result.Applied = append(result.Applied, AppliedFilter{Keyword: keyword, Strategy: used})
	}
	return result
}

func (d *Driver) reportTypeStrategies(keyword string) []Strategy {
	dropdown := d.variants.ReportTypeDropdownID
	return []Strategy{
		scriptStrategy("checkbox-label", checkboxLabelScript(keyword)),
		{
			Name: "dropdown-search",
			Run: func(ctx context.Context, page Page) error {
				if dropdown == "" {
					return errors.New("no report-type dropdown configured")
				}
				if err := page.Click(ctx, browser.CSS("#"+dropdown)); err != nil {
					return err
				}
				if err := wait.Settle(ctx, d.timing.KeySettle, "dropdown open"); err != nil {
					return err
				}
				search := browser.CSS(fmt.Sprintf("#%s input[type='search'], #%s input", dropdown, dropdown))
				if err := page.Type(ctx, search, keyword); err != nil {
					return err
				}
				if err := page.Press(ctx, browser.KeyEnter); err != nil {
					return err
				}
				if err := wait.Settle(ctx, d.timing.KeySettle, "dropdown choice"); err != nil {
					return err
				}
				// Enter on an empty result list selects nothing.
				return evalMatch(ctx, page, dropdownChosenScript(dropdown, keyword))
			},
		},
		scriptStrategy("text-scan", textScanScript(keyword)),
	}
}

// EnterDateRange replaces the contents of both date inputs with the window bounds.
func (d *Driver) EnterDateRange(ctx context.Context, w window.Window) error {
	fields := []struct {
		name     string
		selector string
		value    string
	}{
		{"start", d.variants.StartDateInput, w.StartText()},
		{"end", d.variants.EndDateInput, w.EndText()},
	}

	for _, field := range fields {
		sel := browser.CSS(field.selector)
		if err := d.page.WaitVisible(ctx, sel); err != nil {
			return failure.New(failure.Filter, "date-"+field.name, err)
		}
		if err := d.page.SetValue(ctx, sel, ""); err != nil {
			return failure.New(failure.Filter, "date-"+field.name, err)
		}
		if err := d.page.Type(ctx, sel, field.value); err != nil {
			return failure.New(failure.Filter, "date-"+field.name, err)
		}
	}

	log.Info().
		Str("start", w.StartText()).
		Str("end", w.EndText()).
		Msg("Date range entered")
	return nil
}

// TriggerSearch runs the report query and waits for results to render.
func (d *Driver) TriggerSearch(ctx context.Context) error {
	_, err := d.attempt(ctx, "search",
		clickStrategy("search-text", browser.XPath(d.variants.SearchXPath)),
		clickStrategy("search-position", browser.CSS(d.variants.SearchPosition)),
	)
	if err != nil {
		return failure.New(failure.Navigation, "search", err)
	}

	if err := wait.Settle(ctx, d.timing.SearchSettle, "search results"); err != nil {
		return failure.New(failure.Navigation, "search", err)
	}
	return nil
}
