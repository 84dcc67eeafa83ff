package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"dtc_dms_report/internal/browser"
)

var errNotFound = errors.New("element not found")

// fakePage is a scripted Page. Elements exist when their selector string is in present.
type fakePage struct {
	present map[string]bool
	actions []string
	typed   map[string]string

	// evals answers scripts by marker prefix.
	evals   map[string]func(script string) (any, error)
	onClick map[string]func(p *fakePage)
	onPress func(p *fakePage, key string)

	navigateErr error
}

func newFakePage(present ...browser.Selector) *fakePage {
	p := &fakePage{
		present: make(map[string]bool),
		typed:   make(map[string]string),
		evals:   make(map[string]func(string) (any, error)),
		onClick: make(map[string]func(*fakePage)),
	}
	for _, sel := range present {
		p.present[sel.String()] = true
	}
	return p
}

func (p *fakePage) show(sel browser.Selector) { p.present[sel.String()] = true }
func (p *fakePage) hide(sel browser.Selector) { delete(p.present, sel.String()) }

func (p *fakePage) record(format string, args ...any) {
	p.actions = append(p.actions, fmt.Sprintf(format, args...))
}

func (p *fakePage) find(sel browser.Selector) error {
	if !p.present[sel.String()] {
		return fmt.Errorf("%s: %w", sel, errNotFound)
	}
	return nil
}

func (p *fakePage) Navigate(ctx context.Context, url string) error {
	p.record("navigate %s", url)
	return p.navigateErr
}

func (p *fakePage) WaitVisible(ctx context.Context, sel browser.Selector) error {
	return p.find(sel)
}

func (p *fakePage) WaitGone(ctx context.Context, sel browser.Selector) error {
	if p.present[sel.String()] {
		return fmt.Errorf("%s still visible", sel)
	}
	return nil
}

func (p *fakePage) Click(ctx context.Context, sel browser.Selector) error {
	if err := p.find(sel); err != nil {
		return err
	}
	p.record("click %s", sel)
	if fn := p.onClick[sel.String()]; fn != nil {
		fn(p)
	}
	return nil
}

func (p *fakePage) SetValue(ctx context.Context, sel browser.Selector, value string) error {
	if err := p.find(sel); err != nil {
		return err
	}
	p.record("set %s=%q", sel, value)
	p.typed[sel.String()] = value
	return nil
}

func (p *fakePage) Type(ctx context.Context, sel browser.Selector, text string) error {
	if err := p.find(sel); err != nil {
		return err
	}
	p.record("type %s=%q", sel, text)
	p.typed[sel.String()] += text
	return nil
}

func (p *fakePage) Press(ctx context.Context, key string) error {
	p.record("press %q", key)
	if p.onPress != nil {
		p.onPress(p, key)
	}
	return nil
}

func (p *fakePage) Evaluate(ctx context.Context, script string, out any) error {
	for marker, fn := range p.evals {
		if !strings.HasPrefix(script, marker) {
			continue
		}
		p.record("eval %s", marker)
		value, err := fn(script)
		if err != nil {
			return err
		}
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
	return fmt.Errorf("unsupported script: %.40s", script)
}

func (p *fakePage) count(prefix string) int {
	n := 0
	for _, a := range p.actions {
		if strings.HasPrefix(a, prefix) {
			n++
		}
	}
	return n
}
