package dashboard

import (
	"context"

	"dtc_dms_report/internal/browser"
	"dtc_dms_report/internal/failure"
	"dtc_dms_report/internal/wait"

	"github.com/rs/zerolog/log"
)

// Login signs in and waits for the dashboard to finish loading its initial data.
// Success is the login form going away; it never returns with the form still shown.
func (d *Driver) Login(ctx context.Context, creds Credentials) error {
	v := d.variants
	user := browser.CSS(v.UsernameInput)
	pass := browser.CSS(v.PasswordInput)

	log.Info().Str("url", v.LoginURL).Msg("Opening login page")
	if err := d.page.Navigate(ctx, v.LoginURL); err != nil {
		return failure.New(failure.Auth, "open-login", err)
	}
	if err := d.page.WaitVisible(ctx, user); err != nil {
		return failure.New(failure.Auth, "find-login-form", err)
	}

	if err := d.page.Type(ctx, user, creds.Username); err != nil {
		return failure.New(failure.Auth, "enter-username", err)
	}
	if err := d.page.Press(ctx, browser.KeyTab); err != nil {
		return failure.New(failure.Auth, "enter-username", err)
	}
	if err := wait.Settle(ctx, d.timing.KeySettle, "focus password"); err != nil {
		return failure.New(failure.Auth, "enter-password", err)
	}
	if err := d.page.Type(ctx, pass, creds.Password); err != nil {
		return failure.New(failure.Auth, "enter-password", err)
	}

	log.Debug().Str("username", creds.Username).Msg("Submitting credentials")
	if err := d.page.Press(ctx, browser.KeyEnter); err != nil {
		return failure.New(failure.Auth, "submit-login", err)
	}

	if err := d.page.WaitGone(ctx, user); err != nil {
		return failure.Newf(failure.Auth, "await-login", "login form still present: %v", err)
	}
	log.Info().Msg("Login accepted")

	if err := wait.Settle(ctx, d.timing.LoginSettle, "dashboard data load"); err != nil {
		return failure.New(failure.Auth, "await-dashboard", err)
	}
	return nil
}
