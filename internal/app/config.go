package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"dtc_dms_report/internal/browser"
	"dtc_dms_report/internal/config"
	"dtc_dms_report/internal/convert"
	"dtc_dms_report/internal/dashboard"
	"dtc_dms_report/internal/failure"
	"dtc_dms_report/internal/mail"
	"dtc_dms_report/internal/notifications"
	"dtc_dms_report/internal/pipeline"
	"dtc_dms_report/internal/sheets"
	"dtc_dms_report/internal/window"

	"github.com/rs/zerolog/log"
)

type SheetsConfig struct {
	SpreadsheetID   string
	Range           string
	CredentialsFile string
}

type NotifyConfig struct {
	Enabled  bool
	URL      string
	Topic    string
	Priority string
}

// Config is everything one run needs, resolved from the environment.
type Config struct {
	Credentials dashboard.Credentials
	Filters     dashboard.FilterSpec

	Mail       mail.Settings
	From       string
	Recipients []string

	Location       *time.Location
	ScratchDir     string
	ScreenshotPath string
	KeepFiles      bool

	Browser  browser.Options
	Timing   config.Timing
	Variants config.Variants
	Convert  convert.Options

	Sheets SheetsConfig
	Notify NotifyConfig
}

var requiredEnv = []string{"DTC_USERNAME", "DTC_PASSWORD", "EMAIL_USER", "EMAIL_PASS", "EMAIL_TO"}

// LoadConfig reads the environment. Every missing required variable is reported in one ConfigError.
func LoadConfig() (*Config, error) {
	var missing []string
	values := make(map[string]string, len(requiredEnv))
	for _, key := range requiredEnv {
		values[key] = requireEnv(key, &missing)
	}
	if len(missing) > 0 {
		return nil, failure.Newf(failure.Config, "load-config",
			"missing required environment variables: %s", strings.Join(missing, ", "))
	}

	recipients := splitList(values["EMAIL_TO"])
	if len(recipients) == 0 {
		return nil, failure.Newf(failure.Config, "load-config", "EMAIL_TO lists no recipients")
	}

	provider, err := mail.ParseProvider(GetEnvWithDefault("MAIL_PROVIDER", "smtp"))
	if err != nil {
		return nil, failure.New(failure.Config, "load-config", err)
	}

	zone := GetEnvWithDefault("DMS_TIMEZONE", "Asia/Bangkok")
	loc, err := window.LoadLocation(zone)
	if err != nil {
		return nil, failure.New(failure.Config, "load-config", err)
	}

	timing := config.DefaultTiming
	timing.Operation = getDurationEnv("OPERATION_TIMEOUT", timing.Operation)
	timing.Strategy = getDurationEnv("STRATEGY_TIMEOUT", timing.Strategy)
	timing.LoginSettle = getDurationEnv("LOGIN_SETTLE", timing.LoginSettle)
	timing.ReportSettle = getDurationEnv("REPORT_SETTLE", timing.ReportSettle)
	timing.SearchSettle = getDurationEnv("SEARCH_SETTLE", timing.SearchSettle)
	timing.DownloadPoll.Timeout = getDurationEnv("DOWNLOAD_WAIT", timing.DownloadPoll.Timeout)
	timing.Run = getDurationEnv("RUN_TIMEOUT", timing.Run)

	variants := config.DefaultVariants
	variants.LoginURL = GetEnvWithDefault("DTC_LOGIN_URL", variants.LoginURL)
	variants.ReportURL = GetEnvWithDefault("DMS_REPORT_URL", variants.ReportURL)

	scratch := GetEnvWithDefault("DOWNLOAD_DIR", "downloads")
	user := values["EMAIL_USER"]

	cfg := &Config{
		Credentials: dashboard.Credentials{
			Username: values["DTC_USERNAME"],
			Password: values["DTC_PASSWORD"],
		},
		Filters: dashboard.FilterSpec{
			TruckScope:  GetEnvWithDefault("DMS_TRUCK_SCOPE", dashboard.ScopeAll),
			ReportTypes: getListEnv("DMS_REPORT_TYPES", nil),
		},
		Mail: mail.Settings{
			Provider:             provider,
			Username:             user,
			Password:             values["EMAIL_PASS"],
			SMTPHost:             GetEnvWithDefault("SMTP_HOST", "smtp.gmail.com"),
			SMTPPort:             getIntEnv("SMTP_PORT", 587),
			SESRegion:            GetEnvWithDefault("AWS_REGION", ""),
			MailgunDomain:        GetEnvWithDefault("MAILGUN_DOMAIN", ""),
			MailgunAPIKey:        GetEnvWithDefault("MAILGUN_API_KEY", ""),
			MailgunAPIBase:       GetEnvWithDefault("MAILGUN_API_BASE", ""),
			SendGridAPIKey:       GetEnvWithDefault("SENDGRID_API_KEY", ""),
			GmailCredentialsFile: GetEnvWithDefault("GMAIL_CREDENTIALS_FILE", ""),
		},
		From:           GetEnvWithDefault("EMAIL_FROM", user),
		Recipients:     recipients,
		Location:       loc,
		ScratchDir:     scratch,
		ScreenshotPath: GetEnvWithDefault("SCREENSHOT_PATH", "error_screenshot.png"),
		KeepFiles:      getBoolEnv("KEEP_FILES", false),
		Browser: browser.Options{
			Headless:         getBoolEnv("HEADLESS", true),
			Width:            browser.DefaultOptions.Width,
			Height:           browser.DefaultOptions.Height,
			DownloadDir:      scratch,
			ExecPath:         GetEnvWithDefault("CHROME_PATH", ""),
			OperationTimeout: timing.Operation,
		},
		Timing:   timing,
		Variants: variants,
		Convert:  convert.DefaultOptions,
		Sheets: SheetsConfig{
			SpreadsheetID:   GetEnvWithDefault("SHEETS_SPREADSHEET_ID", ""),
			Range:           GetEnvWithDefault("SHEETS_RANGE", "DMS!A1"),
			CredentialsFile: GetEnvWithDefault("SHEETS_CREDENTIALS_FILE", "credentials.json"),
		},
		Notify: NotifyConfig{
			Enabled:  getBoolEnv("NTFY_ENABLED", false),
			URL:      GetEnvWithDefault("NTFY_URL", "https://ntfy.sh"),
			Topic:    GetEnvWithDefault("NTFY_TOPIC", "dtc-dms-report"),
			Priority: GetEnvWithDefault("NTFY_PRIORITY", "default"),
		},
	}

	log.Debug().
		Str("provider", string(cfg.Mail.Provider)).
		Int("recipients", len(cfg.Recipients)).
		Str("timezone", loc.String()).
		Str("truck_scope", cfg.Filters.TruckScope).
		Strs("report_types", cfg.Filters.ReportTypes).
		Dur("run_timeout", timing.Run).
		Msg("Configuration loaded")
	return cfg, nil
}

// InitializeTransport builds the configured mail transport. A bad provider setup is a ConfigError.
func InitializeTransport(ctx context.Context, cfg *Config) (mail.Transport, error) {
	transport, err := mail.NewTransport(ctx, cfg.Mail)
	if err != nil {
		return nil, failure.New(failure.Config, "mail-transport", err)
	}
	log.Debug().Str("provider", transport.Name()).Msg("Mail transport ready")
	return transport, nil
}

// InitializePublisher returns the sheet mirror, or nil when no spreadsheet is configured.
func InitializePublisher(ctx context.Context, cfg *Config) (pipeline.Publisher, error) {
	if cfg.Sheets.SpreadsheetID == "" {
		log.Debug().Msg("Sheet mirror disabled")
		return nil, nil
	}

	client, err := sheets.NewClient(ctx, cfg.Sheets.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets client: %w", err)
	}

	log.Info().
		Str("spreadsheet_id", cfg.Sheets.SpreadsheetID).
		Str("range", cfg.Sheets.Range).
		Msg("Sheet mirror enabled")
	return sheets.NewPublisher(client, cfg.Sheets.SpreadsheetID, cfg.Sheets.Range), nil
}

// InitializeNotificationClient creates and returns the notification client
func InitializeNotificationClient(cfg *Config) *notifications.Client {
	n := cfg.Notify

	log.Debug().
		Bool("enabled", n.Enabled).
		Str("base_url", n.URL).
		Str("topic", n.Topic).
		Msg("Initializing notification client")

	client := notifications.NewClient(n.URL, n.Topic, n.Enabled, n.Priority, 3, time.Second, 10*time.Second)

	if n.Enabled {
		log.Info().Str("topic", n.Topic).Msg("Notifications enabled")
	} else {
		log.Debug().Msg("Notifications disabled")
	}

	return client
}
