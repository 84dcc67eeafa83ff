package notifications

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Client posts run outcomes to an ntfy topic.
type Client struct {
	httpClient *http.Client
	baseURL    string
	topic      string
	enabled    bool
	priority   string
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

type NotificationError struct {
	Type       string
	StatusCode int
	Attempt    int
	Underlying error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("notification failed [%s] attempt %d: %v", e.Type, e.Attempt, e.Underlying)
}

func (e *NotificationError) Unwrap() error {
	return e.Underlying
}

func (e *NotificationError) IsRetryable() bool {
	switch e.Type {
	case "network", "server", "timeout", "rate_limit":
		return true
	case "auth", "client":
		return false
	default:
		return e.StatusCode >= 500
	}
}

// RunSummary is what a notification reports about one run.
type RunSummary struct {
	DateKey     string
	Window      string
	Succeeded   bool
	FailureKind string
	Err         error
	Attachment  string
	Converted   bool
	Rows        int
	Recipients  int
	Missed      []string
	Duration    time.Duration
}

func NewClient(baseURL, topic string, enabled bool, priority string, maxRetries int, baseDelay, maxDelay time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		topic:      topic,
		enabled:    enabled,
		priority:   priority,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		maxDelay:   maxDelay,
	}
}

// NotifyRun publishes the outcome of a run. Failures are reported at the highest priority.
func (c *Client) NotifyRun(ctx context.Context, summary RunSummary) error {
	title := fmt.Sprintf("DMS report %s", summary.DateKey)
	priority := c.priority
	tags := "white_check_mark"
	if !summary.Succeeded {
		title = fmt.Sprintf("DMS report %s FAILED", summary.DateKey)
		priority = "urgent"
		tags = "rotating_light"
	}

	return c.SendNotification(ctx, Notification{
		Title:    title,
		Message:  FormatRunMessage(summary),
		Priority: priority,
		Tags:     tags,
	})
}

// Notification is one ntfy message.
type Notification struct {
	Title    string
	Message  string
	Priority string
	Tags     string
}

func (c *Client) SendNotification(ctx context.Context, n Notification) error {
	if !c.enabled {
		log.Debug().Msg("Notifications disabled, skipping")
		return nil
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.calculateBackoff(attempt)
			log.Debug().
				Int("attempt", attempt).
				Dur("delay", delay).
				Msg("Retrying notification after delay")

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err := c.sendSingleNotification(ctx, n, attempt+1)
		if err == nil {
			return nil
		}
		lastErr = err

		var notifErr *NotificationError
		if errors.As(err, &notifErr) && !notifErr.IsRetryable() {
			log.Warn().
				Err(err).
				Int("attempt", attempt+1).
				Msg("Non-retryable error, giving up")
			return err
		}

		log.Warn().
			Err(err).
			Int("attempt", attempt+1).
			Int("max_retries", c.maxRetries).
			Msg("Notification attempt failed")
	}

	return &NotificationError{
		Type:       "max_retries_exceeded",
		StatusCode: 0,
		Attempt:    c.maxRetries + 1,
		Underlying: lastErr,
	}
}

func (c *Client) sendSingleNotification(ctx context.Context, n Notification, attempt int) error {
	url := fmt.Sprintf("%s/%s", c.baseURL, c.topic)

	log.Debug().
		Str("url", url).
		Str("title", n.Title).
		Int("attempt", attempt).
		Msg("Sending notification")

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBufferString(n.Message))
	if err != nil {
		return &NotificationError{
			Type:       "client",
			StatusCode: 0,
			Attempt:    attempt,
			Underlying: err,
		}
	}

	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if n.Title != "" {
		req.Header.Set("Title", n.Title)
	}
	if n.Priority != "" {
		req.Header.Set("Priority", n.Priority)
	}
	if n.Tags != "" {
		req.Header.Set("Tags", n.Tags)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NotificationError{
			Type:       "network",
			StatusCode: 0,
			Attempt:    attempt,
			Underlying: err,
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return &NotificationError{
			Type:       c.categorizeHTTPError(resp.StatusCode),
			StatusCode: resp.StatusCode,
			Attempt:    attempt,
			Underlying: fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status),
		}
	}

	log.Debug().
		Int("status_code", resp.StatusCode).
		Int("attempt", attempt).
		Msg("Notification sent successfully")
	return nil
}

// FormatRunMessage renders summary as a short plain-text body.
func FormatRunMessage(summary RunSummary) string {
	var sb strings.Builder

	if summary.Succeeded {
		sb.WriteString(fmt.Sprintf("Sent %s to %d recipient(s)\n", summary.Attachment, summary.Recipients))
		if summary.Converted {
			sb.WriteString(fmt.Sprintf("Rows: %d\n", summary.Rows))
		} else {
			sb.WriteString("Conversion failed, raw export attached\n")
		}
	} else {
		if summary.FailureKind != "" {
			sb.WriteString(fmt.Sprintf("Failed at %s step\n", summary.FailureKind))
		}
		if summary.Err != nil {
			sb.WriteString(fmt.Sprintf("Error: %v\n", summary.Err))
		}
	}

	if len(summary.Missed) > 0 {
		sb.WriteString(fmt.Sprintf("Report types not found: %s\n", strings.Join(summary.Missed, ", ")))
	}
	sb.WriteString(fmt.Sprintf("Window: %s %s\n", summary.DateKey, summary.Window))
	sb.WriteString(fmt.Sprintf("Took %s", summary.Duration.Round(time.Second)))

	return sb.String()
}

func (c *Client) calculateBackoff(attempt int) time.Duration {
	// Exponential backoff with ±25% jitter.
	base := float64(c.baseDelay)
	backoff := base * math.Pow(2, float64(attempt-1))

	jitter := rand.Float64()*0.5 - 0.25
	backoff = backoff * (1 + jitter)

	maxBackoff := float64(c.maxDelay)
	if backoff > maxBackoff {
		backoff = maxBackoff
	}

	return time.Duration(backoff)
}

func (c *Client) categorizeHTTPError(statusCode int) string {
	switch {
	case statusCode == 401 || statusCode == 403:
		return "auth"
	case statusCode == 429:
		return "rate_limit"
	case statusCode >= 400 && statusCode < 500:
		return "client"
	case statusCode >= 500:
		return "server"
	default:
		return "unknown"
	}
}
