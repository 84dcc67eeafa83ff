package wait

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrTimeout is returned by Until when the condition never held within the bound.
var ErrTimeout = errors.New("condition not met before timeout")

// Config bounds a polling wait.
type Config struct {
	Interval    time.Duration
	MaxInterval time.Duration
	Timeout     time.Duration
}

// Condition reports whether the awaited state has been reached.
// A non-nil error is remembered and reported if the wait times out.
type Condition func(ctx context.Context) (bool, error)

// Until polls cond until it returns true, the timeout elapses or ctx is done.
// The interval doubles after every miss, capped at MaxInterval.
func Until(ctx context.Context, config Config, cond Condition) error {
	waitCtx, cancel := context.WithTimeout(ctx, config.Timeout)
	defer cancel()

	var lastErr error
	for attempt := 0; ; attempt++ {
		ok, err := cond(waitCtx)
		if err == nil && ok {
			return nil
		}
		if err != nil {
			lastErr = err
		}

		delay := calculateBackoffDelay(attempt, config.Interval, config.MaxInterval)
		log.Debug().
			Err(err).
			Int("attempt", attempt+1).
			Dur("delay", delay).
			Msg("Condition not met, polling again")

		select {
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if lastErr != nil {
				return fmt.Errorf("%w after %v: %w", ErrTimeout, config.Timeout, lastErr)
			}
			return fmt.Errorf("%w after %v", ErrTimeout, config.Timeout)
		case <-time.After(delay):
		}
	}
}

// Settle pauses for d where no readiness signal is observable. It returns early if ctx is done.
func Settle(ctx context.Context, d time.Duration, reason string) error {
	if d <= 0 {
		return nil
	}
	log.Debug().Dur("duration", d).Str("reason", reason).Msg("Settling")

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func calculateBackoffDelay(attempt int, baseDelay, maxDelay time.Duration) time.Duration {
	if baseDelay <= 0 {
		baseDelay = 100 * time.Millisecond
	}
	if maxDelay < baseDelay {
		maxDelay = baseDelay
	}

	// Cap attempt at 30 to prevent overflow (2^30 is safe for int)
	safeAttempt := min(attempt, 30)
	delay := time.Duration(1<<safeAttempt) * baseDelay
	if delay > maxDelay || delay <= 0 {
		delay = maxDelay
	}
	return delay
}
