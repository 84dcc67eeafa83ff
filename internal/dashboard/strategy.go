package dashboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// Strategy is one way of performing a UI action.
type Strategy struct {
	Name string
	// Timeout overrides the chain's per-strategy bound when set.
	Timeout time.Duration
	Run     func(ctx context.Context, page Page) error
}

// Attempt runs strategies in order until one succeeds and returns its name.
// Each strategy gets its own deadline so a missing element cannot starve the rest of the chain.
func Attempt(ctx context.Context, page Page, action string, timeout time.Duration, strategies ...Strategy) (string, error) {
	if len(strategies) == 0 {
		return "", fmt.Errorf("%s: no strategies configured", action)
	}

	var errs []error
	for i, strategy := range strategies {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("%s: %w", action, err)
		}

		bound := timeout
		if strategy.Timeout > 0 {
			bound = strategy.Timeout
		}

		log.Debug().
			Str("action", action).
			Str("strategy", strategy.Name).
			Int("position", i+1).
			Dur("timeout", bound).
			Msg("Trying strategy")

		strategyCtx, cancel := context.WithTimeout(ctx, bound)
		err := strategy.Run(strategyCtx, page)
		cancel()

		if err == nil {
			log.Info().
				Str("action", action).
				Str("strategy", strategy.Name).
				Msg("Strategy succeeded")
			return strategy.Name, nil
		}

		log.Debug().
			Err(err).
			Str("action", action).
			Str("strategy", strategy.Name).
			Msg("Strategy failed")
		errs = append(errs, fmt.Errorf("%s: %w", strategy.Name, err))
	}

	return "", fmt.Errorf("%s: all %d strategies failed: %w", action, len(strategies), errors.Join(errs...))
}
