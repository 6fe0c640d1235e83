package recovery

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// FallbackStrategy moves the service into degraded mode instead of trying
// to restore full function. Degrade runs the workload's degraded-mode hook
// when it has one; a hook failure fails the attempt.
type FallbackStrategy struct {
	logger zerolog.Logger
}

// NewFallbackStrategy builds a fallback strategy.
func NewFallbackStrategy(logger zerolog.Logger) *FallbackStrategy {
	return &FallbackStrategy{logger: logger}
}

func (s *FallbackStrategy) Name() string { return StrategyFallback }

func (s *FallbackStrategy) Attempt(ctx context.Context, target Target) Attempt {
	started := time.Now()
	if ctx.Err() != nil {
		return Attempt{Strategy: StrategyFallback, Outcome: OutcomeSkipped, Err: ctx.Err()}
	}

	if err := target.Degrade(ctx); err != nil {
		s.logger.Warn().
			Err(err).
			Str("service", target.Name()).
			Msg("degraded-mode hook failed")
		return Attempt{
			Strategy: StrategyFallback,
			Outcome:  OutcomeFailed,
			Err:      err,
			Elapsed:  time.Since(started),
		}
	}
	s.logger.Info().
		Str("service", target.Name()).
		Msg("service moved to degraded mode")
	return Attempt{Strategy: StrategyFallback, Outcome: OutcomeSucceeded, Elapsed: time.Since(started)}
}
