package recovery

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

const defaultRestartDelay = 500 * time.Millisecond

// RestartStrategy stops the workload, clears its volatile state through the
// target's cleanup, pauses, and starts it again. Stop and cleanup failures
// are logged but do not fail the attempt; only the start matters.
type RestartStrategy struct {
	delay  time.Duration
	logger zerolog.Logger
	sleep  func(ctx context.Context, d time.Duration) bool
}

// RestartOption customizes a RestartStrategy.
type RestartOption func(*RestartStrategy)

// WithRestartDelay sets the pause between stop and start.
func WithRestartDelay(d time.Duration) RestartOption {
	return func(s *RestartStrategy) {
		if d >= 0 {
			s.delay = d
		}
	}
}

// WithRestartLogger sets the strategy logger.
func WithRestartLogger(logger zerolog.Logger) RestartOption {
	return func(s *RestartStrategy) {
		s.logger = logger
	}
}

// WithRestartSleep overrides the wait primitive.
func WithRestartSleep(fn func(ctx context.Context, d time.Duration) bool) RestartOption {
	return func(s *RestartStrategy) {
		if fn != nil {
			s.sleep = fn
		}
	}
}

// NewRestartStrategy builds a restart strategy with the default pause.
func NewRestartStrategy(opts ...RestartOption) *RestartStrategy {
	s := &RestartStrategy{
		delay:  defaultRestartDelay,
		logger: zerolog.Nop(),
		sleep:  sleepWithContext,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RestartStrategy) Name() string { return StrategyRestart }

func (s *RestartStrategy) Attempt(ctx context.Context, target Target) Attempt {
	started := time.Now()
	if ctx.Err() != nil {
		return Attempt{Strategy: StrategyRestart, Outcome: OutcomeSkipped, Err: ctx.Err()}
	}

	if err := target.Stop(ctx); err != nil {
		s.logger.Warn().
			Err(err).
			Str("service", target.Name()).
			Msg("stop failed during restart")
	}
	if err := target.Cleanup(ctx); err != nil {
		s.logger.Warn().
			Err(err).
			Str("service", target.Name()).
			Msg("cleanup failed during restart")
	}

	if s.delay > 0 && !s.sleep(ctx, s.delay) {
		return Attempt{
			Strategy: StrategyRestart,
			Outcome:  OutcomeFailed,
			Err:      ctx.Err(),
			Elapsed:  time.Since(started),
		}
	}

	if err := target.Start(ctx); err != nil {
		return Attempt{
			Strategy: StrategyRestart,
			Outcome:  OutcomeFailed,
			Err:      err,
			Elapsed:  time.Since(started),
		}
	}
	return Attempt{Strategy: StrategyRestart, Outcome: OutcomeSucceeded, Elapsed: time.Since(started)}
}
