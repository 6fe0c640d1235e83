package recovery

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

const (
	defaultRetryAttempts  = 3
	defaultRetryBaseDelay = time.Second
)

// RetryStrategy re-executes the failed workload with exponential spacing.
// The first attempt runs immediately; the wait before attempt n doubles
// from the base delay.
type RetryStrategy struct {
	maxAttempts int
	baseDelay   time.Duration
	logger      zerolog.Logger
	sleep       func(ctx context.Context, d time.Duration) bool
}

// RetryOption customizes a RetryStrategy.
type RetryOption func(*RetryStrategy)

// WithRetryAttempts sets how many executions are tried before giving up.
func WithRetryAttempts(n int) RetryOption {
	return func(s *RetryStrategy) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// WithRetryBaseDelay sets the wait before the second attempt.
func WithRetryBaseDelay(d time.Duration) RetryOption {
	return func(s *RetryStrategy) {
		if d > 0 {
			s.baseDelay = d
		}
	}
}

// WithRetryLogger sets the strategy logger.
func WithRetryLogger(logger zerolog.Logger) RetryOption {
	return func(s *RetryStrategy) {
		s.logger = logger
	}
}

// WithRetrySleep overrides the wait primitive.
func WithRetrySleep(fn func(ctx context.Context, d time.Duration) bool) RetryOption {
	return func(s *RetryStrategy) {
		if fn != nil {
			s.sleep = fn
		}
	}
}

// NewRetryStrategy builds a retry strategy with the default schedule.
func NewRetryStrategy(opts ...RetryOption) *RetryStrategy {
	s := &RetryStrategy{
		maxAttempts: defaultRetryAttempts,
		baseDelay:   defaultRetryBaseDelay,
		logger:      zerolog.Nop(),
		sleep:       sleepWithContext,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RetryStrategy) Name() string { return StrategyRetry }

// Attempt runs the workload up to maxAttempts times. Waits between
// executions honor context cancellation.
func (s *RetryStrategy) Attempt(ctx context.Context, target Target) Attempt {
	started := time.Now()
	if ctx.Err() != nil {
		return Attempt{Strategy: StrategyRetry, Outcome: OutcomeSkipped, Err: ctx.Err()}
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = s.baseDelay
	bo.Multiplier = 2
	bo.RandomizationFactor = 0
	bo.MaxInterval = 10 * time.Minute
	bo.MaxElapsedTime = 0
	bo.Reset()

	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		if attempt > 1 {
			wait := bo.NextBackOff()
			if wait == backoff.Stop {
				break
			}
			if !s.sleep(ctx, wait) {
				return Attempt{
					Strategy: StrategyRetry,
					Outcome:  OutcomeFailed,
					Err:      ctx.Err(),
					Elapsed:  time.Since(started),
				}
			}
		}

		err := target.Execute(ctx)
		if err == nil {
			s.logger.Debug().
				Str("service", target.Name()).
				Int("attempt", attempt).
				Msg("retry succeeded")
			return Attempt{Strategy: StrategyRetry, Outcome: OutcomeSucceeded, Elapsed: time.Since(started)}
		}
		lastErr = err
		s.logger.Debug().
			Err(err).
			Str("service", target.Name()).
			Int("attempt", attempt).
			Msg("retry attempt failed")
	}

	return Attempt{
		Strategy: StrategyRetry,
		Outcome:  OutcomeFailed,
		Err:      lastErr,
		Elapsed:  time.Since(started),
	}
}
