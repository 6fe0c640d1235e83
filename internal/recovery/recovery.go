package recovery

import (
	"context"
	"time"
)

// Strategy names used in attempt records and metrics labels.
const (
	StrategyRetry    = "retry"
	StrategyRestart  = "restart"
	StrategyFallback = "fallback"
)

// Outcome classifies how a strategy attempt ended.
type Outcome string

const (
	OutcomeSucceeded Outcome = "SUCCEEDED"
	OutcomeFailed    Outcome = "FAILED"
	OutcomeSkipped   Outcome = "SKIPPED"
)

// Attempt is the audit record for one strategy execution within an episode.
type Attempt struct {
	Strategy string
	Outcome  Outcome
	Err      error
	Elapsed  time.Duration
	Index    int
}

// Target is the slice of a supervised service that strategies drive. The
// monitor adapts its record and workload pair to this interface; strategies
// never touch lifecycle records directly.
type Target interface {
	Name() string
	Execute(ctx context.Context) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Cleanup(ctx context.Context) error
	Degrade(ctx context.Context) error
}

// Strategy performs one recovery action against a target and reports how
// it went.
type Strategy interface {
	Name() string
	Attempt(ctx context.Context, target Target) Attempt
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
