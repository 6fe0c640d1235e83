package recovery

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/halcyor/remedy/internal/fault"
)

// Episode is the ordered record of one recovery run for a classified fault.
type Episode struct {
	Severity   fault.Severity
	Attempts   []Attempt
	Resolved   bool
	ResolvedBy string
}

// Orchestrator owns the severity to strategy-chain table and runs chains in
// order, stopping at the first success. It never mutates lifecycle state;
// interpreting an exhausted episode is the caller's job.
type Orchestrator struct {
	chains map[fault.Severity][]Strategy
	logger zerolog.Logger
}

// OrchestratorOption customizes an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithChains replaces the severity to chain table.
func WithChains(chains map[fault.Severity][]Strategy) OrchestratorOption {
	return func(o *Orchestrator) {
		o.chains = chains
	}
}

// WithStrategySet rebuilds the standard table from the given strategies.
func WithStrategySet(retry, restart, fallback Strategy) OrchestratorOption {
	return func(o *Orchestrator) {
		o.chains = standardChains(retry, restart, fallback)
	}
}

// NewOrchestrator builds an orchestrator with the standard chain table:
// transient faults try retry then restart, recoverable faults try restart
// then fallback, critical faults go straight to fallback.
func NewOrchestrator(logger zerolog.Logger, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{logger: logger}
	for _, opt := range opts {
		opt(o)
	}
	if o.chains == nil {
		retry := NewRetryStrategy(WithRetryLogger(logger))
		restart := NewRestartStrategy(WithRestartLogger(logger))
		fallback := NewFallbackStrategy(logger)
		o.chains = standardChains(retry, restart, fallback)
	}
	return o
}

func standardChains(retry, restart, fallback Strategy) map[fault.Severity][]Strategy {
	return map[fault.Severity][]Strategy{
		fault.SeverityTransient:   {retry, restart},
		fault.SeverityRecoverable: {restart, fallback},
		fault.SeverityCritical:    {fallback},
	}
}

// Recover runs the chain for the given severity against the target. The
// returned episode lists every attempt in order with 1-based indices. A
// context cancelled before a strategy begins records a skipped attempt and
// ends the episode.
func (o *Orchestrator) Recover(ctx context.Context, sev fault.Severity, target Target) Episode {
	episode := Episode{Severity: sev}
	for i, strategy := range o.chains[sev] {
		if ctx.Err() != nil {
			episode.Attempts = append(episode.Attempts, Attempt{
				Strategy: strategy.Name(),
				Outcome:  OutcomeSkipped,
				Err:      ctx.Err(),
				Index:    i + 1,
			})
			break
		}

		attempt := o.runStrategy(ctx, strategy, target)
		attempt.Index = i + 1
		episode.Attempts = append(episode.Attempts, attempt)

		o.logger.Info().
			Str("service", target.Name()).
			Str("severity", string(sev)).
			Str("strategy", attempt.Strategy).
			Str("outcome", string(attempt.Outcome)).
			Dur("elapsed", attempt.Elapsed).
			Msg("recovery attempt finished")

		if attempt.Outcome == OutcomeSucceeded {
			episode.Resolved = true
			episode.ResolvedBy = strategy.Name()
			break
		}
		if attempt.Outcome == OutcomeSkipped {
			break
		}
	}
	return episode
}

// runStrategy shields the episode from a panicking strategy.
func (o *Orchestrator) runStrategy(ctx context.Context, strategy Strategy, target Target) (attempt Attempt) {
	defer func() {
		if r := recover(); r != nil {
			attempt = Attempt{
				Strategy: strategy.Name(),
				Outcome:  OutcomeFailed,
				Err:      fmt.Errorf("strategy panic: %v", r),
			}
		}
	}()
	return strategy.Attempt(ctx, target)
}
