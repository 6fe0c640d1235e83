package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/halcyor/remedy/internal/detect"
	"github.com/halcyor/remedy/internal/fault"
	"github.com/halcyor/remedy/internal/health"
	"github.com/halcyor/remedy/internal/recovery"
	"github.com/halcyor/remedy/internal/service"
)

// CycleResult summarizes one supervision cycle.
type CycleResult struct {
	Service   string
	OK        bool
	Recovered bool
	State     health.LifecycleState
	Severity  fault.Severity
	Attempts  []recovery.Attempt
}

// RunCycle executes one unit of the service's work and, on failure,
// classifies the fault and runs the recovery chain. The caller owns the
// pacing; records are only mutated here and in Reset.
func (m *Monitor) RunCycle(ctx context.Context, serviceID string) (CycleResult, error) {
	rec, ok := m.lookup(serviceID)
	if !ok {
		return CycleResult{}, fmt.Errorf("service %q not registered", serviceID)
	}

	rec.mu.Lock()
	if rec.state == health.StateFailed {
		rec.mu.Unlock()
		return CycleResult{Service: serviceID, State: health.StateFailed}, ErrServiceFailed
	}
	from := rec.state
	workload := rec.workload
	rec.mu.Unlock()

	started := time.Now()
	execErr := m.execute(ctx, workload)
	m.metrics.ObserveCycleDuration(time.Since(started))

	if execErr == nil {
		rec.mu.Lock()
		rec.totalInvocations++
		rec.lastOutcomeAt = time.Now()
		rec.appendOutcomeLocked(detect.Outcome{At: rec.lastOutcomeAt, OK: true})
		rec.consecutiveFailures = 0
		state := rec.state
		rec.mu.Unlock()
		return CycleResult{Service: serviceID, OK: true, State: state}, nil
	}

	kind := fault.KindOf(execErr)
	now := time.Now()
	rec.mu.Lock()
	rec.totalInvocations++
	rec.lastOutcomeAt = now
	rec.appendOutcomeLocked(detect.Outcome{At: now, OK: false, Kind: kind})
	rec.consecutiveFailures++
	consecutive := rec.consecutiveFailures
	rec.mu.Unlock()

	classification, err := m.detector.Classify(serviceID, execErr)
	if err != nil {
		m.logger.Error().Err(err).Str("service", serviceID).Msg("classification failed")
		return CycleResult{}, err
	}
	m.metrics.IncFaultsTotal(string(classification.Kind), string(classification.Severity))
	if classification.Escalated {
		m.metrics.IncEscalations()
	}

	m.logger.Warn().
		Err(execErr).
		Str("service", serviceID).
		Str("kind", string(classification.Kind)).
		Str("severity", string(classification.Severity)).
		Bool("escalated", classification.Escalated).
		Int("consecutive_failures", consecutive).
		Msg("cycle failed, starting recovery")

	rec.mu.Lock()
	rec.state = health.StateRestarting
	rec.mu.Unlock()

	episode := m.orchestrator.Recover(ctx, classification.Severity, &target{monitor: m, rec: rec, name: serviceID})
	for _, attempt := range episode.Attempts {
		m.metrics.IncRecoveryAttempts(attempt.Strategy, string(attempt.Outcome))
	}

	to := resolveState(from, episode)
	rec.mu.Lock()
	rec.state = to
	rec.mu.Unlock()

	if to == health.StateFailed {
		m.logger.Error().
			Str("service", serviceID).
			Str("severity", string(classification.Severity)).
			Msg("recovery exhausted, service failed")
	}

	m.emit(health.Transition{
		Service:  serviceID,
		From:     from,
		To:       to,
		Severity: classification.Severity,
		Attempts: episode.Attempts,
		At:       time.Now(),
	})

	return CycleResult{
		Service:   serviceID,
		Recovered: episode.Resolved,
		State:     to,
		Severity:  classification.Severity,
		Attempts:  episode.Attempts,
	}, nil
}

// resolveState maps an episode outcome onto the lifecycle. Degraded is
// sticky: only a successful restart restores full health.
func resolveState(from health.LifecycleState, episode recovery.Episode) health.LifecycleState {
	switch {
	case !episode.Resolved:
		return health.StateFailed
	case episode.ResolvedBy == recovery.StrategyFallback:
		return health.StateDegraded
	case episode.ResolvedBy == recovery.StrategyRestart:
		return health.StateHealthy
	default:
		if from == health.StateDegraded {
			return health.StateDegraded
		}
		return health.StateHealthy
	}
}

// execute shields the cycle from a panicking workload.
func (m *Monitor) execute(ctx context.Context, workload service.Runnable) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fault.Newf(fault.KindUnknown, "workload panic: %v", r)
		}
	}()
	return workload.Execute(ctx)
}

// target adapts a record and its workload to the strategy-facing surface.
type target struct {
	monitor *Monitor
	rec     *record
	name    string
}

func (t *target) Name() string { return t.name }

func (t *target) Execute(ctx context.Context) error {
	return t.monitor.execute(ctx, t.rec.workload)
}

func (t *target) Start(ctx context.Context) error {
	return t.rec.workload.Start(ctx)
}

func (t *target) Stop(ctx context.Context) error {
	return t.rec.workload.Stop(ctx)
}

func (t *target) Cleanup(ctx context.Context) error {
	if !t.rec.clearStateOnRestart {
		return nil
	}
	cleaner, ok := t.rec.workload.(service.Cleaner)
	if !ok {
		return nil
	}
	return cleaner.Cleanup(ctx)
}

// Degrade runs the workload's degraded-mode hook and, only when it
// succeeds, moves the record to degraded.
func (t *target) Degrade(ctx context.Context) error {
	if degrader, ok := t.rec.workload.(service.Degrader); ok {
		if err := degrader.OnDegraded(ctx); err != nil {
			return err
		}
	}
	t.rec.mu.Lock()
	t.rec.state = health.StateDegraded
	t.rec.mu.Unlock()
	return nil
}
