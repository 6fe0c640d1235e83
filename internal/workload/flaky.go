package workload

import (
	"context"
	"math/rand/v2"
	"sync"

	"github.com/halcyor/remedy/internal/fault"
)

const defaultFailureRate = 0.3

// Flaky is a workload that times out at random, modeling an unreliable
// network dependency. Failures are transient and clear on their own, so
// the retry chain is usually enough.
type Flaky struct {
	name        string
	failureRate float64
	roll        func() float64

	mu         sync.Mutex
	running    bool
	executions int
	failures   int
}

// FlakyOption customizes Flaky behavior.
type FlakyOption func(*Flaky)

// WithFlakyRoll overrides the random source (primarily for testing).
func WithFlakyRoll(roll func() float64) FlakyOption {
	return func(f *Flaky) {
		f.roll = roll
	}
}

// NewFlaky creates a workload that fails with the given probability per
// execution. Rates outside [0, 1] are clamped.
func NewFlaky(name string, failureRate float64, opts ...FlakyOption) *Flaky {
	if failureRate < 0 {
		failureRate = 0
	}
	if failureRate > 1 {
		failureRate = 1
	}

	f := &Flaky{
		name:        name,
		failureRate: failureRate,
		roll:        rand.Float64,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Name implements service.Runnable.
func (f *Flaky) Name() string {
	return f.name
}

// Start implements service.Runnable.
func (f *Flaky) Start(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.running = true
	f.executions = 0
	f.failures = 0
	return nil
}

// Stop implements service.Runnable.
func (f *Flaky) Stop(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.running = false
	return nil
}

// Execute implements service.Runnable.
func (f *Flaky) Execute(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.running {
		return errNotRunning
	}

	f.executions++
	if f.roll() < f.failureRate {
		f.failures++
		return fault.Newf(fault.KindNetworkTimeout, "network timeout on execution %d", f.executions)
	}
	return nil
}

// Counts reports executions and failures since the last start.
func (f *Flaky) Counts() (executions, failures int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.executions, f.failures
}
