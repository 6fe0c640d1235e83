package workload

import (
	"context"
	"math/rand/v2"
	"sync"

	"github.com/halcyor/remedy/internal/fault"
)

// Failure mix for Intermittent; the remainder (~73%) succeeds.
const (
	intermittentCriticalProb    = 0.02
	intermittentRecoverableProb = 0.10
	intermittentTransientProb   = 0.15
)

// Intermittent is a workload that randomly mixes success with transient,
// recoverable, and (rarely) critical faults. It drives the full
// classification and recovery pipeline end to end.
type Intermittent struct {
	name string
	roll func() float64

	mu         sync.Mutex
	running    bool
	executions int
}

// IntermittentOption customizes Intermittent behavior.
type IntermittentOption func(*Intermittent)

// WithIntermittentRoll overrides the random source (primarily for testing).
func WithIntermittentRoll(roll func() float64) IntermittentOption {
	return func(i *Intermittent) {
		i.roll = roll
	}
}

// NewIntermittent creates a workload with a mixed failure profile.
func NewIntermittent(name string, opts ...IntermittentOption) *Intermittent {
	i := &Intermittent{
		name: name,
		roll: rand.Float64,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Name implements service.Runnable.
func (i *Intermittent) Name() string {
	return i.name
}

// Start implements service.Runnable.
func (i *Intermittent) Start(_ context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.running = true
	i.executions = 0
	return nil
}

// Stop implements service.Runnable.
func (i *Intermittent) Stop(_ context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.running = false
	return nil
}

// Execute implements service.Runnable.
func (i *Intermittent) Execute(_ context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if !i.running {
		return errNotRunning
	}

	i.executions++
	roll := i.roll()

	switch {
	case roll < intermittentCriticalProb:
		return fault.New(fault.KindSecurityViolation, "unauthorized state mutation detected")
	case roll < intermittentCriticalProb+intermittentRecoverableProb:
		return fault.New(fault.KindStateCorruption, "random state corruption")
	case roll < intermittentCriticalProb+intermittentRecoverableProb+intermittentTransientProb:
		return fault.New(fault.KindNetworkTimeout, "random network timeout")
	}
	return nil
}
