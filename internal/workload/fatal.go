package workload

import (
	"context"
	"sync"

	"github.com/halcyor/remedy/internal/fault"
)

const defaultFailAt = 10

// Fatal is a workload that suffers an unrecoverable failure on a fixed
// execution. Once degraded it keeps serving in a limited mode, which is
// what the fallback chain relies on for critical faults.
type Fatal struct {
	name   string
	failAt int

	mu         sync.Mutex
	running    bool
	executions int
	degraded   bool
}

// NewFatal creates a workload that fails critically on execution failAt.
// Non-positive values fall back to the default.
func NewFatal(name string, failAt int) *Fatal {
	if failAt <= 0 {
		failAt = defaultFailAt
	}
	return &Fatal{name: name, failAt: failAt}
}

// Name implements service.Runnable.
func (f *Fatal) Name() string {
	return f.name
}

// Start implements service.Runnable.
func (f *Fatal) Start(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.running = true
	f.executions = 0
	return nil
}

// Stop implements service.Runnable.
func (f *Fatal) Stop(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.running = false
	return nil
}

// Execute implements service.Runnable.
func (f *Fatal) Execute(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	// Limited mode keeps responding after a fallback.
	if f.degraded {
		return nil
	}
	if !f.running {
		return errNotRunning
	}

	f.executions++
	if f.executions >= f.failAt {
		return fault.Newf(fault.KindDataCorruption, "unrecoverable corruption at execution %d", f.executions)
	}
	return nil
}

// OnDegraded implements service.Degrader by switching to limited mode.
func (f *Fatal) OnDegraded(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.degraded = true
	return nil
}

// Degraded reports whether the workload is in limited mode.
func (f *Fatal) Degraded() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.degraded
}
