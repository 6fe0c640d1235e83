package workload

import (
	"context"
	"sync"
)

// Stable is a workload that runs reliably without failures.
type Stable struct {
	name string

	mu         sync.Mutex
	running    bool
	executions int
}

// NewStable creates a workload that always succeeds.
func NewStable(name string) *Stable {
	return &Stable{name: name}
}

// Name implements service.Runnable.
func (s *Stable) Name() string {
	return s.name
}

// Start implements service.Runnable.
func (s *Stable) Start(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = true
	s.executions = 0
	return nil
}

// Stop implements service.Runnable.
func (s *Stable) Stop(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	return nil
}

// Execute implements service.Runnable.
func (s *Stable) Execute(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return errNotRunning
	}
	s.executions++
	return nil
}

// Executions reports how many times the workload has run since its last start.
func (s *Stable) Executions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.executions
}
