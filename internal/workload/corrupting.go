package workload

import (
	"context"
	"sync"

	"github.com/halcyor/remedy/internal/fault"
)

const defaultCorruptionThreshold = 5

// Corrupting is a workload whose internal state degrades with use: after
// a fixed number of operations since the last start it reports state
// corruption until restarted. It also accumulates scratch data across
// restarts which only Cleanup clears, so it exercises the optional
// clear-state path of the restart chain.
type Corrupting struct {
	name      string
	threshold int

	mu           sync.Mutex
	running      bool
	executions   int
	sinceRestart int
	scratch      int
}

// NewCorrupting creates a workload that corrupts after threshold
// operations. Non-positive thresholds fall back to the default.
func NewCorrupting(name string, threshold int) *Corrupting {
	if threshold <= 0 {
		threshold = defaultCorruptionThreshold
	}
	return &Corrupting{name: name, threshold: threshold}
}

// Name implements service.Runnable.
func (c *Corrupting) Name() string {
	return c.name
}

// Start implements service.Runnable.
func (c *Corrupting) Start(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = true
	c.sinceRestart = 0
	return nil
}

// Stop implements service.Runnable.
func (c *Corrupting) Stop(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = false
	return nil
}

// Execute implements service.Runnable.
func (c *Corrupting) Execute(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return errNotRunning
	}

	c.executions++
	c.sinceRestart++
	c.scratch++

	if c.sinceRestart >= c.threshold {
		return fault.Newf(fault.KindStateCorruption, "state corrupted after %d operations", c.sinceRestart)
	}
	return nil
}

// Cleanup implements service.Cleaner by discarding accumulated scratch data.
func (c *Corrupting) Cleanup(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scratch = 0
	return nil
}

// Scratch reports the scratch entries accumulated since the last cleanup.
func (c *Corrupting) Scratch() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scratch
}
