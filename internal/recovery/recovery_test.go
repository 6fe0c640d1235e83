package recovery

import (
	"context"
	"time"
)

// stubTarget scripts the workload side of a recovery run and counts calls.
type stubTarget struct {
	name    string
	execute func(ctx context.Context) error
	start   func(ctx context.Context) error
	stop    func(ctx context.Context) error
	cleanup func(ctx context.Context) error
	degrade func(ctx context.Context) error

	executeCalls int
	startCalls   int
	stopCalls    int
	cleanupCalls int
	degradeCalls int
}

func (t *stubTarget) Name() string {
	if t.name == "" {
		return "stub"
	}
	return t.name
}

func (t *stubTarget) Execute(ctx context.Context) error {
	t.executeCalls++
	if t.execute != nil {
		return t.execute(ctx)
	}
	return nil
}

func (t *stubTarget) Start(ctx context.Context) error {
	t.startCalls++
	if t.start != nil {
		return t.start(ctx)
	}
	return nil
}

func (t *stubTarget) Stop(ctx context.Context) error {
	t.stopCalls++
	if t.stop != nil {
		return t.stop(ctx)
	}
	return nil
}

func (t *stubTarget) Cleanup(ctx context.Context) error {
	t.cleanupCalls++
	if t.cleanup != nil {
		return t.cleanup(ctx)
	}
	return nil
}

func (t *stubTarget) Degrade(ctx context.Context) error {
	t.degradeCalls++
	if t.degrade != nil {
		return t.degrade(ctx)
	}
	return nil
}

// recordingSleeper captures requested waits without actually sleeping.
type recordingSleeper struct {
	waits []time.Duration
}

func (r *recordingSleeper) sleep(_ context.Context, d time.Duration) bool {
	r.waits = append(r.waits, d)
	return true
}
