package service

import "context"

// Runnable is the contract a supervised workload implements. Execute
// performs one unit of periodic work; Start and Stop bracket the workload's
// availability.
type Runnable interface {
	Name() string
	Execute(ctx context.Context) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Cleaner is implemented by workloads that can clear volatile state while
// being restarted.
type Cleaner interface {
	Cleanup(ctx context.Context) error
}

// Degrader is implemented by workloads that can switch to a reduced
// functionality mode when fallback engages.
type Degrader interface {
	OnDegraded(ctx context.Context) error
}
