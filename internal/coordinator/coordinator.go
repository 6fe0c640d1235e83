package coordinator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/halcyor/remedy/internal/healthcheck"
	"github.com/halcyor/remedy/internal/metrics"
	"github.com/halcyor/remedy/internal/monitor"
)

const defaultStopTimeout = 10 * time.Second

// Ticker is the minimal interface needed for driving supervision loops.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct {
	ticker *time.Ticker
}

func (t timeTicker) C() <-chan time.Time {
	return t.ticker.C
}

func (t timeTicker) Stop() {
	t.ticker.Stop()
}

// CycleRunner drives supervised services one cycle at a time. The monitor
// implements it.
type CycleRunner interface {
	Services() []string
	StartService(ctx context.Context, name string) error
	StopService(ctx context.Context, name string) error
	RunCycle(ctx context.Context, serviceID string) (monitor.CycleResult, error)
}

// Coordinator runs one supervision loop per registered service. It spawns
// the loops in parallel and waits for context cancellation.
type Coordinator struct {
	logger        zerolog.Logger
	pollInterval  time.Duration
	cycles        CycleRunner
	tracker       *healthcheck.Tracker
	metrics       *metrics.Metrics
	tickerFactory func(time.Duration) Ticker
	stopTimeout   time.Duration

	mu         sync.RWMutex
	loopErrors map[string]error
}

// Option customizes coordinator behavior.
type Option func(*Coordinator)

// WithTickerFactory overrides how tickers are created.
func WithTickerFactory(factory func(time.Duration) Ticker) Option {
	return func(c *Coordinator) {
		c.tickerFactory = factory
	}
}

// WithTracker feeds cycle timing into the given health tracker.
func WithTracker(tracker *healthcheck.Tracker) Option {
	return func(c *Coordinator) {
		c.tracker = tracker
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Coordinator) {
		c.metrics = m
	}
}

// WithStopTimeout bounds how long shutdown waits for workloads to stop.
func WithStopTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.stopTimeout = d
		}
	}
}

// New constructs a Coordinator over the given cycle runner.
func New(logger zerolog.Logger, pollInterval time.Duration, cycles CycleRunner, opts ...Option) *Coordinator {
	c := &Coordinator{
		logger:       logger,
		pollInterval: pollInterval,
		cycles:       cycles,
		tickerFactory: func(d time.Duration) Ticker {
			return timeTicker{ticker: time.NewTicker(d)}
		},
		stopTimeout: defaultStopTimeout,
		loopErrors:  make(map[string]error),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run starts every service, spawns the supervision loops, and blocks until
// the context is canceled. Workloads are stopped before Run returns.
// Returns nil on clean shutdown; per-loop errors are logged internally.
func (c *Coordinator) Run(ctx context.Context) error {
	if c.pollInterval <= 0 {
		return errors.New("poll interval must be greater than zero")
	}

	services := c.cycles.Services()
	c.logger.Info().
		Int("services", len(services)).
		Dur("poll_interval", c.pollInterval).
		Msg("starting coordinator")
	c.tracker.SetSupervised(len(services))

	for _, name := range services {
		if err := c.cycles.StartService(ctx, name); err != nil {
			// The first cycle will observe the fault and drive recovery.
			c.logger.Warn().Err(err).Str("service", name).Msg("initial start failed")
		}
	}

	var wg sync.WaitGroup
	for _, name := range services {
		wg.Add(1)
		go c.superviseLoop(ctx, &wg, name)
	}

	wg.Wait()
	c.logger.Info().Msg("all supervision loops stopped")

	c.stopAll(services)

	c.mu.RLock()
	defer c.mu.RUnlock()
	for name, err := range c.loopErrors {
		if err != nil {
			c.logger.Error().Err(err).Str("service", name).Msg("supervision loop error")
		}
	}

	return nil
}

// superviseLoop drives one service. The first cycle runs immediately, then
// the loop follows the ticker until the context ends.
func (c *Coordinator) superviseLoop(ctx context.Context, wg *sync.WaitGroup, name string) {
	defer wg.Done()

	loopLogger := c.logger.With().Str("service", name).Logger()
	loopLogger.Info().Msg("supervision loop started")

	parked := false
	c.cycleOnce(ctx, loopLogger, name, &parked)

	ticker := c.tickerFactory(c.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			loopLogger.Info().Msg("supervision loop stopped")
			return
		case <-ticker.C():
			c.cycleOnce(ctx, loopLogger, name, &parked)
		}
	}
}

func (c *Coordinator) cycleOnce(ctx context.Context, logger zerolog.Logger, name string, parked *bool) {
	started := time.Now()
	result, err := c.cycles.RunCycle(ctx, name)

	switch {
	case errors.Is(err, monitor.ErrServiceFailed):
		if !*parked {
			logger.Error().Msg("service failed, loop parked until reset")
			*parked = true
		}
		return
	case err != nil:
		logger.Error().Err(err).Msg("supervision cycle error")
		c.recordError(name, err)
		return
	}

	if *parked {
		*parked = false
		logger.Info().Msg("service reset, loop resumed")
	}

	c.tracker.RecordCycle(time.Since(started))
	c.metrics.SetLastSuccessfulCycleTimestamp(time.Now())

	if !result.OK {
		logger.Info().
			Bool("recovered", result.Recovered).
			Str("state", string(result.State)).
			Int("attempts", len(result.Attempts)).
			Msg("cycle completed after recovery")
	}
}

// stopAll stops every workload with a fresh timeout, since the run context
// is already canceled by the time shutdown begins.
func (c *Coordinator) stopAll(services []string) {
	ctx, cancel := context.WithTimeout(context.Background(), c.stopTimeout)
	defer cancel()

	for _, name := range services {
		if err := c.cycles.StopService(ctx, name); err != nil {
			c.logger.Warn().Err(err).Str("service", name).Msg("stop failed during shutdown")
		}
	}
}

func (c *Coordinator) recordError(name string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loopErrors[name] = err
}

// LoopErrors returns a copy of per-service loop errors for testing.
func (c *Coordinator) LoopErrors() map[string]error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make(map[string]error, len(c.loopErrors))
	for k, v := range c.loopErrors {
		result[k] = v
	}
	return result
}
