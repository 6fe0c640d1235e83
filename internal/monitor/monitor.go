package monitor

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/halcyor/remedy/internal/detect"
	"github.com/halcyor/remedy/internal/health"
	"github.com/halcyor/remedy/internal/metrics"
	"github.com/halcyor/remedy/internal/recovery"
	"github.com/halcyor/remedy/internal/service"
)

// ErrServiceFailed reports a cycle against a terminal record. The loop
// must stop driving the service until an external reset.
var ErrServiceFailed = errors.New("service failed, reset required")

// TransitionSink consumes lifecycle transition events.
type TransitionSink interface {
	OnTransition(t health.Transition)
}

// record is the monitor-owned state for one supervised service. Each
// record carries its own lock so snapshot reads never tear.
type record struct {
	mu                  sync.Mutex
	workload            service.Runnable
	state               health.LifecycleState
	window              []detect.Outcome
	consecutiveFailures int
	totalInvocations    int
	lastOutcomeAt       time.Time
	clearStateOnRestart bool
}

func (r *record) appendOutcomeLocked(o detect.Outcome) {
	r.window = append(r.window, o)
	if len(r.window) > detect.WindowSize {
		r.window = r.window[len(r.window)-detect.WindowSize:]
	}
}

func (r *record) recentFailuresLocked() int {
	n := 0
	for _, o := range r.window {
		if !o.OK {
			n++
		}
	}
	return n
}

func (r *record) statusLocked(name string) health.ServiceStatus {
	return health.ServiceStatus{
		Service:             name,
		State:               r.state,
		ConsecutiveFailures: r.consecutiveFailures,
		RecentFailures:      r.recentFailuresLocked(),
		TotalInvocations:    r.totalInvocations,
		LastOutcomeAt:       r.lastOutcomeAt,
	}
}

// Monitor owns service records and drives recovery cycles.
type Monitor struct {
	mu      sync.RWMutex
	records map[string]*record

	detector     *detect.Detector
	orchestrator *recovery.Orchestrator
	sink         TransitionSink
	logger       zerolog.Logger
	metrics      *metrics.Metrics
}

// Option customizes a Monitor.
type Option func(*Monitor)

// WithSink sets the transition event consumer.
func WithSink(sink TransitionSink) Option {
	return func(m *Monitor) {
		m.sink = sink
	}
}

// SetSink wires the transition consumer after construction, for sinks that
// themselves read monitor state. Call it before cycles start.
func (m *Monitor) SetSink(sink TransitionSink) {
	m.sink = sink
}

// WithMetrics sets the metrics sink.
func WithMetrics(mx *metrics.Metrics) Option {
	return func(m *Monitor) {
		m.metrics = mx
	}
}

// WithOrchestrator replaces the default recovery orchestrator.
func WithOrchestrator(o *recovery.Orchestrator) Option {
	return func(m *Monitor) {
		m.orchestrator = o
	}
}

// New builds a monitor. The fault detector reads outcome windows straight
// from the monitor's records.
func New(logger zerolog.Logger, opts ...Option) *Monitor {
	m := &Monitor{
		records: make(map[string]*record),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.orchestrator == nil {
		m.orchestrator = recovery.NewOrchestrator(logger)
	}
	m.detector = detect.NewDetector(m, logger)
	return m
}

// RegisterOption customizes one registration.
type RegisterOption func(*record)

// WithClearStateOnRestart makes restarts clear the workload's volatile
// state when the workload supports it.
func WithClearStateOnRestart() RegisterOption {
	return func(r *record) {
		r.clearStateOnRestart = true
	}
}

// Register adds a workload under supervision. The record starts healthy
// with an empty outcome window.
func (m *Monitor) Register(workload service.Runnable, opts ...RegisterOption) error {
	name := workload.Name()
	if name == "" {
		return errors.New("service name must not be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.records[name]; exists {
		return fmt.Errorf("service %q already registered", name)
	}
	rec := &record{workload: workload, state: health.StateHealthy}
	for _, opt := range opts {
		opt(rec)
	}
	m.records[name] = rec

	m.logger.Info().Str("service", name).Msg("service registered")
	return nil
}

// Unregister removes a service and its history.
func (m *Monitor) Unregister(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.records[name]; !exists {
		return fmt.Errorf("service %q not registered", name)
	}
	delete(m.records, name)
	m.logger.Info().Str("service", name).Msg("service unregistered")
	return nil
}

// Services lists registered service names in stable order.
func (m *Monitor) Services() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.records))
	for name := range m.records {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// StartService starts the underlying workload.
func (m *Monitor) StartService(ctx context.Context, name string) error {
	rec, ok := m.lookup(name)
	if !ok {
		return fmt.Errorf("service %q not registered", name)
	}
	if err := rec.workload.Start(ctx); err != nil {
		m.logger.Error().Err(err).Str("service", name).Msg("start failed")
		return err
	}
	m.logger.Info().Str("service", name).Msg("service started")
	return nil
}

// StopService stops the underlying workload.
func (m *Monitor) StopService(ctx context.Context, name string) error {
	rec, ok := m.lookup(name)
	if !ok {
		return fmt.Errorf("service %q not registered", name)
	}
	if err := rec.workload.Stop(ctx); err != nil {
		m.logger.Error().Err(err).Str("service", name).Msg("stop failed")
		return err
	}
	m.logger.Info().Str("service", name).Msg("service stopped")
	return nil
}

// Reset returns a failed or degraded service to healthy and clears its
// history. This is the only way out of the failed state.
func (m *Monitor) Reset(name string) error {
	rec, ok := m.lookup(name)
	if !ok {
		return fmt.Errorf("service %q not registered", name)
	}

	rec.mu.Lock()
	from := rec.state
	rec.state = health.StateHealthy
	rec.window = nil
	rec.consecutiveFailures = 0
	rec.mu.Unlock()

	m.logger.Info().
		Str("service", name).
		Str("from", string(from)).
		Msg("service reset")

	if from != health.StateHealthy {
		m.emit(health.Transition{Service: name, From: from, To: health.StateHealthy, At: time.Now()})
	}
	return nil
}

// Window returns a copy of the service's recent outcome window.
func (m *Monitor) Window(serviceID string) ([]detect.Outcome, bool) {
	rec, ok := m.lookup(serviceID)
	if !ok {
		return nil, false
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	out := make([]detect.Outcome, len(rec.window))
	copy(out, rec.window)
	return out, true
}

// Statuses returns point-in-time copies of every record, ordered by name.
func (m *Monitor) Statuses() []health.ServiceStatus {
	m.mu.RLock()
	names := make([]string, 0, len(m.records))
	recs := make(map[string]*record, len(m.records))
	for name, rec := range m.records {
		names = append(names, name)
		recs[name] = rec
	}
	m.mu.RUnlock()
	sort.Strings(names)

	statuses := make([]health.ServiceStatus, 0, len(names))
	for _, name := range names {
		rec := recs[name]
		rec.mu.Lock()
		statuses = append(statuses, rec.statusLocked(name))
		rec.mu.Unlock()
	}
	return statuses
}

// Status returns one service's point-in-time copy.
func (m *Monitor) Status(name string) (health.ServiceStatus, bool) {
	rec, ok := m.lookup(name)
	if !ok {
		return health.ServiceStatus{}, false
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.statusLocked(name), true
}

func (m *Monitor) lookup(name string) (*record, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[name]
	return rec, ok
}

func (m *Monitor) emit(t health.Transition) {
	if m.sink == nil {
		return
	}
	m.sink.OnTransition(t)
}
