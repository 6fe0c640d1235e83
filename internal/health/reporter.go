package health

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/halcyor/remedy/internal/metrics"
	"github.com/halcyor/remedy/internal/recovery"
)

const (
	defaultAlertBuffer   = 64
	defaultJournalSize   = 128
	maxAlertBatch        = 16
	recentFailureAlertAt = 5
)

// StatusSource provides point-in-time copies of service records.
type StatusSource interface {
	Statuses() []ServiceStatus
}

// Notifier delivers alerts. Implementations live in the notify package.
type Notifier interface {
	Notify(ctx context.Context, alerts []Alert) error
}

// Reporter aggregates service statuses into system snapshots and raises
// alerts on lifecycle transitions. Alert delivery is asynchronous so a
// slow sink never blocks a supervision cycle.
type Reporter struct {
	source   StatusSource
	notifier Notifier
	logger   zerolog.Logger
	metrics  *metrics.Metrics

	mu          sync.Mutex
	journal     []Transition
	journalSize int
	lastOverall SystemHealth

	alertCh chan Alert
}

// ReporterOption customizes a Reporter.
type ReporterOption func(*Reporter)

// WithNotifier sets the alert sink.
func WithNotifier(n Notifier) ReporterOption {
	return func(r *Reporter) {
		r.notifier = n
	}
}

// WithLogger sets the reporter logger.
func WithLogger(logger zerolog.Logger) ReporterOption {
	return func(r *Reporter) {
		r.logger = logger
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) ReporterOption {
	return func(r *Reporter) {
		r.metrics = m
	}
}

// WithAlertBuffer sets the pending-alert channel capacity.
func WithAlertBuffer(n int) ReporterOption {
	return func(r *Reporter) {
		if n > 0 {
			r.alertCh = make(chan Alert, n)
		}
	}
}

// WithJournalSize bounds the in-memory transition journal.
func WithJournalSize(n int) ReporterOption {
	return func(r *Reporter) {
		if n > 0 {
			r.journalSize = n
		}
	}
}

// NewReporter builds a reporter over the given status source.
func NewReporter(source StatusSource, opts ...ReporterOption) *Reporter {
	r := &Reporter{
		source:      source,
		logger:      zerolog.Nop(),
		journalSize: defaultJournalSize,
		lastOverall: SystemHealthy,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.alertCh == nil {
		r.alertCh = make(chan Alert, defaultAlertBuffer)
	}
	return r
}

// Report builds a snapshot from current statuses. It never mutates the
// records it reads.
func (r *Reporter) Report() Snapshot {
	statuses := r.source.Statuses()
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Service < statuses[j].Service })

	snap := Snapshot{
		Overall:     EvaluateSystem(statuses),
		Services:    statuses,
		GeneratedAt: time.Now(),
	}
	for _, status := range statuses {
		switch status.State {
		case StateHealthy:
			snap.Counts.Healthy++
		case StateDegraded:
			snap.Counts.Degraded++
		case StateFailed:
			snap.Counts.Failed++
		case StateRestarting:
			snap.Counts.Restarting++
		}
	}

	r.metrics.SetServicesTotal(string(StateHealthy), snap.Counts.Healthy)
	r.metrics.SetServicesTotal(string(StateDegraded), snap.Counts.Degraded)
	r.metrics.SetServicesTotal(string(StateFailed), snap.Counts.Failed)
	r.metrics.SetServicesTotal(string(StateRestarting), snap.Counts.Restarting)

	return snap
}

// OnTransition journals a lifecycle change and raises whatever alerts it
// warrants.
func (r *Reporter) OnTransition(t Transition) {
	if t.At.IsZero() {
		t.At = time.Now()
	}

	r.mu.Lock()
	r.journal = append(r.journal, t)
	if len(r.journal) > r.journalSize {
		r.journal = r.journal[len(r.journal)-r.journalSize:]
	}
	r.mu.Unlock()

	r.logger.Info().
		Str("service", t.Service).
		Str("from", string(t.From)).
		Str("to", string(t.To)).
		Str("severity", string(t.Severity)).
		Int("attempts", len(t.Attempts)).
		Msg("lifecycle transition")

	if t.To == StateFailed && t.From != StateFailed {
		r.raise(Alert{
			At:       t.At,
			Severity: AlertCritical,
			Service:  t.Service,
			State:    t.To,
			Summary:  fmt.Sprintf("service %s failed, recovery exhausted", t.Service),
			Detail:   episodeSummary(t.Attempts),
		})
	}
	if t.To == StateDegraded && t.From != StateDegraded {
		r.raise(Alert{
			At:       t.At,
			Severity: AlertWarning,
			Service:  t.Service,
			State:    t.To,
			Summary:  fmt.Sprintf("service %s running in degraded mode", t.Service),
			Detail:   episodeSummary(t.Attempts),
		})
	}

	if status, ok := r.lookup(t.Service); ok {
		if status.RecentFailures >= recentFailureAlertAt && status.State != StateFailed {
			r.raise(Alert{
				At:       t.At,
				Severity: AlertWarning,
				Service:  t.Service,
				State:    status.State,
				Summary:  fmt.Sprintf("service %s failed %d recent cycles", t.Service, status.RecentFailures),
			})
		}
	}

	overall := EvaluateSystem(r.source.Statuses())
	r.mu.Lock()
	prev := r.lastOverall
	r.lastOverall = overall
	r.mu.Unlock()

	switch {
	case systemRank(overall) > systemRank(prev):
		sev := AlertWarning
		if overall == SystemCritical {
			sev = AlertCritical
		}
		r.raise(Alert{
			At:       t.At,
			Severity: sev,
			Summary:  fmt.Sprintf("system health moved from %s to %s", prev, overall),
		})
	case systemRank(overall) < systemRank(prev):
		r.logger.Info().
			Str("from", string(prev)).
			Str("to", string(overall)).
			Msg("system health improved")
	}
}

// Transitions returns a copy of the journal, oldest first.
func (r *Reporter) Transitions() []Transition {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Transition, len(r.journal))
	copy(out, r.journal)
	return out
}

// Run dispatches queued alerts to the notifier until the context ends.
func (r *Reporter) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case alert := <-r.alertCh:
			alerts := r.drainPending([]Alert{alert})
			r.deliver(ctx, alerts)
		}
	}
}

func (r *Reporter) drainPending(alerts []Alert) []Alert {
	for len(alerts) < maxAlertBatch {
		select {
		case alert := <-r.alertCh:
			alerts = append(alerts, alert)
		default:
			return alerts
		}
	}
	return alerts
}

func (r *Reporter) deliver(ctx context.Context, alerts []Alert) {
	if r.notifier == nil {
		return
	}
	if err := r.notifier.Notify(ctx, alerts); err != nil {
		r.logger.Error().
			Err(err).
			Int("alerts", len(alerts)).
			Msg("alert delivery failed")
	}
}

func (r *Reporter) raise(alert Alert) {
	alert.ID = uuid.NewString()
	if alert.At.IsZero() {
		alert.At = time.Now()
	}
	r.metrics.IncAlertsTotal(string(alert.Severity))
	select {
	case r.alertCh <- alert:
	default:
		r.logger.Warn().
			Str("summary", alert.Summary).
			Msg("alert buffer full, dropping alert")
	}
}

func (r *Reporter) lookup(serviceID string) (ServiceStatus, bool) {
	for _, status := range r.source.Statuses() {
		if status.Service == serviceID {
			return status, true
		}
	}
	return ServiceStatus{}, false
}

func episodeSummary(attempts []recovery.Attempt) string {
	if len(attempts) == 0 {
		return ""
	}
	parts := make([]string, 0, len(attempts))
	for _, a := range attempts {
		parts = append(parts, fmt.Sprintf("%s %s", a.Strategy, strings.ToLower(string(a.Outcome))))
	}
	return "recovery: " + strings.Join(parts, ", ")
}

// RenderText formats a snapshot as an operator-readable report.
func RenderText(s Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "overall %s  healthy %d  degraded %d  failed %d  restarting %d\n",
		s.Overall, s.Counts.Healthy, s.Counts.Degraded, s.Counts.Failed, s.Counts.Restarting)
	for _, svc := range s.Services {
		fmt.Fprintf(&b, "  %-24s %-11s consecutive_failures=%d recent_failures=%d invocations=%d\n",
			svc.Service, svc.State, svc.ConsecutiveFailures, svc.RecentFailures, svc.TotalInvocations)
	}
	return b.String()
}
