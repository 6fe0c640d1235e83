package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics wraps Prometheus collectors for remedy.
type Metrics struct {
	registry                 *prometheus.Registry
	cycleDurationSeconds     prometheus.Histogram
	servicesTotal            *prometheus.GaugeVec
	faultsTotal              *prometheus.CounterVec
	recoveryAttemptsTotal    *prometheus.CounterVec
	escalationsTotal         prometheus.Counter
	alertsTotal              *prometheus.CounterVec
	lastSuccessfulCycleGauge prometheus.Gauge
}

// New initializes a Metrics registry with all collectors registered.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		cycleDurationSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "remedy_cycle_duration_seconds",
			Help:    "Duration of supervision cycles in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		servicesTotal: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "remedy_services_total",
			Help: "Supervised services by lifecycle state.",
		}, []string{"state"}),
		faultsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "remedy_faults_total",
			Help: "Classified faults by kind and severity.",
		}, []string{"kind", "severity"}),
		recoveryAttemptsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "remedy_recovery_attempts_total",
			Help: "Recovery attempts by strategy and outcome.",
		}, []string{"strategy", "outcome"}),
		escalationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "remedy_escalations_total",
			Help: "Severity escalations after full failure windows.",
		}),
		alertsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "remedy_alerts_total",
			Help: "Alerts raised by severity.",
		}, []string{"severity"}),
		lastSuccessfulCycleGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "remedy_last_successful_cycle_timestamp",
			Help: "Unix timestamp of the last completed cycle.",
		}),
	}

	registry.MustRegister(
		m.cycleDurationSeconds,
		m.servicesTotal,
		m.faultsTotal,
		m.recoveryAttemptsTotal,
		m.escalationsTotal,
		m.alertsTotal,
		m.lastSuccessfulCycleGauge,
	)

	return m
}

// Handler returns a Prometheus HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveCycleDuration records the duration of a completed cycle.
func (m *Metrics) ObserveCycleDuration(duration time.Duration) {
	if m == nil {
		return
	}
	m.cycleDurationSeconds.Observe(duration.Seconds())
}

// SetServicesTotal sets the services gauge for the given lifecycle state.
func (m *Metrics) SetServicesTotal(state string, value int) {
	if m == nil {
		return
	}
	m.servicesTotal.WithLabelValues(state).Set(float64(value))
}

// IncFaultsTotal increments the fault counter for the given kind/severity.
func (m *Metrics) IncFaultsTotal(kind string, severity string) {
	if m == nil {
		return
	}
	m.faultsTotal.WithLabelValues(kind, severity).Inc()
}

// IncRecoveryAttempts increments the attempt counter for one strategy run.
func (m *Metrics) IncRecoveryAttempts(strategy string, outcome string) {
	if m == nil {
		return
	}
	m.recoveryAttemptsTotal.WithLabelValues(strategy, outcome).Inc()
}

// IncEscalations increments the escalation counter.
func (m *Metrics) IncEscalations() {
	if m == nil {
		return
	}
	m.escalationsTotal.Inc()
}

// IncAlertsTotal increments the alerts counter for the given severity.
func (m *Metrics) IncAlertsTotal(severity string) {
	if m == nil {
		return
	}
	m.alertsTotal.WithLabelValues(severity).Inc()
}

// SetLastSuccessfulCycleTimestamp sets the last completed cycle time.
func (m *Metrics) SetLastSuccessfulCycleTimestamp(t time.Time) {
	if m == nil {
		return
	}
	m.lastSuccessfulCycleGauge.Set(float64(t.Unix()))
}
