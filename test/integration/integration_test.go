//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/halcyor/remedy/internal/coordinator"
	"github.com/halcyor/remedy/internal/fault"
	"github.com/halcyor/remedy/internal/health"
	"github.com/halcyor/remedy/internal/healthcheck"
	"github.com/halcyor/remedy/internal/logging"
	"github.com/halcyor/remedy/internal/metrics"
	"github.com/halcyor/remedy/internal/monitor"
	"github.com/halcyor/remedy/internal/notify"
	"github.com/halcyor/remedy/internal/recovery"
	"github.com/halcyor/remedy/internal/workload"
)

// alertSink records webhook deliveries from the reporter pipeline.
type alertSink struct {
	mu      sync.Mutex
	batches [][]health.Alert
}

func (s *alertSink) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Alerts []health.Alert `json:"alerts"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.mu.Lock()
		s.batches = append(s.batches, payload.Alerts)
		s.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}
}

func (s *alertSink) alerts() []health.Alert {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []health.Alert
	for _, batch := range s.batches {
		all = append(all, batch...)
	}
	return all
}

func waitUntil(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func fastOrchestrator(logger zerolog.Logger) *recovery.Orchestrator {
	return recovery.NewOrchestrator(logger, recovery.WithStrategySet(
		recovery.NewRetryStrategy(recovery.WithRetryBaseDelay(5*time.Millisecond)),
		recovery.NewRestartStrategy(recovery.WithRestartDelay(5*time.Millisecond)),
		recovery.NewFallbackStrategy(logger),
	))
}

// TestSupervisionLifecycle drives a full supervisor over real workloads:
// registration, cycles, fault detection, recovery, alerting, and metrics.
//
// Run with: go test -tags=integration -v ./test/integration/...
func TestSupervisionLifecycle(t *testing.T) {
	logger := logging.NewWithLevel("error")
	sink := &alertSink{}
	webhookServer := httptest.NewServer(sink.handler())
	defer webhookServer.Close()

	mx := metrics.New()
	mon := monitor.New(logger,
		monitor.WithMetrics(mx),
		monitor.WithOrchestrator(fastOrchestrator(logger)),
	)

	webhook, err := notify.NewWebhookNotifier(logger, webhookServer.URL, "")
	if err != nil {
		t.Fatalf("webhook notifier: %v", err)
	}
	reporter := health.NewReporter(mon,
		health.WithLogger(logger),
		health.WithMetrics(mx),
		health.WithNotifier(webhook),
	)
	mon.SetSink(reporter)

	if err := mon.Register(workload.NewStable("stable-1")); err != nil {
		t.Fatalf("register stable: %v", err)
	}
	if err := mon.Register(workload.NewCorrupting("corrupting-1", 2), monitor.WithClearStateOnRestart()); err != nil {
		t.Fatalf("register corrupting: %v", err)
	}
	if err := mon.Register(workload.NewFatal("fatal-1", 3)); err != nil {
		t.Fatalf("register fatal: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go reporter.Run(ctx)

	tracker := healthcheck.NewTracker()
	coord := coordinator.New(logger, 20*time.Millisecond, mon,
		coordinator.WithTracker(tracker),
		coordinator.WithMetrics(mx),
	)

	done := make(chan struct{})
	go func() {
		_ = coord.Run(ctx)
		close(done)
	}()

	// The fatal workload crosses its failure point, falls back, and stays
	// degraded while it keeps serving.
	waitUntil(t, 5*time.Second, func() bool {
		status, ok := mon.Status("fatal-1")
		return ok && status.State == health.StateDegraded
	})

	// The stable workload is untouched by its neighbor's recovery.
	waitUntil(t, 5*time.Second, func() bool {
		status, ok := mon.Status("stable-1")
		return ok && status.State == health.StateHealthy && status.TotalInvocations >= 5
	})

	if snap := reporter.Report(); snap.Overall != health.SystemDegraded {
		t.Fatalf("expected degraded system, got %s", snap.Overall)
	}

	// The degraded transition reaches the webhook sink.
	waitUntil(t, 5*time.Second, func() bool {
		for _, alert := range sink.alerts() {
			if alert.Service == "fatal-1" && strings.Contains(alert.Summary, "degraded") {
				return true
			}
		}
		return false
	})

	if !tracker.Ready() {
		t.Fatal("expected tracker readiness after cycles")
	}

	metricsServer := httptest.NewServer(mx.Handler())
	defer metricsServer.Close()
	resp, err := http.Get(metricsServer.URL)
	if err != nil {
		t.Fatalf("scrape metrics: %v", err)
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	for _, series := range []string{"remedy_faults_total", "remedy_services_total", "remedy_recovery_attempts_total"} {
		if !strings.Contains(string(body), series) {
			t.Fatalf("expected %s in metrics output", series)
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("coordinator did not stop")
	}
}

// brokenWorkload fails every execution and refuses both restart and
// degraded mode, so recovery always exhausts.
type brokenWorkload struct {
	mu         sync.Mutex
	started    bool
	executions int
}

func (b *brokenWorkload) Name() string { return "ledger-1" }

func (b *brokenWorkload) Start(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.started {
		return errors.New("start rejected, ledger lock still held")
	}
	b.started = true
	return nil
}

func (b *brokenWorkload) Stop(context.Context) error { return nil }

func (b *brokenWorkload) Execute(context.Context) error {
	b.mu.Lock()
	b.executions++
	b.mu.Unlock()
	return fault.New(fault.KindStateCorruption, "ledger checksum mismatch")
}

func (b *brokenWorkload) OnDegraded(context.Context) error {
	return errors.New("no degraded mode for ledger writes")
}

func (b *brokenWorkload) Executions() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.executions
}

// TestFailedServiceParksUntilReset verifies that exhausted recovery makes
// a service terminal, freezes its loop, and that a reset revives it.
func TestFailedServiceParksUntilReset(t *testing.T) {
	logger := logging.NewWithLevel("error")
	sink := &alertSink{}
	webhookServer := httptest.NewServer(sink.handler())
	defer webhookServer.Close()

	mx := metrics.New()
	mon := monitor.New(logger,
		monitor.WithMetrics(mx),
		monitor.WithOrchestrator(fastOrchestrator(logger)),
	)

	webhook, err := notify.NewWebhookNotifier(logger, webhookServer.URL, "")
	if err != nil {
		t.Fatalf("webhook notifier: %v", err)
	}
	reporter := health.NewReporter(mon,
		health.WithLogger(logger),
		health.WithMetrics(mx),
		health.WithNotifier(webhook),
	)
	mon.SetSink(reporter)

	broken := &brokenWorkload{}
	if err := mon.Register(broken); err != nil {
		t.Fatalf("register broken: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go reporter.Run(ctx)

	coord := coordinator.New(logger, 20*time.Millisecond, mon)

	done := make(chan struct{})
	go func() {
		_ = coord.Run(ctx)
		close(done)
	}()

	waitUntil(t, 5*time.Second, func() bool {
		status, ok := mon.Status("ledger-1")
		return ok && status.State == health.StateFailed
	})

	// A parked service stops executing entirely.
	frozen := broken.Executions()
	time.Sleep(150 * time.Millisecond)
	if got := broken.Executions(); got != frozen {
		t.Fatalf("expected executions frozen at %d, got %d", frozen, got)
	}

	if snap := reporter.Report(); snap.Overall != health.SystemCritical {
		t.Fatalf("expected critical system, got %s", snap.Overall)
	}

	waitUntil(t, 5*time.Second, func() bool {
		for _, alert := range sink.alerts() {
			if alert.Service == "ledger-1" && alert.Severity == health.AlertCritical {
				return true
			}
		}
		return false
	})

	// Reset is the only way out of failed; the loop picks the service
	// back up on its next tick.
	if err := mon.Reset("ledger-1"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	waitUntil(t, 5*time.Second, func() bool {
		return broken.Executions() > frozen
	})

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("coordinator did not stop")
	}
}
