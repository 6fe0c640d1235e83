package healthcheck

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/halcyor/remedy/internal/health"
)

func TestHealthHandlerHealthy(t *testing.T) {
	tracker := NewTracker()
	tracker.SetSupervised(3)
	tracker.RecordCycle(150 * time.Millisecond)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	handler := HealthHandler(tracker, 5*time.Second)
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var payload Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.LastCycleTime == nil {
		t.Fatalf("expected last cycle time to be set")
	}
	if payload.ServicesSupervised != 3 {
		t.Fatalf("expected 3 supervised services, got %d", payload.ServicesSupervised)
	}
	if payload.CycleDurationMS != 150 {
		t.Fatalf("expected duration 150ms, got %d", payload.CycleDurationMS)
	}
}

func TestHealthHandlerUnhealthyWhenStale(t *testing.T) {
	tracker := NewTracker()
	tracker.RecordCycle(10 * time.Millisecond)
	tracker.lastCycle = time.Now().Add(-10 * time.Second)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	handler := HealthHandler(tracker, 3*time.Second)
	handler(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestReadyHandler(t *testing.T) {
	tracker := NewTracker()

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()

	handler := ReadyHandler(tracker)
	handler(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 before ready, got %d", rec.Code)
	}

	tracker.RecordCycle(5 * time.Millisecond)
	rec = httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 after ready, got %d", rec.Code)
	}
}

type staticSnapshotSource struct {
	snapshot health.Snapshot
}

func (s *staticSnapshotSource) Report() health.Snapshot {
	return s.snapshot
}

func TestStatusHandlerJSON(t *testing.T) {
	source := &staticSnapshotSource{
		snapshot: health.Snapshot{
			Overall: health.SystemDegraded,
			Services: []health.ServiceStatus{
				{Service: "etl", State: health.StateDegraded, RecentFailures: 2},
			},
			Counts:      health.StateCounts{Degraded: 1},
			GeneratedAt: time.Now(),
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/statusz", nil)
	rec := httptest.NewRecorder()

	StatusHandler(source)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var payload health.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Overall != health.SystemDegraded {
		t.Fatalf("unexpected overall: %s", payload.Overall)
	}
	if len(payload.Services) != 1 || payload.Services[0].Service != "etl" {
		t.Fatalf("unexpected services: %+v", payload.Services)
	}
}

func TestStatusHandlerText(t *testing.T) {
	source := &staticSnapshotSource{
		snapshot: health.Snapshot{
			Overall: health.SystemHealthy,
			Services: []health.ServiceStatus{
				{Service: "api", State: health.StateHealthy},
			},
			Counts: health.StateCounts{Healthy: 1},
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/statusz?format=text", nil)
	rec := httptest.NewRecorder()

	StatusHandler(source)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "overall HEALTHY") || !strings.Contains(body, "api") {
		t.Fatalf("unexpected body: %q", body)
	}
}

func TestStatusHandlerNilSource(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/statusz", nil)
	rec := httptest.NewRecorder()

	StatusHandler(nil)(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}
