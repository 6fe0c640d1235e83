package healthcheck

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/halcyor/remedy/internal/health"
)

// SnapshotSource provides the aggregated system health view.
type SnapshotSource interface {
	Report() health.Snapshot
}

// HealthHandler serves /healthz responses.
func HealthHandler(tracker *Tracker, pollInterval time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusServiceUnavailable
		snapshot := Snapshot{}
		if tracker != nil && tracker.Healthy(time.Now().UTC(), pollInterval) {
			status = http.StatusOK
			snapshot = tracker.Snapshot()
		} else if tracker != nil {
			snapshot = tracker.Snapshot()
		}
		writeJSON(w, status, snapshot)
	}
}

// ReadyHandler serves /readyz responses.
func ReadyHandler(tracker *Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusServiceUnavailable
		snapshot := Snapshot{}
		if tracker != nil && tracker.Ready() {
			status = http.StatusOK
			snapshot = tracker.Snapshot()
		} else if tracker != nil {
			snapshot = tracker.Snapshot()
		}
		writeJSON(w, status, snapshot)
	}
}

// StatusHandler serves /statusz responses with per-service lifecycle
// states. Pass format=text for the operator-readable rendering.
func StatusHandler(source SnapshotSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if source == nil {
			http.Error(w, "status unavailable", http.StatusServiceUnavailable)
			return
		}
		snapshot := source.Report()
		if r.URL.Query().Get("format") == "text" {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			_, _ = io.WriteString(w, health.RenderText(snapshot))
			return
		}
		writeJSON(w, http.StatusOK, snapshot)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
