package health

import (
	"time"

	"github.com/halcyor/remedy/internal/fault"
	"github.com/halcyor/remedy/internal/recovery"
)

// LifecycleState represents where a supervised service sits in its
// recovery lifecycle.
type LifecycleState string

const (
	StateHealthy    LifecycleState = "HEALTHY"
	StateDegraded   LifecycleState = "DEGRADED"
	StateFailed     LifecycleState = "FAILED"
	StateRestarting LifecycleState = "RESTARTING"
)

// SystemHealth is the aggregate signal across all supervised services.
type SystemHealth string

const (
	SystemHealthy  SystemHealth = "HEALTHY"
	SystemDegraded SystemHealth = "DEGRADED"
	SystemCritical SystemHealth = "CRITICAL"
)

// ServiceStatus is a point-in-time copy of one service's record.
type ServiceStatus struct {
	Service             string         `json:"service"`
	State               LifecycleState `json:"state"`
	ConsecutiveFailures int            `json:"consecutive_failures"`
	RecentFailures      int            `json:"recent_failures"`
	TotalInvocations    int            `json:"total_invocations"`
	LastOutcomeAt       time.Time      `json:"last_outcome_at,omitzero"`
}

// StateCounts tallies services by lifecycle state.
type StateCounts struct {
	Healthy    int `json:"healthy"`
	Degraded   int `json:"degraded"`
	Failed     int `json:"failed"`
	Restarting int `json:"restarting"`
}

// Snapshot is the system-wide health view. It is a value copy; mutating it
// never affects the records it was read from.
type Snapshot struct {
	Overall     SystemHealth    `json:"overall"`
	Services    []ServiceStatus `json:"services"`
	Counts      StateCounts     `json:"counts"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// Transition records one lifecycle change, including the recovery episode
// that produced it when one ran.
type Transition struct {
	Service  string
	From     LifecycleState
	To       LifecycleState
	Severity fault.Severity
	Attempts []recovery.Attempt
	At       time.Time
}

// AlertSeverity ranks an alert for delivery.
type AlertSeverity string

const (
	AlertWarning  AlertSeverity = "warning"
	AlertCritical AlertSeverity = "critical"
)

// Alert is a single operator-facing notification.
type Alert struct {
	ID       string         `json:"id"`
	At       time.Time      `json:"at"`
	Severity AlertSeverity  `json:"severity"`
	Service  string         `json:"service,omitempty"`
	State    LifecycleState `json:"state,omitempty"`
	Summary  string         `json:"summary"`
	Detail   string         `json:"detail,omitempty"`
}

// EvaluateSystem folds per-service states into the aggregate signal. Any
// failed service makes the system critical; any service short of healthy
// makes it degraded.
func EvaluateSystem(statuses []ServiceStatus) SystemHealth {
	overall := SystemHealthy
	for _, status := range statuses {
		switch status.State {
		case StateFailed:
			overall = worsenSystem(overall, SystemCritical)
		case StateDegraded, StateRestarting:
			overall = worsenSystem(overall, SystemDegraded)
		}
	}
	return overall
}

func worsenSystem(current, next SystemHealth) SystemHealth {
	if systemRank(next) > systemRank(current) {
		return next
	}
	return current
}

func systemRank(s SystemHealth) int {
	switch s {
	case SystemCritical:
		return 2
	case SystemDegraded:
		return 1
	default:
		return 0
	}
}
