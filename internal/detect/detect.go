package detect

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/halcyor/remedy/internal/fault"
)

// WindowSize is how many recent cycle outcomes are kept per service and
// consulted for escalation.
const WindowSize = 5

// Outcome is one recorded cycle result.
type Outcome struct {
	At   time.Time
	OK   bool
	Kind fault.Kind
}

// History exposes a service's recent outcome window. The window is
// read-only from the detector's side.
type History interface {
	Window(serviceID string) ([]Outcome, bool)
}

// UnknownServiceError reports classification against a service that was
// never registered. Callers treat it as a programming error.
type UnknownServiceError struct {
	Service string
}

func (e *UnknownServiceError) Error() string {
	return fmt.Sprintf("unknown service %q", e.Service)
}

// Classification is the detector's verdict for one failure.
type Classification struct {
	Kind      fault.Kind
	Base      fault.Severity
	Severity  fault.Severity
	Escalated bool
}

// Detector maps errors to severities using the fault taxonomy and the
// service's recent outcome window.
type Detector struct {
	history History
	logger  zerolog.Logger
}

// NewDetector builds a detector over the given outcome history.
func NewDetector(history History, logger zerolog.Logger) *Detector {
	return &Detector{history: history, logger: logger}
}

// Classify resolves the severity for a failure of the given service. When
// the full window is failures the base severity escalates by one rank,
// capped at critical. A single success anywhere in the window suppresses
// escalation.
func (d *Detector) Classify(serviceID string, err error) (Classification, error) {
	window, ok := d.history.Window(serviceID)
	if !ok {
		return Classification{}, &UnknownServiceError{Service: serviceID}
	}

	kind := fault.KindOf(err)
	base := fault.SeverityOf(kind)
	result := Classification{Kind: kind, Base: base, Severity: base}

	if allFailed(window) {
		result.Severity = base.Escalate()
		result.Escalated = result.Severity != base
		if result.Escalated {
			d.logger.Warn().
				Str("service", serviceID).
				Str("kind", string(kind)).
				Str("base", string(base)).
				Str("severity", string(result.Severity)).
				Int("window", len(window)).
				Msg("severity escalated after repeated failures")
		}
	}

	return result, nil
}

func allFailed(window []Outcome) bool {
	if len(window) < WindowSize {
		return false
	}
	for _, outcome := range window {
		if outcome.OK {
			return false
		}
	}
	return true
}
