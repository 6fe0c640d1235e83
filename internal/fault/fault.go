package fault

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// Severity ranks how disruptive a fault is and selects the recovery chain.
type Severity string

const (
	SeverityTransient   Severity = "TRANSIENT"
	SeverityRecoverable Severity = "RECOVERABLE"
	SeverityCritical    Severity = "CRITICAL"
)

// Rank returns the ordering position of the severity. Higher is worse.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 2
	case SeverityRecoverable:
		return 1
	default:
		return 0
	}
}

// Escalate returns the next severity rank. Critical stays critical.
func (s Severity) Escalate() Severity {
	switch s {
	case SeverityTransient:
		return SeverityRecoverable
	case SeverityRecoverable:
		return SeverityCritical
	default:
		return SeverityCritical
	}
}

// Kind names a fault category in the taxonomy.
type Kind string

const (
	KindNetworkTimeout      Kind = "NETWORK_TIMEOUT"
	KindResourceUnavailable Kind = "RESOURCE_UNAVAILABLE"
	KindConfiguration       Kind = "CONFIGURATION"
	KindDependencyFailure   Kind = "DEPENDENCY_FAILURE"
	KindStateCorruption     Kind = "STATE_CORRUPTION"
	KindSecurityViolation   Kind = "SECURITY_VIOLATION"
	KindDataCorruption      Kind = "DATA_CORRUPTION"
	KindUnknown             Kind = "UNKNOWN"
)

var severityByKind = map[Kind]Severity{
	KindNetworkTimeout:      SeverityTransient,
	KindResourceUnavailable: SeverityTransient,
	KindConfiguration:       SeverityRecoverable,
	KindDependencyFailure:   SeverityRecoverable,
	KindStateCorruption:     SeverityRecoverable,
	KindSecurityViolation:   SeverityCritical,
	KindDataCorruption:      SeverityCritical,
}

// SeverityOf maps a kind to its taxonomy severity. Kinds outside the
// taxonomy classify as recoverable.
func SeverityOf(kind Kind) Severity {
	if sev, ok := severityByKind[kind]; ok {
		return sev
	}
	return SeverityRecoverable
}

// Fault is a classified error raised by a workload or detected by the
// supervisor.
type Fault struct {
	Kind Kind
	Msg  string
	Meta map[string]string
	Err  error
}

func (f *Fault) Error() string {
	switch {
	case f.Msg != "" && f.Err != nil:
		return fmt.Sprintf("%s: %s: %v", f.Kind, f.Msg, f.Err)
	case f.Msg != "":
		return fmt.Sprintf("%s: %s", f.Kind, f.Msg)
	case f.Err != nil:
		return fmt.Sprintf("%s: %v", f.Kind, f.Err)
	default:
		return string(f.Kind)
	}
}

func (f *Fault) Unwrap() error {
	return f.Err
}

// New builds a fault of the given kind.
func New(kind Kind, msg string) *Fault {
	return &Fault{Kind: kind, Msg: msg}
}

// Newf builds a fault with a formatted message.
func Newf(kind Kind, format string, args ...any) *Fault {
	return &Fault{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind to an underlying error.
func Wrap(kind Kind, err error) *Fault {
	if err == nil {
		return nil
	}
	return &Fault{Kind: kind, Err: err}
}

// KindOf extracts the fault kind from an arbitrary error. A wrapped Fault
// wins; timeout-shaped errors map to NETWORK_TIMEOUT; anything else is
// UNKNOWN.
func KindOf(err error) Kind {
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
		return KindNetworkTimeout
	}
	return KindUnknown
}
