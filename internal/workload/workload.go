// Package workload provides the managed service implementations the
// supervisor drives: synthetic services exhibiting distinct failure
// patterns to exercise the recovery chains, and probes for real Docker
// containers. All workloads satisfy service.Runnable.
package workload

import "errors"

// errNotRunning is returned by Execute when a workload has not been
// started. It carries no fault kind, so classification treats it as
// UNKNOWN and the restart chain brings the workload back up.
var errNotRunning = errors.New("workload is not running")
