package docker

import (
	"context"
	"strings"

	"github.com/docker/docker/errdefs"
	"github.com/docker/go-connections/nat"
)

// Container status values as reported by the daemon.
const (
	StatusCreated    = "created"
	StatusRunning    = "running"
	StatusPaused     = "paused"
	StatusRestarting = "restarting"
	StatusRemoving   = "removing"
	StatusExited     = "exited"
	StatusDead       = "dead"
)

// Health status values from the container's healthcheck, when one is defined.
const (
	HealthNone      = "none"
	HealthStarting  = "starting"
	HealthHealthy   = "healthy"
	HealthUnhealthy = "unhealthy"
)

// ContainerInfo is the daemon's view of a container at inspect time.
type ContainerInfo struct {
	ID         string
	Name       string // container name with the leading slash stripped
	Image      string // image reference (may include @sha256:... digest)
	Status     string // one of the Status* constants
	Running    bool
	Paused     bool
	Restarting bool
	OOMKilled  bool
	ExitCode   int
	Health     string      // one of the Health* constants, empty without a healthcheck
	Ports      nat.PortMap // published port bindings
}

// Client defines the engine operations container workloads depend on.
// This interface enables mocking in tests.
type Client interface {
	// Ping validates connectivity to the Docker daemon.
	Ping(ctx context.Context) error

	// Inspect returns the current state of a container by name or ID.
	Inspect(ctx context.Context, nameOrID string) (ContainerInfo, error)

	// Start starts a stopped container.
	Start(ctx context.Context, nameOrID string) error

	// Stop stops a running container.
	Stop(ctx context.Context, nameOrID string) error

	// Restart stops and restarts a container.
	Restart(ctx context.Context, nameOrID string) error

	// Remove force-deletes a container.
	Remove(ctx context.Context, nameOrID string) error

	// Close releases resources associated with the client.
	Close() error
}

// IsNotFound reports whether err indicates a missing container.
func IsNotFound(err error) bool {
	return errdefs.IsNotFound(err)
}

// NormalizeImage strips the @sha256:... digest suffix from a Docker image reference.
// The daemon resolves references to digests after pulling, which would cause false
// mismatches when comparing a configured image against a running container's.
//
// Examples:
//   - "nginx:1.23@sha256:abc123..." → "nginx:1.23"
//   - "registry.example.com/app:v1@sha256:def456..." → "registry.example.com/app:v1"
//   - "nginx:1.23" → "nginx:1.23" (unchanged)
func NormalizeImage(image string) string {
	if idx := strings.Index(image, "@sha256:"); idx != -1 {
		return image[:idx]
	}
	return image
}
