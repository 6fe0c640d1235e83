package docker

import (
	"context"

	dockertypes "github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
)

// engineAPI defines the subset of Docker client operations used by EngineClient.
// This interface enables unit testing without a real Docker daemon by allowing
// mock implementations to be injected.
//
// To use in tests:
//
//	type mockEngineAPI struct {
//	    inspectFn func(ctx context.Context, id string) (dockertypes.ContainerJSON, error)
//	    pingErr   error
//	}
//
//	func (m *mockEngineAPI) Ping(ctx context.Context) (dockertypes.Ping, error) {
//	    return dockertypes.Ping{}, m.pingErr
//	}
//
//	// ... implement other methods
//
//	client := &EngineClient{api: &mockEngineAPI{...}, timeout: 30*time.Second}
type engineAPI interface {
	// Ping checks connectivity to the Docker daemon.
	Ping(ctx context.Context) (dockertypes.Ping, error)

	// ContainerInspect returns low-level information on a container.
	ContainerInspect(ctx context.Context, containerID string) (dockertypes.ContainerJSON, error)

	// ContainerStart starts a stopped container.
	ContainerStart(ctx context.Context, containerID string, options container.StartOptions) error

	// ContainerStop stops a running container, waiting up to the configured grace period.
	ContainerStop(ctx context.Context, containerID string, options container.StopOptions) error

	// ContainerRestart stops and restarts a container.
	ContainerRestart(ctx context.Context, containerID string, options container.StopOptions) error

	// ContainerRemove deletes a container.
	ContainerRemove(ctx context.Context, containerID string, options container.RemoveOptions) error

	// Close releases resources associated with the client.
	Close() error
}

// Ensure the official Docker client satisfies our interface at compile time.
// This is a compile-time check only and doesn't affect runtime behavior.
var _ engineAPI = (*client.Client)(nil)
