package workload

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/halcyor/remedy/internal/docker"
	"github.com/halcyor/remedy/internal/fault"
)

// Container supervises a Docker container. Execute probes the container
// through the engine API and maps its state to fault kinds, so the
// standard recovery chains apply: a restarting container is treated as
// transient, a stopped one as a dependency failure that the restart
// chain brings back up.
type Container struct {
	name   string
	ref    string // container name or ID
	image  string // expected image reference, empty to skip the check
	client docker.Client
	logger zerolog.Logger
}

// NewContainer creates a workload bound to an existing container.
func NewContainer(name, ref, image string, client docker.Client, logger zerolog.Logger) *Container {
	return &Container{
		name:   name,
		ref:    ref,
		image:  image,
		client: client,
		logger: logger.With().Str("container", ref).Logger(),
	}
}

// Name implements service.Runnable.
func (c *Container) Name() string {
	return c.name
}

// Start implements service.Runnable.
func (c *Container) Start(ctx context.Context) error {
	c.logger.Info().Msg("starting container")
	return c.client.Start(ctx, c.ref)
}

// Stop implements service.Runnable.
func (c *Container) Stop(ctx context.Context) error {
	c.logger.Info().Msg("stopping container")
	return c.client.Stop(ctx, c.ref)
}

// Execute implements service.Runnable by probing the container state.
func (c *Container) Execute(ctx context.Context) error {
	info, err := c.client.Inspect(ctx, c.ref)
	if err != nil {
		if docker.IsNotFound(err) {
			return fault.Wrap(fault.KindDependencyFailure, fmt.Errorf("container %q not found: %w", c.ref, err))
		}
		return fault.Wrap(fault.KindNetworkTimeout, fmt.Errorf("inspect container %q: %w", c.ref, err))
	}

	switch {
	case info.OOMKilled && !info.Running:
		return fault.Newf(fault.KindResourceUnavailable, "container %q killed by OOM (exit code %d)", c.ref, info.ExitCode)
	case info.Restarting:
		return fault.Newf(fault.KindResourceUnavailable, "container %q is restarting", c.ref)
	case info.Paused:
		return fault.Newf(fault.KindDependencyFailure, "container %q is paused", c.ref)
	case !info.Running:
		return fault.Newf(fault.KindDependencyFailure, "container %q is %s (exit code %d)", c.ref, info.Status, info.ExitCode)
	case info.Health == docker.HealthUnhealthy:
		return fault.Newf(fault.KindDependencyFailure, "container %q failed its healthcheck", c.ref)
	case info.Health == docker.HealthStarting:
		return fault.Newf(fault.KindResourceUnavailable, "container %q healthcheck has not passed yet", c.ref)
	}

	if c.image != "" && docker.NormalizeImage(info.Image) != docker.NormalizeImage(c.image) {
		return fault.Newf(fault.KindConfiguration, "container %q runs image %s, want %s", c.ref, info.Image, c.image)
	}
	return nil
}
