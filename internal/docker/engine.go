package docker

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
)

const (
	defaultAPITimeout = 30 * time.Second
	defaultStopGrace  = 10 * time.Second
)

// EngineClient implements Client using the official Docker Go SDK.
type EngineClient struct {
	api       engineAPI
	timeout   time.Duration
	stopGrace time.Duration
}

// NewEngineClient initializes a Docker client for the given API host.
func NewEngineClient(host string, timeout time.Duration) (*EngineClient, error) {
	if timeout <= 0 {
		timeout = defaultAPITimeout
	}

	httpClient := &http.Client{Timeout: timeout + defaultStopGrace}

	opts := []client.Opt{
		client.WithAPIVersionNegotiation(),
		client.WithHTTPClient(httpClient),
	}
	if host != "" {
		opts = append(opts, client.WithHost(host))
	}

	api, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, err
	}

	return &EngineClient{
		api:       api,
		timeout:   timeout,
		stopGrace: defaultStopGrace,
	}, nil
}

// Ping validates connectivity to the Docker daemon.
func (c *EngineClient) Ping(ctx context.Context) error {
	if c == nil || c.api == nil {
		return errors.New("docker client is not initialized")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	_, err := c.api.Ping(ctx)
	return err
}

// Inspect returns the current state of a container by name or ID.
func (c *EngineClient) Inspect(ctx context.Context, nameOrID string) (ContainerInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	details, err := c.api.ContainerInspect(ctx, nameOrID)
	if err != nil {
		return ContainerInfo{}, err
	}

	info := ContainerInfo{
		ID:   details.ID,
		Name: strings.TrimPrefix(details.Name, "/"),
	}
	if details.Config != nil {
		info.Image = details.Config.Image
	}
	if details.State != nil {
		info.Status = details.State.Status
		info.Running = details.State.Running
		info.Paused = details.State.Paused
		info.Restarting = details.State.Restarting
		info.OOMKilled = details.State.OOMKilled
		info.ExitCode = details.State.ExitCode
		if details.State.Health != nil {
			info.Health = details.State.Health.Status
		}
	}
	if details.NetworkSettings != nil {
		info.Ports = details.NetworkSettings.Ports
	}
	return info, nil
}

// Start starts a stopped container.
func (c *EngineClient) Start(ctx context.Context, nameOrID string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	return c.api.ContainerStart(ctx, nameOrID, container.StartOptions{})
}

// Stop stops a running container, waiting up to the stop grace period.
func (c *EngineClient) Stop(ctx context.Context, nameOrID string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout+c.stopGrace)
	defer cancel()

	return c.api.ContainerStop(ctx, nameOrID, c.stopOptions())
}

// Restart stops and restarts a container.
func (c *EngineClient) Restart(ctx context.Context, nameOrID string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout+c.stopGrace)
	defer cancel()

	return c.api.ContainerRestart(ctx, nameOrID, c.stopOptions())
}

// Remove force-deletes a container.
func (c *EngineClient) Remove(ctx context.Context, nameOrID string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	return c.api.ContainerRemove(ctx, nameOrID, container.RemoveOptions{Force: true})
}

// Close releases resources associated with the client.
func (c *EngineClient) Close() error {
	if c == nil || c.api == nil {
		return nil
	}
	return c.api.Close()
}

func (c *EngineClient) stopOptions() container.StopOptions {
	seconds := int(c.stopGrace.Seconds())
	return container.StopOptions{Timeout: &seconds}
}
