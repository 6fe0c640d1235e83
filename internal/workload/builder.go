package workload

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/halcyor/remedy/internal/config"
	"github.com/halcyor/remedy/internal/docker"
	"github.com/halcyor/remedy/internal/service"
)

// BuildDeps carries the shared dependencies workload construction needs.
// Docker may be nil when the roster has no container workloads.
type BuildDeps struct {
	Docker docker.Client
	Logger zerolog.Logger
}

// FromSpec builds the workload implementation a roster entry describes.
// A flaky workload with no failure_rate gets the default rate.
func FromSpec(spec config.WorkloadSpec, deps BuildDeps) (service.Runnable, error) {
	switch spec.Kind {
	case config.WorkloadStable:
		return NewStable(spec.Name), nil
	case config.WorkloadFlaky:
		rate := spec.FailureRate
		if rate == 0 {
			rate = defaultFailureRate
		}
		return NewFlaky(spec.Name, rate), nil
	case config.WorkloadCorrupting:
		return NewCorrupting(spec.Name, spec.CorruptionThreshold), nil
	case config.WorkloadFatal:
		return NewFatal(spec.Name, spec.FailAt), nil
	case config.WorkloadIntermittent:
		return NewIntermittent(spec.Name), nil
	case config.WorkloadContainer:
		if deps.Docker == nil {
			return nil, fmt.Errorf("workload %q requires a docker client", spec.Name)
		}
		ref := spec.Container
		if ref == "" {
			ref = spec.Name
		}
		return NewContainer(spec.Name, ref, spec.Image, deps.Docker, deps.Logger), nil
	default:
		return nil, fmt.Errorf("unknown workload kind %q", spec.Kind)
	}
}
