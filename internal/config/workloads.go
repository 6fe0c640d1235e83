package config

import (
	"fmt"

	"github.com/docker/go-connections/nat"
	"gopkg.in/yaml.v3"
)

// WorkloadKind selects a workload implementation.
type WorkloadKind string

const (
	WorkloadStable       WorkloadKind = "stable"
	WorkloadFlaky        WorkloadKind = "flaky"
	WorkloadCorrupting   WorkloadKind = "corrupting"
	WorkloadFatal        WorkloadKind = "fatal"
	WorkloadIntermittent WorkloadKind = "intermittent"
	WorkloadContainer    WorkloadKind = "container"
)

// WorkloadSpec describes a single managed workload.
type WorkloadSpec struct {
	Name                string       `yaml:"name"`
	Kind                WorkloadKind `yaml:"kind"`
	FailureRate         float64      `yaml:"failure_rate,omitempty"`
	CorruptionThreshold int          `yaml:"corruption_threshold,omitempty"`
	FailAt              int          `yaml:"fail_at,omitempty"`
	ClearStateOnRestart bool         `yaml:"clear_state_on_restart,omitempty"`
	Container           string       `yaml:"container,omitempty"`
	Image               string       `yaml:"image,omitempty"`
	Ports               []string     `yaml:"ports,omitempty"`
}

// RosterFile is the parsed YAML structure for the workload roster:
// workloads: [{name, kind, ...}]
type RosterFile struct {
	Workloads []WorkloadSpec `yaml:"workloads"`
}

// ParseWorkloads parses and validates roster YAML content.
func ParseWorkloads(data []byte) ([]WorkloadSpec, error) {
	var rf RosterFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parse workloads roster: %w", err)
	}

	if err := validateWorkloads(rf.Workloads); err != nil {
		return nil, err
	}

	return rf.Workloads, nil
}

// DefaultWorkloads returns the built-in demo roster used when neither a
// roster nor a compose file is configured.
func DefaultWorkloads() []WorkloadSpec {
	return []WorkloadSpec{
		{Name: "stable-1", Kind: WorkloadStable},
		{Name: "flaky-1", Kind: WorkloadFlaky, FailureRate: 0.2},
		{Name: "corrupting-1", Kind: WorkloadCorrupting, CorruptionThreshold: 4, ClearStateOnRestart: true},
		{Name: "intermittent-1", Kind: WorkloadIntermittent},
	}
}

// validateWorkloads ensures all specs are valid.
func validateWorkloads(specs []WorkloadSpec) error {
	if len(specs) == 0 {
		return fmt.Errorf("roster contains no workloads")
	}

	seen := make(map[string]bool)

	for i, spec := range specs {
		if spec.Name == "" {
			return fmt.Errorf("workload %d: name is required", i)
		}
		if seen[spec.Name] {
			return fmt.Errorf("workload %q: duplicate name", spec.Name)
		}
		seen[spec.Name] = true

		if err := validateWorkloadSpec(spec); err != nil {
			return fmt.Errorf("workload %q: %w", spec.Name, err)
		}
	}

	return nil
}

func validateWorkloadSpec(spec WorkloadSpec) error {
	switch spec.Kind {
	case WorkloadStable, WorkloadFlaky, WorkloadCorrupting, WorkloadFatal, WorkloadIntermittent:
		if spec.Container != "" || spec.Image != "" || len(spec.Ports) > 0 {
			return fmt.Errorf("container, image, and ports only apply to container workloads")
		}
	case WorkloadContainer:
		if spec.ClearStateOnRestart {
			return fmt.Errorf("clear_state_on_restart is not supported for container workloads")
		}
		if _, _, err := nat.ParsePortSpecs(spec.Ports); err != nil {
			return fmt.Errorf("invalid ports: %w", err)
		}
	case "":
		return fmt.Errorf("kind is required")
	default:
		return fmt.Errorf("unknown kind %q", spec.Kind)
	}

	if spec.FailureRate < 0 || spec.FailureRate > 1 {
		return fmt.Errorf("failure_rate must be within [0, 1]")
	}
	if spec.FailureRate != 0 && spec.Kind != WorkloadFlaky {
		return fmt.Errorf("failure_rate only applies to flaky workloads")
	}
	if spec.CorruptionThreshold < 0 {
		return fmt.Errorf("corruption_threshold cannot be negative")
	}
	if spec.CorruptionThreshold != 0 && spec.Kind != WorkloadCorrupting {
		return fmt.Errorf("corruption_threshold only applies to corrupting workloads")
	}
	if spec.FailAt < 0 {
		return fmt.Errorf("fail_at cannot be negative")
	}
	if spec.FailAt != 0 && spec.Kind != WorkloadFatal {
		return fmt.Errorf("fail_at only applies to fatal workloads")
	}

	return nil
}
