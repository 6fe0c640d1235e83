package workload

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/compose-spec/compose-go/v2/loader"
	"github.com/compose-spec/compose-go/v2/types"

	"github.com/halcyor/remedy/internal/config"
)

const defaultProjectName = "remedy"

// ParseComposeWorkloads converts compose content into container workload
// specs, one per compose service. Container names follow the compose v2
// convention <project>-<service>-1 unless the service pins container_name.
func ParseComposeWorkloads(ctx context.Context, body []byte, projectName string) ([]config.WorkloadSpec, error) {
	if len(body) == 0 {
		return nil, errors.New("compose body is empty")
	}
	if projectName == "" {
		projectName = defaultProjectName
	}

	details := types.ConfigDetails{
		WorkingDir: ".",
		ConfigFiles: []types.ConfigFile{
			{
				Filename: "compose.yml",
				Content:  body,
			},
		},
		Environment: types.Mapping{},
	}

	project, err := loader.LoadWithContext(ctx, details, func(opts *loader.Options) {
		opts.SetProjectName(projectName, false)
	})
	if err != nil {
		return nil, fmt.Errorf("load compose: %w", err)
	}
	if len(project.Services) == 0 {
		return nil, errors.New("compose has no services")
	}

	specs := make([]config.WorkloadSpec, 0, len(project.Services))
	for name, service := range project.Services {
		if service.Image == "" {
			return nil, fmt.Errorf("service %q missing image", name)
		}

		containerName := service.ContainerName
		if containerName == "" {
			containerName = fmt.Sprintf("%s-%s-1", project.Name, name)
		}

		specs = append(specs, config.WorkloadSpec{
			Name:      name,
			Kind:      config.WorkloadContainer,
			Container: containerName,
			Image:     service.Image,
			Ports:     portSpecs(service.Ports),
		})
	}

	sort.Slice(specs, func(i, j int) bool { return specs[i].Name < specs[j].Name })
	return specs, nil
}

func portSpecs(ports []types.ServicePortConfig) []string {
	if len(ports) == 0 {
		return nil
	}

	specs := make([]string, 0, len(ports))
	for _, port := range ports {
		protocol := port.Protocol
		if protocol == "" {
			protocol = "tcp"
		}
		if port.Published != "" {
			specs = append(specs, fmt.Sprintf("%s:%d/%s", port.Published, port.Target, protocol))
			continue
		}
		specs = append(specs, fmt.Sprintf("%d/%s", port.Target, protocol))
	}
	return specs
}
