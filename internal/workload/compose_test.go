package workload

import (
	"context"
	"strings"
	"testing"

	"github.com/halcyor/remedy/internal/config"
)

func TestParseComposeWorkloads_Basic(t *testing.T) {
	composeYAML := `
services:
  cache:
    image: redis:7
    ports:
      - "6379:6379"
  web:
    image: nginx:1.25
    ports:
      - "8080:80"
      - "9000:9000/udp"
`

	specs, err := ParseComposeWorkloads(context.Background(), []byte(composeYAML), "demo")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(specs) != 2 {
		t.Fatalf("expected 2 specs, got %d", len(specs))
	}

	cache := specs[0]
	if cache.Name != "cache" {
		t.Fatalf("expected specs sorted by name, got %q first", cache.Name)
	}
	if cache.Kind != config.WorkloadContainer {
		t.Fatalf("unexpected kind: %q", cache.Kind)
	}
	if cache.Container != "demo-cache-1" {
		t.Fatalf("unexpected container name: %q", cache.Container)
	}
	if cache.Image != "redis:7" {
		t.Fatalf("unexpected image: %q", cache.Image)
	}
	if got, want := strings.Join(cache.Ports, ","), "6379:6379/tcp"; got != want {
		t.Fatalf("unexpected ports: %s", got)
	}

	web := specs[1]
	if web.Container != "demo-web-1" {
		t.Fatalf("unexpected container name: %q", web.Container)
	}
	if got, want := strings.Join(web.Ports, ","), "8080:80/tcp,9000:9000/udp"; got != want {
		t.Fatalf("unexpected ports: %s", got)
	}
}

func TestParseComposeWorkloads_ProjectNameFromFile(t *testing.T) {
	composeYAML := `
name: prod
services:
  api:
    image: example/api:1
`

	specs, err := ParseComposeWorkloads(context.Background(), []byte(composeYAML), "ignored")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if specs[0].Container != "prod-api-1" {
		t.Fatalf("expected file project name to win, got %q", specs[0].Container)
	}
}

func TestParseComposeWorkloads_DefaultProjectName(t *testing.T) {
	composeYAML := `
services:
  api:
    image: example/api:1
`

	specs, err := ParseComposeWorkloads(context.Background(), []byte(composeYAML), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if specs[0].Container != "remedy-api-1" {
		t.Fatalf("unexpected container name: %q", specs[0].Container)
	}
}

func TestParseComposeWorkloads_PinnedContainerName(t *testing.T) {
	composeYAML := `
services:
  db:
    image: postgres:16
    container_name: db-main
`

	specs, err := ParseComposeWorkloads(context.Background(), []byte(composeYAML), "demo")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if specs[0].Container != "db-main" {
		t.Fatalf("expected pinned container name, got %q", specs[0].Container)
	}
}

func TestParseComposeWorkloads_MissingImage(t *testing.T) {
	composeYAML := `
services:
  app:
    build: .
`

	_, err := ParseComposeWorkloads(context.Background(), []byte(composeYAML), "demo")
	if err == nil || !strings.Contains(err.Error(), "missing image") {
		t.Fatalf("expected missing image error, got %v", err)
	}
}

func TestParseComposeWorkloads_EmptyBody(t *testing.T) {
	_, err := ParseComposeWorkloads(context.Background(), nil, "demo")
	if err == nil || !strings.Contains(err.Error(), "empty") {
		t.Fatalf("expected empty body error, got %v", err)
	}
}

func TestParseComposeWorkloads_NoServices(t *testing.T) {
	_, err := ParseComposeWorkloads(context.Background(), []byte("services: {}"), "demo")
	if err == nil || !strings.Contains(err.Error(), "no services") {
		t.Fatalf("expected no services error, got %v", err)
	}
}

func TestParseComposeWorkloads_InvalidYAML(t *testing.T) {
	_, err := ParseComposeWorkloads(context.Background(), []byte("services: ["), "demo")
	if err == nil {
		t.Fatalf("expected error for invalid yaml")
	}
}
