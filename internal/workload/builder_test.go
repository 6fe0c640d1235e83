package workload

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/halcyor/remedy/internal/config"
)

func TestFromSpecBuildsEachKind(t *testing.T) {
	deps := BuildDeps{Docker: &fakeEngine{}, Logger: zerolog.Nop()}

	cases := []struct {
		spec config.WorkloadSpec
		want string
	}{
		{config.WorkloadSpec{Name: "a", Kind: config.WorkloadStable}, "*workload.Stable"},
		{config.WorkloadSpec{Name: "b", Kind: config.WorkloadFlaky, FailureRate: 0.5}, "*workload.Flaky"},
		{config.WorkloadSpec{Name: "c", Kind: config.WorkloadCorrupting, CorruptionThreshold: 3}, "*workload.Corrupting"},
		{config.WorkloadSpec{Name: "d", Kind: config.WorkloadFatal, FailAt: 7}, "*workload.Fatal"},
		{config.WorkloadSpec{Name: "e", Kind: config.WorkloadIntermittent}, "*workload.Intermittent"},
		{config.WorkloadSpec{Name: "f", Kind: config.WorkloadContainer, Container: "f-main", Image: "redis:7"}, "*workload.Container"},
	}

	for _, tc := range cases {
		t.Run(string(tc.spec.Kind), func(t *testing.T) {
			w, err := FromSpec(tc.spec, deps)
			if err != nil {
				t.Fatalf("FromSpec error: %v", err)
			}
			if w.Name() != tc.spec.Name {
				t.Fatalf("expected name %q, got %q", tc.spec.Name, w.Name())
			}

			var got string
			switch w.(type) {
			case *Stable:
				got = "*workload.Stable"
			case *Flaky:
				got = "*workload.Flaky"
			case *Corrupting:
				got = "*workload.Corrupting"
			case *Fatal:
				got = "*workload.Fatal"
			case *Intermittent:
				got = "*workload.Intermittent"
			case *Container:
				got = "*workload.Container"
			}
			if got != tc.want {
				t.Fatalf("expected %s, got %T", tc.want, w)
			}
		})
	}
}

func TestFromSpecFlakyDefaultRate(t *testing.T) {
	w, err := FromSpec(config.WorkloadSpec{Name: "flup", Kind: config.WorkloadFlaky}, BuildDeps{})
	if err != nil {
		t.Fatalf("FromSpec error: %v", err)
	}
	f, ok := w.(*Flaky)
	if !ok {
		t.Fatalf("expected *Flaky, got %T", w)
	}
	if f.failureRate != defaultFailureRate {
		t.Fatalf("expected default rate %v, got %v", defaultFailureRate, f.failureRate)
	}
}

func TestFromSpecContainerRequiresDocker(t *testing.T) {
	_, err := FromSpec(config.WorkloadSpec{Name: "redis", Kind: config.WorkloadContainer}, BuildDeps{})
	if err == nil {
		t.Fatal("expected error for container workload without a docker client")
	}
}

func TestFromSpecContainerRefDefaultsToName(t *testing.T) {
	w, err := FromSpec(
		config.WorkloadSpec{Name: "redis", Kind: config.WorkloadContainer, Image: "redis:7"},
		BuildDeps{Docker: &fakeEngine{}},
	)
	if err != nil {
		t.Fatalf("FromSpec error: %v", err)
	}
	c, ok := w.(*Container)
	if !ok {
		t.Fatalf("expected *Container, got %T", w)
	}
	if c.ref != "redis" {
		t.Fatalf("expected container ref to default to workload name, got %q", c.ref)
	}
}

func TestFromSpecUnknownKind(t *testing.T) {
	_, err := FromSpec(config.WorkloadSpec{Name: "x", Kind: "mystery"}, BuildDeps{})
	if err == nil {
		t.Fatal("expected error for unknown workload kind")
	}
}
