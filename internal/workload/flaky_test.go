package workload

import (
	"context"
	"testing"

	"github.com/halcyor/remedy/internal/fault"
)

// scriptedRolls returns a roll function that replays the given values.
func scriptedRolls(values ...float64) func() float64 {
	i := 0
	return func() float64 {
		v := values[i%len(values)]
		i++
		return v
	}
}

func TestFlakyFailsOnLowRoll(t *testing.T) {
	ctx := context.Background()
	f := NewFlaky("flaky-1", 0.3, WithFlakyRoll(scriptedRolls(0.1, 0.9, 0.29)))

	if err := f.Start(ctx); err != nil {
		t.Fatalf("Start error: %v", err)
	}

	err := f.Execute(ctx)
	if err == nil {
		t.Fatal("expected failure on roll below rate")
	}
	if kind := fault.KindOf(err); kind != fault.KindNetworkTimeout {
		t.Fatalf("expected NETWORK_TIMEOUT, got %s", kind)
	}
	if sev := fault.SeverityOf(fault.KindOf(err)); sev != fault.SeverityTransient {
		t.Fatalf("expected TRANSIENT severity, got %s", sev)
	}

	if err := f.Execute(ctx); err != nil {
		t.Fatalf("expected success on roll above rate, got %v", err)
	}
	if err := f.Execute(ctx); err == nil {
		t.Fatal("expected failure on boundary roll below rate")
	}

	executions, failures := f.Counts()
	if executions != 3 || failures != 2 {
		t.Fatalf("expected 3 executions with 2 failures, got %d/%d", executions, failures)
	}
}

func TestFlakyClampsRate(t *testing.T) {
	ctx := context.Background()

	never := NewFlaky("never", -2, WithFlakyRoll(scriptedRolls(0.0)))
	if err := never.Start(ctx); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	if err := never.Execute(ctx); err != nil {
		t.Fatalf("clamped-to-zero rate must never fail, got %v", err)
	}

	always := NewFlaky("always", 2, WithFlakyRoll(scriptedRolls(0.999)))
	if err := always.Start(ctx); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	if err := always.Execute(ctx); err == nil {
		t.Fatal("clamped-to-one rate must always fail")
	}
}

func TestFlakyRequiresStart(t *testing.T) {
	f := NewFlaky("flaky-1", 0.3)
	if err := f.Execute(context.Background()); err == nil {
		t.Fatal("expected not-running error")
	}
}
