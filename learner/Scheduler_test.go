package learner

import "testing"

// TestComputeInitIterationFreshRun ensures a run starting from step
// zero begins at iteration zero
func TestComputeInitIterationFreshRun(t *testing.T) {
	got, err := ComputeInitIteration(0, 100, 1024, 4, 32, 8)
	if err != nil {
		t.Fatalf("could not compute init iteration: %v", err)
	}
	if got != 0 {
		t.Errorf("expected iteration 0, got %v", got)
	}
}

// TestComputeInitIterationResume checks the floored schedule
// arithmetic on a resumed run
func TestComputeInitIterationResume(t *testing.T) {
	// 1600 * 32 * 8 / (100 * 1024 * 4) = 409600 / 409600 = 1
	got, err := ComputeInitIteration(1600, 100, 1024, 4, 32, 8)
	if err != nil {
		t.Fatalf("could not compute init iteration: %v", err)
	}
	if got != 1 {
		t.Errorf("expected iteration 1, got %v", got)
	}

	// One step short of the boundary stays in iteration 0
	got, err = ComputeInitIteration(1599, 100, 1024, 4, 32, 8)
	if err != nil {
		t.Fatalf("could not compute init iteration: %v", err)
	}
	if got != 0 {
		t.Errorf("expected iteration 0, got %v", got)
	}
}

// TestComputeInitIterationMonotonic checks that the computed iteration
// never decreases as the train step grows
func TestComputeInitIterationMonotonic(t *testing.T) {
	prev := 0
	for step := int64(0); step <= 5000; step += 100 {
		got, err := ComputeInitIteration(step, 100, 1024, 4, 32, 8)
		if err != nil {
			t.Fatalf("could not compute init iteration at step %v: %v",
				step, err)
		}
		if got < prev {
			t.Fatalf("iteration decreased from %v to %v at step %v",
				prev, got, step)
		}
		prev = got
	}
}

// TestComputeInitIterationFullSequence checks that a zero minibatch
// size counts one update per sequence
func TestComputeInitIterationFullSequence(t *testing.T) {
	// With one update per sequence and one replica, an iteration is
	// episodes * epochs = 16 updates.
	got, err := ComputeInitIteration(16, 100, 4, 4, 0, 1)
	if err != nil {
		t.Fatalf("could not compute init iteration: %v", err)
	}
	if got != 1 {
		t.Errorf("expected iteration 1, got %v", got)
	}
}

// TestComputeInitIterationRejectsIllegalArguments ensures divisor and
// sign validation
func TestComputeInitIterationRejectsIllegalArguments(t *testing.T) {
	if _, err := ComputeInitIteration(0, 0, 1024, 4, 32, 8); err == nil {
		t.Error("expected error for zero sequence length")
	}
	if _, err := ComputeInitIteration(0, 100, 0, 4, 32, 8); err == nil {
		t.Error("expected error for zero episodes per iteration")
	}
	if _, err := ComputeInitIteration(0, 100, 1024, 0, 32, 8); err == nil {
		t.Error("expected error for zero epochs")
	}
	if _, err := ComputeInitIteration(0, 100, 1024, 4, 32, 0); err == nil {
		t.Error("expected error for zero replicas")
	}
	if _, err := ComputeInitIteration(-1, 100, 1024, 4, 32, 8); err == nil {
		t.Error("expected error for negative train step")
	}
	if _, err := ComputeInitIteration(0, 100, 1024, 4, -1, 8); err == nil {
		t.Error("expected error for negative minibatch size")
	}
}
