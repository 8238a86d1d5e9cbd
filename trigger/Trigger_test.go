package trigger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/imSanko/circuit-training/variable"
)

func TestIntervalGateNeverOpensMidInterval(t *testing.T) {
	gate, err := newIntervalGate(0, 200)
	if err != nil {
		t.Fatalf("newIntervalGate: %v", err)
	}

	for step := int64(1); step < 200; step++ {
		if gate.ready(step) {
			t.Fatalf("gate opened mid-interval at step %v", step)
		}
	}
	if !gate.ready(200) {
		t.Error("gate did not open at the interval boundary")
	}
	if gate.ready(201) {
		t.Error("gate reopened immediately after firing")
	}
	if !gate.ready(400) {
		t.Error("gate did not open at the second boundary")
	}
}

// With a start offset of minus one interval, the gate opens on the very
// first call and then once per interval.
func TestIntervalGateNegativeStartFiresImmediately(t *testing.T) {
	interval := int64(1024)
	gate, err := newIntervalGate(-interval, interval)
	if err != nil {
		t.Fatalf("newIntervalGate: %v", err)
	}

	if !gate.ready(0) {
		t.Fatal("gate did not open on the first call")
	}

	fired := 0
	for step := int64(1); step <= 3*interval; step++ {
		if gate.ready(step) {
			fired++
			if step%interval != 0 {
				t.Errorf("gate opened mid-interval at step %v", step)
			}
		}
	}
	if fired != 3 {
		t.Errorf("gate opened %v times over 3 intervals, want 3", fired)
	}
}

func TestIntervalGateSkipsWholeIntervals(t *testing.T) {
	gate, err := newIntervalGate(0, 10)
	if err != nil {
		t.Fatalf("newIntervalGate: %v", err)
	}

	// A step far past several boundaries fires once, then the gate
	// waits for the next boundary after that step.
	if !gate.ready(35) {
		t.Fatal("gate did not open after crossing boundaries")
	}
	if gate.ready(39) {
		t.Error("gate reopened before the next boundary")
	}
	if !gate.ready(40) {
		t.Error("gate did not open at the next boundary")
	}
}

func TestIntervalGateRejectsNonPositiveInterval(t *testing.T) {
	if _, err := newIntervalGate(0, 0); err == nil {
		t.Error("interval 0 accepted, want error")
	}
	if _, err := newIntervalGate(0, -5); err == nil {
		t.Error("negative interval accepted, want error")
	}
}

func testFragment() variable.Fragment {
	return variable.Fragment{
		Policy:   []float64{1, 2, 3, 4},
		Value:    []float64{5, 6},
		Features: 2,
		Actions:  2,
	}
}

func TestPolicySnapshotWritesEnumeratedFiles(t *testing.T) {
	dir := t.TempDir()

	modelID := int64(0)
	snap, err := NewPolicySnapshot(dir, -4, 4,
		testFragment, func() int64 { return modelID }, nil)
	if err != nil {
		t.Fatalf("newPolicySnapshot: %v", err)
	}

	// First call fires due to the negative start offset.
	if err := snap.Fire(0); err != nil {
		t.Fatalf("fire: %v", err)
	}
	// Mid-interval steps do not fire.
	for step := int64(1); step < 4; step++ {
		if err := snap.Fire(step); err != nil {
			t.Fatalf("fire: %v", err)
		}
	}
	modelID = 1
	if err := snap.Fire(4); err != nil {
		t.Fatalf("fire: %v", err)
	}

	for _, name := range []string{"policy_1.json", "policy_2.json"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected snapshot file %v: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "policy_3.json")); err == nil {
		t.Error("snapshot written mid-interval")
	}
}

func TestPolicySnapshotRecordsInRegistry(t *testing.T) {
	dir := t.TempDir()

	registry, err := OpenRegistry(filepath.Join(dir, "registry.db"))
	if err != nil {
		t.Fatalf("openRegistry: %v", err)
	}

	snap, err := NewPolicySnapshot(dir, -4, 4,
		testFragment, func() int64 { return 7 }, registry)
	if err != nil {
		t.Fatalf("newPolicySnapshot: %v", err)
	}
	if err := snap.Fire(0); err != nil {
		t.Fatalf("fire: %v", err)
	}

	records, err := registry.Snapshots()
	if err != nil {
		t.Fatalf("snapshots: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("registry holds %v records, want 1", len(records))
	}
	if records[0].ModelID != 7 || records[0].TrainStep != 0 {
		t.Errorf("recorded (step=%v, model=%v), want (0, 7)",
			records[0].TrainStep, records[0].ModelID)
	}
}

func TestStepsPerSecondLogsOnInterval(t *testing.T) {
	sps, err := NewStepsPerSecond(200)
	if err != nil {
		t.Fatalf("newStepsPerSecond: %v", err)
	}

	logged := 0
	sps.logf = func(format string, v ...interface{}) { logged++ }

	for step := int64(1); step <= 600; step++ {
		if err := sps.Fire(step); err != nil {
			t.Fatalf("fire: %v", err)
		}
	}
	if logged != 3 {
		t.Errorf("logged %v times over 600 steps, want 3", logged)
	}
}
