package reinforce

import (
	"math"
	"testing"

	"gorgonia.org/tensor"

	"github.com/imSanko/circuit-training/agent"
	"github.com/imSanko/circuit-training/timestep"
)

func testConfig() Config {
	return Config{
		FeatureSize:       4,
		Actions:           3,
		LearningRate:      0.01,
		ValueLearningRate: 0.01,
		Lambda:            0.95,
		Gamma:             0.99,
		Seed:              1923812121431427,
	}
}

func testTrajectory(length int) timestep.Trajectory {
	steps := make([]timestep.Step, length)
	for i := range steps {
		stepType := timestep.Mid
		if i == 0 {
			stepType = timestep.First
		} else if i == length-1 {
			stepType = timestep.Last
		}
		steps[i] = timestep.Step{
			Type:        stepType,
			Observation: []float64{0.1, -0.2, 0.05, float64(i) / 10},
			Action:      i % 3,
			Reward:      1.0,
			Discount:    0.99,
			LogProb:     -1.1,
			Value:       float64(length-i) * 0.5,
			Number:      i,
		}
	}
	return timestep.Trajectory{ActorID: "a", Steps: steps}
}

func TestDiscountCumSum(t *testing.T) {
	got := discountCumSum([]float64{1, 1, 1}, 0.5)
	want := []float64{1.75, 1.5, 1}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Errorf("index %v: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestPreprocessSequenceShapes(t *testing.T) {
	r, err := testConfig().Create()
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	seq, err := r.PreprocessSequence(testTrajectory(10))
	if err != nil {
		t.Fatalf("preprocessSequence: %v", err)
	}

	if seq.Length != 10 || seq.Features != 4 {
		t.Errorf("sequence dims = (%v, %v), want (10, 4)", seq.Length,
			seq.Features)
	}
	if len(seq.Observations) != 40 {
		t.Errorf("observations length = %v, want 40", len(seq.Observations))
	}
	for _, s := range [][]float64{seq.Actions, seq.Advantages, seq.Returns,
		seq.LogProbs} {
		if len(s) != 10 {
			t.Errorf("per-step slice length = %v, want 10", len(s))
		}
	}

	// Normalized advantages have zero mean.
	var mean float64
	for _, a := range seq.Advantages {
		mean += a
	}
	mean /= float64(len(seq.Advantages))
	if math.Abs(mean) > 1e-9 {
		t.Errorf("advantage mean = %v, want 0", mean)
	}
}

func TestPreprocessSequenceRejectsBadFeatures(t *testing.T) {
	r, err := testConfig().Create()
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	traj := testTrajectory(5)
	traj.Steps[2].Observation = []float64{1, 2}
	if _, err := r.PreprocessSequence(traj); err == nil {
		t.Error("expected error for mismatched feature size")
	}
}

func minibatchFrom(seq agent.ProcessedSequence) agent.Minibatch {
	n := seq.Length
	return agent.Minibatch{
		Observations: tensor.NewDense(tensor.Float64,
			tensor.Shape{n, seq.Features}, tensor.WithBacking(seq.Observations)),
		Actions: tensor.NewDense(tensor.Float64, tensor.Shape{n},
			tensor.WithBacking(seq.Actions)),
		Advantages: tensor.NewDense(tensor.Float64, tensor.Shape{n},
			tensor.WithBacking(seq.Advantages)),
		Returns: tensor.NewDense(tensor.Float64, tensor.Shape{n},
			tensor.WithBacking(seq.Returns)),
		LogProbs: tensor.NewDense(tensor.Float64, tensor.Shape{n},
			tensor.WithBacking(seq.LogProbs)),
	}
}

func TestTrainUpdatesPolicy(t *testing.T) {
	r, err := testConfig().Create()
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := r.Initialize(); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	before := r.PolicyVariables()

	seq, err := r.PreprocessSequence(testTrajectory(10))
	if err != nil {
		t.Fatalf("preprocessSequence: %v", err)
	}
	if _, err := r.Train(minibatchFrom(seq)); err != nil {
		t.Fatalf("train: %v", err)
	}

	after := r.PolicyVariables()
	changed := false
	for i := range before.Policy {
		if before.Policy[i] != after.Policy[i] {
			changed = true
			break
		}
	}
	if !changed {
		t.Error("train did not update the policy weights")
	}
}

func TestTrainRejectsIllegalAction(t *testing.T) {
	r, err := testConfig().Create()
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	seq, err := r.PreprocessSequence(testTrajectory(4))
	if err != nil {
		t.Fatalf("preprocessSequence: %v", err)
	}
	seq.Actions[0] = 12
	if _, err := r.Train(minibatchFrom(seq)); err == nil {
		t.Error("expected error for out-of-range action")
	}
}

func TestPolicyVariablesAreACopy(t *testing.T) {
	r, err := testConfig().Create()
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := r.Initialize(); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	fragment := r.PolicyVariables()
	if err := fragment.Validate(); err != nil {
		t.Fatalf("fragment does not validate: %v", err)
	}

	fragment.Policy[0] = 1e9
	if r.PolicyVariables().Policy[0] == 1e9 {
		t.Error("mutating the fragment mutated the agent's weights")
	}
}

func TestConfigValidate(t *testing.T) {
	bad := testConfig()
	bad.FeatureSize = 0
	if _, err := bad.Create(); err == nil {
		t.Error("expected error for zero feature size")
	}

	bad = testConfig()
	bad.Gamma = 1.5
	if _, err := bad.Create(); err == nil {
		t.Error("expected error for gamma > 1")
	}
}
