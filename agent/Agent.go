// Package agent defines the contract between the training cycle and
// the learning algorithm
package agent

import (
	"gorgonia.org/tensor"

	"github.com/imSanko/circuit-training/timestep"
	"github.com/imSanko/circuit-training/variable"
)

// Agent determines the implementation details of a learning algorithm.
//
// The training cycle treats the Agent as opaque: it hands the Agent
// preprocessed minibatches and publishes whatever trainable state the
// Agent reports. One call to Train corresponds to exactly one gradient
// update; the driver advances the shared step counter once per call.
type Agent interface {
	// Initialize prepares the agent's trainable state before the
	// training loop starts
	Initialize() error

	// FeatureSize returns the observation dimension the agent was
	// built for
	FeatureSize() int

	// ActionSize returns the number of discrete actions
	ActionSize() int

	// PolicyVariables returns the agent's current trainable state for
	// publication
	PolicyVariables() variable.Fragment

	// PreprocessSequence is a stateless transform of one raw stored
	// trajectory into the per-step quantities a training update needs
	PreprocessSequence(timestep.Trajectory) (ProcessedSequence, error)

	// Train performs one gradient update on a minibatch and returns
	// its loss
	Train(Minibatch) (float64, error)
}

// ProcessedSequence holds one trajectory's training quantities in
// row-major flat form: Observations has Length*Features values, the
// remaining slices have Length values each.
type ProcessedSequence struct {
	Observations []float64
	Actions      []float64
	Advantages   []float64
	Returns      []float64
	LogProbs     []float64
	Length       int
	Features     int
}

// Minibatch is one gradient-update-sized slice of an iteration's data.
// Info carries the broadcast per-step metadata aligned with the steps
// in the batch.
type Minibatch struct {
	Observations *tensor.Dense // [n, features]
	Actions      *tensor.Dense // [n]
	Advantages   *tensor.Dense // [n]
	Returns      *tensor.Dense // [n]
	LogProbs     *tensor.Dense // [n]
	Info         *tensor.Dense // [n, timestep.InfoSize]
}

// Len returns the number of steps in the minibatch
func (m *Minibatch) Len() int {
	if m.Actions == nil {
		return 0
	}
	return m.Actions.Shape()[0]
}
