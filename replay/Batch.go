package replay

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gorgonia.org/tensor"

	"github.com/imSanko/circuit-training/timestep"
)

// Batch is one trajectory ready for consumption, with its info
// broadcast across the trajectory length so per-step metadata aligns
// with every step of the sequence it was computed for.
type Batch struct {
	Trajectory timestep.Trajectory

	// Info has shape [len(Trajectory.Steps), timestep.InfoSize]
	Info *tensor.Dense
}

// BroadcastInfo repeats a trajectory's info along its length and
// returns the resulting tensor.
func BroadcastInfo(t *timestep.Trajectory) *tensor.Dense {
	length := t.Len()
	flat := t.Info.Flat()

	backing := make([]float64, length*timestep.InfoSize)
	for i := 0; i < length; i++ {
		copy(backing[i*timestep.InfoSize:(i+1)*timestep.InfoSize], flat)
	}

	return tensor.NewDense(
		tensor.Float64,
		tensor.Shape{length, timestep.InfoSize},
		tensor.WithBacking(backing),
	)
}

// BatchStream is a synchronous, pull-based iterator over one
// iteration's trajectories. Order is randomized within a sliding
// shuffle window of a small number of episodes, so minibatch order
// varies without the whole buffer materializing in one slice twice.
type BatchStream struct {
	pending []timestep.Trajectory
	window  int
	rng     *rand.Rand
}

// NewBatchStream returns a stream over the given trajectories with the
// given shuffle window, measured in episodes. The window must be
// between 1 and 3; the trajectories slice is not modified.
func NewBatchStream(trajectories []timestep.Trajectory, window int,
	seed uint64) (*BatchStream, error) {
	if window < 1 || window > 3 {
		return nil, fmt.Errorf("newBatchStream: shuffle window must be in "+
			"[1, 3], got %v", window)
	}

	pending := make([]timestep.Trajectory, len(trajectories))
	copy(pending, trajectories)

	return &BatchStream{
		pending: pending,
		window:  window,
		rng:     rand.New(rand.NewSource(seed)),
	}, nil
}

// Len returns the number of batches remaining in the stream
func (b *BatchStream) Len() int {
	return len(b.pending)
}

// Next returns the next batch in the stream, or false once the stream
// is exhausted.
func (b *BatchStream) Next() (Batch, bool) {
	if len(b.pending) == 0 {
		return Batch{}, false
	}

	window := b.window
	if window > len(b.pending) {
		window = len(b.pending)
	}
	i := b.rng.Intn(window)

	traj := b.pending[i]
	b.pending[i] = b.pending[0]
	b.pending = b.pending[1:]

	return Batch{Trajectory: traj, Info: BroadcastInfo(&traj)}, true
}
