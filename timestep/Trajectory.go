package timestep

import "fmt"

// Info holds the per-trajectory metadata attached by the collecting
// actor. The replay client broadcasts it across the trajectory length
// so that per-step batches stay aligned with the sequence they were
// computed for.
type Info struct {
	// Priority weights the trajectory during sampling
	Priority float64 `json:"priority"`

	// ModelID is the version of the policy that collected the
	// trajectory
	ModelID int64 `json:"model_id"`
}

// InfoSize is the number of scalar fields broadcast per step when a
// trajectory's Info is attached to a batch.
const InfoSize = 2

// Flat returns the info fields as a flat slice, in broadcast order.
func (i Info) Flat() []float64 {
	return []float64{i.Priority, float64(i.ModelID)}
}

// Trajectory is one collected episode's ordered sequence of steps,
// produced by a single actor and consumed by exactly one learner read
// before the buffer clear that follows.
type Trajectory struct {
	ActorID   string `json:"actor_id"`
	EpisodeID int    `json:"episode_id"`
	Steps     []Step `json:"steps"`
	Info      Info   `json:"info"`

	// Generation is stamped by the replay table on write; trajectories
	// from before a clear never share a generation with those written
	// after it.
	Generation uint64 `json:"generation"`

	CreatedAtMs int64 `json:"created_at_ms"`
}

// Len returns the number of steps in the trajectory
func (t *Trajectory) Len() int {
	return len(t.Steps)
}

// Return returns the undiscounted sum of rewards over the trajectory
func (t *Trajectory) Return() float64 {
	var total float64
	for i := range t.Steps {
		total += t.Steps[i].Reward
	}
	return total
}

// Validate checks that every step's observation has the given feature
// size and, when sequenceLength > 0, that the trajectory has exactly
// that many steps. A mismatch is a data error between what the agent
// declared and what the buffer yielded, surfaced rather than coerced.
func (t *Trajectory) Validate(featureSize, sequenceLength int) error {
	if sequenceLength > 0 && len(t.Steps) != sequenceLength {
		return fmt.Errorf("validate: illegal sequence length "+
			"\n\twant(%v)\n\thave(%v)", sequenceLength, len(t.Steps))
	}
	for i := range t.Steps {
		if len(t.Steps[i].Observation) != featureSize {
			return fmt.Errorf("validate: illegal feature size at step %v "+
				"\n\twant(%v)\n\thave(%v)", i, featureSize,
				len(t.Steps[i].Observation))
		}
	}
	return nil
}
