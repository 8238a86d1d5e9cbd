// Package environment describes the interface between an actor and
// the task it collects experience from
package environment

import "github.com/imSanko/circuit-training/timestep"

// Environment is a sequential decision task. Policy-dependent step
// fields (Action, LogProb, Value) are filled in by the caller; the
// environment produces observation, reward, discount, and step type.
type Environment interface {
	// Reset starts a new episode and returns its first step
	Reset() timestep.Step

	// Step applies a discrete action. The returned bool signals the
	// end of the episode.
	Step(action int) (timestep.Step, bool, error)

	// FeatureSize returns the observation dimension
	FeatureSize() int

	// ActionSize returns the number of discrete actions
	ActionSize() int
}
