// Package timestep implements timesteps of the agent-environment
// interaction and the trajectories built from them
package timestep

import (
	"fmt"
)

// StepType denotes the type of step that a Step can be, either the
// first environmental step, a middle step, or a last step
type StepType int

const (
	First StepType = iota
	Mid
	Last
)

func (s StepType) String() string {
	switch s {
	case First:
		return "First"
	case Last:
		return "Last"
	default:
		return "Mid"
	}
}

// Step packages together a single timestep in an environment. LogProb
// and Value record the acting policy's log probability of the chosen
// action and its state-value estimate at collection time; the learner
// needs both for advantage estimation.
type Step struct {
	Type        StepType  `json:"type"`
	Observation []float64 `json:"obs"`
	Action      int       `json:"action"`
	Reward      float64   `json:"reward"`
	Discount    float64   `json:"discount"`
	LogProb     float64   `json:"log_prob"`
	Value       float64   `json:"value"`
	Number      int       `json:"number"`
}

// First returns whether a Step is the first in an episode
func (s *Step) First() bool {
	return s.Type == First
}

// Mid returns whether a Step is a middle step in an episode
func (s *Step) Mid() bool {
	return s.Type == Mid
}

// Last returns whether a Step is the last step in an episode
func (s *Step) Last() bool {
	return s.Type == Last
}

func (s Step) String() string {
	str := "Step | Type: %v  |  Reward:  %.2f  |  Discount: %.2f  |  " +
		"Step Number:  %v"

	return fmt.Sprintf(str, s.Type, s.Reward, s.Discount, s.Number)
}
