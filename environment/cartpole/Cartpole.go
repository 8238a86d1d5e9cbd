// Package cartpole implements the cart-pole classic control task
package cartpole

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"

	"github.com/imSanko/circuit-training/timestep"
	"github.com/imSanko/circuit-training/utils/floatutils"
)

const (
	// Physical constants
	Gravity        float64 = 9.8
	CartMass       float64 = 1.0
	PoleMass       float64 = 0.1
	HalfPoleLength float64 = 0.5
	ForceMag       float64 = 10.0 // magnification of applied force
	Dt             float64 = 0.02 // seconds between state updates

	// Episode termination bounds
	PositionBounds float64 = 2.4
	AngleBounds    float64 = 12.0 * 2.0 * math.Pi / 360.0

	// StartBounds bounds the uniform starting state on every state
	// variable
	StartBounds float64 = 0.05

	// FeatureSize is the observation dimension: cart position and
	// speed, pole angle and angular velocity
	FeatureSize int = 4

	// Discrete actions
	ActionLeft  int = 0
	ActionNone  int = 1
	ActionRight int = 2
	Actions     int = 3
)

// Cartpole implements the classic cart-and-pole balancing task. A pole
// is attached to a cart moving along a horizontal track; the agent
// accelerates the cart left or right to keep the pole upright.
//
// The reward is 1 on every step. An episode ends when the cart leaves
// the position bounds, the pole falls past the angle bounds, or the
// step limit is reached. The terminal step carries discount 0 on a
// failure and the regular discount on a step-limit cutoff, so value
// bootstrapping treats the two endings differently.
type Cartpole struct {
	rng       *rand.Rand
	discount  float64
	stepLimit int

	x, xDot   float64
	th, thDot float64
	number    int
}

// New constructs a Cartpole with the given discount, per-episode step
// limit, and seed
func New(discount float64, stepLimit int, seed uint64) (*Cartpole, error) {
	if discount < 0 || discount > 1 {
		return nil, fmt.Errorf("new: discount must be in [0, 1], got %v",
			discount)
	}
	if stepLimit <= 0 {
		return nil, fmt.Errorf("new: step limit must be > 0, got %v",
			stepLimit)
	}

	c := &Cartpole{
		rng:       rand.New(rand.NewSource(seed)),
		discount:  discount,
		stepLimit: stepLimit,
	}
	c.Reset()
	return c, nil
}

// FeatureSize returns the observation dimension
func (c *Cartpole) FeatureSize() int {
	return FeatureSize
}

// ActionSize returns the number of discrete actions
func (c *Cartpole) ActionSize() int {
	return Actions
}

// Reset starts a new episode from a uniformly drawn state near the
// balanced point
func (c *Cartpole) Reset() timestep.Step {
	c.x = c.uniform()
	c.xDot = c.uniform()
	c.th = c.uniform()
	c.thDot = c.uniform()
	c.number = 0

	return timestep.Step{
		Type:        timestep.First,
		Observation: c.observation(),
		Discount:    c.discount,
	}
}

// Step applies a discrete action and integrates the dynamics with one
// Euler step
func (c *Cartpole) Step(action int) (timestep.Step, bool, error) {
	var force float64
	switch action {
	case ActionLeft:
		force = -ForceMag
	case ActionNone:
		force = 0.0
	case ActionRight:
		force = ForceMag
	default:
		return timestep.Step{}, false, fmt.Errorf("step: illegal action "+
			"%v ∉ [0, %v)", action, Actions)
	}

	cosTheta := math.Cos(c.th)
	sinTheta := math.Sin(c.th)

	totalMass := PoleMass + CartMass
	poleMassLength := PoleMass * HalfPoleLength

	temp := (force + poleMassLength*c.thDot*c.thDot*sinTheta) / totalMass
	thAcc := (Gravity*sinTheta - cosTheta*temp) / (HalfPoleLength *
		(4.0/3.0 - PoleMass*cosTheta*cosTheta/totalMass))
	xAcc := temp - poleMassLength*thAcc*cosTheta/totalMass

	c.x += Dt * c.xDot
	c.xDot += Dt * xAcc
	c.th += Dt * c.thDot
	c.thDot += Dt * thAcc
	c.number++

	failed := c.x < -PositionBounds || c.x > PositionBounds ||
		c.th < -AngleBounds || c.th > AngleBounds
	cutoff := c.number >= c.stepLimit

	step := timestep.Step{
		Type:        timestep.Mid,
		Observation: c.observation(),
		Action:      action,
		Reward:      1.0,
		Discount:    c.discount,
		Number:      c.number,
	}
	if failed {
		step.Type = timestep.Last
		step.Discount = 0.0
	} else if cutoff {
		// A cutoff is not a failure: the discount stays so the value
		// estimate can bootstrap past the artificial ending.
		step.Type = timestep.Last
	}

	return step, step.Last(), nil
}

func (c *Cartpole) observation() []float64 {
	return []float64{c.x, c.xDot, c.th, c.thDot}
}

// uniform draws a starting state variable
func (c *Cartpole) uniform() float64 {
	sample := c.rng.Float64()*2.0*StartBounds - StartBounds
	return floatutils.Clip(sample, -StartBounds, StartBounds)
}

func (c *Cartpole) String() string {
	msg := "Cartpole  |  Position: %v  |  Speed: %v  |  Angle: %v" +
		"  |  Angular Velocity: %v"
	return fmt.Sprintf(msg, c.x, c.xDot, c.th, c.thDot)
}
