package actor

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/imSanko/circuit-training/variable"
)

// Policy is an immutable behaviour policy rebuilt from a pulled
// variable snapshot: a linear softmax over actions plus a linear
// state-value head. The actor stamps everything it collects with the
// snapshot's model id.
type Policy struct {
	policy   *mat.Dense
	value    *mat.VecDense
	features int
	actions  int

	modelID   int64
	trainStep int64
}

// NewPolicy builds a behaviour policy from a snapshot
func NewPolicy(s variable.Snapshot) (*Policy, error) {
	if err := s.Policy.Validate(); err != nil {
		return nil, fmt.Errorf("newPolicy: %v", err)
	}

	f := s.Policy
	return &Policy{
		policy:    mat.NewDense(f.Actions, f.Features, f.Policy),
		value:     mat.NewVecDense(f.Features, f.Value),
		features:  f.Features,
		actions:   f.Actions,
		modelID:   s.ModelID,
		trainStep: s.TrainStep,
	}, nil
}

// ModelID returns the version of the snapshot the policy was built
// from
func (p *Policy) ModelID() int64 {
	return p.modelID
}

// TrainStep returns the gradient-update count of the snapshot the
// policy was built from
func (p *Policy) TrainStep() int64 {
	return p.trainStep
}

// FeatureSize returns the observation dimension
func (p *Policy) FeatureSize() int {
	return p.features
}

// SelectAction samples an action at obs and returns it with its log
// probability and the state-value estimate, both recorded at
// collection time for the learner's advantage estimation.
func (p *Policy) SelectAction(rng *rand.Rand, obs []float64) (int,
	float64, float64, error) {
	if len(obs) != p.features {
		return 0, 0, 0, fmt.Errorf("selectAction: illegal feature size "+
			"\n\twant(%v)\n\thave(%v)", p.features, len(obs))
	}

	probs := p.probabilities(obs)
	sample := rng.Float64()

	action := p.actions - 1
	var cumulative float64
	for b := 0; b < p.actions; b++ {
		cumulative += probs[b]
		if sample < cumulative {
			action = b
			break
		}
	}

	logProb := math.Log(probs[action] + 1e-12)
	value := floats.Dot(p.value.RawVector().Data, obs)
	return action, logProb, value, nil
}

// probabilities returns the softmax action distribution at x
func (p *Policy) probabilities(x []float64) []float64 {
	logits := make([]float64, p.actions)
	for b := 0; b < p.actions; b++ {
		logits[b] = floats.Dot(p.policy.RawRowView(b), x)
	}

	max := floats.Max(logits)
	var sum float64
	for b := range logits {
		logits[b] = math.Exp(logits[b] - max)
		sum += logits[b]
	}
	for b := range logits {
		logits[b] /= sum
	}
	return logits
}
