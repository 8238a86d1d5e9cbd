// Package reinforce implements a policy-gradient agent with a linear
// softmax policy and a linear state-value baseline, using generalized
// advantage estimation (GAE) over stored collection-time values.
//
// Adapted from the REINFORCE family of algorithms; see
// https://spinningup.openai.com/en/latest/algorithms/vpg.html
package reinforce

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/imSanko/circuit-training/agent"
	"github.com/imSanko/circuit-training/timestep"
	"github.com/imSanko/circuit-training/variable"
)

// Reinforce is a linear-softmax policy-gradient agent satisfying the
// agent.Agent contract. All trainable state lives in two gonum
// matrices; the training cycle owns the step counter.
type Reinforce struct {
	conf Config

	// policy is actions x features, value is a length-features vector
	policy *mat.Dense
	value  *mat.VecDense

	rng *rand.Rand
}

var _ agent.Agent = (*Reinforce)(nil)

func newReinforce(c Config) *Reinforce {
	return &Reinforce{
		conf:   c,
		policy: mat.NewDense(c.Actions, c.FeatureSize, nil),
		value:  mat.NewVecDense(c.FeatureSize, nil),
		rng:    rand.New(rand.NewSource(c.Seed)),
	}
}

// Initialize seeds the trainable state with small uniform weights
func (r *Reinforce) Initialize() error {
	raw := r.policy.RawMatrix().Data
	for i := range raw {
		raw[i] = (r.rng.Float64() - 0.5) * 0.1
	}
	rawValue := r.value.RawVector().Data
	for i := range rawValue {
		rawValue[i] = (r.rng.Float64() - 0.5) * 0.1
	}
	return nil
}

// FeatureSize returns the observation dimension the agent was built for
func (r *Reinforce) FeatureSize() int {
	return r.conf.FeatureSize
}

// ActionSize returns the number of discrete actions
func (r *Reinforce) ActionSize() int {
	return r.conf.Actions
}

// PolicyVariables returns a copy of the trainable state for publication
func (r *Reinforce) PolicyVariables() variable.Fragment {
	raw := r.policy.RawMatrix().Data
	policy := make([]float64, len(raw))
	copy(policy, raw)

	rawValue := r.value.RawVector().Data
	value := make([]float64, len(rawValue))
	copy(value, rawValue)

	return variable.Fragment{
		Policy:   policy,
		Value:    value,
		Features: r.conf.FeatureSize,
		Actions:  r.conf.Actions,
	}
}

// PreprocessSequence computes GAE advantages, discounted returns, and
// flat observations for one stored trajectory. The transform is
// stateless: it reads only the trajectory and the agent's fixed
// configuration.
func (r *Reinforce) PreprocessSequence(t timestep.Trajectory) (agent.ProcessedSequence, error) {
	if err := t.Validate(r.conf.FeatureSize, 0); err != nil {
		return agent.ProcessedSequence{}, fmt.Errorf("preprocessSequence: %v",
			err)
	}
	length := t.Len()
	if length == 0 {
		return agent.ProcessedSequence{}, fmt.Errorf("preprocessSequence: " +
			"empty trajectory")
	}

	rewards := make([]float64, length)
	values := make([]float64, length+1)
	logProbs := make([]float64, length)
	actions := make([]float64, length)
	obs := make([]float64, length*r.conf.FeatureSize)

	for i := range t.Steps {
		step := &t.Steps[i]
		rewards[i] = step.Reward
		values[i] = step.Value
		logProbs[i] = step.LogProb
		actions[i] = float64(step.Action)
		copy(obs[i*r.conf.FeatureSize:(i+1)*r.conf.FeatureSize],
			step.Observation)
	}

	// Bootstrap with the collection-time estimate of the final state
	// unless the episode actually terminated there.
	last := &t.Steps[length-1]
	if last.Last() {
		values[length] = 0
	} else {
		values[length] = last.Value
	}

	deltas := make([]float64, length)
	for i := 0; i < length; i++ {
		deltas[i] = rewards[i] + r.conf.Gamma*values[i+1] - values[i]
	}
	advantages := discountCumSum(deltas, r.conf.Gamma*r.conf.Lambda)

	withBootstrap := append(rewards[:length:length], values[length])
	returns := discountCumSum(withBootstrap, r.conf.Gamma)[:length]

	normalizeAdvantages(advantages)

	return agent.ProcessedSequence{
		Observations: obs,
		Actions:      actions,
		Advantages:   advantages,
		Returns:      returns,
		LogProbs:     logProbs,
		Length:       length,
		Features:     r.conf.FeatureSize,
	}, nil
}

// Train performs one gradient update on the minibatch and returns the
// policy loss.
func (r *Reinforce) Train(m agent.Minibatch) (float64, error) {
	n := m.Len()
	if n == 0 {
		return 0, fmt.Errorf("train: empty minibatch")
	}

	obs := m.Observations.Data().([]float64)
	actions := m.Actions.Data().([]float64)
	advantages := m.Advantages.Data().([]float64)
	returns := m.Returns.Data().([]float64)

	if len(obs) != n*r.conf.FeatureSize {
		return 0, fmt.Errorf("train: illegal observation size "+
			"\n\twant(%v)\n\thave(%v)", n*r.conf.FeatureSize, len(obs))
	}

	var loss float64
	policyScale := r.conf.LearningRate / float64(n)
	valueScale := r.conf.ValueLearningRate / float64(n)

	for i := 0; i < n; i++ {
		x := obs[i*r.conf.FeatureSize : (i+1)*r.conf.FeatureSize]
		a := int(actions[i])
		if a < 0 || a >= r.conf.Actions {
			return 0, fmt.Errorf("train: illegal action %v ∉ [0, %v)",
				a, r.conf.Actions)
		}

		probs := r.probabilities(x)
		loss -= advantages[i] * math.Log(probs[a]+1e-12)

		// Softmax policy gradient: row b of the policy moves by
		// ((1{b==a} - p_b) * advantage) * x.
		for b := 0; b < r.conf.Actions; b++ {
			indicator := 0.0
			if b == a {
				indicator = 1.0
			}
			coeff := policyScale * advantages[i] * (indicator - probs[b])
			floats.AddScaled(r.policy.RawRowView(b), coeff, x)
		}

		// Value baseline regression toward the discounted return.
		pred := floats.Dot(r.value.RawVector().Data, x)
		floats.AddScaled(r.value.RawVector().Data,
			valueScale*(returns[i]-pred), x)
	}

	return loss / float64(n), nil
}

// probabilities returns the softmax action distribution at x
func (r *Reinforce) probabilities(x []float64) []float64 {
	logits := make([]float64, r.conf.Actions)
	for b := 0; b < r.conf.Actions; b++ {
		logits[b] = floats.Dot(r.policy.RawRowView(b), x)
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

// discountCumSum computes the reverse discounted cumulative sum of x
func discountCumSum(x []float64, discount float64) []float64 {
	out := make([]float64, len(x))
	var running float64
	for i := len(x) - 1; i >= 0; i-- {
		running = x[i] + discount*running
		out[i] = running
	}
	return out
}

// normalizeAdvantages shifts and scales advantages to zero mean and
// unit deviation in place
func normalizeAdvantages(adv []float64) {
	if len(adv) < 2 {
		return
	}
	mean := stat.Mean(adv, nil)
	std := stat.StdDev(adv, nil) + 1e-8
	for i := range adv {
		adv[i] = (adv[i] - mean) / std
	}
}
