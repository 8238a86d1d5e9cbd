package learner

import (
	"context"
	"fmt"
	"time"

	"gorgonia.org/tensor"

	"github.com/imSanko/circuit-training/agent"
	"github.com/imSanko/circuit-training/replay"
	"github.com/imSanko/circuit-training/timestep"
	"github.com/imSanko/circuit-training/trigger"
)

// Learner drives one iteration of the training cycle: it draws exactly
// one iteration's worth of episodes, preprocesses each stored sequence,
// and hands minibatches to the opaque Agent for the configured number
// of epochs. Each Train call advances the shared step counter by one,
// so after Run returns the counter has advanced by exactly
// numEpochs * minibatchesPerEpoch.
type Learner struct {
	conf      Config
	agent     agent.Agent
	buffer    *replay.Client
	trainStep *Counter
	triggers  []trigger.Trigger
}

// New returns a Learner over the given collaborators
func New(conf Config, ag agent.Agent, buffer *replay.Client,
	trainStep *Counter, triggers []trigger.Trigger) *Learner {
	return &Learner{
		conf:      conf,
		agent:     ag,
		buffer:    buffer,
		trainStep: trainStep,
		triggers:  triggers,
	}
}

// WaitForData blocks until the buffer holds at least one trajectory
// and returns the wait latency. The call is diagnostic only; Run
// blocks for data sufficiency on its own.
func (l *Learner) WaitForData(ctx context.Context) (time.Duration, error) {
	return l.buffer.WaitForData(ctx)
}

// Run trains the agent on the current iteration's data. The iteration
// index only seeds the shuffle order so that resumed runs do not
// replay identical minibatch orderings.
func (l *Learner) Run(ctx context.Context, iteration int) error {
	trajectories, err := l.buffer.Fetch(ctx, l.conf.EpisodesPerIteration)
	if err != nil {
		return fmt.Errorf("run: %v", err)
	}

	wantLength := l.conf.SequenceLength
	if l.conf.AllowVariableLengthEpisodes {
		wantLength = 0
	}
	for i := range trajectories {
		if err := trajectories[i].Validate(l.agent.FeatureSize(),
			wantLength); err != nil {
			return fmt.Errorf("run: %v", err)
		}
	}

	for epoch := 0; epoch < l.conf.NumEpochs; epoch++ {
		seed := l.conf.Seed + uint64(iteration)*uint64(l.conf.NumEpochs) +
			uint64(epoch)
		stream, err := replay.NewBatchStream(trajectories,
			l.conf.ShuffleWindowEpisodes, seed)
		if err != nil {
			return fmt.Errorf("run: %v", err)
		}
		if err := l.runEpoch(stream); err != nil {
			return fmt.Errorf("run: epoch %v: %v", epoch, err)
		}
	}
	return nil
}

// runEpoch makes one full pass over the iteration's data
func (l *Learner) runEpoch(stream *replay.BatchStream) error {
	globalBatch := l.conf.GlobalBatchSize()
	acc := newAccumulator(l.agent.FeatureSize())

	for {
		batch, ok := stream.Next()
		if !ok {
			break
		}

		seq, err := l.agent.PreprocessSequence(batch.Trajectory)
		if err != nil {
			return err
		}
		acc.add(seq, batch.Info.Data().([]float64))

		if globalBatch == 0 {
			// Full-sequence mode: one gradient update per sequence,
			// required for agents whose state depends on the whole
			// sequence context.
			if err := l.train(acc.cut(acc.length)); err != nil {
				return err
			}
			continue
		}

		for acc.length >= globalBatch {
			if err := l.train(acc.cut(globalBatch)); err != nil {
				return err
			}
		}
	}

	// Fixed-length runs divide evenly by construction; a remainder can
	// exist only with variable-length episodes.
	if acc.length > 0 {
		if err := l.train(acc.cut(acc.length)); err != nil {
			return err
		}
	}
	return nil
}

// train performs one gradient update and fires the triggers
func (l *Learner) train(m agent.Minibatch) error {
	if _, err := l.agent.Train(m); err != nil {
		return err
	}
	step := l.trainStep.Incr()

	for _, t := range l.triggers {
		if err := t.Fire(step); err != nil {
			return err
		}
	}
	return nil
}

// accumulator collects preprocessed steps until a minibatch can be cut
type accumulator struct {
	features int
	length   int

	obs  []float64
	act  []float64
	adv  []float64
	ret  []float64
	logp []float64
	info []float64
}

func newAccumulator(features int) *accumulator {
	return &accumulator{features: features}
}

func (a *accumulator) add(seq agent.ProcessedSequence, info []float64) {
	a.obs = append(a.obs, seq.Observations...)
	a.act = append(a.act, seq.Actions...)
	a.adv = append(a.adv, seq.Advantages...)
	a.ret = append(a.ret, seq.Returns...)
	a.logp = append(a.logp, seq.LogProbs...)
	a.info = append(a.info, info...)
	a.length += seq.Length
}

// cut removes the first n steps and packages them as a minibatch
func (a *accumulator) cut(n int) agent.Minibatch {
	m := agent.Minibatch{
		Observations: tensor.NewDense(tensor.Float64,
			tensor.Shape{n, a.features},
			tensor.WithBacking(take(&a.obs, n*a.features))),
		Actions: tensor.NewDense(tensor.Float64, tensor.Shape{n},
			tensor.WithBacking(take(&a.act, n))),
		Advantages: tensor.NewDense(tensor.Float64, tensor.Shape{n},
			tensor.WithBacking(take(&a.adv, n))),
		Returns: tensor.NewDense(tensor.Float64, tensor.Shape{n},
			tensor.WithBacking(take(&a.ret, n))),
		LogProbs: tensor.NewDense(tensor.Float64, tensor.Shape{n},
			tensor.WithBacking(take(&a.logp, n))),
		Info: tensor.NewDense(tensor.Float64,
			tensor.Shape{n, timestep.InfoSize},
			tensor.WithBacking(take(&a.info, n*timestep.InfoSize))),
	}
	a.length -= n
	return m
}

// take removes and returns the first n elements of *s
func take(s *[]float64, n int) []float64 {
	out := make([]float64, n)
	copy(out, (*s)[:n])
	*s = (*s)[n:]
	return out
}
