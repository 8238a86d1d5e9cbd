package learner

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/imSanko/circuit-training/agent"
	"github.com/imSanko/circuit-training/replay"
	"github.com/imSanko/circuit-training/trigger"
	"github.com/imSanko/circuit-training/variable"
)

// Loop runs the full training schedule. Each iteration moves through
// four phases in order: wait for the buffer to hold the iteration's
// episodes, train over them, publish the new variable snapshot, and
// purge the buffer so the next iteration only ever sees data produced
// against the snapshot it just pushed.
//
// On restart the loop recomputes its position in the schedule from the
// restored step counter, so a run resumed from step s re-enters at the
// iteration that would have produced step s and the published ModelID
// always equals the number of completed iterations.
type Loop struct {
	conf      Config
	agent     agent.Agent
	learner   *Learner
	variables *variable.Client
	buffer    *replay.Client

	trainStep *Counter
	modelID   *Counter

	initIteration int
	metricsPath   string
}

// NewLoop validates the configuration and wires the training loop
// around the given agent
func NewLoop(conf Config, ag agent.Agent) (*Loop, error) {
	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("newLoop: %v", err)
	}

	initIteration, err := ComputeInitIteration(conf.InitTrainStep,
		conf.SequenceLength, conf.EpisodesPerIteration, conf.NumEpochs,
		conf.PerReplicaBatchSize, conf.NumReplicas)
	if err != nil {
		return nil, fmt.Errorf("newLoop: %v", err)
	}

	trainStep := NewCounter(conf.InitTrainStep)
	modelID := NewCounter(int64(initIteration))

	buffer := replay.NewClient(conf.ReplayServerAddr, "")
	variables := variable.NewClient(conf.VariableServerAddr, "")

	registry, err := trigger.OpenRegistry(
		filepath.Join(conf.RootDir, "snapshots.db"))
	if err != nil {
		return nil, fmt.Errorf("newLoop: %v", err)
	}

	episodes := int64(conf.EpisodesPerIteration)
	snapshots, err := trigger.NewPolicySnapshot(
		filepath.Join(conf.RootDir, "policies"), -episodes, episodes,
		ag.PolicyVariables, modelID.Value, registry)
	if err != nil {
		return nil, fmt.Errorf("newLoop: %v", err)
	}
	throughput, err := trigger.NewStepsPerSecond(conf.SummaryInterval)
	if err != nil {
		return nil, fmt.Errorf("newLoop: %v", err)
	}
	triggers := []trigger.Trigger{snapshots, throughput}

	return &Loop{
		conf:          conf,
		agent:         ag,
		learner:       New(conf, ag, buffer, trainStep, triggers),
		variables:     variables,
		buffer:        buffer,
		trainStep:     trainStep,
		modelID:       modelID,
		initIteration: initIteration,
		metricsPath:   filepath.Join(conf.RootDir, "summaries.csv"),
	}, nil
}

// InitIteration returns the iteration the loop will start from
func (l *Loop) InitIteration() int {
	return l.initIteration
}

// Run executes iterations initIteration through NumIterations-1. Any
// failure in any phase is fatal and ends the run; only metrics writes
// are best effort.
func (l *Loop) Run(ctx context.Context) error {
	if err := l.agent.Initialize(); err != nil {
		return fmt.Errorf("run: %v", err)
	}

	// Actors cannot produce usable data until a snapshot exists, so
	// the initial variables go out before the first wait.
	if err := l.push(ctx); err != nil {
		return fmt.Errorf("run: initial push: %v", err)
	}

	for i := l.initIteration; i < l.conf.NumIterations; i++ {
		log.Printf("iteration %v of %v, train step %v", i,
			l.conf.NumIterations, l.trainStep.Value())

		start := time.Now()
		waited, err := l.learner.WaitForData(ctx)
		if err != nil {
			return fmt.Errorf("run: iteration %v: %v", i, err)
		}
		log.Printf("waited %v for training data", waited)

		stepsBefore := l.trainStep.Value()
		if err := l.learner.Run(ctx, i); err != nil {
			return fmt.Errorf("run: iteration %v: %v", i, err)
		}
		elapsed := time.Since(start)

		// ModelID counts completed iterations
		l.modelID.Assign(int64(i) + 1)
		if err := l.push(ctx); err != nil {
			return fmt.Errorf("run: iteration %v: %v", i, err)
		}

		if err := l.buffer.Clear(ctx); err != nil {
			return fmt.Errorf("run: iteration %v: %v", i, err)
		}

		l.writeMetrics(i, stepsBefore, waited, elapsed)
	}
	return nil
}

// push publishes the agent's current variables with the step and model
// counters as one atomic document
func (l *Loop) push(ctx context.Context) error {
	return l.variables.Push(ctx, variable.Snapshot{
		Policy:    l.agent.PolicyVariables(),
		TrainStep: l.trainStep.Value(),
		ModelID:   l.modelID.Value(),
	})
}

// writeMetrics appends per-iteration timing to the summary file. The
// metrics are diagnostics, so failures are logged and swallowed.
func (l *Loop) writeMetrics(iteration int, stepsBefore int64,
	waited, elapsed time.Duration) {
	steps := l.trainStep.Value() - stepsBefore
	rate := 0.0
	if elapsed > 0 {
		rate = float64(steps) / elapsed.Seconds()
	}

	f, err := os.OpenFile(l.metricsPath,
		os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		log.Printf("could not write metrics: %v", err)
		return
	}
	defer f.Close()

	line := fmt.Sprintf("%v,%v,%.3f,%.2f\n", iteration,
		l.trainStep.Value(), waited.Seconds(), rate)
	if _, err := f.WriteString(line); err != nil {
		log.Printf("could not write metrics: %v", err)
	}
}
