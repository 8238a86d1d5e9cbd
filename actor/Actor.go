// Package actor implements the experience-producing side of the
// training system: it pulls the latest variable snapshot, runs the
// environment under the pulled policy, and posts fixed-length
// trajectories stamped with the snapshot's model id.
package actor

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/rand"

	"github.com/imSanko/circuit-training/environment"
	"github.com/imSanko/circuit-training/replay"
	"github.com/imSanko/circuit-training/timestep"
	"github.com/imSanko/circuit-training/variable"
)

// pullInterval is how long the actor waits between attempts to pull
// the first snapshot
const pullInterval = 500 * time.Millisecond

// Config is the configuration surface of one actor process
type Config struct {
	ReplayServerAddr   string
	VariableServerAddr string

	// SequenceLength is the fixed number of steps per posted
	// trajectory. Collection does not pause at episode boundaries:
	// episodes are laid end to end and cut every SequenceLength steps.
	SequenceLength int

	// TrajectoriesPerRefresh is how many trajectories are collected
	// between snapshot pulls
	TrajectoriesPerRefresh int

	Seed uint64
}

// Validate detects configuration errors before collection starts
func (c Config) Validate() error {
	if c.SequenceLength <= 0 {
		return fmt.Errorf("validate: sequence length must be > 0, got %v",
			c.SequenceLength)
	}
	if c.TrajectoriesPerRefresh <= 0 {
		return fmt.Errorf("validate: trajectories per refresh must be > 0, "+
			"got %v", c.TrajectoriesPerRefresh)
	}
	return nil
}

// Actor collects experience until its context is cancelled
type Actor struct {
	id   string
	conf Config

	env       environment.Environment
	variables *variable.Client
	buffer    *replay.Client
	rng       *rand.Rand

	// Collection state carried across trajectory cuts
	observation []float64
	needReset   bool
	episodeID   int
}

// New constructs an actor over the given environment
func New(conf Config, env environment.Environment) (*Actor, error) {
	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	return &Actor{
		id:        uuid.NewString(),
		conf:      conf,
		env:       env,
		variables: variable.NewClient(conf.VariableServerAddr, ""),
		buffer:    replay.NewClient(conf.ReplayServerAddr, ""),
		rng:       rand.New(rand.NewSource(conf.Seed)),
		needReset: true,
	}, nil
}

// ID returns the actor's unique id
func (a *Actor) ID() string {
	return a.id
}

// Run collects and posts trajectories until ctx is cancelled. The
// actor cannot act before the learner publishes its first snapshot, so
// Run polls for one before collection starts.
func (a *Actor) Run(ctx context.Context) error {
	policy, err := a.waitForSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("run: %v", err)
	}
	if policy.FeatureSize() != a.env.FeatureSize() {
		return fmt.Errorf("run: snapshot feature size %v does not match "+
			"environment feature size %v", policy.FeatureSize(),
			a.env.FeatureSize())
	}
	log.Printf("actor %v collecting with model %v", a.id, policy.ModelID())

	collected := 0
	for {
		if ctx.Err() != nil {
			return nil
		}

		trajectory, err := a.collect(policy)
		if err != nil {
			return fmt.Errorf("run: %v", err)
		}
		if err := a.post(ctx, trajectory); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("run: %v", err)
		}

		collected++
		if collected%a.conf.TrajectoriesPerRefresh == 0 {
			fresh, err := a.refresh(ctx, policy)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("run: %v", err)
			}
			policy = fresh
		}
	}
}

// waitForSnapshot polls the variable service until a snapshot exists
func (a *Actor) waitForSnapshot(ctx context.Context) (*Policy, error) {
	for {
		snapshot, err := a.variables.Pull(ctx)
		if err == nil {
			return NewPolicy(snapshot)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(pullInterval):
		}
	}
}

// refresh pulls the latest snapshot and logs a model change
func (a *Actor) refresh(ctx context.Context, current *Policy) (*Policy,
	error) {
	snapshot, err := a.variables.Pull(ctx)
	if err != nil {
		return nil, err
	}
	policy, err := NewPolicy(snapshot)
	if err != nil {
		return nil, err
	}
	if policy.ModelID() != current.ModelID() {
		log.Printf("actor %v now collecting with model %v", a.id,
			policy.ModelID())
	}
	return policy, nil
}

// collect gathers exactly SequenceLength steps under the policy,
// resetting the environment whenever an episode ends mid-sequence
func (a *Actor) collect(policy *Policy) (timestep.Trajectory, error) {
	steps := make([]timestep.Step, 0, a.conf.SequenceLength)

	for len(steps) < a.conf.SequenceLength {
		first := false
		if a.needReset {
			start := a.env.Reset()
			a.observation = start.Observation
			a.needReset = false
			a.episodeID++
			first = true
		}

		action, logProb, value, err := policy.SelectAction(a.rng,
			a.observation)
		if err != nil {
			return timestep.Trajectory{}, fmt.Errorf("collect: %v", err)
		}
		next, done, err := a.env.Step(action)
		if err != nil {
			return timestep.Trajectory{}, fmt.Errorf("collect: %v", err)
		}

		stepType := timestep.Mid
		if done {
			stepType = timestep.Last
		} else if first {
			stepType = timestep.First
		}
		steps = append(steps, timestep.Step{
			Type:        stepType,
			Observation: a.observation,
			Action:      action,
			Reward:      next.Reward,
			Discount:    next.Discount,
			LogProb:     logProb,
			Value:       value,
			Number:      len(steps),
		})

		a.observation = next.Observation
		a.needReset = done
	}

	return timestep.Trajectory{
		ActorID:   a.id,
		EpisodeID: a.episodeID,
		Steps:     steps,
		Info: timestep.Info{
			Priority: 1.0,
			ModelID:  policy.ModelID(),
		},
		CreatedAtMs: time.Now().UnixMilli(),
	}, nil
}

// post writes one trajectory to the replay service
func (a *Actor) post(ctx context.Context, t timestep.Trajectory) error {
	return a.buffer.Write(ctx, []timestep.Trajectory{t})
}
