package learner

import "fmt"

// Config is the full configuration surface of a training run.
type Config struct {
	// RootDir is where policy snapshots, the snapshot registry, and
	// timing summaries are written
	RootDir string

	// Service addresses
	ReplayServerAddr   string
	VariableServerAddr string

	// SequenceLength is the fixed number of steps per trajectory
	SequenceLength int

	// PerReplicaBatchSize is the minibatch size per replica. Zero
	// selects full-sequence mode, required for agents whose internal
	// state depends on full-sequence context.
	PerReplicaBatchSize int

	// NumReplicas is the number of replicas training in sync
	NumReplicas int

	NumEpochs            int
	NumIterations        int
	EpisodesPerIteration int

	// AllowVariableLengthEpisodes relaxes the fixed sequence length
	AllowVariableLengthEpisodes bool

	// ShuffleWindowEpisodes sizes the shuffle window in episodes (1-3)
	ShuffleWindowEpisodes int

	// InitTrainStep is the resumed step value; zero for a fresh run
	InitTrainStep int64

	// SummaryInterval is the throughput logging interval in steps
	SummaryInterval int64

	Seed uint64
}

// Validate detects configuration errors before the loop starts. These
// are fatal with a descriptive cause, not runtime faults.
func (c Config) Validate() error {
	if c.SequenceLength <= 0 {
		return fmt.Errorf("validate: sequence length must be > 0, got %v",
			c.SequenceLength)
	}
	if c.EpisodesPerIteration <= 0 {
		return fmt.Errorf("validate: episodes per iteration must be > 0, "+
			"got %v", c.EpisodesPerIteration)
	}
	if c.NumEpochs <= 0 {
		return fmt.Errorf("validate: epoch count must be > 0, got %v",
			c.NumEpochs)
	}
	if c.NumIterations <= 0 {
		return fmt.Errorf("validate: iteration count must be > 0, got %v",
			c.NumIterations)
	}
	if c.NumReplicas <= 0 {
		return fmt.Errorf("validate: replica count must be > 0, got %v",
			c.NumReplicas)
	}
	if c.PerReplicaBatchSize < 0 {
		return fmt.Errorf("validate: per-replica batch size must be >= 0, "+
			"got %v", c.PerReplicaBatchSize)
	}
	if c.ShuffleWindowEpisodes < 1 || c.ShuffleWindowEpisodes > 3 {
		return fmt.Errorf("validate: shuffle window must be in [1, 3], "+
			"got %v", c.ShuffleWindowEpisodes)
	}
	if c.InitTrainStep < 0 {
		return fmt.Errorf("validate: init train step must be >= 0, got %v",
			c.InitTrainStep)
	}
	if c.SummaryInterval <= 0 {
		return fmt.Errorf("validate: summary interval must be > 0, got %v",
			c.SummaryInterval)
	}

	// In fixed-length mode every iteration's data must divide evenly
	// into global minibatches, or the step count per iteration would
	// drift from the scheduler's arithmetic.
	if c.PerReplicaBatchSize > 0 && !c.AllowVariableLengthEpisodes {
		stepsPerEpoch := c.EpisodesPerIteration * c.SequenceLength
		globalBatch := c.PerReplicaBatchSize * c.NumReplicas
		if stepsPerEpoch%globalBatch != 0 {
			return fmt.Errorf("validate: steps per epoch (%v) not divisible "+
				"by global batch size (%v)", stepsPerEpoch, globalBatch)
		}
	}
	return nil
}

// GlobalBatchSize returns the number of steps consumed per gradient
// update, or zero in full-sequence mode.
func (c Config) GlobalBatchSize() int {
	if c.PerReplicaBatchSize == 0 {
		return 0
	}
	return c.PerReplicaBatchSize * c.NumReplicas
}
