package reinforce

import "fmt"

// Config implements a specific configuration of a Reinforce agent
type Config struct {
	FeatureSize int
	Actions     int

	LearningRate      float64
	ValueLearningRate float64

	// Lambda and Gamma control generalized advantage estimation
	Lambda float64
	Gamma  float64

	Seed uint64
}

// Validate checks the configuration for illegal values
func (c Config) Validate() error {
	if c.FeatureSize <= 0 {
		return fmt.Errorf("validate: feature size must be > 0")
	}
	if c.Actions <= 0 {
		return fmt.Errorf("validate: action count must be > 0")
	}
	if c.LearningRate <= 0 || c.ValueLearningRate <= 0 {
		return fmt.Errorf("validate: learning rates must be > 0")
	}
	if c.Gamma < 0 || c.Gamma > 1 {
		return fmt.Errorf("validate: gamma must be in [0, 1]")
	}
	if c.Lambda < 0 || c.Lambda > 1 {
		return fmt.Errorf("validate: lambda must be in [0, 1]")
	}
	return nil
}

// Create creates and returns the Reinforce agent with the specified
// Config.
func (c Config) Create() (*Reinforce, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("create: %v", err)
	}
	return newReinforce(c), nil
}
