// Package learner implements the training cycle driver: the outer
// loop that waits for on-policy data, trains, publishes variables, and
// purges the buffer once per iteration.
package learner

import "fmt"

// ComputeInitIteration computes the training-loop iteration a resumed
// run restarts at. On restart the persisted train step is the only
// scalar available; the batching configuration fixes the relationship
// between gradient updates and iterations, so the number of whole
// iterations already elapsed is
//
//	floor(step * minibatch * replicas / seqLen / episodes / epochs)
//
// A zero minibatch size selects full-sequence mode, where one gradient
// update consumes one whole sequence.
func ComputeInitIteration(initTrainStep int64, sequenceLength,
	episodesPerIteration, numEpochs, minibatchSize,
	numReplicas int) (int, error) {
	if sequenceLength <= 0 {
		return 0, fmt.Errorf("computeInitIteration: sequence length must "+
			"be > 0, got %v", sequenceLength)
	}
	if episodesPerIteration <= 0 {
		return 0, fmt.Errorf("computeInitIteration: episodes per iteration "+
			"must be > 0, got %v", episodesPerIteration)
	}
	if numEpochs <= 0 {
		return 0, fmt.Errorf("computeInitIteration: epoch count must be "+
			"> 0, got %v", numEpochs)
	}
	if numReplicas <= 0 {
		return 0, fmt.Errorf("computeInitIteration: replica count must be "+
			"> 0, got %v", numReplicas)
	}
	if initTrainStep < 0 {
		return 0, fmt.Errorf("computeInitIteration: train step must be "+
			">= 0, got %v", initTrainStep)
	}
	if minibatchSize < 0 {
		return 0, fmt.Errorf("computeInitIteration: minibatch size must be "+
			">= 0, got %v", minibatchSize)
	}
	if minibatchSize == 0 {
		minibatchSize = sequenceLength
	}

	numerator := initTrainStep * int64(minibatchSize) * int64(numReplicas)
	denominator := int64(sequenceLength) * int64(episodesPerIteration) *
		int64(numEpochs)
	return int(numerator / denominator), nil
}
