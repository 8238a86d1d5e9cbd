package trigger

import (
	"fmt"
	"log"
	"time"
)

// StepsPerSecond logs training throughput every interval steps. It is
// observability only: it reads the step counter and the wall clock and
// mutates neither.
type StepsPerSecond struct {
	gate     *intervalGate
	lastStep int64
	lastTime time.Time
	logf     func(format string, v ...interface{})
}

// NewStepsPerSecond returns a throughput logging trigger firing every
// interval steps.
func NewStepsPerSecond(interval int64) (*StepsPerSecond, error) {
	gate, err := newIntervalGate(0, interval)
	if err != nil {
		return nil, fmt.Errorf("newStepsPerSecond: %v", err)
	}
	return &StepsPerSecond{
		gate:     gate,
		lastTime: time.Now(),
		logf:     log.Printf,
	}, nil
}

// Fire logs the step rate since the last firing
func (s *StepsPerSecond) Fire(step int64) error {
	if !s.gate.ready(step) {
		return nil
	}

	now := time.Now()
	elapsed := now.Sub(s.lastTime).Seconds()
	rate := 0.0
	if elapsed > 0 {
		rate = float64(step-s.lastStep) / elapsed
	}
	s.logf("train: %.1f steps/sec at step %d", rate, step)

	s.lastStep = step
	s.lastTime = now
	return nil
}
