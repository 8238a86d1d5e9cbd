// Package trigger implements interval-gated side-effecting callbacks
// keyed on the training step counter. The learner fires every trigger
// after each step advance; each implementation owns its own interval
// and offset state and must never mutate the counter it is keyed on.
package trigger

import "fmt"

// Trigger fires a side effect when the step counter crosses the
// trigger's interval. Fire must be fast; a trigger blocks the training
// cycle only for its own execution.
type Trigger interface {
	Fire(step int64) error
}

// intervalGate tracks when a step counter crosses interval boundaries.
// A negative start offset makes the gate open on the very first call:
// with start = -interval, step 0 is already one full interval past the
// last firing point.
type intervalGate struct {
	interval int64
	last     int64
}

func newIntervalGate(start, interval int64) (*intervalGate, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("newIntervalGate: interval must be > 0, "+
			"got %v", interval)
	}
	return &intervalGate{interval: interval, last: start}, nil
}

// ready reports whether step is at least one interval past the last
// firing point and, if so, advances the firing point by whole
// intervals. The gate never opens mid-interval.
func (g *intervalGate) ready(step int64) bool {
	if step-g.last < g.interval {
		return false
	}
	g.last += g.interval * ((step - g.last) / g.interval)
	return true
}
