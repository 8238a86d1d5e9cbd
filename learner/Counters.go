package learner

// Counter is a versioned value owned by the learner process. TrainStep
// counts completed gradient updates; ModelID counts completed
// iterations. Neither is shared through package state: other processes
// see them only inside the snapshots pushed to the variable service.
type Counter struct {
	v int64
}

// NewCounter returns a counter holding v
func NewCounter(v int64) *Counter {
	return &Counter{v: v}
}

// Value returns the current value
func (c *Counter) Value() int64 {
	return c.v
}

// Assign sets the counter to v
func (c *Counter) Assign(v int64) {
	c.v = v
}

// Incr advances the counter by one and returns the new value
func (c *Counter) Incr() int64 {
	c.v++
	return c.v
}
