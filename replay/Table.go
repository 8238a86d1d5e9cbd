package replay

import (
	"sync"

	"github.com/imSanko/circuit-training/timestep"
)

// Table is a named logical collection of trajectories awaiting
// consumption. Writes and clears are serialized under one lock and
// every write is stamped with the table's current generation, so a
// write racing a clear lands whole in the next iteration's window and
// is never silently lost, while no trajectory from before the clear
// survives it.
type Table struct {
	mu         sync.Mutex
	name       string
	generation uint64
	items      []timestep.Trajectory
}

// NewTable returns an empty table with the given name
func NewTable(name string) *Table {
	return &Table{name: name}
}

// Name returns the table's name
func (t *Table) Name() string {
	return t.name
}

// Write appends a trajectory to the table, stamping it with the
// current generation.
func (t *Table) Write(traj timestep.Trajectory) {
	t.mu.Lock()
	defer t.mu.Unlock()

	traj.Generation = t.generation
	t.items = append(t.items, traj)
}

// Count returns the number of trajectories in the current window
func (t *Table) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.items)
}

// Generation returns the current clear generation of the table
func (t *Table) Generation() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.generation
}

// Read returns the first n trajectories in insertion order without
// removing them. It fails if the table holds fewer than n.
func (t *Table) Read(n int) ([]timestep.Trajectory, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.items) == 0 {
		return nil, &Error{Op: "read", Err: errEmptyTable}
	}
	if len(t.items) < n {
		return nil, &Error{Op: "read", Err: errInsufficientData}
	}

	out := make([]timestep.Trajectory, n)
	copy(out, t.items[:n])
	return out, nil
}

// Clear removes every trajectory from the table and advances the
// generation. It returns the number of trajectories removed.
func (t *Table) Clear() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	removed := len(t.items)
	t.items = nil
	t.generation++
	return removed
}
