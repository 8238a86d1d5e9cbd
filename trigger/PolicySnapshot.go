package trigger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/imSanko/circuit-training/variable"
)

// PolicySnapshot periodically persists the current policy fragment to
// disk and records it in the snapshot registry. Constructed with a
// start offset of minus one interval, it fires once on the very first
// step it sees and then once every interval steps.
type PolicySnapshot struct {
	gate     *intervalGate
	dir      string
	filename func() string

	// fragment and modelID read trainable state at firing time; the
	// trigger holds functions rather than the owning structs so it
	// cannot mutate them.
	fragment func() variable.Fragment
	modelID  func() int64

	registry *Registry
}

// NewPolicySnapshot returns a trigger saving policy fragments under
// dir. The registry may be nil, in which case snapshots are written
// but not recorded.
func NewPolicySnapshot(dir string, start, interval int64,
	fragment func() variable.Fragment, modelID func() int64,
	registry *Registry) (*PolicySnapshot, error) {
	gate, err := newIntervalGate(start, interval)
	if err != nil {
		return nil, fmt.Errorf("newPolicySnapshot: %v", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("newPolicySnapshot: %v", err)
	}

	return &PolicySnapshot{
		gate:     gate,
		dir:      dir,
		filename: FilenameEnumerator(0, filepath.Join(dir, "policy_"), ".json"),
		fragment: fragment,
		modelID:  modelID,
		registry: registry,
	}, nil
}

// Fire saves the current policy if the step crossed the interval. A
// failed save is surfaced: the snapshot is the run's periodic
// checkpoint, not a diagnostic.
func (p *PolicySnapshot) Fire(step int64) error {
	if !p.gate.ready(step) {
		return nil
	}

	path := p.filename()
	body, err := json.Marshal(p.fragment())
	if err != nil {
		return fmt.Errorf("fire: %v", err)
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return fmt.Errorf("fire: %v", err)
	}

	if p.registry != nil {
		if err := p.registry.Record(step, p.modelID(), path); err != nil {
			return fmt.Errorf("fire: %v", err)
		}
	}
	return nil
}
