// Package variable implements the variable distribution service and
// its client. The service holds the authoritative named parameter
// snapshot for a run; the learner pushes a new snapshot once per
// completed iteration and actors pull from the same table to refresh
// their acting policy.
package variable

import "fmt"

// DefaultTable is the well-known table name used by a single run.
const DefaultTable = "variables"

// Fragment is the trainable state an agent contributes to a snapshot:
// the policy weights and the value-function weights, stored row major.
type Fragment struct {
	Policy   []float64 `json:"policy"`
	Value    []float64 `json:"value"`
	Features int       `json:"features"`
	Actions  int       `json:"actions"`
}

// Validate checks the fragment dimensions against its backing slices
func (f *Fragment) Validate() error {
	if f.Features <= 0 || f.Actions <= 0 {
		return fmt.Errorf("validate: non-positive fragment dimensions "+
			"(features=%v, actions=%v)", f.Features, f.Actions)
	}
	if len(f.Policy) != f.Actions*f.Features {
		return fmt.Errorf("validate: illegal policy size "+
			"\n\twant(%v)\n\thave(%v)", f.Actions*f.Features, len(f.Policy))
	}
	if len(f.Value) != f.Features {
		return fmt.Errorf("validate: illegal value size "+
			"\n\twant(%v)\n\thave(%v)", f.Features, len(f.Value))
	}
	return nil
}

// Snapshot is the immutable-at-push-time mapping published to the
// variable service. It is encoded as a single document so a reader can
// never observe a new policy paired with a stale version or vice versa.
type Snapshot struct {
	Policy    Fragment `json:"policy"`
	TrainStep int64    `json:"train_step"`
	ModelID   int64    `json:"model_id"`
}
