// Package replay implements the trajectory buffer service and its
// learner-side client. The service holds trajectories collected by
// actors until the learner consumes them; a clear at the end of each
// iteration guarantees no trajectory survives into the next one.
package replay

import "errors"

// Error implements errors unique to a trajectory buffer.
type Error struct {
	Op  string
	Err error
}

// Error satisfies the error interface
func (e *Error) Error() string {
	return e.Op + ": " + e.Err.Error()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

var errEmptyTable = errors.New("table empty")

var errInsufficientData = errors.New("fewer trajectories than requested")

// IsInsufficientData returns whether or not an error reports that the
// table holds fewer trajectories than a read requested.
func IsInsufficientData(err error) bool {
	if replayErr, ok := err.(*Error); ok {
		err = replayErr.Err
	}
	return err == errInsufficientData
}

// IsEmptyTable returns whether or not an error reports that a table
// holds no trajectories.
func IsEmptyTable(err error) bool {
	if replayErr, ok := err.(*Error); ok {
		err = replayErr.Err
	}
	return err == errEmptyTable
}
