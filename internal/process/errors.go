package process

import "errors"

var (
	// ErrResultAlreadyGiven is returned when Ready or Wait is called
	// after its one-shot result has already been delivered. This is a
	// programmer error, not a runtime fault.
	ErrResultAlreadyGiven = errors.New("process: result already returned to caller")

	// ErrCouldNotRecvResult is returned when the background goroutine
	// exited without publishing a result, e.g. setup failed so run was
	// never started, or an internal invariant was violated.
	ErrCouldNotRecvResult = errors.New("process: could not receive result from runner goroutine")
)

// RunnerError wraps a failure returned by the supervised runner's Setup
// or Run. The wrapped error is the runner's own value, opaque to this
// package.
type RunnerError struct {
	Err error
}

func (e *RunnerError) Error() string {
	return "runner: " + e.Err.Error()
}

func (e *RunnerError) Unwrap() error {
	return e.Err
}

// wrapRunner wraps a non-nil runner error, passing nil through.
func wrapRunner(err error) error {
	if err == nil {
		return nil
	}
	return &RunnerError{Err: err}
}
