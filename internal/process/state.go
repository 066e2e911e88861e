package process

// procState guards the one-shot result-delivery operations. Transitions
// only move forward: Init -> SetupDone -> Finished, or Init -> Finished
// directly when Wait is called without Ready.
type procState int

const (
	// stateInit is the initial state; both Ready and Wait are valid.
	stateInit procState = iota

	// stateSetupDone means Ready has consumed the setup result; only
	// Wait remains valid.
	stateSetupDone

	// stateFinished means Wait has consumed the run result; neither
	// operation is valid anymore.
	stateFinished
)

// String returns a human-readable name for the state.
func (s procState) String() string {
	switch s {
	case stateInit:
		return "init"
	case stateSetupDone:
		return "setup_done"
	case stateFinished:
		return "finished"
	default:
		return "unknown"
	}
}
