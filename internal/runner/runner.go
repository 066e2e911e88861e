// Package runner defines the unit-of-work contract supervised by the
// composer and process packages.
//
// A Runner has two lifecycle phases: Setup prepares the work and must
// complete in finite time; Run performs the work while draining an
// inbound signal channel, and must return in finite time once it
// observes a signal it recognizes as a shutdown request. A Runner is
// one-shot: after Run starts, the Runner belongs to its goroutine and
// must not be touched by anyone else.
package runner

import "os"

// Runner is a supervisable unit of work.
//
// Implementations must treat a closed signals channel as "no more
// signals will arrive", not as an error: a Runner may keep working
// after the channel closes, or choose to treat close as an implicit
// shutdown request. Receiving from a closed channel in a select loop
// should disable that case (set the channel variable to nil), never
// spin on it.
type Runner interface {
	// Setup prepares the unit of work. It is called at most once,
	// before Run. If Setup returns an error, Run is never invoked.
	Setup() error

	// Run performs the work, draining signals as they arrive. Run
	// consumes the Runner; it is called at most once.
	Run(signals <-chan os.Signal) error
}

// Func adapts a plain function to the Runner contract, the same way
// http.HandlerFunc adapts a function to http.Handler. Setup trivially
// succeeds.
type Func func(signals <-chan os.Signal) error

// Setup implements Runner. It always succeeds.
func (f Func) Setup() error { return nil }

// Run implements Runner by invoking the wrapped function once.
func (f Func) Run(signals <-chan os.Signal) error {
	return f(signals)
}
