// Package process runs exactly one runner on a dedicated goroutine and
// exposes a one-shot ready/wait/signal lifecycle handle to the caller.
package process

import (
	"log/slog"
	"os"
	"sync"

	"github.com/randomizedcoder/go-runner-swarm/internal/runner"
)

// Process supervises a single runner (typically a composer) on a
// background goroutine. Ready and Wait each deliver their result at
// most once, guarded by a small forward-only state machine; Signal may
// be called any number of times, concurrently with either.
type Process struct {
	setupCh <-chan error
	runCh   <-chan error

	signaler chan<- os.Signal
	done     chan struct{}
	logger   *slog.Logger

	mu    sync.Mutex
	state procState
}

// New starts r on a background goroutine and returns its handle. The
// goroutine calls Setup, publishes the outcome, and calls Run (with
// inbound as the signal stream) only if setup succeeded. New never
// blocks.
//
// signaler and inbound are usually two ends of the same channel; Launch
// wires that up along with OS signal subscription. logger may be nil.
func New(r runner.Runner, signaler chan<- os.Signal, inbound <-chan os.Signal, logger *slog.Logger) *Process {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	setupCh := make(chan error, 1)
	runCh := make(chan error, 1)
	done := make(chan struct{})

	p := &Process{
		setupCh:  setupCh,
		runCh:    runCh,
		signaler: signaler,
		done:     done,
		logger:   logger,
		state:    stateInit,
	}

	go func() {
		// Closing the result channels lets Ready/Wait distinguish "no
		// result will ever come" from a result that hasn't come yet.
		defer close(done)
		defer close(runCh)
		defer close(setupCh)

		err := r.Setup()
		setupCh <- wrapRunner(err)
		if err != nil {
			logger.Warn("runner_setup_failed", "error", err)
			return
		}
		logger.Debug("runner_setup_done")

		runCh <- wrapRunner(r.Run(inbound))
		logger.Debug("runner_run_done")
	}()

	return p
}

// Ready blocks until the runner's setup outcome is available and
// returns it. Valid only once: a second call returns
// ErrResultAlreadyGiven without blocking and without re-running setup.
func (p *Process) Ready() error {
	p.mu.Lock()
	if p.state != stateInit {
		p.mu.Unlock()
		return ErrResultAlreadyGiven
	}
	p.state = stateSetupDone
	p.mu.Unlock()

	res, ok := <-p.setupCh
	if !ok {
		return ErrCouldNotRecvResult
	}
	return res
}

// Wait blocks until the runner's run outcome is available and returns
// it. Calling Wait without Ready is legal and simply waits longer; it
// consumes only the run result. A second call returns
// ErrResultAlreadyGiven. If setup failed, run never started and Wait
// returns ErrCouldNotRecvResult.
func (p *Process) Wait() error {
	p.mu.Lock()
	if p.state == stateFinished {
		p.mu.Unlock()
		return ErrResultAlreadyGiven
	}
	p.state = stateFinished
	p.mu.Unlock()

	res, ok := <-p.runCh
	if !ok {
		return ErrCouldNotRecvResult
	}
	return res
}

// Signal forwards sig to the supervised runner's inbound stream. It
// never blocks: when the signal buffer is full the signal is dropped,
// matching os/signal delivery semantics.
func (p *Process) Signal(sig os.Signal) {
	select {
	case p.signaler <- sig:
	default:
		p.logger.Warn("signal_dropped", "signal", sig.String())
	}
}

// Join blocks until the background goroutine has exited. Every Process
// owner must eventually call Join (typically deferred) so no goroutine
// is abandoned; it is safe to call from multiple goroutines and after
// Wait.
func (p *Process) Join() {
	<-p.done
}
