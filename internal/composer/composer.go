// Package composer executes a fixed set of runners concurrently as one
// logical runner, fanning inbound signals out to every child and
// aggregating the first failure into a single result.
package composer

import (
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/randomizedcoder/go-runner-swarm/internal/runner"
)

// fanoutBuffer is the capacity of each per-runner feed channel. It is
// sized to absorb signal bursts without blocking the fan-out goroutine
// under normal load; a feed that still fills up (a runner that stopped
// draining) drops signals rather than stalling its siblings.
const fanoutBuffer = 1024

// state tracks the composer's setup lifecycle.
type state int

const (
	stateInit state = iota
	stateSetupDone
)

// Callbacks contains optional hooks for composer events. All hooks are
// invoked from composer-owned goroutines and must not block.
type Callbacks struct {
	// OnRunnerStart is called just before a runner's Run is invoked.
	OnRunnerStart func(index int)

	// OnRunnerExit is called after a runner's Run returns.
	OnRunnerExit func(index int, uptime time.Duration, err error)

	// OnSignalForward is called once per signal the fan-out goroutine
	// observes, before it is copied to the feed channels. This includes
	// synthesized error signals.
	OnSignalForward func(sig os.Signal)

	// OnSignalDrop is called when a runner's feed channel is full and a
	// signal is discarded for that runner.
	OnSignalDrop func(index int, sig os.Signal)
}

// Config holds configuration for creating a new Composer.
type Config struct {
	// Runners is the ordered set of children. Order is setup order;
	// Run executes all of them concurrently.
	Runners []runner.Runner

	// ErrorSignal, when non-nil, enables error propagation: the first
	// runner failure triggers a broadcast of this signal to the
	// surviving runners so they can shut down promptly. When nil the
	// composer only aggregates errors.
	//
	// The broadcast is best-effort: delivery uses the same bounded
	// per-runner feeds as regular fan-out, so a runner whose feed is
	// full misses the signal (the drop is counted and logged via
	// OnSignalDrop). Runners must not rely on observing it.
	ErrorSignal os.Signal

	// Logger is optional; a nil logger discards composer events.
	Logger *slog.Logger

	// Callbacks are optional event hooks.
	Callbacks Callbacks
}

// Composer supervises a fixed set of runners as a single runner. It
// implements runner.Runner, so composers nest.
//
// A Composer is one-shot: Run consumes it and must not be called twice.
type Composer struct {
	runners   []runner.Runner
	state     state
	slot      *errSlot
	errSignal os.Signal
	logger    *slog.Logger
	callbacks Callbacks
}

// New creates a Composer from cfg.
func New(cfg Config) *Composer {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Composer{
		runners:   cfg.Runners,
		state:     stateInit,
		slot:      &errSlot{},
		errSignal: cfg.ErrorSignal,
		logger:    logger,
		callbacks: cfg.Callbacks,
	}
}

// Setup prepares every child in order, stopping at the first failure.
// Calling Setup explicitly before Run and letting Run perform it
// implicitly produce the same outcome.
func (c *Composer) Setup() error {
	for i, r := range c.runners {
		if err := r.Setup(); err != nil {
			c.logger.Warn("runner_setup_failed", "index", i, "error", err)
			return err
		}
	}
	c.state = stateSetupDone
	c.logger.Debug("composer_setup_done", "runners", len(c.runners))
	return nil
}

// Run executes every child concurrently, fanning signals out to each
// child's private feed channel, and blocks until all children have
// returned. The result is the first failure any child reported, or nil
// if all succeeded. Run consumes the Composer.
//
// A child that panics is not caught here: the panic takes the program
// down, loudly. Ordinary error returns are recoverable and surface as
// Run's own result.
func (c *Composer) Run(signals <-chan os.Signal) error {
	if c.state == stateInit {
		if err := c.Setup(); err != nil {
			return err
		}
	}

	feeds := make([]chan os.Signal, len(c.runners))
	for i := range feeds {
		feeds[i] = make(chan os.Signal, fanoutBuffer)
	}

	// Each runner goroutine sends at most one notification and the
	// channel holds one slot per runner, so sends never block.
	var failed chan struct{}
	if c.errSignal != nil {
		failed = make(chan struct{}, len(c.runners))
	}

	// Zero-capacity by design: the send in the join step below
	// rendezvouses with the fan-out goroutine, sequencing its shutdown
	// after all runner goroutines have finished.
	stop := make(chan struct{})
	fanoutDone := c.fanout(signals, feeds, failed, stop)

	var wg sync.WaitGroup
	for i, r := range c.runners {
		wg.Add(1)
		go func(index int, r runner.Runner, feed <-chan os.Signal) {
			defer wg.Done()

			if c.callbacks.OnRunnerStart != nil {
				c.callbacks.OnRunnerStart(index)
			}
			c.logger.Debug("runner_starting", "index", index)

			start := time.Now()
			err := r.Run(feed)
			uptime := time.Since(start)

			if c.callbacks.OnRunnerExit != nil {
				c.callbacks.OnRunnerExit(index, uptime, err)
			}

			if err == nil {
				c.logger.Debug("runner_finished", "index", index, "uptime", uptime.String())
				return
			}

			first := c.slot.TrySet(err)
			c.logger.Warn("runner_failed",
				"index", index,
				"uptime", uptime.String(),
				"first_failure", first,
				"error", err,
			)
			if failed != nil {
				failed <- struct{}{}
			}
		}(i, r, feeds[i])
	}

	wg.Wait()
	stop <- struct{}{}
	<-fanoutDone

	return c.slot.Take()
}
