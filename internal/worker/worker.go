// Package worker provides the simulated work units the harness
// supervises. A worker ticks at a jittered interval until it observes a
// shutdown signal, standing in for a long-lived client process.
package worker

import (
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// UnexpectedSignalError is returned by a worker's Run when it observes
// a signal outside its shutdown and reload sets.
type UnexpectedSignalError struct {
	WorkerID int
	Sig      os.Signal
}

func (e *UnexpectedSignalError) Error() string {
	return fmt.Sprintf("worker %d: unexpected signal %s", e.WorkerID, e.Sig)
}

// Callbacks contains optional hooks for worker events. Hooks run on the
// worker's goroutine and must not block.
type Callbacks struct {
	// OnTick is called after each completed unit of work.
	OnTick func(workerID int)

	// OnSignal is called for every signal the worker observes.
	OnSignal func(workerID int, sig os.Signal)
}

// Config holds configuration for creating a new Worker.
type Config struct {
	ID           int
	TickInterval time.Duration
	TickJitter   time.Duration

	// ShutdownOn signals cause a clean return from Run.
	ShutdownOn []os.Signal

	// ReloadOn signals reset the worker's op counter and keep it
	// running, like a config-reload HUP in a real daemon.
	ReloadOn []os.Signal

	// Jitter is optional; nil means a time-seeded source.
	Jitter *JitterSource

	// Logger is optional.
	Logger *slog.Logger

	Callbacks Callbacks
}

// Worker is a simulated unit of work implementing runner.Runner.
type Worker struct {
	id           int
	tickInterval time.Duration
	tickJitter   time.Duration
	shutdownOn   map[os.Signal]struct{}
	reloadOn     map[os.Signal]struct{}
	jitter       *JitterSource
	logger       *slog.Logger
	callbacks    Callbacks

	rng *rand.Rand

	ops    atomic.Int64
	setup  atomic.Bool
	doneAt atomic.Int64 // unix nanos of Run returning, 0 while running

	mu       sync.Mutex
	observed []os.Signal
}

// New creates a new Worker with the given configuration.
func New(cfg Config) *Worker {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	jitter := cfg.Jitter
	if jitter == nil {
		jitter = NewJitterSourceFromTime()
	}
	interval := cfg.TickInterval
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}

	return &Worker{
		id:           cfg.ID,
		tickInterval: interval,
		tickJitter:   cfg.TickJitter,
		shutdownOn:   signalSet(cfg.ShutdownOn),
		reloadOn:     signalSet(cfg.ReloadOn),
		jitter:       jitter,
		logger:       logger,
		callbacks:    cfg.Callbacks,
	}
}

func signalSet(sigs []os.Signal) map[os.Signal]struct{} {
	set := make(map[os.Signal]struct{}, len(sigs))
	for _, sig := range sigs {
		set[sig] = struct{}{}
	}
	return set
}

// Setup seeds the worker's jitter generator and marks it ready.
func (w *Worker) Setup() error {
	w.rng = w.jitter.ForWorker(w.id)
	w.setup.Store(true)
	w.logger.Debug("worker_setup_done", "worker_id", w.id)
	return nil
}

// Run ticks until a shutdown signal arrives. A signal in the reload set
// resets the op counter and keeps the worker going; any other signal is
// an UnexpectedSignalError. A closed signal channel is "no more
// signals": the worker keeps ticking and can only be stopped by its
// own owner exiting, which matches the runner contract.
func (w *Worker) Run(signals <-chan os.Signal) error {
	defer w.doneAt.Store(time.Now().UnixNano())

	if !w.setup.Load() {
		return fmt.Errorf("worker %d: run before setup", w.id)
	}

	timer := time.NewTimer(w.nextTick())
	defer timer.Stop()

	for {
		select {
		case sig, ok := <-signals:
			if !ok {
				signals = nil
				continue
			}
			w.recordSignal(sig)

			if _, stop := w.shutdownOn[sig]; stop {
				w.logger.Debug("worker_shutdown",
					"worker_id", w.id,
					"signal", sig.String(),
					"ops", w.ops.Load(),
				)
				return nil
			}
			if _, reload := w.reloadOn[sig]; reload {
				w.logger.Info("worker_reload", "worker_id", w.id, "signal", sig.String())
				w.ops.Store(0)
				continue
			}
			return &UnexpectedSignalError{WorkerID: w.id, Sig: sig}

		case <-timer.C:
			w.ops.Add(1)
			if w.callbacks.OnTick != nil {
				w.callbacks.OnTick(w.id)
			}
			timer.Reset(w.nextTick())
		}
	}
}

func (w *Worker) nextTick() time.Duration {
	return w.tickInterval + Jitter(w.rng, w.tickJitter)
}

func (w *Worker) recordSignal(sig os.Signal) {
	w.mu.Lock()
	w.observed = append(w.observed, sig)
	w.mu.Unlock()

	if w.callbacks.OnSignal != nil {
		w.callbacks.OnSignal(w.id, sig)
	}
}

// ID returns the worker's ID.
func (w *Worker) ID() int {
	return w.id
}

// Ops returns the number of completed work ticks.
func (w *Worker) Ops() int64 {
	return w.ops.Load()
}

// Observed returns the signals the worker has seen, in order.
func (w *Worker) Observed() []os.Signal {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]os.Signal, len(w.observed))
	copy(out, w.observed)
	return out
}

// Finished reports whether Run has returned.
func (w *Worker) Finished() bool {
	return w.doneAt.Load() != 0
}
