package orchestrator

import (
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/randomizedcoder/go-runner-swarm/internal/metrics"
	"github.com/randomizedcoder/go-runner-swarm/internal/stats"
	"github.com/randomizedcoder/go-runner-swarm/internal/worker"
)

// RunnerTracker is the event hub between the composer's callbacks and
// the observability stack. Composer and worker hooks fire on many
// goroutines; the tracker fans each event to the stats recorder and
// the Prometheus collector.
type RunnerTracker struct {
	logger    *slog.Logger
	recorder  *stats.Recorder
	collector *metrics.Collector

	// Workers indexed by runner ID
	workers map[int]*worker.Worker
	mu      sync.RWMutex

	// Counters
	activeCount  atomic.Int64
	startedCount atomic.Int64
	failedCount  atomic.Int64
}

// TrackerConfig holds configuration for the RunnerTracker.
type TrackerConfig struct {
	Logger    *slog.Logger
	Recorder  *stats.Recorder
	Collector *metrics.Collector
}

// NewRunnerTracker creates a new RunnerTracker.
func NewRunnerTracker(cfg TrackerConfig) *RunnerTracker {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &RunnerTracker{
		logger:    logger,
		recorder:  cfg.Recorder,
		collector: cfg.Collector,
		workers:   make(map[int]*worker.Worker),
	}
}

// Register associates a worker with its runner index.
func (t *RunnerTracker) Register(index int, w *worker.Worker) {
	t.mu.Lock()
	t.workers[index] = w
	t.mu.Unlock()
}

// Worker returns the worker registered at index, or nil.
func (t *RunnerTracker) Worker(index int) *worker.Worker {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.workers[index]
}

// =============================================================================
// Composer callbacks
// =============================================================================

// HandleRunnerStart implements composer.Callbacks.OnRunnerStart.
func (t *RunnerTracker) HandleRunnerStart(index int) {
	t.activeCount.Add(1)
	t.startedCount.Add(1)

	t.recorder.RunnerStarted(index)
	if t.collector != nil {
		t.collector.RunnerStarted()
	}
}

// HandleRunnerExit implements composer.Callbacks.OnRunnerExit.
func (t *RunnerTracker) HandleRunnerExit(index int, uptime time.Duration, err error) {
	t.activeCount.Add(-1)
	if err != nil {
		t.failedCount.Add(1)
		t.logger.Warn("runner_failed",
			"runner_id", index,
			"uptime", uptime.String(),
			"error", err,
		)
	}

	lag, measured := t.recorder.RunnerExited(index, uptime, err)
	if t.collector != nil {
		t.collector.RecordExit(uptime, err)
		if measured {
			t.collector.RecordShutdownLatency(lag)
		}
	}
}

// HandleSignalForward implements composer.Callbacks.OnSignalForward.
func (t *RunnerTracker) HandleSignalForward(sig os.Signal) {
	t.recorder.SignalForwarded(sig)
	if t.collector != nil {
		t.collector.SignalReceived()
	}
}

// HandleSignalDrop implements composer.Callbacks.OnSignalDrop.
func (t *RunnerTracker) HandleSignalDrop(index int, sig os.Signal) {
	t.recorder.SignalDropped(index, sig)
}

// =============================================================================
// Worker callbacks
// =============================================================================

// HandleTick implements worker.Callbacks.OnTick.
func (t *RunnerTracker) HandleTick(workerID int) {
	t.recorder.WorkerTick(workerID)
}

// HandleWorkerSignal implements worker.Callbacks.OnSignal.
func (t *RunnerTracker) HandleWorkerSignal(workerID int, sig os.Signal) {
	t.recorder.WorkerSignal(workerID, sig)
}

// =============================================================================
// Accessors
// =============================================================================

// ActiveCount returns the number of currently running runners.
func (t *RunnerTracker) ActiveCount() int {
	return int(t.activeCount.Load())
}

// StartedCount returns the total number of runner starts.
func (t *RunnerTracker) StartedCount() int {
	return int(t.startedCount.Load())
}

// FailedCount returns the number of runners that exited with an error.
func (t *RunnerTracker) FailedCount() int {
	return int(t.failedCount.Load())
}

// Snapshot returns a point-in-time aggregate from the recorder.
func (t *RunnerTracker) Snapshot() *stats.Snapshot {
	return t.recorder.Snapshot()
}
