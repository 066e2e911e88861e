// Package stats collects per-runner outcomes and aggregate quantiles
// for the runner swarm harness.
package stats

import (
	"os"
	"sort"
	"sync"
	"time"

	"github.com/influxdata/tdigest"

	"github.com/randomizedcoder/go-runner-swarm/internal/timeseries"
)

// RunnerState is the harness-level view of a supervised runner.
type RunnerState int

const (
	// StatePending means the runner has not started yet.
	StatePending RunnerState = iota

	// StateRunning means the runner's Run is in progress.
	StateRunning

	// StateStopped means the runner returned cleanly.
	StateStopped

	// StateFailed means the runner returned an error.
	StateFailed
)

// String returns a human-readable name for the state.
func (s RunnerState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// RunnerRecord is a snapshot of one runner's progress.
type RunnerRecord struct {
	Index   int
	State   RunnerState
	Ops     int64
	Signals int64
	Uptime  time.Duration
	Err     error
}

// Snapshot is a point-in-time aggregate over every runner.
type Snapshot struct {
	Timestamp time.Time

	TargetRunners int
	Started       int
	Active        int
	Stopped       int
	Failed        int

	TotalOps         int64
	SignalsForwarded int64
	SignalsDropped   int64

	OpsRate     timeseries.RateStats
	SignalRate  timeseries.RateStats
	FirstError  error
	RunDuration Quantiles
	ShutdownLag Quantiles

	Runners []RunnerRecord
}

// Quantiles holds a small set of duration quantiles from a t-digest.
type Quantiles struct {
	P50 time.Duration
	P95 time.Duration
	P99 time.Duration

	// Count is the number of observations the quantiles are based on.
	Count int
}

// Recorder accumulates runner lifecycle events. All methods are safe
// for concurrent use; the composer and worker callbacks feed it from
// many goroutines.
type Recorder struct {
	targetRunners int
	startTime     time.Time

	opsRate    *timeseries.RateTracker
	signalRate *timeseries.RateTracker

	mu             sync.Mutex
	records        map[int]*runnerRecord
	runDigest      *tdigest.TDigest
	shutdownDigest *tdigest.TDigest
	runCount       int
	shutdownCount  int
	lastSignalAt   time.Time
	signalsSent    int64
	signalsDropped int64
	firstErr       error
}

type runnerRecord struct {
	state     RunnerState
	ops       int64
	signals   int64
	startedAt time.Time
	uptime    time.Duration
	err       error
}

// NewRecorder creates a Recorder for the given number of runners.
func NewRecorder(targetRunners int) *Recorder {
	return &Recorder{
		targetRunners:  targetRunners,
		startTime:      time.Now(),
		opsRate:        timeseries.NewRateTracker(),
		signalRate:     timeseries.NewRateTracker(),
		records:        make(map[int]*runnerRecord, targetRunners),
		runDigest:      tdigest.NewWithCompression(100),
		shutdownDigest: tdigest.NewWithCompression(100),
	}
}

func (r *Recorder) record(index int) *runnerRecord {
	rec, ok := r.records[index]
	if !ok {
		rec = &runnerRecord{}
		r.records[index] = rec
	}
	return rec
}

// RunnerStarted marks a runner as running.
func (r *Recorder) RunnerStarted(index int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec := r.record(index)
	rec.state = StateRunning
	rec.startedAt = time.Now()
}

// RunnerExited records a runner's outcome and feeds the digests. It
// returns the signal-to-exit lag and whether one was measured, so
// callers can forward the same observation to other sinks.
func (r *Recorder) RunnerExited(index int, uptime time.Duration, err error) (time.Duration, bool) {
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	rec := r.record(index)
	rec.uptime = uptime
	rec.err = err
	if err != nil {
		rec.state = StateFailed
		if r.firstErr == nil {
			r.firstErr = err
		}
	} else {
		rec.state = StateStopped
	}

	r.runDigest.Add(uptime.Seconds(), 1)
	r.runCount++

	// Shutdown lag is only meaningful when a signal has been fanned
	// out; a runner that exits on its own has no lag to measure.
	if !r.lastSignalAt.IsZero() && now.After(r.lastSignalAt) {
		lag := now.Sub(r.lastSignalAt)
		r.shutdownDigest.Add(lag.Seconds(), 1)
		r.shutdownCount++
		return lag, true
	}

	return 0, false
}

// SignalForwarded records one signal observed by the fan-out.
func (r *Recorder) SignalForwarded(sig os.Signal) {
	r.signalRate.Add(1)

	r.mu.Lock()
	r.signalsSent++
	r.lastSignalAt = time.Now()
	r.mu.Unlock()
}

// SignalDropped records a per-runner drop from a full feed channel.
func (r *Recorder) SignalDropped(index int, sig os.Signal) {
	r.mu.Lock()
	r.signalsDropped++
	r.mu.Unlock()
}

// WorkerTick records one completed unit of work for a runner.
func (r *Recorder) WorkerTick(index int) {
	r.opsRate.Add(1)

	r.mu.Lock()
	r.record(index).ops++
	r.mu.Unlock()
}

// WorkerSignal records a signal observed by a specific runner.
func (r *Recorder) WorkerSignal(index int, sig os.Signal) {
	r.mu.Lock()
	r.record(index).signals++
	r.mu.Unlock()
}

// RecordSample snapshots the rate trackers. Call periodically.
func (r *Recorder) RecordSample() {
	r.opsRate.RecordSample()
	r.signalRate.RecordSample()
}

// StartTime returns when the recorder was created.
func (r *Recorder) StartTime() time.Time {
	return r.startTime
}

// Snapshot computes a point-in-time aggregate.
func (r *Recorder) Snapshot() *Snapshot {
	opsRate := r.opsRate.Stats()
	signalRate := r.signalRate.Stats()

	r.mu.Lock()
	defer r.mu.Unlock()

	snap := &Snapshot{
		Timestamp:        time.Now(),
		TargetRunners:    r.targetRunners,
		TotalOps:         opsRate.Total,
		SignalsForwarded: r.signalsSent,
		SignalsDropped:   r.signalsDropped,
		OpsRate:          opsRate,
		SignalRate:       signalRate,
		FirstError:       r.firstErr,
		RunDuration:      digestQuantiles(r.runDigest, r.runCount),
		ShutdownLag:      digestQuantiles(r.shutdownDigest, r.shutdownCount),
	}

	for index, rec := range r.records {
		snap.Started++
		switch rec.state {
		case StateRunning:
			snap.Active++
		case StateStopped:
			snap.Stopped++
		case StateFailed:
			snap.Failed++
		}

		uptime := rec.uptime
		if rec.state == StateRunning {
			uptime = time.Since(rec.startedAt)
		}
		snap.Runners = append(snap.Runners, RunnerRecord{
			Index:   index,
			State:   rec.state,
			Ops:     rec.ops,
			Signals: rec.signals,
			Uptime:  uptime,
			Err:     rec.err,
		})
	}

	sortRunners(snap.Runners)
	return snap
}

func digestQuantiles(d *tdigest.TDigest, count int) Quantiles {
	if count == 0 {
		return Quantiles{}
	}
	return Quantiles{
		P50:   secondsToDuration(d.Quantile(0.50)),
		P95:   secondsToDuration(d.Quantile(0.95)),
		P99:   secondsToDuration(d.Quantile(0.99)),
		Count: count,
	}
}

func secondsToDuration(s float64) time.Duration {
	if s < 0 {
		return 0
	}
	return time.Duration(s * float64(time.Second))
}

func sortRunners(records []RunnerRecord) {
	sort.Slice(records, func(i, j int) bool {
		return records[i].Index < records[j].Index
	})
}
