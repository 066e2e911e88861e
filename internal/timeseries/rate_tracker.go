// Package timeseries provides time-windowed event-rate tracking for the
// runner swarm harness.
//
// A RateTracker counts cumulative events (work ticks, forwarded
// signals) and computes rolling per-second rates over fixed windows.
// It is designed for one tracker per event kind.
//
// Thread-safe: Add() uses an atomic counter, RecordSample() and
// Stats() take the ring-buffer lock.
package timeseries

import (
	"sync"
	"sync/atomic"
	"time"
)

const (
	// ringBufferSize is the number of samples to retain (5 minutes at 1 sample/sec)
	ringBufferSize = 300

	// Window durations for rolling averages
	window1s  = 1 * time.Second
	window10s = 10 * time.Second
	window60s = 60 * time.Second
)

// Clock interface for testing with deterministic time.
type Clock interface {
	Now() time.Time
}

// realClock uses time.Now() for production.
type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// sample is a point-in-time snapshot of the cumulative event count.
type sample struct {
	timestamp time.Time
	count     int64
}

// RateTracker tracks a cumulative event count and computes rolling
// per-second rates over fixed windows.
//
// Usage:
//
//	tracker := NewRateTracker()
//	tracker.Add(1)          // per event (lock-free)
//	tracker.RecordSample()  // periodic, e.g. every 1s via ticker
//	stats := tracker.Stats()
type RateTracker struct {
	total atomic.Int64

	samples  []sample
	writeIdx int
	mu       sync.RWMutex

	startTime time.Time
	clock     Clock
}

// RateStats contains computed rolling rates at a point in time.
type RateStats struct {
	// Total is the cumulative event count since start.
	Total int64

	// Rolling rates (events per second).
	Rate1s  float64
	Rate10s float64
	Rate60s float64

	// RateOverall is the average rate since tracking started.
	RateOverall float64
}

// NewRateTracker creates a new tracker with the real clock.
func NewRateTracker() *RateTracker {
	return NewRateTrackerWithClock(realClock{})
}

// NewRateTrackerWithClock creates a tracker with a custom clock for testing.
func NewRateTrackerWithClock(clock Clock) *RateTracker {
	now := clock.Now()
	t := &RateTracker{
		samples:   make([]sample, 0, ringBufferSize),
		startTime: now,
		clock:     clock,
	}
	// Initial sample at t=0 with count 0
	t.samples = append(t.samples, sample{timestamp: now})
	return t
}

// Add increments the cumulative event count. Lock-free.
func (t *RateTracker) Add(n int64) {
	if n > 0 {
		t.total.Add(n)
	}
}

// RecordSample records the current cumulative count with a timestamp.
// Call this periodically, e.g. every second.
func (t *RateTracker) RecordSample() {
	now := t.clock.Now()
	current := t.total.Load()

	t.mu.Lock()
	defer t.mu.Unlock()

	s := sample{timestamp: now, count: current}
	if len(t.samples) < ringBufferSize {
		t.samples = append(t.samples, s)
	} else {
		t.samples[t.writeIdx] = s
		t.writeIdx = (t.writeIdx + 1) % ringBufferSize
	}
}

// Stats computes current rate statistics. It always returns valid data,
// falling back to whatever history exists.
func (t *RateTracker) Stats() RateStats {
	now := t.clock.Now()
	current := t.total.Load()

	t.mu.RLock()
	defer t.mu.RUnlock()

	stats := RateStats{Total: current}

	elapsed := now.Sub(t.startTime).Seconds()
	if elapsed > 0 {
		stats.RateOverall = float64(current) / elapsed
	}

	stats.Rate1s = t.rateOverWindow(now, current, window1s)
	stats.Rate10s = t.rateOverWindow(now, current, window10s)
	stats.Rate60s = t.rateOverWindow(now, current, window60s)

	return stats
}

// rateOverWindow computes events/sec over the given window. Must be
// called with mu held (at least RLock).
func (t *RateTracker) rateOverWindow(now time.Time, current int64, window time.Duration) float64 {
	if len(t.samples) == 0 {
		return 0
	}

	targetTime := now.Add(-window)

	// Find the sample closest to (but not after) targetTime.
	var best *sample
	var bestDiff time.Duration = -1
	for i := range t.samples {
		s := &t.samples[i]
		if s.timestamp.After(targetTime) {
			continue
		}
		diff := targetTime.Sub(s.timestamp)
		if bestDiff < 0 || diff < bestDiff {
			best = s
			bestDiff = diff
		}
	}

	// No sample old enough: fall back to the oldest we have.
	if best == nil {
		best = t.oldestSample()
	}
	if best == nil {
		return 0
	}

	delta := current - best.count
	actualElapsed := now.Sub(best.timestamp).Seconds()
	if actualElapsed <= 0 {
		return 0
	}
	return float64(delta) / actualElapsed
}

// oldestSample returns the oldest sample in the ring buffer. Must be
// called with mu held.
func (t *RateTracker) oldestSample() *sample {
	if len(t.samples) == 0 {
		return nil
	}
	if len(t.samples) < ringBufferSize {
		return &t.samples[0]
	}
	// Buffer full: oldest is the next slot to be overwritten.
	return &t.samples[t.writeIdx]
}

// Reset clears all data and restarts tracking.
func (t *RateTracker) Reset() {
	now := t.clock.Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	t.total.Store(0)
	t.samples = t.samples[:0]
	t.samples = append(t.samples, sample{timestamp: now})
	t.writeIdx = 0
	t.startTime = now
}

// SampleCount returns the number of samples in the ring buffer.
// Useful for testing.
func (t *RateTracker) SampleCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.samples)
}
