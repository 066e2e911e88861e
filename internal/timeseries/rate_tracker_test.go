package timeseries

import (
	"sync"
	"testing"
	"time"
)

// fakeClock is a manually-advanced clock for deterministic tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestRateTrackerInitialState(t *testing.T) {
	tracker := NewRateTrackerWithClock(newFakeClock())

	stats := tracker.Stats()
	if stats.Total != 0 {
		t.Errorf("Total = %d, want 0", stats.Total)
	}
	if stats.Rate1s != 0 || stats.RateOverall != 0 {
		t.Errorf("rates = %+v, want zeros", stats)
	}
	if tracker.SampleCount() != 1 {
		t.Errorf("SampleCount() = %d, want the initial sample", tracker.SampleCount())
	}
}

func TestRateTrackerSteadyRate(t *testing.T) {
	clock := newFakeClock()
	tracker := NewRateTrackerWithClock(clock)

	// 10 events/sec for 30 seconds, sampled every second.
	for i := 0; i < 30; i++ {
		clock.Advance(time.Second)
		tracker.Add(10)
		tracker.RecordSample()
	}

	stats := tracker.Stats()
	if stats.Total != 300 {
		t.Errorf("Total = %d, want 300", stats.Total)
	}
	if stats.Rate1s < 9.0 || stats.Rate1s > 11.0 {
		t.Errorf("Rate1s = %.1f, want ~10", stats.Rate1s)
	}
	if stats.Rate10s < 9.0 || stats.Rate10s > 11.0 {
		t.Errorf("Rate10s = %.1f, want ~10", stats.Rate10s)
	}
	if stats.RateOverall < 9.0 || stats.RateOverall > 11.0 {
		t.Errorf("RateOverall = %.1f, want ~10", stats.RateOverall)
	}
}

func TestRateTrackerBurstThenIdle(t *testing.T) {
	clock := newFakeClock()
	tracker := NewRateTrackerWithClock(clock)

	// A burst of 100 events in the first second.
	clock.Advance(time.Second)
	tracker.Add(100)
	tracker.RecordSample()

	// Then a minute of silence.
	for i := 0; i < 60; i++ {
		clock.Advance(time.Second)
		tracker.RecordSample()
	}

	stats := tracker.Stats()
	if stats.Rate1s != 0 {
		t.Errorf("Rate1s = %.1f, want 0 after idle period", stats.Rate1s)
	}
	if stats.Total != 100 {
		t.Errorf("Total = %d, want 100", stats.Total)
	}
}

func TestRateTrackerWindowFallsBackToOldest(t *testing.T) {
	clock := newFakeClock()
	tracker := NewRateTrackerWithClock(clock)

	// Only 3 seconds of history; the 60s window must use what exists.
	for i := 0; i < 3; i++ {
		clock.Advance(time.Second)
		tracker.Add(5)
		tracker.RecordSample()
	}

	stats := tracker.Stats()
	if stats.Rate60s < 4.0 || stats.Rate60s > 6.0 {
		t.Errorf("Rate60s = %.1f, want ~5 from available history", stats.Rate60s)
	}
}

func TestRateTrackerRingBufferRotation(t *testing.T) {
	clock := newFakeClock()
	tracker := NewRateTrackerWithClock(clock)

	for i := 0; i < ringBufferSize+50; i++ {
		clock.Advance(time.Second)
		tracker.Add(1)
		tracker.RecordSample()
	}

	if got := tracker.SampleCount(); got != ringBufferSize {
		t.Errorf("SampleCount() = %d, want %d", got, ringBufferSize)
	}

	// Rates still computable after rotation.
	stats := tracker.Stats()
	if stats.Rate60s < 0.9 || stats.Rate60s > 1.1 {
		t.Errorf("Rate60s = %.2f, want ~1 after rotation", stats.Rate60s)
	}
}

func TestRateTrackerNegativeAddIgnored(t *testing.T) {
	tracker := NewRateTracker()
	tracker.Add(-5)
	tracker.Add(0)

	if got := tracker.Stats().Total; got != 0 {
		t.Errorf("Total = %d, want 0", got)
	}
}

func TestRateTrackerReset(t *testing.T) {
	clock := newFakeClock()
	tracker := NewRateTrackerWithClock(clock)

	clock.Advance(time.Second)
	tracker.Add(50)
	tracker.RecordSample()

	tracker.Reset()

	stats := tracker.Stats()
	if stats.Total != 0 {
		t.Errorf("Total after Reset = %d, want 0", stats.Total)
	}
	if tracker.SampleCount() != 1 {
		t.Errorf("SampleCount() after Reset = %d, want 1", tracker.SampleCount())
	}
}

func TestRateTrackerConcurrentAdd(t *testing.T) {
	tracker := NewRateTracker()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				tracker.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := tracker.Stats().Total; got != 8000 {
		t.Errorf("Total = %d, want 8000", got)
	}
}
