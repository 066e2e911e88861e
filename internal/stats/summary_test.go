package stats

import (
	"errors"
	"strings"
	"testing"
	"time"
)

// =============================================================================
// Table-Driven Tests: Formatting Functions
// =============================================================================

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		want     string
	}{
		{"zero", 0, "00:00:00"},
		{"one second", time.Second, "00:00:01"},
		{"one minute", time.Minute, "00:01:00"},
		{"one hour", time.Hour, "01:00:00"},
		{"mixed", 2*time.Hour + 30*time.Minute + 45*time.Second, "02:30:45"},
		{"24 hours", 24 * time.Hour, "24:00:00"},
		{"sub-second", 500 * time.Millisecond, "00:00:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatDuration(tt.duration); got != tt.want {
				t.Errorf("FormatDuration(%v) = %q, want %q", tt.duration, got, tt.want)
			}
		})
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		name string
		n    int64
		want string
	}{
		{"zero", 0, "0"},
		{"small", 123, "123"},
		{"999", 999, "999"},
		{"1K", 1000, "1.0K"},
		{"1.5K", 1500, "1.5K"},
		{"1M", 1000000, "1.0M"},
		{"negative", -100, "-100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatNumber(tt.n); got != tt.want {
				t.Errorf("FormatNumber(%d) = %q, want %q", tt.n, got, tt.want)
			}
		})
	}
}

func TestFormatMs(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		want     string
	}{
		{"zero", 0, "0 ms"},
		{"1 ms", time.Millisecond, "1 ms"},
		{"1 second", time.Second, "1000 ms"},
		{"sub-ms", 500 * time.Microsecond, "500 µs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatMs(tt.duration); got != tt.want {
				t.Errorf("FormatMs(%v) = %q, want %q", tt.duration, got, tt.want)
			}
		})
	}
}

func TestFormatRate(t *testing.T) {
	tests := []struct {
		name string
		rate float64
		want string
	}{
		{"zero", 0, "0.00/s"},
		{"fractional", 0.5, "0.50/s"},
		{"single digit", 5.25, "5.2/s"},
		{"thousands", 1500, "1.5K/s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatRate(tt.rate); got != tt.want {
				t.Errorf("FormatRate(%v) = %q, want %q", tt.rate, got, tt.want)
			}
		})
	}
}

// =============================================================================
// Exit Summary Tests
// =============================================================================

func TestFormatExitSummaryNilSnapshot(t *testing.T) {
	out := FormatExitSummary(nil, SummaryConfig{
		TargetRunners: 5,
		Duration:      time.Minute,
	})

	if !strings.Contains(out, "go-runner-swarm Exit Summary") {
		t.Error("missing summary header")
	}
	if !strings.Contains(out, "Target Runners:         5") {
		t.Error("missing target runners line")
	}
	if !strings.Contains(out, "00:01:00") {
		t.Error("missing run duration")
	}
}

func TestFormatExitSummaryFull(t *testing.T) {
	snap := &Snapshot{
		TargetRunners:    3,
		Started:          3,
		Stopped:          2,
		Failed:           1,
		TotalOps:         1500,
		SignalsForwarded: 3,
		FirstError:       errors.New("runner 1 gave up"),
		RunDuration: Quantiles{
			P50:   30 * time.Second,
			P95:   45 * time.Second,
			P99:   50 * time.Second,
			Count: 3,
		},
		ShutdownLag: Quantiles{
			P50:   20 * time.Millisecond,
			P95:   80 * time.Millisecond,
			P99:   95 * time.Millisecond,
			Count: 3,
		},
	}

	out := FormatExitSummary(snap, SummaryConfig{
		TargetRunners: 3,
		Duration:      time.Minute,
		MetricsAddr:   "localhost:9100",
	})

	for _, want := range []string{
		"Work Statistics",
		"Outcomes",
		"Run Duration Distribution",
		"Shutdown Latency Distribution",
		"1.5K",
		"runner 1 gave up",
		"Stopped cleanly:      2",
		"Failed:               1",
		"20 ms",
		"http://localhost:9100/metrics",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q", want)
		}
	}
}

func TestFormatExitSummaryDropWarning(t *testing.T) {
	snap := &Snapshot{SignalsDropped: 7}

	out := FormatExitSummary(snap, SummaryConfig{TargetRunners: 1})
	if !strings.Contains(out, "SIGNAL DROPS") {
		t.Error("expected drop warning when signals were dropped")
	}

	snap.SignalsDropped = 0
	out = FormatExitSummary(snap, SummaryConfig{TargetRunners: 1})
	if strings.Contains(out, "SIGNAL DROPS") {
		t.Error("drop warning shown with zero drops")
	}
}

func TestFormatExitSummaryPerRunnerTable(t *testing.T) {
	snap := &Snapshot{
		Started: 2,
		Runners: []RunnerRecord{
			{Index: 0, State: StateStopped, Ops: 10, Uptime: 5 * time.Second},
			{Index: 1, State: StateFailed, Ops: 4, Uptime: 2 * time.Second},
		},
	}

	out := FormatExitSummary(snap, SummaryConfig{
		TargetRunners:      2,
		ShowPerRunnerStats: true,
	})
	if !strings.Contains(out, "Per-Runner Stats") {
		t.Error("missing per-runner table")
	}
	if !strings.Contains(out, "stopped") || !strings.Contains(out, "failed") {
		t.Error("missing runner states in table")
	}

	out = FormatExitSummary(snap, SummaryConfig{TargetRunners: 2})
	if strings.Contains(out, "Per-Runner Stats") {
		t.Error("per-runner table shown when disabled")
	}
}
