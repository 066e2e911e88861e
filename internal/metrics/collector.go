// Package metrics provides Prometheus metrics for go-runner-swarm.
//
// The metrics are aggregate-only: one gauge/counter per concern rather
// than per-runner label sets, so the cardinality stays flat no matter
// how many runners the swarm supervises.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// =============================================================================
// Aggregate Metrics
// =============================================================================

// --- Panel 1: Run Overview ---
var (
	swarmInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "runner_swarm_info",
			Help: "Information about the run (value always 1)",
		},
		[]string{"version"},
	)

	swarmTargetRunners = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "runner_swarm_target_runners",
			Help: "Number of runners the composer supervises",
		},
	)

	swarmRunDurationSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "runner_swarm_run_duration_seconds",
			Help: "Configured run duration (0 = unlimited)",
		},
	)

	swarmActiveRunners = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "runner_swarm_active_runners",
			Help: "Currently running runners",
		},
	)

	swarmElapsedSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "runner_swarm_elapsed_seconds",
			Help: "Seconds since the run started",
		},
	)

	swarmRemainingSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "runner_swarm_remaining_seconds",
			Help: "Seconds remaining until the run ends (-1 = unlimited)",
		},
	)
)

// --- Panel 2: Work Rates ---
var (
	swarmOpsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "runner_swarm_ops_total",
			Help: "Total operations completed across all runners",
		},
	)

	swarmOpsPerSec = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "runner_swarm_ops_per_second",
			Help: "Current aggregate operation rate",
		},
	)
)

// --- Panel 3: Signal Fan-Out ---
var (
	swarmSignalsReceivedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "runner_swarm_signals_received_total",
			Help: "Signals received on the composer's inbound channel",
		},
	)

	swarmSignalsFannedOutTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "runner_swarm_signals_fanned_out_total",
			Help: "Signal deliveries to per-runner feed channels",
		},
	)

	swarmSignalsDroppedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "runner_swarm_signals_dropped_total",
			Help: "Signal deliveries dropped because a feed channel was full",
		},
	)
)

// --- Panel 4: Runner Lifecycle ---
var (
	swarmRunnerStartsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "runner_swarm_runner_starts_total",
			Help: "Total runner starts",
		},
	)

	swarmRunnerExitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "runner_swarm_runner_exits_total",
			Help: "Runner exits by outcome",
		},
		[]string{"outcome"}, // "success" | "error"
	)

	swarmRunnerUptimeSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "runner_swarm_runner_uptime_seconds",
			Help:    "Runner uptime before exit",
			Buckets: []float64{1, 5, 30, 60, 300, 600, 1800, 3600},
		},
	)

	swarmUptimeP50Seconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "runner_swarm_uptime_p50_seconds",
			Help: "Runner uptime 50th percentile",
		},
	)

	swarmUptimeP95Seconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "runner_swarm_uptime_p95_seconds",
			Help: "Runner uptime 95th percentile",
		},
	)

	swarmUptimeP99Seconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "runner_swarm_uptime_p99_seconds",
			Help: "Runner uptime 99th percentile",
		},
	)
)

// --- Panel 5: Shutdown Latency ---
var (
	swarmShutdownLatencySeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name: "runner_swarm_shutdown_latency_seconds",
			Help: "Latency from signal fan-out to runner exit",
			Buckets: []float64{
				0.001, 0.005, 0.01, 0.025, 0.05,
				0.1, 0.25, 0.5, 1.0, 2.5, 5.0,
			},
		},
	)

	swarmShutdownP50Seconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "runner_swarm_shutdown_latency_p50_seconds",
			Help: "Shutdown latency 50th percentile",
		},
	)

	swarmShutdownP95Seconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "runner_swarm_shutdown_latency_p95_seconds",
			Help: "Shutdown latency 95th percentile",
		},
	)

	swarmShutdownP99Seconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "runner_swarm_shutdown_latency_p99_seconds",
			Help: "Shutdown latency 99th percentile",
		},
	)
)

// =============================================================================
// Collector
// =============================================================================

// Collector manages all Prometheus metrics for the swarm.
type Collector struct {
	targetRunners int
	runDuration   time.Duration
	startTime     time.Time

	// Internal tracking for delta calculations against snapshot totals
	mu              sync.Mutex
	prevOps         int64
	prevSignalsSent int64
	prevDropped     int64
}

// CollectorConfig holds configuration for the collector.
type CollectorConfig struct {
	TargetRunners int
	RunDuration   time.Duration
	Version       string
}

// NewCollector creates a new metrics collector on the default registry.
func NewCollector(cfg CollectorConfig) *Collector {
	return NewCollectorWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewCollectorWithRegistry creates a collector with a custom registry.
// Useful for testing.
func NewCollectorWithRegistry(cfg CollectorConfig, registry prometheus.Registerer) *Collector {
	c := &Collector{
		targetRunners: cfg.TargetRunners,
		runDuration:   cfg.RunDuration,
		startTime:     time.Now(),
	}

	registry.MustRegister(
		// Panel 1: Run Overview
		swarmInfo,
		swarmTargetRunners,
		swarmRunDurationSeconds,
		swarmActiveRunners,
		swarmElapsedSeconds,
		swarmRemainingSeconds,

		// Panel 2: Work Rates
		swarmOpsTotal,
		swarmOpsPerSec,

		// Panel 3: Signal Fan-Out
		swarmSignalsReceivedTotal,
		swarmSignalsFannedOutTotal,
		swarmSignalsDroppedTotal,

		// Panel 4: Runner Lifecycle
		swarmRunnerStartsTotal,
		swarmRunnerExitsTotal,
		swarmRunnerUptimeSeconds,
		swarmUptimeP50Seconds,
		swarmUptimeP95Seconds,
		swarmUptimeP99Seconds,

		// Panel 5: Shutdown Latency
		swarmShutdownLatencySeconds,
		swarmShutdownP50Seconds,
		swarmShutdownP95Seconds,
		swarmShutdownP99Seconds,
	)

	version := cfg.Version
	if version == "" {
		version = "dev"
	}
	swarmInfo.WithLabelValues(version).Set(1)
	swarmTargetRunners.Set(float64(cfg.TargetRunners))
	swarmRunDurationSeconds.Set(cfg.RunDuration.Seconds())
	swarmRemainingSeconds.Set(-1) // -1 = unlimited

	return c
}

// =============================================================================
// Update Methods
// =============================================================================

// SnapshotUpdate holds aggregate stats for updating metrics.
// This is a subset of stats.Snapshot to avoid circular imports.
type SnapshotUpdate struct {
	ActiveRunners int

	TotalOps         int64
	OpsRate          float64
	SignalsForwarded int64
	SignalsDropped   int64

	UptimeP50 time.Duration
	UptimeP95 time.Duration
	UptimeP99 time.Duration

	ShutdownP50 time.Duration
	ShutdownP95 time.Duration
	ShutdownP99 time.Duration
}

// RecordStats updates all metrics from an aggregate snapshot.
func (c *Collector) RecordStats(stats *SnapshotUpdate) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// --- Panel 1: Run Overview ---
	swarmActiveRunners.Set(float64(stats.ActiveRunners))

	elapsed := time.Since(c.startTime)
	swarmElapsedSeconds.Set(elapsed.Seconds())

	if c.runDuration > 0 {
		remaining := c.runDuration - elapsed
		if remaining < 0 {
			remaining = 0
		}
		swarmRemainingSeconds.Set(remaining.Seconds())
	}

	// --- Panel 2: Work Rates ---
	// The snapshot carries totals; counters get the delta.
	opsDelta := stats.TotalOps - c.prevOps
	if opsDelta > 0 {
		swarmOpsTotal.Add(float64(opsDelta))
	}
	c.prevOps = stats.TotalOps

	swarmOpsPerSec.Set(stats.OpsRate)

	// --- Panel 3: Signal Fan-Out ---
	sentDelta := stats.SignalsForwarded - c.prevSignalsSent
	if sentDelta > 0 {
		swarmSignalsFannedOutTotal.Add(float64(sentDelta))
	}
	c.prevSignalsSent = stats.SignalsForwarded

	droppedDelta := stats.SignalsDropped - c.prevDropped
	if droppedDelta > 0 {
		swarmSignalsDroppedTotal.Add(float64(droppedDelta))
	}
	c.prevDropped = stats.SignalsDropped

	// --- Panel 4: Uptime quantiles ---
	swarmUptimeP50Seconds.Set(stats.UptimeP50.Seconds())
	swarmUptimeP95Seconds.Set(stats.UptimeP95.Seconds())
	swarmUptimeP99Seconds.Set(stats.UptimeP99.Seconds())

	// --- Panel 5: Shutdown latency quantiles ---
	swarmShutdownP50Seconds.Set(stats.ShutdownP50.Seconds())
	swarmShutdownP95Seconds.Set(stats.ShutdownP95.Seconds())
	swarmShutdownP99Seconds.Set(stats.ShutdownP99.Seconds())
}

// =============================================================================
// Event Recording Methods
// =============================================================================

// RunnerStarted records a runner start event.
func (c *Collector) RunnerStarted() {
	swarmRunnerStartsTotal.Inc()
}

// RecordExit records a runner exit event.
func (c *Collector) RecordExit(uptime time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	swarmRunnerExitsTotal.WithLabelValues(outcome).Inc()
	swarmRunnerUptimeSeconds.Observe(uptime.Seconds())
}

// SignalReceived records one signal arriving on the inbound channel.
func (c *Collector) SignalReceived() {
	swarmSignalsReceivedTotal.Inc()
}

// RecordShutdownLatency records a signal-to-exit latency observation.
func (c *Collector) RecordShutdownLatency(d time.Duration) {
	swarmShutdownLatencySeconds.Observe(d.Seconds())
}

// StartTime returns when the collector was created.
func (c *Collector) StartTime() time.Time {
	return c.startTime
}
