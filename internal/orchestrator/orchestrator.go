// Package orchestrator wires workers, composer, process, and the
// observability stack into a complete swarm run.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"syscall"
	"time"

	"github.com/randomizedcoder/go-runner-swarm/internal/composer"
	"github.com/randomizedcoder/go-runner-swarm/internal/config"
	"github.com/randomizedcoder/go-runner-swarm/internal/metrics"
	"github.com/randomizedcoder/go-runner-swarm/internal/preflight"
	"github.com/randomizedcoder/go-runner-swarm/internal/process"
	"github.com/randomizedcoder/go-runner-swarm/internal/runner"
	"github.com/randomizedcoder/go-runner-swarm/internal/stats"
	"github.com/randomizedcoder/go-runner-swarm/internal/worker"
)

// Orchestrator coordinates all components for a swarm run.
type Orchestrator struct {
	config *config.Config
	logger *slog.Logger

	shutdownSig os.Signal
	reloadSig   os.Signal
	errorSig    os.Signal // nil = propagation disabled

	recorder      *stats.Recorder
	tracker       *RunnerTracker
	collector     *metrics.Collector
	metricsServer *metrics.Server

	composer *composer.Composer
	proc     *process.Process

	startTime time.Time
}

// New creates an Orchestrator from a validated config.
func New(cfg *config.Config, logger *slog.Logger) (*Orchestrator, error) {
	shutdownSig, err := config.SignalFromName(cfg.ShutdownSignal)
	if err != nil {
		return nil, fmt.Errorf("shutdown signal: %w", err)
	}
	reloadSig, err := config.SignalFromName(cfg.ReloadSignal)
	if err != nil {
		return nil, fmt.Errorf("reload signal: %w", err)
	}
	var errorSig os.Signal
	if cfg.ErrorSignal != "" {
		errorSig, err = config.SignalFromName(cfg.ErrorSignal)
		if err != nil {
			return nil, fmt.Errorf("error signal: %w", err)
		}
	}

	recorder := stats.NewRecorder(cfg.Runners)

	var collector *metrics.Collector
	var metricsServer *metrics.Server
	if cfg.MetricsAddr != "" {
		collector = metrics.NewCollector(metrics.CollectorConfig{
			TargetRunners: cfg.Runners,
			RunDuration:   cfg.Duration,
		})
		metricsServer = metrics.NewServer(cfg.MetricsAddr, logger)
	}

	tracker := NewRunnerTracker(TrackerConfig{
		Logger:    logger,
		Recorder:  recorder,
		Collector: collector,
	})

	orch := &Orchestrator{
		config:        cfg,
		logger:        logger,
		shutdownSig:   shutdownSig,
		reloadSig:     reloadSig,
		errorSig:      errorSig,
		recorder:      recorder,
		tracker:       tracker,
		collector:     collector,
		metricsServer: metricsServer,
	}

	orch.composer = composer.New(composer.Config{
		Runners:     orch.buildWorkers(),
		ErrorSignal: errorSig,
		Logger:      logger,
		Callbacks: composer.Callbacks{
			OnRunnerStart:   tracker.HandleRunnerStart,
			OnRunnerExit:    tracker.HandleRunnerExit,
			OnSignalForward: tracker.HandleSignalForward,
			OnSignalDrop:    tracker.HandleSignalDrop,
		},
	})

	return orch, nil
}

// newJitterSource derives the shared jitter source. A zero seed means
// a time-seeded, non-reproducible run.
func newJitterSource(seed int64) *worker.JitterSource {
	if seed == 0 {
		return worker.NewJitterSourceFromTime()
	}
	return worker.NewJitterSource(seed)
}

// buildWorkers constructs the worker set. All workers share one jitter
// source so a run is reproducible from its seed.
func (o *Orchestrator) buildWorkers() []runner.Runner {
	jitter := newJitterSource(o.config.Seed)

	// The error signal stops workers too: a propagated failure should
	// shut the survivors down cleanly, not crash them.
	shutdownOn := []os.Signal{o.shutdownSig, syscall.SIGINT}
	if o.errorSig != nil {
		shutdownOn = append(shutdownOn, o.errorSig)
	}

	runners := make([]runner.Runner, 0, o.config.Runners)
	for i := 0; i < o.config.Runners; i++ {
		w := worker.New(worker.Config{
			ID:           i,
			TickInterval: o.config.TickInterval,
			TickJitter:   o.config.TickJitter,
			ShutdownOn:   shutdownOn,
			ReloadOn:     []os.Signal{o.reloadSig},
			Jitter:       jitter,
			Logger:       o.logger,
			Callbacks: worker.Callbacks{
				OnTick:   o.tracker.HandleTick,
				OnSignal: o.tracker.HandleWorkerSignal,
			},
		})
		o.tracker.Register(i, w)
		runners = append(runners, w)
	}
	return runners
}

// Run executes the swarm. It blocks until every runner has exited, the
// configured duration elapses, or ctx is cancelled.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.startTime = time.Now()

	// Run preflight checks
	if !o.config.SkipPreflight {
		result := preflight.RunAll(o.config.Runners, o.config.MetricsAddr)
		preflight.PrintResults(result)
		if !result.Passed {
			return fmt.Errorf("preflight checks failed (use --skip-preflight to override)")
		}
	}

	// Start metrics server
	if o.metricsServer != nil {
		if err := o.metricsServer.Start(); err != nil {
			return fmt.Errorf("failed to start metrics server: %w", err)
		}
	}

	o.logger.Info("swarm_starting",
		"runners", o.config.Runners,
		"duration", o.config.Duration.String(),
		"shutdown_signal", o.config.ShutdownSignal,
		"error_propagation", o.errorSig != nil,
	)

	// Launch the composer on its own goroutine with OS signal delivery.
	o.proc = process.Launch(o.composer, o.logger, o.forwardedSignals()...)

	if err := o.proc.Ready(); err != nil {
		return fmt.Errorf("setup failed: %w", err)
	}
	o.logger.Info("swarm_ready", "runners", o.config.Runners)

	// Periodic sampling for rates and the Prometheus gauges.
	samplerDone := make(chan struct{})
	samplerStopped := make(chan struct{})
	go o.sample(samplerDone, samplerStopped)

	// Wait for the run to end.
	waitCh := make(chan error, 1)
	go func() { waitCh <- o.proc.Wait() }()

	var durationTimer <-chan time.Time
	if o.config.Duration > 0 {
		durationTimer = time.After(o.config.Duration)
	}

	var runErr error
	select {
	case runErr = <-waitCh:
		o.logger.Info("runners_finished")
	case <-durationTimer:
		o.logger.Info("duration_elapsed", "duration", o.config.Duration.String())
		o.proc.Signal(o.shutdownSig)
		runErr = <-waitCh
	case <-ctx.Done():
		o.logger.Info("context_cancelled")
		o.proc.Signal(o.shutdownSig)
		runErr = <-waitCh
	}

	// The background goroutine has published its result, but join it
	// anyway so nothing of the run outlives Run.
	o.proc.Join()

	close(samplerDone)
	<-samplerStopped

	o.verifyExportedMetrics()

	if o.metricsServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := o.metricsServer.Shutdown(shutdownCtx); err != nil {
			o.logger.Warn("metrics_server_shutdown_error", "error", err)
		}
	}

	o.printExitSummary()

	return runErr
}

// forwardedSignals returns the OS signals delivered to the swarm.
func (o *Orchestrator) forwardedSignals() []os.Signal {
	sigs := []os.Signal{syscall.SIGINT, syscall.SIGTERM}
	add := func(sig os.Signal) {
		for _, s := range sigs {
			if s == sig {
				return
			}
		}
		sigs = append(sigs, sig)
	}
	add(o.shutdownSig)
	add(o.reloadSig)
	return sigs
}

// sample periodically snapshots the recorder and pushes rates and
// quantiles to the Prometheus collector.
func (o *Orchestrator) sample(done <-chan struct{}, stopped chan<- struct{}) {
	defer close(stopped)

	ticker := time.NewTicker(o.config.SampleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			// Final sample so the exit numbers are current.
			o.recorder.RecordSample()
			o.pushMetrics()
			return
		case <-ticker.C:
			o.recorder.RecordSample()
			o.pushMetrics()
		}
	}
}

func (o *Orchestrator) pushMetrics() {
	if o.collector == nil {
		return
	}

	snap := o.recorder.Snapshot()
	o.collector.RecordStats(&metrics.SnapshotUpdate{
		ActiveRunners:    snap.Active,
		TotalOps:         snap.TotalOps,
		OpsRate:          snap.OpsRate.Rate1s,
		SignalsForwarded: snap.SignalsForwarded,
		SignalsDropped:   snap.SignalsDropped,
		UptimeP50:        snap.RunDuration.P50,
		UptimeP95:        snap.RunDuration.P95,
		UptimeP99:        snap.RunDuration.P99,
		ShutdownP50:      snap.ShutdownLag.P50,
		ShutdownP95:      snap.ShutdownLag.P95,
		ShutdownP99:      snap.ShutdownLag.P99,
	})
}

// verifyExportedMetrics reads back the local /metrics endpoint and logs
// what Prometheus would have seen. Best effort.
func (o *Orchestrator) verifyExportedMetrics() {
	if o.metricsServer == nil {
		return
	}

	scraper := metrics.NewSelfScraper(o.config.MetricsAddr, o.logger)
	exported, err := scraper.Scrape()
	if err != nil {
		o.logger.Debug("metrics_selfscrape_failed", "error", err)
		return
	}

	o.logger.Info("metrics_selfscrape",
		"ops_total", exported.OpsTotal,
		"runner_starts", exported.RunnerStarts,
		"signals_fanned_out", exported.SignalsFannedOut,
		"signals_dropped", exported.SignalsDropped,
	)
}

// printExitSummary prints a summary of the swarm run.
func (o *Orchestrator) printExitSummary() {
	snap := o.recorder.Snapshot()

	fmt.Print(stats.FormatExitSummary(snap, stats.SummaryConfig{
		TargetRunners:      o.config.Runners,
		Duration:           time.Since(o.startTime),
		MetricsAddr:        o.config.MetricsAddr,
		ShowPerRunnerStats: o.config.PerRunnerStats,
	}))
}

// Signal injects a signal into the running swarm. Used by the TUI to
// request shutdown or reload without going through the OS.
func (o *Orchestrator) Signal(sig os.Signal) {
	if o.proc != nil {
		o.proc.Signal(sig)
	}
}

// RequestShutdown injects the configured shutdown signal.
func (o *Orchestrator) RequestShutdown() {
	o.Signal(o.shutdownSig)
}

// RequestReload injects the configured reload signal.
func (o *Orchestrator) RequestReload() {
	o.Signal(o.reloadSig)
}

// Tracker returns the runner tracker for external access.
func (o *Orchestrator) Tracker() *RunnerTracker {
	return o.tracker
}

// Snapshot returns the current aggregate stats.
func (o *Orchestrator) Snapshot() *stats.Snapshot {
	return o.recorder.Snapshot()
}

// StartTime returns when Run began.
func (o *Orchestrator) StartTime() time.Time {
	return o.startTime
}

// ShutdownSignal returns the configured shutdown signal.
func (o *Orchestrator) ShutdownSignal() os.Signal {
	return o.shutdownSig
}

// ReloadSignal returns the configured reload signal.
func (o *Orchestrator) ReloadSignal() os.Signal {
	return o.reloadSig
}
