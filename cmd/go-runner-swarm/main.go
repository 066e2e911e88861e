// Package main provides the go-runner-swarm CLI entry point.
//
// go-runner-swarm orchestrates a swarm of in-process runners, fans OS
// signals out to all of them concurrently, and reports lifecycle and
// shutdown-latency statistics.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/randomizedcoder/go-runner-swarm/internal/config"
	"github.com/randomizedcoder/go-runner-swarm/internal/logging"
	"github.com/randomizedcoder/go-runner-swarm/internal/orchestrator"
	"github.com/randomizedcoder/go-runner-swarm/internal/tui"
)

// version is set at build time via ldflags:
//
//	go build -ldflags "-X main.version=1.0.0" ./cmd/go-runner-swarm
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// Handle version flag early (before flag parsing)
	if len(os.Args) > 1 {
		arg := os.Args[1]
		if arg == "-version" || arg == "--version" || arg == "version" {
			fmt.Printf("go-runner-swarm %s\n", version)
			return 0
		}
	}

	cfg, err := config.ParseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		return 1
	}

	// Apply --check mode modifications before validation so the
	// substituted values are the ones checked.
	if cfg.Check {
		config.ApplyCheckMode(cfg)
	}

	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		return 1
	}

	// When the TUI is enabled, suppress logs to avoid interfering with
	// TUI rendering.
	var logger *slog.Logger
	if cfg.TUIEnabled {
		logger = logging.NewLoggerWithWriter(io.Discard, cfg.LogFormat, cfg.LogLevel)
	} else {
		logger = logging.NewLogger(cfg.LogFormat, cfg.LogLevel, cfg.Verbose)
	}
	logging.SetDefault(logger)

	if cfg.Check {
		logger.Info("check_mode_enabled", "runners", cfg.Runners, "duration", cfg.Duration)
	}

	logger.Info("starting",
		"version", version,
		"runners", cfg.Runners,
		"duration", cfg.Duration,
		"shutdown_signal", cfg.ShutdownSignal,
		"reload_signal", cfg.ReloadSignal,
		"metrics_addr", cfg.MetricsAddr,
	)

	if !cfg.TUIEnabled {
		printBanner(cfg)
	}

	orch, err := orchestrator.New(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	// SIGINT/SIGTERM at the process level cancel the run context; the
	// orchestrator turns cancellation into a clean swarm shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var program *tea.Program
	var tuiWG sync.WaitGroup
	if cfg.TUIEnabled {
		model := tui.New(tui.Config{
			TargetRunners: cfg.Runners,
			Duration:      cfg.Duration,
			MetricsAddr:   cfg.MetricsAddr,
			Source:        orch,
			Signals:       orch,
		})
		program = tea.NewProgram(model, tea.WithAltScreen())

		tuiWG.Add(1)
		go func() {
			defer tuiWG.Done()
			if _, err := program.Run(); err != nil {
				fmt.Fprintf(os.Stderr, "TUI error: %v\n", err)
			}
		}()
	}

	runErr := orch.Run(ctx)

	if program != nil {
		tui.SendQuit(program)
		tuiWG.Wait()
	}

	if runErr != nil {
		logger.Error("orchestrator_failed", "error", runErr)
		fmt.Fprintf(os.Stderr, "Error: %v\n", runErr)
		return 1
	}

	return 0
}

// printBanner prints the startup banner.
func printBanner(cfg *config.Config) {
	fmt.Println()
	fmt.Println("╔═══════════════════════════════════════════════════════════════════╗")
	fmt.Println("║                        go-runner-swarm                            ║")
	fmt.Println("║        Concurrent Runner Supervision and Signal Fan-Out           ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════════════╝")
	fmt.Println()
	fmt.Printf("  Runners:     %d\n", cfg.Runners)
	if cfg.Duration > 0 {
		fmt.Printf("  Duration:    %s\n", cfg.Duration)
	} else {
		fmt.Println("  Duration:    unlimited (stop with a signal)")
	}
	fmt.Printf("  Shutdown:    %s\n", cfg.ShutdownSignal)
	fmt.Printf("  Reload:      %s\n", cfg.ReloadSignal)
	if cfg.ErrorSignal != "" {
		fmt.Printf("  On failure:  broadcast %s to survivors\n", cfg.ErrorSignal)
	}
	if cfg.MetricsAddr != "" {
		fmt.Printf("  Metrics:     http://%s/metrics\n", cfg.MetricsAddr)
	}
	fmt.Println()
	fmt.Println("Press Ctrl+C to stop.")
	fmt.Println()
}
