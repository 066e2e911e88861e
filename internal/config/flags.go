package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
)

// ParseFlags parses command-line flags and returns a Config.
func ParseFlags() (*Config, error) {
	cfg := DefaultConfig()

	// Custom usage message
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `go-runner-swarm - concurrent runner supervision with signal fan-out

Usage:
  go-runner-swarm [flags]

Orchestration Flags:
`)
		// Print flags by category
		printFlagCategory([]string{"runners", "duration"})

		fmt.Fprintf(os.Stderr, "\nWorker Behavior:\n")
		printFlagCategory([]string{"tick-interval", "tick-jitter", "seed"})

		fmt.Fprintf(os.Stderr, "\nSignal Handling:\n")
		printFlagCategory([]string{"shutdown-signal", "reload-signal", "error-signal"})

		fmt.Fprintf(os.Stderr, "\nObservability:\n")
		printFlagCategory([]string{"metrics", "v", "log-format", "log-level", "sample-interval"})

		fmt.Fprintf(os.Stderr, "\nDashboard:\n")
		printFlagCategory([]string{"tui", "per-runner-stats"})

		fmt.Fprintf(os.Stderr, "\nDiagnostics:\n")
		printFlagCategory([]string{"check", "skip-preflight"})

		fmt.Fprintf(os.Stderr, `
Examples:
  # Ten workers until interrupted, JSON logs
  go-runner-swarm -runners 10 -tui=false

  # One minute run, failures interrupt the survivors with SIGUSR1
  go-runner-swarm -runners 50 -duration 1m -error-signal SIGUSR1

  # Smoke test: one worker for ten seconds
  go-runner-swarm -check

`)
	}

	// Orchestration flags
	flag.IntVar(&cfg.Runners, "runners", cfg.Runners, "Number of concurrent runners")
	flag.DurationVar(&cfg.Duration, "duration", cfg.Duration, "Run duration (0 = forever)")

	// Worker behavior
	flag.DurationVar(&cfg.TickInterval, "tick-interval", cfg.TickInterval, "Interval between worker operations")
	flag.DurationVar(&cfg.TickJitter, "tick-jitter", cfg.TickJitter, "Random jitter per worker tick")
	flag.Int64Var(&cfg.Seed, "seed", cfg.Seed, "Jitter seed for reproducible runs (0 = derive from time)")

	// Signal handling
	flag.StringVar(&cfg.ShutdownSignal, "shutdown-signal", cfg.ShutdownSignal, "Signal workers treat as a stop request")
	flag.StringVar(&cfg.ReloadSignal, "reload-signal", cfg.ReloadSignal, "Signal workers treat as a reload request")
	flag.StringVar(&cfg.ErrorSignal, "error-signal", cfg.ErrorSignal,
		"Broadcast this signal to surviving runners when one fails (empty = disabled)")

	// Observability
	flag.StringVar(&cfg.MetricsAddr, "metrics", cfg.MetricsAddr, "Prometheus metrics address")
	flag.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "Verbose logging")
	flag.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, `Log format: "json" or "text"`)
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, `Log level: "debug", "info", "warn", "error"`)
	flag.DurationVar(&cfg.SampleInterval, "sample-interval", cfg.SampleInterval, "Rate sampling interval")

	// Dashboard
	flag.BoolVar(&cfg.TUIEnabled, "tui", cfg.TUIEnabled, "Enable live terminal dashboard (use -tui=false to disable)")
	flag.BoolVar(&cfg.PerRunnerStats, "per-runner-stats", cfg.PerRunnerStats, "Show per-runner table in the exit summary")

	// Diagnostics
	flag.BoolVar(&cfg.Check, "check", cfg.Check, "Validate config and run 1 runner for 10 seconds")
	flag.BoolVar(&cfg.SkipPreflight, "skip-preflight", cfg.SkipPreflight, "Skip preflight checks")

	// Parse
	flag.Parse()

	return cfg, nil
}

// printFlagCategory prints flags matching the given names (helper for usage).
func printFlagCategory(names []string) {
	flag.VisitAll(func(f *flag.Flag) {
		for _, name := range names {
			if f.Name == name {
				fmt.Fprintf(os.Stderr, "  -%s %s\n    \t%s", f.Name, flagType(f), f.Usage)
				if f.DefValue != "" && f.DefValue != "false" && f.DefValue != "0" && f.DefValue != "0s" {
					fmt.Fprintf(os.Stderr, " (default %s)", f.DefValue)
				}
				fmt.Fprintln(os.Stderr)
				return
			}
		}
	})
}

// flagType returns a type hint for the flag value.
func flagType(f *flag.Flag) string {
	// Infer type from default value format
	switch f.DefValue {
	case "true", "false":
		return ""
	}

	// Check if it looks like a duration
	if strings.HasSuffix(f.DefValue, "s") || strings.HasSuffix(f.DefValue, "m") || strings.HasSuffix(f.DefValue, "h") {
		return "duration"
	}

	// Check if numeric
	if _, err := fmt.Sscanf(f.DefValue, "%d", new(int)); err == nil {
		return "int"
	}

	return "string"
}
