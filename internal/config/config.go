// Package config provides configuration management for go-runner-swarm.
package config

import "time"

// Config holds all configuration options for the orchestrator.
type Config struct {
	// Orchestration
	Runners  int           `json:"runners"`
	Duration time.Duration `json:"duration"` // 0 = forever

	// Worker behavior
	TickInterval time.Duration `json:"tick_interval"`
	TickJitter   time.Duration `json:"tick_jitter"`

	// Seed drives per-worker jitter. Zero derives a seed from the
	// clock; any other value makes the jitter schedule reproducible.
	Seed int64 `json:"seed"`

	// Signal handling
	ShutdownSignal string `json:"shutdown_signal"`
	ReloadSignal   string `json:"reload_signal"`

	// Error propagation: when a runner fails, broadcast this signal to
	// the survivors. Empty = failures do not interrupt other runners.
	ErrorSignal string `json:"error_signal"`

	// Observability
	MetricsAddr string `json:"metrics_addr"`
	Verbose     bool   `json:"verbose"`
	LogFormat   string `json:"log_format"` // json, text
	LogLevel    string `json:"log_level"`

	// Dashboard
	TUIEnabled bool `json:"tui"`

	// Exit summary
	PerRunnerStats bool `json:"per_runner_stats"`

	// Diagnostic modes
	Check         bool `json:"check"`
	SkipPreflight bool `json:"skip_preflight"`

	// Stats sampling
	SampleInterval time.Duration `json:"sample_interval"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		// Orchestration
		Runners:  10,
		Duration: 0, // Forever

		// Worker behavior
		TickInterval: 100 * time.Millisecond,
		TickJitter:   20 * time.Millisecond,
		Seed:         0, // Time-derived

		// Signals
		ShutdownSignal: "SIGTERM",
		ReloadSignal:   "SIGHUP",
		ErrorSignal:    "", // Disabled

		// Observability
		MetricsAddr: "0.0.0.0:17091",
		Verbose:     false,
		LogFormat:   "json",
		LogLevel:    "info",

		// Dashboard
		TUIEnabled: true,

		// Stats
		SampleInterval: time.Second,
	}
}
