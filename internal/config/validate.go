package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
	"time"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// signalsByName maps the signal names the flags accept.
var signalsByName = map[string]os.Signal{
	"SIGINT":  syscall.SIGINT,
	"SIGTERM": syscall.SIGTERM,
	"SIGHUP":  syscall.SIGHUP,
	"SIGQUIT": syscall.SIGQUIT,
	"SIGUSR1": syscall.SIGUSR1,
	"SIGUSR2": syscall.SIGUSR2,
}

// SignalFromName resolves a signal name like "SIGTERM" to an os.Signal.
func SignalFromName(name string) (os.Signal, error) {
	sig, ok := signalsByName[name]
	if !ok {
		return nil, fmt.Errorf("unknown signal %q", name)
	}
	return sig, nil
}

// Validate checks the configuration for errors and inconsistencies.
// Returns nil if valid, or an error describing the problem.
func Validate(cfg *Config) error {
	var errs []error

	// Runners must be positive
	if cfg.Runners < 1 {
		errs = append(errs, ValidationError{
			Field:   "runners",
			Message: "must be at least 1",
		})
	}

	// Tick interval must be positive
	if cfg.TickInterval <= 0 {
		errs = append(errs, ValidationError{
			Field:   "tick_interval",
			Message: "must be positive",
		})
	}

	// Jitter must not exceed the interval
	if cfg.TickJitter < 0 {
		errs = append(errs, ValidationError{
			Field:   "tick_jitter",
			Message: "must not be negative",
		})
	}
	if cfg.TickJitter >= cfg.TickInterval && cfg.TickInterval > 0 {
		errs = append(errs, ValidationError{
			Field:   "tick_jitter",
			Message: fmt.Sprintf("must be less than tick_interval (%v), got %v", cfg.TickInterval, cfg.TickJitter),
		})
	}

	// Signal names must resolve
	if _, err := SignalFromName(cfg.ShutdownSignal); err != nil {
		errs = append(errs, ValidationError{
			Field:   "shutdown_signal",
			Message: err.Error(),
		})
	}
	if _, err := SignalFromName(cfg.ReloadSignal); err != nil {
		errs = append(errs, ValidationError{
			Field:   "reload_signal",
			Message: err.Error(),
		})
	}
	if cfg.ErrorSignal != "" {
		if _, err := SignalFromName(cfg.ErrorSignal); err != nil {
			errs = append(errs, ValidationError{
				Field:   "error_signal",
				Message: err.Error(),
			})
		}
	}

	// Shutdown and reload must differ, or reloads would stop workers
	if cfg.ShutdownSignal == cfg.ReloadSignal {
		errs = append(errs, ValidationError{
			Field:   "reload_signal",
			Message: "must differ from shutdown_signal",
		})
	}

	// A failure broadcast that looks like a reload would be absorbed
	// silently instead of stopping the survivors.
	if cfg.ErrorSignal != "" && cfg.ErrorSignal == cfg.ReloadSignal {
		errs = append(errs, ValidationError{
			Field:   "error_signal",
			Message: "must differ from reload_signal",
		})
	}

	// Metrics address must be host:port
	if cfg.MetricsAddr != "" {
		if _, _, err := net.SplitHostPort(cfg.MetricsAddr); err != nil {
			errs = append(errs, ValidationError{
				Field:   "metrics_addr",
				Message: fmt.Sprintf("must be host:port (got %q)", cfg.MetricsAddr),
			})
		}
	}

	// Log format must be valid
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[cfg.LogFormat] {
		errs = append(errs, ValidationError{
			Field:   "log_format",
			Message: fmt.Sprintf("must be 'json' or 'text' (got %q)", cfg.LogFormat),
		})
	}

	// Log level must be valid
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.LogLevel] {
		errs = append(errs, ValidationError{
			Field:   "log_level",
			Message: fmt.Sprintf("must be debug, info, warn, or error (got %q)", cfg.LogLevel),
		})
	}

	// Sample interval must be positive
	if cfg.SampleInterval <= 0 {
		errs = append(errs, ValidationError{
			Field:   "sample_interval",
			Message: "must be positive",
		})
	}

	// Return combined errors
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// ApplyCheckMode modifies config for --check mode.
func ApplyCheckMode(cfg *Config) {
	cfg.Runners = 1
	cfg.Duration = 10 * time.Second
	cfg.Verbose = true
	cfg.TUIEnabled = false
}
