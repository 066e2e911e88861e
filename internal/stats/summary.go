// Package stats provides per-runner and aggregated statistics for the
// runner swarm.
//
// This file implements the exit summary formatter which displays
// aggregate statistics at program exit.
package stats

import (
	"fmt"
	"strings"
	"time"
)

// SummaryConfig holds configuration for summary formatting.
type SummaryConfig struct {
	// TargetRunners is the number of runners that were requested
	TargetRunners int

	// Duration is the total run duration
	Duration time.Duration

	// MetricsAddr is the Prometheus metrics endpoint address
	MetricsAddr string

	// ShowPerRunnerStats enables the per-runner detail table
	ShowPerRunnerStats bool
}

// FormatExitSummary formats aggregated stats for display at program exit.
//
// The summary includes:
// - Run information
// - Work statistics with rates
// - Signal fan-out statistics
// - Run duration and shutdown latency percentiles
// - Outcome breakdown and the first error, if any
func FormatExitSummary(snap *Snapshot, cfg SummaryConfig) string {
	if snap == nil {
		return formatBasicSummary(cfg)
	}

	var b strings.Builder

	b.WriteString("\n")
	b.WriteString("═══════════════════════════════════════════════════════════════════════════════\n")
	b.WriteString("                        go-runner-swarm Exit Summary\n")
	b.WriteString("═══════════════════════════════════════════════════════════════════════════════\n\n")

	// Signal drops mean feed channels filled up (lossy-by-design)
	if snap.SignalsDropped > 0 {
		b.WriteString("⚠️  SIGNAL DROPS: Some runners could not keep up with signal fan-out\n")
		fmt.Fprintf(&b, "    Signals dropped: %s\n",
			FormatNumber(snap.SignalsDropped),
		)
		b.WriteString("    Consider: fewer runners or runners that drain their signal channel\n\n")
	}

	// Run info
	fmt.Fprintf(&b, "Run Duration:           %s\n", FormatDuration(cfg.Duration))
	fmt.Fprintf(&b, "Target Runners:         %d\n", cfg.TargetRunners)
	fmt.Fprintf(&b, "Runners Started:        %d\n\n", snap.Started)

	// Work statistics
	b.WriteString("───────────────────────────────────────────────────────────────────────────────\n")
	b.WriteString("                               Work Statistics\n")
	b.WriteString("───────────────────────────────────────────────────────────────────────────────\n\n")

	perRunner := int64(1)
	if snap.Started > 0 {
		perRunner = int64(snap.Started)
	}

	fmt.Fprintf(&b, "  %-20s %12s %12s %12s\n", "Counter", "Total", "Rate (/sec)", "Per Runner")
	b.WriteString("  " + strings.Repeat("─", 58) + "\n")
	fmt.Fprintf(&b, "  %-20s %12s %12.1f %12d\n",
		"Operations",
		FormatNumber(snap.TotalOps),
		snap.OpsRate.RateOverall,
		snap.TotalOps/perRunner,
	)
	fmt.Fprintf(&b, "  %-20s %12s %12.1f %12d\n",
		"Signals fanned out",
		FormatNumber(snap.SignalsForwarded),
		snap.SignalRate.RateOverall,
		snap.SignalsForwarded/perRunner,
	)
	b.WriteString("\n")

	// Outcomes
	b.WriteString("───────────────────────────────────────────────────────────────────────────────\n")
	b.WriteString("                                  Outcomes\n")
	b.WriteString("───────────────────────────────────────────────────────────────────────────────\n\n")

	fmt.Fprintf(&b, "  Stopped cleanly:      %d\n", snap.Stopped)
	fmt.Fprintf(&b, "  Failed:               %d\n", snap.Failed)
	fmt.Fprintf(&b, "  Still active:         %d\n", snap.Active)
	if snap.FirstError != nil {
		fmt.Fprintf(&b, "  First error:          %v\n", snap.FirstError)
	}
	b.WriteString("\n")

	// Run duration distribution
	if snap.RunDuration.Count > 0 {
		b.WriteString("───────────────────────────────────────────────────────────────────────────────\n")
		b.WriteString("                          Run Duration Distribution\n")
		b.WriteString("───────────────────────────────────────────────────────────────────────────────\n\n")

		fmt.Fprintf(&b, "  P50 (median):         %s\n", FormatDuration(snap.RunDuration.P50))
		fmt.Fprintf(&b, "  P95:                  %s\n", FormatDuration(snap.RunDuration.P95))
		fmt.Fprintf(&b, "  P99:                  %s\n", FormatDuration(snap.RunDuration.P99))
		b.WriteString("\n")
	}

	// Shutdown latency distribution
	if snap.ShutdownLag.Count > 0 {
		b.WriteString("───────────────────────────────────────────────────────────────────────────────\n")
		b.WriteString("                        Shutdown Latency Distribution\n")
		b.WriteString("───────────────────────────────────────────────────────────────────────────────\n\n")

		fmt.Fprintf(&b, "  P50 (median):         %s\n", FormatMs(snap.ShutdownLag.P50))
		fmt.Fprintf(&b, "  P95:                  %s\n", FormatMs(snap.ShutdownLag.P95))
		fmt.Fprintf(&b, "  P99:                  %s\n", FormatMs(snap.ShutdownLag.P99))
		b.WriteString("\n")
	}

	// Per-runner detail table
	if cfg.ShowPerRunnerStats && len(snap.Runners) > 0 {
		b.WriteString("───────────────────────────────────────────────────────────────────────────────\n")
		b.WriteString("                               Per-Runner Stats\n")
		b.WriteString("───────────────────────────────────────────────────────────────────────────────\n\n")

		fmt.Fprintf(&b, "  %-8s %-10s %10s %10s %12s\n", "Runner", "State", "Ops", "Signals", "Uptime")
		b.WriteString("  " + strings.Repeat("─", 58) + "\n")
		for _, rec := range snap.Runners {
			fmt.Fprintf(&b, "  %-8d %-10s %10s %10d %12s\n",
				rec.Index,
				rec.State,
				FormatNumber(rec.Ops),
				rec.Signals,
				FormatDuration(rec.Uptime),
			)
		}
		b.WriteString("\n")
	}

	// Metrics endpoint
	if cfg.MetricsAddr != "" {
		fmt.Fprintf(&b, "Metrics endpoint was: http://%s/metrics\n", cfg.MetricsAddr)
	}

	b.WriteString("═══════════════════════════════════════════════════════════════════════════════\n")

	return b.String()
}

// formatBasicSummary formats a basic summary when stats are not available.
func formatBasicSummary(cfg SummaryConfig) string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString("═══════════════════════════════════════════════════════════════════════════════\n")
	b.WriteString("                        go-runner-swarm Exit Summary\n")
	b.WriteString("═══════════════════════════════════════════════════════════════════════════════\n\n")

	fmt.Fprintf(&b, "Run Duration:           %s\n", FormatDuration(cfg.Duration))
	fmt.Fprintf(&b, "Target Runners:         %d\n\n", cfg.TargetRunners)

	if cfg.MetricsAddr != "" {
		fmt.Fprintf(&b, "Metrics endpoint was: http://%s/metrics\n", cfg.MetricsAddr)
	}

	b.WriteString("═══════════════════════════════════════════════════════════════════════════════\n")

	return b.String()
}

// =============================================================================
// Formatting Helper Functions (exported for reuse)
// =============================================================================

// FormatDuration formats a duration as HH:MM:SS.
func FormatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// FormatNumber formats a number with K/M suffixes for readability.
func FormatNumber(n int64) string {
	if n >= 1_000_000 {
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	}
	if n >= 1_000 {
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	}
	return fmt.Sprintf("%d", n)
}

// FormatMs formats a duration as milliseconds.
func FormatMs(d time.Duration) string {
	ms := d.Milliseconds()
	if ms == 0 && d > 0 {
		// Sub-millisecond, show microseconds
		return fmt.Sprintf("%d µs", d.Microseconds())
	}
	return fmt.Sprintf("%d ms", ms)
}

// FormatRate formats a rate with appropriate precision.
func FormatRate(rate float64) string {
	if rate >= 1000 {
		return fmt.Sprintf("%.1fK/s", rate/1000)
	}
	if rate >= 1 {
		return fmt.Sprintf("%.1f/s", rate)
	}
	return fmt.Sprintf("%.2f/s", rate)
}
