package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/randomizedcoder/go-runner-swarm/internal/stats"
)

// =============================================================================
// Main View Rendering
// =============================================================================

// renderSummaryView renders the main summary dashboard.
func (m Model) renderSummaryView() string {
	var sections []string

	sections = append(sections, m.renderHeader())
	sections = append(sections, m.renderProgress())

	if m.snapshot != nil {
		sections = append(sections, m.renderWorkStats())
		sections = append(sections, m.renderLifecycleStats())

		if m.hasProblems() {
			sections = append(sections, m.renderProblems())
		}
	}

	sections = append(sections, m.renderFooter())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderDetailedView renders per-runner details.
func (m Model) renderDetailedView() string {
	var sections []string

	sections = append(sections, m.renderHeader())
	sections = append(sections, m.renderRunnerTable())
	sections = append(sections, m.renderFooter())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// =============================================================================
// Header
// =============================================================================

func (m Model) renderHeader() string {
	fanOutLabel := GetFanOutLabel(m.DropRate())

	header := fmt.Sprintf(
		" go-runner-swarm │ %s │ Runners: %d/%d │ Elapsed: %s ",
		fanOutLabel,
		m.ActiveRunners(),
		m.targetRunners,
		formatDuration(m.Elapsed()),
	)

	return headerStyle.Width(m.width).Render(header)
}

// =============================================================================
// Progress Section
// =============================================================================

func (m Model) renderProgress() string {
	progress := m.StartProgress()

	barWidth := m.width - 30
	if barWidth < 20 {
		barWidth = 20
	}
	progressBar := RenderProgressBar(progress, barWidth)

	var status string
	switch {
	case m.snapshot != nil && m.snapshot.Active == 0 && m.snapshot.Started > 0:
		status = statusInfo.Render("Shutting down...")
	case progress >= 1.0:
		status = statusOK.Render("✓ All runners running")
	default:
		status = statusInfo.Render(fmt.Sprintf("Starting... %d/%d", m.ActiveRunners(), m.targetRunners))
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		sectionHeaderStyle.Render("Swarm Progress"),
		progressBar,
		status,
	)

	return boxStyle.Width(m.width - 2).Render(content)
}

// =============================================================================
// Work Statistics
// =============================================================================

func (m Model) renderWorkStats() string {
	if m.snapshot == nil {
		return ""
	}

	s := m.snapshot

	rows := []string{
		renderStatRow("Operations", formatNumber(s.TotalOps), formatRate(s.OpsRate.Rate1s)),
		renderStatRow("Signals Forwarded", formatNumber(s.SignalsForwarded), formatRate(s.SignalRate.Rate1s)),
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		append([]string{sectionHeaderStyle.Render("Work Statistics")}, rows...)...,
	)

	return boxStyle.Width(m.width - 2).Render(content)
}

func renderStatRow(label, value, rate string) string {
	return lipgloss.JoinHorizontal(lipgloss.Left,
		labelStyle.Render(label+":"),
		valueStyle.Width(12).Render(value),
		mutedStyle.Render(" ("),
		valueStyle.Render(rate),
		mutedStyle.Render(")"),
	)
}

// =============================================================================
// Lifecycle Statistics
// =============================================================================

func (m Model) renderLifecycleStats() string {
	if m.snapshot == nil {
		return ""
	}

	s := m.snapshot

	rows := []string{
		RenderKeyValue("Started", fmt.Sprintf("%d", s.Started)),
		RenderKeyValue("Stopped", fmt.Sprintf("%d", s.Stopped)),
	}

	failedStyle := valueStyle
	if s.Failed > 0 {
		failedStyle = valueBadStyle
	}
	rows = append(rows,
		lipgloss.JoinHorizontal(lipgloss.Left,
			labelStyle.Render("Failed:"),
			failedStyle.Render(fmt.Sprintf("%d", s.Failed)),
		),
	)

	if s.RunDuration.Count > 0 {
		rows = append(rows,
			RenderKeyValue("Run Duration P50", formatMs(s.RunDuration.P50)),
			RenderKeyValue("Run Duration P99", formatMs(s.RunDuration.P99)),
		)
	}

	if s.ShutdownLag.Count > 0 {
		rows = append(rows,
			RenderKeyValue("Shutdown Lag P50", formatMs(s.ShutdownLag.P50)),
			RenderKeyValue("Shutdown Lag P99", formatMs(s.ShutdownLag.P99)),
		)
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		append([]string{sectionHeaderStyle.Render("Runner Lifecycle")}, rows...)...,
	)

	return boxStyle.Width(m.width - 2).Render(content)
}

// =============================================================================
// Problems
// =============================================================================

func (m Model) hasProblems() bool {
	if m.snapshot == nil {
		return false
	}
	return m.snapshot.FirstError != nil || m.snapshot.SignalsDropped > 0
}

func (m Model) renderProblems() string {
	s := m.snapshot

	var rows []string

	if s.SignalsDropped > 0 {
		rows = append(rows,
			lipgloss.JoinHorizontal(lipgloss.Left,
				labelStyle.Render("Signal Drops:"),
				valueWarnStyle.Render(formatNumber(s.SignalsDropped)),
			),
		)
	}

	if s.FirstError != nil {
		rows = append(rows,
			lipgloss.JoinHorizontal(lipgloss.Left,
				labelStyle.Render("First Error:"),
				valueBadStyle.Render(truncate(s.FirstError.Error(), m.width-26)),
			),
		)
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		append([]string{sectionHeaderStyle.Render("Problems")}, rows...)...,
	)

	return boxStyle.Width(m.width - 2).Render(content)
}

// =============================================================================
// Per-Runner Table
// =============================================================================

func (m Model) renderRunnerTable() string {
	if m.snapshot == nil || len(m.snapshot.Runners) == 0 {
		return boxStyle.Width(m.width - 2).Render(dimStyle.Render("No runner data yet"))
	}

	var b strings.Builder

	b.WriteString(fmt.Sprintf("%-8s %-10s %10s %10s %12s\n",
		"RUNNER", "STATE", "OPS", "SIGNALS", "UPTIME"))

	maxRows := m.height - 12
	if maxRows < 5 {
		maxRows = 5
	}

	shown := 0
	for _, r := range m.snapshot.Runners {
		if shown >= maxRows {
			b.WriteString(dimStyle.Render(
				fmt.Sprintf("... and %d more", len(m.snapshot.Runners)-shown)))
			break
		}
		b.WriteString(fmt.Sprintf("%-8d %-10s %10s %10s %12s\n",
			r.Index,
			renderState(r.State),
			formatNumber(r.Ops),
			formatNumber(r.Signals),
			formatDuration(r.Uptime),
		))
		shown++
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		sectionHeaderStyle.Render("Per-Runner Detail"),
		b.String(),
	)

	return boxStyle.Width(m.width - 2).Render(content)
}

func renderState(state stats.RunnerState) string {
	switch state {
	case stats.StateRunning:
		return statusOK.Render(state.String())
	case stats.StateFailed:
		return statusError.Render(state.String())
	case stats.StateStopped:
		return mutedStyle.Render(state.String())
	default:
		return dimStyle.Render(state.String())
	}
}

// =============================================================================
// Footer
// =============================================================================

func (m Model) renderFooter() string {
	parts := []string{
		"q: quit",
		"r: reload",
		"d: detail",
	}
	if m.metricsAddr != "" {
		parts = append(parts, fmt.Sprintf("metrics: http://%s/metrics", m.metricsAddr))
	}
	return footerStyle.Render(" " + strings.Join(parts, " │ "))
}

func truncate(s string, max int) string {
	if max < 8 {
		max = 8
	}
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
