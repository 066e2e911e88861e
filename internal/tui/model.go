package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/randomizedcoder/go-runner-swarm/internal/stats"
)

// =============================================================================
// Messages
// =============================================================================

// TickMsg is sent periodically to update the display.
type TickMsg time.Time

// SnapshotMsg carries updated statistics.
type SnapshotMsg struct {
	Snapshot *stats.Snapshot
}

// QuitMsg signals the TUI should exit.
type QuitMsg struct{}

// =============================================================================
// Model
// =============================================================================

// SnapshotSource provides point-in-time swarm statistics.
type SnapshotSource interface {
	Snapshot() *stats.Snapshot
}

// SignalRequester accepts shutdown/reload requests from the keyboard.
// The orchestrator implements this; key presses inject signals into the
// swarm the same way an external kill(1) would.
type SignalRequester interface {
	RequestShutdown()
	RequestReload()
}

// Config holds TUI configuration.
type Config struct {
	TargetRunners int
	Duration      time.Duration
	MetricsAddr   string
	Source        SnapshotSource
	Signals       SignalRequester
}

// Model represents the TUI state.
type Model struct {
	targetRunners int
	duration      time.Duration
	metricsAddr   string

	snapshot   *stats.Snapshot
	startTime  time.Time
	lastUpdate time.Time

	detailedView bool

	width  int
	height int

	source  SnapshotSource
	signals SignalRequester

	quitting bool
}

// New creates a new TUI model.
func New(cfg Config) Model {
	return Model{
		targetRunners: cfg.TargetRunners,
		duration:      cfg.Duration,
		metricsAddr:   cfg.MetricsAddr,
		source:        cfg.Source,
		signals:       cfg.Signals,
		startTime:     time.Now(),
		lastUpdate:    time.Now(),
		width:         80,
		height:        24,
	}
}

// =============================================================================
// Bubble Tea Interface
// =============================================================================

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	// tea.WithAltScreen() is passed when creating the program.
	return tickCmd()
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			if m.signals != nil {
				m.signals.RequestShutdown()
			}
			return m, tea.Quit
		case "d":
			m.detailedView = !m.detailedView
			return m, nil
		case "r":
			if m.signals != nil {
				m.signals.RequestReload()
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case TickMsg:
		if m.source != nil {
			m.snapshot = m.source.Snapshot()
		}
		m.lastUpdate = time.Now()
		return m, tickCmd()

	case SnapshotMsg:
		m.snapshot = msg.Snapshot
		m.lastUpdate = time.Now()
		return m, nil

	case QuitMsg:
		m.quitting = true
		return m, tea.Quit
	}

	return m, nil
}

// View renders the TUI.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	if m.detailedView && m.snapshot != nil && len(m.snapshot.Runners) > 0 {
		return m.renderDetailedView()
	}
	return m.renderSummaryView()
}

// =============================================================================
// Commands
// =============================================================================

// tickCmd returns a command that sends a tick after 500ms.
func tickCmd() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// =============================================================================
// Accessors
// =============================================================================

// Elapsed returns the time since the swarm started.
func (m Model) Elapsed() time.Duration {
	return time.Since(m.startTime)
}

// ActiveRunners returns the current active runner count.
func (m Model) ActiveRunners() int {
	if m.snapshot == nil {
		return 0
	}
	return m.snapshot.Active
}

// TargetRunners returns the target runner count.
func (m Model) TargetRunners() int {
	return m.targetRunners
}

// StartProgress returns how much of the swarm has started (0.0 to 1.0).
func (m Model) StartProgress() float64 {
	if m.targetRunners == 0 {
		return 0
	}
	if m.snapshot == nil {
		return 0
	}
	return float64(m.snapshot.Started) / float64(m.targetRunners)
}

// DropRate returns the fan-out drop rate.
func (m Model) DropRate() float64 {
	if m.snapshot == nil {
		return 0
	}
	attempted := m.snapshot.SignalsForwarded + m.snapshot.SignalsDropped
	if attempted == 0 {
		return 0
	}
	return float64(m.snapshot.SignalsDropped) / float64(attempted)
}

// =============================================================================
// Helper for external use
// =============================================================================

// SendSnapshot sends a stats update to the TUI.
func SendSnapshot(p *tea.Program, snap *stats.Snapshot) {
	if p != nil {
		p.Send(SnapshotMsg{Snapshot: snap})
	}
}

// SendQuit sends a quit message to the TUI.
func SendQuit(p *tea.Program) {
	if p != nil {
		p.Send(QuitMsg{})
	}
}

// =============================================================================
// Formatting Helpers (used by view.go)
// =============================================================================

// formatDuration formats a duration as HH:MM:SS.
func formatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// formatNumber formats a number with K/M suffixes.
func formatNumber(n int64) string {
	if n >= 1_000_000 {
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	}
	if n >= 1_000 {
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	}
	return fmt.Sprintf("%d", n)
}

// formatMs formats a duration as milliseconds.
func formatMs(d time.Duration) string {
	ms := d.Milliseconds()
	if ms == 0 && d > 0 {
		return fmt.Sprintf("%d µs", d.Microseconds())
	}
	return fmt.Sprintf("%d ms", ms)
}

// formatRate formats a rate with appropriate precision.
func formatRate(rate float64) string {
	if rate >= 1000 {
		return fmt.Sprintf("%.1fK/s", rate/1000)
	}
	if rate >= 1 {
		return fmt.Sprintf("%.1f/s", rate)
	}
	return fmt.Sprintf("%.2f/s", rate)
}
