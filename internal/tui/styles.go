package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorPrimary   = lipgloss.Color("#2563EB") // blue
	colorSecondary = lipgloss.Color("#14B8A6") // teal
	colorSuccess   = lipgloss.Color("#22C55E") // green
	colorWarning   = lipgloss.Color("#EAB308") // yellow
	colorError     = lipgloss.Color("#DC2626") // red
	colorText      = lipgloss.Color("#E2E8F0")
	colorTextMuted = lipgloss.Color("#94A3B8")
	colorTextDim   = lipgloss.Color("#64748B")
	colorBorder    = lipgloss.Color("#334155")
)

// =============================================================================
// Base Styles
// =============================================================================

var (
	mutedStyle = lipgloss.NewStyle().
			Foreground(colorTextMuted)

	dimStyle = lipgloss.NewStyle().
			Foreground(colorTextDim)

	headerStyle = lipgloss.NewStyle().
			Foreground(colorText).
			Background(colorPrimary).
			Bold(true).
			Padding(0, 1)

	sectionHeaderStyle = lipgloss.NewStyle().
				Foreground(colorSecondary).
				Bold(true).
				MarginBottom(1)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1).
			MarginBottom(1)

	footerStyle = lipgloss.NewStyle().
			Foreground(colorTextDim).
			MarginTop(1)
)

// =============================================================================
// Status Styles
// =============================================================================

var (
	statusOK = lipgloss.NewStyle().
			Foreground(colorSuccess)

	statusWarning = lipgloss.NewStyle().
			Foreground(colorWarning)

	statusError = lipgloss.NewStyle().
			Foreground(colorError)

	statusInfo = lipgloss.NewStyle().
			Foreground(colorSecondary)
)

// =============================================================================
// Label/Value Styles
// =============================================================================

var (
	labelStyle = lipgloss.NewStyle().
			Foreground(colorTextMuted).
			Width(20)

	valueStyle = lipgloss.NewStyle().
			Foreground(colorText)

	valueGoodStyle = lipgloss.NewStyle().
			Foreground(colorSuccess).
			Bold(true)

	valueWarnStyle = lipgloss.NewStyle().
			Foreground(colorWarning).
			Bold(true)

	valueBadStyle = lipgloss.NewStyle().
			Foreground(colorError).
			Bold(true)
)

// =============================================================================
// Progress Bar Styles
// =============================================================================

var (
	progressBarStyle = lipgloss.NewStyle().
				Foreground(colorPrimary)

	progressBarEmptyStyle = lipgloss.NewStyle().
				Foreground(colorBorder)

	progressPercentStyle = lipgloss.NewStyle().
				Foreground(colorText).
				Bold(true)
)

// =============================================================================
// Drop Status Indicator
// =============================================================================

// DropStatus represents the health of the signal fan-out path.
type DropStatus int

const (
	DropStatusOK DropStatus = iota
	DropStatusDegraded
	DropStatusSeverelyDegraded
)

// GetDropStatus classifies the fan-out drop rate.
func GetDropStatus(dropRate float64) DropStatus {
	switch {
	case dropRate > 0.10:
		return DropStatusSeverelyDegraded
	case dropRate > 0.0:
		return DropStatusDegraded
	default:
		return DropStatusOK
	}
}

// GetFanOutLabel returns a styled label for the signal fan-out path.
func GetFanOutLabel(dropRate float64) string {
	switch GetDropStatus(dropRate) {
	case DropStatusSeverelyDegraded:
		return statusError.Render("● Fan-out (severely degraded)")
	case DropStatusDegraded:
		return statusWarning.Render("● Fan-out (degraded)")
	default:
		return statusOK.Render("● Fan-out")
	}
}

// =============================================================================
// Helper Functions
// =============================================================================

// RenderKeyValue renders a label-value pair.
func RenderKeyValue(label string, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Left,
		labelStyle.Render(label+":"),
		valueStyle.Render(value),
	)
}

// RenderProgressBar renders a progress bar.
func RenderProgressBar(progress float64, width int) string {
	if width < 10 {
		width = 10
	}

	filled := int(progress * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	bar := progressBarStyle.Render(repeatChar('█', filled)) +
		progressBarEmptyStyle.Render(repeatChar('░', width-filled))

	percent := progressPercentStyle.Render(fmt.Sprintf(" %3.0f%%", progress*100))

	return bar + percent
}

func repeatChar(char rune, count int) string {
	if count <= 0 {
		return ""
	}
	result := make([]rune, count)
	for i := range result {
		result[i] = char
	}
	return string(result)
}
