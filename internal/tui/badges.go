// internal/tui/badges.go
package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// renderWindowBadge returns a Lipgloss-styled badge for the look-ahead window.
func renderWindowBadge(daysAhead int) string {
	badgeStyle := lipgloss.NewStyle().Background(lipgloss.Color("255")).Foreground(lipgloss.Color("0")).Padding(0, 1)
	return badgeStyle.Render(fmt.Sprintf("Window: %dd", daysAhead))
}

// formatDiagnosticsIndicator returns a human-readable summary of skipped courses.
func formatDiagnosticsIndicator(count int) string {
	switch count {
	case 0:
		return "All courses loaded"
	case 1:
		return "1 course unavailable"
	default:
		return fmt.Sprintf("%d courses unavailable", count)
	}
}

// renderDiagnosticsBadge returns a Lipgloss-styled badge for skipped courses.
func renderDiagnosticsBadge(count int) string {
	bg := lipgloss.Color("120")
	if count > 0 {
		bg = lipgloss.Color("229")
	}
	badgeStyle := lipgloss.NewStyle().Background(bg).Foreground(lipgloss.Color("0")).Padding(0, 1).MarginLeft(1)
	return badgeStyle.Render(formatDiagnosticsIndicator(count))
}
