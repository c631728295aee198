package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"tapestry-archive/pkg/ui"
)

const logo = `▀█▀ ▄▀█ █▀█ █▀▀ █▀ ▀█▀ █▀█ █▄█
 █  █▀█ █▀▀ ██▄ ▄█  █  █▀▄  █ `

// View renders the entire TUI
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	sections := []string{logoStyle.Width(m.width).Render(logo)}

	columnWidth := (m.width - 4) / 2
	left := lipgloss.JoinVertical(lipgloss.Left,
		m.renderStatsPanel(columnWidth),
		m.renderObservationPanel(columnWidth),
	)
	right := lipgloss.JoinVertical(lipgloss.Left,
		m.renderRecentPanel(columnWidth),
		m.renderLogsPanel(columnWidth),
	)
	sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right))

	if m.showHelp {
		sections = append(sections, m.renderHelp())
	} else if m.finished {
		sections = append(sections, helpStyle.Render("Run finished. Press q to exit"))
	} else {
		sections = append(sections, helpStyle.Render("Press ? for help"))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderStatsPanel renders the run counters
func (m Model) renderStatsPanel(width int) string {
	title := titleStyle.Render(" " + strings.ToUpper(m.name) + " ")

	status := m.spinner.View() + " archiving"
	switch {
	case m.finished && m.runErr != nil:
		status = errorStyle.Render("✗ aborted")
	case m.finished:
		status = successStyle.Render("✓ done")
	}

	row := func(label, value string) string {
		return fmt.Sprintf("%s %s", statsLabelStyle.Render(label), statsValueStyle.Render(value))
	}

	lines := []string{
		status,
		row("Elapsed:", formatDuration(m.stats.Elapsed())),
		row("Observations:", fmt.Sprintf("%d", m.stats.Observations)),
		row("Written:", fmt.Sprintf("%d (%s)", m.stats.Written, ui.FormatBytes(m.stats.Bytes))),
		row("Already present:", fmt.Sprintf("%d", m.stats.Skipped)),
		row("Rate:", fmt.Sprintf("%.1f/min", m.stats.Rate())),
	}
	if m.stats.Failed > 0 {
		lines = append(lines, errorStyle.Render(fmt.Sprintf("%d failed", m.stats.Failed)))
	}
	if m.runID != "" {
		lines = append(lines, dimStyle.Render("run "+shortID(m.runID)))
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(lines, "\n")),
	)
}

// renderObservationPanel shows the observation being archived
func (m Model) renderObservationPanel(width int) string {
	title := titleStyle.Render(" CURRENT OBSERVATION ")

	var content string
	switch {
	case m.observation == "" && m.finished && m.summary != nil && m.summary.JournalPath != "":
		content = dimStyle.Render("Journal written to " + m.summary.JournalPath)
	case m.observation == "":
		content = dimStyle.Render("Waiting for the listing...")
	default:
		content = lipgloss.JoinVertical(lipgloss.Left,
			truncate(m.observation, width-4),
			fmt.Sprintf("%d/%d attachments", m.obsProcessed, m.obsTotal),
			m.progress.View(),
		)
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, content),
	)
}

// renderRecentPanel lists the latest attachments
func (m Model) renderRecentPanel(width int) string {
	title := titleStyle.Render(" RECENT FILES ")

	if len(m.recent) == 0 {
		return panelStyle.Width(width).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, dimStyle.Render("Nothing yet")),
		)
	}

	items := make([]string, 0, len(m.recent))
	for _, f := range m.recent {
		mark := "="
		switch f.State {
		case FileWritten:
			mark = "✓"
		case FileFailed:
			mark = "✗"
		}
		items = append(items, fileStyle(f.State).Render(mark+" "+truncate(f.Name, width-8)))
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(items, "\n")),
	)
}

// renderLogsPanel renders the logs panel
func (m Model) renderLogsPanel(width int) string {
	title := titleStyle.Render(" LOG ")

	start := len(m.logMessages) - 8
	if start < 0 {
		start = 0
	}

	var logs []string
	for _, log := range m.logMessages[start:] {
		timestamp := logTimestampStyle.Render(log.Time.Format("15:04:05"))
		level := lipgloss.NewStyle().Foreground(log.Color).Bold(true).Render(fmt.Sprintf("[%-7s]", log.Level))
		message := logMessageStyle.Render(truncate(log.Message, width-25))
		logs = append(logs, fmt.Sprintf("%s %s %s", timestamp, level, message))
	}

	content := strings.Join(logs, "\n")
	if content == "" {
		content = dimStyle.Render("No logs yet...")
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, content),
	)
}

// renderHelp renders the help panel
func (m Model) renderHelp() string {
	help := `
  Keys:
    q/esc    - Quit (stops the run if it is still going)
    ctrl+l   - Clear the log
    ?        - Toggle this help

  Files:
    ` + successStyle.Render("✓") + `        - Written
    ` + dimStyle.Render("=") + `        - Already present
    ` + errorStyle.Render("✗") + `        - Failed
`
	return panelStyle.Width(m.width - 2).Render(help)
}

// truncate shortens s to at most n runes
func truncate(s string, n int) string {
	if n < 4 {
		n = 4
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// formatDuration formats a duration as a clock
func formatDuration(d time.Duration) string {
	if d < 0 {
		return "00:00"
	}

	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60

	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
