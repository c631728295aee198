package tui

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	leafGreen  = lipgloss.Color("#7BC96F")
	skyBlue    = lipgloss.Color("#6EC6FF")
	sunYellow  = lipgloss.Color("#FFD166")
	sunOrange  = lipgloss.Color("#F4A259")
	alertRed   = lipgloss.Color("#E63946")
	plum       = lipgloss.Color("#9B5DE5")
	dimWhite   = lipgloss.Color("#B0B0B0")
	faintGrey  = lipgloss.Color("#666666")
	helpGrey   = lipgloss.Color("#626262")
	titleForeg = lipgloss.Color("#FFFFFF")

	logoStyle = lipgloss.NewStyle().
			Foreground(leafGreen).
			Bold(true).
			Padding(1, 0).
			Align(lipgloss.Center)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(plum).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Background(plum).
			Foreground(titleForeg).
			Bold(true).
			Padding(0, 1)

	statsLabelStyle = lipgloss.NewStyle().
			Foreground(skyBlue).
			Bold(true)

	statsValueStyle = lipgloss.NewStyle().
			Foreground(sunYellow)

	successStyle = lipgloss.NewStyle().
			Foreground(leafGreen).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(alertRed).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(dimWhite)

	fileWrittenStyle = lipgloss.NewStyle().
				Foreground(leafGreen).
				PaddingLeft(1)

	fileSkippedStyle = lipgloss.NewStyle().
				Foreground(dimWhite).
				Faint(true).
				PaddingLeft(1)

	fileFailedStyle = lipgloss.NewStyle().
			Foreground(alertRed).
			PaddingLeft(1)

	logTimestampStyle = lipgloss.NewStyle().
				Foreground(faintGrey)

	logMessageStyle = lipgloss.NewStyle().
			Foreground(dimWhite)

	helpStyle = lipgloss.NewStyle().
			Foreground(helpGrey).
			Padding(1, 0, 0, 2)
)

// fileStyle returns the style for a recent file line
func fileStyle(s FileState) lipgloss.Style {
	switch s {
	case FileWritten:
		return fileWrittenStyle
	case FileFailed:
		return fileFailedStyle
	default:
		return fileSkippedStyle
	}
}
