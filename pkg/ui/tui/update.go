package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"tapestry-archive/internal/downloader"
	"tapestry-archive/pkg/archiver"
)

// RunStartedMsg is sent when the pipeline starts
type RunStartedMsg struct {
	RunID string
}

// ObservationMsg is sent when the pipeline moves to a new observation
type ObservationMsg struct {
	Title       string
	Index       int
	Attachments int
}

// AttachmentMsg is sent for every attachment handled
type AttachmentMsg struct {
	Result downloader.Result
}

// RunFinishedMsg is sent once the run is done or aborted
type RunFinishedMsg struct {
	Summary *archiver.Summary
	Err     error
}

// LogMsg is sent to add a log message
type LogMsg struct {
	Level   string
	Message string
}

// TickMsg is sent periodically to update the UI
type TickMsg time.Time

// Update handles all messages and updates the model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = max(10, msg.Width/2-24)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progress.FrameMsg:
		pm, cmd := m.progress.Update(msg)
		m.progress = pm.(progress.Model)
		return m, cmd

	case TickMsg:
		if m.finished {
			return m, nil
		}
		return m, tickCmd()

	case RunStartedMsg:
		m.startRun(msg.RunID)
		return m, nil

	case ObservationMsg:
		m.startObservation(msg.Title, msg.Index, msg.Attachments)
		return m, m.progress.SetPercent(0)

	case AttachmentMsg:
		m.recordResult(msg.Result)
		return m, m.progress.SetPercent(m.ObservationProgress())

	case RunFinishedMsg:
		m.finish(msg.Summary, msg.Err)
		return m, nil

	case LogMsg:
		m.AddLogMessage(msg.Level, msg.Message)
		return m, nil
	}

	return m, nil
}

// handleKeyPress handles keyboard input
func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "Q", "ctrl+c", "esc":
		if !m.finished && m.cancel != nil {
			m.cancel()
		}
		return m, tea.Quit

	case "?":
		m.showHelp = !m.showHelp
		return m, nil

	case "ctrl+l":
		m.logMessages = nil
		return m, nil
	}

	return m, nil
}

// tickCmd returns a command that sends a tick message
func tickCmd() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
