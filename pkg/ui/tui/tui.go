package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"tapestry-archive/internal/downloader"
	"tapestry-archive/pkg/archiver"
	"tapestry-archive/pkg/tapestry"
)

// TUI runs the dashboard and implements archiver.Observer, turning
// pipeline events into messages for the program
type TUI struct {
	program *tea.Program
	model   *Model
}

// NewTUI creates a dashboard for the child called name. cancel is called
// when the user quits before the run ends.
func NewTUI(name string, cancel context.CancelFunc, opts ...tea.ProgramOption) *TUI {
	model := NewModel(name, cancel)
	if len(opts) == 0 {
		opts = []tea.ProgramOption{tea.WithAltScreen()}
	}

	return &TUI{
		program: tea.NewProgram(&model, opts...),
		model:   &model,
	}
}

// Start runs the program on the calling goroutine until the user quits
func (t *TUI) Start() error {
	_, err := t.program.Run()
	return err
}

// Stop stops the TUI
func (t *TUI) Stop() {
	t.program.Quit()
}

// Send delivers a message to the program. It blocks until the program
// takes it, and returns at once after the program has exited.
func (t *TUI) Send(msg tea.Msg) {
	t.program.Send(msg)
}

// Log adds a line to the log panel
func (t *TUI) Log(level, message string) {
	t.Send(LogMsg{Level: level, Message: message})
}

// RunStarted implements archiver.Observer
func (t *TUI) RunStarted(runID string) {
	t.Send(RunStartedMsg{RunID: runID})
}

// ObservationStarted implements archiver.Observer
func (t *TUI) ObservationStarted(obs tapestry.Observation, index int) {
	t.Send(ObservationMsg{Title: obs.Title, Index: index, Attachments: len(obs.Attachments)})
}

// AttachmentDone implements archiver.Observer
func (t *TUI) AttachmentDone(r downloader.Result) {
	t.Send(AttachmentMsg{Result: r})
}

// RunFinished implements archiver.Observer
func (t *TUI) RunFinished(s *archiver.Summary, err error) {
	t.Send(RunFinishedMsg{Summary: s, Err: err})
}
