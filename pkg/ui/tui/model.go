package tui

import (
	"context"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"tapestry-archive/internal/downloader"
	"tapestry-archive/pkg/archiver"
	"tapestry-archive/pkg/storage"
	"tapestry-archive/pkg/ui"
)

// FileState is what happened to one attachment
type FileState int

const (
	FileWritten FileState = iota
	FileSkipped
	FileFailed
)

// FileItem is one attachment in the recent files panel
type FileItem struct {
	Name  string
	State FileState
	Size  int
	Err   error
}

// LogMessage represents a log entry
type LogMessage struct {
	Time    time.Time
	Level   string
	Message string
	Color   lipgloss.Color
}

// Model is the dashboard state. It is only touched from Update.
type Model struct {
	spinner  spinner.Model
	progress progress.Model

	name   string
	runID  string
	stats  *ui.Stats
	cancel context.CancelFunc

	// current observation
	observation  string
	obsTotal     int
	obsProcessed int

	recent    []FileItem
	maxRecent int

	finished bool
	summary  *archiver.Summary
	runErr   error

	width          int
	height         int
	showHelp       bool
	logMessages    []LogMessage
	maxLogMessages int
}

// NewModel creates a dashboard for the child called name. cancel stops
// the run when the user quits early; it may be nil.
func NewModel(name string, cancel context.CancelFunc) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(leafGreen)

	p := progress.New(progress.WithGradient(string(leafGreen), string(sunYellow)))
	p.Width = 40

	if name == "" {
		name = "journal"
	}

	return Model{
		spinner:        s,
		progress:       p,
		name:           name,
		stats:          ui.NewStats(),
		cancel:         cancel,
		maxRecent:      8,
		maxLogMessages: 50,
	}
}

// Init starts the spinner and the refresh tick
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tickCmd())
}

// startRun resets the counters for a new run
func (m *Model) startRun(runID string) {
	m.runID = runID
	m.stats = ui.NewStats()
	m.AddLogMessage("INFO", "Run "+shortID(runID)+" started")
}

// startObservation switches the current observation panel
func (m *Model) startObservation(title string, index, attachments int) {
	m.stats.Observations = index
	m.observation = title
	m.obsTotal = attachments
	m.obsProcessed = 0
}

// recordResult counts an attachment and adds it to the recent files
func (m *Model) recordResult(r downloader.Result) {
	m.stats.Record(r)
	m.obsProcessed++

	item := FileItem{Name: filepath.Base(r.Path), Size: r.Size, Err: r.Err}
	switch {
	case r.Err != nil:
		item.State = FileFailed
		item.Name = r.Task.Attachment.URL
		m.AddLogMessage("ERROR", "Failed: "+item.Name+" - "+r.Err.Error())
	case r.Outcome == storage.Written:
		item.State = FileWritten
	default:
		item.State = FileSkipped
	}

	m.recent = append(m.recent, item)
	if len(m.recent) > m.maxRecent {
		m.recent = m.recent[len(m.recent)-m.maxRecent:]
	}
}

// finish records the end of the run
func (m *Model) finish(summary *archiver.Summary, err error) {
	m.finished = true
	m.summary = summary
	m.runErr = err
	m.observation = ""
	if err != nil {
		m.AddLogMessage("ERROR", "Run aborted: "+err.Error())
		return
	}
	m.AddLogMessage("SUCCESS", "Run complete: "+summary.String())
}

// AddLogMessage adds a log message
func (m *Model) AddLogMessage(level, message string) {
	color := dimWhite
	switch level {
	case "ERROR":
		color = alertRed
	case "WARN":
		color = sunOrange
	case "SUCCESS":
		color = leafGreen
	case "INFO":
		color = skyBlue
	}

	m.logMessages = append(m.logMessages, LogMessage{
		Time:    time.Now(),
		Level:   level,
		Message: message,
		Color:   color,
	})

	if len(m.logMessages) > m.maxLogMessages {
		m.logMessages = m.logMessages[len(m.logMessages)-m.maxLogMessages:]
	}
}

// ObservationProgress is the share of the current observation's
// attachments already handled
func (m *Model) ObservationProgress() float64 {
	if m.obsTotal == 0 {
		return 0
	}
	p := float64(m.obsProcessed) / float64(m.obsTotal)
	if p > 1 {
		p = 1
	}
	return p
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
