package ui

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"tapestry-archive/internal/downloader"
	"tapestry-archive/pkg/archiver"
	errs "tapestry-archive/pkg/errors"
	"tapestry-archive/pkg/tapestry"
)

// ProgressDisplay follows a run on a single, continuously rewritten status
// line. In verbose mode it prints one line per attachment instead.
type ProgressDisplay struct {
	mu          sync.Mutex
	out         io.Writer
	name        string
	stats       *Stats
	current     string
	verbose     bool
	interactive bool
}

// NewProgressDisplay creates a display for the child called name. With
// interactive false the status line is not redrawn, only the summary is
// printed.
func NewProgressDisplay(out io.Writer, name string, verbose, interactive bool) *ProgressDisplay {
	if name == "" {
		name = "journal"
	}
	return &ProgressDisplay{
		out:         out,
		name:        name,
		stats:       NewStats(),
		verbose:     verbose,
		interactive: interactive,
	}
}

// RunStarted implements archiver.Observer
func (p *ProgressDisplay) RunStarted(string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stats = NewStats()
}

// ObservationStarted implements archiver.Observer
func (p *ProgressDisplay) ObservationStarted(obs tapestry.Observation, index int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stats.Observations = index
	p.current = obs.Title
	if p.verbose {
		fmt.Fprintf(p.out, "%s %s %s\n", Magenta("→"), obs.Date.Format("2006-01-02"), obs.Title)
		return
	}
	p.printProgress()
}

// AttachmentDone implements archiver.Observer
func (p *ProgressDisplay) AttachmentDone(r downloader.Result) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stats.Record(r)
	if p.verbose {
		p.printResult(r)
		return
	}
	p.printProgress()
}

// RunFinished implements archiver.Observer
func (p *ProgressDisplay) RunFinished(summary *archiver.Summary, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.interactive && !p.verbose {
		fmt.Fprintln(p.out)
	}
	PrintSummary(p.out, p.name, summary, err)
}

func (p *ProgressDisplay) printResult(r downloader.Result) {
	name := filepath.Base(r.Path)
	switch {
	case r.Err != nil:
		fmt.Fprintf(p.out, "  %s %s • %v\n", Red("✗"), r.Task.Attachment.URL, r.Err)
	case r.Fetched:
		fmt.Fprintf(p.out, "  %s %s • %s\n", Green("✓"), name, FormatBytes(int64(r.Size)))
	default:
		fmt.Fprintf(p.out, "  %s %s\n", Dim("="), Dim(name))
	}
}

// printProgress redraws the status line
func (p *ProgressDisplay) printProgress() {
	if !p.interactive {
		return
	}

	line := fmt.Sprintf("%s • %d observations • %d new • %d kept • %s • %.1f/min",
		Cyan(p.name),
		p.stats.Observations,
		p.stats.Written,
		p.stats.Skipped,
		FormatBytes(p.stats.Bytes),
		p.stats.Rate(),
	)
	if p.stats.Failed > 0 {
		line += " • " + Red(fmt.Sprintf("%d failed", p.stats.Failed))
	}
	if p.current != "" {
		current := p.current
		if len(current) > 40 {
			current = current[:37] + "..."
		}
		line += " • " + Dim(current)
	}

	fmt.Fprintf(p.out, "\r%s\r%s", strings.Repeat(" ", 120), line)
}

// PrintSummary prints the outcome of a run, listing every failed
// attachment
func PrintSummary(out io.Writer, name string, summary *archiver.Summary, err error) {
	if summary == nil {
		summary = &archiver.Summary{}
	}

	switch {
	case err != nil && errs.IsAuthentication(err):
		fmt.Fprintf(out, "\n%s Session rejected: %v\n", Red("✗"), err)
		fmt.Fprintf(out, "  %s refresh the cookie with 'tapestry-archive auth login'\n", Dim("•"))
	case err != nil:
		fmt.Fprintf(out, "\n%s Run aborted: %v\n", Red("✗"), err)
	default:
		fmt.Fprintf(out, "\n%s Archived %d observations for %s\n", Green("✓"), summary.Observations, name)
	}

	fmt.Fprintf(out, "  %s %d written, %d already present, %d failed in %s\n",
		Dim("•"), summary.Written, summary.Skipped, summary.Failed, FormatDuration(summary.Duration))
	if summary.Ignored > 0 {
		fmt.Fprintf(out, "  %s %d attachments skipped by configuration\n", Dim("•"), summary.Ignored)
	}
	if summary.JournalPath != "" {
		fmt.Fprintf(out, "  %s journal: %s\n", Dim("•"), summary.JournalPath)
	}
	for _, f := range summary.Failures {
		fmt.Fprintf(out, "  %s %s: %v\n", Red("✗"), f.URL, f.Err)
	}
}
