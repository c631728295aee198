package journal

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"tapestry-archive/pkg/storage"
	"tapestry-archive/pkg/tapestry"
)

// FileName is the journal written next to the downloaded media
const FileName = "observations-info.md"

// dateLayout renders e.g. "1 May 2023 10:15AM"
const dateLayout = "2 January 2006 03:04PM"

// Entry is one observation as it appears in the journal
type Entry struct {
	ID     string
	Title  string
	Author string
	Notes  string
	Date   time.Time
	Files  []string // base names of the files stored for the observation
}

// Journal collects the observations seen in a run and renders them as a
// markdown document
type Journal struct {
	name    string
	entries []Entry
}

// New creates an empty journal for the child called name
func New(name string) *Journal {
	return &Journal{name: strings.TrimSpace(name)}
}

// Add records an observation together with the paths stored for it
func (j *Journal) Add(obs tapestry.Observation, paths []string) {
	files := make([]string, 0, len(paths))
	for _, p := range paths {
		files = append(files, filepath.Base(p))
	}
	j.entries = append(j.entries, Entry{
		ID:     obs.ID,
		Title:  obs.Title,
		Author: obs.Author,
		Notes:  obs.Notes,
		Date:   obs.Date,
		Files:  files,
	})
}

// Len returns the number of entries
func (j *Journal) Len() int {
	return len(j.entries)
}

// Entries returns the recorded entries in listing order
func (j *Journal) Entries() []Entry {
	out := make([]Entry, len(j.entries))
	copy(out, j.entries)
	return out
}

// Render produces the markdown document
func (j *Journal) Render() []byte {
	var buf bytes.Buffer

	if j.name != "" {
		fmt.Fprintf(&buf, "# Tapestry observations for %s\n\n", j.name)
	} else {
		buf.WriteString("# Tapestry observations\n\n")
	}

	for _, e := range j.entries {
		title := e.Title
		if title == "" {
			title = "Untitled"
		}
		fmt.Fprintf(&buf, "## %s\n\n", title)

		when := e.Date.Format(dateLayout)
		if e.Author != "" {
			fmt.Fprintf(&buf, "### %s, %s\n\n", e.Author, when)
		} else {
			fmt.Fprintf(&buf, "### %s\n\n", when)
		}

		if notes := strings.Join(strings.Fields(e.Notes), " "); notes != "" {
			fmt.Fprintf(&buf, "%s\n\n", notes)
		}

		if len(e.Files) > 0 {
			for _, f := range e.Files {
				fmt.Fprintf(&buf, "- [%s](<%s>)\n", f, f)
			}
			buf.WriteString("\n")
		}
	}

	return buf.Bytes()
}

// Save atomically writes the journal into dir, replacing any journal from
// an earlier run, and returns its path
func (j *Journal) Save(w *storage.Writer, dir string) (string, error) {
	path := filepath.Join(dir, FileName)
	if err := w.Replace(path, j.Render()); err != nil {
		return "", fmt.Errorf("failed to write journal: %w", err)
	}
	return path, nil
}
