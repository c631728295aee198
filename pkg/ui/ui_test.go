package ui

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"tapestry-archive/internal/downloader"
	"tapestry-archive/pkg/archiver"
	errs "tapestry-archive/pkg/errors"
	"tapestry-archive/pkg/storage"
	"tapestry-archive/pkg/tapestry"
)

func written(path string, size int) downloader.Result {
	return downloader.Result{Path: path, Outcome: storage.Written, Size: size, Fetched: true}
}

func TestStatsRecord(t *testing.T) {
	s := NewStats()
	s.Record(written("/out/a.jpg", 2048))
	s.Record(downloader.Result{Path: "/out/b.mp4", Outcome: storage.Skipped})
	s.Record(downloader.Result{Err: errors.New("boom")})

	assert.Equal(t, 1, s.Written)
	assert.Equal(t, 1, s.Skipped)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, int64(2048), s.Bytes)
	assert.Equal(t, 3, s.Processed())
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		bytes    int64
		expected string
	}{
		{500, "500 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{1024 * 1024, "1.0 MB"},
		{5 * 1024 * 1024 * 1024, "5.0 GB"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, FormatBytes(tt.bytes))
	}
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "42s", FormatDuration(42*time.Second))
	assert.Equal(t, "2m5s", FormatDuration(125*time.Second))
	assert.Equal(t, "1h30m", FormatDuration(90*time.Minute))
}

func TestProgressDisplayVerbose(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgressDisplay(&buf, "Ada", true, true)

	p.RunStarted("run")
	p.ObservationStarted(tapestry.Observation{Title: "Nap Time", Date: time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)}, 1)
	p.AttachmentDone(written("/out/2023-05-01 Nap Time.jpg", 10))
	p.AttachmentDone(downloader.Result{Path: "/out/2023-05-01 Nap Time.mp4", Outcome: storage.Skipped})
	p.RunFinished(&archiver.Summary{Observations: 1, Written: 1, Skipped: 1}, nil)

	out := buf.String()
	assert.Contains(t, out, "2023-05-01 Nap Time")
	assert.Contains(t, out, "2023-05-01 Nap Time.jpg")
	assert.Contains(t, out, "Archived 1 observations for Ada")
	assert.Contains(t, out, "1 written, 1 already present, 0 failed")
}

func TestProgressDisplayNonInteractiveOnlyPrintsSummary(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgressDisplay(&buf, "", false, false)

	p.RunStarted("run")
	p.ObservationStarted(tapestry.Observation{Title: "x"}, 1)
	p.AttachmentDone(written("/out/x.jpg", 1))
	assert.Empty(t, buf.String())

	p.RunFinished(&archiver.Summary{Observations: 1, Written: 1}, nil)
	assert.Contains(t, buf.String(), "for journal")
}

func TestPrintSummary(t *testing.T) {
	failure := archiver.Failure{URL: "https://x/m/1.jpg", Err: errs.NotFound("gone", 404)}

	tests := []struct {
		name    string
		summary *archiver.Summary
		err     error
		want    []string
	}{
		{
			name:    "completed with failures",
			summary: &archiver.Summary{Observations: 3, Written: 2, Failed: 1, Failures: []archiver.Failure{failure}, JournalPath: "images/observations-info.md"},
			want:    []string{"Archived 3 observations", "https://x/m/1.jpg", "journal: images/observations-info.md"},
		},
		{
			name:    "authentication",
			summary: &archiver.Summary{},
			err:     errs.Authentication("logged out", 401),
			want:    []string{"Session rejected", "auth login"},
		},
		{
			name: "other abort",
			err:  errors.New("listing observations: boom"),
			want: []string{"Run aborted", "boom"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			PrintSummary(&buf, "Ada", tt.summary, tt.err)
			for _, w := range tt.want {
				assert.Contains(t, buf.String(), w)
			}
		})
	}
}

type countingObserver struct {
	archiver.NopObserver
	finished int
}

func (c *countingObserver) RunFinished(*archiver.Summary, error) { c.finished++ }

func TestTeeFansOut(t *testing.T) {
	a, b := &countingObserver{}, &countingObserver{}
	Tee(a, b).RunFinished(&archiver.Summary{}, nil)
	assert.Equal(t, 1, a.finished)
	assert.Equal(t, 1, b.finished)
}

func TestNotifier(t *testing.T) {
	var buf bytes.Buffer
	NotifyOnFinish{Notifier: NewNotifier(NotifyTerminal, &buf)}.RunFinished(&archiver.Summary{Written: 4}, nil)
	assert.Contains(t, buf.String(), "4 new files")

	buf.Reset()
	NotifyOnFinish{Notifier: NewNotifier(NotifyTerminal, &buf)}.RunFinished(&archiver.Summary{}, errors.New("cookie expired"))
	assert.Contains(t, buf.String(), "cookie expired")

	buf.Reset()
	NewNotifier(NotifyNone, &buf).SendSuccess("done", "all good")
	assert.Empty(t, buf.String())
}
