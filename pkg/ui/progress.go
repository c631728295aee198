package ui

import (
	"fmt"
	"time"

	"tapestry-archive/internal/downloader"
	"tapestry-archive/pkg/storage"
)

// Stats counts what a run has done so far
type Stats struct {
	Observations int
	Written      int
	Skipped      int
	Failed       int
	Bytes        int64
	StartTime    time.Time
}

// NewStats starts counting now
func NewStats() *Stats {
	return &Stats{StartTime: time.Now()}
}

// Record counts one attachment result
func (s *Stats) Record(r downloader.Result) {
	switch {
	case r.Err != nil:
		s.Failed++
	case r.Outcome == storage.Written:
		s.Written++
		s.Bytes += int64(r.Size)
	case r.Outcome == storage.Skipped:
		s.Skipped++
	}
}

// Processed is the number of attachments handled so far
func (s *Stats) Processed() int {
	return s.Written + s.Skipped + s.Failed
}

// Elapsed returns the time since counting started
func (s *Stats) Elapsed() time.Duration {
	return time.Since(s.StartTime)
}

// Rate returns attachments handled per minute
func (s *Stats) Rate() float64 {
	elapsed := s.Elapsed().Minutes()
	if elapsed == 0 {
		return 0
	}
	return float64(s.Processed()) / elapsed
}

// FormatDuration formats a duration in a human-readable way
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	}
}

// FormatBytes formats bytes in a human-readable way
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
