package archiver

import (
	"fmt"
	"time"
)

// Failure records one attachment that could not be stored
type Failure struct {
	ObservationID string
	URL           string
	Err           error
}

// Summary is the outcome of a run
type Summary struct {
	RunID        string
	State        State
	Observations int
	Attachments  int // attachments processed, excluding ignored kinds
	Written      int
	Skipped      int
	Failed       int
	Ignored      int // attachments of a kind excluded by configuration
	Failures     []Failure
	JournalPath  string
	Duration     time.Duration
}

func (s *Summary) String() string {
	return fmt.Sprintf("%d observations: %d written, %d skipped, %d failed",
		s.Observations, s.Written, s.Skipped, s.Failed)
}

func (s *Summary) fields() map[string]interface{} {
	return map[string]interface{}{
		"run_id":       s.RunID,
		"state":        s.State.String(),
		"observations": s.Observations,
		"written":      s.Written,
		"skipped":      s.Skipped,
		"failed":       s.Failed,
		"ignored":      s.Ignored,
		"duration":     s.Duration,
	}
}
