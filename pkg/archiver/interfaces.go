package archiver

import (
	"context"
	"iter"

	"tapestry-archive/internal/downloader"
	"tapestry-archive/pkg/tapestry"
)

// Client is the part of the journal site client the pipeline needs
type Client interface {
	Observations(ctx context.Context, auth tapestry.AuthContext) iter.Seq2[tapestry.Observation, error]
	downloader.Fetcher
}

// Observer follows a run. All methods are called from the goroutine
// running Archiver.Run, in order.
type Observer interface {
	RunStarted(runID string)
	ObservationStarted(obs tapestry.Observation, index int)
	AttachmentDone(result downloader.Result)
	RunFinished(summary *Summary, err error)
}

// NopObserver ignores every event
type NopObserver struct{}

func (NopObserver) RunStarted(string) {}
func (NopObserver) ObservationStarted(tapestry.Observation, int) {}
func (NopObserver) AttachmentDone(downloader.Result) {}
func (NopObserver) RunFinished(*Summary, error) {}
