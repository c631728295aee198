package ui

import (
	"fmt"

	"tapestry-archive/internal/downloader"
	"tapestry-archive/pkg/archiver"
	"tapestry-archive/pkg/tapestry"
)

// Tee fans every event out to each observer in order
func Tee(observers ...archiver.Observer) archiver.Observer {
	return tee(observers)
}

type tee []archiver.Observer

func (t tee) RunStarted(runID string) {
	for _, o := range t {
		o.RunStarted(runID)
	}
}

func (t tee) ObservationStarted(obs tapestry.Observation, index int) {
	for _, o := range t {
		o.ObservationStarted(obs, index)
	}
}

func (t tee) AttachmentDone(r downloader.Result) {
	for _, o := range t {
		o.AttachmentDone(r)
	}
}

func (t tee) RunFinished(s *archiver.Summary, err error) {
	for _, o := range t {
		o.RunFinished(s, err)
	}
}

// NotifyOnFinish raises a notification when a run ends
type NotifyOnFinish struct {
	archiver.NopObserver
	Notifier *Notifier
}

// RunFinished implements archiver.Observer
func (n NotifyOnFinish) RunFinished(s *archiver.Summary, err error) {
	if err != nil {
		n.Notifier.SendError("Tapestry archive aborted", err.Error())
		return
	}
	n.Notifier.SendSuccess("Tapestry archive complete",
		fmt.Sprintf("%d new files, %d failed", s.Written, s.Failed))
}
