package downloader

import (
	"context"
	"time"

	"tapestry-archive/pkg/logger"
	"tapestry-archive/pkg/media"
	"tapestry-archive/pkg/storage"
	"tapestry-archive/pkg/tapestry"
)

// Fetcher downloads attachment bytes
type Fetcher interface {
	Fetch(ctx context.Context, auth tapestry.AuthContext, a tapestry.Attachment) (*tapestry.Payload, error)
}

// Store persists attachment bytes without overwriting
type Store interface {
	Exists(path string) (bool, error)
	Matches(path string, data []byte) (bool, error)
	WriteIfAbsent(path string, data []byte) (storage.WriteOutcome, error)
}

// Result is what happened to one attachment
type Result struct {
	Task     tapestry.DownloadTask
	Path     string
	Outcome  storage.WriteOutcome // zero when Err is set
	Err      error
	Size     int
	Duration time.Duration
	Fetched  bool
}

// Processor takes one attachment through fetch, naming and writing
type Processor struct {
	fetcher Fetcher
	namer   *storage.Namer
	store   Store
	auth    tapestry.AuthContext
	logger  logger.Logger
}

// NewProcessor creates a processor. A nil logger uses the global logger.
func NewProcessor(fetcher Fetcher, namer *storage.Namer, store Store, auth tapestry.AuthContext, log logger.Logger) *Processor {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Processor{
		fetcher: fetcher,
		namer:   namer,
		store:   store,
		auth:    auth,
		logger:  log,
	}
}

// Process handles a single download task. Errors are returned in the
// Result, never panicked or logged as fatal; the caller decides whether an
// error ends the run.
func (p *Processor) Process(ctx context.Context, task tapestry.DownloadTask) Result {
	start := time.Now()
	result := Result{Task: task}
	fields := map[string]interface{}{
		"observation_id": task.ObservationID,
		"url":            task.Attachment.URL,
		"kind":           task.Attachment.Kind.String(),
	}

	// Video names need no bytes, so an existing video is never fetched
	// again. It is taken to be this attachment without comparing contents.
	if task.Attachment.Kind == tapestry.Video {
		path := p.namer.Peek(task, "", "")
		exists, err := p.store.Exists(path)
		if err != nil {
			result.Err = err
			result.Duration = time.Since(start)
			return result
		}
		if exists {
			result.Path = p.namer.Destination(task, "")
			result.Outcome = storage.Skipped
			result.Duration = time.Since(start)
			p.logger.DebugWithFields("Video already stored, not fetching", fields)
			return result
		}
	}

	payload, err := p.fetcher.Fetch(ctx, p.auth, task.Attachment)
	if err != nil {
		result.Err = err
		result.Duration = time.Since(start)
		return result
	}
	result.Fetched = true
	result.Size = len(payload.Data)

	exifTitle := ""
	if task.Attachment.Kind == tapestry.Image {
		exifTitle = media.ExifTitle(payload.Data)
	}

	// A file left by an earlier run only counts as this attachment when it
	// holds the same bytes
	result.Path, err = p.namer.Place(task, exifTitle, payload.ContentType, func(path string) (bool, error) {
		exists, err := p.store.Exists(path)
		if err != nil || !exists {
			return !exists, err
		}
		return p.store.Matches(path, payload.Data)
	})
	if err != nil {
		result.Err = err
		result.Duration = time.Since(start)
		return result
	}

	outcome, err := p.store.WriteIfAbsent(result.Path, payload.Data)
	result.Duration = time.Since(start)
	if err != nil {
		result.Err = err
		return result
	}
	result.Outcome = outcome

	fields["path"] = result.Path
	fields["size"] = result.Size
	fields["exif_title"] = exifTitle
	fields["duration"] = result.Duration
	p.logger.DebugWithFields("Attachment processed", fields)

	return result
}
