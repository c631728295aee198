package archiver

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"tapestry-archive/internal/downloader"
	"tapestry-archive/pkg/config"
	errs "tapestry-archive/pkg/errors"
	"tapestry-archive/pkg/journal"
	"tapestry-archive/pkg/logger"
	"tapestry-archive/pkg/ratelimit"
	"tapestry-archive/pkg/storage"
	"tapestry-archive/pkg/tapestry"
)

// Options controls what a run stores and where
type Options struct {
	OutputDir    string
	ChildName    string
	WriteJournal bool
	SkipImages   bool
	SkipVideos   bool
}

// Archiver runs the pipeline: list observations, then fetch, name and
// write each attachment in turn
type Archiver struct {
	client   Client
	auth     tapestry.AuthContext
	opts     Options
	writer   *storage.Writer
	observer Observer
	logger   logger.Logger
	runID    string
	state    atomic.Int32
}

// New creates an archiver. A nil logger uses the global logger.
func New(client Client, auth tapestry.AuthContext, opts Options, log logger.Logger) *Archiver {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Archiver{
		client:   client,
		auth:     auth,
		opts:     opts,
		writer:   storage.NewWriter(),
		observer: NopObserver{},
		logger:   log,
		runID:    uuid.NewString(),
	}
}

// NewFromConfig wires the site client, request pacing and credentials
// from cfg
func NewFromConfig(cfg *config.Config, log logger.Logger) (*Archiver, error) {
	auth, err := tapestry.NewAuthContext(cfg.Tapestry.CookieValue, cfg.Tapestry.School)
	if err != nil {
		return nil, errs.Authentication(err.Error(), 0)
	}

	limiter := ratelimit.NewTokenBucket(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.BurstSize)
	client := tapestry.NewClient(cfg.Tapestry.BaseURL, cfg.Download.DownloadTimeout, limiter, log)
	if cfg.Tapestry.UserAgent != "" {
		client.SetHeader("User-Agent", cfg.Tapestry.UserAgent)
	}

	return New(client, auth, Options{
		OutputDir:    cfg.Output.BaseDirectory,
		ChildName:    cfg.Tapestry.Name,
		WriteJournal: cfg.Output.WriteJournal,
		SkipImages:   cfg.Download.SkipImages,
		SkipVideos:   cfg.Download.SkipVideos,
	}, log), nil
}

// SetObserver registers o to follow the run
func (a *Archiver) SetObserver(o Observer) {
	if o == nil {
		o = NopObserver{}
	}
	a.observer = o
}

// RunID identifies this archiver's run in logs
func (a *Archiver) RunID() string {
	return a.runID
}

// State returns the current pipeline state. Safe to call from any
// goroutine.
func (a *Archiver) State() State {
	return State(a.state.Load())
}

func (a *Archiver) setState(s State) {
	if prev := State(a.state.Swap(int32(s))); prev != s {
		a.logger.DebugWithFields("pipeline state", map[string]interface{}{
			"run_id": a.runID,
			"from":   prev.String(),
			"to":     s.String(),
		})
	}
}

// Run archives every observation. An authentication failure anywhere, a
// listing failure or cancellation of ctx aborts the run and is returned
// along with the summary collected so far. Failures of single attachments
// are recorded in the summary and the run carries on.
func (a *Archiver) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	summary := &Summary{RunID: a.runID}
	log := a.logger.WithField("run_id", a.runID)

	a.setState(StateStart)
	a.observer.RunStarted(a.runID)
	logger.LogComponentStart(log, "archiver", map[string]interface{}{
		"school":     a.auth.SchoolSlug(),
		"output_dir": a.opts.OutputDir,
	})

	a.setState(StateAuthenticating)
	if !a.auth.Valid() {
		return a.finish(log, summary, start, errs.Authentication("session cookie and school are required", 0))
	}

	namer := storage.NewNamer(a.opts.OutputDir)
	processor := downloader.NewProcessor(a.client, namer, a.writer, a.auth, log)

	var j *journal.Journal
	if a.opts.WriteJournal {
		j = journal.New(a.opts.ChildName)
	}

	a.setState(StateListing)
	for obs, err := range a.client.Observations(ctx, a.auth) {
		if err != nil {
			log.WithError(err).Error("Listing observations failed")
			return a.finish(log, summary, start, fmt.Errorf("listing observations: %w", err))
		}

		summary.Observations++
		a.setState(StateResolving)
		a.observer.ObservationStarted(obs, summary.Observations)

		var stored []string
		for _, task := range obs.Tasks() {
			if a.ignored(task.Attachment.Kind) {
				summary.Ignored++
				continue
			}

			a.setState(StateFetching)
			result := processor.Process(ctx, task)
			summary.Attachments++
			a.observer.AttachmentDone(result)

			if result.Err != nil {
				if errs.IsFatal(result.Err) {
					log.WithError(result.Err).Error("Session rejected while fetching, aborting")
					return a.finish(log, summary, start, result.Err)
				}
				if ctx.Err() != nil {
					return a.finish(log, summary, start, ctx.Err())
				}
				summary.Failed++
				summary.Failures = append(summary.Failures, Failure{
					ObservationID: task.ObservationID,
					URL:           task.Attachment.URL,
					Err:           result.Err,
				})
				logger.LogDownload(log, task.ObservationID, task.Attachment.URL, result.Path, "failed", result.Err)
				continue
			}

			switch result.Outcome {
			case storage.Written:
				summary.Written++
			case storage.Skipped:
				summary.Skipped++
			}
			stored = append(stored, result.Path)
			logger.LogDownload(log, task.ObservationID, task.Attachment.URL, result.Path, result.Outcome.String(), nil)
		}

		if j != nil {
			j.Add(obs, stored)
		}
		a.setState(StateListing)
	}

	// A run that saw nothing leaves an earlier journal in place
	if j != nil && j.Len() > 0 {
		path, err := j.Save(a.writer, a.opts.OutputDir)
		if err != nil {
			log.WithError(err).Warn("Could not write the observations journal")
		} else {
			summary.JournalPath = path
		}
	}

	return a.finish(log, summary, start, nil)
}

func (a *Archiver) ignored(kind tapestry.Kind) bool {
	return (kind == tapestry.Image && a.opts.SkipImages) || (kind == tapestry.Video && a.opts.SkipVideos)
}

func (a *Archiver) finish(log logger.Logger, summary *Summary, start time.Time, err error) (*Summary, error) {
	summary.Duration = time.Since(start)
	if err != nil {
		a.setState(StateAborted)
	} else {
		a.setState(StateDone)
	}
	summary.State = a.State()

	if err != nil {
		log.WithError(err).WarnWithFields("Archive run aborted", summary.fields())
	} else {
		log.InfoWithFields("Archive run finished", summary.fields())
	}

	a.observer.RunFinished(summary, err)
	return summary, err
}
