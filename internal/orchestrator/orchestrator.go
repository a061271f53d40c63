package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fetchtube/fetchtube/internal/fetch"
	"github.com/fetchtube/fetchtube/internal/model"
	"github.com/fetchtube/fetchtube/internal/platform"
	"github.com/fetchtube/fetchtube/internal/progress"
	"github.com/fetchtube/fetchtube/internal/transcode"
)

// Worker pool and retry defaults. Concurrency stays small to respect remote
// rate limits.
const (
	DefaultWorkers      = 2
	MaxWorkers          = 4
	DefaultRetries      = 1
	DefaultRetryBackoff = 2 * time.Second
)

// Cataloger resolves the available formats for one item.
type Cataloger interface {
	Resolve(ctx context.Context, item model.Item) (model.ItemDetails, error)
}

// Fetcher downloads one stream of an item into staging.
type Fetcher interface {
	Fetch(ctx context.Context, item model.Item, formatSpec, label string, progress fetch.ProgressFn) (string, error)
}

// Transcoder finalizes raw streams via the external media processor.
type Transcoder interface {
	Available() bool
	Finalize(ctx context.Context, in transcode.Streams, desc model.FormatDescriptor, kind model.MediaKind, progress func(percent float64)) (string, error)
}

// Placer moves a finished artifact to its destination.
type Placer interface {
	Place(rawPath, title, playlistTitle string) (string, error)
}

// Expander enumerates playlist locators into ordered items.
type Expander interface {
	Enumerate(ctx context.Context, loc model.Locator) (*platform.PlaylistInfo, error)
}

// Deps are the engine's collaborators. Test doubles slot in through these
// interfaces; none of them is probed more than the contract allows.
type Deps struct {
	Catalog    Cataloger
	Fetcher    Fetcher
	Transcoder Transcoder
	Placer     Placer
	Playlists  Expander
	Sink       *progress.Sink
	Log        zerolog.Logger
}

// Config tunes a run. Zero Workers and RetryBackoff fall back to the
// defaults above; zero Retries disables the retry.
type Config struct {
	Workers      int
	Retries      int
	RetryBackoff time.Duration
}

// Orchestrator is the top-level engine. Each Run invocation owns its job set;
// no state is shared across runs.
type Orchestrator struct {
	deps   Deps
	cfg    Config
	depErr *model.MissingDependencyError

	mu sync.Mutex // single mutation point for job status and event emission
}

// New creates an orchestrator. The missing-dependency cause is created once
// so every job that needs it reports the same failure.
func New(deps Deps, cfg Config) *Orchestrator {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.Workers > MaxWorkers {
		cfg.Workers = MaxWorkers
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = DefaultRetryBackoff
	}
	return &Orchestrator{
		deps:   deps,
		cfg:    cfg,
		depErr: &model.MissingDependencyError{Binary: transcode.FFmpegCommand},
	}
}

// Run drives a locator end to end and returns the terminal report. Only
// validation and playlist enumeration failures return an error with no
// report; everything past expansion is captured per job.
func (o *Orchestrator) Run(ctx context.Context, loc model.Locator, req model.QualityRequest) (*model.JobReport, error) {
	start := time.Now()
	runID := newID("run")
	log := o.deps.Log.With().Str("run_id", runID).Logger()

	jobs, playlistTitle, err := o.expand(ctx, loc, req)
	if err != nil {
		o.deps.Sink.Close()
		return nil, err
	}

	log.Info().
		Str("locator", loc.Raw).
		Str("quality", req.String()).
		Int("jobs", len(jobs)).
		Msg("run started")

	// Every audio job needs the processor; fail the whole set up front with
	// one cause instead of failing N times.
	if req.Kind == model.MediaAudioOnly && !o.deps.Transcoder.Available() {
		for _, job := range jobs {
			o.markFailed(job, o.depErr)
		}
		o.deps.Sink.Close()
		return model.BuildReport(runID, loc, jobs, time.Since(start)), nil
	}

	workers := o.cfg.Workers
	if workers > len(jobs) {
		workers = len(jobs)
	}

	indices := make(chan int, len(jobs))
	for i := range jobs {
		indices <- i
	}
	close(indices)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range indices {
				job := jobs[idx]
				if ctx.Err() != nil {
					o.markCancelled(job)
					continue
				}
				o.runJob(ctx, job, playlistTitle, log)
			}
		}()
	}
	wg.Wait()
	o.deps.Sink.Close()

	report := model.BuildReport(runID, loc, jobs, time.Since(start))
	log.Info().
		Int("placed", report.Placed).
		Int("failed", report.Failed).
		Int("cancelled", report.Cancelled).
		Dur("elapsed", report.Elapsed).
		Msg("run finished")
	return report, nil
}

// expand turns the locator into its ordered job sequence.
func (o *Orchestrator) expand(ctx context.Context, loc model.Locator, req model.QualityRequest) ([]*model.Job, string, error) {
	switch loc.Kind {
	case model.KindSingleItem:
		item := model.Item{VideoID: loc.VideoID, URL: loc.Raw}
		return []*model.Job{newJob(0, item, req)}, "", nil

	case model.KindPlaylist:
		info, err := o.deps.Playlists.Enumerate(ctx, loc)
		if err != nil {
			return nil, "", err
		}
		jobs := make([]*model.Job, 0, len(info.Entries))
		for i, entry := range info.Entries {
			jobs = append(jobs, newJob(i, entry, req))
		}
		return jobs, info.Title, nil
	}
	return nil, "", &model.ValidationError{Input: loc.Raw, Reason: "unknown locator kind"}
}

func newJob(index int, item model.Item, req model.QualityRequest) *model.Job {
	return &model.Job{
		Index:     index,
		ID:        newID("job"),
		Item:      item,
		Request:   req,
		Status:    model.JobStatusPending,
		StartedAt: time.Now(),
	}
}

// newID returns a time-ordered unique ID, falling back to a timestamp if
// UUID generation fails.
func newID(prefix string) string {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
	}
	return prefix + "-" + id.String()
}
