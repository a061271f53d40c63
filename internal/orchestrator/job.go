package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/fetchtube/fetchtube/internal/catalog"
	"github.com/fetchtube/fetchtube/internal/fetch"
	"github.com/fetchtube/fetchtube/internal/model"
	"github.com/fetchtube/fetchtube/internal/progress"
	"github.com/fetchtube/fetchtube/internal/transcode"
)

// runJob drives one job through resolve, fetch, convert and place. Every
// failure is captured on the job; nothing here aborts the run.
func (o *Orchestrator) runJob(ctx context.Context, job *model.Job, playlistTitle string, log zerolog.Logger) {
	jobLog := log.With().Int("job", job.Index).Str("video_id", job.Item.VideoID).Logger()

	o.setStatus(job, model.JobStatusResolving)
	o.emit(job, progress.PhaseResolving, progress.IndeterminatePercent, "resolving formats", false)

	details, err := o.deps.Catalog.Resolve(ctx, job.Item)
	if err != nil {
		o.finishWithError(job, err, jobLog)
		return
	}
	if job.Item.Title == "" {
		job.Item.Title = details.Title
	}

	desc, err := catalog.Select(details.Formats, job.Request)
	if err != nil {
		o.finishWithError(job, err, jobLog)
		return
	}
	job.Format = &desc
	if desc.Note != "" {
		jobLog.Warn().Str("note", desc.Note).Msg("format fallback")
	}

	needsConversion := desc.NeedsConversion(job.Request.Kind)
	if needsConversion && !o.deps.Transcoder.Available() {
		// Fail before any bytes move; the shared cause is reported once per
		// job without re-probing the binary.
		o.finishWithError(job, o.depErr, jobLog)
		return
	}

	streams, err := o.fetchStreams(ctx, job, desc)
	if err != nil {
		o.finishWithError(job, err, jobLog)
		return
	}

	finalPath := streams.Video
	if needsConversion {
		o.setStatus(job, model.JobStatusConverting)
		o.emit(job, progress.PhaseConverting, 0, "converting", false)

		finalPath, err = o.deps.Transcoder.Finalize(ctx, streams, desc, job.Request.Kind, func(percent float64) {
			o.emit(job, progress.PhaseConverting, percent, "converting", false)
		})
		if err != nil {
			o.finishWithError(job, err, jobLog)
			return
		}
		removeStreams(streams, finalPath)
	}

	placed, err := o.deps.Placer.Place(finalPath, job.Item.Title, playlistTitle)
	if err != nil {
		o.finishWithError(job, wrapFilesystem(finalPath, err), jobLog)
		return
	}

	job.OutputPath = placed
	job.FinishedAt = time.Now()
	o.setStatus(job, model.JobStatusPlaced)
	o.emit(job, progress.PhasePlaced, 100, placed, true)
	jobLog.Info().Str("path", placed).Msg("job placed")
}

// fetchStreams downloads the streams the descriptor calls for, applying the
// bounded retry to transient failures. A retrying job re-enters Pending
// exactly once per allowed attempt.
func (o *Orchestrator) fetchStreams(ctx context.Context, job *model.Job, desc model.FormatDescriptor) (transcode.Streams, error) {
	attempt := func() (transcode.Streams, error) {
		o.setStatus(job, model.JobStatusFetching)

		var streams transcode.Streams
		var err error
		if desc.RequiresMerge {
			streams.Video, err = o.deps.Fetcher.Fetch(ctx, job.Item, desc.ID, "video", o.fetchProgress(job, "video stream"))
			if err != nil {
				return streams, err
			}
			streams.Audio, err = o.deps.Fetcher.Fetch(ctx, job.Item, "bestaudio", "audio", o.fetchProgress(job, "audio stream"))
			return streams, err
		}

		streams.Video, err = o.deps.Fetcher.Fetch(ctx, job.Item, desc.ID, "media", o.fetchProgress(job, "media"))
		return streams, err
	}

	streams, err := attempt()
	for err != nil && model.IsTransientFetch(err) && job.Attempts < o.cfg.Retries && ctx.Err() == nil {
		job.Attempts++
		o.setStatus(job, model.JobStatusPending)
		o.emit(job, progress.PhaseFetching, progress.IndeterminatePercent,
			fmt.Sprintf("retrying after transient failure (attempt %d)", job.Attempts+1), false)

		select {
		case <-time.After(o.cfg.RetryBackoff):
		case <-ctx.Done():
			return streams, ctx.Err()
		}
		streams, err = attempt()
	}
	return streams, err
}

func (o *Orchestrator) fetchProgress(job *model.Job, label string) fetch.ProgressFn {
	return func(downloaded, total int64, percent float64) {
		o.emit(job, progress.PhaseFetching, percent, "downloading "+label, false)
	}
}

// finishWithError routes a failure to Cancelled or Failed.
func (o *Orchestrator) finishWithError(job *model.Job, err error, log zerolog.Logger) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		o.markCancelled(job)
		return
	}
	log.Error().Err(err).Str("kind", string(model.Classify(err))).Msg("job failed")
	o.markFailed(job, err)
}

func (o *Orchestrator) markFailed(job *model.Job, err error) {
	job.Err = err
	job.FinishedAt = time.Now()
	o.setStatus(job, model.JobStatusFailed)
	o.emit(job, progress.PhaseFailed, progress.IndeterminatePercent, err.Error(), true)
}

func (o *Orchestrator) markCancelled(job *model.Job) {
	job.FinishedAt = time.Now()
	o.setStatus(job, model.JobStatusCancelled)
	o.emit(job, progress.PhaseCancelled, progress.IndeterminatePercent, "cancelled", true)
}

func (o *Orchestrator) setStatus(job *model.Job, status model.JobStatus) {
	o.mu.Lock()
	job.Status = status
	o.mu.Unlock()
}

func (o *Orchestrator) emit(job *model.Job, phase progress.Phase, percent float64, message string, terminal bool) {
	o.deps.Sink.Publish(progress.Event{
		JobIndex: job.Index,
		Phase:    phase,
		Percent:  percent,
		Message:  message,
		Terminal: terminal,
	})
}

// removeStreams deletes raw inputs superseded by the converted artifact.
func removeStreams(in transcode.Streams, finalPath string) {
	if in.Video != "" && in.Video != finalPath {
		os.Remove(in.Video)
	}
	if in.Audio != "" && in.Audio != finalPath {
		os.Remove(in.Audio)
	}
}

func wrapFilesystem(path string, err error) error {
	var fsErr *model.FilesystemError
	if errors.As(err, &fsErr) {
		return err
	}
	return &model.FilesystemError{Path: path, Err: err}
}
