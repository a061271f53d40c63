package model

import (
	"strings"
	"time"
)

// Item identifies one remote media item inside a run.
type Item struct {
	VideoID string
	URL     string
	Title   string // may be empty until resolution fills it in
}

// Job is one item's end-to-end fetch/convert/place unit of work. Jobs are
// owned exclusively by the orchestrator; status transitions are monotonic
// except a single Failed->Pending re-entry for retryable fetch failures.
type Job struct {
	Index      int
	ID         string
	Item       Item
	Request    QualityRequest
	Status     JobStatus
	Format     *FormatDescriptor
	OutputPath string
	Err        error
	Attempts   int
	StartedAt  time.Time
	FinishedAt time.Time
}

// DisplayTitle returns the resolved title, the output filename, or the URL,
// in order of preference.
func (j *Job) DisplayTitle() string {
	if j.Item.Title != "" && !strings.HasPrefix(j.Item.Title, "http") {
		return j.Item.Title
	}

	if j.OutputPath != "" {
		parts := strings.FieldsFunc(j.OutputPath, func(r rune) bool {
			return r == '/' || r == '\\'
		})
		if len(parts) > 0 {
			name := parts[len(parts)-1]
			if idx := strings.LastIndex(name, "."); idx > 0 {
				name = name[:idx]
			}
			return name
		}
	}

	return j.Item.URL
}

// FailureKind classifies the job's error, if any.
func (j *Job) FailureKind() FailureKind {
	if j.Status == JobStatusCancelled {
		return FailureCancelled
	}
	return Classify(j.Err)
}
