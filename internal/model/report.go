package model

import "time"

// JobOutcome is the terminal record of a single job inside a JobReport.
type JobOutcome struct {
	Index       int         `json:"index"`
	Title       string      `json:"title"`
	Status      JobStatus   `json:"status"`
	OutputPath  string      `json:"output_path,omitempty"`
	Error       string      `json:"error,omitempty"`
	FailureKind FailureKind `json:"failure_kind,omitempty"`
	Note        string      `json:"note,omitempty"`
}

// JobReport is the sole terminal output of a run. It aggregates every job's
// outcome and is owned by the caller once returned.
type JobReport struct {
	RunID     string        `json:"run_id"`
	Locator   string        `json:"locator"`
	Total     int           `json:"total"`
	Placed    int           `json:"placed"`
	Failed    int           `json:"failed"`
	Cancelled int           `json:"cancelled"`
	Outcomes  []JobOutcome  `json:"outcomes"`
	Elapsed   time.Duration `json:"elapsed_ns"`
}

// BuildReport folds a run's jobs into their terminal report, preserving
// playlist order.
func BuildReport(runID string, loc Locator, jobs []*Job, elapsed time.Duration) *JobReport {
	report := &JobReport{
		RunID:    runID,
		Locator:  loc.Raw,
		Total:    len(jobs),
		Outcomes: make([]JobOutcome, 0, len(jobs)),
		Elapsed:  elapsed,
	}

	for _, job := range jobs {
		outcome := JobOutcome{
			Index:      job.Index,
			Title:      job.DisplayTitle(),
			Status:     job.Status,
			OutputPath: job.OutputPath,
		}
		if job.Err != nil {
			outcome.Error = job.Err.Error()
		}
		outcome.FailureKind = job.FailureKind()
		if job.Format != nil && job.Format.Note != "" {
			outcome.Note = job.Format.Note
		}

		switch job.Status {
		case JobStatusPlaced:
			report.Placed++
		case JobStatusFailed:
			report.Failed++
		case JobStatusCancelled:
			report.Cancelled++
		}
		report.Outcomes = append(report.Outcomes, outcome)
	}

	return report
}

// AllPlaced reports whether every job in the run succeeded.
func (r *JobReport) AllPlaced() bool {
	return r.Placed == r.Total
}
