package model

// JobStatus represents the status of a single fetch job within a run
type JobStatus string

const (
	// JobStatusPending means the job is queued but not started
	JobStatusPending JobStatus = "Pending"

	// JobStatusResolving means available formats are being enumerated
	JobStatusResolving JobStatus = "Resolving"

	// JobStatusFetching means the stream download is in progress
	JobStatusFetching JobStatus = "Fetching"

	// JobStatusConverting means the external processor is merging or transcoding
	JobStatusConverting JobStatus = "Converting"

	// JobStatusPlaced means the final artifact was written to its destination
	JobStatusPlaced JobStatus = "Placed"

	// JobStatusFailed means the job failed with an error
	JobStatusFailed JobStatus = "Failed"

	// JobStatusCancelled means the job was aborted or never started because the
	// run was cancelled
	JobStatusCancelled JobStatus = "Cancelled"
)

// String returns the string representation of JobStatus
func (js JobStatus) String() string {
	return string(js)
}

// IsActive returns true if the job is in an in-flight state
func (js JobStatus) IsActive() bool {
	return js == JobStatusResolving || js == JobStatusFetching || js == JobStatusConverting
}

// IsTerminal returns true if the job reached a terminal state
func (js JobStatus) IsTerminal() bool {
	return js == JobStatusPlaced || js == JobStatusFailed || js == JobStatusCancelled
}
