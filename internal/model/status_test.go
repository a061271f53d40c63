package model

import "testing"

func TestJobStatusIsActive(t *testing.T) {
	active := []JobStatus{JobStatusResolving, JobStatusFetching, JobStatusConverting}
	for _, status := range active {
		if !status.IsActive() {
			t.Errorf("Expected %s to be active", status)
		}
	}

	inactive := []JobStatus{JobStatusPending, JobStatusPlaced, JobStatusFailed, JobStatusCancelled}
	for _, status := range inactive {
		if status.IsActive() {
			t.Errorf("Expected %s to not be active", status)
		}
	}
}

func TestJobStatusIsTerminal(t *testing.T) {
	terminal := []JobStatus{JobStatusPlaced, JobStatusFailed, JobStatusCancelled}
	for _, status := range terminal {
		if !status.IsTerminal() {
			t.Errorf("Expected %s to be terminal", status)
		}
	}

	nonTerminal := []JobStatus{JobStatusPending, JobStatusResolving, JobStatusFetching, JobStatusConverting}
	for _, status := range nonTerminal {
		if status.IsTerminal() {
			t.Errorf("Expected %s to not be terminal", status)
		}
	}
}

func TestJobStatusString(t *testing.T) {
	if JobStatusPlaced.String() != "Placed" {
		t.Errorf("Expected 'Placed', got '%s'", JobStatusPlaced.String())
	}
}
