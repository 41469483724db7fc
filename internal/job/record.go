// Package job tracks training-plan generation jobs from submission to a
// terminal state.
package job

import "time"

// Status represents the state of a plan generation job.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"

	// StatusNotFound is synthesized for keys with no record. It is never
	// stored.
	StatusNotFound Status = "not_found"
)

// Terminal reports whether no further transition is permitted.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Record is the state of one submitted job.
type Record struct {
	ID          string // short random ID for log correlation
	Key         Key
	AthleteName string // display name as submitted
	Goals       string

	Status  Status
	Message string

	// ArtifactPath points at the generated spreadsheet. Set exactly when
	// Status is StatusCompleted.
	ArtifactPath string

	CreatedAt time.Time
	UpdatedAt time.Time
}
