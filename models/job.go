package models

import "time"

type JobStatus string

const (
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// Terminal reports whether the status ends a job's lifecycle. Anything the
// server sends outside the three known values is treated as still in flight.
func (s JobStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed:
		return true
	default:
		return false
	}
}

// Job is one submission to the processing service as tracked on this machine.
// The server owns the status; the client only mirrors what it last polled.
type Job struct {
	RequestID   string     `json:"request_id"`
	FileName    string     `json:"file_name"`
	Status      JobStatus  `json:"status"`
	SubmittedAt time.Time  `json:"submitted_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty"`
}
