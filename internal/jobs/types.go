// Package jobs defines the asynchronous extraction job model used by the
// HTTP API: an upload is accepted immediately and a background worker runs
// the recognize-extract-merge pipeline, so clients poll job status for
// progress instead of holding a request open across the remote call.
package jobs

import (
	"context"
	"time"
)

// JobStatus represents the current status of a job.
type JobStatus string

const (
	// JobStatusPending indicates the job is waiting to be processed.
	JobStatusPending JobStatus = "pending"
	// JobStatusRunning indicates the job is currently being processed.
	JobStatusRunning JobStatus = "running"
	// JobStatusCompleted indicates the job completed successfully.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed indicates the job failed.
	JobStatusFailed JobStatus = "failed"
)

// ExtractStatementJob is a request to run the extraction pipeline over one
// or more uploaded statement files for a session. Extraction failures are
// never retried automatically: credential and rate-limit errors need user
// action, and re-running a parse failure burns quota for the same result.
type ExtractStatementJob struct {
	// JobID is the unique identifier for this job.
	JobID string `json:"job_id"`

	// SessionID identifies the session the batch merges into.
	SessionID string `json:"session_id"`

	// Paths are the local paths of the uploaded files, in upload order.
	Paths []string `json:"paths"`

	// Status is the current status of the job.
	Status JobStatus `json:"status"`

	// CreatedAt is when the job was created.
	CreatedAt time.Time `json:"created_at"`

	// StartedAt is when the job started processing.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// CompletedAt is when the job completed (success or failure).
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Error carries the user-facing message when the job failed.
	Error string `json:"error,omitempty"`

	// FilesTotal and FilesFailed track the per-file outcome of the batch.
	FilesTotal  int `json:"files_total"`
	FilesFailed int `json:"files_failed"`

	// Progress is the overall fraction completed, in [0,1].
	Progress float64 `json:"progress"`
}

// Publisher enqueues extraction jobs.
type Publisher interface {
	// PublishExtractStatement publishes an extraction job.
	PublishExtractStatement(ctx context.Context, job *ExtractStatementJob) error

	// Close closes the publisher and releases resources.
	Close() error
}

// Consumer processes jobs from a queue.
type Consumer interface {
	// Start begins consuming jobs. The handler is called for each job.
	Start(ctx context.Context, handler JobHandler) error

	// Stop stops consuming and waits for in-flight jobs to finish.
	Stop(ctx context.Context) error
}

// JobHandler processes one job.
type JobHandler func(ctx context.Context, job *ExtractStatementJob) error

// JobStore stores and retrieves job status for polling clients.
type JobStore interface {
	// SaveJob saves or updates a job's state.
	SaveJob(ctx context.Context, job *ExtractStatementJob) error

	// GetJob retrieves a job by ID.
	GetJob(ctx context.Context, jobID string) (*ExtractStatementJob, error)

	// ListJobs retrieves jobs with optional filtering.
	ListJobs(ctx context.Context, filter JobFilter) ([]*ExtractStatementJob, error)
}

// JobFilter defines filtering criteria for listing jobs.
type JobFilter struct {
	// SessionID filters jobs by session.
	SessionID string

	// Status filters jobs by status.
	Status JobStatus

	// Limit limits the number of results.
	Limit int

	// Offset for pagination.
	Offset int
}
