// Package jobs defines the request, Kafka payload and result types of the
// asynchronous extraction pipeline, plus request validation.
package jobs

import (
	"time"

	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/internal/keywords"
)

// Status is the lifecycle state of a job row.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

// ExtractionRequest is the JSON body of POST /api/v1/jobs. A missing TopN
// means the configured default.
type ExtractionRequest struct {
	DocumentID string `json:"document_id"`
	Content    string `json:"content"`
	TopN       *int   `json:"top_n,omitempty"`
}

// EnqueueResponse is returned once a job is accepted.
type EnqueueResponse struct {
	JobID      string `json:"job_id"`
	DocumentID string `json:"document_id"`
	Status     Status `json:"status"`
}

// ExtractionJob is the Kafka payload consumed by the worker.
type ExtractionJob struct {
	JobID      string    `json:"job_id"`
	DocumentID string    `json:"document_id"`
	Content    string    `json:"content"`
	TopN       int       `json:"top_n"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// JobResult is both the stored outcome of a job and the payload published
// on the results topic.
type JobResult struct {
	JobID       string             `json:"job_id"`
	DocumentID  string             `json:"document_id"`
	Status      Status             `json:"status"`
	TopN        int                `json:"top_n"`
	Keywords    []keywords.Keyword `json:"keywords"`
	Error       string             `json:"error,omitempty"`
	EnqueuedAt  time.Time          `json:"enqueued_at"`
	CompletedAt *time.Time         `json:"completed_at,omitempty"`
}
