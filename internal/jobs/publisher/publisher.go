// Package publisher accepts extraction requests, records them as pending
// jobs and hands them to the worker over Kafka.
package publisher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/internal/jobs"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/pkg/kafka"
)

// JobRecorder persists job state transitions made at enqueue time.
type JobRecorder interface {
	CreatePending(ctx context.Context, job jobs.ExtractionJob) error
	MarkFailed(ctx context.Context, jobID, reason string) error
}

type Publisher struct {
	recorder JobRecorder
	producer kafka.Publisher
	cfg      config.AnalyzerConfig
	newID    func() string
	now      func() time.Time
	logger   *slog.Logger
}

func New(recorder JobRecorder, producer kafka.Publisher, cfg config.AnalyzerConfig) *Publisher {
	return &Publisher{
		recorder: recorder,
		producer: producer,
		cfg:      cfg,
		newID:    uuid.NewString,
		now:      func() time.Time { return time.Now().UTC() },
		logger:   slog.Default().With("component", "job-publisher"),
	}
}

// Enqueue validates req, stores a PENDING job and publishes it keyed by
// document id so jobs for one document stay ordered. If publishing fails
// the job is marked FAILED and the error returned.
func (p *Publisher) Enqueue(ctx context.Context, req *jobs.ExtractionRequest) (*jobs.EnqueueResponse, error) {
	if err := jobs.Validate(req, p.cfg); err != nil {
		return nil, err
	}
	topN := p.cfg.DefaultTopN
	if req.TopN != nil {
		topN = *req.TopN
	}
	job := jobs.ExtractionJob{
		JobID:      p.newID(),
		DocumentID: req.DocumentID,
		Content:    req.Content,
		TopN:       topN,
		EnqueuedAt: p.now(),
	}
	if err := p.recorder.CreatePending(ctx, job); err != nil {
		return nil, fmt.Errorf("recording job: %w", err)
	}

	key := job.DocumentID
	if key == "" {
		key = job.JobID
	}
	if err := p.producer.Publish(ctx, kafka.Event{Key: key, Value: job}); err != nil {
		p.logger.Error("failed to publish job", "job_id", job.JobID, "error", err)
		if markErr := p.recorder.MarkFailed(context.WithoutCancel(ctx), job.JobID, "enqueue failed"); markErr != nil {
			p.logger.Error("job left pending", "job_id", job.JobID, "error", markErr)
		}
		return nil, fmt.Errorf("publishing job %s: %w", job.JobID, err)
	}

	p.logger.Info("job enqueued", "job_id", job.JobID, "document_id", job.DocumentID, "top_n", topN)
	return &jobs.EnqueueResponse{
		JobID:      job.JobID,
		DocumentID: job.DocumentID,
		Status:     jobs.StatusPending,
	}, nil
}
