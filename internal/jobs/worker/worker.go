// Package worker turns extraction jobs consumed from Kafka into stored
// results, result events and analytics.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/internal/jobs"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/internal/keywords"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/pkg/metrics"
)

// Extractor runs the keyword pipeline.
type Extractor interface {
	Detail(ctx context.Context, content string, topN int) (keywords.Result, error)
}

// ResultStore records job outcomes.
type ResultStore interface {
	SaveResult(ctx context.Context, result jobs.JobResult) error
	MarkFailed(ctx context.Context, jobID, reason string) error
}

// ResultSink receives finished jobs for the results topic.
type ResultSink interface {
	Track(key string, value any)
}

type options struct {
	events  analytics.Tracker
	metrics *metrics.Metrics
	now     func() time.Time
}

type Option func(*options)

// WithEvents reports each job to an analytics tracker.
func WithEvents(t analytics.Tracker) Option {
	return func(o *options) { o.events = t }
}

// WithMetrics counts processed jobs by status.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// HandleMessage returns the consumer callback for the jobs topic.
// Undecodable payloads are logged and acknowledged. A failed extraction
// marks the job FAILED; a store error is returned so the message is not
// committed.
func HandleMessage(analyzer Extractor, store ResultStore, results ResultSink, opts ...Option) kafka.MessageHandler {
	o := options{now: func() time.Time { return time.Now().UTC() }}
	for _, opt := range opts {
		opt(&o)
	}
	logger := slog.Default().With("component", "extraction-worker")

	return func(ctx context.Context, key []byte, value []byte) error {
		job, err := kafka.DecodeJSON[jobs.ExtractionJob](value)
		if err != nil {
			logger.Error("failed to decode extraction job", "key", string(key), "error", err)
			o.count("undecodable")
			return nil
		}
		logger.Debug("processing extraction job", "job_id", job.JobID, "document_id", job.DocumentID)

		start := time.Now()
		res, err := analyzer.Detail(ctx, job.Content, job.TopN)
		elapsed := time.Since(start)
		if err != nil {
			logger.Error("extraction failed", "job_id", job.JobID, "error", err)
			if markErr := store.MarkFailed(ctx, job.JobID, err.Error()); markErr != nil {
				return markErr
			}
			o.count(string(jobs.StatusFailed))
			if o.events != nil {
				o.events.Track(analytics.ExtractionEvent{
					Type:      analytics.EventJobFailed,
					Source:    analytics.SourceJob,
					JobID:     job.JobID,
					Timestamp: o.now(),
				})
			}
			results.Track(resultKey(job), jobs.JobResult{
				JobID:      job.JobID,
				DocumentID: job.DocumentID,
				Status:     jobs.StatusFailed,
				TopN:       job.TopN,
				Keywords:   []keywords.Keyword{},
				Error:      err.Error(),
				EnqueuedAt: job.EnqueuedAt,
			})
			return nil
		}

		completed := o.now()
		result := jobs.JobResult{
			JobID:       job.JobID,
			DocumentID:  job.DocumentID,
			Status:      jobs.StatusCompleted,
			TopN:        job.TopN,
			Keywords:    res.Keywords,
			EnqueuedAt:  job.EnqueuedAt,
			CompletedAt: &completed,
		}
		if err := store.SaveResult(ctx, result); err != nil {
			return fmt.Errorf("saving job %s: %w", job.JobID, err)
		}
		results.Track(resultKey(job), result)
		o.count(string(jobs.StatusCompleted))
		if o.metrics != nil {
			o.metrics.ObserveExtraction("none", elapsed.Seconds(), len(res.Keywords), nil)
		}
		if o.events != nil {
			o.events.Track(analytics.ExtractionEvent{
				Type:            analytics.EventExtraction,
				Source:          analytics.SourceJob,
				ContentLength:   len(job.Content),
				TopN:            job.TopN,
				Returned:        len(res.Keywords),
				Tokens:          res.Tokens,
				Candidates:      res.Candidates,
				OutOfVocabulary: res.OutOfVocabulary,
				Keywords:        terms(res.Keywords),
				LatencyUs:       elapsed.Microseconds(),
				JobID:           job.JobID,
				Timestamp:       completed,
			})
		}
		logger.Info("extraction job completed",
			"job_id", job.JobID,
			"document_id", job.DocumentID,
			"keywords", len(res.Keywords),
			"latency", elapsed,
		)
		return nil
	}
}

func (o options) count(status string) {
	if o.metrics != nil {
		o.metrics.JobsProcessedTotal.WithLabelValues(status).Inc()
	}
}

func resultKey(job jobs.ExtractionJob) string {
	if job.DocumentID != "" {
		return job.DocumentID
	}
	return job.JobID
}

func terms(kws []keywords.Keyword) []string {
	out := make([]string, len(kws))
	for i, kw := range kws {
		out[i] = kw.Term
	}
	return out
}
