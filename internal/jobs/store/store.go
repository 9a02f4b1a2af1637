// Package store persists extraction jobs and their results in PostgreSQL.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/internal/jobs"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/internal/keywords"
	apperrors "github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/pkg/postgres"
)

// Schema creates the job table.
const Schema = `CREATE TABLE IF NOT EXISTS keyword_jobs (
    id             UUID PRIMARY KEY,
    document_id    TEXT NOT NULL DEFAULT '',
    top_n          INTEGER NOT NULL,
    content_length INTEGER NOT NULL,
    status         TEXT NOT NULL,
    keywords       JSONB,
    error          TEXT,
    enqueued_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    completed_at   TIMESTAMPTZ
)`

// IndexSchema speeds up lookups by document.
const IndexSchema = `CREATE INDEX IF NOT EXISTS keyword_jobs_document_id_idx ON keyword_jobs (document_id)`

type Store struct {
	db     *postgres.Client
	logger *slog.Logger
}

func New(db *postgres.Client) *Store {
	return &Store{
		db:     db,
		logger: slog.Default().With("component", "job-store"),
	}
}

// CreatePending records a newly enqueued job.
func (s *Store) CreatePending(ctx context.Context, job jobs.ExtractionJob) error {
	return s.db.InTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO keyword_jobs (id, document_id, top_n, content_length, status, enqueued_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO NOTHING`,
			job.JobID, job.DocumentID, job.TopN, len(job.Content), jobs.StatusPending, job.EnqueuedAt,
		)
		if err != nil {
			return fmt.Errorf("inserting job %s: %w", job.JobID, err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return apperrors.Newf(apperrors.ErrJobExists, 409, "job %s already exists", job.JobID)
		}
		return nil
	})
}

// SaveResult marks a job completed with its keywords.
func (s *Store) SaveResult(ctx context.Context, result jobs.JobResult) error {
	data, err := json.Marshal(result.Keywords)
	if err != nil {
		return fmt.Errorf("marshaling keywords: %w", err)
	}
	completed := time.Now().UTC()
	if result.CompletedAt != nil {
		completed = *result.CompletedAt
	}
	_, err = s.db.DB.ExecContext(ctx,
		`UPDATE keyword_jobs SET status = $1, keywords = $2, error = NULL, completed_at = $3 WHERE id = $4`,
		jobs.StatusCompleted, data, completed, result.JobID,
	)
	if err != nil {
		return fmt.Errorf("saving result for job %s: %w", result.JobID, err)
	}
	return nil
}

// MarkFailed records why a job could not be completed.
func (s *Store) MarkFailed(ctx context.Context, jobID, reason string) error {
	_, err := s.db.DB.ExecContext(ctx,
		`UPDATE keyword_jobs SET status = $1, error = $2, completed_at = NOW() WHERE id = $3`,
		jobs.StatusFailed, reason, jobID,
	)
	if err != nil {
		s.logger.Error("failed to mark job failed", "job_id", jobID, "error", err)
		return fmt.Errorf("marking job %s failed: %w", jobID, err)
	}
	return nil
}

// Get returns the job, or an error matching ErrJobNotFound.
func (s *Store) Get(ctx context.Context, jobID string) (*jobs.JobResult, error) {
	var (
		r         jobs.JobResult
		status    string
		kwData    []byte
		errMsg    sql.NullString
		completed sql.NullTime
	)
	err := s.db.DB.QueryRowContext(ctx,
		`SELECT id, document_id, top_n, status, keywords, error, enqueued_at, completed_at
		FROM keyword_jobs WHERE id = $1`, jobID,
	).Scan(&r.JobID, &r.DocumentID, &r.TopN, &status, &kwData, &errMsg, &r.EnqueuedAt, &completed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("job %s: %w", jobID, apperrors.ErrJobNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying job %s: %w", jobID, err)
	}

	r.Status = jobs.Status(status)
	r.Error = errMsg.String
	if completed.Valid {
		t := completed.Time
		r.CompletedAt = &t
	}
	r.Keywords = []keywords.Keyword{}
	if len(kwData) > 0 {
		if err := json.Unmarshal(kwData, &r.Keywords); err != nil {
			return nil, fmt.Errorf("decoding keywords of job %s: %w", jobID, err)
		}
	}
	return &r, nil
}
