package crdb

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/robertarktes/seat-booking-engine/internal/domain"
)

// StartJob claims the per-type advisory mutex by inserting a RUNNING
// row. The partial unique index rejects a second concurrent claim,
// which surfaces as domain.ErrJobAlreadyRunning.
func (r *Repository) StartJob(ctx context.Context, jobType string) (uuid.UUID, error) {
	id := uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO job_executions (id, job_type, status) VALUES ($1, $2, 'RUNNING')
	`, id, jobType)
	if err != nil {
		if IsUniqueViolation(err) {
			return uuid.Nil, domain.ErrJobAlreadyRunning
		}
		return uuid.Nil, err
	}
	return id, nil
}

func (r *Repository) FinishJob(ctx context.Context, id uuid.UUID, status domain.JobStatus, processed, errCount int, details string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE job_executions SET status = $2, completed_at = $3, processed = $4, errors = $5, details = $6
		WHERE id = $1
	`, id, status, time.Now(), processed, errCount, details)
	return err
}

// MarkStaleJobsFailed fails RUNNING rows older than the threshold.
// These are guards orphaned by a crash; failing them reopens the
// mutex so the periodic sweepers can run again.
func (r *Repository) MarkStaleJobsFailed(ctx context.Context, olderThan time.Duration) (int, error) {
	result, err := r.pool.Exec(ctx, `
		UPDATE job_executions SET status = 'FAILED', completed_at = now(), details = 'orphaned by crash'
		WHERE status = 'RUNNING' AND started_at < $1
	`, time.Now().Add(-olderThan))
	if err != nil {
		return 0, err
	}
	return int(result.RowsAffected()), nil
}

func (r *Repository) GetJobExecution(ctx context.Context, id uuid.UUID) (*domain.JobExecution, error) {
	var j domain.JobExecution
	err := r.pool.QueryRow(ctx, `
		SELECT id, job_type, status, started_at, completed_at, processed, errors, details
		FROM job_executions WHERE id = $1
	`, id).Scan(&j.ID, &j.JobType, &j.Status, &j.StartedAt, &j.CompletedAt, &j.Processed, &j.Errors, &j.Details)
	if err != nil {
		return nil, err
	}
	return &j, nil
}
