package postgres

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/DanielPopoola/ficmart-payment-engine/internal/jobs"
	"github.com/jackc/pgx/v5"
)

const jobColumns = `id, name, topic, payload, status, attempts, last_error, run_at, created_at, updated_at`

// JobQueue stores jobs in the jobs table. Claiming uses SKIP LOCKED so
// several runners can share the table.
type JobQueue struct {
	q Executor
}

func NewJobQueue(q Executor) *JobQueue {
	return &JobQueue{q: q}
}

func (r *JobQueue) Enqueue(ctx context.Context, job *jobs.Job) (bool, error) {
	query := `
		INSERT INTO jobs (name, topic, payload, status, run_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (name) DO NOTHING
		RETURNING id
	`

	status := job.Status
	if status == "" {
		status = jobs.StatusPending
	}
	payload := []byte(job.Payload)
	if len(payload) == 0 {
		payload = []byte("null")
	}

	err := r.q.QueryRow(ctx, query,
		job.Name, job.Topic, payload, string(status), job.RunAt, job.CreatedAt, job.UpdatedAt,
	).Scan(&job.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to enqueue job %s: %w", job.Name, err)
	}
	return true, nil
}

func (r *JobQueue) Claim(ctx context.Context, limit int) ([]*jobs.Job, error) {
	query := `
		UPDATE jobs
		SET status = 'running', attempts = attempts + 1, updated_at = NOW()
		WHERE id IN (
			SELECT id FROM jobs
			WHERE status = 'pending' AND run_at <= NOW()
			ORDER BY id
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING ` + jobColumns

	rows, err := r.q.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("claim jobs: %w", err)
	}

	claimed, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*jobs.Job, error) {
		return scanJob(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan claimed jobs: %w", err)
	}

	sort.Slice(claimed, func(i, j int) bool { return claimed[i].ID < claimed[j].ID })
	return claimed, nil
}

func (r *JobQueue) Complete(ctx context.Context, id int64) error {
	tag, err := r.q.Exec(ctx, `UPDATE jobs SET status = 'done', updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("complete job %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return jobs.ErrJobNotFound
	}
	return nil
}

func (r *JobQueue) Fail(ctx context.Context, id int64, reason string, retryAt *time.Time) error {
	query := `
		UPDATE jobs
		SET status = CASE WHEN $3::timestamptz IS NULL THEN 'failed' ELSE 'pending' END,
			run_at = COALESCE($3::timestamptz, run_at),
			last_error = $2,
			updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.q.Exec(ctx, query, id, reason, retryAt)
	if err != nil {
		return fmt.Errorf("fail job %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return jobs.ErrJobNotFound
	}
	return nil
}

// FindByName is used by operators and tests to inspect a job.
func (r *JobQueue) FindByName(ctx context.Context, name string) (*jobs.Job, error) {
	j, err := scanJob(r.q.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE name = $1`, name))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, jobs.ErrJobNotFound
	}
	return j, err
}

func scanJob(row pgx.Row) (*jobs.Job, error) {
	var (
		j       jobs.Job
		status  string
		payload []byte
	)
	err := row.Scan(&j.ID, &j.Name, &j.Topic, &payload, &status, &j.Attempts, &j.LastError, &j.RunAt, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return nil, err
	}
	j.Payload = payload
	j.Status = jobs.Status(status)
	return &j, nil
}
