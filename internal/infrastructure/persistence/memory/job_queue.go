package memory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/DanielPopoola/ficmart-payment-engine/internal/jobs"
)

type JobQueue struct {
	mu     sync.Mutex
	jobs   map[int64]*jobs.Job
	names  map[string]int64
	nextID int64
	now    func() time.Time
}

func NewJobQueue() *JobQueue {
	return &JobQueue{
		jobs:  make(map[int64]*jobs.Job),
		names: make(map[string]int64),
		now:   time.Now,
	}
}

func (q *JobQueue) Enqueue(ctx context.Context, job *jobs.Job) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, exists := q.names[job.Name]; exists {
		return false, nil
	}

	q.nextID++
	job.ID = q.nextID
	if job.Status == "" {
		job.Status = jobs.StatusPending
	}
	stored := *job
	stored.Payload = slices.Clone(job.Payload)
	q.jobs[job.ID] = &stored
	q.names[job.Name] = job.ID
	return true, nil
}

func (q *JobQueue) Claim(ctx context.Context, limit int) ([]*jobs.Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	var due []*jobs.Job
	for _, job := range q.jobs {
		if job.Status == jobs.StatusPending && !job.RunAt.After(now) {
			due = append(due, job)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].ID < due[j].ID })
	if len(due) > limit {
		due = due[:limit]
	}

	claimed := make([]*jobs.Job, 0, len(due))
	for _, job := range due {
		job.Status = jobs.StatusRunning
		job.Attempts++
		job.UpdatedAt = now
		out := *job
		claimed = append(claimed, &out)
	}
	return claimed, nil
}

func (q *JobQueue) Complete(ctx context.Context, id int64) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, ok := q.jobs[id]
	if !ok {
		return jobs.ErrJobNotFound
	}
	job.Status = jobs.StatusDone
	job.UpdatedAt = q.now()
	return nil
}

func (q *JobQueue) Fail(ctx context.Context, id int64, reason string, retryAt *time.Time) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, ok := q.jobs[id]
	if !ok {
		return jobs.ErrJobNotFound
	}
	job.LastError = reason
	job.UpdatedAt = q.now()
	if retryAt != nil {
		job.Status = jobs.StatusPending
		job.RunAt = *retryAt
	} else {
		job.Status = jobs.StatusFailed
	}
	return nil
}

// Jobs returns a snapshot of every job, ordered by id.
func (q *JobQueue) Jobs() []jobs.Job {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]jobs.Job, 0, len(q.jobs))
	for _, job := range q.jobs {
		out = append(out, *job)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
