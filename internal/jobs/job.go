// Package jobs runs uniquely named background jobs from a queue.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

var ErrJobNotFound = errors.New("job not found")

type Job struct {
	ID        int64
	Name      string
	Topic     string
	Payload   json.RawMessage
	Status    Status
	Attempts  int
	LastError string
	RunAt     time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// New builds a pending job. The name identifies the job across the queue;
// enqueuing a second job with the same name has no effect.
func New(name, topic string, payload any) (*Job, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload of job %s: %w", name, err)
	}
	now := time.Now().UTC()
	return &Job{
		Name:      name,
		Topic:     topic,
		Payload:   raw,
		Status:    StatusPending,
		RunAt:     now,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (j *Job) Decode(v any) error {
	if err := json.Unmarshal(j.Payload, v); err != nil {
		return fmt.Errorf("decode payload of job %s: %w", j.Name, err)
	}
	return nil
}

type Enqueuer interface {
	// Enqueue stores a job and reports false when a job with the same name
	// already exists.
	Enqueue(ctx context.Context, job *Job) (bool, error)
}

type Queue interface {
	Enqueuer

	// Claim marks up to limit due pending jobs as running and returns them.
	Claim(ctx context.Context, limit int) ([]*Job, error)

	Complete(ctx context.Context, id int64) error

	// Fail records reason. A non-nil retryAt puts the job back to pending.
	Fail(ctx context.Context, id int64, reason string, retryAt *time.Time) error
}

type Handler interface {
	Handle(ctx context.Context, job *Job) error
}

type HandlerFunc func(ctx context.Context, job *Job) error

func (f HandlerFunc) Handle(ctx context.Context, job *Job) error {
	return f(ctx, job)
}
