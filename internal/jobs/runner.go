package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/DanielPopoola/ficmart-payment-engine/internal/application"
)

type RunnerConfig struct {
	Interval    time.Duration
	BatchSize   int
	MaxAttempts int
	RetryDelay  time.Duration
}

// Runner polls the queue and hands each claimed job to the handler
// registered for its topic.
type Runner struct {
	queue    Queue
	handlers map[string]Handler
	cfg      RunnerConfig
	logger   *slog.Logger
	now      func() time.Time
}

func NewRunner(queue Queue, cfg RunnerConfig, logger *slog.Logger) *Runner {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	return &Runner{
		queue:    queue,
		handlers: make(map[string]Handler),
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

func (r *Runner) Register(topic string, h Handler) {
	r.handlers[topic] = h
}

func (r *Runner) Start(ctx context.Context) {
	r.logger.Info("job runner started", "interval", r.cfg.Interval)
	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("job runner stopping")
			return
		case <-ticker.C:
			if _, err := r.RunOnce(ctx); err != nil {
				r.logger.Error("job processing failed", "error", err)
			}
		}
	}
}

// RunOnce claims one batch and processes it. It returns the number of jobs
// that completed.
func (r *Runner) RunOnce(ctx context.Context) (int, error) {
	claimed, err := r.queue.Claim(ctx, r.cfg.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("claim jobs: %w", err)
	}

	var done int
	for _, job := range claimed {
		if r.process(ctx, job) {
			done++
		}
	}

	if done > 0 {
		r.logger.Info("processed jobs", "count", done)
	}

	return done, nil
}

func (r *Runner) process(ctx context.Context, job *Job) bool {
	logger := r.logger.With("job", job.Name, "topic", job.Topic, "attempt", job.Attempts)

	handler, ok := r.handlers[job.Topic]
	if !ok {
		logger.Error("no handler for job topic")
		if err := r.queue.Fail(ctx, job.ID, "no handler for topic "+job.Topic, nil); err != nil {
			logger.Error("failed to record job failure", "error", err)
		}
		return false
	}

	err := r.safeHandle(ctx, handler, job)
	if err == nil {
		if err := r.queue.Complete(ctx, job.ID); err != nil {
			logger.Error("failed to complete job", "error", err)
			return false
		}
		return true
	}

	category := application.CategorizeError(err)
	var retryAt *time.Time
	if application.IsRetryable(err) && job.Attempts < r.cfg.MaxAttempts {
		at := r.now().Add(r.backoff(job.Attempts))
		retryAt = &at
	}

	logger.Error("job failed",
		"category", category,
		"will_retry", retryAt != nil,
		"error", err,
	)

	if err := r.queue.Fail(ctx, job.ID, err.Error(), retryAt); err != nil {
		logger.Error("failed to record job failure", "error", err)
	}
	return false
}

func (r *Runner) safeHandle(ctx context.Context, h Handler, job *Job) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = application.NewInternalError(fmt.Errorf("panic in job %s: %v", job.Name, rec))
		}
	}()
	return h.Handle(ctx, job)
}

func (r *Runner) backoff(attempt int) time.Duration {
	return r.cfg.RetryDelay * time.Duration(math.Pow(2, float64(max(attempt-1, 0))))
}
