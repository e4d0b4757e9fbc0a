package reauthorize

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/DanielPopoola/ficmart-payment-engine/internal/jobs"
)

// Scheduler enqueues one init job per interval. The job name is derived from
// the tick truncated to the interval, so several engine instances enqueue
// the same job.
type Scheduler struct {
	queue    jobs.Enqueuer
	interval time.Duration
	logger   *slog.Logger
}

func NewScheduler(queue jobs.Enqueuer, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		queue:    queue,
		interval: interval,
		logger:   logger,
	}
}

func InitJobName(tick time.Time) string {
	return "reauthorize:init:" + tick.UTC().Format(time.RFC3339)
}

func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("re-authorization scheduler started", "interval", s.interval)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("re-authorization scheduler stopping")
			return
		case now := <-ticker.C:
			if _, err := s.Trigger(ctx, now); err != nil {
				s.logger.Error("failed to enqueue re-authorization", "error", err)
			}
		}
	}
}

// Trigger enqueues the init job for the interval containing at.
func (s *Scheduler) Trigger(ctx context.Context, at time.Time) (bool, error) {
	tick := at.UTC().Truncate(s.interval)
	job, err := jobs.New(InitJobName(tick), TopicInit, InitPayload{TriggeredAt: at.UTC()})
	if err != nil {
		return false, err
	}

	created, err := s.queue.Enqueue(ctx, job)
	if err != nil {
		return false, fmt.Errorf("enqueue %s: %w", job.Name, err)
	}
	if created {
		s.logger.Info("re-authorization enqueued", "job", job.Name)
	}
	return created, nil
}
