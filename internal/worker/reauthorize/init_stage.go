package reauthorize

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/DanielPopoola/ficmart-payment-engine/internal/application/executor"
	"github.com/DanielPopoola/ficmart-payment-engine/internal/jobs"
)

// InitHandler streams expiring authorizations of every method that allows
// re-authorization and enqueues them in chunks.
type InitHandler struct {
	methods Methods
	repo    Repository
	queue   jobs.Enqueuer
	cfg     Config
	now     func() time.Time
	logger  *slog.Logger
}

func NewInitHandler(methods Methods, repo Repository, queue jobs.Enqueuer, cfg Config, logger *slog.Logger) *InitHandler {
	return &InitHandler{
		methods: methods,
		repo:    repo,
		queue:   queue,
		cfg:     cfg.withDefaults(),
		now:     time.Now,
		logger:  logger,
	}
}

// ChunkJobName names the index-th chunk of an init job. Running the same init
// job twice yields the same names.
func ChunkJobName(initJob string, index int) string {
	return fmt.Sprintf("reauthorize:chunk:%s:%d", initJob, index)
}

func (h *InitHandler) Handle(ctx context.Context, job *jobs.Job) error {
	cutoff := h.now().Add(-h.cfg.ExpirationWindow)
	logger := h.logger.With("job", job.Name)

	var (
		index    int
		chunk    []int64
		enqueued int
	)

	flush := func() error {
		if len(chunk) == 0 {
			return nil
		}
		name := ChunkJobName(job.Name, index)
		index++

		chunkJob, err := jobs.New(name, TopicChunk, ChunkPayload{TransactionIDs: chunk})
		if err != nil {
			return err
		}
		created, err := h.queue.Enqueue(ctx, chunkJob)
		if err != nil {
			return fmt.Errorf("enqueue %s: %w", name, err)
		}
		if created {
			enqueued++
		} else {
			logger.Debug("chunk job already queued", "chunk_job", name)
		}
		chunk = nil
		return nil
	}

	for _, m := range h.methods.Enabled() {
		if !m.Config().ReauthorizationAllowed || !m.Supports(executor.ActionReAuthorize) {
			continue
		}

		err := h.repo.StreamExpiringAuthorizations(ctx, m.Identifier(), cutoff, func(id int64) error {
			chunk = append(chunk, id)
			if len(chunk) >= h.cfg.ChunkSize {
				return flush()
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("stream expiring authorizations of %s: %w", m.Identifier(), err)
		}
		// chunks never mix payment methods
		if err := flush(); err != nil {
			return err
		}
	}

	logger.Info("re-authorization chunks enqueued",
		"chunks", index,
		"new_chunks", enqueued,
		"cutoff", cutoff,
	)
	return nil
}
