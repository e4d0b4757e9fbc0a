package reauthorize

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/DanielPopoola/ficmart-payment-engine/internal/application"
	"github.com/DanielPopoola/ficmart-payment-engine/internal/application/executor"
	"github.com/DanielPopoola/ficmart-payment-engine/internal/application/method"
	"github.com/DanielPopoola/ficmart-payment-engine/internal/domain"
	"github.com/DanielPopoola/ficmart-payment-engine/internal/jobs"
	"github.com/DanielPopoola/ficmart-payment-engine/internal/notify"
)

const (
	stepRenew     = "re_authorize"
	stepCancel    = "cancel"
	stepAuthorize = "authorize"
)

// ChunkHandler renews the authorizations of one chunk, one transaction at a
// time. A failure on one transaction never stops the rest of the chunk.
type ChunkHandler struct {
	methods  Methods
	repo     Repository
	notifier notify.Notifier
	cfg      Config
	logger   *slog.Logger
}

func NewChunkHandler(methods Methods, repo Repository, notifier notify.Notifier, cfg Config, logger *slog.Logger) *ChunkHandler {
	return &ChunkHandler{
		methods:  methods,
		repo:     repo,
		notifier: notifier,
		cfg:      cfg.withDefaults(),
		logger:   logger,
	}
}

func (h *ChunkHandler) Handle(ctx context.Context, job *jobs.Job) error {
	var payload ChunkPayload
	if err := job.Decode(&payload); err != nil {
		return application.NewInvalidJobPayloadError(err)
	}

	var renewed int
	for _, id := range payload.TransactionIDs {
		if err := ctx.Err(); err != nil {
			return err
		}
		ok, err := h.safeRenew(ctx, id)
		if err != nil {
			h.logger.Error("re-authorization failed",
				"job", job.Name,
				"transaction_id", id,
				"error", err,
			)
			h.notify(ctx, notify.Notification{TransactionID: id, Step: stepRenew, Reason: err.Error()}, nil)
			continue
		}
		if ok {
			renewed++
		}
	}

	h.logger.Info("re-authorization chunk processed",
		"job", job.Name,
		"transactions", len(payload.TransactionIDs),
		"renewed", renewed,
	)
	return nil
}

func (h *ChunkHandler) safeRenew(ctx context.Context, id int64) (ok bool, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic while renewing transaction %d: %v", id, rec)
		}
	}()
	return h.renew(ctx, id)
}

// renew cancels the old hold and places a new one. It reports whether a new
// active authorization exists afterwards.
func (h *ChunkHandler) renew(ctx context.Context, id int64) (bool, error) {
	tx, err := h.repo.FindByID(ctx, id)
	if err != nil {
		return false, err
	}

	m, ok, err := h.applicableMethod(ctx, tx)
	if err != nil || !ok {
		return false, err
	}
	logger := h.logger.With("transaction_id", tx.ID, "payment_method", tx.PaymentMethod)

	cancel := tx.NewChild(domain.ActionCancel)
	cancel.Options.CancelReason = h.cfg.CancelReason

	result, err := m.Execute(ctx, executor.ActionCancel, cancel)
	if err != nil {
		h.notifyFailure(ctx, m, tx.ID, stepCancel, err.Error())
		return false, nil
	}
	if !result.Successful {
		h.notifyFailure(ctx, m, tx.ID, stepCancel, failureReason(result, cancel))
		return false, nil
	}

	tx.Deactivate()
	if err := h.repo.Save(ctx, tx); err != nil {
		return false, fmt.Errorf("deactivate transaction %d: %w", tx.ID, err)
	}

	authorize := tx.NewChild(domain.ActionAuthorize)
	authorize.Options.PaymentIntentID = ""
	authorize.Options.CancelReason = ""

	result, err = m.Execute(ctx, executor.ActionAuthorize, authorize)
	if err != nil {
		h.notifyFailure(ctx, m, tx.ID, stepAuthorize, err.Error())
		return false, nil
	}

	authorize.Active = result.Successful
	if err := h.repo.Save(ctx, authorize); err != nil {
		return false, fmt.Errorf("save renewed authorization of %d: %w", tx.ID, err)
	}

	if !result.Successful {
		h.notifyFailure(ctx, m, tx.ID, stepAuthorize, failureReason(result, authorize))
		return false, nil
	}

	logger.Info("authorization renewed", "new_transaction_id", authorize.ID, "reference", authorize.Reference)
	return true, nil
}

// applicableMethod repeats the init stage selection against fresh data.
func (h *ChunkHandler) applicableMethod(ctx context.Context, tx *domain.PaymentTransaction) (method.Method, bool, error) {
	if !tx.IsActiveAuthorization() || !tx.Options.ReauthorizationEnabled {
		h.logger.Debug("transaction no longer eligible for re-authorization", "transaction_id", tx.ID)
		return nil, false, nil
	}

	cancelled, err := h.repo.HasSuccessfulChild(ctx, tx.ID, domain.ActionCancel)
	if err != nil {
		return nil, false, err
	}
	if cancelled {
		return nil, false, nil
	}

	m, err := h.methods.Get(tx.PaymentMethod)
	if err != nil {
		h.logger.Warn("payment method of transaction is gone", "transaction_id", tx.ID, "payment_method", tx.PaymentMethod)
		return nil, false, nil
	}
	if !m.Supports(executor.ActionReAuthorize) {
		return nil, false, nil
	}
	return m, true, nil
}

func failureReason(result executor.Result, tx *domain.PaymentTransaction) string {
	if msg := result.ErrorMessage(); msg != "" {
		return msg
	}
	if tx.Response.ErrorMessage != "" {
		return tx.Response.ErrorMessage
	}
	return "gateway status " + tx.Response.Status
}

func (h *ChunkHandler) notifyFailure(ctx context.Context, m method.Method, transactionID int64, step, reason string) {
	h.logger.Warn("re-authorization step failed",
		"transaction_id", transactionID,
		"payment_method", m.Identifier(),
		"step", step,
		"reason", reason,
	)
	h.notify(ctx, notify.Notification{
		TransactionID: transactionID,
		PaymentMethod: m.Identifier(),
		Step:          step,
		Reason:        reason,
	}, m)
}

func (h *ChunkHandler) notify(ctx context.Context, n notify.Notification, m method.Method) {
	if m != nil {
		n.Recipient = m.Config().ReauthorizationEmail
	}
	n.OccurredAt = time.Now()
	if err := h.notifier.Notify(ctx, n); err != nil {
		h.logger.Error("failed to send notification", "transaction_id", n.TransactionID, "error", err)
	}
}
