package method

import (
	"context"
	"fmt"

	"github.com/DanielPopoola/ficmart-payment-engine/internal/application/executor"
	"github.com/DanielPopoola/ficmart-payment-engine/internal/domain"
	"github.com/DanielPopoola/ficmart-payment-engine/internal/infrastructure/gateway"
)

// HandleWebhookEvent applies a Gateway event to the matched transaction. The
// transaction itself is not saved here.
func (m *GatewayMethod) HandleWebhookEvent(ctx context.Context, event *gateway.Event, tx *domain.PaymentTransaction) error {
	logger := m.logger.With("event_id", event.ID, "event_type", event.Type, "transaction_id", tx.ID)

	switch event.Type {
	case gateway.EventPaymentIntentSucceeded, gateway.EventPaymentIntentAmountCapturableUpdate:
		if tx.Successful {
			logger.Debug("transaction already successful")
			return nil
		}
		pi, err := event.PaymentIntent()
		if err != nil {
			return err
		}
		if tx.Options.PaymentIntentID == "" {
			tx.Options.PaymentIntentID = pi.ID
		}

		action := m.action(executor.ActionConfirm, tx)
		action.DeferPersist = true

		result, err := m.actions.ExecuteAction(ctx, action)
		if err != nil {
			return fmt.Errorf("confirm from webhook: %w", err)
		}
		logger.Info("payment confirmed from webhook", "successful", result.Successful)
		return nil

	case gateway.EventPaymentIntentPaymentFailed, gateway.EventPaymentIntentCanceled:
		pi, err := event.PaymentIntent()
		if err != nil {
			return err
		}
		if tx.Options.PaymentIntentID == "" {
			tx.Options.PaymentIntentID = pi.ID
		}
		tx.Response.ObjectID = pi.ID
		tx.Response.ObjectType = "payment_intent"
		tx.Response.Status = pi.Status

		if event.Type == gateway.EventPaymentIntentCanceled {
			released, err := m.holdReleased(ctx, tx)
			if err != nil {
				return err
			}
			if released {
				tx.Deactivate()
				logger.Info("authorization released, transaction deactivated", "status", pi.Status)
				return nil
			}
		}

		tx.Reference = pi.ID
		if pi.LastPaymentError != nil {
			tx.RecordError(pi.LastPaymentError.Type, pi.LastPaymentError.Code, pi.LastPaymentError.DeclineCode, pi.LastPaymentError.Message)
		}
		tx.MarkFailed()
		logger.Info("payment marked unsuccessful from webhook", "status", pi.Status)
		return nil

	case gateway.EventRefundCreated, gateway.EventRefundUpdated, gateway.EventRefundFailed, gateway.EventChargeRefundUpdated:
		refund, err := event.Refund()
		if err != nil {
			return err
		}
		return m.applyRefundEvent(ctx, refund, tx)
	}

	return domain.NewNotSupportedEventError(fmt.Sprintf("event type %s is not handled", event.Type))
}

// holdReleased reports whether a canceled intent belongs to an authorization
// that succeeded earlier. Its outcome stays recorded; only the hold is gone.
func (m *GatewayMethod) holdReleased(ctx context.Context, tx *domain.PaymentTransaction) (bool, error) {
	if tx.IsAction(domain.ActionAuthorize) && tx.Successful {
		return true, nil
	}
	if tx.ID == 0 {
		return false, nil
	}
	canceled, err := m.repo.HasSuccessfulChild(ctx, tx.ID, domain.ActionCancel)
	if err != nil {
		return false, fmt.Errorf("look up cancel of transaction %d: %w", tx.ID, err)
	}
	return canceled, nil
}

// applyRefundEvent creates or updates the REFUND child of a captured
// transaction. Refunds issued from the Gateway dashboard arrive here first.
func (m *GatewayMethod) applyRefundEvent(ctx context.Context, refund *gateway.Refund, parent *domain.PaymentTransaction) error {
	children, err := m.repo.FindChildren(ctx, parent.ID)
	if err != nil {
		return fmt.Errorf("load refunds of transaction %d: %w", parent.ID, err)
	}

	var child *domain.PaymentTransaction
	for _, c := range children {
		if c.Action == domain.ActionRefund && c.Reference == refund.ID {
			child = c
			break
		}
	}

	if child == nil {
		currency := parent.Currency
		refunded, err := m.converter.FromMinorUnits(refund.Amount, currency)
		if err != nil {
			return err
		}
		child = parent.NewChild(domain.ActionRefund)
		child.Amount = refunded
		child.Options.PaymentIntentID = refund.PaymentIntent
		child.Options.RefundReason = refund.Reason
	}

	executor.ApplyRefund(child, refund)

	if err := m.repo.Save(ctx, child); err != nil {
		return fmt.Errorf("save refund transaction: %w", err)
	}

	m.logger.Info("refund recorded from webhook",
		"transaction_id", parent.ID,
		"refund_transaction_id", child.ID,
		"refund_id", refund.ID,
		"status", refund.Status,
	)
	return nil
}
