package executor

import (
	"context"

	"github.com/DanielPopoola/ficmart-payment-engine/internal/amount"
	"github.com/DanielPopoola/ficmart-payment-engine/internal/domain"
	"github.com/DanielPopoola/ficmart-payment-engine/internal/infrastructure/gateway"
)

// ConfirmExecutor loads the intent and confirms it when the Gateway still
// waits for confirmation.
type ConfirmExecutor struct{}

func NewConfirmExecutor() *ConfirmExecutor {
	return &ConfirmExecutor{}
}

func (e *ConfirmExecutor) Names() []ActionName {
	return []ActionName{ActionConfirm}
}

func (e *ConfirmExecutor) IsApplicableForAction(action Action) bool {
	return action.Transaction != nil
}

func (e *ConfirmExecutor) Execute(ctx context.Context, client gateway.Client, action Action) (Result, error) {
	tx := action.Transaction
	if err := tx.Options.Require(domain.OptionPaymentIntentID); err != nil {
		return Result{}, err
	}

	pi, err := client.GetPaymentIntent(ctx, tx.Options.PaymentIntentID)
	if err != nil {
		return Result{}, err
	}

	if pi.Status == gateway.StatusRequiresConfirmation {
		pi, err = client.ConfirmPaymentIntent(ctx, pi.ID, gateway.ConfirmParams{
			ReturnURL: tx.Options.ReturnURL,
		}, idempotencyKey(action.Name, tx))
		if err != nil {
			return Result{}, err
		}
	}

	successful := applyPaymentIntent(tx, pi)

	return Result{Successful: successful, PaymentIntent: pi}, nil
}

// CaptureExecutor captures funds held by an authorization.
type CaptureExecutor struct {
	converter amount.Converter
}

func NewCaptureExecutor(converter amount.Converter) *CaptureExecutor {
	return &CaptureExecutor{converter: converter}
}

func (e *CaptureExecutor) Names() []ActionName {
	return []ActionName{ActionCapture}
}

func (e *CaptureExecutor) IsApplicableForAction(action Action) bool {
	return action.Transaction != nil
}

func (e *CaptureExecutor) Execute(ctx context.Context, client gateway.Client, action Action) (Result, error) {
	tx := action.Transaction
	if err := tx.Options.Require(domain.OptionPaymentIntentID); err != nil {
		return Result{}, err
	}

	minor, err := e.converter.ToMinorUnits(tx.Amount, tx.Currency)
	if err != nil {
		return Result{}, err
	}

	pi, err := client.CapturePaymentIntent(ctx, tx.Options.PaymentIntentID, gateway.CaptureParams{
		AmountToCapture: minor,
	}, idempotencyKey(action.Name, tx))
	if err != nil {
		return Result{}, err
	}

	tx.Response = domain.TransactionResponse{
		ObjectID:   pi.ID,
		ObjectType: "payment_intent",
		Status:     pi.Status,
		Raw:        snapshot(pi),
	}

	if pi.Status != gateway.StatusSucceeded {
		tx.Reference = pi.ID
		tx.MarkFailed()
		return Result{Successful: false, PaymentIntent: pi}, nil
	}

	tx.Active = true
	tx.MarkSucceeded(pi.ID)

	return Result{Successful: true, PaymentIntent: pi}, nil
}

// CancelExecutor releases an authorization hold.
type CancelExecutor struct{}

func NewCancelExecutor() *CancelExecutor {
	return &CancelExecutor{}
}

func (e *CancelExecutor) Names() []ActionName {
	return []ActionName{ActionCancel}
}

func (e *CancelExecutor) IsApplicableForAction(action Action) bool {
	return action.Transaction != nil
}

func (e *CancelExecutor) Execute(ctx context.Context, client gateway.Client, action Action) (Result, error) {
	tx := action.Transaction
	if err := tx.Options.Require(domain.OptionPaymentIntentID); err != nil {
		return Result{}, err
	}

	pi, err := client.CancelPaymentIntent(ctx, tx.Options.PaymentIntentID, gateway.CancelParams{
		CancellationReason: tx.Options.CancelReason,
	}, idempotencyKey(action.Name, tx))
	if err != nil {
		return Result{}, err
	}

	tx.Response = domain.TransactionResponse{
		ObjectID:   pi.ID,
		ObjectType: "payment_intent",
		Status:     pi.Status,
		Raw:        snapshot(pi),
	}

	if pi.Status != gateway.StatusCanceled {
		tx.Reference = pi.ID
		tx.MarkFailed()
		return Result{Successful: false, PaymentIntent: pi}, nil
	}

	tx.MarkSucceeded(pi.ID)

	return Result{Successful: true, PaymentIntent: pi}, nil
}

// RefundExecutor returns captured funds.
type RefundExecutor struct {
	converter amount.Converter
}

func NewRefundExecutor(converter amount.Converter) *RefundExecutor {
	return &RefundExecutor{converter: converter}
}

func (e *RefundExecutor) Names() []ActionName {
	return []ActionName{ActionRefund}
}

func (e *RefundExecutor) IsApplicableForAction(action Action) bool {
	return action.Transaction != nil
}

func (e *RefundExecutor) Execute(ctx context.Context, client gateway.Client, action Action) (Result, error) {
	tx := action.Transaction
	if err := tx.Options.Require(domain.OptionPaymentIntentID); err != nil {
		return Result{}, err
	}

	minor, err := e.converter.ToMinorUnits(tx.Amount, tx.Currency)
	if err != nil {
		return Result{}, err
	}

	refund, err := client.CreateRefund(ctx, gateway.RefundParams{
		PaymentIntent: tx.Options.PaymentIntentID,
		Amount:        minor,
		Reason:        tx.Options.RefundReason,
		Metadata:      transactionMetadata(tx),
	}, idempotencyKey(action.Name, tx))
	if err != nil {
		return Result{}, err
	}

	successful := ApplyRefund(tx, refund)

	return Result{Successful: successful, Refund: refund}, nil
}

// ApplyRefund copies a refund's state onto a refund transaction. Pending
// refunds count as successful; the Gateway reports the final state later.
func ApplyRefund(tx *domain.PaymentTransaction, refund *gateway.Refund) bool {
	tx.Response = domain.TransactionResponse{
		ObjectID:   refund.ID,
		ObjectType: "refund",
		Status:     refund.Status,
		Raw:        snapshot(refund),
	}

	switch refund.Status {
	case gateway.RefundStatusSucceeded, gateway.RefundStatusPending:
		tx.MarkSucceeded(refund.ID)
		return true
	default:
		tx.Reference = refund.ID
		if refund.FailureReason != "" {
			tx.RecordError("refund_error", refund.FailureReason, "", "refund "+refund.Status+": "+refund.FailureReason)
		}
		tx.MarkFailed()
		return false
	}
}
