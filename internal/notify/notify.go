// Package notify reports re-authorization failures to humans.
package notify

import (
	"context"
	"log/slog"
	"time"
)

const EventReauthorizationFailed = "payment.reauthorization.failed"

type Notification struct {
	TransactionID int64
	PaymentMethod string
	Recipient     string
	Step          string
	Reason        string
	OccurredAt    time.Time
}

type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// LogNotifier writes notifications to the log. It is used when no broker is
// configured.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, msg Notification) error {
	n.logger.Warn("re-authorization failed",
		"transaction_id", msg.TransactionID,
		"payment_method", msg.PaymentMethod,
		"recipient", msg.Recipient,
		"step", msg.Step,
		"reason", msg.Reason,
	)
	return nil
}
