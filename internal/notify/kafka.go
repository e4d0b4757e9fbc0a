package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier publishes notifications for the notification service to
// deliver by email.
type KafkaNotifier struct {
	logger *slog.Logger
	writer messageWriter
	topic  string
}

func NewKafkaNotifier(logger *slog.Logger, brokers []string, topic string) *KafkaNotifier {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}

	return &KafkaNotifier{
		logger: logger,
		writer: writer,
		topic:  topic,
	}
}

func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}

func (n *KafkaNotifier) Notify(ctx context.Context, msg Notification) error {
	occurredAt := msg.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}

	payload := map[string]any{
		"event_id":       uuid.New().String(),
		"event_type":     EventReauthorizationFailed,
		"event_version":  1,
		"occurred_at":    occurredAt.UTC().Format(time.RFC3339),
		"transaction_id": msg.TransactionID,
		"payment_method": msg.PaymentMethod,
		"recipient":      msg.Recipient,
		"step":           msg.Step,
		"reason":         msg.Reason,
	}

	value, err := json.Marshal(payload)
	if err != nil {
		n.logger.Error("failed to marshal notification",
			"transaction_id", msg.TransactionID,
			"error", err,
		)
		return err
	}

	err = n.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatInt(msg.TransactionID, 10)),
		Value: value,
	})
	if err != nil {
		n.logger.Error("failed to publish notification",
			"topic", n.topic,
			"transaction_id", msg.TransactionID,
			"error", err,
		)
		return err
	}

	n.logger.Info("notification published",
		"topic", n.topic,
		"transaction_id", msg.TransactionID,
		"step", msg.Step,
	)
	return nil
}
