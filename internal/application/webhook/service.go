package webhook

import (
	"context"
	"log/slog"
)

// ProcessedEventStore remembers Gateway event ids that were handled.
type ProcessedEventStore interface {
	IsProcessed(ctx context.Context, eventID string) (bool, error)
	MarkProcessed(ctx context.Context, eventID string) error
}

type NoopStore struct{}

func (NoopStore) IsProcessed(context.Context, string) (bool, error) {
	return false, nil
}

func (NoopStore) MarkProcessed(context.Context, string) error {
	return nil
}

// Service is the entry point for raw webhook deliveries.
type Service struct {
	factory    *EventFactory
	dispatcher *Dispatcher
	processed  ProcessedEventStore
	logger     *slog.Logger
}

func NewService(factory *EventFactory, dispatcher *Dispatcher, processed ProcessedEventStore, logger *slog.Logger) *Service {
	if processed == nil {
		processed = NoopStore{}
	}
	return &Service{
		factory:    factory,
		dispatcher: dispatcher,
		processed:  processed,
		logger:     logger,
	}
}

// Handle verifies and dispatches one delivery. Re-deliveries of an event that
// was already handled are acknowledged without side effects.
func (s *Service) Handle(ctx context.Context, payload []byte, signatureHeader string) error {
	ve, err := s.factory.Create(payload, signatureHeader)
	if err != nil {
		s.logger.Warn("webhook rejected", "error", err)
		return err
	}

	done, err := s.processed.IsProcessed(ctx, ve.Event.ID)
	if err != nil {
		s.logger.Warn("processed event lookup failed", "event_id", ve.Event.ID, "error", err)
	}
	if done {
		s.logger.Info("webhook event already processed", "event_id", ve.Event.ID, "event_type", ve.Event.Type)
		return nil
	}

	if err := s.dispatcher.Dispatch(ctx, ve); err != nil {
		return err
	}

	if err := s.processed.MarkProcessed(ctx, ve.Event.ID); err != nil {
		s.logger.Warn("failed to mark webhook event processed", "event_id", ve.Event.ID, "error", err)
	}
	return nil
}
