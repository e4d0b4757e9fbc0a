package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "engine:webhook:processed:"

// commands is the subset of redis.Cmdable the store needs.
type commands interface {
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
}

// ProcessedEventStore remembers handled Gateway event ids for ttl.
type ProcessedEventStore struct {
	client commands
	ttl    time.Duration
	logger *slog.Logger
}

func NewProcessedEventStore(client commands, ttl time.Duration, logger *slog.Logger) *ProcessedEventStore {
	return &ProcessedEventStore{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func processedKey(eventID string) string {
	return keyPrefix + eventID
}

func (s *ProcessedEventStore) IsProcessed(ctx context.Context, eventID string) (bool, error) {
	n, err := s.client.Exists(ctx, processedKey(eventID)).Result()
	if err != nil {
		return false, fmt.Errorf("check processed event %s: %w", eventID, err)
	}
	return n > 0, nil
}

func (s *ProcessedEventStore) MarkProcessed(ctx context.Context, eventID string) error {
	created, err := s.client.SetNX(ctx, processedKey(eventID), time.Now().UTC().Format(time.RFC3339), s.ttl).Result()
	if err != nil {
		return fmt.Errorf("mark processed event %s: %w", eventID, err)
	}
	if !created {
		s.logger.Debug("webhook event already marked as processed", "event_id", eventID)
	}
	return nil
}

// Connect opens a client and pings the server.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", addr, err)
	}
	return client, nil
}
