package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/DanielPopoola/ficmart-payment-engine/internal/amount"
	"github.com/DanielPopoola/ficmart-payment-engine/internal/application/executor"
	"github.com/DanielPopoola/ficmart-payment-engine/internal/application/method"
	"github.com/DanielPopoola/ficmart-payment-engine/internal/application/webhook"
	"github.com/DanielPopoola/ficmart-payment-engine/internal/config"
	"github.com/DanielPopoola/ficmart-payment-engine/internal/domain"
	"github.com/DanielPopoola/ficmart-payment-engine/internal/infrastructure/gateway"
	"github.com/DanielPopoola/ficmart-payment-engine/internal/infrastructure/persistence/memory"
	"github.com/DanielPopoola/ficmart-payment-engine/internal/infrastructure/persistence/postgres"
	redisstore "github.com/DanielPopoola/ficmart-payment-engine/internal/infrastructure/persistence/redis"
	"github.com/DanielPopoola/ficmart-payment-engine/internal/jobs"
	"github.com/DanielPopoola/ficmart-payment-engine/internal/notify"
	"github.com/DanielPopoola/ficmart-payment-engine/internal/worker/reauthorize"
	"github.com/redis/go-redis/v9"
)

// app holds every wired component. Commands build it once and close it on exit.
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	db          *postgres.DB
	redisClient *redis.Client
	kafka       *notify.KafkaNotifier

	repo      domain.TransactionRepository
	queue     jobs.Queue
	clients   *gateway.Factory
	converter amount.Converter
	methods   *method.Registry
	webhooks  *webhook.Service
	notifier  notify.Notifier
}

func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load configuration: %w", err)
	}

	logger := cfg.Logger.NewLogger()
	slog.SetDefault(logger)

	return cfg, logger, nil
}

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	if err := a.openStorage(ctx); err != nil {
		a.Close()
		return nil, err
	}

	a.converter = amount.NewDefault(cfg.Currency.DecimalOverrides, cfg.Currency.Fractionless)
	a.clients = gateway.NewFactory(logger)
	actions := executor.NewDefaultComposite(a.clients, a.repo, a.converter, logger)

	methodConfigs, err := cfg.PaymentMethodConfigs()
	if err != nil {
		a.Close()
		return nil, err
	}
	a.methods = method.NewGatewayRegistry(methodConfigs, method.ClientSettings{
		BaseURL:        cfg.Gateway.BaseURL,
		APIVersion:     cfg.Gateway.APIVersion,
		Timeout:        cfg.Gateway.Timeout,
		MaxRetries:     cfg.Retry.MaxRetries,
		RetryBaseDelay: cfg.Retry.BaseDelay,
	}, actions, a.repo, a.converter, logger)

	var processed webhook.ProcessedEventStore = webhook.NoopStore{}
	if cfg.Redis.Enabled {
		a.redisClient, err = redisstore.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			a.Close()
			return nil, err
		}
		processed = redisstore.NewProcessedEventStore(a.redisClient, cfg.Redis.ProcessedTTL, logger)
	}

	a.webhooks = webhook.NewService(
		webhook.NewEventFactory(a.methods, cfg.Webhook.Tolerance, logger),
		webhook.NewDispatcher(a.repo, logger),
		processed,
		logger,
	)

	if cfg.Kafka.Enabled {
		a.kafka = notify.NewKafkaNotifier(logger, cfg.Kafka.Brokers, cfg.Kafka.NotificationTopic)
		a.notifier = a.kafka
	} else {
		a.notifier = notify.NewLogNotifier(logger)
	}

	logger.Info("engine wired",
		"database_driver", cfg.Database.Driver,
		"payment_methods", len(methodConfigs),
		"redis", cfg.Redis.Enabled,
		"kafka", cfg.Kafka.Enabled,
	)

	return a, nil
}

func (a *app) openStorage(ctx context.Context) error {
	switch a.cfg.Database.Driver {
	case "memory":
		a.logger.Warn("using in-memory storage; state is lost on exit")
		a.repo = memory.NewTransactionRepository()
		a.queue = memory.NewJobQueue()
		return nil
	default:
		db, err := postgres.Connect(ctx, &a.cfg.Database, a.logger)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		a.db = db
		a.repo = postgres.NewTransactionRepository(db.Pool)
		a.queue = postgres.NewJobQueue(db.Pool)
		return nil
	}
}

func (a *app) reauthorizeConfig() reauthorize.Config {
	return reauthorize.Config{
		ChunkSize:        a.cfg.Reauthorization.ChunkSize,
		ExpirationWindow: a.cfg.Reauthorization.ExpirationWindow,
		CancelReason:     a.cfg.Reauthorization.CancelReason,
	}
}

func (a *app) newRunner() *jobs.Runner {
	runner := jobs.NewRunner(a.queue, jobs.RunnerConfig{
		Interval:    a.cfg.Worker.Interval,
		BatchSize:   a.cfg.Worker.BatchSize,
		MaxAttempts: a.cfg.Worker.MaxAttempts,
		RetryDelay:  a.cfg.Retry.BaseDelay,
	}, a.logger.With("component", "job_runner"))

	cfg := a.reauthorizeConfig()
	runner.Register(reauthorize.TopicInit,
		reauthorize.NewInitHandler(a.methods, a.repo, a.queue, cfg, a.logger.With("component", "reauthorize_init")))
	runner.Register(reauthorize.TopicChunk,
		reauthorize.NewChunkHandler(a.methods, a.repo, a.notifier, cfg, a.logger.With("component", "reauthorize_chunk")))

	return runner
}

func (a *app) Close() {
	if a.kafka != nil {
		if err := a.kafka.Close(); err != nil {
			a.logger.Error("failed to close kafka writer", "error", err)
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Error("failed to close redis client", "error", err)
		}
	}
	if a.db != nil {
		a.db.Close()
	}
}
