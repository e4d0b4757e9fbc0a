package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator"
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
)

const envPrefix = "ENGINE_"

type Config struct {
	Primary         Primary                      `koanf:"primary"`
	Server          ServerConfig                 `koanf:"server"`
	Database        DatabaseConfig               `koanf:"database" validate:"-"`
	Redis           RedisConfig                  `koanf:"redis"`
	Kafka           KafkaConfig                  `koanf:"kafka"`
	Gateway         GatewayConfig                `koanf:"gateway"`
	Retry           RetryConfig                  `koanf:"retry"`
	Logger          LoggerConfig                 `koanf:"logger"`
	Worker          WorkerConfig                 `koanf:"worker"`
	Reauthorization ReauthorizationConfig        `koanf:"reauthorization"`
	Webhook         WebhookConfig                `koanf:"webhook"`
	Currency        CurrencyConfig               `koanf:"currency"`
	Integrations    map[string]IntegrationConfig `koanf:"integrations" validate:"dive"`
}

type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

type ServerConfig struct {
	Port         string        `koanf:"port" validate:"required"`
	ReadTimeout  time.Duration `koanf:"read_timeout" validate:"required"`
	WriteTimeout time.Duration `koanf:"write_timeout" validate:"required"`
	IdleTimeout  time.Duration `koanf:"idle_timeout" validate:"required"`
}

type DatabaseConfig struct {
	Driver          string        `koanf:"driver"`
	Host            string        `koanf:"host" validate:"required"`
	Port            int           `koanf:"port" validate:"required"`
	User            string        `koanf:"user" validate:"required"`
	Password        string        `koanf:"password" validate:"required"`
	Name            string        `koanf:"name" validate:"required"`
	SSLMode         string        `koanf:"ssl_mode" validate:"required"`
	MaxOpenConns    int           `koanf:"max_open_conns" validate:"required"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime" validate:"required"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time" validate:"required"`
}

type RedisConfig struct {
	Enabled      bool          `koanf:"enabled"`
	Addr         string        `koanf:"addr"`
	Password     string        `koanf:"password"`
	DB           int           `koanf:"db"`
	ProcessedTTL time.Duration `koanf:"processed_ttl"`
}

type KafkaConfig struct {
	Enabled           bool     `koanf:"enabled"`
	Brokers           []string `koanf:"brokers"`
	NotificationTopic string   `koanf:"notification_topic"`
}

type GatewayConfig struct {
	BaseURL    string        `koanf:"base_url" validate:"required,url"`
	APIVersion string        `koanf:"api_version"`
	Timeout    time.Duration `koanf:"timeout" validate:"required"`
}

type RetryConfig struct {
	BaseDelay  time.Duration `koanf:"base_delay"`
	MaxRetries int           `koanf:"max_retries" validate:"min=1"`
}

type LoggerConfig struct {
	Level string `koanf:"level"`
}

type WorkerConfig struct {
	Interval    time.Duration `koanf:"interval" validate:"required"`
	BatchSize   int           `koanf:"batch_size" validate:"required,min=1"`
	MaxAttempts int           `koanf:"max_attempts" validate:"required,min=1"`
}

type ReauthorizationConfig struct {
	Enabled          bool          `koanf:"enabled"`
	Interval         time.Duration `koanf:"interval" validate:"required"`
	ChunkSize        int           `koanf:"chunk_size" validate:"required,min=1"`
	ExpirationWindow time.Duration `koanf:"expiration_window" validate:"required"`
	CancelReason     string        `koanf:"cancel_reason" validate:"required"`
}

type WebhookConfig struct {
	Tolerance time.Duration `koanf:"tolerance" validate:"required"`
}

type CurrencyConfig struct {
	DecimalOverrides map[string]int32 `koanf:"decimal_overrides"`
	Fractionless     []string         `koanf:"fractionless"`
}

// IntegrationConfig is the persisted form of one payment method's settings,
// keyed by the payment method identifier.
type IntegrationConfig struct {
	Enabled                bool     `koanf:"enabled"`
	Integration            string   `koanf:"integration" validate:"omitempty,oneof=card payment_element"`
	PublishableKey         string   `koanf:"publishable_key"`
	SecretKey              string   `koanf:"secret_key" validate:"required"`
	WebhookSecret          string   `koanf:"webhook_secret"`
	PaymentAction          string   `koanf:"payment_action" validate:"omitempty,oneof=manual automatic"`
	ReauthorizationAllowed bool     `koanf:"reauthorization_allowed"`
	ReauthorizationEmail   string   `koanf:"reauthorization_email" validate:"omitempty,email"`
	MinimumAmount          string   `koanf:"minimum_amount"`
	MaximumAmount          string   `koanf:"maximum_amount"`
	AllowedCurrencies      []string `koanf:"allowed_currencies"`
}

func defaults() map[string]any {
	return map[string]any{
		"primary.env":                        "development",
		"server.port":                        "8080",
		"server.read_timeout":                "15s",
		"server.write_timeout":               "15s",
		"server.idle_timeout":                "60s",
		"database.driver":                    "postgres",
		"database.ssl_mode":                  "disable",
		"database.max_open_conns":            10,
		"database.max_idle_conns":            2,
		"database.conn_max_lifetime":         "1h",
		"database.conn_max_idle_time":        "30m",
		"redis.addr":                         "localhost:6379",
		"redis.processed_ttl":                "72h",
		"kafka.notification_topic":           "payment.notifications",
		"gateway.base_url":                   "https://api.stripe.com",
		"gateway.api_version":                "2024-06-20",
		"gateway.timeout":                    "30s",
		"retry.base_delay":                   "500ms",
		"retry.max_retries":                  3,
		"logger.level":                       "info",
		"worker.interval":                    "5s",
		"worker.batch_size":                  10,
		"worker.max_attempts":                3,
		"reauthorization.enabled":            true,
		"reauthorization.interval":           "1h",
		"reauthorization.chunk_size":         10,
		"reauthorization.expiration_window":  "164h",
		"reauthorization.cancel_reason":      "abandoned",
		"webhook.tolerance":                  "300s",
	}
}

func LoadConfig() (*Config, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		logger.Error("failed to load default configuration", "error", err)
		return nil, err
	}

	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(
			strings.ToLower(strings.TrimPrefix(s, envPrefix)),
			"__",
			".",
		)
	}), nil)
	if err != nil {
		logger.Error("failed to load environment variables", "error", err)
		return nil, err
	}

	mainConfig := &Config{}

	err = k.Unmarshal("", mainConfig)
	if err != nil {
		logger.Error("could not unmarshal main config", "error", err)
		return nil, err
	}

	if err := mainConfig.Validate(); err != nil {
		logger.Error("config validation failed", "error", err)
		return nil, err
	}

	return mainConfig, nil
}

// Validate checks struct rules plus the database section when Postgres is selected.
func (c *Config) Validate() error {
	validate := validator.New()

	if err := validate.Struct(c); err != nil {
		return err
	}

	switch c.Database.Driver {
	case "postgres":
		if err := validate.Struct(c.Database); err != nil {
			return err
		}
	case "memory":
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}

	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka is enabled but no brokers are configured")
	}

	return nil
}
