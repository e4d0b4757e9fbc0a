package gateway

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// Config is the credential and transport configuration of one client.
type Config struct {
	SecretKey      string
	APIVersion     string
	BaseURL        string
	Timeout        time.Duration
	MaxRetries     int
	RetryBaseDelay time.Duration
}

// Hash identifies configurations that can share a client.
func (c Config) Hash() string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%s|%d|%d|%d",
		c.SecretKey, c.APIVersion, c.BaseURL, c.Timeout, c.MaxRetries, c.RetryBaseDelay)))
	return hex.EncodeToString(sum[:])
}

// Factory builds retrying Gateway clients and caches them per configuration hash.
type Factory struct {
	mu         sync.Mutex
	clients    map[string]Client
	mutators   []RequestMutator
	httpClient *http.Client
	logger     *slog.Logger
}

type FactoryOption func(*Factory)

// WithRequestMutators registers mutators; they run in registration order.
func WithRequestMutators(mutators ...RequestMutator) FactoryOption {
	return func(f *Factory) {
		f.mutators = append(f.mutators, mutators...)
	}
}

// WithHTTPClient overrides the transport used by every client the factory builds.
func WithHTTPClient(httpClient *http.Client) FactoryOption {
	return func(f *Factory) {
		f.httpClient = httpClient
	}
}

func NewFactory(logger *slog.Logger, opts ...FactoryOption) *Factory {
	f := &Factory{
		clients: make(map[string]Client),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Client returns the cached client for cfg, creating it on first use.
func (f *Factory) Client(cfg Config) Client {
	key := cfg.Hash()

	f.mu.Lock()
	defer f.mu.Unlock()

	if client, ok := f.clients[key]; ok {
		return client
	}

	mutators := make([]RequestMutator, len(f.mutators))
	copy(mutators, f.mutators)

	httpClient := NewHTTPClient(cfg, f.httpClient, mutators, f.logger.With("component", "gateway_client"))
	client := NewRetryClient(httpClient, cfg.RetryBaseDelay, cfg.MaxRetries)
	f.clients[key] = client

	return client
}

// Use registers an additional mutator. Cached clients keep the mutators they
// were built with until Reset.
func (f *Factory) Use(mutator RequestMutator) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mutators = append(f.mutators, mutator)
}

// Reset drops every cached client.
func (f *Factory) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clients = make(map[string]Client)
}
