package method

import (
	"log/slog"
	"sort"
	"time"

	"github.com/DanielPopoola/ficmart-payment-engine/internal/amount"
	"github.com/DanielPopoola/ficmart-payment-engine/internal/domain"
	"github.com/DanielPopoola/ficmart-payment-engine/internal/infrastructure/gateway"
)

// Registry holds the configured payment methods by identifier.
type Registry struct {
	methods map[string]Method
}

func NewRegistry(methods ...Method) *Registry {
	r := &Registry{methods: make(map[string]Method, len(methods))}
	for _, m := range methods {
		r.methods[m.Identifier()] = m
	}
	return r
}

// ClientSettings are the transport settings shared by every method's client.
type ClientSettings struct {
	BaseURL        string
	APIVersion     string
	Timeout        time.Duration
	MaxRetries     int
	RetryBaseDelay time.Duration
}

// NewGatewayRegistry builds one GatewayMethod per configuration.
func NewGatewayRegistry(
	configs []domain.PaymentMethodConfig,
	settings ClientSettings,
	actions ActionExecutor,
	repo TransactionStore,
	converter amount.Converter,
	logger *slog.Logger,
) *Registry {
	methods := make([]Method, 0, len(configs))
	for _, cfg := range configs {
		client := gateway.Config{
			SecretKey:      cfg.SecretKey,
			APIVersion:     settings.APIVersion,
			BaseURL:        settings.BaseURL,
			Timeout:        settings.Timeout,
			MaxRetries:     settings.MaxRetries,
			RetryBaseDelay: settings.RetryBaseDelay,
		}
		methods = append(methods, NewGatewayMethod(cfg, client, actions, repo, converter, logger))
	}
	return NewRegistry(methods...)
}

func (r *Registry) Get(identifier string) (Method, error) {
	m, ok := r.methods[identifier]
	if !ok {
		return nil, domain.NewPaymentMethodMissingError(identifier)
	}
	return m, nil
}

// All returns the methods ordered by identifier.
func (r *Registry) All() []Method {
	ids := make([]string, 0, len(r.methods))
	for id := range r.methods {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	methods := make([]Method, 0, len(ids))
	for _, id := range ids {
		methods = append(methods, r.methods[id])
	}
	return methods
}

// Enabled returns the enabled methods ordered by identifier.
func (r *Registry) Enabled() []Method {
	var enabled []Method
	for _, m := range r.All() {
		if m.Config().Enabled {
			enabled = append(enabled, m)
		}
	}
	return enabled
}
