package config

import (
	"fmt"
	"sort"

	"github.com/DanielPopoola/ficmart-payment-engine/internal/domain"
	"github.com/shopspring/decimal"
)

// PaymentMethodConfigs converts the integrations section into domain snapshots,
// sorted by identifier so webhook secrets are always tried in the same order.
func (c *Config) PaymentMethodConfigs() ([]domain.PaymentMethodConfig, error) {
	ids := make([]string, 0, len(c.Integrations))
	for id := range c.Integrations {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	configs := make([]domain.PaymentMethodConfig, 0, len(ids))
	for _, id := range ids {
		ic := c.Integrations[id]

		pmc := domain.PaymentMethodConfig{
			Identifier:             id,
			Enabled:                ic.Enabled,
			Integration:            domain.Integration(ic.Integration),
			PublishableKey:         ic.PublishableKey,
			SecretKey:              ic.SecretKey,
			WebhookSecret:          ic.WebhookSecret,
			PaymentAction:          domain.PaymentAction(ic.PaymentAction),
			ReauthorizationAllowed: ic.ReauthorizationAllowed,
			ReauthorizationEmail:   ic.ReauthorizationEmail,
			AllowedCurrencies:      ic.AllowedCurrencies,
		}
		if pmc.Integration == "" {
			pmc.Integration = domain.IntegrationCard
		}
		if pmc.PaymentAction == "" {
			pmc.PaymentAction = domain.PaymentActionAutomatic
		}

		var err error
		if pmc.MinimumAmount, err = parseBound(ic.MinimumAmount); err != nil {
			return nil, fmt.Errorf("integration %s minimum_amount: %w", id, err)
		}
		if pmc.MaximumAmount, err = parseBound(ic.MaximumAmount); err != nil {
			return nil, fmt.Errorf("integration %s maximum_amount: %w", id, err)
		}

		configs = append(configs, pmc)
	}

	return configs, nil
}

func parseBound(raw string) (decimal.NullDecimal, error) {
	if raw == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}
