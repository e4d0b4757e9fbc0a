package domain_test

import (
	"testing"

	"github.com/DanielPopoola/ficmart-payment-engine/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTransaction(t *testing.T) {
	tx := domain.NewTransaction(domain.ActionPurchase, "gateway_card", decimal.RequireFromString("10.50"), "USD")

	assert.Equal(t, domain.ActionPurchase, tx.Action)
	assert.Equal(t, "gateway_card", tx.PaymentMethod)
	assert.True(t, decimal.RequireFromString("10.5").Equal(tx.Amount))
	assert.NotEmpty(t, tx.AccessToken)
	assert.False(t, tx.Active)
	assert.False(t, tx.Successful)
	assert.NotZero(t, tx.CreatedAt)
}

func TestPaymentTransaction_NewChild(t *testing.T) {
	parent := domain.NewTransaction(domain.ActionAuthorize, "gateway_card", decimal.NewFromInt(25), "EUR")
	parent.ID = 42
	parent.EntityIdentifier = "order-1"
	parent.Options.CustomerID = "cus_1"
	parent.Options.SetAdditional("locale", "en")

	child := parent.NewChild(domain.ActionCancel)

	require.NotNil(t, child.SourceTransactionID)
	assert.Equal(t, int64(42), *child.SourceTransactionID)
	assert.Equal(t, domain.ActionCancel, child.Action)
	assert.Equal(t, "order-1", child.EntityIdentifier)
	assert.Equal(t, "cus_1", child.Options.CustomerID)
	assert.NotEqual(t, parent.AccessToken, child.AccessToken)

	child.Options.SetAdditional("locale", "de")
	assert.Equal(t, "en", parent.Options.AdditionalData["locale"])
}

func TestPaymentTransaction_MatchesAccess(t *testing.T) {
	tx := domain.NewTransaction(domain.ActionPurchase, "gateway_card", decimal.NewFromInt(1), "USD")
	tx.ID = 7

	assert.True(t, tx.MatchesAccess(7, tx.AccessToken))
	assert.False(t, tx.MatchesAccess(8, tx.AccessToken))
	assert.False(t, tx.MatchesAccess(7, "other"))
	assert.False(t, tx.MatchesAccess(7, ""))
}

func TestPaymentTransaction_MarkFailed(t *testing.T) {
	tx := domain.NewTransaction(domain.ActionAuthorize, "gateway_card", decimal.NewFromInt(1), "USD")
	tx.Active = true
	tx.MarkSucceeded("pi_1")
	assert.True(t, tx.IsActiveAuthorization())
	assert.Equal(t, "pi_1", tx.Reference)

	tx.MarkFailed()

	assert.False(t, tx.Successful)
	assert.False(t, tx.Active)
	assert.False(t, tx.IsActiveAuthorization())
}

func TestTransactionOptions_Require(t *testing.T) {
	opts := domain.TransactionOptions{PaymentIntentID: "pi_1"}

	assert.NoError(t, opts.Require(domain.OptionPaymentIntentID))

	err := opts.Require(domain.OptionPaymentIntentID, domain.OptionCustomerID)
	require.Error(t, err)
	assert.True(t, domain.IsErrorCode(err, domain.ErrCodeLogic))
	assert.Contains(t, err.Error(), domain.OptionCustomerID)
}

func TestPaymentMethodConfig_IsApplicable(t *testing.T) {
	cfg := domain.PaymentMethodConfig{
		Enabled:           true,
		MinimumAmount:     decimal.NewNullDecimal(decimal.NewFromInt(1)),
		MaximumAmount:     decimal.NewNullDecimal(decimal.NewFromInt(100)),
		AllowedCurrencies: []string{"USD", "EUR"},
	}

	assert.True(t, cfg.IsApplicable(decimal.NewFromInt(50), "usd"))
	assert.False(t, cfg.IsApplicable(decimal.RequireFromString("0.5"), "USD"))
	assert.False(t, cfg.IsApplicable(decimal.NewFromInt(101), "USD"))
	assert.False(t, cfg.IsApplicable(decimal.NewFromInt(50), "JPY"))

	cfg.Enabled = false
	assert.False(t, cfg.IsApplicable(decimal.NewFromInt(50), "USD"))
}
