package amount

import (
	"github.com/DanielPopoola/ficmart-payment-engine/internal/domain"
	"github.com/shopspring/decimal"
)

// DefaultFractionlessCurrencies are nominally two-decimal but only accept whole amounts.
var DefaultFractionlessCurrencies = []string{"HUF", "ISK", "TWD", "UGX"}

// FractionlessConverter encodes with two decimals and rejects fractional amounts.
type FractionlessConverter struct {
	currencies map[string]struct{}
}

func NewFractionlessConverter(currencies ...string) *FractionlessConverter {
	if len(currencies) == 0 {
		currencies = DefaultFractionlessCurrencies
	}
	set := make(map[string]struct{}, len(currencies))
	for _, c := range currencies {
		set[normalize(c)] = struct{}{}
	}
	return &FractionlessConverter{currencies: set}
}

func (c *FractionlessConverter) IsApplicable(currency string) bool {
	_, ok := c.currencies[normalize(currency)]
	return ok
}

func (c *FractionlessConverter) ToMinorUnits(amount decimal.Decimal, currency string) (int64, error) {
	if amount.IsNegative() {
		return 0, domain.NewInvalidAmountError(amount.String(), "amount must not be negative")
	}
	if !amount.Equal(amount.Truncate(0)) {
		return 0, domain.NewInvalidAmountError(amount.String(), currency+" does not support fractional amounts")
	}
	return toMinor(amount, 2)
}

func (c *FractionlessConverter) FromMinorUnits(amount int64, currency string) (decimal.Decimal, error) {
	return fromMinor(amount, 2), nil
}
