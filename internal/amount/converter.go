// Package amount converts decimal amounts to and from the Gateway's minor-unit integers.
package amount

import (
	"strings"

	"github.com/DanielPopoola/ficmart-payment-engine/internal/domain"
	"github.com/shopspring/decimal"
)

type Converter interface {
	IsApplicable(currency string) bool
	ToMinorUnits(amount decimal.Decimal, currency string) (int64, error)
	FromMinorUnits(amount int64, currency string) (decimal.Decimal, error)
}

// Composite delegates to the first applicable converter.
type Composite struct {
	converters []Converter
}

func NewComposite(converters ...Converter) *Composite {
	return &Composite{converters: converters}
}

// NewDefault builds the converter chain used by the engine: fraction-less
// currencies first, then configured overrides, then the standard table.
func NewDefault(overrides map[string]int32, fractionless []string) *Composite {
	return NewComposite(
		NewFractionlessConverter(fractionless...),
		NewOverrideConverter(overrides),
		NewStandardConverter(),
	)
}

func (c *Composite) IsApplicable(currency string) bool {
	return c.find(currency) != nil
}

func (c *Composite) ToMinorUnits(amount decimal.Decimal, currency string) (int64, error) {
	conv := c.find(currency)
	if conv == nil {
		return 0, domain.NewUnsupportedCurrencyError(currency)
	}
	return conv.ToMinorUnits(amount, currency)
}

func (c *Composite) FromMinorUnits(amount int64, currency string) (decimal.Decimal, error) {
	conv := c.find(currency)
	if conv == nil {
		return decimal.Zero, domain.NewUnsupportedCurrencyError(currency)
	}
	return conv.FromMinorUnits(amount, currency)
}

func (c *Composite) find(currency string) Converter {
	for _, conv := range c.converters {
		if conv.IsApplicable(currency) {
			return conv
		}
	}
	return nil
}

func toMinor(amount decimal.Decimal, places int32) (int64, error) {
	if amount.IsNegative() {
		return 0, domain.NewInvalidAmountError(amount.String(), "amount must not be negative")
	}

	// Round is half away from zero, which is half-up for non-negative values.
	minor := amount.Shift(places).Round(0)
	if !minor.BigInt().IsInt64() {
		return 0, domain.NewInvalidAmountError(amount.String(), "amount is out of range")
	}
	return minor.IntPart(), nil
}

func fromMinor(amount int64, places int32) decimal.Decimal {
	return decimal.New(amount, -places)
}

func normalize(currency string) string {
	return strings.ToUpper(strings.TrimSpace(currency))
}
