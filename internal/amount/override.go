package amount

import "github.com/shopspring/decimal"

// OverrideConverter uses operator-configured decimal places per currency.
type OverrideConverter struct {
	places map[string]int32
}

func NewOverrideConverter(places map[string]int32) *OverrideConverter {
	normalized := make(map[string]int32, len(places))
	for code, p := range places {
		normalized[normalize(code)] = p
	}
	return &OverrideConverter{places: normalized}
}

func (c *OverrideConverter) IsApplicable(currency string) bool {
	_, ok := c.places[normalize(currency)]
	return ok
}

func (c *OverrideConverter) ToMinorUnits(amount decimal.Decimal, currency string) (int64, error) {
	return toMinor(amount, c.places[normalize(currency)])
}

func (c *OverrideConverter) FromMinorUnits(amount int64, currency string) (decimal.Decimal, error) {
	return fromMinor(amount, c.places[normalize(currency)]), nil
}
