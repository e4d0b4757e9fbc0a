package amount

import "github.com/shopspring/decimal"

var zeroDecimalCurrencies = map[string]struct{}{
	"BIF": {}, "CLP": {}, "DJF": {}, "GNF": {}, "JPY": {},
	"KMF": {}, "KRW": {}, "MGA": {}, "PYG": {}, "RWF": {},
	"VND": {}, "VUV": {}, "XAF": {}, "XOF": {}, "XPF": {},
}

var threeDecimalCurrencies = map[string]struct{}{
	"BHD": {}, "JOD": {}, "KWD": {}, "OMR": {}, "TND": {},
}

// StandardConverter applies the Gateway's published decimal table to any
// three-letter currency code.
type StandardConverter struct{}

func NewStandardConverter() *StandardConverter {
	return &StandardConverter{}
}

func (c *StandardConverter) IsApplicable(currency string) bool {
	code := normalize(currency)
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

func (c *StandardConverter) ToMinorUnits(amount decimal.Decimal, currency string) (int64, error) {
	return toMinor(amount, DecimalPlaces(currency))
}

func (c *StandardConverter) FromMinorUnits(amount int64, currency string) (decimal.Decimal, error) {
	return fromMinor(amount, DecimalPlaces(currency)), nil
}

// DecimalPlaces returns the standard number of minor-unit digits for currency.
func DecimalPlaces(currency string) int32 {
	code := normalize(currency)
	if _, ok := zeroDecimalCurrencies[code]; ok {
		return 0
	}
	if _, ok := threeDecimalCurrencies[code]; ok {
		return 3
	}
	return 2
}
