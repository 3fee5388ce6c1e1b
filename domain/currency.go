package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Currency describes how amounts are sent to the payment gateway.
type Currency struct {
	Code     string // ISO 4217 alpha, e.g. EUR
	Numeric  string // ISO 4217 numeric, sent as currencyCode
	Exponent int32  // digits of the minor unit
}

var currencies = map[string]Currency{
	"EUR": {Code: "EUR", Numeric: "978", Exponent: 2},
	"USD": {Code: "USD", Numeric: "840", Exponent: 2},
	"GBP": {Code: "GBP", Numeric: "826", Exponent: 2},
	"JPY": {Code: "JPY", Numeric: "392", Exponent: 0},
}

func LookupCurrency(code string) (Currency, error) {
	c, ok := currencies[strings.ToUpper(code)]
	if !ok {
		return Currency{}, fmt.Errorf("unsupported currency %q", code)
	}
	return c, nil
}

// MinorUnits converts an amount to the currency's minor unit, rounding half away from zero.
func (c Currency) MinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(c.Exponent).Round(0).IntPart()
}

// CurrencyByNumeric finds a supported currency by its ISO 4217 numeric code.
func CurrencyByNumeric(numeric string) (Currency, bool) {
	for _, c := range currencies {
		if c.Numeric == numeric {
			return c, true
		}
	}
	return Currency{}, false
}
