// Package money converts and formats minor-unit amounts between the two
// storefront currencies and normalizes legacy product price shapes.
package money

import (
	"fmt"

	"github.com/andreasstove999/storefront-go/internal/apperr"
	"github.com/shopspring/decimal"
)

type Currency string

const (
	MAD Currency = "MAD"
	EUR Currency = "EUR"
)

// DefaultCurrency is used when a cart has no lines to take a currency from.
const DefaultCurrency = EUR

const (
	MarketMA = "MA"
	MarketFR = "FR"
)

// rates holds the value of one unit of each currency in EUR. Rates are fixed
// and updated by hand.
var rates = map[Currency]decimal.Decimal{
	EUR: decimal.NewFromInt(1),
	MAD: decimal.RequireFromString("0.091"),
}

// CurrencyForMarket selects the settlement currency for a market code.
// FR settles in EUR; every other value, known or not, settles in MAD.
func CurrencyForMarket(market string) Currency {
	if market == MarketFR {
		return EUR
	}
	return MAD
}

func ParseCurrency(s string) (Currency, error) {
	c := Currency(s)
	if _, ok := rates[c]; !ok {
		return "", apperr.Validation("unsupported currency %q", s)
	}
	return c, nil
}

// Convert converts an amount in minor units from one currency to another,
// rounding half away from zero. It is the identity when from == to.
func Convert(amountMinor int64, from, to Currency) (int64, error) {
	fromRate, ok := rates[from]
	if !ok {
		return 0, apperr.Validation("unsupported currency %q", from)
	}
	toRate, ok := rates[to]
	if !ok {
		return 0, apperr.Validation("unsupported currency %q", to)
	}
	if from == to {
		return amountMinor, nil
	}

	return decimal.NewFromInt(amountMinor).
		Mul(fromRate).
		Div(toRate).
		Round(0).
		IntPart(), nil
}

// Format renders a minor-unit amount for display, e.g. "12.50 EUR".
func Format(amountMinor int64, c Currency) string {
	return fmt.Sprintf("%s %s", decimal.New(amountMinor, -2).StringFixed(2), c)
}
