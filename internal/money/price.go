package money

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// RawPrice carries every price shape a product record may have been stored
// with. NormalizeMinor picks the canonical one.
type RawPrice struct {
	Cents      *int64 `json:"priceCents,omitempty"`
	SnakeCents *int64 `json:"price_cents,omitempty"`
	Major      *Major `json:"price,omitempty"`
}

// Major is a decimal amount in major units. It decodes from a JSON number or
// string and accepts a comma as decimal separator.
type Major string

func (m *Major) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*m = Major(s)
		return nil
	}
	*m = Major(b)
	return nil
}

// NormalizeMinor returns the price in minor units: priceCents first, then
// price_cents, then price×100 rounded. Anything unusable yields 0.
func NormalizeMinor(p RawPrice) int64 {
	switch {
	case p.Cents != nil:
		return *p.Cents
	case p.SnakeCents != nil:
		return *p.SnakeCents
	case p.Major != nil:
		s := strings.TrimSpace(strings.Replace(string(*p.Major), ",", ".", 1))
		d, err := decimal.NewFromString(s)
		if err != nil {
			return 0
		}
		return d.Shift(2).Round(0).IntPart()
	}
	return 0
}

func Cents(v int64) RawPrice {
	return RawPrice{Cents: &v}
}

// MulCents returns unit*qty, or false when either is negative or the product
// does not fit in int64.
func MulCents(unit int64, qty int) (int64, bool) {
	if unit < 0 || qty < 0 {
		return 0, false
	}
	if qty == 0 || unit == 0 {
		return 0, true
	}
	if unit > math.MaxInt64/int64(qty) {
		return 0, false
	}
	return unit * int64(qty), true
}

// AddCents returns a+b, or false when either is negative or the sum
// overflows.
func AddCents(a, b int64) (int64, bool) {
	if a < 0 || b < 0 || a > math.MaxInt64-b {
		return 0, false
	}
	return a + b, true
}
