package common

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a monetary value as it travels in JSON bodies. It emits a plain
// number with exactly two fractional digits and accepts both numeric and
// quoted-string input.
type Amount struct {
	decimal.Decimal
}

// NewAmount wraps a decimal for JSON transport.
func NewAmount(d decimal.Decimal) Amount {
	return Amount{d}
}

// MarshalJSON encodes the amount as an unquoted number with two decimals.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.StringFixed(2)), nil
}

// UnmarshalJSON decodes a numeric or quoted amount.
func (a *Amount) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	parsed, err := decimal.NewFromString(raw)
	if err != nil {
		return err
	}
	a.Decimal = parsed
	return nil
}
