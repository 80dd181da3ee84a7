package handler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	errAmountNotNumeric  = errors.New("must be a number")
	errAmountNotIntegral = errors.New("must be a whole number of minor units")
	errAmountOutOfRange  = errors.New("is out of range")
)

// Amount is an integer amount in minor units. It decodes from a JSON number
// or a numeric string.
type Amount int64

// UnmarshalJSON implements json.Unmarshaler
func (a *Amount) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(data)), `"`)
	v, err := parseAmount(raw)
	if err != nil {
		return fmt.Errorf("amount %w", err)
	}
	*a = Amount(v)
	return nil
}

// parseAmount parses an integral minor-unit amount
func parseAmount(raw string) (int64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return 0, errAmountNotNumeric
	}
	if !d.IsInteger() {
		return 0, errAmountNotIntegral
	}
	v := d.IntPart()
	if !decimal.NewFromInt(v).Equal(d) {
		return 0, errAmountOutOfRange
	}
	return v, nil
}
