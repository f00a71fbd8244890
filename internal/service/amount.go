package service

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// NormalizeAmount rounds half away from zero to whole units. Zero, negative and
// amounts that round down to zero are rejected.
func NormalizeAmount(amount decimal.Decimal) (int64, error) {
	if !amount.IsPositive() {
		return 0, fmt.Errorf("%w: %s", ErrInvalidAmount, amount.String())
	}

	rounded := amount.Round(0)
	if !rounded.IsPositive() {
		return 0, fmt.Errorf("%w: %s rounds to zero", ErrInvalidAmount, amount.String())
	}

	if rounded.GreaterThan(decimal.NewFromInt(1 << 53)) {
		return 0, fmt.Errorf("%w: %s is out of range", ErrInvalidAmount, amount.String())
	}

	return rounded.IntPart(), nil
}
