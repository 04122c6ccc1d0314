// money.go provides parsing and validation helpers for monetary amounts, which
// are handled as fixed-point decimals everywhere to avoid float rounding.
package validation

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ParseAmount parses a monetary amount from its string form and verifies it is
// strictly positive with at most two decimal places.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount: %w", err)
	}
	if err := ValidateAmount(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// ValidateAmount verifies an amount is strictly positive with at most two
// decimal places.
func ValidateAmount(d decimal.Decimal) error {
	if !d.IsPositive() {
		return fmt.Errorf("amount must be greater than zero")
	}
	if d.Exponent() < -2 {
		return fmt.Errorf("amount must have at most two decimal places")
	}
	return nil
}
