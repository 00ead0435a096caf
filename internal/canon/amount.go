package canon

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a raw amount cell into an exact decimal value.
// Thousands separators and interior spaces are stripped first, so
// "1,234.56" and "1 234.56" both parse to 1234.56. A leading minus is
// preserved. Empty input and anything decimal.NewFromString rejects
// return an error.
func ParseAmount(raw string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	if cleaned == "" {
		return decimal.Decimal{}, fmt.Errorf("empty amount")
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse amount %q: %w", raw, err)
	}
	return d, nil
}

// FormatAmount renders a decimal with exactly two fraction digits,
// the only amount representation canonical records and journal entries
// carry. Rounding is half away from zero.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
