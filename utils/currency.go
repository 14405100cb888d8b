package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatCurrencyIDR memformat nominal ke format Rupiah
// Example: 15000.50 -> "Rp 15.000,50"
func FormatCurrencyIDR(amount decimal.Decimal) string {
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Neg()
	}

	rounded := amount.Round(2)
	integerPart := rounded.Truncate(0)
	fraction := rounded.Sub(integerPart)

	// Tambahkan pemisah ribuan
	digits := integerPart.String()
	var groups []string
	for i := len(digits); i > 0; i -= 3 {
		start := i - 3
		if start < 0 {
			start = 0
		}
		groups = append([]string{digits[start:i]}, groups...)
	}
	result := "Rp " + sign + strings.Join(groups, ".")

	if fraction.IsPositive() {
		cents := fraction.Shift(2).StringFixed(0)
		if len(cents) < 2 {
			cents = "0" + cents
		}
		result += "," + cents
	}
	return result
}
