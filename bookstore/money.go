package bookstore

import "github.com/shopspring/decimal"

// Amounts are stored as float64 to match the persisted schema; arithmetic
// goes through decimal so that repeated sums do not drift.

// Multiply returns price * qty.
func Multiply(price float64, qty int) float64 {
	return decimal.NewFromFloat(price).Mul(decimal.NewFromInt(int64(qty))).InexactFloat64()
}

// Sum adds amounts.
func Sum(amounts ...float64) float64 {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(decimal.NewFromFloat(a))
	}
	return total.InexactFloat64()
}

// FormatMoney renders an amount with two decimals.
func FormatMoney(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}
