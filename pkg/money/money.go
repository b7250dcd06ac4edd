// Package money normalizes monetary values to a fixed two-decimal
// representation. Every derived amount in the ledger passes through Round2
// exactly once per computation step, so repeated recalculation never
// accumulates floating-point drift.
package money

import (
	"math"

	"github.com/shopspring/decimal"
)

// Round2 rounds x to the nearest cent, half away from zero.
// It is idempotent: Round2(Round2(x)) == Round2(x).
// NaN and infinite inputs are treated as 0 so partially-loaded documents
// never poison a recalculation.
func Round2(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	f, _ := decimal.NewFromFloat(x).Round(2).Float64()
	return f
}

// Sum adds the given amounts with exact decimal arithmetic and rounds the
// result once. Amounts follow the signed convention: positive is money in,
// negative is money out.
func Sum(xs ...float64) float64 {
	total := decimal.Zero
	for _, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			continue
		}
		total = total.Add(decimal.NewFromFloat(x))
	}
	f, _ := total.Round(2).Float64()
	return f
}

// Add returns round2(a + b). Convenience for running-balance arithmetic.
func Add(a, b float64) float64 {
	return Sum(a, b)
}
