package engine

import "github.com/shopspring/decimal"

// DefaultCommissionRate applies whenever the configured rate is unset or
// outside (0, 1].
const DefaultCommissionRate = 0.05

// amountTolerance bounds the accepted difference between a submitted
// proof amount and the computed commission.
var amountTolerance = decimal.NewFromFloat(0.01)

// Commission returns the fee owed by an auctioneer for a winning amount,
// rounded to two decimal places. It is a pure function: same inputs, same
// output, no side effects. An invalid rate falls back to the default
// rather than erroring.
func Commission(winningAmount int64, rate float64) decimal.Decimal {
	if rate <= 0 || rate > 1 {
		rate = DefaultCommissionRate
	}
	return decimal.NewFromInt(winningAmount).Mul(decimal.NewFromFloat(rate)).Round(2)
}
