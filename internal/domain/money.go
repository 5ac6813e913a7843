package domain

import "github.com/shopspring/decimal"

// MoneyScale is the number of fractional digits stored for every amount and
// balance (NUMERIC(20,8)).
const MoneyScale = 8

// MaxAmount is the largest value a money column holds.
var MaxAmount = decimal.New(1, 12).Sub(decimal.New(1, -MoneyScale))

// ValidAmount reports whether amount is positive, fits the stored range and
// has no more than MoneyScale fractional digits.
func ValidAmount(amount decimal.Decimal) bool {
	return amount.IsPositive() &&
		amount.LessThanOrEqual(MaxAmount) &&
		amount.Equal(amount.Truncate(MoneyScale))
}
