package domain

import "github.com/shopspring/decimal"

// ReferralBonusRate is the share of a referee's first approved deposit
// credited to the referrer.
var ReferralBonusRate = decimal.New(1, -1)

// ReferralBonus returns the bonus owed to a referrer for a deposit amount,
// rounded to MoneyScale.
func ReferralBonus(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(ReferralBonusRate).Round(MoneyScale)
}

// ReferralEligible reports whether approving a deposit for the referee, as
// captured before the approval is applied, pays a referral bonus.
func ReferralEligible(referee *Account) bool {
	return referee.ReferredBy != "" && referee.TotalInvested.IsZero()
}
