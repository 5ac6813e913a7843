package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanAcceptsInclusiveBounds(t *testing.T) {
	table := NewPlanTable(DefaultPlans())
	starter, ok := table.Get("starter")
	require.True(t, ok)

	tests := []struct {
		amount string
		want   bool
	}{
		{"49.99", false},
		{"50", true},
		{"500", true},
		{"999", true},
		{"999.01", false},
	}
	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			assert.Equal(t, tt.want, starter.Accepts(decimal.RequireFromString(tt.amount)))
		})
	}
}

func TestPlanTable(t *testing.T) {
	table := NewPlanTable(DefaultPlans())

	_, ok := table.Get("missing")
	assert.False(t, ok)

	all := table.All()
	require.Len(t, all, 3)
	assert.Equal(t, []string{"starter", "premium", "business"}, []string{all[0].ID, all[1].ID, all[2].ID})

	all[0].Name = "changed"
	assert.Equal(t, "Starter Plan", table.All()[0].Name)
}

func TestReferralEligible(t *testing.T) {
	account := NewAccount("u1", "u1@example.com")
	assert.False(t, ReferralEligible(account), "no referrer")

	account.ReferredBy = "u0"
	assert.True(t, ReferralEligible(account))

	account.TotalInvested = decimal.NewFromInt(1)
	assert.False(t, ReferralEligible(account), "already invested")
}

func TestReferralBonus(t *testing.T) {
	tests := []struct {
		amount string
		want   string
	}{
		{"125", "12.5"},
		{"1000", "100"},
		{"1.00000005", "0.10000001"},
		{"0.00000004", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			bonus := ReferralBonus(decimal.RequireFromString(tt.amount))
			assert.True(t, decimal.RequireFromString(tt.want).Equal(bonus), "got %s", bonus)
			assert.GreaterOrEqual(t, bonus.Exponent(), int32(-MoneyScale))
		})
	}
}

func TestValidAmount(t *testing.T) {
	tests := []struct {
		amount string
		want   bool
	}{
		{"1", true},
		{"0.00000001", true},
		{"1.10000000", true},
		{"999999999999.99999999", true},
		{"0", false},
		{"-5", false},
		{"0.000000001", false},
		{"1.00000005", true},
		{"1.000000005", false},
		{"1000000000000", false},
		{"1e30", false},
		{"1e-9", false},
	}
	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidAmount(decimal.RequireFromString(tt.amount)))
		})
	}
}

func TestSettingsMerge(t *testing.T) {
	now := time.Now()
	merged := DefaultSettings().Merge(Settings{WalletBTC: "bc1qnew", UpdatedAt: now})

	assert.Equal(t, "bc1qnew", merged.WalletBTC)
	assert.Equal(t, DefaultSettings().WalletETH, merged.WalletETH)
	assert.Equal(t, now, merged.UpdatedAt)
}

func TestSettingsWalletFor(t *testing.T) {
	s := DefaultSettings()
	assert.Equal(t, s.WalletBTC, s.WalletFor(CurrencyBTC))
	assert.Equal(t, s.WalletETH, s.WalletFor(CurrencyETH))
	assert.Equal(t, s.WalletUSDT, s.WalletFor(CurrencyUSDT))
	assert.Empty(t, s.WalletFor(Currency("DOGE")))
}

func TestStatusValidation(t *testing.T) {
	assert.True(t, StatusApproved.Terminal())
	assert.True(t, StatusRejected.Terminal())
	assert.False(t, StatusPending.Terminal())
	assert.False(t, RequestStatus("completed").Terminal())

	assert.True(t, MethodBank.Valid())
	assert.False(t, WithdrawalMethod("PAYPAL").Valid())
	assert.True(t, CurrencyUSDT.Valid())
	assert.False(t, Currency("usdt").Valid())

	assert.True(t, AccountBanned.Valid())
	assert.False(t, AccountStatus("frozen").Valid())
}

func TestNewAccount(t *testing.T) {
	account := NewAccount("u1", "u1@example.com")
	assert.Equal(t, RoleUser, account.Role)
	assert.True(t, account.IsActive())
	assert.False(t, account.IsAdmin())
	assert.True(t, account.Balance.IsZero())
}
