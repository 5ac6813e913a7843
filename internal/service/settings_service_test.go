package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"investment-ledger/internal/domain"
	"investment-ledger/internal/repository/memory"
)

func TestSettingsDefaultsAndUpdate(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(5, zap.NewNop())
	svc := NewSettingsService(store, nil, 0, zap.NewNop())

	settings, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSettings().SiteName, settings.SiteName)

	updated, err := svc.Update(ctx, admin, domain.Settings{SiteName: "Ledger", WalletBTC: "bc1qnewaddress"})
	require.NoError(t, err)
	assert.Equal(t, "Ledger", updated.SiteName)
	assert.Equal(t, "bc1qnewaddress", updated.WalletBTC)
	assert.Equal(t, domain.DefaultSettings().WalletETH, updated.WalletETH)

	settings, err = svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Ledger", settings.SiteName)
	assert.False(t, settings.UpdatedAt.IsZero())
}

func TestPlanServiceListsTable(t *testing.T) {
	svc := NewPlanService(domain.NewPlanTable(domain.DefaultPlans()))
	plans := svc.ListPlans()
	require.Len(t, plans, 3)
	assert.Equal(t, "starter", plans[0].ID)
	assert.True(t, plans[1].Popular)
}

func TestDashboard(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(5, zap.NewNop())
	for _, id := range []string{"u1", "u2"} {
		require.NoError(t, store.Accounts().CreateAccount(ctx, domain.NewAccount(id, id+"@example.com")))
	}

	for _, d := range []struct {
		amount string
		status domain.RequestStatus
	}{
		{"100", domain.StatusApproved},
		{"50", domain.StatusApproved},
		{"70", domain.StatusPending},
		{"999", domain.StatusRejected},
	} {
		require.NoError(t, store.Deposits().CreateDeposit(ctx, &domain.Deposit{
			ID: uuid.New(), UserID: "u1", Amount: dec(d.amount), Status: d.status,
		}))
	}
	require.NoError(t, store.Withdrawals().CreateWithdrawal(ctx, &domain.Withdrawal{
		ID: uuid.New(), UserID: "u1", Amount: dec("30"), Status: domain.StatusApproved,
	}))
	require.NoError(t, store.Withdrawals().CreateWithdrawal(ctx, &domain.Withdrawal{
		ID: uuid.New(), UserID: "u1", Amount: dec("10"), Status: domain.StatusPending,
	}))
	require.NoError(t, store.Investments().CreateInvestment(ctx, &domain.Investment{
		ID: uuid.New(), UserID: "u2", Amount: dec("60"), Status: domain.InvestmentActive,
	}))

	stats, err := NewStatsService(store, zap.NewNop()).Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalUsers)
	assert.True(t, stats.TotalDeposits.Equal(dec("150")))
	assert.True(t, stats.TotalWithdrawals.Equal(dec("30")))
	assert.Equal(t, 1, stats.PendingDeposits)
	assert.Equal(t, 1, stats.PendingWithdrawals)
	assert.Equal(t, 1, stats.ActiveInvestments)
	assert.True(t, stats.TotalInvestedAmount.Equal(dec("60")))
}
