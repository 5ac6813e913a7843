package service

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"investment-ledger/internal/domain"
)

type Dashboard struct {
	TotalUsers          int             `json:"total_users"`
	TotalDeposits       decimal.Decimal `json:"total_deposits"`
	TotalWithdrawals    decimal.Decimal `json:"total_withdrawals"`
	ActiveInvestments   int             `json:"active_investments"`
	PendingDeposits     int             `json:"pending_deposits"`
	PendingWithdrawals  int             `json:"pending_withdrawals"`
	TotalInvestedAmount decimal.Decimal `json:"total_invested_amount"`
}

type StatsService struct {
	store  domain.Store
	logger *zap.Logger
}

func NewStatsService(store domain.Store, logger *zap.Logger) *StatsService {
	return &StatsService{store: store, logger: logger}
}

// Dashboard aggregates the admin overview. Deposit and withdrawal totals
// count approved requests only.
func (s *StatsService) Dashboard(ctx context.Context) (*Dashboard, error) {
	accounts, err := s.store.Accounts().ListAccounts(ctx, domain.AccountFilter{})
	if err != nil {
		return nil, err
	}
	deposits, err := s.store.Deposits().ListDeposits(ctx, domain.RequestFilter{})
	if err != nil {
		return nil, err
	}
	withdrawals, err := s.store.Withdrawals().ListWithdrawals(ctx, domain.RequestFilter{})
	if err != nil {
		return nil, err
	}
	investments, err := s.store.Investments().ListInvestments(ctx, domain.InvestmentFilter{Status: domain.InvestmentActive})
	if err != nil {
		return nil, err
	}

	d := &Dashboard{
		TotalUsers:          len(accounts),
		TotalDeposits:       decimal.Zero,
		TotalWithdrawals:    decimal.Zero,
		ActiveInvestments:   len(investments),
		TotalInvestedAmount: decimal.Zero,
	}
	for _, dep := range deposits {
		switch dep.Status {
		case domain.StatusApproved:
			d.TotalDeposits = d.TotalDeposits.Add(dep.Amount)
		case domain.StatusPending:
			d.PendingDeposits++
		}
	}
	for _, w := range withdrawals {
		switch w.Status {
		case domain.StatusApproved:
			d.TotalWithdrawals = d.TotalWithdrawals.Add(w.Amount)
		case domain.StatusPending:
			d.PendingWithdrawals++
		}
	}
	for _, inv := range investments {
		d.TotalInvestedAmount = d.TotalInvestedAmount.Add(inv.Amount)
	}

	s.logger.Debug("Dashboard computed",
		zap.Int("total_users", d.TotalUsers),
		zap.Int("pending_deposits", d.PendingDeposits),
		zap.Int("pending_withdrawals", d.PendingWithdrawals))
	return d, nil
}
