package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"investment-ledger/internal/domain"
	"investment-ledger/internal/errors"
)

type AccountService struct {
	store  domain.Store
	logger *zap.Logger
}

func NewAccountService(store domain.Store, logger *zap.Logger) *AccountService {
	return &AccountService{
		store:  store,
		logger: logger,
	}
}

type RegisterRequest struct {
	Email          string
	FirstName      string
	LastName       string
	InvestmentGoal string
	ReferredBy     string
}

// Register creates the caller's account with zero balances.
func (s *AccountService) Register(ctx context.Context, actor domain.Actor, req RegisterRequest) (*domain.Account, error) {
	s.logger.Info("Registering account", zap.String("user_id", actor.UserID))

	email := strings.TrimSpace(req.Email)
	if email == "" {
		email = actor.Email
	}
	if !strings.Contains(email, "@") {
		return nil, errors.NewAppError(errors.InvalidInput, "a valid email is required")
	}

	referredBy := strings.TrimSpace(req.ReferredBy)
	if referredBy == actor.UserID && referredBy != "" {
		return nil, errors.NewAppError(errors.InvalidInput, "an account cannot refer itself")
	}
	if referredBy != "" {
		if _, err := s.store.Accounts().GetAccount(ctx, referredBy); err != nil {
			if errors.IsNotFound(err) {
				return nil, errors.ErrAccountNotFound.WithDetails("referrer " + referredBy + " does not exist")
			}
			return nil, err
		}
	}

	account := domain.NewAccount(actor.UserID, email)
	account.FirstName = strings.TrimSpace(req.FirstName)
	account.LastName = strings.TrimSpace(req.LastName)
	account.InvestmentGoal = strings.TrimSpace(req.InvestmentGoal)
	account.ReferredBy = referredBy

	if err := s.store.Accounts().CreateAccount(ctx, account); err != nil {
		return nil, err
	}

	s.logger.Info("Account registered", zap.String("user_id", account.ID), zap.String("referred_by", referredBy))
	return account, nil
}

func (s *AccountService) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	if id == "" {
		return nil, errors.NewAppError(errors.InvalidInput, "account id is required")
	}
	return s.store.Accounts().GetAccount(ctx, id)
}

// IsAdmin reads the account's role. A missing account is not an admin.
func (s *AccountService) IsAdmin(ctx context.Context, id string) (bool, error) {
	account, err := s.store.Accounts().GetAccount(ctx, id)
	if err != nil {
		if errors.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return account.IsAdmin() && account.IsActive(), nil
}

type AccountSearch struct {
	// Search matches email, first or last name, case-insensitively.
	Search string
}

func (s *AccountService) ListAccounts(ctx context.Context, filter AccountSearch) ([]*domain.Account, error) {
	accounts, err := s.store.Accounts().ListAccounts(ctx, domain.AccountFilter{})
	if err != nil {
		return nil, err
	}

	term := strings.ToLower(strings.TrimSpace(filter.Search))
	if term == "" {
		return accounts, nil
	}

	matched := make([]*domain.Account, 0, len(accounts))
	for _, a := range accounts {
		if strings.Contains(strings.ToLower(a.Email), term) ||
			strings.Contains(strings.ToLower(a.FirstName), term) ||
			strings.Contains(strings.ToLower(a.LastName), term) {
			matched = append(matched, a)
		}
	}
	return matched, nil
}

func (s *AccountService) SetAccountStatus(ctx context.Context, actor domain.Actor, id string, status domain.AccountStatus) (*domain.Account, error) {
	if !status.Valid() {
		return nil, errors.NewAppError(errors.InvalidStatus, "status must be active or banned")
	}
	if id == actor.UserID && status == domain.AccountBanned {
		return nil, errors.NewAppError(errors.InvalidInput, "administrators cannot ban themselves")
	}

	if err := s.store.Accounts().UpdateAccountStatus(ctx, id, status); err != nil {
		return nil, err
	}

	s.logger.Info("Account status changed",
		zap.String("account_id", id),
		zap.String("status", string(status)),
		zap.String("actor_id", actor.UserID))
	return s.store.Accounts().GetAccount(ctx, id)
}

// Referral is a referred account as shown to its referrer.
type Referral struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Active    bool      `json:"active"`
	JoinedAt  time.Time `json:"joined_at"`
}

type ReferralSummary struct {
	Referrals []Referral `json:"referrals"`
	Total     int        `json:"total"`
	Active    int        `json:"active"`
	Earnings  string     `json:"earnings"`
}

// ListReferrals returns the accounts referred by userID. A referral is
// active once it holds open deposits.
func (s *AccountService) ListReferrals(ctx context.Context, userID string) (*ReferralSummary, error) {
	owner, err := s.store.Accounts().GetAccount(ctx, userID)
	if err != nil {
		return nil, err
	}

	accounts, err := s.store.Accounts().ListAccounts(ctx, domain.AccountFilter{ReferredBy: userID})
	if err != nil {
		return nil, err
	}

	summary := &ReferralSummary{
		Referrals: make([]Referral, 0, len(accounts)),
		Total:     len(accounts),
		Earnings:  owner.ReferralEarnings.String(),
	}
	for _, a := range accounts {
		active := a.ActiveDeposits.IsPositive()
		if active {
			summary.Active++
		}
		summary.Referrals = append(summary.Referrals, Referral{
			ID:        a.ID,
			Email:     a.Email,
			FirstName: a.FirstName,
			LastName:  a.LastName,
			Active:    active,
			JoinedAt:  a.CreatedAt,
		})
	}
	return summary, nil
}

// HistoryEntry is one line of an account's activity feed.
type HistoryEntry struct {
	Kind      string    `json:"kind"`
	ID        string    `json:"id"`
	Amount    string    `json:"amount"`
	Status    string    `json:"status"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	HistoryDeposit    = "deposit"
	HistoryWithdrawal = "withdrawal"
	HistoryInvestment = "investment"
)

// History merges the user's deposits, withdrawals and investments, newest
// first.
func (s *AccountService) History(ctx context.Context, userID string) ([]HistoryEntry, error) {
	deposits, err := s.store.Deposits().ListDeposits(ctx, domain.RequestFilter{UserID: userID})
	if err != nil {
		return nil, err
	}
	withdrawals, err := s.store.Withdrawals().ListWithdrawals(ctx, domain.RequestFilter{UserID: userID})
	if err != nil {
		return nil, err
	}
	investments, err := s.store.Investments().ListInvestments(ctx, domain.InvestmentFilter{UserID: userID})
	if err != nil {
		return nil, err
	}

	entries := make([]HistoryEntry, 0, len(deposits)+len(withdrawals)+len(investments))
	for _, d := range deposits {
		entries = append(entries, HistoryEntry{
			Kind:      HistoryDeposit,
			ID:        d.ID.String(),
			Amount:    d.Amount.String(),
			Status:    string(d.Status),
			Detail:    string(d.Currency),
			CreatedAt: d.CreatedAt,
		})
	}
	for _, w := range withdrawals {
		entries = append(entries, HistoryEntry{
			Kind:      HistoryWithdrawal,
			ID:        w.ID.String(),
			Amount:    w.Amount.String(),
			Status:    string(w.Status),
			Detail:    string(w.Method),
			CreatedAt: w.CreatedAt,
		})
	}
	for _, inv := range investments {
		entries = append(entries, HistoryEntry{
			Kind:      HistoryInvestment,
			ID:        inv.ID.String(),
			Amount:    inv.Amount.String(),
			Status:    string(inv.Status),
			Detail:    inv.PlanName,
			CreatedAt: inv.CreatedAt,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	return entries, nil
}
