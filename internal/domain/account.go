package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type AccountStatus string

const (
	AccountActive AccountStatus = "active"
	AccountBanned AccountStatus = "banned"
)

func (s AccountStatus) Valid() bool {
	return s == AccountActive || s == AccountBanned
}

type Account struct {
	ID               string          `json:"id"`
	Email            string          `json:"email"`
	FirstName        string          `json:"first_name"`
	LastName         string          `json:"last_name"`
	InvestmentGoal   string          `json:"investment_goal,omitempty"`
	Role             Role            `json:"role"`
	Status           AccountStatus   `json:"status"`
	Balance          decimal.Decimal `json:"balance"`
	TotalInvested    decimal.Decimal `json:"total_invested"`
	ActiveDeposits   decimal.Decimal `json:"active_deposits"`
	ReferralEarnings decimal.Decimal `json:"referral_earnings"`
	ReferredBy       string          `json:"referred_by,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func (a *Account) IsAdmin() bool {
	return a.Role == RoleAdmin
}

func (a *Account) IsActive() bool {
	return a.Status != AccountBanned
}

// NewAccount returns a freshly registered account with zeroed balances.
func NewAccount(id, email string) *Account {
	return &Account{
		ID:               id,
		Email:            email,
		Role:             RoleUser,
		Status:           AccountActive,
		Balance:          decimal.Zero,
		TotalInvested:    decimal.Zero,
		ActiveDeposits:   decimal.Zero,
		ReferralEarnings: decimal.Zero,
	}
}

type AccountFilter struct {
	ReferredBy string
}

type AccountRepository interface {
	CreateAccount(ctx context.Context, account *Account) error
	GetAccount(ctx context.Context, id string) (*Account, error)
	// GetAccountForUpdate reads the account as part of the enclosing
	// transaction's read set (row lock or version capture).
	GetAccountForUpdate(ctx context.Context, id string) (*Account, error)
	// UpdateAccountBalances writes balance, total invested, active deposits
	// and referral earnings from the given snapshot.
	UpdateAccountBalances(ctx context.Context, account *Account) error
	UpdateAccountStatus(ctx context.Context, id string, status AccountStatus) error
	ListAccounts(ctx context.Context, filter AccountFilter) ([]*Account, error)
}
