package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusApproved RequestStatus = "approved"
	StatusRejected RequestStatus = "rejected"
)

// Terminal reports whether s is a valid target of an admin transition.
func (s RequestStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

type Currency string

const (
	CurrencyBTC  Currency = "BTC"
	CurrencyETH  Currency = "ETH"
	CurrencyUSDT Currency = "USDT"
)

func (c Currency) Valid() bool {
	switch c {
	case CurrencyBTC, CurrencyETH, CurrencyUSDT:
		return true
	}
	return false
}

type WithdrawalMethod string

const (
	MethodBTC  WithdrawalMethod = "BTC"
	MethodETH  WithdrawalMethod = "ETH"
	MethodUSDT WithdrawalMethod = "USDT"
	MethodBank WithdrawalMethod = "BANK"
)

func (m WithdrawalMethod) Valid() bool {
	switch m {
	case MethodBTC, MethodETH, MethodUSDT, MethodBank:
		return true
	}
	return false
}

const DefaultTransactionHash = "Not provided"

type Deposit struct {
	ID              uuid.UUID       `json:"id"`
	UserID          string          `json:"user_id"`
	UserEmail       string          `json:"user_email"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        Currency        `json:"currency"`
	WalletAddress   string          `json:"wallet_address"`
	TransactionHash string          `json:"transaction_hash"`
	Status          RequestStatus   `json:"status"`
	ProcessedBy     string          `json:"processed_by,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	ProcessedAt     *time.Time      `json:"processed_at,omitempty"`
}

// WithdrawalDetails holds the payout destination. Bank fields are set for
// BANK withdrawals, WalletAddress for crypto ones.
type WithdrawalDetails struct {
	BankName      string `json:"bank_name,omitempty"`
	AccountNumber string `json:"account_number,omitempty"`
	AccountName   string `json:"account_name,omitempty"`
	WalletAddress string `json:"wallet_address,omitempty"`
}

type Withdrawal struct {
	ID          uuid.UUID         `json:"id"`
	UserID      string            `json:"user_id"`
	UserEmail   string            `json:"user_email"`
	Amount      decimal.Decimal   `json:"amount"`
	Method      WithdrawalMethod  `json:"method"`
	Details     WithdrawalDetails `json:"details"`
	Status      RequestStatus     `json:"status"`
	ProcessedBy string            `json:"processed_by,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	ProcessedAt *time.Time        `json:"processed_at,omitempty"`
}

// RequestFilter narrows list queries. Zero values match everything.
type RequestFilter struct {
	UserID string
	Status RequestStatus
}

// ProcessedUpdate is the single status write applied to a pending request.
type ProcessedUpdate struct {
	Status      RequestStatus
	ProcessedBy string
	ProcessedAt time.Time
}

type DepositRepository interface {
	CreateDeposit(ctx context.Context, deposit *Deposit) error
	GetDeposit(ctx context.Context, id uuid.UUID) (*Deposit, error)
	GetDepositForUpdate(ctx context.Context, id uuid.UUID) (*Deposit, error)
	// MarkDepositProcessed moves a pending deposit to its terminal status and
	// fails with AlreadyProcessed if the stored status is no longer pending.
	MarkDepositProcessed(ctx context.Context, id uuid.UUID, update ProcessedUpdate) error
	ListDeposits(ctx context.Context, filter RequestFilter) ([]*Deposit, error)
}

type WithdrawalRepository interface {
	CreateWithdrawal(ctx context.Context, withdrawal *Withdrawal) error
	GetWithdrawal(ctx context.Context, id uuid.UUID) (*Withdrawal, error)
	GetWithdrawalForUpdate(ctx context.Context, id uuid.UUID) (*Withdrawal, error)
	MarkWithdrawalProcessed(ctx context.Context, id uuid.UUID, update ProcessedUpdate) error
	ListWithdrawals(ctx context.Context, filter RequestFilter) ([]*Withdrawal, error)
}
