package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"investment-ledger/internal/domain"
	"investment-ledger/internal/errors"
)

// minWalletAddressLength is the shortest destination accepted for a crypto
// withdrawal.
const minWalletAddressLength = 10

// RequestService creates deposit and withdrawal requests and lists them.
// Requests are processed by LedgerService.
type RequestService struct {
	store    domain.Store
	settings *SettingsService
	logger   *zap.Logger
}

func NewRequestService(store domain.Store, settings *SettingsService, logger *zap.Logger) *RequestService {
	return &RequestService{
		store:    store,
		settings: settings,
		logger:   logger,
	}
}

type CreateDepositRequest struct {
	Amount          decimal.Decimal
	Currency        domain.Currency
	TransactionHash string
}

func (s *RequestService) CreateDeposit(ctx context.Context, actor domain.Actor, req CreateDepositRequest) (*domain.Deposit, error) {
	if !domain.ValidAmount(req.Amount) {
		return nil, invalidAmount(req.Amount)
	}
	if !req.Currency.Valid() {
		return nil, errors.NewAppErrorf(errors.InvalidInput, "unsupported currency %q", req.Currency)
	}

	account, err := s.activeAccount(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}

	hash := strings.TrimSpace(req.TransactionHash)
	if hash == "" {
		hash = domain.DefaultTransactionHash
	}

	now := time.Now().UTC()
	deposit := &domain.Deposit{
		ID:              uuid.New(),
		UserID:          account.ID,
		UserEmail:       account.Email,
		Amount:          req.Amount,
		Currency:        req.Currency,
		WalletAddress:   settings.WalletFor(req.Currency),
		TransactionHash: hash,
		Status:          domain.StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.store.Deposits().CreateDeposit(ctx, deposit); err != nil {
		return nil, err
	}

	s.logger.Info("Deposit requested",
		zap.Stringer("deposit_id", deposit.ID),
		zap.String("user_id", account.ID),
		zap.Stringer("amount", deposit.Amount),
		zap.String("currency", string(deposit.Currency)))
	return deposit, nil
}

type CreateWithdrawalRequest struct {
	Amount  decimal.Decimal
	Method  domain.WithdrawalMethod
	Details domain.WithdrawalDetails
}

// CreateWithdrawal files a pending withdrawal. The balance check here is
// advisory; funds are not reserved and approval checks again.
func (s *RequestService) CreateWithdrawal(ctx context.Context, actor domain.Actor, req CreateWithdrawalRequest) (*domain.Withdrawal, error) {
	if !domain.ValidAmount(req.Amount) {
		return nil, invalidAmount(req.Amount)
	}
	details, err := validateWithdrawalDetails(req.Method, req.Details)
	if err != nil {
		return nil, err
	}

	account, err := s.activeAccount(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if account.Balance.LessThan(req.Amount) {
		return nil, errors.InsufficientBalanceError(account.Balance, req.Amount)
	}

	now := time.Now().UTC()
	withdrawal := &domain.Withdrawal{
		ID:        uuid.New(),
		UserID:    account.ID,
		UserEmail: account.Email,
		Amount:    req.Amount,
		Method:    req.Method,
		Details:   details,
		Status:    domain.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Withdrawals().CreateWithdrawal(ctx, withdrawal); err != nil {
		return nil, err
	}

	s.logger.Info("Withdrawal requested",
		zap.Stringer("withdrawal_id", withdrawal.ID),
		zap.String("user_id", account.ID),
		zap.Stringer("amount", withdrawal.Amount),
		zap.String("method", string(withdrawal.Method)))
	return withdrawal, nil
}

func invalidAmount(amount decimal.Decimal) error {
	return errors.ErrInvalidAmount.WithDetails(fmt.Sprintf(
		"amount %s must be positive, at most %s, with at most %d decimal places",
		amount, domain.MaxAmount, domain.MoneyScale))
}

// validateWithdrawalDetails keeps only the fields relevant to the method.
func validateWithdrawalDetails(method domain.WithdrawalMethod, d domain.WithdrawalDetails) (domain.WithdrawalDetails, error) {
	if !method.Valid() {
		return domain.WithdrawalDetails{}, errors.NewAppErrorf(errors.InvalidInput, "unsupported withdrawal method %q", method)
	}

	if method == domain.MethodBank {
		out := domain.WithdrawalDetails{
			BankName:      strings.TrimSpace(d.BankName),
			AccountNumber: strings.TrimSpace(d.AccountNumber),
			AccountName:   strings.TrimSpace(d.AccountName),
		}
		if out.BankName == "" || out.AccountNumber == "" || out.AccountName == "" {
			return domain.WithdrawalDetails{}, errors.NewAppError(errors.InvalidInput,
				"bank name, account number and account name are required")
		}
		return out, nil
	}

	wallet := strings.TrimSpace(d.WalletAddress)
	if len(wallet) < minWalletAddressLength {
		return domain.WithdrawalDetails{}, errors.NewAppError(errors.InvalidInput, "a valid wallet address is required")
	}
	return domain.WithdrawalDetails{WalletAddress: wallet}, nil
}

func (s *RequestService) activeAccount(ctx context.Context, userID string) (*domain.Account, error) {
	account, err := s.store.Accounts().GetAccount(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !account.IsActive() {
		return nil, errors.ErrAccountDisabled
	}
	return account, nil
}

func (s *RequestService) ListDeposits(ctx context.Context, filter domain.RequestFilter) ([]*domain.Deposit, error) {
	if filter.Status != "" && filter.Status != domain.StatusPending && !filter.Status.Terminal() {
		return nil, errors.ErrInvalidStatus
	}
	return s.store.Deposits().ListDeposits(ctx, filter)
}

func (s *RequestService) ListWithdrawals(ctx context.Context, filter domain.RequestFilter) ([]*domain.Withdrawal, error) {
	if filter.Status != "" && filter.Status != domain.StatusPending && !filter.Status.Terminal() {
		return nil, errors.ErrInvalidStatus
	}
	return s.store.Withdrawals().ListWithdrawals(ctx, filter)
}

func (s *RequestService) ListInvestments(ctx context.Context, filter domain.InvestmentFilter) ([]*domain.Investment, error) {
	return s.store.Investments().ListInvestments(ctx, filter)
}
