package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"investment-ledger/internal/domain"
	"investment-ledger/internal/errors"
	"investment-ledger/internal/repository/memory"
)

func newRequestService(t *testing.T, balance string) (*RequestService, *memory.Store) {
	t.Helper()
	store := memory.NewStore(5, zap.NewNop())
	account := domain.NewAccount("u1", "u1@example.com")
	account.Balance = dec(balance)
	require.NoError(t, store.Accounts().CreateAccount(context.Background(), account))

	settings := NewSettingsService(store, nil, 0, zap.NewNop())
	return NewRequestService(store, settings, zap.NewNop()), store
}

func TestCreateDeposit(t *testing.T) {
	ctx := context.Background()
	svc, store := newRequestService(t, "0")
	actor := domain.Actor{UserID: "u1"}

	deposit, err := svc.CreateDeposit(ctx, actor, CreateDepositRequest{Amount: dec("250"), Currency: domain.CurrencyETH})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, deposit.Status)
	assert.Equal(t, domain.DefaultTransactionHash, deposit.TransactionHash)
	assert.Equal(t, domain.DefaultSettings().WalletETH, deposit.WalletAddress)
	assert.Equal(t, "u1@example.com", deposit.UserEmail)

	stored, err := store.Deposits().GetDeposit(ctx, deposit.ID)
	require.NoError(t, err)
	assert.True(t, stored.Amount.Equal(dec("250")))

	custom := domain.Settings{WalletETH: "0xcustomaddress"}
	require.NoError(t, store.Settings().SaveSettings(ctx, &custom))
	deposit, err = svc.CreateDeposit(ctx, actor, CreateDepositRequest{
		Amount: dec("10"), Currency: domain.CurrencyETH, TransactionHash: "0xabc",
	})
	require.NoError(t, err)
	assert.Equal(t, "0xcustomaddress", deposit.WalletAddress)
	assert.Equal(t, "0xabc", deposit.TransactionHash)
}

func TestCreateDepositValidation(t *testing.T) {
	ctx := context.Background()
	svc, store := newRequestService(t, "0")

	_, err := svc.CreateDeposit(ctx, domain.Actor{UserID: "u1"}, CreateDepositRequest{Amount: dec("0"), Currency: domain.CurrencyBTC})
	assert.ErrorIs(t, err, errors.ErrInvalidAmount)

	_, err = svc.CreateDeposit(ctx, domain.Actor{UserID: "u1"}, CreateDepositRequest{Amount: dec("5"), Currency: "DOGE"})
	assert.ErrorIs(t, err, errors.ErrInvalidInput)

	_, err = svc.CreateDeposit(ctx, domain.Actor{UserID: "ghost"}, CreateDepositRequest{Amount: dec("5"), Currency: domain.CurrencyBTC})
	assert.ErrorIs(t, err, errors.ErrAccountNotFound)

	require.NoError(t, store.Accounts().UpdateAccountStatus(ctx, "u1", domain.AccountBanned))
	_, err = svc.CreateDeposit(ctx, domain.Actor{UserID: "u1"}, CreateDepositRequest{Amount: dec("5"), Currency: domain.CurrencyBTC})
	assert.ErrorIs(t, err, errors.ErrAccountDisabled)
}

func TestCreateWithdrawal(t *testing.T) {
	ctx := context.Background()
	svc, _ := newRequestService(t, "100")
	actor := domain.Actor{UserID: "u1"}

	w, err := svc.CreateWithdrawal(ctx, actor, CreateWithdrawalRequest{
		Amount: dec("40"),
		Method: domain.MethodBank,
		Details: domain.WithdrawalDetails{
			BankName: "First Bank", AccountNumber: "0123456789", AccountName: "Ada",
			WalletAddress: "ignored-for-bank",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, w.Status)
	assert.Empty(t, w.Details.WalletAddress)

	w, err = svc.CreateWithdrawal(ctx, actor, CreateWithdrawalRequest{
		Amount:  dec("40"),
		Method:  domain.MethodUSDT,
		Details: domain.WithdrawalDetails{WalletAddress: "TAGehSxJe15bB81J", BankName: "dropped"},
	})
	require.NoError(t, err)
	assert.Equal(t, "TAGehSxJe15bB81J", w.Details.WalletAddress)
	assert.Empty(t, w.Details.BankName)
}

func TestCreateWithdrawalValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newRequestService(t, "100")
	actor := domain.Actor{UserID: "u1"}

	tests := []struct {
		name    string
		req     CreateWithdrawalRequest
		wantErr error
	}{
		{"zero amount", CreateWithdrawalRequest{Amount: dec("0"), Method: domain.MethodBTC}, errors.ErrInvalidAmount},
		{"unknown method", CreateWithdrawalRequest{Amount: dec("10"), Method: "PAYPAL"}, errors.ErrInvalidInput},
		{"bank missing fields", CreateWithdrawalRequest{
			Amount: dec("10"), Method: domain.MethodBank,
			Details: domain.WithdrawalDetails{BankName: "First Bank"},
		}, errors.ErrInvalidInput},
		{"short wallet", CreateWithdrawalRequest{
			Amount: dec("10"), Method: domain.MethodBTC,
			Details: domain.WithdrawalDetails{WalletAddress: "short"},
		}, errors.ErrInvalidInput},
		{"exceeds balance", CreateWithdrawalRequest{
			Amount: dec("100.01"), Method: domain.MethodBTC,
			Details: domain.WithdrawalDetails{WalletAddress: "bc1qexampleaddress"},
		}, errors.ErrInsufficientBalance},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateWithdrawal(ctx, actor, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

// Pending withdrawals do not reserve funds, so two requests may together
// exceed the balance; only approval enforces it.
func TestWithdrawalsAreNotReserved(t *testing.T) {
	ctx := context.Background()
	svc, _ := newRequestService(t, "100")
	actor := domain.Actor{UserID: "u1"}
	req := CreateWithdrawalRequest{
		Amount: dec("80"), Method: domain.MethodBTC,
		Details: domain.WithdrawalDetails{WalletAddress: "bc1qexampleaddress"},
	}

	_, err := svc.CreateWithdrawal(ctx, actor, req)
	require.NoError(t, err)
	_, err = svc.CreateWithdrawal(ctx, actor, req)
	require.NoError(t, err)

	pending, err := svc.ListWithdrawals(ctx, domain.RequestFilter{Status: domain.StatusPending})
	require.NoError(t, err)
	assert.Len(t, pending, 2)
}

func TestListRequestsRejectsUnknownStatus(t *testing.T) {
	ctx := context.Background()
	svc, _ := newRequestService(t, "0")

	_, err := svc.ListDeposits(ctx, domain.RequestFilter{Status: "archived"})
	assert.ErrorIs(t, err, errors.ErrInvalidStatus)
	_, err = svc.ListWithdrawals(ctx, domain.RequestFilter{Status: "archived"})
	assert.ErrorIs(t, err, errors.ErrInvalidStatus)

	deposits, err := svc.ListDeposits(ctx, domain.RequestFilter{Status: domain.StatusPending})
	require.NoError(t, err)
	assert.Empty(t, deposits)
}

func TestCreateRequestsRejectAmountsOutsideMoneyColumn(t *testing.T) {
	ctx := context.Background()
	svc, _ := newRequestService(t, "999999999999")
	actor := domain.Actor{UserID: "u1"}

	for _, amount := range []string{"0.000000001", "1.000000005", "1e30", "1000000000000"} {
		t.Run(amount, func(t *testing.T) {
			_, err := svc.CreateDeposit(ctx, actor, CreateDepositRequest{Amount: dec(amount), Currency: domain.CurrencyBTC})
			assert.ErrorIs(t, err, errors.ErrInvalidAmount)

			_, err = svc.CreateWithdrawal(ctx, actor, CreateWithdrawalRequest{
				Amount:  dec(amount),
				Method:  domain.MethodBTC,
				Details: domain.WithdrawalDetails{WalletAddress: "bc1qexampleaddress"},
			})
			assert.ErrorIs(t, err, errors.ErrInvalidAmount)
		})
	}

	deposit, err := svc.CreateDeposit(ctx, actor, CreateDepositRequest{Amount: dec("1.00000005"), Currency: domain.CurrencyBTC})
	require.NoError(t, err)
	assert.Equal(t, "1.00000005", deposit.Amount.String())
}
