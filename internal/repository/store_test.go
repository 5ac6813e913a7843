package repository

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"go.uber.org/zap"

	"investment-ledger/internal/domain"
	"investment-ledger/internal/errors"
)

type StoreTestSuite struct {
	suite.Suite
	container *postgres.PostgresContainer
	db        *sql.DB
	store     *Store
}

func (s *StoreTestSuite) SetupSuite() {
	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("investment_ledger"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("password"),
		postgres.BasicWaitStrategies(),
	)
	s.Require().NoError(err, "start postgres container")
	s.container = container

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	s.Require().NoError(err)

	s.db, err = sql.Open("postgres", connStr)
	s.Require().NoError(err)
	s.Require().NoError(s.db.PingContext(ctx))
	s.Require().NoError(Migrate(ctx, s.db, zap.NewNop()))

	s.store = NewStore(s.db, 10, zap.NewNop())
}

func (s *StoreTestSuite) TearDownSuite() {
	if s.db != nil {
		s.db.Close()
	}
	if s.container != nil {
		testcontainers.TerminateContainer(s.container)
	}
}

func (s *StoreTestSuite) SetupTest() {
	_, err := s.db.Exec(`TRUNCATE accounts, deposits, withdrawals, investments, settings`)
	s.Require().NoError(err)
}

func (s *StoreTestSuite) createAccount(id string, balance int64) {
	account := domain.NewAccount(id, id+"@example.com")
	account.Balance = decimal.NewFromInt(balance)
	s.Require().NoError(s.store.Accounts().CreateAccount(context.Background(), account))
}

func (s *StoreTestSuite) TestMigrateIsIdempotent() {
	s.NoError(Migrate(context.Background(), s.db, zap.NewNop()))
}

func (s *StoreTestSuite) TestAccountRoundTrip() {
	ctx := context.Background()
	account := domain.NewAccount("user-1", "user-1@example.com")
	account.FirstName = "Ada"
	account.ReferredBy = "user-0"
	account.Balance = decimal.RequireFromString("12.5")
	s.Require().NoError(s.store.Accounts().CreateAccount(ctx, account))

	got, err := s.store.Accounts().GetAccount(ctx, "user-1")
	s.Require().NoError(err)
	s.Equal("Ada", got.FirstName)
	s.Equal("user-0", got.ReferredBy)
	s.Equal(domain.RoleUser, got.Role)
	s.True(got.Balance.Equal(decimal.RequireFromString("12.5")))

	err = s.store.Accounts().CreateAccount(ctx, domain.NewAccount("user-1", "x@example.com"))
	s.ErrorIs(err, errors.ErrDuplicateAccount)

	_, err = s.store.Accounts().GetAccount(ctx, "nobody")
	s.ErrorIs(err, errors.ErrAccountNotFound)

	s.Require().NoError(s.store.Accounts().UpdateAccountStatus(ctx, "user-1", domain.AccountBanned))
	got, _ = s.store.Accounts().GetAccount(ctx, "user-1")
	s.Equal(domain.AccountBanned, got.Status)

	referrals, err := s.store.Accounts().ListAccounts(ctx, domain.AccountFilter{ReferredBy: "user-0"})
	s.Require().NoError(err)
	s.Len(referrals, 1)
}

func (s *StoreTestSuite) TestBalanceCannotGoNegative() {
	ctx := context.Background()
	s.createAccount("user-1", 10)

	account, err := s.store.Accounts().GetAccount(ctx, "user-1")
	s.Require().NoError(err)
	account.Balance = decimal.NewFromInt(-1)
	err = s.store.Accounts().UpdateAccountBalances(ctx, account)
	s.Error(err)
}

func (s *StoreTestSuite) TestWithdrawalDetailsRoundTrip() {
	ctx := context.Background()
	w := &domain.Withdrawal{
		ID:     uuid.New(),
		UserID: "user-1",
		Amount: decimal.NewFromInt(20),
		Method: domain.MethodBank,
		Details: domain.WithdrawalDetails{
			BankName: "First Bank", AccountNumber: "0123456789", AccountName: "Ada Lovelace",
		},
		Status: domain.StatusPending,
	}
	s.Require().NoError(s.store.Withdrawals().CreateWithdrawal(ctx, w))

	got, err := s.store.Withdrawals().GetWithdrawal(ctx, w.ID)
	s.Require().NoError(err)
	s.Equal(w.Details, got.Details)
	s.Nil(got.ProcessedAt)

	update := domain.ProcessedUpdate{Status: domain.StatusRejected, ProcessedBy: "admin", ProcessedAt: time.Now().UTC()}
	s.Require().NoError(s.store.Withdrawals().MarkWithdrawalProcessed(ctx, w.ID, update))
	s.ErrorIs(s.store.Withdrawals().MarkWithdrawalProcessed(ctx, w.ID, update), errors.ErrAlreadyProcessed)
	s.ErrorIs(s.store.Withdrawals().MarkWithdrawalProcessed(ctx, uuid.New(), update), errors.ErrWithdrawalNotFound)

	rejected, err := s.store.Withdrawals().ListWithdrawals(ctx, domain.RequestFilter{Status: domain.StatusRejected})
	s.Require().NoError(err)
	s.Len(rejected, 1)
}

func (s *StoreTestSuite) TestTransactionRollsBackOnError() {
	ctx := context.Background()
	s.createAccount("user-1", 100)

	err := s.store.WithTransaction(ctx, func(tx domain.Store) error {
		account, err := tx.Accounts().GetAccountForUpdate(ctx, "user-1")
		if err != nil {
			return err
		}
		account.Balance = decimal.Zero
		if err := tx.Accounts().UpdateAccountBalances(ctx, account); err != nil {
			return err
		}
		return errors.ErrInvalidAmount
	})
	s.ErrorIs(err, errors.ErrInvalidAmount)

	account, _ := s.store.Accounts().GetAccount(ctx, "user-1")
	s.True(account.Balance.Equal(decimal.NewFromInt(100)))
}

// Concurrent approvals of one deposit must credit the account exactly once.
func (s *StoreTestSuite) TestConcurrentProcessingAppliesOnce() {
	ctx := context.Background()
	s.createAccount("user-1", 0)

	id := uuid.New()
	s.Require().NoError(s.store.Deposits().CreateDeposit(ctx, &domain.Deposit{
		ID: id, UserID: "user-1", Amount: decimal.NewFromInt(100), Currency: domain.CurrencyBTC,
		TransactionHash: domain.DefaultTransactionHash, Status: domain.StatusPending,
	}))

	const workers = 8
	var wg sync.WaitGroup
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- s.store.WithTransaction(ctx, func(tx domain.Store) error {
				deposit, err := tx.Deposits().GetDepositForUpdate(ctx, id)
				if err != nil {
					return err
				}
				if deposit.Status != domain.StatusPending {
					return errors.ErrAlreadyProcessed
				}
				account, err := tx.Accounts().GetAccountForUpdate(ctx, deposit.UserID)
				if err != nil {
					return err
				}
				account.Balance = account.Balance.Add(deposit.Amount)
				if err := tx.Deposits().MarkDepositProcessed(ctx, id, domain.ProcessedUpdate{
					Status: domain.StatusApproved, ProcessedBy: "admin", ProcessedAt: time.Now().UTC(),
				}); err != nil {
					return err
				}
				return tx.Accounts().UpdateAccountBalances(ctx, account)
			})
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		s.True(errors.ErrAlreadyProcessed.Is(err) || errors.ErrTransientConflict.Is(err), "unexpected error: %v", err)
	}
	s.Equal(1, succeeded)

	account, _ := s.store.Accounts().GetAccount(ctx, "user-1")
	s.True(account.Balance.Equal(decimal.NewFromInt(100)), "balance %s", account.Balance)
}

func (s *StoreTestSuite) TestSettingsUpsert() {
	ctx := context.Background()
	_, err := s.store.Settings().GetSettings(ctx)
	s.True(errors.IsNotFound(err))

	settings := domain.DefaultSettings()
	s.Require().NoError(s.store.Settings().SaveSettings(ctx, &settings))
	settings.SiteName = "Renamed"
	s.Require().NoError(s.store.Settings().SaveSettings(ctx, &settings))

	got, err := s.store.Settings().GetSettings(ctx)
	s.Require().NoError(err)
	s.Equal("Renamed", got.SiteName)
}

func TestStoreTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping Postgres store tests in short mode")
	}
	suite.Run(t, new(StoreTestSuite))
}
