package domain

import "context"

// Store is the transactional document store the ledger runs against.
// Repositories obtained from the Store passed to a WithTransaction callback
// take part in that transaction; those obtained outside it auto-commit.
//
// Inside a transaction every read must happen before the first write.
type Store interface {
	Accounts() AccountRepository
	Deposits() DepositRepository
	Withdrawals() WithdrawalRepository
	Investments() InvestmentRepository
	Settings() SettingsRepository

	// WithTransaction runs fn atomically. On a retryable conflict fn is run
	// again from the start; once retries are exhausted the call fails with
	// TransientConflict. Any error returned by fn aborts without writes.
	WithTransaction(ctx context.Context, fn func(tx Store) error) error

	Ping(ctx context.Context) error
	Close() error
}

// Actor is the authenticated caller on whose behalf an operation runs.
type Actor struct {
	UserID string
	Email  string
}
