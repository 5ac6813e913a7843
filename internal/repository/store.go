package repository

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"investment-ledger/internal/domain"
	"investment-ledger/internal/errors"
	"investment-ledger/internal/metrics"
)

// Store provides the repositories over one executor. The root Store runs
// against the pool; the Store handed to a WithTransaction callback runs
// against the open transaction.
type Store struct {
	db         *sql.DB
	executor   SQLExecutor
	inTx       bool
	maxRetries int
	logger     *zap.Logger
}

var _ domain.Store = (*Store)(nil)

func NewStore(db *sql.DB, maxRetries int, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		db:         db,
		executor:   db,
		maxRetries: maxRetries,
		logger:     logger,
	}
}

func (s *Store) Accounts() domain.AccountRepository {
	return NewAccountRepository(s.executor, s.logger)
}

func (s *Store) Deposits() domain.DepositRepository {
	return NewDepositRepository(s.executor, s.logger)
}

func (s *Store) Withdrawals() domain.WithdrawalRepository {
	return NewWithdrawalRepository(s.executor, s.logger)
}

func (s *Store) Investments() domain.InvestmentRepository {
	return NewInvestmentRepository(s.executor, s.logger)
}

func (s *Store) Settings() domain.SettingsRepository {
	return NewSettingsRepository(s.executor, s.logger)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

// WithTransaction executes fn within a serializable transaction, running it
// again when Postgres reports a serialization failure or deadlock.
func (s *Store) WithTransaction(ctx context.Context, fn func(tx domain.Store) error) error {
	if s.inTx {
		return fn(s)
	}

	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		err := s.runOnce(ctx, fn)
		if err == nil || !isRetryable(err) {
			return err
		}

		metrics.TransactionRetriesTotal.WithLabelValues("postgres").Inc()
		s.logger.Debug("Serialization failure, retrying transaction",
			zap.Int("attempt", attempt+1), zap.Error(err))
	}

	s.logger.Warn("Transaction retries exhausted", zap.Int("max_retries", s.maxRetries))
	return errors.ErrTransientConflict
}

func (s *Store) runOnce(ctx context.Context, fn func(tx domain.Store) error) (err error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return dbError("failed to begin transaction", err)
	}

	txStore := &Store{
		db:         s.db,
		executor:   tx,
		inTx:       true,
		maxRetries: s.maxRetries,
		logger:     s.logger,
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(txStore); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return dbError("failed to commit transaction", err)
	}
	return nil
}
