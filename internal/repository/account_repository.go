package repository

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"go.uber.org/zap"

	"investment-ledger/internal/domain"
	"investment-ledger/internal/errors"
)

const accountColumns = `id, email, first_name, last_name, investment_goal, role, status,
	balance, total_invested, active_deposits, referral_earnings, referred_by, created_at, updated_at`

type accountRepository struct {
	db     SQLExecutor
	logger *zap.Logger
}

func NewAccountRepository(db SQLExecutor, logger *zap.Logger) domain.AccountRepository {
	return &accountRepository{
		db:     db,
		logger: logger,
	}
}

func (r *accountRepository) CreateAccount(ctx context.Context, account *domain.Account) error {
	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	now := time.Now().UTC()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}
	account.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		account.ID,
		account.Email,
		account.FirstName,
		account.LastName,
		account.InvestmentGoal,
		account.Role,
		account.Status,
		account.Balance,
		account.TotalInvested,
		account.ActiveDeposits,
		account.ReferralEarnings,
		nullString(account.ReferredBy),
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		if pqCode(err) == pqUniqueViolation {
			r.logger.Warn("Duplicate account creation attempt", zap.String("account_id", account.ID))
			return errors.ErrDuplicateAccount
		}
		r.logger.Error("Failed to create account", zap.String("account_id", account.ID), zap.Error(err))
		return dbError("failed to create account", err)
	}

	r.logger.Info("Account created successfully", zap.String("account_id", account.ID))
	return nil
}

func (r *accountRepository) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return r.scanAccount(r.db.QueryRowContext(ctx, query, id), id)
}

func (r *accountRepository) GetAccountForUpdate(ctx context.Context, id string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 FOR UPDATE`
	return r.scanAccount(r.db.QueryRowContext(ctx, query, id), id)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAccountRow(row rowScanner) (*domain.Account, error) {
	var account domain.Account
	var referredBy sql.NullString

	err := row.Scan(
		&account.ID,
		&account.Email,
		&account.FirstName,
		&account.LastName,
		&account.InvestmentGoal,
		&account.Role,
		&account.Status,
		&account.Balance,
		&account.TotalInvested,
		&account.ActiveDeposits,
		&account.ReferralEarnings,
		&referredBy,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	account.ReferredBy = referredBy.String
	return &account, nil
}

func (r *accountRepository) scanAccount(row *sql.Row, id string) (*domain.Account, error) {
	account, err := scanAccountRow(row)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.ErrAccountNotFound
		}
		r.logger.Error("Failed to get account", zap.String("account_id", id), zap.Error(err))
		return nil, dbError("failed to get account", err)
	}
	return account, nil
}

func (r *accountRepository) UpdateAccountBalances(ctx context.Context, account *domain.Account) error {
	query := `
		UPDATE accounts
		SET balance = $1, total_invested = $2, active_deposits = $3, referral_earnings = $4, updated_at = $5
		WHERE id = $6
	`

	result, err := r.db.ExecContext(ctx, query,
		account.Balance,
		account.TotalInvested,
		account.ActiveDeposits,
		account.ReferralEarnings,
		time.Now().UTC(),
		account.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update account balances", zap.String("account_id", account.ID), zap.Error(err))
		return dbError("failed to update account balances", err)
	}
	return requireRow(result, errors.ErrAccountNotFound)
}

func (r *accountRepository) UpdateAccountStatus(ctx context.Context, id string, status domain.AccountStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET status = $1, updated_at = $2 WHERE id = $3`,
		status, time.Now().UTC(), id)
	if err != nil {
		r.logger.Error("Failed to update account status", zap.String("account_id", id), zap.Error(err))
		return dbError("failed to update account status", err)
	}
	return requireRow(result, errors.ErrAccountNotFound)
}

func (r *accountRepository) ListAccounts(ctx context.Context, filter domain.AccountFilter) ([]*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts`
	var args []interface{}
	if filter.ReferredBy != "" {
		query += ` WHERE referred_by = $1`
		args = append(args, filter.ReferredBy)
	}
	query += ` ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list accounts", zap.Error(err))
		return nil, dbError("failed to list accounts", err)
	}
	defer rows.Close()

	accounts := make([]*domain.Account, 0)
	for rows.Next() {
		account, err := scanAccountRow(rows)
		if err != nil {
			return nil, dbError("failed to scan account", err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError("failed to list accounts", err)
	}
	return accounts, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func requireRow(result sql.Result, notFound error) error {
	n, err := result.RowsAffected()
	if err != nil {
		return dbError("failed to read affected rows", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
