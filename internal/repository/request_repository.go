package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"investment-ledger/internal/domain"
	"investment-ledger/internal/errors"
)

// requestWhere builds the WHERE clause shared by deposit and withdrawal
// list queries.
func requestWhere(filter domain.RequestFilter) (string, []interface{}) {
	var conds []string
	var args []interface{}
	if filter.UserID != "" {
		args = append(args, filter.UserID)
		conds = append(conds, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// markProcessed applies a guarded status update. When no row matches it
// distinguishes a missing request from one that is no longer pending.
func markProcessed(ctx context.Context, db SQLExecutor, table string, id uuid.UUID,
	update domain.ProcessedUpdate, notFound error) error {
	query := `UPDATE ` + table + `
		SET status = $1, processed_by = $2, processed_at = $3, updated_at = $3
		WHERE id = $4 AND status = 'pending'`

	result, err := db.ExecContext(ctx, query, update.Status, update.ProcessedBy, update.ProcessedAt, id)
	if err != nil {
		return dbError("failed to update "+table, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return dbError("failed to read affected rows", err)
	}
	if n > 0 {
		return nil
	}

	var exists bool
	if err := db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM `+table+` WHERE id = $1)`, id).Scan(&exists); err != nil {
		return dbError("failed to check "+table, err)
	}
	if !exists {
		return notFound
	}
	return errors.ErrAlreadyProcessed
}

const depositColumns = `id, user_id, user_email, amount, currency, wallet_address, transaction_hash,
	status, processed_by, created_at, updated_at, processed_at`

type depositRepository struct {
	db     SQLExecutor
	logger *zap.Logger
}

func NewDepositRepository(db SQLExecutor, logger *zap.Logger) domain.DepositRepository {
	return &depositRepository{db: db, logger: logger}
}

func (r *depositRepository) CreateDeposit(ctx context.Context, deposit *domain.Deposit) error {
	query := `
		INSERT INTO deposits (` + depositColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	now := time.Now().UTC()
	if deposit.CreatedAt.IsZero() {
		deposit.CreatedAt = now
	}
	deposit.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		deposit.ID,
		deposit.UserID,
		deposit.UserEmail,
		deposit.Amount,
		deposit.Currency,
		deposit.WalletAddress,
		deposit.TransactionHash,
		deposit.Status,
		deposit.ProcessedBy,
		deposit.CreatedAt,
		deposit.UpdatedAt,
		deposit.ProcessedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create deposit", zap.String("user_id", deposit.UserID), zap.Error(err))
		return dbError("failed to create deposit", err)
	}

	r.logger.Info("Deposit request created", zap.Stringer("deposit_id", deposit.ID))
	return nil
}

func (r *depositRepository) GetDeposit(ctx context.Context, id uuid.UUID) (*domain.Deposit, error) {
	return r.get(ctx, `SELECT `+depositColumns+` FROM deposits WHERE id = $1`, id)
}

func (r *depositRepository) GetDepositForUpdate(ctx context.Context, id uuid.UUID) (*domain.Deposit, error) {
	return r.get(ctx, `SELECT `+depositColumns+` FROM deposits WHERE id = $1 FOR UPDATE`, id)
}

func (r *depositRepository) get(ctx context.Context, query string, id uuid.UUID) (*domain.Deposit, error) {
	deposit, err := scanDeposit(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.ErrDepositNotFound
		}
		r.logger.Error("Failed to get deposit", zap.Stringer("deposit_id", id), zap.Error(err))
		return nil, dbError("failed to get deposit", err)
	}
	return deposit, nil
}

func scanDeposit(row rowScanner) (*domain.Deposit, error) {
	var d domain.Deposit
	var processedAt sql.NullTime
	err := row.Scan(
		&d.ID,
		&d.UserID,
		&d.UserEmail,
		&d.Amount,
		&d.Currency,
		&d.WalletAddress,
		&d.TransactionHash,
		&d.Status,
		&d.ProcessedBy,
		&d.CreatedAt,
		&d.UpdatedAt,
		&processedAt,
	)
	if err != nil {
		return nil, err
	}
	if processedAt.Valid {
		t := processedAt.Time
		d.ProcessedAt = &t
	}
	return &d, nil
}

func (r *depositRepository) MarkDepositProcessed(ctx context.Context, id uuid.UUID, update domain.ProcessedUpdate) error {
	return markProcessed(ctx, r.db, "deposits", id, update, errors.ErrDepositNotFound)
}

func (r *depositRepository) ListDeposits(ctx context.Context, filter domain.RequestFilter) ([]*domain.Deposit, error) {
	where, args := requestWhere(filter)
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+depositColumns+` FROM deposits`+where+` ORDER BY created_at DESC`, args...)
	if err != nil {
		r.logger.Error("Failed to list deposits", zap.Error(err))
		return nil, dbError("failed to list deposits", err)
	}
	defer rows.Close()

	deposits := make([]*domain.Deposit, 0)
	for rows.Next() {
		d, err := scanDeposit(rows)
		if err != nil {
			return nil, dbError("failed to scan deposit", err)
		}
		deposits = append(deposits, d)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError("failed to list deposits", err)
	}
	return deposits, nil
}

const withdrawalColumns = `id, user_id, user_email, amount, method, details,
	status, processed_by, created_at, updated_at, processed_at`

type withdrawalRepository struct {
	db     SQLExecutor
	logger *zap.Logger
}

func NewWithdrawalRepository(db SQLExecutor, logger *zap.Logger) domain.WithdrawalRepository {
	return &withdrawalRepository{db: db, logger: logger}
}

func (r *withdrawalRepository) CreateWithdrawal(ctx context.Context, withdrawal *domain.Withdrawal) error {
	query := `
		INSERT INTO withdrawals (` + withdrawalColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	details, err := json.Marshal(withdrawal.Details)
	if err != nil {
		return errors.NewAppError(errors.InternalError, "failed to encode withdrawal details").WithDetails(err.Error())
	}

	now := time.Now().UTC()
	if withdrawal.CreatedAt.IsZero() {
		withdrawal.CreatedAt = now
	}
	withdrawal.UpdatedAt = now

	_, err = r.db.ExecContext(ctx, query,
		withdrawal.ID,
		withdrawal.UserID,
		withdrawal.UserEmail,
		withdrawal.Amount,
		withdrawal.Method,
		string(details),
		withdrawal.Status,
		withdrawal.ProcessedBy,
		withdrawal.CreatedAt,
		withdrawal.UpdatedAt,
		withdrawal.ProcessedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create withdrawal", zap.String("user_id", withdrawal.UserID), zap.Error(err))
		return dbError("failed to create withdrawal", err)
	}

	r.logger.Info("Withdrawal request created", zap.Stringer("withdrawal_id", withdrawal.ID))
	return nil
}

func (r *withdrawalRepository) GetWithdrawal(ctx context.Context, id uuid.UUID) (*domain.Withdrawal, error) {
	return r.get(ctx, `SELECT `+withdrawalColumns+` FROM withdrawals WHERE id = $1`, id)
}

func (r *withdrawalRepository) GetWithdrawalForUpdate(ctx context.Context, id uuid.UUID) (*domain.Withdrawal, error) {
	return r.get(ctx, `SELECT `+withdrawalColumns+` FROM withdrawals WHERE id = $1 FOR UPDATE`, id)
}

func (r *withdrawalRepository) get(ctx context.Context, query string, id uuid.UUID) (*domain.Withdrawal, error) {
	w, err := scanWithdrawal(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.ErrWithdrawalNotFound
		}
		r.logger.Error("Failed to get withdrawal", zap.Stringer("withdrawal_id", id), zap.Error(err))
		return nil, dbError("failed to get withdrawal", err)
	}
	return w, nil
}

func scanWithdrawal(row rowScanner) (*domain.Withdrawal, error) {
	var w domain.Withdrawal
	var details []byte
	var processedAt sql.NullTime
	err := row.Scan(
		&w.ID,
		&w.UserID,
		&w.UserEmail,
		&w.Amount,
		&w.Method,
		&details,
		&w.Status,
		&w.ProcessedBy,
		&w.CreatedAt,
		&w.UpdatedAt,
		&processedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(details) > 0 {
		if err := json.Unmarshal(details, &w.Details); err != nil {
			return nil, err
		}
	}
	if processedAt.Valid {
		t := processedAt.Time
		w.ProcessedAt = &t
	}
	return &w, nil
}

func (r *withdrawalRepository) MarkWithdrawalProcessed(ctx context.Context, id uuid.UUID, update domain.ProcessedUpdate) error {
	return markProcessed(ctx, r.db, "withdrawals", id, update, errors.ErrWithdrawalNotFound)
}

func (r *withdrawalRepository) ListWithdrawals(ctx context.Context, filter domain.RequestFilter) ([]*domain.Withdrawal, error) {
	where, args := requestWhere(filter)
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+withdrawalColumns+` FROM withdrawals`+where+` ORDER BY created_at DESC`, args...)
	if err != nil {
		r.logger.Error("Failed to list withdrawals", zap.Error(err))
		return nil, dbError("failed to list withdrawals", err)
	}
	defer rows.Close()

	withdrawals := make([]*domain.Withdrawal, 0)
	for rows.Next() {
		w, err := scanWithdrawal(rows)
		if err != nil {
			return nil, dbError("failed to scan withdrawal", err)
		}
		withdrawals = append(withdrawals, w)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError("failed to list withdrawals", err)
	}
	return withdrawals, nil
}
