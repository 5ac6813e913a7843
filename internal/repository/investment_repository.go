package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"investment-ledger/internal/domain"
)

const investmentColumns = `id, user_id, user_email, plan_id, plan_name, amount, roi, status, start_date, created_at`

type investmentRepository struct {
	db     SQLExecutor
	logger *zap.Logger
}

func NewInvestmentRepository(db SQLExecutor, logger *zap.Logger) domain.InvestmentRepository {
	return &investmentRepository{db: db, logger: logger}
}

func (r *investmentRepository) CreateInvestment(ctx context.Context, inv *domain.Investment) error {
	query := `
		INSERT INTO investments (` + investmentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, query,
		inv.ID,
		inv.UserID,
		inv.UserEmail,
		inv.PlanID,
		inv.PlanName,
		inv.Amount,
		inv.ROI,
		inv.Status,
		inv.StartDate,
		inv.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create investment", zap.String("user_id", inv.UserID), zap.Error(err))
		return dbError("failed to create investment", err)
	}
	return nil
}

func (r *investmentRepository) ListInvestments(ctx context.Context, filter domain.InvestmentFilter) ([]*domain.Investment, error) {
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

	query := `SELECT ` + investmentColumns + ` FROM investments`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list investments", zap.Error(err))
		return nil, dbError("failed to list investments", err)
	}
	defer rows.Close()

	investments := make([]*domain.Investment, 0)
	for rows.Next() {
		var inv domain.Investment
		if err := rows.Scan(
			&inv.ID,
			&inv.UserID,
			&inv.UserEmail,
			&inv.PlanID,
			&inv.PlanName,
			&inv.Amount,
			&inv.ROI,
			&inv.Status,
			&inv.StartDate,
			&inv.CreatedAt,
		); err != nil {
			return nil, dbError("failed to scan investment", err)
		}
		investments = append(investments, &inv)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError("failed to list investments", err)
	}
	return investments, nil
}
