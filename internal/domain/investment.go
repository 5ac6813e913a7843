package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type InvestmentStatus string

const (
	InvestmentActive    InvestmentStatus = "active"
	InvestmentCompleted InvestmentStatus = "completed"
)

type Investment struct {
	ID        uuid.UUID        `json:"id"`
	UserID    string           `json:"user_id"`
	UserEmail string           `json:"user_email"`
	PlanID    string           `json:"plan_id"`
	PlanName  string           `json:"plan_name"`
	Amount    decimal.Decimal  `json:"amount"`
	ROI       string           `json:"roi"`
	Status    InvestmentStatus `json:"status"`
	StartDate time.Time        `json:"start_date"`
	CreatedAt time.Time        `json:"created_at"`
}

type InvestmentFilter struct {
	UserID string
	Status InvestmentStatus
}

type InvestmentRepository interface {
	CreateInvestment(ctx context.Context, investment *Investment) error
	ListInvestments(ctx context.Context, filter InvestmentFilter) ([]*Investment, error)
}
