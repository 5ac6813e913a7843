package domain

import (
	"github.com/shopspring/decimal"
)

type Plan struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	MinAmount decimal.Decimal `json:"min_amount"`
	MaxAmount decimal.Decimal `json:"max_amount"`
	ROI       string          `json:"roi"`
	Duration  string          `json:"duration"`
	Features  []string        `json:"features"`
	Popular   bool            `json:"popular,omitempty"`
}

// Accepts reports whether amount lies within the plan's inclusive bounds.
func (p Plan) Accepts(amount decimal.Decimal) bool {
	return amount.GreaterThanOrEqual(p.MinAmount) && amount.LessThanOrEqual(p.MaxAmount)
}

// PlanTable is the ordered, read-only set of plans offered to users.
type PlanTable struct {
	plans []Plan
	byID  map[string]Plan
}

func NewPlanTable(plans []Plan) *PlanTable {
	t := &PlanTable{
		plans: make([]Plan, len(plans)),
		byID:  make(map[string]Plan, len(plans)),
	}
	copy(t.plans, plans)
	for _, p := range plans {
		t.byID[p.ID] = p
	}
	return t
}

func (t *PlanTable) Get(id string) (Plan, bool) {
	p, ok := t.byID[id]
	return p, ok
}

func (t *PlanTable) All() []Plan {
	out := make([]Plan, len(t.plans))
	copy(out, t.plans)
	return out
}

func DefaultPlans() []Plan {
	return []Plan{
		{
			ID:        "starter",
			Name:      "Starter Plan",
			MinAmount: decimal.NewFromInt(50),
			MaxAmount: decimal.NewFromInt(999),
			ROI:       "5% Daily",
			Duration:  "7 Days",
			Features:  []string{"24/7 Support", "Secure Investment", "Instant Withdrawal"},
		},
		{
			ID:        "premium",
			Name:      "Premium Plan",
			MinAmount: decimal.NewFromInt(1000),
			MaxAmount: decimal.NewFromInt(4999),
			ROI:       "10% Daily",
			Duration:  "14 Days",
			Features:  []string{"Priority Support", "Advanced Analytics", "Compounding Available"},
			Popular:   true,
		},
		{
			ID:        "business",
			Name:      "Business Plan",
			MinAmount: decimal.NewFromInt(5000),
			MaxAmount: decimal.NewFromInt(50000),
			ROI:       "20% Daily",
			Duration:  "30 Days",
			Features:  []string{"Dedicated Manager", "VIP Access", "Capital Protection"},
		},
	}
}
