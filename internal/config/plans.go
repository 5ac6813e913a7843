package config

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v2"

	"investment-ledger/internal/domain"
)

type plansFile struct {
	Plans []planEntry `yaml:"plans"`
}

type planEntry struct {
	ID        string   `yaml:"id"`
	Name      string   `yaml:"name"`
	MinAmount string   `yaml:"min_amount"`
	MaxAmount string   `yaml:"max_amount"`
	ROI       string   `yaml:"roi"`
	Duration  string   `yaml:"duration"`
	Features  []string `yaml:"features"`
	Popular   bool     `yaml:"popular"`
}

// LoadPlans returns the plan table from path, or the built-in plans when
// path is empty.
func LoadPlans(path string) (*domain.PlanTable, error) {
	if path == "" {
		return domain.NewPlanTable(domain.DefaultPlans()), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plans file %s: %w", path, err)
	}
	return ParsePlans(data)
}

// ParsePlans decodes and validates a YAML plan table.
func ParsePlans(data []byte) (*domain.PlanTable, error) {
	var file plansFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse plans: %w", err)
	}
	if len(file.Plans) == 0 {
		return nil, fmt.Errorf("plans file defines no plans")
	}

	seen := make(map[string]bool, len(file.Plans))
	plans := make([]domain.Plan, 0, len(file.Plans))
	for i, entry := range file.Plans {
		if entry.ID == "" {
			return nil, fmt.Errorf("plan %d: missing id", i)
		}
		if seen[entry.ID] {
			return nil, fmt.Errorf("plan %s: duplicate id", entry.ID)
		}
		seen[entry.ID] = true

		minAmount, err := decimal.NewFromString(entry.MinAmount)
		if err != nil {
			return nil, fmt.Errorf("plan %s: invalid min_amount %q: %w", entry.ID, entry.MinAmount, err)
		}
		maxAmount, err := decimal.NewFromString(entry.MaxAmount)
		if err != nil {
			return nil, fmt.Errorf("plan %s: invalid max_amount %q: %w", entry.ID, entry.MaxAmount, err)
		}
		if !minAmount.IsPositive() || maxAmount.LessThan(minAmount) {
			return nil, fmt.Errorf("plan %s: bounds [%s, %s] are invalid", entry.ID, minAmount, maxAmount)
		}

		plans = append(plans, domain.Plan{
			ID:        entry.ID,
			Name:      entry.Name,
			MinAmount: minAmount,
			MaxAmount: maxAmount,
			ROI:       entry.ROI,
			Duration:  entry.Duration,
			Features:  entry.Features,
			Popular:   entry.Popular,
		})
	}

	return domain.NewPlanTable(plans), nil
}
