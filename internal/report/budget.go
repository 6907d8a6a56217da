package report

import (
	"sort"
	"time"

	"miadmin/internal/core"
)

// BudgetTier classifies how much of a monthly limit has been spent.
type BudgetTier string

const (
	BudgetNormal   BudgetTier = "normal"
	BudgetWarning  BudgetTier = "warning"
	BudgetDanger   BudgetTier = "danger"
	BudgetExceeded BudgetTier = "exceeded"
)

type BudgetStatus struct {
	Category  core.Category `json:"category"`
	Limit     core.Money    `json:"limit"`
	Spent     core.Money    `json:"spent"`
	Remaining core.Money    `json:"remaining"`
	// Percent is spent/limit capped at 100.
	Percent float64    `json:"percent"`
	Tier    BudgetTier `json:"tier"`
}

// ClassifyBudget returns the tier for spent against a positive limit.
func ClassifyBudget(spent, limit core.Money) BudgetTier {
	if spent.GreaterThan(limit) {
		return BudgetExceeded
	}
	p := spent.Percent(limit)
	switch {
	case p < 60:
		return BudgetNormal
	case p <= 85:
		return BudgetWarning
	default:
		return BudgetDanger
	}
}

// BudgetStatuses evaluates every category with a positive limit against
// its expenses in the given month, ordered by category.
func BudgetStatuses(st *core.State, year int, month time.Month, loc *time.Location) []BudgetStatus {
	spent := map[core.Category]core.Money{}
	for _, m := range st.Movements {
		if m.Direction == core.Expense && m.In(year, month, loc) {
			spent[m.Category] = spent[m.Category].Add(m.Amount)
		}
	}

	out := []BudgetStatus{}
	for c, limit := range st.Budgets {
		if !limit.IsPositive() {
			continue
		}
		s := spent[c]
		out = append(out, BudgetStatus{
			Category:  c,
			Limit:     limit,
			Spent:     s,
			Remaining: limit.Sub(s),
			Percent:   clip(s.Percent(limit)),
			Tier:      ClassifyBudget(s, limit),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}
