package report

import (
	"miadmin/internal/core"
)

type DebtProgress struct {
	Debt     core.Debt  `json:"debt"`
	Pending  core.Money `json:"pending"`
	Progress float64    `json:"progress"`
}

// Debt reports how much of d is paid, as a percentage clipped to [0, 100].
func Debt(d core.Debt) DebtProgress {
	return DebtProgress{
		Debt:     d,
		Pending:  d.Total.Sub(d.Paid),
		Progress: clip(d.Paid.Percent(d.Total)),
	}
}

type DebtSummary struct {
	Total    core.Money `json:"total"`
	Paid     core.Money `json:"paid"`
	Pending  core.Money `json:"pending"`
	Progress float64    `json:"progress"`
}

// DebtTotals aggregates every debt in the ledger.
func DebtTotals(st *core.State) DebtSummary {
	var s DebtSummary
	for _, d := range st.Debts {
		s.Total = s.Total.Add(d.Total)
		s.Paid = s.Paid.Add(d.Paid)
	}
	s.Pending = s.Total.Sub(s.Paid)
	s.Progress = clip(s.Paid.Percent(s.Total))
	return s
}

type SavingsProgress struct {
	Goal      core.SavingsGoal `json:"goal"`
	Remaining core.Money       `json:"remaining"`
	Progress  float64          `json:"progress"`
}

func Savings(g core.SavingsGoal) SavingsProgress {
	return SavingsProgress{
		Goal:      g,
		Remaining: g.Target.Sub(g.Current).Max(core.Zero()),
		Progress:  clip(g.Current.Percent(g.Target)),
	}
}

func clip(p float64) float64 {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}
