// Package report computes read-only figures over a ledger snapshot.
// Nothing here mutates the state it is given.
package report

import (
	"sort"
	"time"

	"miadmin/internal/core"
)

// MonthSummary totals income and expense for one calendar month in loc and
// breaks expenses down per category, largest first.
func MonthSummary(st *core.State, year int, month time.Month, loc *time.Location) core.MonthOverview {
	out := core.MonthOverview{Year: year, Month: month}
	var in []core.Movement
	for _, m := range st.Movements {
		if m.In(year, month, loc) {
			in = append(in, m)
		}
	}
	t := summarize(in)
	out.Income, out.Expense, out.Net, out.ByCategory = t.Income, t.Expense, t.Net, t.ByCategory
	return out
}

// Range is the result of a report filtered by date and direction.
type Range struct {
	From       time.Time             `json:"from"`
	To         time.Time             `json:"to"`
	Income     core.Money            `json:"income"`
	Expense    core.Money            `json:"expense"`
	Net        core.Money            `json:"net"`
	ByCategory []core.CategoryAmount `json:"byCategory"`
	Movements  []core.Movement       `json:"movements"`
}

// RangeSummary keeps movements dated from onwards and up to the end of the
// calendar day of to. A zero from or to leaves that side open. An empty
// direction keeps both directions.
func RangeSummary(st *core.State, from, to time.Time, direction core.Direction) Range {
	var end time.Time
	if !to.IsZero() {
		y, m, d := to.Date()
		end = time.Date(y, m, d, 0, 0, 0, 0, to.Location()).AddDate(0, 0, 1)
	}

	var in []core.Movement
	for _, m := range st.Movements {
		if !from.IsZero() && m.Date.Before(from) {
			continue
		}
		if !end.IsZero() && !m.Date.Before(end) {
			continue
		}
		if direction != "" && m.Direction != direction {
			continue
		}
		in = append(in, m)
	}
	r := summarize(in)
	r.From, r.To = from, to
	r.Movements = in
	if r.Movements == nil {
		r.Movements = []core.Movement{}
	}
	return r
}

func summarize(movements []core.Movement) Range {
	r := Range{ByCategory: []core.CategoryAmount{}}
	byCat := map[core.Category]core.Money{}
	for _, m := range movements {
		if m.Direction == core.Income {
			r.Income = r.Income.Add(m.Amount)
			continue
		}
		r.Expense = r.Expense.Add(m.Amount)
		byCat[m.Category] = byCat[m.Category].Add(m.Amount)
	}
	r.Net = r.Income.Sub(r.Expense)
	for c, amt := range byCat {
		r.ByCategory = append(r.ByCategory, core.CategoryAmount{Category: c, Amount: amt})
	}
	sort.Slice(r.ByCategory, func(i, j int) bool {
		if c := r.ByCategory[i].Amount.Cmp(r.ByCategory[j].Amount); c != 0 {
			return c > 0
		}
		return r.ByCategory[i].Category < r.ByCategory[j].Category
	})
	return r
}

// AccountStats is the monthly activity of one payment method.
type AccountStats struct {
	Method  core.PaymentMethod `json:"method"`
	Income  core.Money         `json:"income"`
	Expense core.Money         `json:"expense"`
	Count   int                `json:"count"`
}

func AccountMonthStats(st *core.State, method core.PaymentMethod, year int, month time.Month, loc *time.Location) AccountStats {
	s := AccountStats{Method: method}
	for _, m := range st.Movements {
		if m.Method != method || !m.In(year, month, loc) {
			continue
		}
		s.Count++
		if m.Direction == core.Income {
			s.Income = s.Income.Add(m.Amount)
		} else {
			s.Expense = s.Expense.Add(m.Amount)
		}
	}
	return s
}

// RecentActivity returns up to n movements, newest first.
func RecentActivity(st *core.State, n int) []core.Movement {
	out := append([]core.Movement{}, st.Movements...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
