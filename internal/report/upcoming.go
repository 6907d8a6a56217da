package report

import (
	"math"
	"sort"
	"time"

	"miadmin/internal/core"
)

type DueTier string

const (
	DueOK      DueTier = "ok"
	DueWarning DueTier = "warning"
	DueDanger  DueTier = "danger"
)

// NextDue returns the next date a charge on billingDay falls on, counting
// today. When today is past the billing day the charge rolls to next month.
// Days beyond the end of a month are clamped to its last day.
func NextDue(billingDay int, today time.Time) time.Time {
	y, m, d := today.Date()
	if d > billingDay {
		m++
		if m > time.December {
			m = time.January
			y++
		}
	}
	day := billingDay
	if last := daysIn(y, m, today.Location()); day > last {
		day = last
	}
	return time.Date(y, m, day, 0, 0, 0, 0, today.Location())
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}

// DaysUntil is the number of started days between now and due.
func DaysUntil(due, now time.Time) int {
	d := math.Ceil(due.Sub(now).Hours() / 24)
	if d < 0 {
		return 0
	}
	return int(d)
}

func ClassifyDue(days int) DueTier {
	switch {
	case days <= 3:
		return DueDanger
	case days <= 7:
		return DueWarning
	default:
		return DueOK
	}
}

type Payment struct {
	Subscription core.Subscription `json:"subscription"`
	Due          time.Time         `json:"due"`
	DaysLeft     int               `json:"daysLeft"`
	Tier         DueTier           `json:"tier"`
}

// UpcomingPayments lists the next charge of every subscription, soonest
// first, keeping at most n entries. A negative n keeps all of them.
func UpcomingPayments(st *core.State, now time.Time, n int) []Payment {
	out := make([]Payment, 0, len(st.Subscriptions))
	for _, s := range st.Subscriptions {
		due := NextDue(s.BillingDay, now)
		days := DaysUntil(due, now)
		out = append(out, Payment{Subscription: s, Due: due, DaysLeft: days, Tier: ClassifyDue(days)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Due.Before(out[j].Due) })
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
