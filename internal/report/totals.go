package report

import (
	"miadmin/internal/core"
)

// CashBalance derives the cash position from cash movements. Cash has no
// stored balance.
func CashBalance(st *core.State) core.Money {
	return st.NetEffect(core.Cash)
}

type Overview struct {
	Accounts core.Money `json:"accounts"`
	Cash     core.Money `json:"cash"`
	Total    core.Money `json:"total"`
}

// Totals sums every account balance plus derived cash.
func Totals(st *core.State) Overview {
	var o Overview
	for _, a := range st.Accounts {
		o.Accounts = o.Accounts.Add(a.Balance)
	}
	o.Cash = CashBalance(st)
	o.Total = o.Accounts.Add(o.Cash)
	return o
}

// ReplayBalance recomputes an account balance from its opening balance and
// every movement paid with it. ok is false for unknown accounts.
func ReplayBalance(st *core.State, accountID string) (balance core.Money, ok bool) {
	i := st.AccountIndex(accountID)
	if i < 0 {
		return core.Money{}, false
	}
	opening := core.Zero()
	if ob := st.Accounts[i].OpeningBalance; ob != nil {
		opening = *ob
	}
	return opening.Add(st.NetEffect(core.PaymentMethod(accountID))), true
}
