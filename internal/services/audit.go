package services

import (
	"miadmin/internal/core"
	"miadmin/internal/report"
)

// Drift is an account whose stored balance disagrees with its replayed one.
type Drift struct {
	AccountID  string     `json:"accountId"`
	Alias      string     `json:"alias"`
	Stored     core.Money `json:"stored"`
	Replayed   core.Money `json:"replayed"`
	Difference core.Money `json:"difference"`
}

// Audit replays every account from its opening balance and returns the
// accounts whose stored balance drifted. An empty result means the ledger
// is consistent.
func (e *Engine) Audit() []Drift {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := e.store.State()
	var drifts []Drift
	for _, a := range st.Accounts {
		replayed, _ := report.ReplayBalance(st, a.ID)
		if replayed.WithinTolerance(a.Balance) {
			continue
		}
		drifts = append(drifts, Drift{
			AccountID:  a.ID,
			Alias:      a.Alias,
			Stored:     a.Balance,
			Replayed:   replayed,
			Difference: a.Balance.Sub(replayed),
		})
	}
	return drifts
}
