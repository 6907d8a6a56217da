package http

import (
	"fmt"
	"net/http"
	"strconv"

	"miadmin/internal/cache"
	"miadmin/internal/core"
	"miadmin/internal/report"
)

func (s *Server) handleMonthSummary(w http.ResponseWriter, r *http.Request) {
	params, err := ParseMonthParams(r.URL.Query(), s.now().In(s.loc))
	if err != nil {
		writeError(w, r, err)
		return
	}
	key := cache.Key(s.engine.Revision(), "summary", fmt.Sprintf("%04d-%02d", params.Year, params.Month))
	overview := cache.GetOrCompute[core.MonthOverview](s.summaryCache, key, func() core.MonthOverview {
		return report.MonthSummary(s.engine.Snapshot(), params.Year, params.Month, s.loc)
	})
	writeJSON(w, r, http.StatusOK, overview)
}

// handleRangeSummary aggregates ?from=YYYY-MM-DD&to=YYYY-MM-DD, both
// inclusive and optional, filtered by ?direction.
func (s *Server) handleRangeSummary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, err := parseDateParam(q, "from", s.loc)
	if err != nil {
		writeError(w, r, err)
		return
	}
	to, err := parseDateParam(q, "to", s.loc)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		writeError(w, r, fmt.Errorf("%w: to is before from", errBadRequest))
		return
	}
	dir, err := parseDirection(q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, report.RangeSummary(s.engine.Snapshot(), from, to, dir))
}

func (s *Server) handleBudgetStatus(w http.ResponseWriter, r *http.Request) {
	params, err := ParseMonthParams(r.URL.Query(), s.now().In(s.loc))
	if err != nil {
		writeError(w, r, err)
		return
	}
	key := cache.Key(s.engine.Revision(), "budgets", fmt.Sprintf("%04d-%02d", params.Year, params.Month))
	statuses := cache.GetOrCompute[[]report.BudgetStatus](s.budgetCache, key, func() []report.BudgetStatus {
		return report.BudgetStatuses(s.engine.Snapshot(), params.Year, params.Month, s.loc)
	})
	writeJSON(w, r, http.StatusOK, statuses)
}

// handleUpcoming lists subscription charges by due date. The day is part of
// the cache key because days-left changes at midnight.
func (s *Server) handleUpcoming(w http.ResponseWriter, r *http.Request) {
	n, err := parseLimit(r.URL.Query(), -1)
	if err != nil {
		writeError(w, r, err)
		return
	}
	now := s.now().In(s.loc)
	key := cache.Key(s.engine.Revision(), "upcoming", now.Format("2006-01-02"), strconv.Itoa(n))
	payments := cache.GetOrCompute[[]report.Payment](s.upcomingCache, key, func() []report.Payment {
		return report.UpcomingPayments(s.engine.Snapshot(), now, n)
	})
	writeJSON(w, r, http.StatusOK, payments)
}

type totalsResponse struct {
	Balances report.Overview    `json:"balances"`
	Debts    report.DebtSummary `json:"debts"`
}

func (s *Server) handleTotals(w http.ResponseWriter, r *http.Request) {
	st := s.engine.Snapshot()
	writeJSON(w, r, http.StatusOK, totalsResponse{
		Balances: report.Totals(st),
		Debts:    report.DebtTotals(st),
	})
}

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.engine.Audit())
}
