package http

import (
	"net/http"

	"miadmin/internal/core"
	"miadmin/internal/report"
	"miadmin/internal/services"
)

// paymentRequest is the body of debt payments and savings contributions.
type paymentRequest struct {
	Amount core.Money         `json:"monto"`
	Method core.PaymentMethod `json:"metodoPago"`
}

func (s *Server) handleListDebts(w http.ResponseWriter, r *http.Request) {
	st := s.engine.Snapshot()
	out := make([]report.DebtProgress, 0, len(st.Debts))
	for _, d := range st.Debts {
		out = append(out, report.Debt(d))
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (s *Server) handleCreateDebt(w http.ResponseWriter, r *http.Request) {
	var d core.Debt
	if err := decodeJSON(w, r, &d); err != nil {
		writeError(w, r, err)
		return
	}
	created, err := s.engine.CreateDebt(r.Context(), d)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, report.Debt(created))
}

func (s *Server) handleUpdateDebt(w http.ResponseWriter, r *http.Request) {
	var p services.DebtPatch
	if err := decodeJSON(w, r, &p); err != nil {
		writeError(w, r, err)
		return
	}
	updated, err := s.engine.UpdateDebt(r.Context(), r.PathValue("id"), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, report.Debt(updated))
}

func (s *Server) handleDeleteDebt(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.DeleteDebt(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDebtPayment(w http.ResponseWriter, r *http.Request) {
	var p paymentRequest
	if err := decodeJSON(w, r, &p); err != nil {
		writeError(w, r, err)
		return
	}
	m, err := s.engine.RegisterDebtPayment(r.Context(), r.PathValue("id"), p.Amount, p.Method)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, m)
}

func (s *Server) handleListSavings(w http.ResponseWriter, r *http.Request) {
	st := s.engine.Snapshot()
	out := make([]report.SavingsProgress, 0, len(st.Savings))
	for _, g := range st.Savings {
		out = append(out, report.Savings(g))
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (s *Server) handleCreateSavings(w http.ResponseWriter, r *http.Request) {
	var g core.SavingsGoal
	if err := decodeJSON(w, r, &g); err != nil {
		writeError(w, r, err)
		return
	}
	created, err := s.engine.CreateSavingsGoal(r.Context(), g)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, report.Savings(created))
}

func (s *Server) handleUpdateSavings(w http.ResponseWriter, r *http.Request) {
	var p services.SavingsPatch
	if err := decodeJSON(w, r, &p); err != nil {
		writeError(w, r, err)
		return
	}
	updated, err := s.engine.UpdateSavingsGoal(r.Context(), r.PathValue("id"), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, report.Savings(updated))
}

func (s *Server) handleDeleteSavings(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.DeleteSavingsGoal(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSavingsContribution(w http.ResponseWriter, r *http.Request) {
	var p paymentRequest
	if err := decodeJSON(w, r, &p); err != nil {
		writeError(w, r, err)
		return
	}
	m, err := s.engine.RegisterSavingsContribution(r.Context(), r.PathValue("id"), p.Amount, p.Method)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, m)
}

func (s *Server) handleListSubscriptions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.engine.Snapshot().Subscriptions)
}

func (s *Server) handleCreateSubscription(w http.ResponseWriter, r *http.Request) {
	var sub core.Subscription
	if err := decodeJSON(w, r, &sub); err != nil {
		writeError(w, r, err)
		return
	}
	created, err := s.engine.CreateSubscription(r.Context(), sub)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, created)
}

func (s *Server) handleUpdateSubscription(w http.ResponseWriter, r *http.Request) {
	var sub core.Subscription
	if err := decodeJSON(w, r, &sub); err != nil {
		writeError(w, r, err)
		return
	}
	updated, err := s.engine.UpdateSubscription(r.Context(), r.PathValue("id"), sub)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, updated)
}

func (s *Server) handleDeleteSubscription(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.DeleteSubscription(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
