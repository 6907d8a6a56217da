package http

import (
	"net/http"

	"miadmin/internal/core"
	"miadmin/internal/report"
	"miadmin/internal/services"
)

type stateResponse struct {
	*core.State
	HasPIN bool `json:"hasPin"`
}

// handleState returns the whole ledger with the PIN redacted.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	st := s.engine.Snapshot()
	hasPIN := st.PIN != nil
	st.PIN = nil
	writeJSON(w, r, http.StatusOK, stateResponse{State: st, HasPIN: hasPIN})
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.engine.Snapshot().Accounts)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var a core.Account
	if err := decodeJSON(w, r, &a); err != nil {
		writeError(w, r, err)
		return
	}
	created, err := s.engine.CreateAccount(r.Context(), a)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, created)
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	var p services.AccountPatch
	if err := decodeJSON(w, r, &p); err != nil {
		writeError(w, r, err)
		return
	}
	updated, err := s.engine.UpdateAccount(r.Context(), r.PathValue("id"), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, updated)
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.DeleteAccount(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAccountStats(w http.ResponseWriter, r *http.Request) {
	params, err := ParseMonthParams(r.URL.Query(), s.now().In(s.loc))
	if err != nil {
		writeError(w, r, err)
		return
	}
	method := core.PaymentMethod(r.PathValue("id"))
	st := s.engine.Snapshot()
	if !method.IsCash() && st.AccountIndex(string(method)) < 0 {
		writeError(w, r, core.ErrNotFound)
		return
	}
	writeJSON(w, r, http.StatusOK, report.AccountMonthStats(st, method, params.Year, params.Month, s.loc))
}

// handleListMovements returns the newest movements first, all of them unless
// ?limit is given.
func (s *Server) handleListMovements(w http.ResponseWriter, r *http.Request) {
	n, err := parseLimit(r.URL.Query(), -1)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, report.RecentActivity(s.engine.Snapshot(), n))
}

func (s *Server) handleCreateMovement(w http.ResponseWriter, r *http.Request) {
	var m core.Movement
	if err := decodeJSON(w, r, &m); err != nil {
		writeError(w, r, err)
		return
	}
	created, err := s.engine.CreateMovement(r.Context(), m)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, created)
}

func (s *Server) handleEditMovement(w http.ResponseWriter, r *http.Request) {
	var p services.MovementPatch
	if err := decodeJSON(w, r, &p); err != nil {
		writeError(w, r, err)
		return
	}
	updated, err := s.engine.EditMovement(r.Context(), r.PathValue("id"), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, updated)
}

func (s *Server) handleDeleteMovement(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.DeleteMovement(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
