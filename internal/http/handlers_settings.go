package http

import (
	"bytes"
	"fmt"
	"net/http"

	"miadmin/internal/core"
	"miadmin/internal/ledger"
	"miadmin/internal/log"
)

type reconcileRequest struct {
	Method core.PaymentMethod `json:"metodoPago"`
	Actual core.Money         `json:"saldoReal"`
}

func (s *Server) handleCompareBalance(w http.ResponseWriter, r *http.Request) {
	var req reconcileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.engine.CompareBalance(req.Method, req.Actual)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}

// handleReconcile answers 201 when an adjustment movement was created and
// 200 when the balance already matched.
func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	var req reconcileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.engine.ReconcileAccount(r.Context(), req.Method, req.Actual)
	if err != nil {
		writeError(w, r, err)
		return
	}
	status := http.StatusOK
	if res.Adjustment != nil {
		status = http.StatusCreated
	}
	writeJSON(w, r, status, res)
}

func (s *Server) handleGetBudgets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.engine.Snapshot().Budgets)
}

func (s *Server) handleSetBudgets(w http.ResponseWriter, r *http.Request) {
	var limits map[core.Category]core.Money
	if err := decodeJSON(w, r, &limits); err != nil {
		writeError(w, r, err)
		return
	}
	changed, err := s.engine.SetBudgets(r.Context(), limits)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{
		"changed": changed,
		"budgets": s.engine.Snapshot().Budgets,
	})
}

func (s *Server) handleSetPIN(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PIN     string `json:"pin"`
		Confirm string `json:"confirm"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.engine.SetPIN(r.Context(), req.PIN, req.Confirm); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetTheme(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Theme string `json:"theme"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.engine.SetTheme(r.Context(), req.Theme); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleExport streams the backup document as a download.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.engine.Export(&buf); err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, ledger.ExportFileName(s.now().In(s.loc))))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// handleImport replaces the whole ledger with the uploaded backup.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, maxImportBytes)
	if err := s.engine.Import(r.Context(), body); err != nil {
		writeError(w, r, err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Ledger imported", log.FieldOperation, log.OpImport)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Reset(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	log.FromContext(r.Context()).WarnContext(r.Context(), "Ledger reset", log.FieldOperation, log.OpReset)
	w.WriteHeader(http.StatusNoContent)
}
