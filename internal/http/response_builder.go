package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"miadmin/internal/core"
	"miadmin/internal/log"
)

// errBadRequest marks malformed requests that never reached the engine.
var errBadRequest = errors.New("bad request")

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

// statusFor maps engine and store errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case core.IsValidation(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrAccountInUse),
		errors.Is(err, core.ErrDebtHasPayments),
		errors.Is(err, core.ErrGoalHasDeposits),
		errors.Is(err, core.ErrLinkedMovement):
		return http.StatusConflict
	case errors.Is(err, core.ErrCorruptImport), errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrWrongPIN):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Failed to encode response",
			log.FieldPath, r.URL.Path, log.FieldError, err)
	}
}

// writeError writes err as an ErrorResponse. Internal errors are logged and
// their text is not exposed.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.FieldPath, r.URL.Path, log.FieldError, err)
		msg = "internal error"
	}
	writeJSON(w, r, status, ErrorResponse{Error: msg, Status: status})
}
