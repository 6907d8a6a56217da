package http

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"miadmin/internal/core"
	"miadmin/internal/log"
)

func TestParseMonthParams(t *testing.T) {
	now := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		name      string
		query     string
		wantYear  int
		wantMonth time.Month
		wantErr   bool
	}{
		{"defaults", "", 2025, time.March, false},
		{"explicit", "year=2024&month=12", 2024, time.December, false},
		{"only month", "month=1", 2025, time.January, false},
		{"padded", "year=%202023%20&month=07", 2023, time.July, false},
		{"month zero", "month=0", 0, 0, true},
		{"month thirteen", "month=13", 0, 0, true},
		{"year text", "year=abc", 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, _ := url.ParseQuery(tt.query)
			got, err := ParseMonthParams(q, now)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMonthParams() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, errBadRequest) {
					t.Errorf("error %v should be a bad request", err)
				}
				return
			}
			if got.Year != tt.wantYear || got.Month != tt.wantMonth {
				t.Errorf("ParseMonthParams() = %+v, want %d-%d", got, tt.wantYear, tt.wantMonth)
			}
		})
	}
}

func TestParseDateParam(t *testing.T) {
	q := url.Values{"from": {"2025-02-28"}, "bad": {"28/02/2025"}}
	got, err := parseDateParam(q, "from", time.UTC)
	if err != nil || !got.Equal(time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("from = %v, %v", got, err)
	}
	if got, err := parseDateParam(q, "to", time.UTC); err != nil || !got.IsZero() {
		t.Fatalf("missing value = %v, %v", got, err)
	}
	if _, err := parseDateParam(q, "bad", time.UTC); !errors.Is(err, errBadRequest) {
		t.Fatalf("bad value error = %v", err)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("wrapped: %w", core.ErrEmptyDescription), http.StatusUnprocessableEntity},
		{core.ErrInvalidAmount, http.StatusUnprocessableEntity},
		{fmt.Errorf("account %q: %w", "x", core.ErrNotFound), http.StatusNotFound},
		{core.ErrAccountInUse, http.StatusConflict},
		{core.ErrDebtHasPayments, http.StatusConflict},
		{core.ErrGoalHasDeposits, http.StatusConflict},
		{core.ErrLinkedMovement, http.StatusConflict},
		{core.ErrCorruptImport, http.StatusBadRequest},
		{errBadRequest, http.StatusBadRequest},
		{core.ErrWrongPIN, http.StatusUnauthorized},
		{errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestWriteJSONLogsThroughRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{
		Component: log.ComponentHTTP,
		Handler:   slog.NewTextHandler(&buf, nil),
	})
	r := httptest.NewRequest(http.MethodGet, "/api/state", nil)
	r = r.WithContext(log.NewContext(r.Context(), logger))
	rr := httptest.NewRecorder()

	// Channels cannot be encoded.
	writeJSON(rr, r, http.StatusOK, make(chan int))

	out := buf.String()
	if !strings.Contains(out, "Failed to encode response") || !strings.Contains(out, "component=http") {
		t.Errorf("log output = %q", out)
	}
}
