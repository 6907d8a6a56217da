package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"miadmin/internal/core"
	"miadmin/internal/ledger"
	"miadmin/internal/log"
	"miadmin/internal/report"
	"miadmin/internal/services"
	"miadmin/internal/storage"
)

var fixedNow = time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T, opts Options) *Server {
	t.Helper()
	clock := func() time.Time { return fixedNow }
	engine := services.NewEngine(ledger.NewStore(storage.NewMemoryRepository()),
		services.WithClock(clock), services.WithLogger(log.Discard()))
	if err := engine.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	opts.Location = time.UTC
	opts.Now = clock
	opts.Logger = log.Discard()
	srv := NewServer(engine, opts)
	t.Cleanup(func() { srv.Shutdown(context.Background()) })
	return srv
}

// do sends a request through the full middleware chain and decodes a JSON
// response into out when out is non-nil.
func do(t *testing.T, srv *Server, method, target, body string, out any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	if out != nil && rr.Code < 300 {
		if err := json.Unmarshal(rr.Body.Bytes(), out); err != nil {
			t.Fatalf("%s %s: decode %q: %v", method, target, rr.Body.String(), err)
		}
	}
	return rr
}

func createAccount(t *testing.T, srv *Server, balance string) core.Account {
	t.Helper()
	var acc core.Account
	rr := do(t, srv, http.MethodPost, "/api/accounts", `{"nombre":"Nomina","alias":"BBVA","saldo":`+balance+`}`, &acc)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create account status=%d body=%s", rr.Code, rr.Body.String())
	}
	return acc
}

func createExpense(t *testing.T, srv *Server, method string, amount string) core.Movement {
	t.Helper()
	var m core.Movement
	body := `{"descripcion":"Super","monto":` + amount + `,"tipo":"expense","metodoPago":"` + method + `","categoria":"food"}`
	rr := do(t, srv, http.MethodPost, "/api/movements", body, &m)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create movement status=%d body=%s", rr.Code, rr.Body.String())
	}
	return m
}

func TestHealthAndReady(t *testing.T) {
	srv := newTestServer(t, Options{})
	for _, path := range []string{"/healthz", "/readyz"} {
		rr := do(t, srv, http.MethodGet, path, "", nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}
}

func TestMiddlewareHeaders(t *testing.T) {
	srv := newTestServer(t, Options{})
	rr := do(t, srv, http.MethodGet, "/api/state", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing security headers")
	}
	if !strings.HasPrefix(rr.Header().Get("Content-Type"), "application/json") {
		t.Errorf("Content-Type = %q", rr.Header().Get("Content-Type"))
	}
}

func TestMovementAppliesToAccount(t *testing.T) {
	srv := newTestServer(t, Options{})
	acc := createAccount(t, srv, "1000")
	m := createExpense(t, srv, acc.ID, "200")

	var accounts []core.Account
	do(t, srv, http.MethodGet, "/api/accounts", "", &accounts)
	if len(accounts) != 1 || !accounts[0].Balance.Equal(core.NewMoney(800)) {
		t.Fatalf("accounts = %+v", accounts)
	}

	var edited core.Movement
	rr := do(t, srv, http.MethodPatch, "/api/movements/"+m.ID, `{"monto":150}`, &edited)
	if rr.Code != http.StatusOK || !edited.Amount.Equal(core.NewMoney(150)) {
		t.Fatalf("edit status=%d body=%s", rr.Code, rr.Body.String())
	}
	do(t, srv, http.MethodGet, "/api/accounts", "", &accounts)
	if !accounts[0].Balance.Equal(core.NewMoney(850)) {
		t.Fatalf("balance after edit = %s", accounts[0].Balance)
	}

	if rr := do(t, srv, http.MethodDelete, "/api/movements/"+m.ID, "", nil); rr.Code != http.StatusNoContent {
		t.Fatalf("delete status=%d", rr.Code)
	}
	do(t, srv, http.MethodGet, "/api/accounts", "", &accounts)
	if !accounts[0].Balance.Equal(core.NewMoney(1000)) {
		t.Fatalf("balance after delete = %s", accounts[0].Balance)
	}
}

func TestErrorStatusMapping(t *testing.T) {
	srv := newTestServer(t, Options{})
	acc := createAccount(t, srv, "100")
	createExpense(t, srv, acc.ID, "10")
	debt := report.DebtProgress{}
	do(t, srv, http.MethodPost, "/api/debts", `{"descripcion":"Car","montoTotal":100}`, &debt)
	do(t, srv, http.MethodPost, "/api/debts/"+debt.Debt.ID+"/payments", `{"monto":10,"metodoPago":"cash"}`, nil)

	tests := []struct {
		name   string
		method string
		target string
		body   string
		want   int
	}{
		{"empty description", http.MethodPost, "/api/movements", `{"descripcion":"","monto":5,"tipo":"expense","metodoPago":"cash","categoria":"food"}`, http.StatusUnprocessableEntity},
		{"non numeric amount", http.MethodPost, "/api/movements", `{"descripcion":"x","monto":"abc","tipo":"expense","metodoPago":"cash","categoria":"food"}`, http.StatusUnprocessableEntity},
		{"unknown payment method", http.MethodPost, "/api/movements", `{"descripcion":"x","monto":5,"tipo":"expense","metodoPago":"acc-missing","categoria":"food"}`, http.StatusUnprocessableEntity},
		{"unknown field", http.MethodPost, "/api/movements", `{"descripcion":"x","bogus":1}`, http.StatusBadRequest},
		{"empty body", http.MethodPost, "/api/accounts", "", http.StatusBadRequest},
		{"missing movement", http.MethodPatch, "/api/movements/mov-nope", `{"descripcion":"y"}`, http.StatusNotFound},
		{"missing account stats", http.MethodGet, "/api/accounts/acc-nope/stats", "", http.StatusNotFound},
		{"account in use", http.MethodDelete, "/api/accounts/" + acc.ID, "", http.StatusConflict},
		{"debt with payments", http.MethodDelete, "/api/debts/" + debt.Debt.ID, "", http.StatusConflict},
		{"corrupt import", http.MethodPost, "/api/import", `[1,2,3]`, http.StatusBadRequest},
		{"bad month", http.MethodGet, "/api/summary?month=13", "", http.StatusBadRequest},
		{"bad range", http.MethodGet, "/api/summary/range?from=2025-05-10&to=2025-05-01", "", http.StatusBadRequest},
		{"bad direction", http.MethodGet, "/api/summary/range?direction=sideways", "", http.StatusUnprocessableEntity},
		{"non budgetable category", http.MethodPut, "/api/budgets", `{"salary":100}`, http.StatusUnprocessableEntity},
		{"wrong method", http.MethodPut, "/api/movements", `{}`, http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, srv, tt.method, tt.target, tt.body, nil)
			if rr.Code != tt.want {
				t.Fatalf("status=%d want %d body=%s", rr.Code, tt.want, rr.Body.String())
			}
			if tt.want != http.StatusMethodNotAllowed {
				var e ErrorResponse
				if err := json.Unmarshal(rr.Body.Bytes(), &e); err != nil || e.Status != tt.want || e.Error == "" {
					t.Errorf("error body = %q", rr.Body.String())
				}
			}
		})
	}
}

func TestPINGate(t *testing.T) {
	srv := newTestServer(t, Options{})
	if rr := do(t, srv, http.MethodPut, "/api/pin", `{"pin":"1234","confirm":"4321"}`, nil); rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("mismatch status=%d", rr.Code)
	}
	if rr := do(t, srv, http.MethodPut, "/api/pin", `{"pin":"1234","confirm":"1234"}`, nil); rr.Code != http.StatusNoContent {
		t.Fatalf("set pin status=%d", rr.Code)
	}

	if rr := do(t, srv, http.MethodGet, "/api/state", "", nil); rr.Code != http.StatusUnauthorized {
		t.Fatalf("without pin status=%d", rr.Code)
	}
	if rr := do(t, srv, http.MethodGet, "/api/state", "", nil, HeaderPIN, "0000"); rr.Code != http.StatusUnauthorized {
		t.Fatalf("wrong pin status=%d", rr.Code)
	}

	var st struct {
		PIN    *string `json:"pin"`
		HasPIN bool    `json:"hasPin"`
		Theme  string  `json:"theme"`
	}
	rr := do(t, srv, http.MethodGet, "/api/state", "", &st, HeaderPIN, "1234")
	if rr.Code != http.StatusOK {
		t.Fatalf("with pin status=%d", rr.Code)
	}
	if st.PIN != nil || !st.HasPIN || st.Theme != core.ThemeLight {
		t.Errorf("state = %+v", st)
	}

	if rr := do(t, srv, http.MethodGet, "/healthz", "", nil); rr.Code != http.StatusOK {
		t.Errorf("health must not need the pin, status=%d", rr.Code)
	}
}

func TestReconcileEndpoint(t *testing.T) {
	srv := newTestServer(t, Options{})
	acc := createAccount(t, srv, "100")

	var cmp services.ReconcileResult
	rr := do(t, srv, http.MethodPost, "/api/reconcile/compare", `{"metodoPago":"`+acc.ID+`","saldoReal":150}`, &cmp)
	if rr.Code != http.StatusOK || cmp.Balanced || !cmp.Difference.Equal(core.NewMoney(50)) {
		t.Fatalf("compare status=%d result=%+v", rr.Code, cmp)
	}

	var res services.ReconcileResult
	rr = do(t, srv, http.MethodPost, "/api/reconcile", `{"metodoPago":"`+acc.ID+`","saldoReal":150}`, &res)
	if rr.Code != http.StatusCreated || res.Adjustment == nil || res.Adjustment.Direction != core.Income {
		t.Fatalf("reconcile status=%d result=%+v", rr.Code, res)
	}

	var res2 services.ReconcileResult
	rr = do(t, srv, http.MethodPost, "/api/reconcile", `{"metodoPago":"`+acc.ID+`","saldoReal":150.004}`, &res2)
	if rr.Code != http.StatusOK || !res2.Balanced || res2.Adjustment != nil {
		t.Fatalf("second reconcile status=%d result=%+v", rr.Code, res2)
	}
}

func TestSummaryFollowsRevision(t *testing.T) {
	srv := newTestServer(t, Options{})
	createExpense(t, srv, "cash", "200")

	var overview core.MonthOverview
	do(t, srv, http.MethodGet, "/api/summary?year=2025&month=5", "", &overview)
	if !overview.Expense.Equal(core.NewMoney(200)) {
		t.Fatalf("expense = %s", overview.Expense)
	}

	createExpense(t, srv, "cash", "100")
	do(t, srv, http.MethodGet, "/api/summary?year=2025&month=5", "", &overview)
	if !overview.Expense.Equal(core.NewMoney(300)) {
		t.Fatalf("cached summary survived a write: expense = %s", overview.Expense)
	}
	if srv.summaryCache.Size() != 2 {
		t.Errorf("summary cache size = %d, want one entry per revision", srv.summaryCache.Size())
	}

	var rng report.Range
	do(t, srv, http.MethodGet, "/api/summary/range?from=2025-05-10&to=2025-05-10&direction=expense", "", &rng)
	if len(rng.Movements) != 2 || !rng.Expense.Equal(core.NewMoney(300)) {
		t.Fatalf("range = %+v", rng)
	}
}

func TestBudgetStatusEndpoint(t *testing.T) {
	srv := newTestServer(t, Options{})
	createExpense(t, srv, "cash", "200")

	var out struct {
		Changed bool         `json:"changed"`
		Budgets core.Budgets `json:"budgets"`
	}
	rr := do(t, srv, http.MethodPut, "/api/budgets", `{"food":250}`, &out)
	if rr.Code != http.StatusOK || !out.Changed || !out.Budgets[core.CategoryFood].Equal(core.NewMoney(250)) {
		t.Fatalf("set budgets status=%d out=%+v", rr.Code, out)
	}
	do(t, srv, http.MethodPut, "/api/budgets", `{"food":250}`, &out)
	if out.Changed {
		t.Error("same budget should report no change")
	}

	var statuses []report.BudgetStatus
	do(t, srv, http.MethodGet, "/api/budgets/status?year=2025&month=5", "", &statuses)
	if len(statuses) != 1 || statuses[0].Tier != report.BudgetWarning {
		t.Fatalf("statuses = %+v", statuses)
	}
}

func TestObligationsEndpoints(t *testing.T) {
	srv := newTestServer(t, Options{})

	var debt report.DebtProgress
	do(t, srv, http.MethodPost, "/api/debts", `{"descripcion":"Laptop","montoTotal":100}`, &debt)
	rr := do(t, srv, http.MethodPost, "/api/debts/"+debt.Debt.ID+"/payments", `{"monto":30,"metodoPago":"cash"}`, nil)
	if rr.Code != http.StatusCreated {
		t.Fatalf("payment status=%d body=%s", rr.Code, rr.Body.String())
	}
	var debts []report.DebtProgress
	do(t, srv, http.MethodGet, "/api/debts", "", &debts)
	if len(debts) != 1 || !debts[0].Pending.Equal(core.NewMoney(70)) || debts[0].Progress != 30 {
		t.Fatalf("debts = %+v", debts)
	}

	var goal report.SavingsProgress
	do(t, srv, http.MethodPost, "/api/savings", `{"nombre":"Trip","montoMeta":1000}`, &goal)
	do(t, srv, http.MethodPost, "/api/savings/"+goal.Goal.ID+"/contributions", `{"monto":250,"metodoPago":"cash"}`, nil)
	var goals []report.SavingsProgress
	do(t, srv, http.MethodGet, "/api/savings", "", &goals)
	if len(goals) != 1 || !goals[0].Remaining.Equal(core.NewMoney(750)) {
		t.Fatalf("goals = %+v", goals)
	}
	if rr := do(t, srv, http.MethodPatch, "/api/savings/"+goal.Goal.ID, `{"montoActual":0}`, nil); rr.Code != http.StatusConflict {
		t.Fatalf("editing current after contributions status=%d", rr.Code)
	}

	var sub core.Subscription
	rr = do(t, srv, http.MethodPost, "/api/subscriptions", `{"nombre":"Streaming","monto":199,"fechaCorte":12,"metodoPago":"cash"}`, &sub)
	if rr.Code != http.StatusCreated {
		t.Fatalf("subscription status=%d body=%s", rr.Code, rr.Body.String())
	}
	var upcoming []report.Payment
	do(t, srv, http.MethodGet, "/api/upcoming?limit=5", "", &upcoming)
	if len(upcoming) != 1 || upcoming[0].DaysLeft != 2 || upcoming[0].Tier != report.DueDanger {
		t.Fatalf("upcoming = %+v", upcoming)
	}

	var totals totalsResponse
	do(t, srv, http.MethodGet, "/api/totals", "", &totals)
	if !totals.Balances.Cash.Equal(core.NewMoney(-280)) || !totals.Debts.Pending.Equal(core.NewMoney(70)) {
		t.Fatalf("totals = %+v", totals)
	}
}

func TestExportImportReset(t *testing.T) {
	srv := newTestServer(t, Options{})
	createAccount(t, srv, "500")
	do(t, srv, http.MethodPut, "/api/pin", `{"pin":"1234","confirm":"1234"}`, nil)

	rr := do(t, srv, http.MethodGet, "/api/export", "", nil, HeaderPIN, "1234")
	if rr.Code != http.StatusOK {
		t.Fatalf("export status=%d", rr.Code)
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, "mi_admin_backup_2025-05-10.json") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	backup := rr.Body.String()

	if rr := do(t, srv, http.MethodPost, "/api/reset", "", nil, HeaderPIN, "1234"); rr.Code != http.StatusNoContent {
		t.Fatalf("reset status=%d", rr.Code)
	}
	var accounts []core.Account
	do(t, srv, http.MethodGet, "/api/accounts", "", &accounts)
	if len(accounts) != 0 {
		t.Fatalf("accounts after reset = %+v", accounts)
	}

	if rr := do(t, srv, http.MethodPost, "/api/import", backup, nil); rr.Code != http.StatusNoContent {
		t.Fatalf("import status=%d body=%s", rr.Code, rr.Body.String())
	}
	do(t, srv, http.MethodGet, "/api/accounts", "", &accounts, HeaderPIN, "1234")
	if len(accounts) != 1 || !accounts[0].Balance.Equal(core.NewMoney(500)) {
		t.Fatalf("accounts after import = %+v", accounts)
	}
}

func TestWriteRateLimit(t *testing.T) {
	srv := newTestServer(t, Options{RequestsPerMinute: 2})
	codes := []int{}
	for i := 0; i < 3; i++ {
		rr := do(t, srv, http.MethodPut, "/api/theme", `{"theme":"dark"}`, nil)
		codes = append(codes, rr.Code)
	}
	if codes[0] != http.StatusNoContent || codes[1] != http.StatusNoContent || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("codes = %v", codes)
	}
	if rr := do(t, srv, http.MethodGet, "/api/state", "", nil); rr.Code != http.StatusOK {
		t.Fatalf("reads are not rate limited, status=%d", rr.Code)
	}
}
