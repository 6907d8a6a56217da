package report

import (
	"testing"
	"time"

	"miadmin/internal/core"
)

func mov(id string, dir core.Direction, amount float64, method core.PaymentMethod, cat core.Category, date time.Time) core.Movement {
	return core.Movement{
		ID: id, Description: id, Amount: core.NewMoney(amount), Direction: dir,
		Method: method, Category: cat, Date: date,
	}
}

func sampleState() *core.State {
	st := core.NewState()
	opening := core.NewMoney(1000)
	st.Accounts = []core.Account{{ID: "acc-1", Name: "Bank", Alias: "bank", Balance: core.NewMoney(1350), OpeningBalance: &opening}}
	st.Movements = []core.Movement{
		mov("m1", core.Income, 500, "acc-1", core.CategorySalary, time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)),
		mov("m2", core.Expense, 100, "acc-1", core.CategoryFood, time.Date(2025, 3, 5, 9, 0, 0, 0, time.UTC)),
		mov("m3", core.Expense, 50, "acc-1", core.CategoryTransport, time.Date(2025, 3, 31, 23, 0, 0, 0, time.UTC)),
		mov("m4", core.Expense, 40, core.Cash, core.CategoryFood, time.Date(2025, 4, 1, 1, 0, 0, 0, time.UTC)),
		mov("m5", core.Income, 60, core.Cash, core.CategoryOther, time.Date(2025, 2, 20, 1, 0, 0, 0, time.UTC)),
	}
	return st
}

func TestMonthSummary(t *testing.T) {
	st := sampleState()
	got := MonthSummary(st, 2025, time.March, time.UTC)
	if !got.Income.Equal(core.NewMoney(500)) || !got.Expense.Equal(core.NewMoney(150)) || !got.Net.Equal(core.NewMoney(350)) {
		t.Fatalf("unexpected totals: %+v", got)
	}
	if len(got.ByCategory) != 2 || got.ByCategory[0].Category != core.CategoryFood {
		t.Fatalf("unexpected categories: %+v", got.ByCategory)
	}
}

func TestMonthSummaryUsesLocalCalendar(t *testing.T) {
	st := sampleState()
	// m3 is 2025-03-31 23:00 UTC, already April in UTC+2.
	loc := time.FixedZone("UTC+2", 2*60*60)
	got := MonthSummary(st, 2025, time.April, loc)
	if !got.Expense.Equal(core.NewMoney(90)) {
		t.Fatalf("expense = %s, want 90", got.Expense.Decimal())
	}
}

func TestRangeSummary(t *testing.T) {
	st := sampleState()
	tests := []struct {
		name      string
		from, to  time.Time
		direction core.Direction
		count     int
		net       float64
	}{
		{"everything", time.Time{}, time.Time{}, "", 5, 370},
		{"end day is inclusive", time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC), "", 3, 350},
		{"expenses only", time.Time{}, time.Time{}, core.Expense, 3, -190},
		{"open start", time.Time{}, time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC), "", 1, 60},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RangeSummary(st, tt.from, tt.to, tt.direction)
			if len(got.Movements) != tt.count || !got.Net.Equal(core.NewMoney(tt.net)) {
				t.Fatalf("count=%d net=%s, want %d and %v", len(got.Movements), got.Net.Decimal(), tt.count, tt.net)
			}
		})
	}
}

func TestAccountMonthStats(t *testing.T) {
	got := AccountMonthStats(sampleState(), "acc-1", 2025, time.March, time.UTC)
	if got.Count != 3 || !got.Income.Equal(core.NewMoney(500)) || !got.Expense.Equal(core.NewMoney(150)) {
		t.Fatalf("unexpected stats: %+v", got)
	}
}

func TestRecentActivity(t *testing.T) {
	got := RecentActivity(sampleState(), 2)
	if len(got) != 2 || got[0].ID != "m4" || got[1].ID != "m3" {
		t.Fatalf("unexpected order: %v, %v", got[0].ID, got[1].ID)
	}
}

func TestTotalsAndReplay(t *testing.T) {
	st := sampleState()
	o := Totals(st)
	if !o.Cash.Equal(core.NewMoney(20)) || !o.Accounts.Equal(core.NewMoney(1350)) || !o.Total.Equal(core.NewMoney(1370)) {
		t.Fatalf("unexpected totals: %+v", o)
	}
	bal, ok := ReplayBalance(st, "acc-1")
	if !ok || !bal.Equal(core.NewMoney(1350)) {
		t.Fatalf("replay = %s, %v", bal.Decimal(), ok)
	}
	if _, ok := ReplayBalance(st, "acc-x"); ok {
		t.Fatal("unknown account must not replay")
	}
}

func TestDebtProgress(t *testing.T) {
	tests := []struct {
		name     string
		total    float64
		paid     float64
		pending  float64
		progress float64
	}{
		{"thirty of a hundred", 100, 30, 70, 30},
		{"nothing paid", 100, 0, 100, 0},
		{"overpaid is clipped", 100, 120, -20, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Debt(core.Debt{Total: core.NewMoney(tt.total), Paid: core.NewMoney(tt.paid)})
			if !got.Pending.Equal(core.NewMoney(tt.pending)) || got.Progress != tt.progress {
				t.Fatalf("pending=%s progress=%v", got.Pending.Decimal(), got.Progress)
			}
		})
	}

	st := core.NewState()
	st.Debts = []core.Debt{
		{Total: core.NewMoney(100), Paid: core.NewMoney(30)},
		{Total: core.NewMoney(300), Paid: core.NewMoney(70)},
	}
	sum := DebtTotals(st)
	if !sum.Pending.Equal(core.NewMoney(300)) || sum.Progress != 25 {
		t.Fatalf("unexpected totals: %+v", sum)
	}
}

func TestSavingsProgress(t *testing.T) {
	got := Savings(core.SavingsGoal{Target: core.NewMoney(200), Current: core.NewMoney(50)})
	if got.Progress != 25 || !got.Remaining.Equal(core.NewMoney(150)) {
		t.Fatalf("unexpected: %+v", got)
	}
	got = Savings(core.SavingsGoal{Target: core.NewMoney(200), Current: core.NewMoney(250)})
	if got.Progress != 100 || !got.Remaining.IsZero() {
		t.Fatalf("unexpected: %+v", got)
	}
}

func TestClassifyBudget(t *testing.T) {
	tests := []struct {
		spent float64
		want  BudgetTier
	}{
		{50, BudgetNormal},
		{59.99, BudgetNormal},
		{60, BudgetWarning},
		{70, BudgetWarning},
		{85, BudgetWarning},
		{90, BudgetDanger},
		{100, BudgetDanger},
		{110, BudgetExceeded},
	}
	for _, tt := range tests {
		if got := ClassifyBudget(core.NewMoney(tt.spent), core.NewMoney(100)); got != tt.want {
			t.Errorf("spent %v: got %s, want %s", tt.spent, got, tt.want)
		}
	}
}

func TestBudgetStatuses(t *testing.T) {
	st := sampleState()
	st.Budgets = core.Budgets{
		core.CategoryFood:      core.NewMoney(80),
		core.CategoryTransport: core.NewMoney(100),
		core.CategoryHealth:    core.Zero(),
	}
	got := BudgetStatuses(st, 2025, time.March, time.UTC)
	if len(got) != 2 {
		t.Fatalf("zero limits must be skipped: %+v", got)
	}
	food := got[0]
	if food.Category != core.CategoryFood || food.Tier != BudgetExceeded || food.Percent != 100 || !food.Remaining.Equal(core.NewMoney(-20)) {
		t.Fatalf("unexpected food status: %+v", food)
	}
	if got[1].Tier != BudgetNormal || got[1].Percent != 50 {
		t.Fatalf("unexpected transport status: %+v", got[1])
	}
}

func TestNextDue(t *testing.T) {
	tests := []struct {
		name  string
		day   int
		today time.Time
		want  time.Time
	}{
		{"later this month", 20, time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC), time.Date(2025, 5, 20, 0, 0, 0, 0, time.UTC)},
		{"today", 10, time.Date(2025, 5, 10, 15, 0, 0, 0, time.UTC), time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC)},
		{"rolls to next month", 5, time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC), time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC)},
		{"rolls over the year", 3, time.Date(2025, 12, 15, 0, 0, 0, 0, time.UTC), time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC)},
		{"clamped to february", 31, time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC), time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC)},
		{"last day of a long month", 31, time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)},
		{"clamped after rolling", 30, time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC), time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC)},
		{"leap february", 30, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextDue(tt.day, tt.today); !got.Equal(tt.want) {
				t.Fatalf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestClassifyDue(t *testing.T) {
	tests := []struct {
		days int
		want DueTier
	}{
		{0, DueDanger}, {3, DueDanger}, {4, DueWarning}, {7, DueWarning}, {8, DueOK}, {30, DueOK},
	}
	for _, tt := range tests {
		if got := ClassifyDue(tt.days); got != tt.want {
			t.Errorf("%d days: got %s, want %s", tt.days, got, tt.want)
		}
	}
}

func TestUpcomingPayments(t *testing.T) {
	st := core.NewState()
	st.Subscriptions = []core.Subscription{
		{ID: "s1", Name: "rent", Amount: core.NewMoney(1000), BillingDay: 1, Method: core.Cash},
		{ID: "s2", Name: "music", Amount: core.NewMoney(99), BillingDay: 12, Method: core.Cash},
		{ID: "s3", Name: "phone", Amount: core.NewMoney(300), BillingDay: 20, Method: core.Cash},
	}
	now := time.Date(2025, 5, 10, 18, 0, 0, 0, time.UTC)
	got := UpcomingPayments(st, now, 2)
	if len(got) != 2 || got[0].Subscription.ID != "s2" || got[1].Subscription.ID != "s3" {
		t.Fatalf("unexpected order: %+v", got)
	}
	// 12th at midnight is 1.25 days away.
	if got[0].DaysLeft != 2 || got[0].Tier != DueDanger {
		t.Fatalf("unexpected first payment: %+v", got[0])
	}
	if got[1].DaysLeft != 10 || got[1].Tier != DueOK {
		t.Fatalf("unexpected second payment: %+v", got[1])
	}
	if all := UpcomingPayments(st, now, -1); len(all) != 3 || all[2].Subscription.ID != "s1" {
		t.Fatalf("unexpected full list: %+v", all)
	}
}
