package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"miadmin/internal/amqp"
	"miadmin/internal/ledger"
	"miadmin/internal/log"
	"miadmin/internal/report"
	"miadmin/internal/services"
	"miadmin/internal/storage"
)

// Findings is what one check of the persisted ledger turned up.
type Findings struct {
	Revision int64                 `json:"revision"`
	Drift    []services.Drift      `json:"drift"`
	Exceeded []report.BudgetStatus `json:"exceeded"`
}

// Clean reports whether the check found nothing to flag.
func (f Findings) Clean() bool {
	return len(f.Drift) == 0 && len(f.Exceeded) == 0
}

// AuditWorker re-reads the persisted ledger after every ledger event and
// logs account balances that no longer match their movements, plus budgets
// exceeded this month. It never writes.
type AuditWorker struct {
	repo   storage.Repository
	logger *log.Logger
	loc    *time.Location
	now    func() time.Time

	// mu serializes checks and guards lastCheck.
	mu        sync.Mutex
	lastCheck time.Time
}

func NewAuditWorker(repo storage.Repository, logger *log.Logger, loc *time.Location) *AuditWorker {
	if loc == nil {
		loc = time.Local
	}
	return &AuditWorker{
		repo:   repo,
		logger: logger.WithComponent("audit"),
		loc:    loc,
		now:    time.Now,
	}
}

// Check loads the ledger and audits it. Concurrent calls run one at a time.
func (w *AuditWorker) Check(ctx context.Context) (Findings, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	engine := services.NewEngine(ledger.NewStore(w.repo), services.WithLogger(w.logger))
	if err := engine.Load(ctx); err != nil {
		return Findings{}, fmt.Errorf("load ledger: %w", err)
	}

	now := w.now()
	w.lastCheck = now
	now = now.In(w.loc)
	f := Findings{Revision: engine.Revision(), Drift: engine.Audit()}
	for _, b := range report.BudgetStatuses(engine.Snapshot(), now.Year(), now.Month(), w.loc) {
		if b.Tier == report.BudgetExceeded {
			f.Exceeded = append(f.Exceeded, b)
		}
	}

	for _, d := range f.Drift {
		w.logger.WarnContext(ctx, "Account balance drifted from its movements",
			log.FieldAccount, d.AccountID,
			"alias", d.Alias,
			"stored", d.Stored.String(),
			"replayed", d.Replayed.String())
	}
	for _, b := range f.Exceeded {
		w.logger.WarnContext(ctx, "Budget exceeded",
			"category", b.Category,
			"limit", b.Limit.String(),
			"spent", b.Spent.String())
	}
	if f.Clean() {
		w.logger.DebugContext(ctx, "Ledger check clean", log.FieldRevision, f.Revision)
	}
	return f, nil
}

// HandleLedgerEvent audits the ledger for one event. An event published
// before the last check is already covered by it and is skipped; revisions
// restart with the producer so they cannot order events.
func (w *AuditWorker) HandleLedgerEvent(ctx context.Context, ev *amqp.LedgerEvent) error {
	w.logger.InfoContext(ctx, "Processing ledger event",
		log.NewFields().WithCommand(ev.Kind, ev.Revision).ToSlice()...)

	if w.covers(ev.Timestamp) {
		w.logger.DebugContext(ctx, "Ledger event already covered by last check", log.FieldRevision, ev.Revision)
		return nil
	}

	if _, err := w.Check(ctx); err != nil {
		return fmt.Errorf("audit after %s: %w", ev.Kind, err)
	}
	return nil
}

// covers reports whether the last check started after ts.
func (w *AuditWorker) covers(ts time.Time) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return !w.lastCheck.IsZero() && ts.Before(w.lastCheck)
}

// RunPeriodic runs Check every interval until ctx is done, catching changes
// whose events were lost.
func (w *AuditWorker) RunPeriodic(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.Check(ctx); err != nil {
				w.logger.ErrorContext(ctx, "Periodic ledger check failed", log.FieldError, err)
			}
		}
	}
}
