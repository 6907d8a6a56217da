package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"miadmin/internal/core"
	"miadmin/internal/ledger"
	"miadmin/internal/log"
)

// Publisher receives a notification after every successful save.
type Publisher interface {
	PublishLedgerEvent(ctx context.Context, kind, entityID string, revision int64) error
}

// Engine is the single writer of the ledger. Every command validates its
// input, mutates the live state through the apply/revert protocol and
// persists the whole document before returning.
type Engine struct {
	mu        sync.Mutex
	store     *ledger.Store
	publisher Publisher
	logger    *log.Logger
	now       func() time.Time
	revision  int64
}

// Option configures an Engine.
type Option func(*Engine)

// WithPublisher enables post-save event notifications.
func WithPublisher(p Publisher) Option {
	return func(e *Engine) { e.publisher = p }
}

// WithClock overrides the time source used to stamp new movements.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithLogger(l *log.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

func NewEngine(store *ledger.Store, opts ...Option) *Engine {
	e := &Engine{
		store:  store,
		logger: log.New(log.DefaultConfig()).WithComponent(log.ComponentEngine),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Load reads the persisted ledger into memory.
func (e *Engine) Load(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.store.Load(ctx); err != nil {
		return err
	}
	e.revision++

	st := e.store.State()
	e.logger.InfoContext(ctx, "Ledger loaded",
		log.FieldRevision, e.revision,
		"accounts", len(st.Accounts),
		"movements", len(st.Movements),
		"debts", len(st.Debts),
		"savings", len(st.Savings),
		"subscriptions", len(st.Subscriptions))
	return nil
}

// Snapshot returns a deep copy of the current state.
func (e *Engine) Snapshot() *core.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.State().Clone()
}

// Revision increases by one on every persisted change.
func (e *Engine) Revision() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.revision
}

// Export writes the current state as a backup document.
func (e *Engine) Export(w io.Writer) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Export(w)
}

// errNoChange lets a mutation report that it left the state as it was, so
// nothing is saved or published.
var errNoChange = errors.New("no change")

func newID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

// mutate runs fn against the live state and persists the result. When fn or
// the save fails, the state is restored to what it was before the call.
func (e *Engine) mutate(ctx context.Context, kind string, fn func(st *core.State) (string, error)) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	snapshot := e.store.State().Clone()
	entityID, err := fn(e.store.State())
	if errors.Is(err, errNoChange) {
		e.store.Replace(snapshot)
		return nil
	}
	if err != nil {
		e.store.Replace(snapshot)
		return err
	}
	if err := e.store.Save(ctx); err != nil {
		e.store.Replace(snapshot)
		e.logger.ErrorContext(ctx, "Save failed, state rolled back",
			log.NewFields().WithCommand(kind, e.revision).WithError(err).ToSlice()...)
		return err
	}
	e.revision++
	e.publish(ctx, kind, entityID)
	return nil
}

func (e *Engine) publish(ctx context.Context, kind, entityID string) {
	if e.publisher == nil {
		return
	}
	if err := e.publisher.PublishLedgerEvent(ctx, kind, entityID, e.revision); err != nil {
		// The change is already persisted locally.
		fields := log.NewFields().WithCommand(kind, e.revision).WithError(err)
		fields[log.FieldEntity] = entityID
		e.logger.ErrorContext(ctx, "Failed to publish ledger event", fields.ToSlice()...)
	}
}

// applyMovementEffect adds m's signed amount to its account. Cash and
// unknown accounts are left alone.
func (e *Engine) applyMovementEffect(ctx context.Context, st *core.State, m core.Movement) {
	e.shiftBalance(ctx, st, m, m.Effect())
}

// revertMovementEffect undoes applyMovementEffect for the same movement.
func (e *Engine) revertMovementEffect(ctx context.Context, st *core.State, m core.Movement) {
	e.shiftBalance(ctx, st, m, m.Effect().Neg())
}

func (e *Engine) shiftBalance(ctx context.Context, st *core.State, m core.Movement, delta core.Money) {
	if m.Method.IsCash() {
		return
	}
	i := st.AccountIndex(string(m.Method))
	if i < 0 {
		e.logger.WarnContext(ctx, "Movement references unknown account",
			log.FieldMovement, m.ID, log.FieldAccount, m.Method)
		return
	}
	st.Accounts[i].Balance = st.Accounts[i].Balance.Add(delta)
}

// checkMethod rejects payment methods that are neither cash nor a live account.
func checkMethod(st *core.State, p core.PaymentMethod) error {
	if p.IsCash() || st.AccountIndex(string(p)) >= 0 {
		return nil
	}
	return fmt.Errorf("%w: %q", core.ErrInvalidMethod, p)
}

// Reset clears the ledger and its persisted copy.
func (e *Engine) Reset(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.store.Reset(ctx); err != nil {
		return err
	}
	e.revision++
	e.logger.InfoContext(ctx, "Ledger reset", log.FieldRevision, e.revision)
	e.publish(ctx, "ledger.reset", "")
	return nil
}

// Import validates a backup document and replaces the whole ledger with it.
// A rejected document leaves the current state untouched.
func (e *Engine) Import(ctx context.Context, r io.Reader) error {
	st, err := ledger.ParseImport(r)
	if err != nil {
		return err
	}
	return e.mutate(ctx, "ledger.imported", func(live *core.State) (string, error) {
		*live = *st
		return "", nil
	})
}
