package services

import (
	"context"
	"crypto/subtle"
	"fmt"

	"miadmin/internal/core"
)

// SetBudgets merges the given monthly limits into the budget map. A zero
// limit removes the category's budget. It reports whether anything changed;
// an unchanged map is not saved.
func (e *Engine) SetBudgets(ctx context.Context, limits map[core.Category]core.Money) (bool, error) {
	for c, v := range limits {
		if !c.Budgetable() {
			return false, fmt.Errorf("%w: %q", core.ErrNotBudgetable, c)
		}
		if v.IsNegative() {
			return false, fmt.Errorf("budget %q: %w", c, core.ErrInvalidAmount)
		}
	}

	changed := false
	err := e.mutate(ctx, "budgets.updated", func(st *core.State) (string, error) {
		for c, v := range limits {
			cur, ok := st.Budgets[c]
			switch {
			case v.IsZero() && ok:
				delete(st.Budgets, c)
				changed = true
			case v.IsZero():
			case !ok || !cur.Equal(v):
				st.Budgets[c] = v
				changed = true
			}
		}
		if !changed {
			return "", errNoChange
		}
		return "", nil
	})
	return changed, err
}

// SetPIN replaces the access PIN. Both entries must be the same four digits.
func (e *Engine) SetPIN(ctx context.Context, pin, confirm string) error {
	if err := core.ValidatePIN(pin); err != nil {
		return err
	}
	if pin != confirm {
		return core.ErrPINMismatch
	}
	return e.mutate(ctx, "pin.updated", func(st *core.State) (string, error) {
		st.PIN = &pin
		return "", nil
	})
}

// HasPIN reports whether a PIN has been configured.
func (e *Engine) HasPIN() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.State().PIN != nil
}

// VerifyPIN checks pin against the stored one. Without a stored PIN every
// attempt is accepted.
func (e *Engine) VerifyPIN(pin string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	stored := e.store.State().PIN
	if stored == nil {
		return nil
	}
	if subtle.ConstantTimeCompare([]byte(*stored), []byte(pin)) != 1 {
		return core.ErrWrongPIN
	}
	return nil
}

func (e *Engine) SetTheme(ctx context.Context, theme string) error {
	if err := core.ValidateTheme(theme); err != nil {
		return err
	}
	return e.mutate(ctx, "theme.updated", func(st *core.State) (string, error) {
		if st.Theme == theme {
			return "", errNoChange
		}
		st.Theme = theme
		return "", nil
	})
}
