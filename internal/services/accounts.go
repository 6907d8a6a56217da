package services

import (
	"context"
	"fmt"

	"miadmin/internal/core"
)

// AccountPatch carries the editable account fields. Nil fields are kept.
type AccountPatch struct {
	Name  *string `json:"nombre,omitempty"`
	Alias *string `json:"alias,omitempty"`
	Color *string `json:"color,omitempty"`
}

// CreateAccount registers an account whose opening balance is a.Balance.
func (e *Engine) CreateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}
	a.ID = newID("acc")
	opening := a.Balance
	a.OpeningBalance = &opening

	err := e.mutate(ctx, "account.created", func(st *core.State) (string, error) {
		st.Accounts = append(st.Accounts, a)
		return a.ID, nil
	})
	if err != nil {
		return core.Account{}, err
	}
	e.logger.InfoContext(ctx, "Account created", "id", a.ID, "alias", a.Alias, "balance", a.Balance.String())
	return a, nil
}

// UpdateAccount edits the descriptive fields. The balance is never touched.
func (e *Engine) UpdateAccount(ctx context.Context, id string, p AccountPatch) (core.Account, error) {
	var out core.Account
	err := e.mutate(ctx, "account.updated", func(st *core.State) (string, error) {
		i := st.AccountIndex(id)
		if i < 0 {
			return "", fmt.Errorf("account %q: %w", id, core.ErrNotFound)
		}
		a := st.Accounts[i]
		if p.Name != nil {
			a.Name = *p.Name
		}
		if p.Alias != nil {
			a.Alias = *p.Alias
		}
		if p.Color != nil {
			a.Color = *p.Color
		}
		if err := a.Validate(); err != nil {
			return "", err
		}
		st.Accounts[i] = a
		out = a
		return id, nil
	})
	return out, err
}

// DeleteAccount removes an account that no movement references.
func (e *Engine) DeleteAccount(ctx context.Context, id string) error {
	return e.mutate(ctx, "account.deleted", func(st *core.State) (string, error) {
		i := st.AccountIndex(id)
		if i < 0 {
			return "", fmt.Errorf("account %q: %w", id, core.ErrNotFound)
		}
		if st.HasMovementsFor(id) {
			return "", fmt.Errorf("account %q: %w", id, core.ErrAccountInUse)
		}
		st.Accounts = append(st.Accounts[:i], st.Accounts[i+1:]...)
		return id, nil
	})
}
