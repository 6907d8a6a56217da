package services

import (
	"context"
	"fmt"

	"miadmin/internal/core"
)

// DebtPatch carries the debt terms to change. Nil fields are kept.
type DebtPatch struct {
	Description    *string     `json:"descripcion,omitempty"`
	Total          *core.Money `json:"montoTotal,omitempty"`
	TermMonths     *int        `json:"plazo,omitempty"`
	MinimumPayment *core.Money `json:"pagoMinimo,omitempty"`
}

// CreateDebt registers a debt with nothing paid yet.
func (e *Engine) CreateDebt(ctx context.Context, d core.Debt) (core.Debt, error) {
	if err := d.Validate(); err != nil {
		return core.Debt{}, err
	}
	d.ID = newID("debt")
	d.Paid = core.Zero()

	err := e.mutate(ctx, "debt.created", func(st *core.State) (string, error) {
		st.Debts = append(st.Debts, d)
		return d.ID, nil
	})
	if err != nil {
		return core.Debt{}, err
	}
	return d, nil
}

// UpdateDebt edits the debt terms. The paid amount is preserved.
func (e *Engine) UpdateDebt(ctx context.Context, id string, p DebtPatch) (core.Debt, error) {
	var out core.Debt
	err := e.mutate(ctx, "debt.updated", func(st *core.State) (string, error) {
		i := st.DebtIndex(id)
		if i < 0 {
			return "", fmt.Errorf("debt %q: %w", id, core.ErrNotFound)
		}
		d := st.Debts[i]
		if p.Description != nil {
			d.Description = *p.Description
		}
		if p.Total != nil {
			d.Total = *p.Total
		}
		if p.TermMonths != nil {
			term := *p.TermMonths
			d.TermMonths = &term
		}
		if p.MinimumPayment != nil {
			min := *p.MinimumPayment
			d.MinimumPayment = &min
		}
		if err := d.Validate(); err != nil {
			return "", err
		}
		st.Debts[i] = d
		out = d
		return id, nil
	})
	return out, err
}

// DeleteDebt removes a debt on which nothing has been paid.
func (e *Engine) DeleteDebt(ctx context.Context, id string) error {
	return e.mutate(ctx, "debt.deleted", func(st *core.State) (string, error) {
		i := st.DebtIndex(id)
		if i < 0 {
			return "", fmt.Errorf("debt %q: %w", id, core.ErrNotFound)
		}
		if st.Debts[i].Paid.IsPositive() {
			return "", fmt.Errorf("debt %q: %w", id, core.ErrDebtHasPayments)
		}
		st.Debts = append(st.Debts[:i], st.Debts[i+1:]...)
		return id, nil
	})
}

// RegisterDebtPayment records an expense movement for the payment, adds it
// to the debt's paid amount and charges the paying account.
func (e *Engine) RegisterDebtPayment(ctx context.Context, id string, amount core.Money, method core.PaymentMethod) (core.Movement, error) {
	if err := amount.ValidatePositive(); err != nil {
		return core.Movement{}, err
	}
	var out core.Movement
	err := e.mutate(ctx, "debt.payment", func(st *core.State) (string, error) {
		i := st.DebtIndex(id)
		if i < 0 {
			return "", fmt.Errorf("debt %q: %w", id, core.ErrNotFound)
		}
		if err := checkMethod(st, method); err != nil {
			return "", err
		}
		m := core.Movement{
			ID:          newID("mov"),
			Description: "Debt payment: " + st.Debts[i].Description,
			Amount:      amount,
			Direction:   core.Expense,
			Method:      method,
			Category:    core.CategoryDebtPayment,
			Date:        e.now(),
			RefID:       id,
		}
		st.Debts[i].Paid = st.Debts[i].Paid.Add(amount)
		e.appendMovement(ctx, st, m)
		out = m
		return id, nil
	})
	if err != nil {
		return core.Movement{}, err
	}
	e.logger.InfoContext(ctx, "Debt payment registered", "debt", id, "amount", amount.String(), "method", method)
	return out, nil
}
