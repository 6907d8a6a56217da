package services

import (
	"context"
	"fmt"

	"miadmin/internal/core"
)

// SavingsPatch carries the goal fields to change. Nil fields are kept.
type SavingsPatch struct {
	Name   *string     `json:"nombre,omitempty"`
	Target *core.Money `json:"montoMeta,omitempty"`
	// Current may only be set while no contribution references the goal.
	Current *core.Money `json:"montoActual,omitempty"`
}

// CreateSavingsGoal registers a goal starting at g.Current.
func (e *Engine) CreateSavingsGoal(ctx context.Context, g core.SavingsGoal) (core.SavingsGoal, error) {
	if err := g.Validate(); err != nil {
		return core.SavingsGoal{}, err
	}
	g.ID = newID("goal")

	err := e.mutate(ctx, "savings.created", func(st *core.State) (string, error) {
		st.Savings = append(st.Savings, g)
		return g.ID, nil
	})
	if err != nil {
		return core.SavingsGoal{}, err
	}
	return g, nil
}

// UpdateSavingsGoal edits the name and target, and the saved amount only
// while no contribution references the goal.
func (e *Engine) UpdateSavingsGoal(ctx context.Context, id string, p SavingsPatch) (core.SavingsGoal, error) {
	var out core.SavingsGoal
	err := e.mutate(ctx, "savings.updated", func(st *core.State) (string, error) {
		i := st.SavingsIndex(id)
		if i < 0 {
			return "", fmt.Errorf("savings goal %q: %w", id, core.ErrNotFound)
		}
		g := st.Savings[i]
		if p.Name != nil {
			g.Name = *p.Name
		}
		if p.Target != nil {
			g.Target = *p.Target
		}
		if p.Current != nil && !p.Current.Equal(g.Current) {
			if st.HasContributions(id) {
				return "", fmt.Errorf("savings goal %q: %w", id, core.ErrGoalHasDeposits)
			}
			g.Current = *p.Current
		}
		if err := g.Validate(); err != nil {
			return "", err
		}
		st.Savings[i] = g
		out = g
		return id, nil
	})
	return out, err
}

// DeleteSavingsGoal removes the goal. Contribution movements stay in the
// ledger so account balances keep replaying.
func (e *Engine) DeleteSavingsGoal(ctx context.Context, id string) error {
	return e.mutate(ctx, "savings.deleted", func(st *core.State) (string, error) {
		i := st.SavingsIndex(id)
		if i < 0 {
			return "", fmt.Errorf("savings goal %q: %w", id, core.ErrNotFound)
		}
		st.Savings = append(st.Savings[:i], st.Savings[i+1:]...)
		return id, nil
	})
}

// RegisterSavingsContribution moves money from an account into the goal.
func (e *Engine) RegisterSavingsContribution(ctx context.Context, id string, amount core.Money, method core.PaymentMethod) (core.Movement, error) {
	if err := amount.ValidatePositive(); err != nil {
		return core.Movement{}, err
	}
	var out core.Movement
	err := e.mutate(ctx, "savings.contribution", func(st *core.State) (string, error) {
		i := st.SavingsIndex(id)
		if i < 0 {
			return "", fmt.Errorf("savings goal %q: %w", id, core.ErrNotFound)
		}
		if err := checkMethod(st, method); err != nil {
			return "", err
		}
		m := core.Movement{
			ID:          newID("mov"),
			Description: "Savings contribution: " + st.Savings[i].Name,
			Amount:      amount,
			Direction:   core.Expense,
			Method:      method,
			Category:    core.CategorySavings,
			Date:        e.now(),
			RefID:       id,
		}
		st.Savings[i].Current = st.Savings[i].Current.Add(amount)
		e.appendMovement(ctx, st, m)
		out = m
		return id, nil
	})
	if err != nil {
		return core.Movement{}, err
	}
	e.logger.InfoContext(ctx, "Savings contribution registered", "goal", id, "amount", amount.String())
	return out, nil
}
