package services

import (
	"context"
	"fmt"

	"miadmin/internal/core"
	"miadmin/internal/log"
)

// MovementPatch carries the fields to change on an existing movement.
// Nil fields keep their current value; id and date are never changed.
type MovementPatch struct {
	Description *string             `json:"descripcion,omitempty"`
	Amount      *core.Money         `json:"monto,omitempty"`
	Direction   *core.Direction     `json:"tipo,omitempty"`
	Method      *core.PaymentMethod `json:"metodoPago,omitempty"`
	Category    *core.Category      `json:"categoria,omitempty"`
}

func (p MovementPatch) apply(m core.Movement) core.Movement {
	if p.Description != nil {
		m.Description = *p.Description
	}
	if p.Amount != nil {
		m.Amount = *p.Amount
	}
	if p.Direction != nil {
		m.Direction = *p.Direction
	}
	if p.Method != nil {
		m.Method = *p.Method
	}
	if p.Category != nil {
		m.Category = *p.Category
	}
	return m
}

// CreateMovement records a new movement stamped with the current time and
// applies it to its account.
func (e *Engine) CreateMovement(ctx context.Context, m core.Movement) (core.Movement, error) {
	if err := m.Validate(); err != nil {
		return core.Movement{}, err
	}
	m.ID = newID("mov")
	m.Date = e.now()
	m.RefID = ""

	err := e.mutate(ctx, "movement.created", func(st *core.State) (string, error) {
		if err := checkMethod(st, m.Method); err != nil {
			return "", err
		}
		e.appendMovement(ctx, st, m)
		return m.ID, nil
	})
	if err != nil {
		return core.Movement{}, err
	}
	fields := log.NewFields().WithMovement(m.ID, m.Amount.String(), string(m.Method))
	fields["direction"] = m.Direction
	e.logger.InfoContext(ctx, "Movement created", fields.ToSlice()...)
	return m, nil
}

func (e *Engine) appendMovement(ctx context.Context, st *core.State, m core.Movement) {
	st.Movements = append(st.Movements, m)
	e.applyMovementEffect(ctx, st, m)
}

// EditMovement reverts the old effect, merges the patch and applies the new
// effect. The result is validated before anything is persisted.
func (e *Engine) EditMovement(ctx context.Context, id string, p MovementPatch) (core.Movement, error) {
	var out core.Movement
	err := e.mutate(ctx, "movement.updated", func(st *core.State) (string, error) {
		i := st.MovementIndex(id)
		if i < 0 {
			return "", fmt.Errorf("movement %q: %w", id, core.ErrNotFound)
		}
		old := st.Movements[i]
		if err := checkUnlinked(st, old); err != nil {
			return "", err
		}
		merged := p.apply(old)
		if err := merged.Validate(); err != nil {
			return "", err
		}
		if merged.Method != old.Method {
			if err := checkMethod(st, merged.Method); err != nil {
				return "", err
			}
		}

		e.revertMovementEffect(ctx, st, old)
		st.Movements[i] = merged
		e.applyMovementEffect(ctx, st, merged)
		out = merged
		return id, nil
	})
	return out, err
}

// DeleteMovement reverts the movement's effect and removes it.
func (e *Engine) DeleteMovement(ctx context.Context, id string) error {
	return e.mutate(ctx, "movement.deleted", func(st *core.State) (string, error) {
		i := st.MovementIndex(id)
		if i < 0 {
			return "", fmt.Errorf("movement %q: %w", id, core.ErrNotFound)
		}
		if err := checkUnlinked(st, st.Movements[i]); err != nil {
			return "", err
		}
		e.revertMovementEffect(ctx, st, st.Movements[i])
		st.Movements = append(st.Movements[:i], st.Movements[i+1:]...)
		return id, nil
	})
}

// checkUnlinked rejects changes to a payment or contribution movement while
// the debt or goal it was recorded against still exists, since its amount is
// already counted in that record.
func checkUnlinked(st *core.State, m core.Movement) error {
	if m.RefID == "" {
		return nil
	}
	if st.DebtIndex(m.RefID) >= 0 || st.SavingsIndex(m.RefID) >= 0 {
		return fmt.Errorf("movement %q: %w", m.ID, core.ErrLinkedMovement)
	}
	return nil
}
