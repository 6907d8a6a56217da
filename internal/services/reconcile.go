package services

import (
	"context"
	"fmt"

	"miadmin/internal/core"
	"miadmin/internal/log"
)

// ReconcileResult describes how a recorded balance compares to a real one.
type ReconcileResult struct {
	Method     core.PaymentMethod `json:"method"`
	Recorded   core.Money         `json:"recorded"`
	Real       core.Money         `json:"real"`
	Difference core.Money         `json:"difference"`
	Balanced   bool               `json:"balanced"`
	// Adjustment is set when ReconcileAccount created a movement.
	Adjustment *core.Movement `json:"adjustment,omitempty"`
}

// recordedBalance is the stored balance of an account, or the derived cash
// balance when method is cash.
func recordedBalance(st *core.State, method core.PaymentMethod) (core.Money, error) {
	if method.IsCash() {
		return st.NetEffect(core.Cash), nil
	}
	i := st.AccountIndex(string(method))
	if i < 0 {
		return core.Money{}, fmt.Errorf("account %q: %w", method, core.ErrNotFound)
	}
	return st.Accounts[i].Balance, nil
}

func compare(st *core.State, method core.PaymentMethod, actual core.Money) (ReconcileResult, error) {
	recorded, err := recordedBalance(st, method)
	if err != nil {
		return ReconcileResult{}, err
	}
	diff := actual.Sub(recorded)
	return ReconcileResult{
		Method:     method,
		Recorded:   recorded,
		Real:       actual,
		Difference: diff,
		Balanced:   diff.Abs().LessThan(core.BalanceTolerance),
	}, nil
}

// CompareBalance previews a reconciliation without changing anything.
func (e *Engine) CompareBalance(method core.PaymentMethod, actual core.Money) (ReconcileResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return compare(e.store.State(), method, actual)
}

// ReconcileAccount brings the recorded balance in line with actual by adding
// an adjustment movement. Differences below one cent are left alone.
func (e *Engine) ReconcileAccount(ctx context.Context, method core.PaymentMethod, actual core.Money) (ReconcileResult, error) {
	var res ReconcileResult
	err := e.mutate(ctx, "account.reconciled", func(st *core.State) (string, error) {
		var err error
		res, err = compare(st, method, actual)
		if err != nil {
			return "", err
		}
		if res.Balanced {
			return "", errNoChange
		}
		direction := core.Income
		if res.Difference.IsNegative() {
			direction = core.Expense
		}
		m := core.Movement{
			ID:          newID("mov"),
			Description: "Balance adjustment - " + st.MethodName(method),
			Amount:      res.Difference.Abs(),
			Direction:   direction,
			Method:      method,
			Category:    core.CategoryAdjustment,
			Date:        e.now(),
		}
		e.appendMovement(ctx, st, m)
		res.Adjustment = &m
		return string(method), nil
	})
	if err != nil {
		return ReconcileResult{}, err
	}
	if res.Adjustment != nil {
		e.logger.InfoContext(ctx, "Balance adjusted",
			log.FieldPayment, method, log.FieldAmount, res.Difference.String())
	}
	return res, nil
}
