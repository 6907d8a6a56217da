package services

import (
	"context"
	"fmt"

	"miadmin/internal/core"
)

// CreateSubscription registers a monthly charge paid with s.Method.
func (e *Engine) CreateSubscription(ctx context.Context, s core.Subscription) (core.Subscription, error) {
	if err := s.Validate(); err != nil {
		return core.Subscription{}, err
	}
	s.ID = newID("sub")

	err := e.mutate(ctx, "subscription.created", func(st *core.State) (string, error) {
		if err := checkMethod(st, s.Method); err != nil {
			return "", err
		}
		st.Subscriptions = append(st.Subscriptions, s)
		return s.ID, nil
	})
	if err != nil {
		return core.Subscription{}, err
	}
	return s, nil
}

// UpdateSubscription replaces every field of the subscription but its id.
func (e *Engine) UpdateSubscription(ctx context.Context, id string, s core.Subscription) (core.Subscription, error) {
	if err := s.Validate(); err != nil {
		return core.Subscription{}, err
	}
	s.ID = id

	err := e.mutate(ctx, "subscription.updated", func(st *core.State) (string, error) {
		i := st.SubscriptionIndex(id)
		if i < 0 {
			return "", fmt.Errorf("subscription %q: %w", id, core.ErrNotFound)
		}
		if err := checkMethod(st, s.Method); err != nil {
			return "", err
		}
		st.Subscriptions[i] = s
		return id, nil
	})
	if err != nil {
		return core.Subscription{}, err
	}
	return s, nil
}

// DeleteSubscription removes the subscription. Past movements are untouched.
func (e *Engine) DeleteSubscription(ctx context.Context, id string) error {
	return e.mutate(ctx, "subscription.deleted", func(st *core.State) (string, error) {
		i := st.SubscriptionIndex(id)
		if i < 0 {
			return "", fmt.Errorf("subscription %q: %w", id, core.ErrNotFound)
		}
		st.Subscriptions = append(st.Subscriptions[:i], st.Subscriptions[i+1:]...)
		return id, nil
	})
}
