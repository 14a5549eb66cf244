package repository

import (
	"context"

	"diabeater-console/internal/store"
	"diabeater-console/pkg/models"
)

type SubscriptionRepository struct {
	store store.Store
}

func NewSubscriptionRepository(s store.Store) *SubscriptionRepository {
	return &SubscriptionRepository{store: s}
}

// List returns subscriptions, optionally filtered by status.
func (r *SubscriptionRepository) List(ctx context.Context, status string) ([]models.Subscription, error) {
	var filters []store.Filter
	if status != "" {
		filters = append(filters, store.Eq("status", status))
	}
	docs, err := r.store.Query(ctx, store.Subscriptions, filters...)
	if err != nil {
		return nil, err
	}
	return decodeAll(docs, models.DecodeSubscription)
}
