package repository

import (
	"context"

	"diabeater-console/internal/store"
	"diabeater-console/pkg/models"
)

type NotificationRepository struct {
	store store.Store
}

func NewNotificationRepository(s store.Store) *NotificationRepository {
	return &NotificationRepository{store: s}
}

func (r *NotificationRepository) Create(ctx context.Context, n models.Notification) (*models.Notification, error) {
	id, err := r.store.Add(ctx, store.Notifications, n.ToRecord())
	if err != nil {
		return nil, err
	}
	n.ID = id
	return &n, nil
}

func (r *NotificationRepository) Get(ctx context.Context, id string) (*models.Notification, error) {
	doc, err := r.store.Get(ctx, store.Notifications, id)
	if err != nil {
		return nil, err
	}
	return models.DecodeNotification(doc.ID, doc.Data)
}

func (r *NotificationRepository) ListForUser(ctx context.Context, uid string, unreadOnly bool) ([]models.Notification, error) {
	filters := []store.Filter{store.Eq("userId", uid)}
	if unreadOnly {
		filters = append(filters, store.Eq("read", false))
	}
	return r.list(ctx, filters...)
}

func (r *NotificationRepository) ListUnread(ctx context.Context) ([]models.Notification, error) {
	return r.list(ctx, store.Eq("read", false))
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id string) error {
	return r.store.Update(ctx, store.Notifications, id, models.Record{"read": true})
}

func (r *NotificationRepository) list(ctx context.Context, filters ...store.Filter) ([]models.Notification, error) {
	docs, err := r.store.Query(ctx, store.Notifications, filters...)
	if err != nil {
		return nil, err
	}
	return decodeAll(docs, models.DecodeNotification)
}
