// Package repository shapes store calls into entity-level operations. It holds
// no business rules; errors from the store propagate unchanged.
package repository

import (
	"diabeater-console/internal/store"
	"diabeater-console/pkg/models"
)

type decodeFunc[T any] func(id string, data models.Record) (*T, error)

// decodeAll fails on the first malformed record.
func decodeAll[T any](docs []store.Document, decode decodeFunc[T]) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		v, err := decode(d.ID, d.Data)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, nil
}

// Repositories bundles one repository per entity family.
type Repositories struct {
	MealPlans     *MealPlanRepository
	Users         *UserRepository
	Categories    *CategoryRepository
	Feedback      *FeedbackRepository
	Notifications *NotificationRepository
	Applications  *ApplicationRepository
	Subscriptions *SubscriptionRepository
}

// New wires every repository to s. userCollection selects between the
// canonical and the legacy user accounts collection.
func New(s store.Store, userCollection string) *Repositories {
	if userCollection == "" {
		userCollection = store.UserAccounts
	}
	return &Repositories{
		MealPlans:     NewMealPlanRepository(s),
		Users:         NewUserRepository(s, userCollection),
		Categories:    NewCategoryRepository(s),
		Feedback:      NewFeedbackRepository(s),
		Notifications: NewNotificationRepository(s),
		Applications:  NewApplicationRepository(s),
		Subscriptions: NewSubscriptionRepository(s),
	}
}
