package repository

import (
	"context"
	"errors"
	"strings"

	"diabeater-console/internal/store"
	"diabeater-console/pkg/apperror"
	"diabeater-console/pkg/models"
)

type UserRepository struct {
	store      store.Store
	collection string
}

func NewUserRepository(s store.Store, collection string) *UserRepository {
	return &UserRepository{store: s, collection: collection}
}

func (r *UserRepository) Collection() string {
	return r.collection
}

func (r *UserRepository) List(ctx context.Context, filters ...store.Filter) ([]models.UserAccount, error) {
	docs, err := r.store.Query(ctx, r.collection, filters...)
	if err != nil {
		return nil, err
	}
	return decodeAll(docs, models.DecodeUserAccount)
}

func (r *UserRepository) Get(ctx context.Context, id string) (*models.UserAccount, error) {
	doc, err := r.store.Get(ctx, r.collection, id)
	if err != nil {
		return nil, err
	}
	return models.DecodeUserAccount(doc.ID, doc.Data)
}

// Put creates or replaces the account under its own id.
func (r *UserRepository) Put(ctx context.Context, u models.UserAccount) error {
	return r.store.Set(ctx, r.collection, u.ID, u.ToRecord())
}

func (r *UserRepository) Update(ctx context.Context, id string, partial models.Record) error {
	return r.store.Update(ctx, r.collection, id, partial)
}

func (r *UserRepository) SetStatus(ctx context.Context, id string, status models.AccountStatus) error {
	return r.Update(ctx, id, models.Record{"status": string(status)})
}

// AddDeviceToken registers an FCM token; duplicates are ignored.
func (r *UserRepository) AddDeviceToken(ctx context.Context, id, token string) error {
	u, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	for _, t := range u.FCMTokens {
		if t == token {
			return nil
		}
	}
	tokens := append(u.FCMTokens, token)
	return r.Update(ctx, id, models.Record{"fcmTokens": stringsToInterfaces(tokens)})
}

func (r *UserRepository) RemoveDeviceTokens(ctx context.Context, id string, stale []string) error {
	if len(stale) == 0 {
		return nil
	}
	u, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	drop := make(map[string]bool, len(stale))
	for _, t := range stale {
		drop[t] = true
	}
	kept := make([]string, 0, len(u.FCMTokens))
	for _, t := range u.FCMTokens {
		if !drop[t] {
			kept = append(kept, t)
		}
	}
	return r.Update(ctx, id, models.Record{"fcmTokens": stringsToInterfaces(kept)})
}

// DisplayName resolves a name for uid from the admins collection, then from
// user accounts. It returns "" when neither has one.
func (r *UserRepository) DisplayName(ctx context.Context, uid string) (string, error) {
	doc, err := r.store.Get(ctx, store.Admins, uid)
	switch {
	case err == nil:
		if name := nameFromRecord(doc.Data); name != "" {
			return name, nil
		}
	case !errors.Is(err, apperror.ErrNotFound):
		return "", err
	}

	u, err := r.Get(ctx, uid)
	if errors.Is(err, apperror.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(u.FirstName+u.LastName) == "" {
		return "", nil
	}
	return u.DisplayName(), nil
}

func nameFromRecord(data models.Record) string {
	if name, _ := data["name"].(string); strings.TrimSpace(name) != "" {
		return strings.TrimSpace(name)
	}
	first, _ := data["firstName"].(string)
	last, _ := data["lastName"].(string)
	return strings.TrimSpace(first + " " + last)
}

func stringsToInterfaces(in []string) []interface{} {
	out := make([]interface{}, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
