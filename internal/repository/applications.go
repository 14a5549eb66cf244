package repository

import (
	"context"

	"diabeater-console/internal/store"
	"diabeater-console/pkg/models"
)

type ApplicationRepository struct {
	store store.Store
}

func NewApplicationRepository(s store.Store) *ApplicationRepository {
	return &ApplicationRepository{store: s}
}

func (r *ApplicationRepository) List(ctx context.Context, status models.ApplicationStatus) ([]models.NutritionistApplication, error) {
	var filters []store.Filter
	if status != "" {
		filters = append(filters, store.Eq("status", string(status)))
	}
	docs, err := r.store.Query(ctx, store.NutritionistApplications, filters...)
	if err != nil {
		return nil, err
	}
	return decodeAll(docs, models.DecodeApplication)
}

func (r *ApplicationRepository) Get(ctx context.Context, id string) (*models.NutritionistApplication, error) {
	doc, err := r.store.Get(ctx, store.NutritionistApplications, id)
	if err != nil {
		return nil, err
	}
	return models.DecodeApplication(doc.ID, doc.Data)
}

func (r *ApplicationRepository) Put(ctx context.Context, a models.NutritionistApplication) error {
	return r.store.Set(ctx, store.NutritionistApplications, a.ID, a.ToRecord())
}

func (r *ApplicationRepository) Update(ctx context.Context, id string, partial models.Record) error {
	return r.store.Update(ctx, store.NutritionistApplications, id, partial)
}

func (r *ApplicationRepository) Delete(ctx context.Context, id string) error {
	return r.store.Delete(ctx, store.NutritionistApplications, id)
}
