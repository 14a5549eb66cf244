package repository

import (
	"context"
	"strings"

	"diabeater-console/internal/store"
	"diabeater-console/pkg/apperror"
	"diabeater-console/pkg/models"
)

type CategoryRepository struct {
	store store.Store
}

func NewCategoryRepository(s store.Store) *CategoryRepository {
	return &CategoryRepository{store: s}
}

func (r *CategoryRepository) List(ctx context.Context) ([]models.Category, error) {
	docs, err := r.store.Query(ctx, store.MealPlanCategories)
	if err != nil {
		return nil, err
	}
	return decodeAll(docs, models.DecodeCategory)
}

func (r *CategoryRepository) Get(ctx context.Context, id string) (*models.Category, error) {
	doc, err := r.store.Get(ctx, store.MealPlanCategories, id)
	if err != nil {
		return nil, err
	}
	return models.DecodeCategory(doc.ID, doc.Data)
}

// FindByName matches case-insensitively.
func (r *CategoryRepository) FindByName(ctx context.Context, name string) (*models.Category, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	for i := range all {
		if strings.EqualFold(all[i].Name, name) {
			return &all[i], nil
		}
	}
	return nil, apperror.NotFound("category", name)
}

func (r *CategoryRepository) Create(ctx context.Context, c models.Category) (*models.Category, error) {
	id, err := r.store.Add(ctx, store.MealPlanCategories, c.ToRecord())
	if err != nil {
		return nil, err
	}
	c.ID = id
	return &c, nil
}

func (r *CategoryRepository) Update(ctx context.Context, c models.Category) error {
	partial := c.ToRecord()
	if c.ExternalID == "" {
		partial["categoryId"] = nil
	}
	return r.store.Update(ctx, store.MealPlanCategories, c.ID, partial)
}

func (r *CategoryRepository) Delete(ctx context.Context, id string) error {
	return r.store.Delete(ctx, store.MealPlanCategories, id)
}
