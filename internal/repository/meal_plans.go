package repository

import (
	"context"
	"time"

	"diabeater-console/internal/store"
	"diabeater-console/pkg/models"
)

type MealPlanRepository struct {
	store store.Store
}

func NewMealPlanRepository(s store.Store) *MealPlanRepository {
	return &MealPlanRepository{store: s}
}

func (r *MealPlanRepository) List(ctx context.Context, filters ...store.Filter) ([]models.MealPlan, error) {
	docs, err := r.store.Query(ctx, store.MealPlans, filters...)
	if err != nil {
		return nil, err
	}
	return decodeAll(docs, models.DecodeMealPlan)
}

func (r *MealPlanRepository) ListByAuthor(ctx context.Context, authorID string) ([]models.MealPlan, error) {
	return r.List(ctx, store.Eq("authorId", authorID))
}

func (r *MealPlanRepository) ListByStatus(ctx context.Context, status models.MealPlanStatus) ([]models.MealPlan, error) {
	return r.List(ctx, store.Eq("status", string(status)))
}

func (r *MealPlanRepository) GetPendingMealPlans(ctx context.Context) ([]models.MealPlan, error) {
	return r.ListByStatus(ctx, models.StatusPendingApproval)
}

func (r *MealPlanRepository) Get(ctx context.Context, id string) (*models.MealPlan, error) {
	doc, err := r.store.Get(ctx, store.MealPlans, id)
	if err != nil {
		return nil, err
	}
	return models.DecodeMealPlan(doc.ID, doc.Data)
}

// Create writes plan and returns it with the store-assigned id.
func (r *MealPlanRepository) Create(ctx context.Context, plan models.MealPlan) (*models.MealPlan, error) {
	id, err := r.store.Add(ctx, store.MealPlans, plan.ToRecord())
	if err != nil {
		return nil, err
	}
	plan.ID = id
	return &plan, nil
}

func (r *MealPlanRepository) Update(ctx context.Context, id string, partial models.Record) error {
	partial["updatedAt"] = time.Now().UTC()
	return r.store.Update(ctx, store.MealPlans, id, partial)
}

// SetStatus writes a moderation verdict. The rejection reason is stored only
// for REJECTED and removed otherwise.
func (r *MealPlanRepository) SetStatus(ctx context.Context, id string, status models.MealPlanStatus, reason string) error {
	partial := models.Record{"status": string(status), "rejectionReason": nil}
	if status == models.StatusRejected {
		partial["rejectionReason"] = reason
	}
	return r.Update(ctx, id, partial)
}

func (r *MealPlanRepository) Delete(ctx context.Context, id string) error {
	return r.store.Delete(ctx, store.MealPlans, id)
}
