package repository

import (
	"context"

	"diabeater-console/internal/store"
	"diabeater-console/pkg/models"
)

type FeedbackRepository struct {
	store store.Store
}

func NewFeedbackRepository(s store.Store) *FeedbackRepository {
	return &FeedbackRepository{store: s}
}

func (r *FeedbackRepository) List(ctx context.Context, filters ...store.Filter) ([]models.Feedback, error) {
	docs, err := r.store.Query(ctx, store.Feedbacks, filters...)
	if err != nil {
		return nil, err
	}
	return decodeAll(docs, models.DecodeFeedback)
}

func (r *FeedbackRepository) ListFeatured(ctx context.Context) ([]models.Feedback, error) {
	return r.List(ctx, store.Eq("displayOnMarketing", true))
}

func (r *FeedbackRepository) Get(ctx context.Context, id string) (*models.Feedback, error) {
	doc, err := r.store.Get(ctx, store.Feedbacks, id)
	if err != nil {
		return nil, err
	}
	return models.DecodeFeedback(doc.ID, doc.Data)
}

func (r *FeedbackRepository) Create(ctx context.Context, f models.Feedback) (*models.Feedback, error) {
	id, err := r.store.Add(ctx, store.Feedbacks, f.ToRecord())
	if err != nil {
		return nil, err
	}
	f.ID = id
	return &f, nil
}

func (r *FeedbackRepository) SetFeatured(ctx context.Context, id string, featured bool) error {
	return r.store.Update(ctx, store.Feedbacks, id, models.Record{"displayOnMarketing": featured})
}
