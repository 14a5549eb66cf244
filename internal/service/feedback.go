package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"diabeater-console/internal/repository"
	"diabeater-console/pkg/apperror"
	"diabeater-console/pkg/models"
	"diabeater-console/pkg/validator"
	"diabeater-console/utils"
)

type FeedbackInput struct {
	Name     string `json:"name" validate:"max=80"`
	Message  string `json:"message" validate:"required,max=2000"`
	Rating   int    `json:"rating" validate:"required,min=1,max=5"`
	Category string `json:"category" validate:"max=40"`
}

// FeaturedResult reports what AutomateFeatured changed.
type FeaturedResult struct {
	Selected   []models.Feedback `json:"selected"`
	Featured   int               `json:"featured"`
	Unfeatured int               `json:"unfeatured"`
}

type FeedbackService struct {
	feedback *repository.FeedbackRepository
	now      func() time.Time
}

func NewFeedbackService(repos *repository.Repositories) *FeedbackService {
	return &FeedbackService{
		feedback: repos.Feedback,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Submit stores public feedback. It is never featured on creation.
func (s *FeedbackService) Submit(ctx context.Context, in FeedbackInput) (*models.Feedback, error) {
	in.Name = plainText(in.Name)
	in.Message = plainText(in.Message)
	in.Category = plainText(in.Category)
	if err := validator.Struct(in); err != nil {
		return nil, err
	}
	if in.Category == "" {
		in.Category = "general"
	}
	f, err := s.feedback.Create(ctx, models.Feedback{
		AuthorName: in.Name,
		Message:    in.Message,
		Rating:     in.Rating,
		Category:   in.Category,
		CreatedAt:  s.now(),
	})
	if err != nil {
		return nil, err
	}
	utils.Log.WithFields(logrus.Fields{"id": f.ID, "rating": f.Rating}).Info("💬 [FEEDBACK] submitted")
	return f, nil
}

// List returns all feedback, newest first. category filters case-insensitively.
func (s *FeedbackService) List(ctx context.Context, actor models.Principal, category string) ([]models.Feedback, error) {
	if !actor.IsAdmin() {
		return nil, apperror.Forbidden("only admins can review feedback")
	}
	all, err := s.feedback.List(ctx)
	if err != nil {
		return nil, err
	}
	category = strings.TrimSpace(category)
	out := make([]models.Feedback, 0, len(all))
	for _, f := range all {
		if category == "" || strings.EqualFold(f.Category, category) {
			out = append(out, f)
		}
	}
	newestFirst(out)
	return out, nil
}

// Featured returns the testimonials shown on the marketing site.
func (s *FeedbackService) Featured(ctx context.Context) ([]models.Feedback, error) {
	list, err := s.feedback.ListFeatured(ctx)
	if err != nil {
		return nil, err
	}
	newestFirst(list)
	return list, nil
}

// SetFeatured toggles one item. Featuring fails once MaxFeaturedFeedback
// other items are already featured.
func (s *FeedbackService) SetFeatured(ctx context.Context, actor models.Principal, id string, on bool) (*models.Feedback, error) {
	if !actor.IsAdmin() {
		return nil, apperror.Forbidden("only admins can feature feedback")
	}
	f, err := s.feedback.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if f.DisplayOnMarketing == on {
		return f, nil
	}
	if on {
		featured, err := s.feedback.ListFeatured(ctx)
		if err != nil {
			return nil, err
		}
		if len(featured) >= models.MaxFeaturedFeedback {
			return nil, apperror.Validation("at most %d feedback items can be featured", models.MaxFeaturedFeedback)
		}
	}
	if err := s.feedback.SetFeatured(ctx, f.ID, on); err != nil {
		return nil, err
	}
	f.DisplayOnMarketing = on
	return f, nil
}

// AutomateFeatured recomputes the featured set from scratch: up to
// MaxFeaturedFeedback five-star compliments, newest first, one per author
// where possible. Every item's flag is reconciled against the selection;
// deselections are written before selections.
func (s *FeedbackService) AutomateFeatured(ctx context.Context, actor models.Principal) (*FeaturedResult, error) {
	if !actor.IsAdmin() {
		return nil, apperror.Forbidden("only admins can feature feedback")
	}
	all, err := s.feedback.List(ctx)
	if err != nil {
		return nil, err
	}

	selected := SelectFeatured(all, models.MaxFeaturedFeedback)
	want := make(map[string]bool, len(selected))
	for _, f := range selected {
		want[f.ID] = true
	}

	res := &FeaturedResult{Selected: selected}
	for _, f := range all {
		if f.DisplayOnMarketing && !want[f.ID] {
			if err := s.feedback.SetFeatured(ctx, f.ID, false); err != nil {
				return nil, err
			}
			res.Unfeatured++
		}
	}
	for i := range selected {
		if !selected[i].DisplayOnMarketing {
			if err := s.feedback.SetFeatured(ctx, selected[i].ID, true); err != nil {
				return nil, err
			}
			res.Featured++
		}
		selected[i].DisplayOnMarketing = true
	}

	utils.Log.WithFields(logrus.Fields{
		"selected":   len(selected),
		"featured":   res.Featured,
		"unfeatured": res.Unfeatured,
	}).Info("✨ [FEEDBACK] featured testimonials recomputed")
	return res, nil
}

// SelectFeatured picks up to limit five-star compliments, newest first.
// The first pass takes one item per author; a second pass fills any
// remaining slots. Anonymous items count as distinct authors.
func SelectFeatured(all []models.Feedback, limit int) []models.Feedback {
	candidates := make([]models.Feedback, 0, len(all))
	for _, f := range all {
		if f.Rating == 5 && f.IsCompliment() {
			candidates = append(candidates, f)
		}
	}
	newestFirst(candidates)

	picked := make([]models.Feedback, 0, limit)
	taken := make(map[string]bool, limit)
	authors := make(map[string]bool, limit)
	for _, f := range candidates {
		if len(picked) == limit {
			break
		}
		author := strings.ToLower(strings.TrimSpace(f.AuthorName))
		if author != "" && authors[author] {
			continue
		}
		authors[author] = true
		taken[f.ID] = true
		picked = append(picked, f)
	}
	for _, f := range candidates {
		if len(picked) == limit {
			break
		}
		if !taken[f.ID] {
			taken[f.ID] = true
			picked = append(picked, f)
		}
	}
	return picked
}

func newestFirst(list []models.Feedback) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
}
