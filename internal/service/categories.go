package service

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"diabeater-console/internal/repository"
	"diabeater-console/pkg/apperror"
	"diabeater-console/pkg/models"
	"diabeater-console/pkg/validator"
	"diabeater-console/utils"
)

// DefaultCategories are written by Seed into an empty collection.
var DefaultCategories = []models.Category{
	{Name: "Breakfast", Description: "Morning meals that keep blood sugar steady"},
	{Name: "Lunch", Description: "Balanced midday plates"},
	{Name: "Dinner", Description: "Evening meals with controlled carbohydrates"},
	{Name: "Snacks", Description: "Small portions between meals"},
	{Name: "Low Carb", Description: "Plans with reduced carbohydrate load"},
	{Name: "High Protein", Description: "Protein-forward plans"},
	{Name: "Vegetarian", Description: "No meat or fish"},
	{Name: "Vegan", Description: "Fully plant-based"},
}

type CategoryInput struct {
	Name        string `json:"name" validate:"required,max=60"`
	Description string `json:"description" validate:"max=500"`
	ExternalID  string `json:"categoryId" validate:"max=100"`
}

type CategoryService struct {
	categories *repository.CategoryRepository
}

func NewCategoryService(repos *repository.Repositories) *CategoryService {
	return &CategoryService{categories: repos.Categories}
}

// List returns every category sorted by name.
func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	list, err := s.categories.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(list, func(i, j int) bool {
		return strings.ToLower(list[i].Name) < strings.ToLower(list[j].Name)
	})
	return list, nil
}

func (s *CategoryService) Get(ctx context.Context, id string) (*models.Category, error) {
	return s.categories.Get(ctx, id)
}

func (s *CategoryService) FindByName(ctx context.Context, name string) (*models.Category, error) {
	return s.categories.FindByName(ctx, name)
}

func (s *CategoryService) Create(ctx context.Context, actor models.Principal, in CategoryInput) (*models.Category, error) {
	if !actor.IsAdmin() {
		return nil, apperror.Forbidden("only admins can manage categories")
	}
	if err := s.prepare(&in); err != nil {
		return nil, err
	}
	if err := s.ensureUniqueName(ctx, in.Name, ""); err != nil {
		return nil, err
	}
	c, err := s.categories.Create(ctx, models.Category{Name: in.Name, Description: in.Description, ExternalID: in.ExternalID})
	if err != nil {
		return nil, err
	}
	utils.Log.WithFields(logrus.Fields{"id": c.ID, "name": c.Name}).Info("🏷️ [CATEGORY] created")
	return c, nil
}

func (s *CategoryService) Update(ctx context.Context, actor models.Principal, id string, in CategoryInput) (*models.Category, error) {
	if !actor.IsAdmin() {
		return nil, apperror.Forbidden("only admins can manage categories")
	}
	if err := s.prepare(&in); err != nil {
		return nil, err
	}
	current, err := s.categories.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUniqueName(ctx, in.Name, current.ID); err != nil {
		return nil, err
	}
	updated := models.Category{ID: current.ID, Name: in.Name, Description: in.Description, ExternalID: in.ExternalID}
	if err := s.categories.Update(ctx, updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes the category document only. Meal plans keep the name in
// their categories list.
func (s *CategoryService) Delete(ctx context.Context, actor models.Principal, id string) error {
	if !actor.IsAdmin() {
		return apperror.Forbidden("only admins can manage categories")
	}
	c, err := s.categories.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.categories.Delete(ctx, c.ID); err != nil {
		return err
	}
	utils.Log.WithFields(logrus.Fields{"id": c.ID, "name": c.Name}).Info("🗑️ [CATEGORY] deleted")
	return nil
}

// Seed writes DefaultCategories when the collection is empty.
func (s *CategoryService) Seed(ctx context.Context) (int, error) {
	existing, err := s.categories.List(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}
	for i, c := range DefaultCategories {
		if _, err := s.categories.Create(ctx, c); err != nil {
			return i, err
		}
		utils.Log.Debugf("✅ [CATEGORY] seeded %s", c.Name)
	}
	utils.Log.Infof("✅ [CATEGORY] seeded %d default categories", len(DefaultCategories))
	return len(DefaultCategories), nil
}

func (s *CategoryService) prepare(in *CategoryInput) error {
	in.Name = plainText(in.Name)
	in.Description = plainText(in.Description)
	in.ExternalID = strings.TrimSpace(in.ExternalID)
	return validator.Struct(in)
}

func (s *CategoryService) ensureUniqueName(ctx context.Context, name, selfID string) error {
	existing, err := s.categories.FindByName(ctx, name)
	switch {
	case errors.Is(err, apperror.ErrNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID != selfID:
		return apperror.Validation("a category named %q already exists", existing.Name)
	}
	return nil
}
