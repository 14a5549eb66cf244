package models

import (
	"strings"
	"time"

	"diabeater-console/pkg/apperror"
)

type MealPlanStatus string

const (
	StatusPendingApproval MealPlanStatus = "PENDING_APPROVAL"
	StatusApproved        MealPlanStatus = "APPROVED"
	StatusRejected        MealPlanStatus = "REJECTED"
)

// ParseMealPlanStatus accepts any casing and the short "PENDING" spelling.
func ParseMealPlanStatus(s string) (MealPlanStatus, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "PENDING_APPROVAL", "PENDING":
		return StatusPendingApproval, true
	case "APPROVED":
		return StatusApproved, true
	case "REJECTED":
		return StatusRejected, true
	}
	return "", false
}

// Nutrients holds per-serving values. Nil means "not recorded".
type Nutrients struct {
	Calories       *float64 `json:"calories,omitempty"`
	Protein        *float64 `json:"protein,omitempty"`
	Carbohydrates  *float64 `json:"carbohydrates,omitempty"`
	Fats           *float64 `json:"fats,omitempty"`
	SaturatedFat   *float64 `json:"saturatedFat,omitempty"`
	UnsaturatedFat *float64 `json:"unsaturatedFat,omitempty"`
	Cholesterol    *float64 `json:"cholesterol,omitempty"`
	Sodium         *float64 `json:"sodium,omitempty"`
	Potassium      *float64 `json:"potassium,omitempty"`
	Sugar          *float64 `json:"sugar,omitempty"`
}

func (n *Nutrients) fields() []struct {
	key string
	ptr **float64
} {
	return []struct {
		key string
		ptr **float64
	}{
		{"calories", &n.Calories},
		{"protein", &n.Protein},
		{"carbohydrates", &n.Carbohydrates},
		{"fats", &n.Fats},
		{"saturatedFat", &n.SaturatedFat},
		{"unsaturatedFat", &n.UnsaturatedFat},
		{"cholesterol", &n.Cholesterol},
		{"sodium", &n.Sodium},
		{"potassium", &n.Potassium},
		{"sugar", &n.Sugar},
	}
}

// Validate rejects negative values.
func (n Nutrients) Validate() error {
	for _, f := range n.fields() {
		if *f.ptr != nil && **f.ptr < 0 {
			return apperror.Validation("nutrient %s must not be negative", f.key)
		}
	}
	return nil
}

func (n Nutrients) ToRecord() Record {
	out := Record{}
	for _, f := range n.fields() {
		if *f.ptr != nil {
			out[f.key] = **f.ptr
		}
	}
	return out
}

func (n Nutrients) clone() Nutrients {
	c := Nutrients{}
	src := n.fields()
	for i, f := range c.fields() {
		if *src[i].ptr != nil {
			v := **src[i].ptr
			*f.ptr = &v
		}
	}
	return c
}

type MealPlan struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	Description     string         `json:"description"`
	Ingredients     []string       `json:"ingredients"`
	Steps           string         `json:"steps"`
	Nutrients       Nutrients      `json:"nutrients"`
	Categories      []string       `json:"categories"`
	AuthorID        string         `json:"authorId"`
	AuthorName      string         `json:"authorName"`
	ImageURL        string         `json:"imageUrl"`
	ImagePath       string         `json:"imagePath"`
	Saves           int64          `json:"saves"`
	Likes           int64          `json:"likes"`
	Status          MealPlanStatus `json:"status"`
	RejectionReason string         `json:"rejectionReason,omitempty"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt,omitempty"`
}

func (p MealPlan) HasCategory(name string) bool {
	for _, c := range p.Categories {
		if c == name {
			return true
		}
	}
	return false
}

// Clone returns a copy that shares no slices or pointers with p.
func (p MealPlan) Clone() MealPlan {
	c := p
	c.Ingredients = append([]string(nil), p.Ingredients...)
	c.Categories = append([]string(nil), p.Categories...)
	c.Nutrients = p.Nutrients.clone()
	return c
}

func (p MealPlan) ToRecord() Record {
	rec := Record{
		"name":        p.Name,
		"description": p.Description,
		"ingredients": toInterfaces(p.Ingredients),
		"steps":       p.Steps,
		"nutrients":   p.Nutrients.ToRecord(),
		"categories":  toInterfaces(p.Categories),
		"authorId":    p.AuthorID,
		"authorName":  p.AuthorName,
		"imageUrl":    p.ImageURL,
		"imagePath":   p.ImagePath,
		"saves":       p.Saves,
		"likes":       p.Likes,
		"status":      string(p.Status),
		"createdAt":   timeOrNil(p.CreatedAt),
	}
	if p.Status == StatusRejected && p.RejectionReason != "" {
		rec["rejectionReason"] = p.RejectionReason
	}
	if !p.UpdatedAt.IsZero() {
		rec["updatedAt"] = p.UpdatedAt.UTC()
	}
	return rec
}

func DecodeMealPlan(id string, data Record) (*MealPlan, error) {
	r := newReader("meal plan", id, data)

	p := &MealPlan{
		ID:          id,
		Name:        r.RequiredString("name"),
		Description: r.String("description"),
		Ingredients: r.Strings("ingredients"),
		Steps:       r.String("steps"),
		Categories:  uniqueStrings(r.Strings("categories")),
		AuthorID:    r.RequiredString("authorId"),
		AuthorName:  r.String("authorName"),
		ImageURL:    r.String("imageUrl"),
		ImagePath:   r.String("imagePath"),
		Saves:       r.Counter("saves"),
		Likes:       r.Counter("likes"),
		CreatedAt:   r.Time("createdAt"),
		UpdatedAt:   r.Time("updatedAt"),
	}

	rawStatus := r.RequiredString("status")
	if r.Err() == nil {
		status, ok := ParseMealPlanStatus(rawStatus)
		if !ok {
			r.fail("status", "has unknown value %q", rawStatus)
		}
		p.Status = status
	}
	if p.Status == StatusRejected {
		p.RejectionReason = r.String("rejectionReason")
	}

	if nut := r.Map("nutrients"); nut != nil {
		nr := newReader("meal plan", id, nut)
		for _, f := range p.Nutrients.fields() {
			*f.ptr = nr.OptionalNumber(f.key)
		}
		if nr.Err() != nil {
			return nil, nr.Err()
		}
	}

	if err := r.Err(); err != nil {
		return nil, err
	}
	if err := p.Nutrients.Validate(); err != nil {
		return nil, apperror.Validation("malformed meal plan record %s: %s", id, apperror.Message(err))
	}
	return p, nil
}

func toInterfaces(in []string) []interface{} {
	out := make([]interface{}, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
