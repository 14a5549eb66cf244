package moderation

import (
	"sort"
	"strings"

	"diabeater-console/pkg/apperror"
	"diabeater-console/pkg/models"
)

type Tab string

const (
	TabAll      Tab = "all"
	TabPending  Tab = "pending"
	TabApproved Tab = "approved"
	TabRejected Tab = "rejected"
	TabPopular  Tab = "popular"
)

// ParseTab accepts tab names and meal plan status spellings. Empty means all.
func ParseTab(s string) (Tab, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return TabAll, nil
	case "pending", "pending_approval":
		return TabPending, nil
	case "approved":
		return TabApproved, nil
	case "rejected":
		return TabRejected, nil
	case "popular":
		return TabPopular, nil
	}
	return "", apperror.Validation("unknown tab %q", s)
}

func (t Tab) status() (models.MealPlanStatus, bool) {
	switch t {
	case TabPending:
		return models.StatusPendingApproval, true
	case TabApproved:
		return models.StatusApproved, true
	case TabRejected:
		return models.StatusRejected, true
	}
	return "", false
}

type Filters struct {
	Tab      Tab
	Search   string
	Category string
	// MatchDescription extends Search to the plan description.
	MatchDescription bool
	// PopularLimit caps each cohort; zero keeps all.
	PopularLimit int
}

type Counts struct {
	Pending  int `json:"pendingCount"`
	Approved int `json:"approvedCount"`
	Rejected int `json:"rejectedCount"`
	Total    int `json:"totalCount"`
}

type View struct {
	Tab     Tab               `json:"tab"`
	Plans   []models.MealPlan `json:"plans"`
	Popular []CohortView      `json:"popular,omitempty"`
	Counts  Counts            `json:"counts"`
}

// BuildView is the pure list aggregation behind every meal plan screen.
// Counts always come from the viewer's whole source set so tab badges do not
// move while the viewer searches or switches tabs.
func BuildView(viewer models.Principal, source []models.MealPlan, f Filters) (View, error) {
	if f.Tab == "" {
		f.Tab = TabAll
	}
	switch {
	case viewer.IsAdmin():
	case viewer.IsNutritionist():
		if f.Tab == TabPopular {
			return View{}, apperror.Forbidden("the popular view is available to admins only")
		}
		source = ownedBy(source, viewer.UID)
	default:
		return View{}, apperror.Forbidden("meal plan views require an admin or nutritionist account")
	}

	view := View{Tab: f.Tab, Counts: countStatuses(source)}

	matched := make([]models.MealPlan, 0, len(source))
	for _, p := range source {
		if matchesSearch(p, f.Search, f.MatchDescription) && matchesCategory(p, f.Category) {
			matched = append(matched, p)
		}
	}

	if f.Tab == TabPopular {
		view.Popular = PopularCohorts(matched, f.PopularLimit)
		view.Plans = []models.MealPlan{}
		return view, nil
	}

	plans := make([]models.MealPlan, 0, len(matched))
	want, byStatus := f.Tab.status()
	for _, p := range matched {
		if byStatus && p.Status != want {
			continue
		}
		plans = append(plans, p)
	}
	sort.SliceStable(plans, func(i, j int) bool {
		return plans[i].CreatedAt.After(plans[j].CreatedAt)
	})
	view.Plans = plans
	return view, nil
}

func ownedBy(plans []models.MealPlan, uid string) []models.MealPlan {
	out := make([]models.MealPlan, 0, len(plans))
	for _, p := range plans {
		if p.AuthorID == uid {
			out = append(out, p)
		}
	}
	return out
}

func countStatuses(plans []models.MealPlan) Counts {
	c := Counts{Total: len(plans)}
	for _, p := range plans {
		switch p.Status {
		case models.StatusPendingApproval:
			c.Pending++
		case models.StatusApproved:
			c.Approved++
		case models.StatusRejected:
			c.Rejected++
		}
	}
	return c
}

func matchesSearch(p models.MealPlan, term string, inDescription bool) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	if strings.Contains(strings.ToLower(p.Name), term) || strings.Contains(strings.ToLower(p.AuthorName), term) {
		return true
	}
	return inDescription && strings.Contains(strings.ToLower(p.Description), term)
}

func matchesCategory(p models.MealPlan, category string) bool {
	category = strings.TrimSpace(category)
	return category == "" || p.HasCategory(category)
}
