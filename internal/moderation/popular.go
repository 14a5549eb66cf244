package moderation

import (
	"sort"
	"strings"

	"diabeater-console/pkg/models"
)

// Cohort names a popular-view bucket.
type Cohort string

const (
	CohortMostSaved        Cohort = "most-saved"
	CohortHighProtein      Cohort = "high-protein"
	CohortLowCarb          Cohort = "low-carb"
	CohortVegetarian       Cohort = "vegetarian"
	CohortQuick            Cohort = "quick"
	CohortDiabeticFriendly Cohort = "diabetic-friendly"
)

// Cohorts lists every cohort in display order.
var Cohorts = []Cohort{
	CohortMostSaved,
	CohortHighProtein,
	CohortLowCarb,
	CohortVegetarian,
	CohortQuick,
	CohortDiabeticFriendly,
}

// Matched against lowercased name, description and categories.
var cohortKeywords = map[Cohort][]string{
	CohortHighProtein: {"high protein", "high-protein", "protein", "chicken", "salmon", "tuna", "egg", "tofu", "turkey", "beef", "lentil", "greek yogurt"},
	CohortLowCarb:     {"low carb", "low-carb", "keto", "cauliflower", "zucchini", "lettuce wrap", "no rice"},
	CohortVegetarian:  {"vegetarian", "vegan", "veggie", "plant-based", "plant based", "meatless", "tofu", "chickpea"},
	CohortQuick:       {"quick", "easy", "fast", "simple", "5 min", "10 min", "15 min", "15-minute", "no-cook", "no cook"},
	CohortDiabeticFriendly: {"diabetic", "diabetes", "low sugar", "sugar-free", "sugar free", "low gi", "low-gi",
		"low glycemic", "whole grain", "high fiber", "high-fiber", "blood sugar"},
}

// Classify returns the cohorts p belongs to. Only approved plans are ever
// classified; anything else gets no cohort.
func Classify(p models.MealPlan) []Cohort {
	if p.Status != models.StatusApproved {
		return nil
	}

	var out []Cohort
	if p.Saves > 0 {
		out = append(out, CohortMostSaved)
	}
	text := strings.ToLower(p.Name + "\n" + p.Description + "\n" + strings.Join(p.Categories, "\n"))
	for _, c := range Cohorts[1:] {
		for _, kw := range cohortKeywords[c] {
			if strings.Contains(text, kw) {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

type CohortView struct {
	Cohort Cohort            `json:"cohort"`
	Plans  []models.MealPlan `json:"plans"`
}

// PopularCohorts buckets plans and sorts each bucket by saves, descending.
// Ties keep input order. limit <= 0 keeps every member.
func PopularCohorts(plans []models.MealPlan, limit int) []CohortView {
	buckets := make(map[Cohort][]models.MealPlan, len(Cohorts))
	for _, p := range plans {
		for _, c := range Classify(p) {
			buckets[c] = append(buckets[c], p)
		}
	}

	out := make([]CohortView, 0, len(Cohorts))
	for _, c := range Cohorts {
		members := buckets[c]
		sort.SliceStable(members, func(i, j int) bool {
			return members[i].Saves > members[j].Saves
		})
		if limit > 0 && len(members) > limit {
			members = members[:limit]
		}
		if members == nil {
			members = []models.MealPlan{}
		}
		out = append(out, CohortView{Cohort: c, Plans: members})
	}
	return out
}
