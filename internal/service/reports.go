package service

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"diabeater-console/internal/moderation"
	"diabeater-console/internal/repository"
	"diabeater-console/pkg/apperror"
	"diabeater-console/pkg/models"
)

type UserSummary struct {
	Total    int            `json:"total"`
	ByRole   map[string]int `json:"byRole"`
	Active   int            `json:"active"`
	Inactive int            `json:"inactive"`
}

type SubscriptionSummary struct {
	Total   int     `json:"total"`
	Active  int     `json:"active"`
	Revenue float64 `json:"activeRevenue"`
}

type FeedbackSummary struct {
	Total         int     `json:"total"`
	AverageRating float64 `json:"averageRating"`
	Featured      int     `json:"featured"`
}

type Summary struct {
	Users               UserSummary         `json:"users"`
	MealPlans           moderation.Counts   `json:"mealPlans"`
	Subscriptions       SubscriptionSummary `json:"subscriptions"`
	Feedback            FeedbackSummary     `json:"feedback"`
	PendingApplications int                 `json:"pendingApplications"`
	UnreadNotifications int                 `json:"unreadNotifications"`
	GeneratedAt         time.Time           `json:"generatedAt"`
}

type ReportService struct {
	repos *repository.Repositories
	now   func() time.Time
}

func NewReportService(repos *repository.Repositories) *ReportService {
	return &ReportService{repos: repos, now: func() time.Time { return time.Now().UTC() }}
}

// Summary aggregates the dashboard figures. Any failed read fails the call.
func (s *ReportService) Summary(ctx context.Context, actor models.Principal) (*Summary, error) {
	if !actor.IsAdmin() {
		return nil, apperror.Forbidden("only admins can view reports")
	}

	users, err := s.repos.Users.List(ctx)
	if err != nil {
		return nil, err
	}
	plans, err := s.repos.MealPlans.List(ctx)
	if err != nil {
		return nil, err
	}
	subs, err := s.repos.Subscriptions.List(ctx, "")
	if err != nil {
		return nil, err
	}
	feedback, err := s.repos.Feedback.List(ctx)
	if err != nil {
		return nil, err
	}
	pending, err := s.repos.Applications.List(ctx, models.ApplicationPending)
	if err != nil {
		return nil, err
	}
	unread, err := s.repos.Notifications.ListUnread(ctx)
	if err != nil {
		return nil, err
	}

	view, err := moderation.BuildView(actor, plans, moderation.Filters{})
	if err != nil {
		return nil, err
	}

	return &Summary{
		Users:               summarizeUsers(users),
		MealPlans:           view.Counts,
		Subscriptions:       summarizeSubscriptions(subs),
		Feedback:            summarizeFeedback(feedback),
		PendingApplications: len(pending),
		UnreadNotifications: len(unread),
		GeneratedAt:         s.now(),
	}, nil
}

// Subscriptions lists subscriptions, newest first. status matches
// case-insensitively; empty lists all.
func (s *ReportService) Subscriptions(ctx context.Context, actor models.Principal, status string) ([]models.Subscription, error) {
	if !actor.IsAdmin() {
		return nil, apperror.Forbidden("only admins can view subscriptions")
	}
	all, err := s.repos.Subscriptions.List(ctx, "")
	if err != nil {
		return nil, err
	}
	status = strings.TrimSpace(status)
	out := make([]models.Subscription, 0, len(all))
	for _, sub := range all {
		if status == "" || strings.EqualFold(sub.Status, status) {
			out = append(out, sub)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartDate.After(out[j].StartDate)
	})
	return out, nil
}

func summarizeUsers(users []models.UserAccount) UserSummary {
	sum := UserSummary{Total: len(users), ByRole: map[string]int{}}
	for _, u := range users {
		sum.ByRole[string(u.Role)]++
		if u.Status == models.AccountActive {
			sum.Active++
		} else {
			sum.Inactive++
		}
	}
	return sum
}

func summarizeSubscriptions(subs []models.Subscription) SubscriptionSummary {
	sum := SubscriptionSummary{Total: len(subs)}
	for _, sub := range subs {
		if sub.IsActive() {
			sum.Active++
			sum.Revenue += sub.Price
		}
	}
	sum.Revenue = math.Round(sum.Revenue*100) / 100
	return sum
}

func summarizeFeedback(list []models.Feedback) FeedbackSummary {
	sum := FeedbackSummary{Total: len(list)}
	if len(list) == 0 {
		return sum
	}
	total := 0
	for _, f := range list {
		total += f.Rating
		if f.DisplayOnMarketing {
			sum.Featured++
		}
	}
	sum.AverageRating = math.Round(float64(total)/float64(len(list))*100) / 100
	return sum
}
