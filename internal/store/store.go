// Package store is the thin document-store client the repositories talk to.
// Two drivers implement it: Firestore for the hosted deployment and a
// GORM-backed documents table for self-hosted Postgres and for tests.
package store

import (
	"context"

	"diabeater-console/pkg/models"
)

// Op is a query comparison operator. The names match Firestore's.
type Op string

const (
	OpEqual         Op = "=="
	OpNotEqual      Op = "!="
	OpIn            Op = "in"
	OpArrayContains Op = "array-contains"
)

type Filter struct {
	Field string
	Op    Op
	Value interface{}
}

func Eq(field string, value interface{}) Filter {
	return Filter{Field: field, Op: OpEqual, Value: value}
}

func Ne(field string, value interface{}) Filter {
	return Filter{Field: field, Op: OpNotEqual, Value: value}
}

func In(field string, values ...interface{}) Filter {
	return Filter{Field: field, Op: OpIn, Value: values}
}

func Contains(field string, value interface{}) Filter {
	return Filter{Field: field, Op: OpArrayContains, Value: value}
}

// Document is a raw record together with its id.
type Document struct {
	ID   string
	Data models.Record
}

// Store is the remote data store. Drivers return apperror.NotFound for
// missing documents and apperror.Transient for backend failures; nothing
// retries.
type Store interface {
	Query(ctx context.Context, collection string, filters ...Filter) ([]Document, error)
	Get(ctx context.Context, collection, id string) (Document, error)
	// Add creates a document with a store-assigned id.
	Add(ctx context.Context, collection string, data models.Record) (string, error)
	// Set creates or replaces the document with the given id.
	Set(ctx context.Context, collection, id string, data models.Record) error
	// Update replaces top-level fields; a nil value removes the field.
	Update(ctx context.Context, collection, id string, partial models.Record) error
	Delete(ctx context.Context, collection, id string) error
}

// Collection names shared by the hosted database and the SQL documents table.
const (
	MealPlans                = "meal_plans"
	UserAccounts             = "user_accounts"
	LegacyUserAccounts       = "user-accounts"
	Notifications            = "notifications"
	MealPlanCategories       = "meal_plan_categories"
	Feedbacks                = "feedbacks"
	NutritionistApplications = "nutritionist_application"
	Subscriptions            = "subscriptions"
	Admins                   = "admins"
)
