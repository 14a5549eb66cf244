package models

import (
	"time"
)

type NotificationType string

const (
	NotificationMealPlanStatusUpdate NotificationType = "MEAL_PLAN_STATUS_UPDATE"
	NotificationApplicationUpdate    NotificationType = "NUTRITIONIST_APPLICATION_UPDATE"
	NotificationGeneral              NotificationType = "GENERAL"
)

// Notification is addressed to a single recipient. It is only ever mutated by
// marking it read.
type Notification struct {
	ID              string           `json:"id"`
	RecipientID     string           `json:"userId"`
	Type            NotificationType `json:"type"`
	Message         string           `json:"message"`
	MealPlanID      string           `json:"mealPlanId,omitempty"`
	RejectionReason string           `json:"rejectionReason,omitempty"`
	Read            bool             `json:"read"`
	Timestamp       time.Time        `json:"timestamp"`
}

func (n Notification) ToRecord() Record {
	rec := Record{
		"userId":    n.RecipientID,
		"type":      string(n.Type),
		"message":   n.Message,
		"read":      n.Read,
		"timestamp": timeOrNil(n.Timestamp),
	}
	if n.MealPlanID != "" {
		rec["mealPlanId"] = n.MealPlanID
	}
	if n.RejectionReason != "" {
		rec["rejectionReason"] = n.RejectionReason
	}
	return rec
}

func DecodeNotification(id string, data Record) (*Notification, error) {
	r := newReader("notification", id, data)
	n := &Notification{
		ID:              id,
		RecipientID:     r.RequiredString("userId"),
		Type:            NotificationType(r.String("type")),
		Message:         r.String("message"),
		MealPlanID:      r.String("mealPlanId"),
		RejectionReason: r.String("rejectionReason"),
		Read:            r.Bool("read"),
		Timestamp:       r.Time("timestamp"),
	}
	if n.Type == "" {
		n.Type = NotificationGeneral
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	return n, nil
}
