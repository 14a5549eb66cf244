package models

import (
	"strings"
	"time"
)

type Subscription struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId"`
	Plan      string     `json:"plan"`
	Status    string     `json:"status"`
	Price     float64    `json:"price"`
	StartDate time.Time  `json:"startDate"`
	EndDate   *time.Time `json:"endDate,omitempty"`
}

func (s Subscription) IsActive() bool {
	return strings.EqualFold(s.Status, "active")
}

func (s Subscription) ToRecord() Record {
	rec := Record{
		"userId":    s.UserID,
		"plan":      s.Plan,
		"status":    s.Status,
		"price":     s.Price,
		"startDate": timeOrNil(s.StartDate),
	}
	if s.EndDate != nil {
		rec["endDate"] = s.EndDate.UTC()
	}
	return rec
}

func DecodeSubscription(id string, data Record) (*Subscription, error) {
	r := newReader("subscription", id, data)
	s := &Subscription{
		ID:        id,
		UserID:    r.String("userId"),
		Plan:      r.String("plan"),
		Status:    r.String("status"),
		Price:     r.Number("price"),
		StartDate: r.Time("startDate"),
		EndDate:   r.OptionalTime("endDate"),
	}
	if s.Price < 0 {
		r.fail("price", "must not be negative")
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	return s, nil
}
