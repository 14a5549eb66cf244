package models

import (
	"strings"
	"time"
)

// MaxFeaturedFeedback caps how many testimonials the marketing site shows.
const MaxFeaturedFeedback = 3

type Feedback struct {
	ID                 string    `json:"id"`
	AuthorName         string    `json:"name"`
	Message            string    `json:"message"`
	Rating             int       `json:"rating"`
	Category           string    `json:"category"`
	DisplayOnMarketing bool      `json:"displayOnMarketing"`
	Status             string    `json:"status,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
}

// IsCompliment matches the category case-insensitively; stored data mixes
// "compliment" and "Compliment".
func (f Feedback) IsCompliment() bool {
	return strings.EqualFold(strings.TrimSpace(f.Category), "compliment")
}

func (f Feedback) ToRecord() Record {
	rec := Record{
		"name":               f.AuthorName,
		"message":            f.Message,
		"rating":             f.Rating,
		"category":           f.Category,
		"displayOnMarketing": f.DisplayOnMarketing,
		"createdAt":          timeOrNil(f.CreatedAt),
	}
	if f.Status != "" {
		rec["status"] = f.Status
	}
	return rec
}

func DecodeFeedback(id string, data Record) (*Feedback, error) {
	r := newReader("feedback", id, data)
	f := &Feedback{
		ID:                 id,
		AuthorName:         r.String("name"),
		Message:            r.String("message"),
		Category:           r.String("category"),
		DisplayOnMarketing: r.Bool("displayOnMarketing"),
		Status:             r.String("status"),
		CreatedAt:          r.Time("createdAt"),
	}
	rating := r.Number("rating")
	if r.Err() == nil && (rating < 1 || rating > 5 || rating != float64(int(rating))) {
		r.fail("rating", "must be an integer between 1 and 5, got %v", rating)
	}
	f.Rating = int(rating)
	if err := r.Err(); err != nil {
		return nil, err
	}
	return f, nil
}
