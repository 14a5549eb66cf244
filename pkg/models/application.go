package models

import (
	"strings"
	"time"
)

// NutritionistApplication shares its id with the pending user account created
// alongside it, and later with the identity-provider login.
type NutritionistApplication struct {
	ID              string            `json:"id"`
	FirstName       string            `json:"firstName"`
	LastName        string            `json:"lastName"`
	Email           string            `json:"email"`
	CertificateURL  string            `json:"certificateUrl"`
	CertificatePath string            `json:"certificatePath"`
	Status          ApplicationStatus `json:"status"`
	AppliedDate     time.Time         `json:"appliedDate"`
	RejectionReason string            `json:"rejectionReason,omitempty"`
	DecidedBy       string            `json:"decidedBy,omitempty"`
}

func (a NutritionistApplication) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

func (a NutritionistApplication) ToRecord() Record {
	rec := Record{
		"firstName":       a.FirstName,
		"lastName":        a.LastName,
		"email":           a.Email,
		"certificateUrl":  a.CertificateURL,
		"certificatePath": a.CertificatePath,
		"status":          string(a.Status),
		"appliedDate":     timeOrNil(a.AppliedDate),
	}
	if a.RejectionReason != "" {
		rec["rejectionReason"] = a.RejectionReason
	}
	if a.DecidedBy != "" {
		rec["decidedBy"] = a.DecidedBy
	}
	return rec
}

func DecodeApplication(id string, data Record) (*NutritionistApplication, error) {
	r := newReader("nutritionist application", id, data)
	a := &NutritionistApplication{
		ID:              id,
		FirstName:       r.String("firstName"),
		LastName:        r.String("lastName"),
		Email:           r.RequiredString("email"),
		CertificateURL:  r.String("certificateUrl"),
		CertificatePath: r.String("certificatePath"),
		AppliedDate:     r.Time("appliedDate"),
		RejectionReason: r.String("rejectionReason"),
		DecidedBy:       r.String("decidedBy"),
	}
	raw := r.String("status")
	if raw == "" {
		a.Status = ApplicationPending
	} else if status, ok := ParseApplicationStatus(raw); ok {
		a.Status = status
	} else {
		r.fail("status", "has unknown value %q", raw)
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	return a, nil
}
