package models

import (
	"strings"
	"time"
)

type Role string

const (
	RoleUser                Role = "user"
	RoleNutritionist        Role = "nutritionist"
	RolePendingNutritionist Role = "pending_nutritionist"
	RoleAdmin               Role = "admin"
)

func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleUser:
		return RoleUser, true
	case RoleNutritionist:
		return RoleNutritionist, true
	case RolePendingNutritionist, "pending-nutritionist":
		return RolePendingNutritionist, true
	case RoleAdmin:
		return RoleAdmin, true
	}
	return "", false
}

type AccountStatus string

const (
	AccountActive   AccountStatus = "Active"
	AccountInactive AccountStatus = "Inactive"
)

// ParseAccountStatus maps "suspended" and "disabled" to Inactive.
func ParseAccountStatus(s string) (AccountStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "active":
		return AccountActive, true
	case "inactive", "suspended", "disabled":
		return AccountInactive, true
	}
	return "", false
}

type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationApproved ApplicationStatus = "approved"
	ApplicationRejected ApplicationStatus = "rejected"
)

func ParseApplicationStatus(s string) (ApplicationStatus, bool) {
	switch ApplicationStatus(strings.ToLower(strings.TrimSpace(s))) {
	case ApplicationPending:
		return ApplicationPending, true
	case ApplicationApproved:
		return ApplicationApproved, true
	case ApplicationRejected:
		return ApplicationRejected, true
	}
	return "", false
}

type UserAccount struct {
	ID                string            `json:"id"`
	FirstName         string            `json:"firstName"`
	LastName          string            `json:"lastName"`
	Email             string            `json:"email"`
	Role              Role              `json:"role"`
	Status            AccountStatus     `json:"status"`
	CreatedAt         time.Time         `json:"createdAt"`
	ProfileImageURL   string            `json:"profileImageUrl,omitempty"`
	ProfileImagePath  string            `json:"profileImagePath,omitempty"`
	CertificateURL    string            `json:"certificateUrl,omitempty"`
	CertificatePath   string            `json:"certificatePath,omitempty"`
	ApplicationStatus ApplicationStatus `json:"applicationStatus,omitempty"`
	AppliedDate       *time.Time        `json:"appliedDate,omitempty"`
	FCMTokens         []string          `json:"-"`
}

func (u UserAccount) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name != "" {
		return name
	}
	if u.Email != "" {
		return u.Email
	}
	return u.ID
}

func (u UserAccount) Clone() UserAccount {
	c := u
	c.FCMTokens = append([]string(nil), u.FCMTokens...)
	if u.AppliedDate != nil {
		t := *u.AppliedDate
		c.AppliedDate = &t
	}
	return c
}

func (u UserAccount) ToRecord() Record {
	rec := Record{
		"firstName": u.FirstName,
		"lastName":  u.LastName,
		"email":     u.Email,
		"role":      string(u.Role),
		"status":    string(u.Status),
		"createdAt": timeOrNil(u.CreatedAt),
	}
	if u.ProfileImageURL != "" {
		rec["profileImageUrl"] = u.ProfileImageURL
		rec["profileImagePath"] = u.ProfileImagePath
	}
	if u.CertificateURL != "" {
		rec["certificateUrl"] = u.CertificateURL
		rec["certificatePath"] = u.CertificatePath
	}
	if u.ApplicationStatus != "" {
		rec["applicationStatus"] = string(u.ApplicationStatus)
	}
	if u.AppliedDate != nil {
		rec["appliedDate"] = u.AppliedDate.UTC()
	}
	if len(u.FCMTokens) > 0 {
		rec["fcmTokens"] = toInterfaces(u.FCMTokens)
	}
	return rec
}

func DecodeUserAccount(id string, data Record) (*UserAccount, error) {
	r := newReader("user account", id, data)

	u := &UserAccount{
		ID:               id,
		FirstName:        r.String("firstName"),
		LastName:         r.String("lastName"),
		Email:            r.String("email"),
		CreatedAt:        r.Time("createdAt"),
		ProfileImageURL:  r.String("profileImageUrl"),
		ProfileImagePath: r.String("profileImagePath"),
		CertificateURL:   r.String("certificateUrl"),
		CertificatePath:  r.String("certificatePath"),
		AppliedDate:      r.OptionalTime("appliedDate"),
		FCMTokens:        r.Strings("fcmTokens"),
	}

	rawRole := r.String("role")
	if rawRole == "" {
		u.Role = RoleUser
	} else if role, ok := ParseRole(rawRole); ok {
		u.Role = role
	} else {
		r.fail("role", "has unknown value %q", rawRole)
	}

	rawStatus := r.String("status")
	if rawStatus == "" {
		u.Status = AccountActive
	} else if status, ok := ParseAccountStatus(rawStatus); ok {
		u.Status = status
	} else {
		r.fail("status", "has unknown value %q", rawStatus)
	}

	if raw := r.String("applicationStatus"); raw != "" {
		status, ok := ParseApplicationStatus(raw)
		if !ok {
			r.fail("applicationStatus", "has unknown value %q", raw)
		}
		u.ApplicationStatus = status
	}

	if err := r.Err(); err != nil {
		return nil, err
	}
	return u, nil
}

// Principal is the verified caller of an operation.
type Principal struct {
	UID   string `json:"uid"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	Role  Role   `json:"role"`
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

func (p Principal) IsNutritionist() bool {
	return p.Role == RoleNutritionist
}
