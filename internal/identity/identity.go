// Package identity wraps the identity provider: token verification, role
// claims and login enable/disable.
package identity

import (
	"context"

	"diabeater-console/pkg/models"
)

// RoleClaim is the custom claim carrying the console role.
const RoleClaim = "role"

type Provider interface {
	Verify(ctx context.Context, token string) (models.Principal, error)
	SetRole(ctx context.Context, uid string, role models.Role) error
	// CreateLogin creates a login entity for an existing account id.
	CreateLogin(ctx context.Context, uid, email, displayName string) error
	SetDisabled(ctx context.Context, uid string, disabled bool) error
	PasswordSetupLink(ctx context.Context, email string) (string, error)
}

func roleFromClaims(claims map[string]interface{}) models.Role {
	raw, _ := claims[RoleClaim].(string)
	if role, ok := models.ParseRole(raw); ok {
		return role
	}
	return models.RoleUser
}
