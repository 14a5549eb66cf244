// Package middleware holds the fiber handlers that run before the route
// handlers: bearer token verification and role gates.
package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"diabeater-console/internal/identity"
	"diabeater-console/pkg/apperror"
	"diabeater-console/pkg/models"
	"diabeater-console/utils"
)

// PrincipalContextKey is the fiber Locals key holding the verified caller.
const PrincipalContextKey = "principal"

// Authenticate verifies the bearer token and stores the principal in Locals.
// EventSource cannot set headers, so the token may also arrive as ?token=.
func Authenticate(provider identity.Provider) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c)
		if token == "" {
			return deny(c, apperror.Unauthorized("missing bearer token"))
		}

		p, err := provider.Verify(c.UserContext(), token)
		if err != nil {
			utils.Log.WithFields(logrus.Fields{"ip": c.IP(), "path": c.Path()}).
				WithError(err).Warn("❌ [AUTH] token rejected")
			return deny(c, err)
		}

		c.Locals(PrincipalContextKey, p)
		return c.Next()
	}
}

// RequireRole lets the request through only when the caller holds one of roles.
func RequireRole(roles ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, ok := GetPrincipal(c)
		if !ok {
			return deny(c, apperror.Unauthorized("not authenticated"))
		}
		for _, r := range roles {
			if p.Role == r {
				return c.Next()
			}
		}
		utils.Log.WithFields(logrus.Fields{"uid": p.UID, "role": p.Role, "path": c.Path()}).
			Warn("❌ [AUTH] role rejected")
		return deny(c, apperror.Forbidden("insufficient role"))
	}
}

func RequireAdmin() fiber.Handler {
	return RequireRole(models.RoleAdmin)
}

func GetPrincipal(c *fiber.Ctx) (models.Principal, bool) {
	p, ok := c.Locals(PrincipalContextKey).(models.Principal)
	return p, ok
}

func bearerToken(c *fiber.Ctx) string {
	header := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return strings.TrimSpace(c.Query("token"))
}

func deny(c *fiber.Ctx, err error) error {
	return c.Status(apperror.MapErrorToStatus(err)).JSON(fiber.Map{
		"error": apperror.Message(err),
	})
}
