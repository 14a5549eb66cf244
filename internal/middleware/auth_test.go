package middleware

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"diabeater-console/internal/identity"
	"diabeater-console/pkg/models"
)

func newApp(idp identity.Provider) *fiber.App {
	app := fiber.New()
	app.Use(Authenticate(idp))
	app.Get("/me", func(c *fiber.Ctx) error {
		p, _ := GetPrincipal(c)
		return c.SendString(p.UID)
	})
	app.Get("/admin", RequireAdmin(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app
}

func TestAuthenticate(t *testing.T) {
	idp := identity.NewLocal("secret", time.Hour)
	app := newApp(idp)
	tok, err := idp.Issue(models.Principal{UID: "nutri-1", Role: models.RoleNutritionist})
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/me", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	req = httptest.NewRequest("GET", "/me?token="+tok, nil)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	req = httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestRequireAdmin(t *testing.T) {
	idp := identity.NewLocal("secret", time.Hour)
	app := newApp(idp)

	nutri, err := idp.Issue(models.Principal{UID: "nutri-1", Role: models.RoleNutritionist})
	require.NoError(t, err)
	admin, err := idp.Issue(models.Principal{UID: "admin-1", Role: models.RoleAdmin})
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+nutri)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	req = httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+admin)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}

func TestDisabledLoginIsRejected(t *testing.T) {
	idp := identity.NewLocal("secret", time.Hour)
	app := newApp(idp)
	tok, err := idp.Issue(models.Principal{UID: "nutri-1", Role: models.RoleNutritionist})
	require.NoError(t, err)
	require.NoError(t, idp.SetDisabled(context.Background(), "nutri-1", true))

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
