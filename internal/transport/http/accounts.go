package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"diabeater-console/internal/blob"
	"diabeater-console/internal/service"
	"diabeater-console/pkg/apperror"
	"diabeater-console/pkg/models"
)

// ListUsers serves the account table: ?role=&status=&search=
func (h *Handler) ListUsers(c *fiber.Ctx) error {
	var f service.AccountFilter
	if raw := c.Query("role"); raw != "" {
		role, ok := models.ParseRole(raw)
		if !ok {
			return fail(c, apperror.Validation("unknown role %q", raw))
		}
		f.Role = role
	}
	if raw := c.Query("status"); raw != "" {
		status, ok := models.ParseAccountStatus(raw)
		if !ok {
			return fail(c, apperror.Validation("unknown status %q", raw))
		}
		f.Status = status
	}
	f.Search = c.Query("search")

	users, err := h.svc.Accounts.List(c.UserContext(), principal(c), f)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"users": users, "count": len(users)})
}

func (h *Handler) SuspendUser(c *fiber.Ctx) error {
	return h.setSuspended(c, true)
}

func (h *Handler) UnsuspendUser(c *fiber.Ctx) error {
	return h.setSuspended(c, false)
}

// setSuspended applies the change through the admin's account board so the
// response can carry the status counts afterwards.
func (h *Handler) setSuspended(c *fiber.Ctx, suspend bool) error {
	board := service.NewUserBoard(h.svc.Accounts, principal(c))
	if err := board.Refresh(c.UserContext()); err != nil {
		return fail(c, err)
	}
	var (
		user *models.UserAccount
		err  error
	)
	if suspend {
		user, err = board.Suspend(c.UserContext(), c.Params("id"))
	} else {
		user, err = board.Unsuspend(c.UserContext(), c.Params("id"))
	}
	return respondWith(c, fiber.StatusOK, fiber.Map{"user": user, "counts": board.Counts()}, err)
}

func (h *Handler) GetProfile(c *fiber.Ctx) error {
	user, err := h.svc.Accounts.Profile(c.UserContext(), principal(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"user": user})
}

// UpdateProfile accepts JSON, or multipart with firstName, lastName and an
// optional "image".
func (h *Handler) UpdateProfile(c *fiber.Ctx) error {
	var in service.ProfileInput
	var image *blob.File

	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		if v := c.FormValue("firstName"); v != "" {
			in.FirstName = &v
		}
		if v := c.FormValue("lastName"); v != "" {
			in.LastName = &v
		}
		f, err := formFile(c, "image")
		if err != nil {
			return fail(c, err)
		}
		image = f
	} else if err := parseBody(c, &in); err != nil {
		return fail(c, err)
	}

	user, err := h.svc.Accounts.UpdateProfile(c.UserContext(), principal(c), in, image)
	return respond(c, fiber.StatusOK, "user", user, err)
}
