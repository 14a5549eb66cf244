package http

import (
	"github.com/gofiber/fiber/v2"

	"diabeater-console/internal/service"
	"diabeater-console/pkg/apperror"
	"diabeater-console/pkg/models"
)

// SubmitApplication is the public nutritionist sign-up. Multipart fields:
// firstName, lastName, email and the "certificate" file.
func (h *Handler) SubmitApplication(c *fiber.Ctx) error {
	in := service.ApplicationInput{
		FirstName: c.FormValue("firstName"),
		LastName:  c.FormValue("lastName"),
		Email:     c.FormValue("email"),
	}
	certificate, err := formFile(c, "certificate")
	if err != nil {
		return fail(c, err)
	}

	app, err := h.svc.Applications.Submit(c.UserContext(), in, certificate)
	return respond(c, fiber.StatusCreated, "application", app, err)
}

func (h *Handler) ListApplications(c *fiber.Ctx) error {
	var status models.ApplicationStatus
	if raw := c.Query("status"); raw != "" {
		s, ok := models.ParseApplicationStatus(raw)
		if !ok {
			return fail(c, apperror.Validation("unknown application status %q", raw))
		}
		status = s
	}
	list, err := h.svc.Applications.List(c.UserContext(), principal(c), status)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"applications": list, "count": len(list)})
}

func (h *Handler) GetApplication(c *fiber.Ctx) error {
	app, err := h.svc.Applications.Get(c.UserContext(), principal(c), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"application": app})
}

func (h *Handler) ApproveApplication(c *fiber.Ctx) error {
	app, err := h.svc.Applications.Approve(c.UserContext(), principal(c), c.Params("id"))
	return respond(c, fiber.StatusOK, "application", app, err)
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) RejectApplication(c *fiber.Ctx) error {
	var req rejectRequest
	if err := parseBody(c, &req); err != nil {
		return fail(c, err)
	}
	app, err := h.svc.Applications.Reject(c.UserContext(), principal(c), c.Params("id"), req.Reason)
	return respond(c, fiber.StatusOK, "application", app, err)
}
