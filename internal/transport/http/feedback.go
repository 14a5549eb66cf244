package http

import (
	"github.com/gofiber/fiber/v2"

	"diabeater-console/internal/service"
)

func (h *Handler) SubmitFeedback(c *fiber.Ctx) error {
	var in service.FeedbackInput
	if err := parseBody(c, &in); err != nil {
		return fail(c, err)
	}
	fb, err := h.svc.Feedback.Submit(c.UserContext(), in)
	return respond(c, fiber.StatusCreated, "feedback", fb, err)
}

// Testimonials lists the feedback featured on the marketing site.
func (h *Handler) Testimonials(c *fiber.Ctx) error {
	featured, err := h.svc.Feedback.Featured(c.UserContext())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"testimonials": featured})
}

func (h *Handler) ListFeedback(c *fiber.Ctx) error {
	list, err := h.svc.Feedback.List(c.UserContext(), principal(c), c.Query("category"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"feedback": list, "count": len(list)})
}

type featuredRequest struct {
	Featured *bool `json:"featured"`
}

func (h *Handler) SetFeedbackFeatured(c *fiber.Ctx) error {
	var req featuredRequest
	if err := parseBody(c, &req); err != nil {
		return fail(c, err)
	}
	if req.Featured == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "featured is required"})
	}
	fb, err := h.svc.Feedback.SetFeatured(c.UserContext(), principal(c), c.Params("id"), *req.Featured)
	return respond(c, fiber.StatusOK, "feedback", fb, err)
}

func (h *Handler) AutomateFeatured(c *fiber.Ctx) error {
	result, err := h.svc.Feedback.AutomateFeatured(c.UserContext(), principal(c))
	return respond(c, fiber.StatusOK, "result", result, err)
}
