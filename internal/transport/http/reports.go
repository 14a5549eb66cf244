package http

import "github.com/gofiber/fiber/v2"

func (h *Handler) ReportSummary(c *fiber.Ctx) error {
	summary, err := h.svc.Reports.Summary(c.UserContext(), principal(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(summary)
}

func (h *Handler) ListSubscriptions(c *fiber.Ctx) error {
	subs, err := h.svc.Reports.Subscriptions(c.UserContext(), principal(c), c.Query("status"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"subscriptions": subs, "count": len(subs)})
}
