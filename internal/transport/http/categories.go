package http

import (
	"github.com/gofiber/fiber/v2"

	"diabeater-console/internal/service"
)

func (h *Handler) ListCategories(c *fiber.Ctx) error {
	categories, err := h.svc.Categories.List(c.UserContext())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"categories": categories})
}

func (h *Handler) GetCategory(c *fiber.Ctx) error {
	category, err := h.svc.Categories.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"category": category})
}

func (h *Handler) CreateCategory(c *fiber.Ctx) error {
	var in service.CategoryInput
	if err := parseBody(c, &in); err != nil {
		return fail(c, err)
	}
	category, err := h.svc.Categories.Create(c.UserContext(), principal(c), in)
	return respond(c, fiber.StatusCreated, "category", category, err)
}

func (h *Handler) UpdateCategory(c *fiber.Ctx) error {
	var in service.CategoryInput
	if err := parseBody(c, &in); err != nil {
		return fail(c, err)
	}
	category, err := h.svc.Categories.Update(c.UserContext(), principal(c), c.Params("id"), in)
	return respond(c, fiber.StatusOK, "category", category, err)
}

func (h *Handler) DeleteCategory(c *fiber.Ctx) error {
	err := h.svc.Categories.Delete(c.UserContext(), principal(c), c.Params("id"))
	return respond(c, fiber.StatusOK, "", nil, err)
}
