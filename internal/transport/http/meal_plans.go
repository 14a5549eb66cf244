package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"diabeater-console/internal/moderation"
	"diabeater-console/pkg/apperror"
)

// ListMealPlans serves the moderation and "my plans" screens:
// ?tab=all|pending|approved|rejected|popular&search=&category=&in_description=true&limit=
func (h *Handler) ListMealPlans(c *fiber.Ctx) error {
	tab, err := moderation.ParseTab(c.Query("tab"))
	if err != nil {
		return fail(c, err)
	}
	f := moderation.Filters{
		Tab:              tab,
		Search:           c.Query("search"),
		Category:         c.Query("category"),
		MatchDescription: c.QueryBool("in_description"),
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return fail(c, apperror.Validation("limit must be a non-negative integer"))
		}
		f.PopularLimit = limit
	}

	view, err := h.svc.Engine.ListView(c.UserContext(), principal(c), f)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(view)
}

func (h *Handler) PendingMealPlans(c *fiber.Ctx) error {
	plans, err := h.svc.Engine.PendingMealPlans(c.UserContext(), principal(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"plans": plans, "count": len(plans)})
}

// SubmitMealPlan takes multipart form data: "data" holds the plan JSON and
// "image" the picture.
func (h *Handler) SubmitMealPlan(c *fiber.Ctx) error {
	var in moderation.MealPlanInput
	if err := parseFormJSON(c, "data", &in); err != nil {
		return fail(c, err)
	}
	image, err := formFile(c, "image")
	if err != nil {
		return fail(c, err)
	}

	plan, err := h.svc.Engine.Submit(c.UserContext(), principal(c), in, image)
	return respond(c, fiber.StatusCreated, "mealPlan", plan, err)
}

func (h *Handler) UpdateMealPlan(c *fiber.Ctx) error {
	var patch moderation.MealPlanPatch
	if err := parseBody(c, &patch); err != nil {
		return fail(c, err)
	}
	plan, err := h.svc.Engine.UpdateContent(c.UserContext(), principal(c), c.Params("id"), patch)
	return respond(c, fiber.StatusOK, "mealPlan", plan, err)
}

func (h *Handler) ReplaceMealPlanImage(c *fiber.Ctx) error {
	image, err := formFile(c, "image")
	if err != nil {
		return fail(c, err)
	}
	plan, err := h.svc.Engine.ReplaceImage(c.UserContext(), principal(c), c.Params("id"), image)
	return respond(c, fiber.StatusOK, "mealPlan", plan, err)
}

// board loads the caller's working set for a write that reports counts back.
func (h *Handler) board(c *fiber.Ctx) (*moderation.Board, error) {
	board := moderation.NewBoard(h.svc.Engine, principal(c))
	if err := board.Refresh(c.UserContext()); err != nil {
		return nil, err
	}
	return board, nil
}

func boardCounts(board *moderation.Board) moderation.Counts {
	view, _ := board.View(moderation.Filters{})
	return view.Counts
}

func (h *Handler) DeleteMealPlan(c *fiber.Ctx) error {
	board, err := h.board(c)
	if err != nil {
		return fail(c, err)
	}
	err = board.Delete(c.UserContext(), c.Params("id"))
	return respondWith(c, fiber.StatusOK, fiber.Map{"counts": boardCounts(board)}, err)
}

// DecideMealPlan records an admin verdict: {"verdict":"APPROVED"|"REJECTED","reason":"..."}.
// The response carries the tab counts after the decision.
func (h *Handler) DecideMealPlan(c *fiber.Ctx) error {
	var in moderation.DecideInput
	if err := parseBody(c, &in); err != nil {
		return fail(c, err)
	}
	in.PlanID = c.Params("id")

	board, err := h.board(c)
	if err != nil {
		return fail(c, err)
	}
	d, err := board.Decide(c.UserContext(), in)
	return respondWith(c, fiber.StatusOK, fiber.Map{"decision": d, "counts": boardCounts(board)}, err)
}
