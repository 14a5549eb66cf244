// Package http exposes the console over a JSON API on fiber.
package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"diabeater-console/internal/middleware"
	"diabeater-console/internal/moderation"
	"diabeater-console/internal/service"
	"diabeater-console/internal/sse"
	"diabeater-console/pkg/models"
	"diabeater-console/utils"
)

// Services groups what the handlers call into.
type Services struct {
	Engine       *moderation.Engine
	Notify       *service.NotifyService
	Categories   *service.CategoryService
	Feedback     *service.FeedbackService
	Accounts     *service.AccountService
	Applications *service.ApplicationService
	Reports      *service.ReportService
	Broker       *sse.Broker
}

type Handler struct {
	svc     Services
	started time.Time
	// Features reported by /health.
	Features fiber.Map
}

func NewHandler(svc Services) *Handler {
	return &Handler{svc: svc, started: time.Now()}
}

// Register mounts every route. auth must verify the caller and store the
// principal (see middleware.Authenticate).
func (h *Handler) Register(app *fiber.App, auth fiber.Handler) {
	app.Get("/health", h.Health)

	public := app.Group("/v1/public")
	public.Post("/applications", h.SubmitApplication)
	public.Post("/feedback", h.SubmitFeedback)
	public.Get("/testimonials", h.Testimonials)
	utils.Log.Info("✅ [ROUTES] Registered public routes: /v1/public/*")

	v1 := app.Group("/v1", auth)
	v1.Get("/meal-plans", h.ListMealPlans)
	v1.Post("/meal-plans", middleware.RequireRole(models.RoleNutritionist), h.SubmitMealPlan)
	v1.Put("/meal-plans/:id", h.UpdateMealPlan)
	v1.Put("/meal-plans/:id/image", h.ReplaceMealPlanImage)
	v1.Delete("/meal-plans/:id", h.DeleteMealPlan)
	v1.Get("/categories", h.ListCategories)
	v1.Get("/notifications", h.ListNotifications)
	v1.Get("/notifications/stream", h.StreamNotifications)
	v1.Get("/notifications/unread-count", h.UnreadCount)
	v1.Post("/notifications/read-all", h.MarkAllNotificationsRead)
	v1.Post("/notifications/:id/read", h.MarkNotificationRead)
	v1.Post("/devices", h.RegisterDevice)
	v1.Get("/profile", h.GetProfile)
	v1.Put("/profile", h.UpdateProfile)
	utils.Log.Info("✅ [ROUTES] Registered user routes: /v1/*")

	admin := app.Group("/admin", auth, middleware.RequireAdmin())
	admin.Get("/meal-plans/pending", h.PendingMealPlans)
	admin.Post("/meal-plans/:id/decision", h.DecideMealPlan)
	admin.Get("/categories", h.ListCategories)
	admin.Post("/categories", h.CreateCategory)
	admin.Get("/categories/:id", h.GetCategory)
	admin.Put("/categories/:id", h.UpdateCategory)
	admin.Delete("/categories/:id", h.DeleteCategory)
	admin.Get("/users", h.ListUsers)
	admin.Post("/users/:id/suspend", h.SuspendUser)
	admin.Post("/users/:id/unsuspend", h.UnsuspendUser)
	admin.Get("/applications", h.ListApplications)
	admin.Get("/applications/:id", h.GetApplication)
	admin.Post("/applications/:id/approve", h.ApproveApplication)
	admin.Post("/applications/:id/reject", h.RejectApplication)
	admin.Get("/feedback", h.ListFeedback)
	admin.Patch("/feedback/:id/featured", h.SetFeedbackFeatured)
	admin.Post("/feedback/automate", h.AutomateFeatured)
	admin.Get("/subscriptions", h.ListSubscriptions)
	admin.Get("/reports/summary", h.ReportSummary)
	utils.Log.Info("✅ [ROUTES] Registered admin routes: /admin/*")
}

func (h *Handler) Health(c *fiber.Ctx) error {
	body := fiber.Map{
		"status":      "ok",
		"service":     "diabeater-console",
		"uptime":      time.Since(h.started).Round(time.Second).String(),
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"sse_clients": h.svc.Broker.GetTotalClientCount(),
	}
	for k, v := range h.Features {
		body[k] = v
	}
	return c.JSON(body)
}
