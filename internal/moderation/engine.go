// Package moderation owns the meal plan lifecycle: submission, the
// PENDING_APPROVAL -> APPROVED | REJECTED state machine, the author
// notification that follows every decision, and list aggregation.
package moderation

import (
	"context"
	"errors"
	"html"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/sirupsen/logrus"

	"diabeater-console/internal/blob"
	"diabeater-console/internal/repository"
	"diabeater-console/pkg/apperror"
	"diabeater-console/pkg/models"
	"diabeater-console/pkg/validator"
	"diabeater-console/utils"
)

// Notifier delivers a notification record to its recipient.
type Notifier interface {
	Deliver(ctx context.Context, n models.Notification) (*models.Notification, error)
}

type Engine struct {
	plans    *repository.MealPlanRepository
	users    *repository.UserRepository
	blobs    blob.Store
	notifier Notifier
	policy   *bluemonday.Policy
	now      func() time.Time
}

func NewEngine(plans *repository.MealPlanRepository, users *repository.UserRepository, blobs blob.Store, notifier Notifier) *Engine {
	return &Engine{
		plans:    plans,
		users:    users,
		blobs:    blobs,
		notifier: notifier,
		policy:   bluemonday.StrictPolicy(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// DecideInput is an admin verdict on one plan.
type DecideInput struct {
	PlanID  string                `json:"-"`
	Verdict models.MealPlanStatus `json:"verdict" validate:"required,oneof=APPROVED REJECTED"`
	Reason  string                `json:"reason" validate:"required_if=Verdict REJECTED,max=1000"`
}

// Decision is what a successful (or partially successful) decide returns.
type Decision struct {
	Plan         models.MealPlan      `json:"mealPlan"`
	Notification *models.Notification `json:"notification,omitempty"`
}

// ValidateDecision checks a verdict without touching the store.
func ValidateDecision(in *DecideInput) error {
	in.PlanID = strings.TrimSpace(in.PlanID)
	in.Reason = strings.TrimSpace(in.Reason)
	if v, ok := models.ParseMealPlanStatus(string(in.Verdict)); ok {
		in.Verdict = v
	}
	if in.PlanID == "" {
		return apperror.Validation("meal plan id is required")
	}
	if err := validator.Struct(in); err != nil {
		return err
	}
	if in.Verdict == models.StatusRejected && in.Reason == "" {
		return apperror.Validation("a rejection reason is required")
	}
	return nil
}

// Decide applies a verdict: write the status, then notify the author. A
// failed status write aborts with nothing else written. A failed
// notification after a successful write returns the Decision together with a
// partial-failure error.
func (e *Engine) Decide(ctx context.Context, actor models.Principal, in DecideInput) (*Decision, error) {
	if !actor.IsAdmin() {
		return nil, apperror.Forbidden("only admins can approve or reject meal plans")
	}
	if err := ValidateDecision(&in); err != nil {
		return nil, err
	}

	log := utils.Log.WithFields(logrus.Fields{"plan": in.PlanID, "verdict": in.Verdict, "admin": actor.UID})

	plan, err := e.plans.Get(ctx, in.PlanID)
	if err != nil {
		return nil, err
	}
	if plan.Status != models.StatusPendingApproval {
		// Last write wins; re-deciding is allowed but is a caller error.
		log.WithField("current", plan.Status).Warn("⚠️ [MODERATION] deciding a plan that is not pending")
	}

	decider := e.deciderName(ctx, actor)

	if err := e.plans.SetStatus(ctx, plan.ID, in.Verdict, in.Reason); err != nil {
		log.WithError(err).Error("❌ [MODERATION] status write failed")
		return nil, err
	}

	plan.Status = in.Verdict
	plan.RejectionReason = ""
	if in.Verdict == models.StatusRejected {
		plan.RejectionReason = in.Reason
	}
	plan.UpdatedAt = e.now()
	decision := &Decision{Plan: *plan}

	n := models.Notification{
		RecipientID:     plan.AuthorID,
		Type:            models.NotificationMealPlanStatusUpdate,
		Message:         DecisionMessage(plan.Name, decider, in.Verdict, in.Reason),
		MealPlanID:      plan.ID,
		RejectionReason: plan.RejectionReason,
		Timestamp:       e.now(),
	}
	delivered, err := e.notifier.Deliver(ctx, n)
	if err != nil {
		log.WithError(err).Warn("⚠️ [MODERATION] decision saved but notification failed")
		return decision, apperror.Partial("decision saved, but notification failed", err)
	}
	decision.Notification = delivered

	log.Info("✅ [MODERATION] meal plan decided")
	return decision, nil
}

func (e *Engine) deciderName(ctx context.Context, actor models.Principal) string {
	if name := strings.TrimSpace(actor.Name); name != "" {
		return name
	}
	name, err := e.users.DisplayName(ctx, actor.UID)
	if err != nil {
		utils.Log.WithError(err).WithField("admin", actor.UID).Warn("⚠️ [MODERATION] could not resolve admin name")
	}
	if name == "" {
		return DefaultDeciderName
	}
	return name
}

// PendingMealPlans lists every plan awaiting a decision.
func (e *Engine) PendingMealPlans(ctx context.Context, actor models.Principal) ([]models.MealPlan, error) {
	if !actor.IsAdmin() {
		return nil, apperror.Forbidden("only admins can review pending meal plans")
	}
	return e.plans.GetPendingMealPlans(ctx)
}

// Source fetches the plans a viewer may see: all of them for admins, their
// own for nutritionists.
func (e *Engine) Source(ctx context.Context, viewer models.Principal) ([]models.MealPlan, error) {
	switch {
	case viewer.IsAdmin():
		return e.plans.List(ctx)
	case viewer.IsNutritionist():
		return e.plans.ListByAuthor(ctx, viewer.UID)
	default:
		return nil, apperror.Forbidden("meal plan views require an admin or nutritionist account")
	}
}

// ListView fetches the viewer's plans and aggregates them.
func (e *Engine) ListView(ctx context.Context, viewer models.Principal, f Filters) (View, error) {
	if !viewer.IsAdmin() && f.Tab == TabPopular {
		return View{}, apperror.Forbidden("the popular view is available to admins only")
	}
	source, err := e.Source(ctx, viewer)
	if err != nil {
		return View{}, err
	}
	return BuildView(viewer, source, f)
}

// MealPlanInput is the author-editable content of a plan.
type MealPlanInput struct {
	Name        string           `json:"name" validate:"required,max=120"`
	Description string           `json:"description" validate:"max=2000"`
	Ingredients []string         `json:"ingredients" validate:"max=100"`
	Steps       string           `json:"steps" validate:"max=10000"`
	Nutrients   models.Nutrients `json:"nutrients"`
	Categories  []string         `json:"categories" validate:"max=20"`
}

// Submit uploads the image and writes a new plan in PENDING_APPROVAL. If the
// document write fails the uploaded image is released again.
func (e *Engine) Submit(ctx context.Context, author models.Principal, in MealPlanInput, image *blob.File) (*models.MealPlan, error) {
	if !author.IsNutritionist() {
		return nil, apperror.Forbidden("only nutritionists can submit meal plans")
	}
	e.sanitizeInput(&in)
	if err := validator.Struct(in); err != nil {
		return nil, err
	}
	if err := in.Nutrients.Validate(); err != nil {
		return nil, err
	}
	if image.Empty() {
		return nil, apperror.Validation("a meal plan image is required")
	}
	if !blob.IsImage(image.Name) {
		return nil, apperror.Validation("meal plan image must be a jpg, png, gif or webp file")
	}

	authorName := strings.TrimSpace(author.Name)
	if authorName == "" {
		if u, err := e.users.Get(ctx, author.UID); err == nil {
			authorName = u.DisplayName()
		} else if !errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
	}

	key := blob.NewKey(blob.MealPlanImages, author.UID, image.Name)
	url, err := e.blobs.Upload(ctx, key, image.Content, image.ContentType())
	if err != nil {
		return nil, err
	}

	now := e.now()
	plan := models.MealPlan{
		Name:        in.Name,
		Description: in.Description,
		Ingredients: in.Ingredients,
		Steps:       in.Steps,
		Nutrients:   in.Nutrients,
		Categories:  in.Categories,
		AuthorID:    author.UID,
		AuthorName:  authorName,
		ImageURL:    url,
		ImagePath:   key,
		Status:      models.StatusPendingApproval,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	created, err := e.plans.Create(ctx, plan)
	if err != nil {
		if delErr := e.blobs.Delete(ctx, key); delErr != nil {
			utils.Log.WithError(delErr).WithField("key", key).Error("❌ [MODERATION] orphaned meal plan image")
		}
		return nil, err
	}

	utils.Log.WithFields(logrus.Fields{"plan": created.ID, "author": author.UID}).Info("📝 [MODERATION] meal plan submitted")
	return created, nil
}

// MealPlanPatch carries the fields an edit changes; nil fields stay as they are.
type MealPlanPatch struct {
	Name        *string           `json:"name" validate:"omitempty,max=120"`
	Description *string           `json:"description" validate:"omitempty,max=2000"`
	Ingredients *[]string         `json:"ingredients"`
	Steps       *string           `json:"steps" validate:"omitempty,max=10000"`
	Nutrients   *models.Nutrients `json:"nutrients"`
	Categories  *[]string         `json:"categories"`
}

// UpdateContent edits a plan's content. Status and counters are never
// touched here.
func (e *Engine) UpdateContent(ctx context.Context, actor models.Principal, id string, patch MealPlanPatch) (*models.MealPlan, error) {
	e.sanitizePatch(&patch)
	if err := validator.Struct(patch); err != nil {
		return nil, err
	}
	if patch.Name != nil && *patch.Name == "" {
		return nil, apperror.Validation("meal plan name cannot be empty")
	}
	if patch.Nutrients != nil {
		if err := patch.Nutrients.Validate(); err != nil {
			return nil, err
		}
	}
	plan, err := e.authorizedPlan(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	partial := models.Record{}
	if patch.Name != nil {
		partial["name"] = *patch.Name
	}
	if patch.Description != nil {
		partial["description"] = *patch.Description
	}
	if patch.Steps != nil {
		partial["steps"] = *patch.Steps
	}
	if patch.Ingredients != nil {
		partial["ingredients"] = toInterfaces(*patch.Ingredients)
	}
	if patch.Categories != nil {
		partial["categories"] = toInterfaces(*patch.Categories)
	}
	if patch.Nutrients != nil {
		partial["nutrients"] = patch.Nutrients.ToRecord()
	}
	if len(partial) == 0 {
		return plan, nil
	}

	if err := e.plans.Update(ctx, plan.ID, partial); err != nil {
		return nil, err
	}
	return e.plans.Get(ctx, plan.ID)
}

// ReplaceImage uploads a new image, points the plan at it and then releases
// the previous blob. A failed release is only logged.
func (e *Engine) ReplaceImage(ctx context.Context, actor models.Principal, id string, image *blob.File) (*models.MealPlan, error) {
	if image.Empty() {
		return nil, apperror.Validation("an image file is required")
	}
	if !blob.IsImage(image.Name) {
		return nil, apperror.Validation("meal plan image must be a jpg, png, gif or webp file")
	}
	plan, err := e.authorizedPlan(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	key := blob.NewKey(blob.MealPlanImages, plan.AuthorID, image.Name)
	url, err := e.blobs.Upload(ctx, key, image.Content, image.ContentType())
	if err != nil {
		return nil, err
	}
	if err := e.plans.Update(ctx, plan.ID, models.Record{"imageUrl": url, "imagePath": key}); err != nil {
		if delErr := e.blobs.Delete(ctx, key); delErr != nil {
			utils.Log.WithError(delErr).WithField("key", key).Error("❌ [MODERATION] orphaned meal plan image")
		}
		return nil, err
	}

	if plan.ImagePath != "" {
		if err := e.blobs.Delete(ctx, plan.ImagePath); err != nil {
			utils.Log.WithError(err).WithField("key", plan.ImagePath).Warn("⚠️ [MODERATION] previous image not released")
		}
	}
	plan.ImageURL = url
	plan.ImagePath = key
	plan.UpdatedAt = e.now()
	return plan, nil
}

// Delete removes the plan document and then its image. If only the image
// release fails the error is a partial failure.
func (e *Engine) Delete(ctx context.Context, actor models.Principal, id string) error {
	plan, err := e.authorizedPlan(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := e.plans.Delete(ctx, plan.ID); err != nil {
		return err
	}
	utils.Log.WithFields(logrus.Fields{"plan": plan.ID, "by": actor.UID}).Info("🗑️ [MODERATION] meal plan deleted")

	if plan.ImagePath == "" {
		return nil
	}
	if err := e.blobs.Delete(ctx, plan.ImagePath); err != nil {
		return apperror.Partial("meal plan deleted, but its image could not be released", err)
	}
	return nil
}

// authorizedPlan loads a plan the actor may modify: its author or any admin.
func (e *Engine) authorizedPlan(ctx context.Context, actor models.Principal, id string) (*models.MealPlan, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.Validation("meal plan id is required")
	}
	if !actor.IsAdmin() && !actor.IsNutritionist() {
		return nil, apperror.Forbidden("meal plans can only be changed by their author or an admin")
	}
	plan, err := e.plans.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && plan.AuthorID != actor.UID {
		return nil, apperror.Forbidden("meal plans can only be changed by their author or an admin")
	}
	return plan, nil
}

func (e *Engine) sanitizeInput(in *MealPlanInput) {
	in.Name = e.clean(in.Name)
	in.Description = e.clean(in.Description)
	in.Steps = e.clean(in.Steps)
	in.Ingredients = e.cleanList(in.Ingredients)
	in.Categories = dedupe(e.cleanList(in.Categories))
}

func (e *Engine) sanitizePatch(p *MealPlanPatch) {
	cleanPtr := func(v *string) *string {
		if v == nil {
			return nil
		}
		c := e.clean(*v)
		return &c
	}
	p.Name = cleanPtr(p.Name)
	p.Description = cleanPtr(p.Description)
	p.Steps = cleanPtr(p.Steps)
	if p.Ingredients != nil {
		list := e.cleanList(*p.Ingredients)
		p.Ingredients = &list
	}
	if p.Categories != nil {
		list := dedupe(e.cleanList(*p.Categories))
		p.Categories = &list
	}
}

// clean strips markup; entities are decoded again so stored text stays plain.
func (e *Engine) clean(s string) string {
	return strings.TrimSpace(html.UnescapeString(e.policy.Sanitize(s)))
}

func (e *Engine) cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = e.clean(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func toInterfaces(in []string) []interface{} {
	out := make([]interface{}, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
