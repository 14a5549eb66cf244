package moderation

import (
	"context"

	"diabeater-console/internal/workset"
	"diabeater-console/pkg/apperror"
	"diabeater-console/pkg/models"
)

// Board is the view state of one viewer: the working set of plans it last
// fetched, plus actions that update that set optimistically.
type Board struct {
	engine *Engine
	viewer models.Principal
	plans  *workset.Set[models.MealPlan]
}

func NewBoard(engine *Engine, viewer models.Principal) *Board {
	return &Board{
		engine: engine,
		viewer: viewer,
		plans: workset.New(
			func(p models.MealPlan) string { return p.ID },
			models.MealPlan.Clone,
		),
	}
}

// Refresh replaces the working set with the viewer's plans from the store.
func (b *Board) Refresh(ctx context.Context) error {
	plans, err := b.engine.Source(ctx, b.viewer)
	if err != nil {
		return err
	}
	b.plans.Replace(plans)
	return nil
}

// View aggregates the working set without any I/O.
func (b *Board) View(f Filters) (View, error) {
	return BuildView(b.viewer, b.plans.Items(), f)
}

func (b *Board) Plan(id string) (models.MealPlan, bool) {
	return b.plans.Get(id)
}

// Decide patches the plan's status locally, then asks the engine. The patch
// is reconciled with the engine's result, kept on partial failure, and
// rolled back on any other error.
func (b *Board) Decide(ctx context.Context, in DecideInput) (*Decision, error) {
	if !b.viewer.IsAdmin() {
		return nil, apperror.Forbidden("only admins can approve or reject meal plans")
	}
	if err := ValidateDecision(&in); err != nil {
		return nil, err
	}

	undo, _ := b.plans.Patch(in.PlanID, func(p *models.MealPlan) {
		p.Status = in.Verdict
		p.RejectionReason = ""
		if in.Verdict == models.StatusRejected {
			p.RejectionReason = in.Reason
		}
	})

	d, err := b.engine.Decide(ctx, b.viewer, in)
	if err != nil && !apperror.IsPartial(err) {
		undo()
		return nil, err
	}
	if _, held := b.plans.Get(d.Plan.ID); held {
		b.plans.Put(d.Plan)
	}
	return d, err
}

// Delete removes the plan locally first and restores it if the store delete
// fails. A partial failure (image not released) keeps it removed.
func (b *Board) Delete(ctx context.Context, id string) error {
	undo, _ := b.plans.Remove(id)
	if err := b.engine.Delete(ctx, b.viewer, id); err != nil {
		if !apperror.IsPartial(err) {
			undo()
		}
		return err
	}
	return nil
}
