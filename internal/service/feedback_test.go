package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"diabeater-console/pkg/apperror"
	"diabeater-console/pkg/models"
)

func TestSubmitFeedbackValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewFeedbackService(f.repos)

	for _, rating := range []int{0, 6} {
		_, err := svc.Submit(ctx, FeedbackInput{Message: "great", Rating: rating})
		assert.ErrorIs(t, err, apperror.ErrValidation)
	}
	_, err := svc.Submit(ctx, FeedbackInput{Message: "<script>x</script>", Rating: 4})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	fb, err := svc.Submit(ctx, FeedbackInput{Name: "Kim", Message: "Love the <b>recipes</b>", Rating: 5, Category: "Compliment"})
	require.NoError(t, err)
	assert.Equal(t, "Love the recipes", fb.Message)
	assert.False(t, fb.DisplayOnMarketing)

	fb, err = svc.Submit(ctx, FeedbackInput{Message: "ok", Rating: 3})
	require.NoError(t, err)
	assert.Equal(t, "general", fb.Category)
}

func TestAutomateFeaturedCapsAndReconciles(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewFeedbackService(f.repos)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	old := f.seedFeedback(t, models.Feedback{AuthorName: "Lee", Message: "meh", Rating: 3, Category: "bug", DisplayOnMarketing: true, CreatedAt: base})
	for i, name := range []string{"Ana", "Ana", "Ben", "Cy", "Dee"} {
		category := "compliment"
		if i%2 == 1 {
			category = "Compliment"
		}
		f.seedFeedback(t, models.Feedback{AuthorName: name, Message: "great", Rating: 5, Category: category, CreatedAt: base.Add(time.Duration(i+1) * time.Hour)})
	}
	f.seedFeedback(t, models.Feedback{AuthorName: "Eve", Message: "good", Rating: 4, Category: "compliment", CreatedAt: base.Add(10 * time.Hour)})

	_, err := svc.AutomateFeatured(ctx, nutri)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	res, err := svc.AutomateFeatured(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Unfeatured)
	assert.Equal(t, 3, res.Featured)

	featured, err := svc.Featured(ctx)
	require.NoError(t, err)
	require.LessOrEqual(t, len(featured), models.MaxFeaturedFeedback)
	names := map[string]bool{}
	for _, fb := range featured {
		assert.Equal(t, 5, fb.Rating)
		assert.True(t, fb.IsCompliment())
		assert.False(t, names[fb.AuthorName], "one item per author")
		names[fb.AuthorName] = true
	}
	assert.Equal(t, map[string]bool{"Dee": true, "Cy": true, "Ben": true}, names)

	stale, err := f.repos.Feedback.Get(ctx, old.ID)
	require.NoError(t, err)
	assert.False(t, stale.DisplayOnMarketing)

	res, err = svc.AutomateFeatured(ctx, admin)
	require.NoError(t, err)
	assert.Zero(t, res.Featured+res.Unfeatured, "recompute is stable")
}

func TestSelectFeaturedFillsFromRepeatAuthors(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	all := []models.Feedback{
		{ID: "1", AuthorName: "Ana", Rating: 5, Category: "compliment", CreatedAt: base},
		{ID: "2", AuthorName: "ana", Rating: 5, Category: "compliment", CreatedAt: base.Add(time.Hour)},
		{ID: "3", AuthorName: "Ana", Rating: 5, Category: "COMPLIMENT", CreatedAt: base.Add(2 * time.Hour)},
		{ID: "4", AuthorName: "Bo", Rating: 4, Category: "compliment", CreatedAt: base.Add(3 * time.Hour)},
	}
	picked := SelectFeatured(all, 3)
	ids := []string{}
	for _, f := range picked {
		ids = append(ids, f.ID)
	}
	assert.Equal(t, []string{"3", "2", "1"}, ids)
	assert.Empty(t, SelectFeatured(nil, 3))
}

func TestSetFeaturedEnforcesCap(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewFeedbackService(f.repos)

	var ids []string
	for i := 0; i < 4; i++ {
		ids = append(ids, f.seedFeedback(t, models.Feedback{Message: "x", Rating: 5, Category: "compliment"}).ID)
	}
	for _, id := range ids[:3] {
		_, err := svc.SetFeatured(ctx, admin, id, true)
		require.NoError(t, err)
	}
	_, err := svc.SetFeatured(ctx, admin, ids[3], true)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = svc.SetFeatured(ctx, admin, ids[0], true)
	require.NoError(t, err, "already featured is a no-op")

	_, err = svc.SetFeatured(ctx, admin, ids[0], false)
	require.NoError(t, err)
	fb, err := svc.SetFeatured(ctx, admin, ids[3], true)
	require.NoError(t, err)
	assert.True(t, fb.DisplayOnMarketing)

	_, err = svc.SetFeatured(ctx, nutri, ids[3], false)
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestListFeedbackByCategory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewFeedbackService(f.repos)
	f.seedFeedback(t, models.Feedback{Message: "a", Rating: 5, Category: "Compliment"})
	f.seedFeedback(t, models.Feedback{Message: "b", Rating: 2, Category: "bug"})

	list, err := svc.List(ctx, admin, "compliment")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "a", list[0].Message)

	all, err := svc.List(ctx, admin, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
