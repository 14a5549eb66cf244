package moderation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"diabeater-console/internal/blob"
	"diabeater-console/internal/blob/blobtest"
	"diabeater-console/internal/repository"
	"diabeater-console/internal/store"
	"diabeater-console/internal/store/storetest"
	"diabeater-console/pkg/models"
)

var (
	admin = models.Principal{UID: "admin-1", Name: "Grace Hopper", Role: models.RoleAdmin}
	nutri = models.Principal{UID: "nutri-1", Name: "Ada Lovelace", Role: models.RoleNutritionist}
	other = models.Principal{UID: "nutri-2", Name: "Alan Turing", Role: models.RoleNutritionist}
)

// storeNotifier writes notifications straight through the repository.
type storeNotifier struct {
	repo *repository.NotificationRepository
}

func (n *storeNotifier) Deliver(ctx context.Context, note models.Notification) (*models.Notification, error) {
	return n.repo.Create(ctx, note)
}

type fixture struct {
	store  *storetest.Recorder
	repos  *repository.Repositories
	blobs  *blobtest.Memory
	engine *Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	rec := storetest.NewRecorder(storetest.NewSQLite(t))
	repos := repository.New(rec, store.UserAccounts)
	blobs := blobtest.NewMemory()
	engine := NewEngine(repos.MealPlans, repos.Users, blobs, &storeNotifier{repo: repos.Notifications})
	return &fixture{store: rec, repos: repos, blobs: blobs, engine: engine}
}

func (f *fixture) seed(t *testing.T, p models.MealPlan) models.MealPlan {
	t.Helper()
	if p.AuthorID == "" {
		p.AuthorID = nutri.UID
		p.AuthorName = nutri.Name
	}
	if p.Status == "" {
		p.Status = models.StatusPendingApproval
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	created, err := f.repos.MealPlans.Create(context.Background(), p)
	require.NoError(t, err)
	return *created
}

func (f *fixture) plan(t *testing.T, id string) models.MealPlan {
	t.Helper()
	p, err := f.repos.MealPlans.Get(context.Background(), id)
	require.NoError(t, err)
	return *p
}

func (f *fixture) notificationsFor(t *testing.T, uid string) []models.Notification {
	t.Helper()
	list, err := f.repos.Notifications.ListForUser(context.Background(), uid, false)
	require.NoError(t, err)
	return list
}

func image(name string) *blob.File {
	return &blob.File{Name: name, Content: []byte{0xff, 0xd8, 0xff}}
}

func approved(name string, saves int64, categories ...string) models.MealPlan {
	return models.MealPlan{ID: name, Name: name, Status: models.StatusApproved, Saves: saves, Categories: categories, AuthorID: nutri.UID}
}
