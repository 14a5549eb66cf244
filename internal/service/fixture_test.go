package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"diabeater-console/internal/blob/blobtest"
	"diabeater-console/internal/identity"
	"diabeater-console/internal/repository"
	"diabeater-console/internal/sse"
	"diabeater-console/internal/store"
	"diabeater-console/internal/store/storetest"
	"diabeater-console/pkg/apperror"
	"diabeater-console/pkg/models"
)

var (
	admin = models.Principal{UID: "admin-1", Name: "Grace Hopper", Role: models.RoleAdmin}
	nutri = models.Principal{UID: "nutri-1", Name: "Ada Lovelace", Role: models.RoleNutritionist}
)

type sentMail struct {
	To, Subject, Body string
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []sentMail
	fail bool
}

func (m *recordingMailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("smtp down")
	}
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

func (m *recordingMailer) Sent() []sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMail(nil), m.sent...)
}

// flakyIdentity fails SetDisabled on demand.
type flakyIdentity struct {
	*identity.Local
	failDisable bool
}

func (f *flakyIdentity) SetDisabled(ctx context.Context, uid string, disabled bool) error {
	if f.failDisable {
		return apperror.Transient("update user "+uid, errors.New("identity provider unavailable"))
	}
	return f.Local.SetDisabled(ctx, uid, disabled)
}

type fixture struct {
	store    *storetest.Recorder
	repos    *repository.Repositories
	blobs    *blobtest.Memory
	identity *flakyIdentity
	mailer   *recordingMailer
	broker   *sse.Broker
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	rec := storetest.NewRecorder(storetest.NewSQLite(t))
	return &fixture{
		store:    rec,
		repos:    repository.New(rec, store.UserAccounts),
		blobs:    blobtest.NewMemory(),
		identity: &flakyIdentity{Local: identity.NewLocal("test-secret", time.Hour)},
		mailer:   &recordingMailer{},
		broker:   sse.NewBroker(),
	}
}

func (f *fixture) seedUser(t *testing.T, u models.UserAccount) models.UserAccount {
	t.Helper()
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	if u.Status == "" {
		u.Status = models.AccountActive
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	require.NoError(t, f.repos.Users.Put(context.Background(), u))
	return u
}

func (f *fixture) seedFeedback(t *testing.T, fb models.Feedback) models.Feedback {
	t.Helper()
	if fb.CreatedAt.IsZero() {
		fb.CreatedAt = time.Now().UTC()
	}
	created, err := f.repos.Feedback.Create(context.Background(), fb)
	require.NoError(t, err)
	return *created
}
