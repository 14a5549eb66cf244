package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"diabeater-console/internal/blob"
	"diabeater-console/internal/store"
	"diabeater-console/pkg/apperror"
	"diabeater-console/pkg/models"
)

func TestSuspendAndUnsuspend(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedUser(t, models.UserAccount{ID: "user-1", FirstName: "Sam", LastName: "Reed", Email: "sam@example.com"})
	svc := NewAccountService(f.repos, f.identity, f.blobs, f.mailer)

	token, err := f.identity.Issue(models.Principal{UID: "user-1", Role: models.RoleUser})
	require.NoError(t, err)

	u, err := svc.Suspend(ctx, admin, "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.AccountInactive, u.Status)

	_, err = f.identity.Verify(ctx, token)
	assert.ErrorIs(t, err, apperror.ErrUnauthorized, "suspended login is refused")

	stored, err := f.repos.Users.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.AccountInactive, stored.Status)

	u, err = svc.Unsuspend(ctx, admin, "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.AccountActive, u.Status)
	_, err = f.identity.Verify(ctx, token)
	require.NoError(t, err)

	sent := f.mailer.Sent()
	require.Len(t, sent, 2)
	assert.Contains(t, sent[0].Subject, "suspended")
	assert.Contains(t, sent[1].Subject, "reactivated")
}

func TestSuspendFailureNamesUserAndKeepsState(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedUser(t, models.UserAccount{ID: "user-1", FirstName: "Sam", LastName: "Reed"})
	svc := NewAccountService(f.repos, f.identity, f.blobs, f.mailer)

	f.identity.failDisable = true
	_, err := svc.Suspend(ctx, admin, "user-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrTransient)
	assert.Contains(t, apperror.Message(err), "Failed to suspend Sam Reed")

	stored, err := f.repos.Users.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.AccountActive, stored.Status)
	assert.Empty(t, f.mailer.Sent())
}

func TestSuspendStatusWriteFailureRestoresLogin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedUser(t, models.UserAccount{ID: "user-1", FirstName: "Sam"})
	svc := NewAccountService(f.repos, f.identity, f.blobs, f.mailer)
	token, err := f.identity.Issue(models.Principal{UID: "user-1"})
	require.NoError(t, err)

	f.store.FailOn("update", store.UserAccounts)
	_, err = svc.Suspend(ctx, admin, "user-1")
	require.Error(t, err)
	assert.Contains(t, apperror.Message(err), "Sam")

	_, err = f.identity.Verify(ctx, token)
	assert.NoError(t, err, "login re-enabled after the failed write")
}

func TestSuspendGuards(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewAccountService(f.repos, f.identity, f.blobs, f.mailer)

	_, err := svc.Suspend(ctx, nutri, "user-1")
	assert.ErrorIs(t, err, apperror.ErrForbidden)
	_, err = svc.Suspend(ctx, admin, admin.UID)
	assert.ErrorIs(t, err, apperror.ErrValidation)
	_, err = svc.Suspend(ctx, admin, "ghost")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestUserBoardPatchesOnlyOnSuccess(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedUser(t, models.UserAccount{ID: "user-1", FirstName: "Sam"})
	f.seedUser(t, models.UserAccount{ID: "user-2", FirstName: "Kai", Role: models.RoleNutritionist})
	svc := NewAccountService(f.repos, f.identity, f.blobs, nil)

	board := NewUserBoard(svc, admin)
	require.NoError(t, board.Refresh(ctx))
	assert.Len(t, board.View(AccountFilter{}), 2)
	assert.Len(t, board.View(AccountFilter{Role: models.RoleNutritionist}), 1)

	f.store.Reset()
	_, err := board.Suspend(ctx, "user-1")
	require.NoError(t, err)
	held, ok := board.User("user-1")
	require.True(t, ok)
	assert.Equal(t, models.AccountInactive, held.Status)
	assert.Len(t, board.View(AccountFilter{Status: models.AccountInactive}), 1)
	assert.Equal(t, AccountCounts{Active: 1, Inactive: 1, Total: 2}, board.Counts())

	f.identity.failDisable = true
	_, err = board.Unsuspend(ctx, "user-1")
	require.Error(t, err)
	held, _ = board.User("user-1")
	assert.Equal(t, models.AccountInactive, held.Status)
	assert.Equal(t, 1, board.Counts().Inactive)
}

func TestAccountListFilters(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedUser(t, models.UserAccount{ID: "u1", FirstName: "Zed", Email: "zed@example.com"})
	f.seedUser(t, models.UserAccount{ID: "u2", FirstName: "Amy", Email: "amy@clinic.org", Role: models.RoleNutritionist})
	svc := NewAccountService(f.repos, f.identity, f.blobs, nil)

	all, err := svc.List(ctx, admin, AccountFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Amy", all[0].FirstName)

	found, err := svc.List(ctx, admin, AccountFilter{Search: "CLINIC"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "u2", found[0].ID)

	_, err = svc.List(ctx, nutri, AccountFilter{})
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestUpdateProfileReplacesImage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedUser(t, models.UserAccount{ID: nutri.UID, FirstName: "Ada", Role: models.RoleNutritionist})
	svc := NewAccountService(f.repos, f.identity, f.blobs, nil)

	first := "Augusta"
	u, err := svc.UpdateProfile(ctx, nutri, ProfileInput{FirstName: &first}, &blob.File{Name: "me.png", Content: []byte{1}})
	require.NoError(t, err)
	assert.Equal(t, "Augusta", u.FirstName)
	oldKey := u.ProfileImagePath
	assert.True(t, f.blobs.Has(oldKey))

	u, err = svc.UpdateProfile(ctx, nutri, ProfileInput{}, &blob.File{Name: "me2.jpg", Content: []byte{2}})
	require.NoError(t, err)
	assert.False(t, f.blobs.Has(oldKey))
	assert.True(t, f.blobs.Has(u.ProfileImagePath))

	stored, err := svc.Profile(ctx, nutri)
	require.NoError(t, err)
	assert.Equal(t, "Augusta", stored.FirstName)
	assert.Equal(t, u.ProfileImageURL, stored.ProfileImageURL)

	_, err = svc.UpdateProfile(ctx, nutri, ProfileInput{}, &blob.File{Name: "cv.pdf", Content: []byte{3}})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}
