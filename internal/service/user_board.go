package service

import (
	"context"

	"diabeater-console/internal/workset"
	"diabeater-console/pkg/models"
)

// UserBoard is an admin's working set of accounts. Suspend and Unsuspend
// patch the held account only after the account service succeeds.
type UserBoard struct {
	accounts *AccountService
	viewer   models.Principal
	users    *workset.Set[models.UserAccount]
}

func NewUserBoard(accounts *AccountService, viewer models.Principal) *UserBoard {
	return &UserBoard{
		accounts: accounts,
		viewer:   viewer,
		users: workset.New(
			func(u models.UserAccount) string { return u.ID },
			models.UserAccount.Clone,
		),
	}
}

func (b *UserBoard) Refresh(ctx context.Context) error {
	users, err := b.accounts.List(ctx, b.viewer, AccountFilter{})
	if err != nil {
		return err
	}
	b.users.Replace(users)
	return nil
}

// View filters the working set without any I/O.
func (b *UserBoard) View(f AccountFilter) []models.UserAccount {
	return FilterAccounts(b.users.Items(), f)
}

func (b *UserBoard) User(id string) (models.UserAccount, bool) {
	return b.users.Get(id)
}

// AccountCounts are the status badges of the account table.
type AccountCounts struct {
	Active   int `json:"activeCount"`
	Inactive int `json:"inactiveCount"`
	Total    int `json:"totalCount"`
}

// Counts is computed from the whole working set, ignoring any filter.
func (b *UserBoard) Counts() AccountCounts {
	var c AccountCounts
	for _, u := range b.users.Items() {
		c.Total++
		if u.Status == models.AccountInactive {
			c.Inactive++
		} else {
			c.Active++
		}
	}
	return c
}

func (b *UserBoard) Suspend(ctx context.Context, uid string) (*models.UserAccount, error) {
	return b.apply(ctx, uid, true)
}

func (b *UserBoard) Unsuspend(ctx context.Context, uid string) (*models.UserAccount, error) {
	return b.apply(ctx, uid, false)
}

func (b *UserBoard) apply(ctx context.Context, uid string, suspend bool) (*models.UserAccount, error) {
	var (
		user *models.UserAccount
		err  error
	)
	if suspend {
		user, err = b.accounts.Suspend(ctx, b.viewer, uid)
	} else {
		user, err = b.accounts.Unsuspend(ctx, b.viewer, uid)
	}
	if err != nil {
		return nil, err
	}
	b.users.Patch(uid, func(u *models.UserAccount) { u.Status = user.Status })
	return user, nil
}
