package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"diabeater-console/internal/blob"
	"diabeater-console/internal/email"
	"diabeater-console/internal/email/templates"
	"diabeater-console/internal/identity"
	"diabeater-console/internal/repository"
	"diabeater-console/internal/store"
	"diabeater-console/pkg/apperror"
	"diabeater-console/pkg/models"
	"diabeater-console/pkg/validator"
	"diabeater-console/utils"
)

// AccountFilter narrows List. Zero values match everything.
type AccountFilter struct {
	Role   models.Role
	Status models.AccountStatus
	Search string
}

type ProfileInput struct {
	FirstName *string `json:"firstName" validate:"omitempty,max=60"`
	LastName  *string `json:"lastName" validate:"omitempty,max=60"`
}

type AccountService struct {
	users    *repository.UserRepository
	identity identity.Provider
	blobs    blob.Store
	mailer   email.Mailer
}

func NewAccountService(repos *repository.Repositories, idp identity.Provider, blobs blob.Store, mailer email.Mailer) *AccountService {
	return &AccountService{users: repos.Users, identity: idp, blobs: blobs, mailer: mailer}
}

// List returns user accounts matching f, sorted by display name.
func (s *AccountService) List(ctx context.Context, actor models.Principal, f AccountFilter) ([]models.UserAccount, error) {
	if !actor.IsAdmin() {
		return nil, apperror.Forbidden("only admins can list accounts")
	}
	var filters []store.Filter
	if f.Role != "" {
		filters = append(filters, store.Eq("role", string(f.Role)))
	}
	all, err := s.users.List(ctx, filters...)
	if err != nil {
		return nil, err
	}
	return FilterAccounts(all, f), nil
}

// FilterAccounts applies f in memory. Status and search are matched here
// because stored documents may lack the status field.
func FilterAccounts(all []models.UserAccount, f AccountFilter) []models.UserAccount {
	term := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]models.UserAccount, 0, len(all))
	for _, u := range all {
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		if f.Status != "" && u.Status != f.Status {
			continue
		}
		if term != "" && !strings.Contains(strings.ToLower(u.DisplayName()), term) &&
			!strings.Contains(strings.ToLower(u.Email), term) {
			continue
		}
		out = append(out, u)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].DisplayName()) < strings.ToLower(out[j].DisplayName())
	})
	return out
}

// Suspend disables the user's login, then records the account as Inactive.
// Any failure leaves the account as it was and names the user.
func (s *AccountService) Suspend(ctx context.Context, actor models.Principal, uid string) (*models.UserAccount, error) {
	return s.setSuspended(ctx, actor, uid, true)
}

// Unsuspend re-enables the login and records the account as Active.
func (s *AccountService) Unsuspend(ctx context.Context, actor models.Principal, uid string) (*models.UserAccount, error) {
	return s.setSuspended(ctx, actor, uid, false)
}

func (s *AccountService) setSuspended(ctx context.Context, actor models.Principal, uid string, suspend bool) (*models.UserAccount, error) {
	verb := "unsuspend"
	status := models.AccountActive
	if suspend {
		verb = "suspend"
		status = models.AccountInactive
	}
	if !actor.IsAdmin() {
		return nil, apperror.Forbidden("only admins can " + verb + " accounts")
	}
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return nil, apperror.Validation("user id is required")
	}
	if suspend && uid == actor.UID {
		return nil, apperror.Validation("you cannot suspend your own account")
	}

	user, err := s.users.Get(ctx, uid)
	if err != nil {
		return nil, err
	}
	name := user.DisplayName()
	log := utils.Log.WithFields(logrus.Fields{"user": uid, "admin": actor.UID, "action": verb})

	if err := s.identity.SetDisabled(ctx, uid, suspend); err != nil {
		log.WithError(err).Error("❌ [ACCOUNT] identity provider refused")
		return nil, namedFailure(err, verb, name)
	}
	if err := s.users.SetStatus(ctx, uid, status); err != nil {
		if undoErr := s.identity.SetDisabled(ctx, uid, !suspend); undoErr != nil {
			log.WithError(undoErr).Error("❌ [ACCOUNT] could not restore login state")
		}
		log.WithError(err).Error("❌ [ACCOUNT] status write failed")
		return nil, namedFailure(err, verb, name)
	}
	user.Status = status
	log.Infof("✅ [ACCOUNT] %s %sed", name, verb)

	s.sendStatusEmail(ctx, *user, suspend)
	return user, nil
}

func (s *AccountService) sendStatusEmail(ctx context.Context, user models.UserAccount, suspended bool) {
	if s.mailer == nil || user.Email == "" {
		return
	}
	body, err := templates.RenderAccountStatus(templates.AccountStatusData{Name: user.DisplayName(), Suspended: suspended})
	if err == nil {
		err = s.mailer.Send(ctx, user.Email, templates.AccountStatusSubject(suspended), body)
	}
	if err != nil {
		utils.Log.WithError(err).WithField("user", user.ID).Warn("⚠️ [ACCOUNT] status email not sent")
	}
}

// namedFailure keeps err's class while putting the user's name in the
// message shown to the admin.
func namedFailure(err error, verb, name string) error {
	return apperror.New(apperror.MapErrorToStatus(err), fmt.Sprintf("Failed to %s %s: %s", verb, name, apperror.Message(err)), err)
}

func (s *AccountService) Profile(ctx context.Context, p models.Principal) (*models.UserAccount, error) {
	return s.users.Get(ctx, p.UID)
}

// UpdateProfile edits the caller's names and, when image is non-empty,
// replaces the profile picture.
func (s *AccountService) UpdateProfile(ctx context.Context, p models.Principal, in ProfileInput, image *blob.File) (*models.UserAccount, error) {
	if in.FirstName != nil {
		v := plainText(*in.FirstName)
		in.FirstName = &v
	}
	if in.LastName != nil {
		v := plainText(*in.LastName)
		in.LastName = &v
	}
	if err := validator.Struct(in); err != nil {
		return nil, err
	}
	if !image.Empty() && !blob.IsImage(image.Name) {
		return nil, apperror.Validation("profile image must be a jpg, png, gif or webp file")
	}

	user, err := s.users.Get(ctx, p.UID)
	if err != nil {
		return nil, err
	}

	partial := models.Record{}
	if in.FirstName != nil {
		partial["firstName"] = *in.FirstName
		user.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		partial["lastName"] = *in.LastName
		user.LastName = *in.LastName
	}

	oldKey := user.ProfileImagePath
	var newKey string
	if !image.Empty() {
		newKey = blob.NewKey(blob.ProfileImages, user.ID, image.Name)
		url, err := s.blobs.Upload(ctx, newKey, image.Content, image.ContentType())
		if err != nil {
			return nil, err
		}
		partial["profileImageUrl"] = url
		partial["profileImagePath"] = newKey
		user.ProfileImageURL = url
		user.ProfileImagePath = newKey
	}
	if len(partial) == 0 {
		return user, nil
	}

	if err := s.users.Update(ctx, user.ID, partial); err != nil {
		if newKey != "" {
			if delErr := s.blobs.Delete(ctx, newKey); delErr != nil {
				utils.Log.WithError(delErr).WithField("key", newKey).Error("❌ [ACCOUNT] orphaned profile image")
			}
		}
		return nil, err
	}
	if newKey != "" && oldKey != "" {
		if err := s.blobs.Delete(ctx, oldKey); err != nil && !errors.Is(err, apperror.ErrNotFound) {
			utils.Log.WithError(err).WithField("key", oldKey).Warn("⚠️ [ACCOUNT] previous profile image not released")
		}
	}
	return user, nil
}
