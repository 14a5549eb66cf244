package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
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

type ApplicationInput struct {
	FirstName string `json:"firstName" validate:"required,max=60"`
	LastName  string `json:"lastName" validate:"required,max=60"`
	Email     string `json:"email" validate:"required,email"`
}

// notifier is the slice of NotifyService the application flow needs.
type notifier interface {
	Deliver(ctx context.Context, n models.Notification) (*models.Notification, error)
}

type ApplicationService struct {
	applications *repository.ApplicationRepository
	users        *repository.UserRepository
	identity     identity.Provider
	blobs        blob.Store
	mailer       email.Mailer
	notifier     notifier
	now          func() time.Time
}

func NewApplicationService(repos *repository.Repositories, idp identity.Provider, blobs blob.Store, mailer email.Mailer, n notifier) *ApplicationService {
	return &ApplicationService{
		applications: repos.Applications,
		users:        repos.Users,
		identity:     idp,
		blobs:        blobs,
		mailer:       mailer,
		notifier:     n,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Submit records a public nutritionist application: the certificate blob,
// the application record and a pending account sharing one generated id.
// Steps already written are undone when a later one fails.
func (s *ApplicationService) Submit(ctx context.Context, in ApplicationInput, certificate *blob.File) (*models.NutritionistApplication, error) {
	in.FirstName = plainText(in.FirstName)
	in.LastName = plainText(in.LastName)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validator.Struct(in); err != nil {
		return nil, err
	}
	if certificate.Empty() {
		return nil, apperror.Validation("a certificate file is required")
	}
	if ct := certificate.ContentType(); ct != "application/pdf" && !blob.IsImage(certificate.Name) {
		return nil, apperror.Validation("certificate must be a pdf or an image")
	}

	if err := s.ensureNewApplicant(ctx, in.Email); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	log := utils.Log.WithFields(logrus.Fields{"application": id})

	key := blob.NewKey(blob.NutritionistCertificates, id, certificate.Name)
	url, err := s.blobs.Upload(ctx, key, certificate.Content, certificate.ContentType())
	if err != nil {
		return nil, err
	}

	now := s.now()
	app := models.NutritionistApplication{
		ID:              id,
		FirstName:       in.FirstName,
		LastName:        in.LastName,
		Email:           in.Email,
		CertificateURL:  url,
		CertificatePath: key,
		Status:          models.ApplicationPending,
		AppliedDate:     now,
	}
	if err := s.applications.Put(ctx, app); err != nil {
		s.releaseBlob(ctx, key)
		return nil, err
	}

	account := models.UserAccount{
		ID:                id,
		FirstName:         in.FirstName,
		LastName:          in.LastName,
		Email:             in.Email,
		Role:              models.RolePendingNutritionist,
		Status:            models.AccountInactive,
		CreatedAt:         now,
		CertificateURL:    url,
		CertificatePath:   key,
		ApplicationStatus: models.ApplicationPending,
		AppliedDate:       &now,
	}
	if err := s.users.Put(ctx, account); err != nil {
		if delErr := s.applications.Delete(ctx, id); delErr != nil {
			log.WithError(delErr).Error("❌ [APPLICATION] orphaned application record")
		}
		s.releaseBlob(ctx, key)
		return nil, err
	}

	log.Info("📝 [APPLICATION] nutritionist application received")
	return &app, nil
}

func (s *ApplicationService) ensureNewApplicant(ctx context.Context, emailAddr string) error {
	existing, err := s.users.List(ctx, store.Eq("email", emailAddr))
	if err != nil {
		return err
	}
	for _, u := range existing {
		if u.Role == models.RolePendingNutritionist && u.ApplicationStatus == models.ApplicationRejected {
			continue
		}
		return apperror.Validation("an account or application already exists for %s", emailAddr)
	}
	return nil
}

func (s *ApplicationService) releaseBlob(ctx context.Context, key string) {
	if err := s.blobs.Delete(ctx, key); err != nil {
		utils.Log.WithError(err).WithField("key", key).Error("❌ [APPLICATION] orphaned certificate")
	}
}

// List returns applications, newest first. An empty status lists all.
func (s *ApplicationService) List(ctx context.Context, actor models.Principal, status models.ApplicationStatus) ([]models.NutritionistApplication, error) {
	if !actor.IsAdmin() {
		return nil, apperror.Forbidden("only admins can review applications")
	}
	list, err := s.applications.List(ctx, status)
	if err != nil {
		return nil, err
	}
	sortByAppliedDesc(list)
	return list, nil
}

func (s *ApplicationService) Get(ctx context.Context, actor models.Principal, id string) (*models.NutritionistApplication, error) {
	if !actor.IsAdmin() {
		return nil, apperror.Forbidden("only admins can review applications")
	}
	return s.applications.Get(ctx, id)
}

// Approve turns a pending applicant into a nutritionist: a login with the
// same id, the nutritionist role claim, an Active account and a
// password-setup email. A failed email after the writes is a partial failure.
func (s *ApplicationService) Approve(ctx context.Context, actor models.Principal, id string) (*models.NutritionistApplication, error) {
	app, account, err := s.pending(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	log := utils.Log.WithFields(logrus.Fields{"application": app.ID, "admin": actor.UID})

	if err := s.identity.CreateLogin(ctx, app.ID, app.Email, app.FullName()); err != nil {
		return nil, err
	}
	if err := s.identity.SetRole(ctx, app.ID, models.RoleNutritionist); err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, account.ID, models.Record{
		"role":              string(models.RoleNutritionist),
		"status":            string(models.AccountActive),
		"applicationStatus": string(models.ApplicationApproved),
	}); err != nil {
		return nil, err
	}
	if err := s.applications.Update(ctx, app.ID, models.Record{
		"status":    string(models.ApplicationApproved),
		"decidedBy": actor.UID,
	}); err != nil {
		return nil, err
	}
	app.Status = models.ApplicationApproved
	app.DecidedBy = actor.UID
	log.Info("✅ [APPLICATION] approved")

	s.notifyApplicant(ctx, app.ID, "Your nutritionist application has been approved. Welcome to DiaBeater!")

	if err := s.sendApproval(ctx, *app); err != nil {
		log.WithError(err).Warn("⚠️ [APPLICATION] approval email not sent")
		return app, apperror.Partial("application approved, but the setup email could not be sent", err)
	}
	return app, nil
}

func (s *ApplicationService) sendApproval(ctx context.Context, app models.NutritionistApplication) error {
	link, err := s.identity.PasswordSetupLink(ctx, app.Email)
	if err != nil {
		return err
	}
	body, err := templates.RenderApplicationApproved(templates.ApplicationApprovedData{Name: app.FirstName, SetupLink: link})
	if err != nil {
		return err
	}
	return s.mailer.Send(ctx, app.Email, "Your DiaBeater nutritionist application was approved", body)
}

// Reject records the verdict with its reason. No login is created.
func (s *ApplicationService) Reject(ctx context.Context, actor models.Principal, id, reason string) (*models.NutritionistApplication, error) {
	reason = plainText(reason)
	if !actor.IsAdmin() {
		return nil, apperror.Forbidden("only admins can review applications")
	}
	if reason == "" {
		return nil, apperror.Validation("a rejection reason is required")
	}
	app, account, err := s.pending(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	log := utils.Log.WithFields(logrus.Fields{"application": app.ID, "admin": actor.UID})

	if err := s.users.Update(ctx, account.ID, models.Record{
		"status":            string(models.AccountInactive),
		"applicationStatus": string(models.ApplicationRejected),
	}); err != nil {
		return nil, err
	}
	if err := s.applications.Update(ctx, app.ID, models.Record{
		"status":          string(models.ApplicationRejected),
		"rejectionReason": reason,
		"decidedBy":       actor.UID,
	}); err != nil {
		return nil, err
	}
	app.Status = models.ApplicationRejected
	app.RejectionReason = reason
	app.DecidedBy = actor.UID
	log.Info("🚫 [APPLICATION] rejected")

	body, err := templates.RenderApplicationRejected(templates.ApplicationRejectedData{Name: app.FirstName, Reason: reason})
	if err == nil {
		err = s.mailer.Send(ctx, app.Email, "Update on your DiaBeater nutritionist application", body)
	}
	if err != nil {
		log.WithError(err).Warn("⚠️ [APPLICATION] rejection email not sent")
		return app, apperror.Partial("application rejected, but the email could not be sent", err)
	}
	return app, nil
}

// pending loads an application that can still be decided, together with its
// pending_nutritionist account.
func (s *ApplicationService) pending(ctx context.Context, actor models.Principal, id string) (*models.NutritionistApplication, *models.UserAccount, error) {
	if !actor.IsAdmin() {
		return nil, nil, apperror.Forbidden("only admins can review applications")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil, apperror.Validation("application id is required")
	}
	app, err := s.applications.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if app.Status != models.ApplicationPending {
		return nil, nil, apperror.Validation("application %s is already %s", id, app.Status)
	}
	account, err := s.users.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if account.Role != models.RolePendingNutritionist {
		return nil, nil, apperror.Validation("account %s is not a pending nutritionist", id)
	}
	return app, account, nil
}

func (s *ApplicationService) notifyApplicant(ctx context.Context, uid, message string) {
	if s.notifier == nil {
		return
	}
	_, err := s.notifier.Deliver(ctx, models.Notification{
		RecipientID: uid,
		Type:        models.NotificationApplicationUpdate,
		Message:     message,
		Timestamp:   s.now(),
	})
	if err != nil {
		utils.Log.WithError(err).WithField("user", uid).Warn("⚠️ [APPLICATION] in-app notification not stored")
	}
}

func sortByAppliedDesc(list []models.NutritionistApplication) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].AppliedDate.After(list[j].AppliedDate)
	})
}
