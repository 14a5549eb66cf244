package identity

import (
	"context"

	"firebase.google.com/go/v4/auth"
	"github.com/sirupsen/logrus"

	"diabeater-console/pkg/apperror"
	"diabeater-console/pkg/models"
	"diabeater-console/utils"
)

type Firebase struct {
	client *auth.Client
}

func NewFirebase(client *auth.Client) *Firebase {
	return &Firebase{client: client}
}

func (f *Firebase) Verify(ctx context.Context, token string) (models.Principal, error) {
	if token == "" {
		return models.Principal{}, apperror.Unauthorized("authorization required")
	}
	tok, err := f.client.VerifyIDToken(ctx, token)
	if err != nil {
		utils.Log.WithError(err).Debug("[AUTH] ID token rejected")
		return models.Principal{}, apperror.Unauthorized("invalid or expired token")
	}

	p := models.Principal{UID: tok.UID, Role: roleFromClaims(tok.Claims)}
	p.Email, _ = tok.Claims["email"].(string)
	p.Name, _ = tok.Claims["name"].(string)
	return p, nil
}

func (f *Firebase) SetRole(ctx context.Context, uid string, role models.Role) error {
	err := f.client.SetCustomUserClaims(ctx, uid, map[string]interface{}{RoleClaim: string(role)})
	return f.wrap("set role", uid, err)
}

func (f *Firebase) CreateLogin(ctx context.Context, uid, email, displayName string) error {
	params := (&auth.UserToCreate{}).
		UID(uid).
		Email(email).
		EmailVerified(false).
		Disabled(false)
	if displayName != "" {
		params = params.DisplayName(displayName)
	}

	_, err := f.client.CreateUser(ctx, params)
	if auth.IsUIDAlreadyExists(err) {
		utils.Log.WithField("uid", uid).Warn("⚠️ [AUTH] login already exists, reusing it")
		return nil
	}
	if auth.IsEmailAlreadyExists(err) {
		return apperror.Validation("a login already exists for %s", email)
	}
	return f.wrap("create login", uid, err)
}

func (f *Firebase) SetDisabled(ctx context.Context, uid string, disabled bool) error {
	_, err := f.client.UpdateUser(ctx, uid, (&auth.UserToUpdate{}).Disabled(disabled))
	if err == nil {
		utils.Log.WithFields(logrus.Fields{"uid": uid, "disabled": disabled}).Info("🔒 [AUTH] login state changed")
	}
	return f.wrap("update login", uid, err)
}

func (f *Firebase) PasswordSetupLink(ctx context.Context, email string) (string, error) {
	link, err := f.client.PasswordResetLink(ctx, email)
	if err != nil {
		return "", apperror.Transient("password link", err)
	}
	return link, nil
}

func (f *Firebase) wrap(op, uid string, err error) error {
	switch {
	case err == nil:
		return nil
	case auth.IsUserNotFound(err):
		return apperror.NotFound("login", uid)
	default:
		return apperror.Transient(op, err)
	}
}
