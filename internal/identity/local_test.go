package identity

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"diabeater-console/pkg/apperror"
	"diabeater-console/pkg/models"
)

func TestLocalIssueAndVerify(t *testing.T) {
	ctx := context.Background()
	l := NewLocal("secret", time.Hour)

	tok, err := l.Issue(models.Principal{UID: "a1", Name: "Grace", Role: models.RoleAdmin})
	require.NoError(t, err)

	p, err := l.Verify(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, "a1", p.UID)
	assert.Equal(t, "Grace", p.Name)
	assert.True(t, p.IsAdmin())
}

func TestLocalVerifyRejectsBadTokens(t *testing.T) {
	ctx := context.Background()
	l := NewLocal("secret", time.Hour)

	_, err := l.Verify(ctx, "")
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	other := NewLocal("other-secret", time.Hour)
	tok, err := other.Issue(models.Principal{UID: "a1"})
	require.NoError(t, err)
	_, err = l.Verify(ctx, tok)
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "a1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}})
	signed, err := expired.SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = l.Verify(ctx, signed)
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}

func TestLocalDisableAndRoleOverride(t *testing.T) {
	ctx := context.Background()
	l := NewLocal("secret", time.Hour)
	tok, err := l.Issue(models.Principal{UID: "n1", Role: models.RolePendingNutritionist})
	require.NoError(t, err)

	require.NoError(t, l.SetRole(ctx, "n1", models.RoleNutritionist))
	p, err := l.Verify(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, models.RoleNutritionist, p.Role)

	require.NoError(t, l.SetDisabled(ctx, "n1", true))
	_, err = l.Verify(ctx, tok)
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	require.NoError(t, l.SetDisabled(ctx, "n1", false))
	_, err = l.Verify(ctx, tok)
	assert.NoError(t, err)
}

func TestLocalCreateLoginRejectsDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	l := NewLocal("secret", time.Hour)

	require.NoError(t, l.CreateLogin(ctx, "u1", "a@x.test", "A"))
	require.NoError(t, l.CreateLogin(ctx, "u1", "a@x.test", "A"))
	assert.ErrorIs(t, l.CreateLogin(ctx, "u2", "a@x.test", "B"), apperror.ErrValidation)
	assert.True(t, l.HasLogin("u1"))

	link, err := l.PasswordSetupLink(ctx, "a@x.test")
	require.NoError(t, err)
	assert.Contains(t, link, "email=a%40x.test")
}
