package identity

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"

	"diabeater-console/pkg/apperror"
	"diabeater-console/pkg/models"
	"diabeater-console/utils"
)

// Claims is the HS256 token payload used by the local provider.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	Role  string `json:"role,omitempty"`
}

// Local verifies self-signed HS256 tokens. Role changes and disabled logins
// are kept in memory, which is enough for development and tests.
type Local struct {
	secret   []byte
	ttl      time.Duration
	linkBase string

	mu       sync.RWMutex
	roles    map[string]models.Role
	disabled map[string]bool
	logins   map[string]string // uid -> email
}

func NewLocal(secret string, ttl time.Duration) *Local {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Local{
		secret:   []byte(secret),
		ttl:      ttl,
		linkBase: "http://localhost:3000/setup-password",
		roles:    map[string]models.Role{},
		disabled: map[string]bool{},
		logins:   map[string]string{},
	}
}

// Issue signs a token for p.
func (l *Local) Issue(p models.Principal) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.UID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(l.ttl)),
		},
		Email: p.Email,
		Name:  p.Name,
		Role:  string(p.Role),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(l.secret)
}

func (l *Local) Verify(_ context.Context, token string) (models.Principal, error) {
	if token == "" {
		return models.Principal{}, apperror.Unauthorized("authorization required")
	}
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return l.secret, nil
	})
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return models.Principal{}, apperror.Unauthorized("invalid or expired token")
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.disabled[claims.Subject] {
		return models.Principal{}, apperror.Unauthorized("account is disabled")
	}

	p := models.Principal{
		UID:   claims.Subject,
		Email: claims.Email,
		Name:  claims.Name,
		Role:  roleFromClaims(map[string]interface{}{RoleClaim: claims.Role}),
	}
	if role, ok := l.roles[p.UID]; ok {
		p.Role = role
	}
	return p, nil
}

func (l *Local) SetRole(_ context.Context, uid string, role models.Role) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.roles[uid] = role
	return nil
}

func (l *Local) CreateLogin(_ context.Context, uid, email, _ string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for other, existing := range l.logins {
		if existing == email && other != uid {
			return apperror.Validation("a login already exists for %s", email)
		}
	}
	l.logins[uid] = email
	utils.Log.WithFields(logrus.Fields{"uid": uid}).Info("✅ [AUTH] local login created")
	return nil
}

func (l *Local) SetDisabled(_ context.Context, uid string, disabled bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if disabled {
		l.disabled[uid] = true
	} else {
		delete(l.disabled, uid)
	}
	return nil
}

func (l *Local) PasswordSetupLink(_ context.Context, email string) (string, error) {
	return l.linkBase + "?email=" + url.QueryEscape(email), nil
}

func (l *Local) HasLogin(uid string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.logins[uid]
	return ok
}
