package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/tripnest/ms-go-session/app/entity"
)

// Context keys populated by Authenticate.
const (
	ContextUserKey = "auth_user"
	ContextRoleKey = "auth_role"
)

// Paths that never require an access token: the session endpoints themselves
// plus account restore, which is reachable by a logged-out owner by design.
var exemptPaths = map[string]struct{}{
	"/auth/login":   {},
	"/auth/signup":  {},
	"/auth/refresh": {},
	"/auth/logout":  {},
	"/auth/restore": {},
}

type accessTokenVerifier interface {
	Verify(tokenString string) (string, error)
}

type principalLoader interface {
	GetActiveByEmail(ctx context.Context, email string) (*entity.User, error)
}

// Authenticator resolves the bearer access token on each request into a
// request-scoped identity. It never rejects by itself: absent or invalid
// credentials simply leave the request unauthenticated and let the policy
// layer decide.
type Authenticator struct {
	issuer accessTokenVerifier
	users  principalLoader
}

func NewAuthenticator(issuer accessTokenVerifier, users principalLoader) *Authenticator {
	return &Authenticator{issuer: issuer, users: users}
}

func (m *Authenticator) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()

		// Never gate preflight.
		if req.Method == http.MethodOptions {
			return next(c)
		}
		if _, ok := exemptPaths[req.URL.Path]; ok {
			return next(c)
		}

		authHeader := req.Header.Get("Authorization")
		if authHeader == "" {
			return next(c)
		}

		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			clearIdentity(c)
			return next(c)
		}

		email, err := m.issuer.Verify(parts[1])
		if err != nil {
			logrus.Debug("Access token verification failed")
			clearIdentity(c)
			return next(c)
		}

		user, err := m.users.GetActiveByEmail(req.Context(), email)
		if err != nil || user == nil {
			clearIdentity(c)
			return next(c)
		}

		c.Set(ContextUserKey, user)
		c.Set(ContextRoleKey, user.EffectiveRole())
		return next(c)
	}
}

func clearIdentity(c echo.Context) {
	c.Set(ContextUserKey, nil)
	c.Set(ContextRoleKey, "")
}

// CurrentUser returns the authenticated principal, if any.
func CurrentUser(c echo.Context) (*entity.User, bool) {
	user, ok := c.Get(ContextUserKey).(*entity.User)
	return user, ok && user != nil
}

// CurrentRole returns the effective role of the request, or "" when
// unauthenticated.
func CurrentRole(c echo.Context) string {
	role, _ := c.Get(ContextRoleKey).(string)
	return role
}
