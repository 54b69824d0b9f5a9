// Package session translates raw refresh token values to and from the
// transport-level cookie.
package session

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// CookieName is the refresh token cookie.
const CookieName = "refresh_token"

const (
	loginPath   = "/auth"
	refreshPath = "/auth/refresh"
)

// Scope selects the cookie attributes of the issuing endpoint. The dual
// policy is intentional: the login-issued cookie must be readable by both
// the refresh and logout endpoints and must survive cross-origin SPA flows,
// so it gets the broad path and SameSite=None. Rotation narrows the
// replacement down to the refresh endpoint with SameSite=Strict.
type Scope int

const (
	ScopeLogin Scope = iota
	ScopeRefresh
)

func (s Scope) path() string {
	if s == ScopeRefresh {
		return refreshPath
	}
	return loginPath
}

func (s Scope) sameSite() http.SameSite {
	if s == ScopeRefresh {
		return http.SameSiteStrictMode
	}
	return http.SameSiteNoneMode
}

// Set writes the refresh cookie with the scope's attributes. Always Secure
// and HttpOnly; the raw token is never exposed to page scripts.
func Set(c echo.Context, scope Scope, token string, validity time.Duration) {
	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    token,
		MaxAge:   int(validity.Seconds()),
		Path:     scope.path(),
		Secure:   true,
		HttpOnly: true,
		SameSite: scope.sameSite(),
	})
}

// Clear expires the cookie at the scope's path with an empty value.
func Clear(c echo.Context, scope Scope) {
	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    "",
		MaxAge:   -1,
		Path:     scope.path(),
		Secure:   true,
		HttpOnly: true,
		SameSite: scope.sameSite(),
	})
}

// Read extracts the raw refresh token from the request, if present.
func Read(c echo.Context) (string, bool) {
	cookie, err := c.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}
