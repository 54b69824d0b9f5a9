package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/tripnest/ms-go-session/app/entity"
)

// PolicyRule binds one (method, path pattern) pair to the roles allowed to
// call it. A pattern either matches exactly or, with a "/*" suffix, matches
// the whole subtree.
type PolicyRule struct {
	Method  string
	Pattern string
	Roles   []string
}

// Policy is the explicit authorization table evaluated by a single check
// function, replacing scattered per-handler rules. First match wins; a path
// with no matching rule requires authentication but no particular role.
type Policy struct {
	rules []PolicyRule
}

func NewPolicy(rules []PolicyRule) *Policy {
	return &Policy{rules: rules}
}

// DefaultPolicy is the role table for the user and admin surfaces.
func DefaultPolicy() *Policy {
	return NewPolicy([]PolicyRule{
		{Method: http.MethodGet, Pattern: "/user", Roles: []string{entity.RoleUser, entity.RoleAdmin}},
		{Method: http.MethodPost, Pattern: "/user/*", Roles: []string{entity.RoleUser, entity.RoleAdmin}},
		{Method: http.MethodGet, Pattern: "/admin", Roles: []string{entity.RoleAdmin}},
		{Method: http.MethodPost, Pattern: "/admin/*", Roles: []string{entity.RoleAdmin}},
	})
}

// Allowed reports whether the role may call method+path. The super-admin
// effective role passes every rule.
func (p *Policy) Allowed(method, path, role string) bool {
	if role == "" {
		return false
	}
	if role == entity.RoleSuperAdmin {
		return true
	}

	for _, rule := range p.rules {
		if rule.Method != method || !matchPattern(rule.Pattern, path) {
			continue
		}
		for _, allowed := range rule.Roles {
			if allowed == role {
				return true
			}
		}
		return false
	}

	// No rule: any authenticated caller.
	return true
}

// Enforce rejects unauthenticated requests with 401 and authenticated but
// unauthorized ones with 403.
func (p *Policy) Enforce(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		role := CurrentRole(c)
		if role == "" {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		}
		if !p.Allowed(c.Request().Method, c.Request().URL.Path, role) {
			return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
		}
		return next(c)
	}
}

func matchPattern(pattern, path string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "/*"); ok {
		return path == prefix || strings.HasPrefix(path, prefix+"/")
	}
	return pattern == path
}
