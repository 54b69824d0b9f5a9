package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tripnest/ms-go-session/app/entity"
	"github.com/tripnest/ms-go-session/app/middleware"

	"github.com/labstack/echo/v4"
)

func TestPolicy_Allowed(t *testing.T) {
	policy := middleware.DefaultPolicy()

	tests := []struct {
		name   string
		method string
		path   string
		role   string
		want   bool
	}{
		{"user reads own profile", http.MethodGet, "/user", entity.RoleUser, true},
		{"admin reads profile surface", http.MethodGet, "/user", entity.RoleAdmin, true},
		{"user edits own profile", http.MethodPost, "/user/edit", entity.RoleUser, true},
		{"user denied admin dashboard", http.MethodGet, "/admin", entity.RoleUser, false},
		{"admin reads dashboard", http.MethodGet, "/admin", entity.RoleAdmin, true},
		{"user denied admin subtree", http.MethodPost, "/admin/create", entity.RoleUser, false},
		{"admin creates users", http.MethodPost, "/admin/create", entity.RoleAdmin, true},
		{"super admin passes everything", http.MethodPost, "/admin/delete", entity.RoleSuperAdmin, true},
		{"unauthenticated denied everywhere", http.MethodGet, "/user", "", false},
		{"unmatched path needs only authentication", http.MethodGet, "/health", entity.RoleUser, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := policy.Allowed(tt.method, tt.path, tt.role); got != tt.want {
				t.Fatalf("Allowed(%s %s, %q) = %v, want %v", tt.method, tt.path, tt.role, got, tt.want)
			}
		})
	}
}

func enforce(t *testing.T, role string, method, path string) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)
	ctx.Set(middleware.ContextRoleKey, role)

	handler := middleware.DefaultPolicy().Enforce(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if err := handler(ctx); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return rec
}

func TestEnforce_UnauthenticatedGets401(t *testing.T) {
	rec := enforce(t, "", http.MethodGet, "/user")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
}

func TestEnforce_WrongRoleGets403(t *testing.T) {
	rec := enforce(t, entity.RoleUser, http.MethodGet, "/admin")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", rec.Code)
	}
}

func TestEnforce_AllowedRolePasses(t *testing.T) {
	rec := enforce(t, entity.RoleAdmin, http.MethodGet, "/admin")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
}
