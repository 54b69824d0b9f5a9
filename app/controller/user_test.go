package controller_test

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tripnest/ms-go-session/app/entity"
	"github.com/tripnest/ms-go-session/app/middleware"
	"github.com/tripnest/ms-go-session/app/session"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
)

const (
	countUsersQuery    = `(?s)SELECT COUNT\(\*\) FROM users WHERE `
	searchUsersQuery   = `(?s)SELECT id, email, password_hash, birth_date, role, super_admin, deleted, deletion_date, created_at\s+FROM users WHERE .*ORDER BY id\s+LIMIT \? OFFSET \?`
	deleteHistoryQuery = `(?s)DELETE FROM user_email_history WHERE user_id = \?`
	deleteTokensQuery  = `(?s)DELETE FROM refresh_tokens WHERE user_id = \?`
	deleteUserQuery    = `(?s)DELETE FROM users WHERE id = \?`
)

func authedContext(e *echo.Echo, req *http.Request, rec *httptest.ResponseRecorder, caller *entity.User) echo.Context {
	ctx := e.NewContext(req, rec)
	ctx.Set(middleware.ContextUserKey, caller)
	ctx.Set(middleware.ContextRoleKey, caller.EffectiveRole())
	return ctx
}

func TestProfile_ReturnsCaller(t *testing.T) {
	f := newFixture(t)
	defer f.cleanup()

	caller := &entity.User{ID: 1, Email: "user@example.com", Role: entity.RoleUser}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/user", nil)
	rec := httptest.NewRecorder()

	if err := f.user.Profile(authedContext(e, req, rec, caller)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var resp struct {
		ID    uint64 `json:"id"`
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if resp.ID != 1 || resp.Email != "user@example.com" || resp.Role != entity.RoleUser {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestProfile_Unauthenticated(t *testing.T) {
	f := newFixture(t)
	defer f.cleanup()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/user", nil)
	rec := httptest.NewRecorder()

	if err := f.user.Profile(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
}

func TestEditProfile_RequiresCurrentPassword(t *testing.T) {
	f := newFixture(t)
	defer f.cleanup()

	caller := &entity.User{ID: 1, Email: "user@example.com", Role: entity.RoleUser}

	e := echo.New()
	req := jsonRequest(http.MethodPost, "/user/edit", `{"email":"new@example.com"}`)
	rec := httptest.NewRecorder()

	if err := f.user.EditProfile(authedContext(e, req, rec, caller)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestEditProfile_SuperAdminGets403(t *testing.T) {
	f := newFixture(t)
	defer f.cleanup()

	caller := &entity.User{ID: 1, Email: "root@example.com", Role: entity.RoleAdmin, SuperAdmin: true}

	e := echo.New()
	req := jsonRequest(http.MethodPost, "/user/edit", `{"current_password":"secret1","email":"new@example.com"}`)
	rec := httptest.NewRecorder()

	if err := f.user.EditProfile(authedContext(e, req, rec, caller)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", rec.Code)
	}
}

func TestSelfDelete_SoftDeletesAndClearsCookie(t *testing.T) {
	f := newFixture(t)
	defer f.cleanup()

	caller := &entity.User{
		ID:           5,
		Email:        "user@example.com",
		PasswordHash: mustHash(t, "secret1"),
		Role:         entity.RoleUser,
	}

	f.mock.ExpectQuery(findUserByIDQuery).
		WithArgs(uint64(5)).
		WillReturnRows(userRow(5, "user@example.com", caller.PasswordHash, entity.RoleUser, false, false))
	f.mock.ExpectBegin()
	f.mock.ExpectExec(updateUserQuery).
		WithArgs("user@example.com", caller.PasswordHash, sqlmock.AnyArg(), entity.RoleUser, false, true, sqlmock.AnyArg(), uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectExec(revokeAllActiveQuery).
		WithArgs(uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectCommit()

	e := echo.New()
	req := jsonRequest(http.MethodPost, "/user/delete", `{"current_password":"secret1"}`)
	rec := httptest.NewRecorder()

	if err := f.user.SelfDelete(authedContext(e, req, rec, caller)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	cookie := findCookie(t, rec, session.CookieName)
	if cookie.Value != "" || cookie.MaxAge != -1 {
		t.Fatalf("expected cleared cookie, got %+v", cookie)
	}

	if err := f.mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAdminDashboard_PagesResults(t *testing.T) {
	f := newFixture(t)
	defer f.cleanup()

	caller := &entity.User{ID: 1, Email: "admin@example.com", Role: entity.RoleAdmin}

	f.mock.ExpectQuery(countUsersQuery).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(23))
	f.mock.ExpectQuery(searchUsersQuery).
		WithArgs(10, 10).
		WillReturnRows(userRow(11, "user@example.com", "hash", entity.RoleUser, false, false))

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/admin?page=1", nil)
	rec := httptest.NewRecorder()

	if err := f.user.AdminDashboard(authedContext(e, req, rec, caller)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Users      []json.RawMessage `json:"users"`
		TotalPages int               `json:"total_pages"`
		Page       int               `json:"page"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if resp.TotalPages != 3 || resp.Page != 1 || len(resp.Users) != 1 {
		t.Fatalf("unexpected response: %+v", resp)
	}

	if err := f.mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAdminCreate_Creates201(t *testing.T) {
	f := newFixture(t)
	defer f.cleanup()

	f.mock.ExpectQuery(findByEmailQuery).
		WithArgs("staff@example.com").
		WillReturnError(sql.ErrNoRows)
	f.mock.ExpectQuery(existsByEmailQuery).
		WithArgs("staff@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	f.mock.ExpectExec(insertUserQuery).
		WithArgs("staff@example.com", sqlmock.AnyArg(), sqlmock.AnyArg(), entity.RoleAdmin, false, false, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(6, 1))

	e := echo.New()
	req := jsonRequest(http.MethodPost, "/admin/create", `{"email":"staff@example.com","password":"secret1","role":"ADMIN"}`)
	rec := httptest.NewRecorder()

	if err := f.user.AdminCreate(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	if err := f.mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAdminEdit_RequiresUserID(t *testing.T) {
	f := newFixture(t)
	defer f.cleanup()

	caller := &entity.User{ID: 1, Email: "admin@example.com", Role: entity.RoleAdmin}

	e := echo.New()
	req := jsonRequest(http.MethodPost, "/admin/edit", `{"email":"new@example.com"}`)
	rec := httptest.NewRecorder()

	if err := f.user.AdminEdit(authedContext(e, req, rec, caller)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestAdminEdit_SuperAdminTargetGets403(t *testing.T) {
	f := newFixture(t)
	defer f.cleanup()

	caller := &entity.User{ID: 1, Email: "root@example.com", Role: entity.RoleAdmin, SuperAdmin: true}

	f.mock.ExpectQuery(findUserByIDQuery).
		WithArgs(uint64(9)).
		WillReturnRows(userRow(9, "other-root@example.com", "hash", entity.RoleAdmin, true, false))

	e := echo.New()
	req := jsonRequest(http.MethodPost, "/admin/edit", `{"user_id":9,"email":"new@example.com"}`)
	rec := httptest.NewRecorder()

	if err := f.user.AdminEdit(authedContext(e, req, rec, caller)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", rec.Code)
	}
}

func TestAdminDelete_SuperAdminHardDeletes(t *testing.T) {
	f := newFixture(t)
	defer f.cleanup()

	caller := &entity.User{ID: 1, Email: "root@example.com", Role: entity.RoleAdmin, SuperAdmin: true}

	f.mock.ExpectQuery(findUserByIDQuery).
		WithArgs(uint64(5)).
		WillReturnRows(userRow(5, "user@example.com", "hash", entity.RoleUser, false, false))
	f.mock.ExpectBegin()
	f.mock.ExpectExec(deleteHistoryQuery).
		WithArgs(uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectExec(deleteTokensQuery).
		WithArgs(uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectExec(deleteUserQuery).
		WithArgs(uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectCommit()

	e := echo.New()
	req := jsonRequest(http.MethodPost, "/admin/delete", `{"user_id":5}`)
	rec := httptest.NewRecorder()

	if err := f.user.AdminDelete(authedContext(e, req, rec, caller)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	if err := f.mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAdminDelete_NotFoundGets404(t *testing.T) {
	f := newFixture(t)
	defer f.cleanup()

	caller := &entity.User{ID: 1, Email: "root@example.com", Role: entity.RoleAdmin, SuperAdmin: true}

	f.mock.ExpectQuery(findUserByIDQuery).
		WithArgs(uint64(99)).
		WillReturnError(sql.ErrNoRows)

	e := echo.New()
	req := jsonRequest(http.MethodPost, "/admin/delete", `{"user_id":99}`)
	rec := httptest.NewRecorder()

	if err := f.user.AdminDelete(authedContext(e, req, rec, caller)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}
