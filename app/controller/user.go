package controller

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	dto "github.com/tripnest/ms-go-session/app/dto/http"
	"github.com/tripnest/ms-go-session/app/entity"
	"github.com/tripnest/ms-go-session/app/middleware"
	"github.com/tripnest/ms-go-session/app/service"
	"github.com/tripnest/ms-go-session/app/session"
)

type UserController struct {
	users *service.UserService
}

func NewUserController(users *service.UserService) *UserController {
	return &UserController{users: users}
}

func (c *UserController) Profile(ctx echo.Context) error {
	caller, ok := middleware.CurrentUser(ctx)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "unauthorized"})
	}
	return ctx.JSON(http.StatusOK, toUserResponse(caller))
}

func (c *UserController) EditProfile(ctx echo.Context) error {
	caller, ok := middleware.CurrentUser(ctx)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "unauthorized"})
	}

	var req dto.EditProfileRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}
	if req.CurrentPassword == "" {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "current_password is required"})
	}

	err := c.users.UpdateProfile(ctx.Request().Context(), caller, service.EditProfileInput{
		CurrentPassword: req.CurrentPassword,
		Email:           req.Email,
		NewPassword:     req.NewPassword,
		Role:            req.Role,
	})
	if err != nil {
		return domainError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, dto.MessageResponse{Message: "profile updated successfully"})
}

// SelfDelete soft-deletes the caller's account. Sessions die with it, so the
// refresh cookie is cleared too.
func (c *UserController) SelfDelete(ctx echo.Context) error {
	caller, ok := middleware.CurrentUser(ctx)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "unauthorized"})
	}

	var req dto.SelfDeleteRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}

	if err := c.users.SelfDelete(ctx.Request().Context(), caller, req.CurrentPassword); err != nil {
		return domainError(ctx, err)
	}

	session.Clear(ctx, session.ScopeLogin)
	return ctx.JSON(http.StatusOK, dto.MessageResponse{Message: "account deleted successfully"})
}

func (c *UserController) AdminDashboard(ctx echo.Context) error {
	page, _ := strconv.Atoi(ctx.QueryParam("page"))
	searchEmail := ctx.QueryParam("searchEmail")
	role := ctx.QueryParam("role")
	status := ctx.QueryParam("accountStatus")

	const pageSize = 10
	users, total, err := c.users.Search(ctx.Request().Context(), searchEmail, role, status, page, pageSize)
	if err != nil {
		logrus.WithError(err).Error("Admin dashboard query failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	responses := make([]dto.UserResponse, 0, len(users))
	for _, user := range users {
		responses = append(responses, toUserResponse(user))
	}

	totalPages := (total + pageSize - 1) / pageSize
	return ctx.JSON(http.StatusOK, dto.AdminDashboardResponse{
		Users:       responses,
		TotalPages:  totalPages,
		Page:        page,
		SearchEmail: searchEmail,
		Role:        role,
		Status:      status,
	})
}

func (c *UserController) AdminCreate(ctx echo.Context) error {
	var req dto.AdminCreateRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}

	user, err := c.users.AdminCreate(ctx.Request().Context(), service.AdminCreateInput{
		Email:     req.Email,
		Password:  req.Password,
		Role:      req.Role,
		BirthDate: req.BirthDate,
	})
	if err != nil {
		return domainError(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, dto.SignupResponse{
		UserID:  user.ID,
		Email:   user.Email,
		Message: "user created successfully",
	})
}

func (c *UserController) AdminEdit(ctx echo.Context) error {
	caller, ok := middleware.CurrentUser(ctx)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "unauthorized"})
	}

	var req dto.AdminEditRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}
	if req.UserID == 0 {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "user_id is required"})
	}

	err := c.users.AdminEdit(ctx.Request().Context(), caller, req.UserID, service.AdminEditInput{
		Email:    req.Email,
		Role:     req.Role,
		Password: req.Password,
		Restore:  req.Restore,
	})
	if err != nil {
		return domainError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, dto.MessageResponse{Message: "user updated successfully"})
}

// AdminDelete hard-deletes when the caller is a super-admin, otherwise it
// degrades to a self-service soft delete.
func (c *UserController) AdminDelete(ctx echo.Context) error {
	caller, ok := middleware.CurrentUser(ctx)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "unauthorized"})
	}

	var req dto.AdminDeleteRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}
	if req.UserID == 0 {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "user_id is required"})
	}

	if err := c.users.DeleteUser(ctx.Request().Context(), caller, req.UserID); err != nil {
		return domainError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, dto.MessageResponse{Message: "user deleted successfully"})
}

func toUserResponse(user *entity.User) dto.UserResponse {
	resp := dto.UserResponse{
		ID:         user.ID,
		Email:      user.Email,
		Role:       user.Role,
		SuperAdmin: user.SuperAdmin,
		Deleted:    user.Deleted,
		CreatedAt:  user.CreatedAt,
	}
	if user.DeletionDate.Valid {
		t := user.DeletionDate.Time
		resp.DeletionDate = &t
	}
	if user.BirthDate.Valid {
		t := user.BirthDate.Time
		resp.BirthDate = &t
	}
	return resp
}
