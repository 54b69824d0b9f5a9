package controller

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	dto "github.com/tripnest/ms-go-session/app/dto/http"
	"github.com/tripnest/ms-go-session/app/service"
)

// domainError maps a service error to its HTTP status. Unrecognized errors
// come back as 400 with the error's message.
func domainError(ctx echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrEmailTaken):
		return ctx.JSON(http.StatusConflict, dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrAccessDenied), errors.Is(err, service.ErrSuperAdminImmutable):
		return ctx.JSON(http.StatusForbidden, dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrUserNotFound):
		return ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrInvalidCredentials):
		return ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: err.Error()})
	default:
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	}
}
