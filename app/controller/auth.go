package controller

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	dto "github.com/tripnest/ms-go-session/app/dto/http"
	"github.com/tripnest/ms-go-session/app/service"
	"github.com/tripnest/ms-go-session/app/session"
	"github.com/tripnest/ms-go-session/config"
)

type AuthController struct {
	users  *service.UserService
	tokens *service.RefreshTokenService
	issuer *service.AccessTokenIssuer
	cfg    *config.Config
}

func NewAuthController(
	users *service.UserService,
	tokens *service.RefreshTokenService,
	issuer *service.AccessTokenIssuer,
	cfg *config.Config,
) *AuthController {
	return &AuthController{users: users, tokens: tokens, issuer: issuer, cfg: cfg}
}

func (c *AuthController) Login(ctx echo.Context) error {
	var req dto.LoginRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}
	if req.Email == "" || req.Password == "" {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "email and password are required"})
	}

	user, err := c.users.Authenticate(ctx.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "invalid email or password"})
		}
		logrus.WithError(err).Error("Login failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	accessToken, err := c.issuer.Issue(user.Email)
	if err != nil {
		logrus.WithError(err).Error("Access token minting failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	refreshToken, err := c.tokens.Issue(ctx.Request().Context(), user.ID, c.cfg.RefreshTokenDays)
	if err != nil {
		logrus.WithError(err).Error("Refresh token issuance failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	session.Set(ctx, session.ScopeLogin, refreshToken, c.cfg.RefreshTokenTTL())

	logrus.WithField("user_id", user.ID).Info("User logged in")
	return ctx.JSON(http.StatusOK, dto.LoginResponse{
		AccessToken: accessToken,
		Email:       user.Email,
		ExpiresIn:   int64(c.cfg.JWTAccessTokenTTL.Seconds()),
	})
}

func (c *AuthController) Signup(ctx echo.Context) error {
	var req dto.SignupRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}

	user, err := c.users.Signup(ctx.Request().Context(), service.SignupInput{
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		BirthDate:       req.BirthDate,
	})
	if err != nil {
		return domainError(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, dto.SignupResponse{
		UserID:  user.ID,
		Email:   user.Email,
		Message: "signup successful",
	})
}

// Refresh rotates the presented refresh token and mints a fresh access
// token. Any validation failure clears the cookie and yields 401: the client
// is expected to fall back to a full login, never to retry.
func (c *AuthController) Refresh(ctx echo.Context) error {
	raw, ok := session.Read(ctx)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "missing refresh token"})
	}

	userID, newRaw, err := c.tokens.Rotate(ctx.Request().Context(), raw, c.cfg.RefreshTokenDays)
	if err != nil {
		if errors.Is(err, service.ErrInvalidToken) || errors.Is(err, service.ErrTokenExpired) {
			session.Clear(ctx, session.ScopeRefresh)
			return ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: err.Error()})
		}
		logrus.WithError(err).Error("Refresh failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	user, err := c.users.GetByID(ctx.Request().Context(), userID)
	if err != nil || user == nil || user.Deleted {
		// The account vanished between rotation and lookup; treat the
		// presented token as invalid.
		session.Clear(ctx, session.ScopeRefresh)
		return ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "invalid refresh token"})
	}

	accessToken, err := c.issuer.Issue(user.Email)
	if err != nil {
		logrus.WithError(err).Error("Access token minting failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	session.Set(ctx, session.ScopeRefresh, newRaw, c.cfg.RefreshTokenTTL())

	return ctx.JSON(http.StatusOK, dto.RefreshResponse{
		AccessToken: accessToken,
		ExpiresIn:   int64(c.cfg.JWTAccessTokenTTL.Seconds()),
	})
}

// Logout always succeeds. If the cookie still maps to a live session, every
// session of that user is revoked; failures along the way are swallowed —
// the caller ends up logged out either way.
func (c *AuthController) Logout(ctx echo.Context) error {
	if raw, ok := session.Read(ctx); ok {
		record, err := c.tokens.Validate(ctx.Request().Context(), raw)
		if err != nil {
			logrus.WithError(err).Debug("Logout with unusable refresh token")
		} else {
			revoked, err := c.tokens.RevokeAllForUser(ctx.Request().Context(), record.UserID)
			if err != nil {
				logrus.WithError(err).Warn("Logout revocation failed")
			} else {
				logrus.WithFields(logrus.Fields{
					"user_id":        record.UserID,
					"revoked_tokens": revoked,
				}).Info("User logged out")
			}
		}
	}

	session.Clear(ctx, session.ScopeLogin)
	return ctx.JSON(http.StatusOK, dto.MessageResponse{Message: "logged out successfully"})
}

// Restore is intentionally unauthenticated: a logged-out owner reactivates a
// soft-deleted account with the password alone. All failures map to 400.
func (c *AuthController) Restore(ctx echo.Context) error {
	var req dto.RestoreRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}
	if req.Email == "" || req.Password == "" {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "email and password are required"})
	}

	user, err := c.users.Restore(ctx.Request().Context(), req.Email, req.Password)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	}

	return ctx.JSON(http.StatusOK, dto.RestoreResponse{
		Message: "account restored successfully",
		Email:   user.Email,
	})
}
