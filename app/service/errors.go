package service

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid refresh token")
	ErrTokenExpired       = errors.New("refresh token expired")
	ErrAccessDenied       = errors.New("access denied")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email is already registered or in history")
	ErrAccountNotDeleted  = errors.New("account is not scheduled for deletion")
	ErrPasswordMismatch   = errors.New("current password is incorrect")
	// ErrSuperAdminImmutable guards the protection invariant: a super-admin
	// account cannot be modified or deleted through any service path,
	// including by itself.
	ErrSuperAdminImmutable = errors.New("super admin accounts cannot be modified")
	// ErrValidation wraps malformed-input failures; the detail message is
	// appended by the caller.
	ErrValidation = errors.New("validation failed")
)
