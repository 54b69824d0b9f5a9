package http

import "time"

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignupRequest struct {
	Email           string     `json:"email"`
	Password        string     `json:"password"`
	ConfirmPassword string     `json:"confirm_password"`
	BirthDate       *time.Time `json:"birth_date,omitempty"`
}

type RestoreRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type EditProfileRequest struct {
	CurrentPassword string `json:"current_password"`
	Email           string `json:"email,omitempty"`
	NewPassword     string `json:"new_password,omitempty"`
	Role            string `json:"role,omitempty"`
}

type SelfDeleteRequest struct {
	CurrentPassword string `json:"current_password"`
}

type AdminCreateRequest struct {
	Email     string     `json:"email"`
	Password  string     `json:"password"`
	Role      string     `json:"role"`
	BirthDate *time.Time `json:"birth_date,omitempty"`
}

type AdminEditRequest struct {
	UserID   uint64 `json:"user_id"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role,omitempty"`
	Password string `json:"password,omitempty"`
	Restore  bool   `json:"restore,omitempty"`
}

type AdminDeleteRequest struct {
	UserID uint64 `json:"user_id"`
}
