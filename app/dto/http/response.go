package http

import "time"

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Email       string `json:"email"`
	ExpiresIn   int64  `json:"expires_in"`
}

type RefreshResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

type SignupResponse struct {
	UserID  uint64 `json:"user_id"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type RestoreResponse struct {
	Message string `json:"message"`
	Email   string `json:"email"`
}

type UserResponse struct {
	ID           uint64     `json:"id"`
	Email        string     `json:"email"`
	Role         string     `json:"role"`
	SuperAdmin   bool       `json:"super_admin"`
	Deleted      bool       `json:"deleted"`
	DeletionDate *time.Time `json:"deletion_date,omitempty"`
	BirthDate    *time.Time `json:"birth_date,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

type AdminDashboardResponse struct {
	Users       []UserResponse `json:"users"`
	TotalPages  int            `json:"total_pages"`
	Page        int            `json:"page"`
	SearchEmail string         `json:"search_email"`
	Role        string         `json:"role"`
	Status      string         `json:"account_status"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
