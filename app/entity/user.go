package entity

import (
	"database/sql"
	"time"
)

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
	// RoleSuperAdmin is never stored in the role column. It is the effective
	// role synthesized for accounts carrying the super_admin flag.
	RoleSuperAdmin = "SUPER_ADMIN"
)

type User struct {
	ID           uint64
	Email        string
	PasswordHash string
	BirthDate    sql.NullTime
	Role         string
	SuperAdmin   bool
	Deleted      bool
	DeletionDate sql.NullTime
	CreatedAt    time.Time
}

// EffectiveRole resolves the two-field privilege model: the super_admin flag
// always wins, the stored role is otherwise authoritative.
func (u *User) EffectiveRole() string {
	if u.SuperAdmin {
		return RoleSuperAdmin
	}
	return u.Role
}

// RefreshToken is the stored form of an issued refresh token. The raw opaque
// value never touches the database; only its SHA-256 hash is kept.
type RefreshToken struct {
	ID         uint64
	UserID     uint64
	TokenHash  string
	ExpiresAt  time.Time
	CreatedAt  time.Time
	Revoked    bool
	LastUsedAt sql.NullTime
}

// Usable reports whether the record is acceptable for validation at the given
// instant.
func (t *RefreshToken) Usable(now time.Time) bool {
	return !t.Revoked && t.ExpiresAt.After(now)
}

// EmailHistory is an append-only log entry of a previously used email address.
// Retired addresses block re-registration until the owning user is hard
// deleted.
type EmailHistory struct {
	ID        uint64
	UserID    uint64
	Email     string
	CreatedAt time.Time
}
