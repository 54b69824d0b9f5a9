package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tripnest/ms-go-session/app/entity"
	"github.com/tripnest/ms-go-session/app/repository"
)

// RefreshTokenService owns the refresh token lifecycle: issuance, validation,
// rotation-on-use and revocation. Every operation that reads and mutates a
// record runs inside a single transaction so concurrent presentations of the
// same token serialize on the row lock and at most one wins.
type RefreshTokenService struct {
	db        *sql.DB
	tokenRepo *repository.RefreshTokenRepository
}

func NewRefreshTokenService(db *sql.DB, tokenRepo *repository.RefreshTokenRepository) *RefreshTokenService {
	return &RefreshTokenService{db: db, tokenRepo: tokenRepo}
}

// Issue generates a new opaque refresh token for the user, persists its hash
// and returns the raw value. The raw value is handed to the caller once and
// never stored.
func (s *RefreshTokenService) Issue(ctx context.Context, userID uint64, daysValid int) (string, error) {
	return s.issueWithRepo(ctx, s.tokenRepo, userID, daysValid)
}

func (s *RefreshTokenService) issueWithRepo(ctx context.Context, repo *repository.RefreshTokenRepository, userID uint64, daysValid int) (string, error) {
	raw, err := generateOpaqueToken()
	if err != nil {
		return "", err
	}

	now := time.Now()
	record := &entity.RefreshToken{
		UserID:    userID,
		TokenHash: HashToken(raw),
		ExpiresAt: now.AddDate(0, 0, daysValid),
		CreatedAt: now,
		Revoked:   false,
	}
	if err := repo.Create(ctx, record); err != nil {
		return "", err
	}

	return raw, nil
}

// Validate checks a presented raw token against the stored hashes. An expired
// record is revoked as a side effect of the failed attempt; that revocation
// is committed even though validation fails. A valid record gets its
// last_used_at stamped and is returned still active.
func (s *RefreshTokenService) Validate(ctx context.Context, rawToken string) (*entity.RefreshToken, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	record, err := s.validateLocked(ctx, tx, rawToken)
	if err != nil {
		return nil, err
	}

	record.LastUsedAt = sql.NullTime{Time: time.Now(), Valid: true}
	if err := s.tokenRepo.WithTx(tx).Update(ctx, record); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return record, nil
}

// Rotate validates the presented token, revokes it and issues a replacement
// bound to the same user, all in one transaction. A refresh token is never
// reusable after its first successful use; a replayed rotated token fails
// with ErrInvalidToken for every holder.
func (s *RefreshTokenService) Rotate(ctx context.Context, rawToken string, daysValid int) (uint64, string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, "", err
	}
	defer tx.Rollback()

	record, err := s.validateLocked(ctx, tx, rawToken)
	if err != nil {
		return 0, "", err
	}

	repo := s.tokenRepo.WithTx(tx)
	record.Revoked = true
	record.LastUsedAt = sql.NullTime{Time: time.Now(), Valid: true}
	if err := repo.Update(ctx, record); err != nil {
		return 0, "", err
	}

	newRaw, err := s.issueWithRepo(ctx, repo, record.UserID, daysValid)
	if err != nil {
		return 0, "", err
	}

	if err := tx.Commit(); err != nil {
		return 0, "", err
	}

	logrus.WithField("user_id", record.UserID).Debug("Refresh token rotated")
	return record.UserID, newRaw, nil
}

// validateLocked looks up the active record under a row lock and enforces
// expiry. On an expired record the revocation is committed in its own
// transaction before the failure is returned, so the rolled-back outer tx
// cannot undo the fail-closed housekeeping.
func (s *RefreshTokenService) validateLocked(ctx context.Context, tx *sql.Tx, rawToken string) (*entity.RefreshToken, error) {
	repo := s.tokenRepo.WithTx(tx)

	record, err := repo.FindActiveByHashForUpdate(ctx, HashToken(rawToken))
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrInvalidToken
	}

	if !record.ExpiresAt.After(time.Now()) {
		record.Revoked = true
		if err := repo.Update(ctx, record); err != nil {
			return nil, err
		}
		if err := tx.Commit(); err != nil {
			return nil, err
		}
		return nil, ErrTokenExpired
	}

	return record, nil
}

// Revoke marks a record revoked. Idempotent: revoking an already-revoked
// record is a no-op that still succeeds.
func (s *RefreshTokenService) Revoke(ctx context.Context, record *entity.RefreshToken) error {
	record.Revoked = true
	return s.tokenRepo.Update(ctx, record)
}

// RevokeAllForUser bulk-revokes every active token of the user and returns
// how many were hit. Used on logout, password/email change and account
// deletion.
func (s *RefreshTokenService) RevokeAllForUser(ctx context.Context, userID uint64) (int64, error) {
	return s.tokenRepo.RevokeAllActiveByUserID(ctx, userID)
}

func (s *RefreshTokenService) DeleteAllForUser(ctx context.Context, userID uint64) error {
	return s.tokenRepo.DeleteByUserID(ctx, userID)
}

// generateOpaqueToken returns 64 bytes of CSPRNG output in URL-safe base64,
// well above the 256-bit entropy floor.
func generateOpaqueToken() (string, error) {
	buf := make([]byte, 64)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
