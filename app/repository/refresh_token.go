package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/tripnest/ms-go-session/app/entity"
)

const refreshTokenColumns = `id, user_id, token_hash, expires_at, created_at, revoked, last_used_at`

// RefreshTokenRepository persists refresh token records. Lookups only ever go
// through the token hash; raw values are never stored.
type RefreshTokenRepository struct {
	db DBTX
}

func NewRefreshTokenRepository(db DBTX) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

func (r *RefreshTokenRepository) WithTx(tx *sql.Tx) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: tx}
}

func (r *RefreshTokenRepository) Create(ctx context.Context, token *entity.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (user_id, token_hash, expires_at, created_at, revoked, last_used_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query,
		token.UserID,
		token.TokenHash,
		token.ExpiresAt,
		token.CreatedAt,
		token.Revoked,
		token.LastUsedAt,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	token.ID = uint64(id)
	return nil
}

// FindActiveByHashForUpdate locks the matching non-revoked row for the
// duration of the surrounding transaction, so concurrent validations of the
// same token serialize on the record.
func (r *RefreshTokenRepository) FindActiveByHashForUpdate(ctx context.Context, tokenHash string) (*entity.RefreshToken, error) {
	query := `
		SELECT ` + refreshTokenColumns + `
		FROM refresh_tokens WHERE token_hash = ? AND revoked = FALSE FOR UPDATE
	`
	token := &entity.RefreshToken{}
	err := r.db.QueryRowContext(ctx, query, tokenHash).Scan(
		&token.ID,
		&token.UserID,
		&token.TokenHash,
		&token.ExpiresAt,
		&token.CreatedAt,
		&token.Revoked,
		&token.LastUsedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return token, nil
}

// Update persists the mutable columns only; token_hash, expires_at and
// created_at are immutable after creation.
func (r *RefreshTokenRepository) Update(ctx context.Context, token *entity.RefreshToken) error {
	query := `
		UPDATE refresh_tokens SET revoked = ?, last_used_at = ? WHERE id = ?
	`
	_, err := r.db.ExecContext(ctx, query, token.Revoked, token.LastUsedAt, token.ID)
	return err
}

func (r *RefreshTokenRepository) RevokeAllActiveByUserID(ctx context.Context, userID uint64) (int64, error) {
	query := `UPDATE refresh_tokens SET revoked = TRUE WHERE user_id = ? AND revoked = FALSE`
	result, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *RefreshTokenRepository) DeleteByUserID(ctx context.Context, userID uint64) error {
	query := `DELETE FROM refresh_tokens WHERE user_id = ?`
	_, err := r.db.ExecContext(ctx, query, userID)
	return err
}

func (r *RefreshTokenRepository) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM refresh_tokens WHERE expires_at < ?`
	result, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
