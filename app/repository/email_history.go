package repository

import (
	"context"
	"database/sql"

	"github.com/tripnest/ms-go-session/app/entity"
)

// EmailHistoryRepository keeps the append-only log of retired email
// addresses. Rows are only ever removed together with a hard user deletion.
type EmailHistoryRepository struct {
	db DBTX
}

func NewEmailHistoryRepository(db DBTX) *EmailHistoryRepository {
	return &EmailHistoryRepository{db: db}
}

func (r *EmailHistoryRepository) WithTx(tx *sql.Tx) *EmailHistoryRepository {
	return &EmailHistoryRepository{db: tx}
}

func (r *EmailHistoryRepository) Create(ctx context.Context, record *entity.EmailHistory) error {
	query := `
		INSERT INTO user_email_history (user_id, email, created_at)
		VALUES (?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query, record.UserID, record.Email, record.CreatedAt)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	record.ID = uint64(id)
	return nil
}

func (r *EmailHistoryRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM user_email_history WHERE email = ?)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, email).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *EmailHistoryRepository) DeleteByUserID(ctx context.Context, userID uint64) error {
	query := `DELETE FROM user_email_history WHERE user_id = ?`
	_, err := r.db.ExecContext(ctx, query, userID)
	return err
}
