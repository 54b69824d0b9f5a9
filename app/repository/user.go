package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/tripnest/ms-go-session/app/entity"
)

const userColumns = `id, email, password_hash, birth_date, role, super_admin, deleted, deletion_date, created_at`

type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) WithTx(tx *sql.Tx) *UserRepository {
	return &UserRepository{db: tx}
}

func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	query := `
		INSERT INTO users (email, password_hash, birth_date, role, super_admin, deleted, deletion_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query,
		user.Email,
		user.PasswordHash,
		user.BirthDate,
		user.Role,
		user.SuperAdmin,
		user.Deleted,
		user.DeletionDate,
		user.CreatedAt,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	user.ID = uint64(id)
	return nil
}

// FindByEmail returns the user owning the address regardless of the deleted
// flag. Restore needs to see soft-deleted rows.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users WHERE email = ?
	`
	return r.findOne(ctx, query, email)
}

// FindActiveByEmail excludes soft-deleted accounts. Authentication goes
// through this lookup so a deleted account can never obtain new tokens.
func (r *UserRepository) FindActiveByEmail(ctx context.Context, email string) (*entity.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users WHERE email = ? AND deleted = FALSE
	`
	return r.findOne(ctx, query, email)
}

func (r *UserRepository) FindByID(ctx context.Context, id uint64) (*entity.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users WHERE id = ?
	`
	return r.findOne(ctx, query, id)
}

func (r *UserRepository) Update(ctx context.Context, user *entity.User) error {
	query := `
		UPDATE users SET
			email = ?,
			password_hash = ?,
			birth_date = ?,
			role = ?,
			super_admin = ?,
			deleted = ?,
			deletion_date = ?
		WHERE id = ?
	`
	_, err := r.db.ExecContext(ctx, query,
		user.Email,
		user.PasswordHash,
		user.BirthDate,
		user.Role,
		user.SuperAdmin,
		user.Deleted,
		user.DeletionDate,
		user.ID,
	)
	return err
}

func (r *UserRepository) Delete(ctx context.Context, id uint64) error {
	query := `DELETE FROM users WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

// FindDeletedBefore lists soft-deleted users whose deletion date is older than
// the cutoff, for the retention purge.
func (r *UserRepository) FindDeletedBefore(ctx context.Context, cutoff time.Time) ([]*entity.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users WHERE deleted = TRUE AND deletion_date < ?
	`
	rows, err := r.db.QueryContext(ctx, query, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*entity.User
	for rows.Next() {
		user := &entity.User{}
		if err := scanUser(rows, user); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// Search filters users for the admin dashboard. Empty filters match
// everything; accountStatus is "active", "deleted" or empty.
func (r *UserRepository) Search(ctx context.Context, emailLike, role, accountStatus string, offset, limit int) ([]*entity.User, int, error) {
	where := []string{"1 = 1"}
	var args []any

	if emailLike != "" {
		where = append(where, "email LIKE ?")
		args = append(args, "%"+emailLike+"%")
	}
	if role != "" {
		where = append(where, "role = ?")
		args = append(args, role)
	}
	switch accountStatus {
	case "active":
		where = append(where, "deleted = FALSE")
	case "deleted":
		where = append(where, "deleted = TRUE")
	}

	clause := strings.Join(where, " AND ")

	var total int
	countQuery := `SELECT COUNT(*) FROM users WHERE ` + clause
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT ` + userColumns + `
		FROM users WHERE ` + clause + `
		ORDER BY id
		LIMIT ? OFFSET ?
	`
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var users []*entity.User
	for rows.Next() {
		user := &entity.User{}
		if err := scanUser(rows, user); err != nil {
			return nil, 0, err
		}
		users = append(users, user)
	}
	return users, total, rows.Err()
}

func (r *UserRepository) findOne(ctx context.Context, query string, arg any) (*entity.User, error) {
	user := &entity.User{}
	err := scanUser(r.db.QueryRowContext(ctx, query, arg), user)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner, user *entity.User) error {
	return row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.BirthDate,
		&user.Role,
		&user.SuperAdmin,
		&user.Deleted,
		&user.DeletionDate,
		&user.CreatedAt,
	)
}
