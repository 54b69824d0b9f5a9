package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/tripnest/ms-go-session/app/entity"
	"github.com/tripnest/ms-go-session/app/repository"
)

const minPasswordLength = 6

type SignupInput struct {
	Email           string
	Password        string
	ConfirmPassword string
	BirthDate       *time.Time
}

type EditProfileInput struct {
	CurrentPassword string
	Email           string
	NewPassword     string
	Role            string
}

type AdminEditInput struct {
	Email    string
	Role     string
	Password string
	Restore  bool
}

type AdminCreateInput struct {
	Email     string
	Password  string
	Role      string
	BirthDate *time.Time
}

// UserService is the account lifecycle: signup, authentication, profile and
// admin mutation, soft delete / restore, hard delete, and the retention
// purge. Token invalidation on destructive paths goes through the refresh
// token store inside the same transaction as the account mutation.
type UserService struct {
	db          *sql.DB
	userRepo    *repository.UserRepository
	historyRepo *repository.EmailHistoryRepository
	tokenRepo   *repository.RefreshTokenRepository
}

func NewUserService(
	db *sql.DB,
	userRepo *repository.UserRepository,
	historyRepo *repository.EmailHistoryRepository,
	tokenRepo *repository.RefreshTokenRepository,
) *UserService {
	return &UserService{
		db:          db,
		userRepo:    userRepo,
		historyRepo: historyRepo,
		tokenRepo:   tokenRepo,
	}
}

// Signup creates a regular account. The address must be unused by current
// users and absent from the email history of every account.
func (s *UserService) Signup(ctx context.Context, input SignupInput) (*entity.User, error) {
	email := NormalizeEmail(input.Email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrValidation)
	}
	if !validEmail(email) {
		return nil, fmt.Errorf("%w: please enter a valid email", ErrValidation)
	}
	if len(input.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLength)
	}
	if input.Password != input.ConfirmPassword {
		return nil, fmt.Errorf("%w: passwords do not match", ErrValidation)
	}

	if err := s.checkEmailAvailable(ctx, email); err != nil {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		Email:        email,
		PasswordHash: string(hashed),
		Role:         entity.RoleUser,
		SuperAdmin:   false,
		Deleted:      false,
		CreatedAt:    time.Now(),
	}
	if input.BirthDate != nil {
		user.BirthDate = sql.NullTime{Time: *input.BirthDate, Valid: true}
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{"user_id": user.ID, "email": user.Email}).Info("User signed up")
	return user, nil
}

// Authenticate resolves credentials to an account. Soft-deleted accounts are
// excluded from the lookup, so they fail exactly like a wrong password.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*entity.User, error) {
	user, err := s.userRepo.FindActiveByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id uint64) (*entity.User, error) {
	return s.userRepo.FindByID(ctx, id)
}

func (s *UserService) GetActiveByEmail(ctx context.Context, email string) (*entity.User, error) {
	return s.userRepo.FindActiveByEmail(ctx, NormalizeEmail(email))
}

// UpdateProfile applies a self-service edit. The caller must re-present their
// current password. Role changes are reserved for super-admin callers, and a
// super-admin account rejects every mutation, including its own.
func (s *UserService) UpdateProfile(ctx context.Context, caller *entity.User, input EditProfileInput) error {
	if caller.SuperAdmin {
		return ErrSuperAdminImmutable
	}

	if err := bcrypt.CompareHashAndPassword([]byte(caller.PasswordHash), []byte(input.CurrentPassword)); err != nil {
		return ErrPasswordMismatch
	}

	if input.Role != "" && input.Role != caller.Role {
		return fmt.Errorf("%w: only a super admin may change roles", ErrAccessDenied)
	}

	return s.applyEdit(ctx, caller, input.Email, "", input.NewPassword)
}

// AdminEdit mutates another account on behalf of an admin caller. Role and
// password changes require super-admin authority; super-admin targets are
// untouchable.
func (s *UserService) AdminEdit(ctx context.Context, caller *entity.User, targetID uint64, input AdminEditInput) error {
	target, err := s.userRepo.FindByID(ctx, targetID)
	if err != nil {
		return err
	}
	if target == nil {
		return ErrUserNotFound
	}
	if target.SuperAdmin {
		return ErrSuperAdminImmutable
	}

	if input.Role != "" && input.Role != target.Role && !caller.SuperAdmin {
		return fmt.Errorf("%w: only a super admin may change roles", ErrAccessDenied)
	}
	if input.Password != "" && caller.ID != target.ID && !caller.SuperAdmin {
		return fmt.Errorf("%w: only a super admin may set another user's password", ErrAccessDenied)
	}

	if input.Restore && target.Deleted {
		target.Deleted = false
		target.DeletionDate = sql.NullTime{}
	}

	return s.applyEdit(ctx, target, input.Email, input.Role, input.Password)
}

// applyEdit writes an email/role/password change to the target in one
// transaction. An email change appends the retired address to the history
// log; email and password changes revoke every live session of the target.
func (s *UserService) applyEdit(ctx context.Context, target *entity.User, newEmail, newRole, newPassword string) error {
	newEmail = NormalizeEmail(newEmail)
	emailChanged := newEmail != "" && newEmail != target.Email
	passwordChanged := newPassword != ""

	if emailChanged {
		if !validEmail(newEmail) {
			return fmt.Errorf("%w: please enter a valid email", ErrValidation)
		}
		if err := s.checkEmailAvailable(ctx, newEmail); err != nil {
			return err
		}
	}
	if passwordChanged && len(newPassword) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLength)
	}
	if newRole != "" && newRole != entity.RoleUser && newRole != entity.RoleAdmin {
		return fmt.Errorf("%w: unknown role %q", ErrValidation, newRole)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	txUsers := s.userRepo.WithTx(tx)
	txHistory := s.historyRepo.WithTx(tx)
	txTokens := s.tokenRepo.WithTx(tx)

	if emailChanged {
		history := &entity.EmailHistory{
			UserID:    target.ID,
			Email:     target.Email,
			CreatedAt: time.Now(),
		}
		if err := txHistory.Create(ctx, history); err != nil {
			return err
		}
		target.Email = newEmail
	}
	if newRole != "" {
		target.Role = newRole
	}
	if passwordChanged {
		hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		target.PasswordHash = string(hashed)
	}

	if err := txUsers.Update(ctx, target); err != nil {
		return err
	}

	if emailChanged || passwordChanged {
		if _, err := txTokens.RevokeAllActiveByUserID(ctx, target.ID); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	logrus.WithField("user_id", target.ID).Info("User profile updated")
	return nil
}

// AdminCreate provisions an account with an explicit role. The super-admin
// flag can never be granted through this path.
func (s *UserService) AdminCreate(ctx context.Context, input AdminCreateInput) (*entity.User, error) {
	email := NormalizeEmail(input.Email)
	if !validEmail(email) {
		return nil, fmt.Errorf("%w: please enter a valid email", ErrValidation)
	}
	if len(input.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLength)
	}
	role := input.Role
	if role == "" {
		role = entity.RoleUser
	}
	if role != entity.RoleUser && role != entity.RoleAdmin {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, role)
	}

	if err := s.checkEmailAvailable(ctx, email); err != nil {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		Email:        email,
		PasswordHash: string(hashed),
		Role:         role,
		SuperAdmin:   false,
		CreatedAt:    time.Now(),
	}
	if input.BirthDate != nil {
		user.BirthDate = sql.NullTime{Time: *input.BirthDate, Valid: true}
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// SelfDelete soft-deletes the caller's own account after a password check.
func (s *UserService) SelfDelete(ctx context.Context, caller *entity.User, currentPassword string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(caller.PasswordHash), []byte(currentPassword)); err != nil {
		return ErrPasswordMismatch
	}
	return s.SoftDelete(ctx, caller, caller.ID)
}

// SoftDelete marks the target deleted and revokes every live refresh token in
// the same transaction, so existing sessions stop working the instant the
// delete lands. Allowed for the target themself or for a super-admin acting
// on a non-super-admin account.
func (s *UserService) SoftDelete(ctx context.Context, caller *entity.User, targetID uint64) error {
	target, err := s.userRepo.FindByID(ctx, targetID)
	if err != nil {
		return err
	}
	if target == nil {
		return ErrUserNotFound
	}
	if target.SuperAdmin {
		return ErrSuperAdminImmutable
	}
	if caller.ID != target.ID && !caller.SuperAdmin {
		return fmt.Errorf("%w: you can only delete your own account", ErrAccessDenied)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	target.Deleted = true
	target.DeletionDate = sql.NullTime{Time: time.Now(), Valid: true}
	if err := s.userRepo.WithTx(tx).Update(ctx, target); err != nil {
		return err
	}

	revoked, err := s.tokenRepo.WithTx(tx).RevokeAllActiveByUserID(ctx, target.ID)
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"user_id":        target.ID,
		"revoked_tokens": revoked,
	}).Info("Account soft-deleted")
	return nil
}

// Restore reactivates a soft-deleted account. Intentionally reachable without
// a session: a logged-out owner who knows the password can undo the delete
// within the retention window.
func (s *UserService) Restore(ctx context.Context, email, password string) (*entity.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if !user.Deleted {
		return nil, ErrAccountNotDeleted
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	user.Deleted = false
	user.DeletionDate = sql.NullTime{}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	logrus.WithField("user_id", user.ID).Info("Account restored")
	return user, nil
}

// HardDelete irreversibly removes the target and everything it owns: email
// history, refresh tokens, then the user row. Super-admin callers only, and
// never against a super-admin target.
func (s *UserService) HardDelete(ctx context.Context, caller *entity.User, targetID uint64) error {
	if !caller.SuperAdmin {
		return fmt.Errorf("%w: hard delete requires super admin", ErrAccessDenied)
	}

	target, err := s.userRepo.FindByID(ctx, targetID)
	if err != nil {
		return err
	}
	if target == nil {
		return ErrUserNotFound
	}
	if target.SuperAdmin {
		return ErrSuperAdminImmutable
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := s.historyRepo.WithTx(tx).DeleteByUserID(ctx, target.ID); err != nil {
		return err
	}
	if err := s.tokenRepo.WithTx(tx).DeleteByUserID(ctx, target.ID); err != nil {
		return err
	}
	if err := s.userRepo.WithTx(tx).Delete(ctx, target.ID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	logrus.WithField("user_id", target.ID).Warn("Account hard-deleted")
	return nil
}

// DeleteUser dispatches an admin-triggered deletion: super-admin callers hard
// delete, everyone else is limited to soft-deleting their own account.
func (s *UserService) DeleteUser(ctx context.Context, caller *entity.User, targetID uint64) error {
	if caller.SuperAdmin {
		return s.HardDelete(ctx, caller, targetID)
	}
	return s.SoftDelete(ctx, caller, targetID)
}

// PurgeDeletedBefore permanently removes every account whose soft deletion
// predates the cutoff. Called by the purge worker; uses the same cascade as
// HardDelete but without an acting caller.
func (s *UserService) PurgeDeletedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	expired, err := s.userRepo.FindDeletedBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	purged := 0
	for _, user := range expired {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return purged, err
		}

		err = func() error {
			defer tx.Rollback()
			if err := s.historyRepo.WithTx(tx).DeleteByUserID(ctx, user.ID); err != nil {
				return err
			}
			if err := s.tokenRepo.WithTx(tx).DeleteByUserID(ctx, user.ID); err != nil {
				return err
			}
			if err := s.userRepo.WithTx(tx).Delete(ctx, user.ID); err != nil {
				return err
			}
			return tx.Commit()
		}()
		if err != nil {
			return purged, err
		}
		purged++
	}
	return purged, nil
}

// Search pages through users for the admin dashboard.
func (s *UserService) Search(ctx context.Context, emailLike, role, accountStatus string, page, pageSize int) ([]*entity.User, int, error) {
	if page < 0 {
		page = 0
	}
	if pageSize <= 0 {
		pageSize = 10
	}
	return s.userRepo.Search(ctx, emailLike, role, accountStatus, page*pageSize, pageSize)
}

// BootstrapSuperAdmin creates the super-admin account. Intended for the CLI,
// not any HTTP surface; it is the only code path that sets the flag.
func (s *UserService) BootstrapSuperAdmin(ctx context.Context, email, password string) (*entity.User, error) {
	email = NormalizeEmail(email)
	if !validEmail(email) {
		return nil, fmt.Errorf("%w: please enter a valid email", ErrValidation)
	}
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLength)
	}
	if err := s.checkEmailAvailable(ctx, email); err != nil {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		Email:        email,
		PasswordHash: string(hashed),
		Role:         entity.RoleAdmin,
		SuperAdmin:   true,
		CreatedAt:    time.Now(),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{"user_id": user.ID, "email": user.Email}).Info("Super admin created")
	return user, nil
}

func (s *UserService) checkEmailAvailable(ctx context.Context, email string) error {
	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrEmailTaken
	}

	inHistory, err := s.historyRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return err
	}
	if inHistory {
		return ErrEmailTaken
	}
	return nil
}
