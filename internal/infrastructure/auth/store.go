package auth

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/orris-inc/helpdesk/internal/infrastructure/persistence/models"
	"github.com/orris-inc/helpdesk/internal/shared/biztime"
	db "github.com/orris-inc/helpdesk/internal/shared/db"
	appErrors "github.com/orris-inc/helpdesk/internal/shared/errors"
)

// Store persists credentials, sessions and reset tokens.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) CreateUser(ctx context.Context, user *models.AuthUserModel) error {
	if err := db.GetTxFromContext(ctx, s.db).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || appErrors.IsDuplicateError(err) {
			return appErrors.NewConflictError("email already registered")
		}
		return appErrors.NewInternalError("failed to create user").WithCause(err)
	}
	return nil
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.AuthUserModel, error) {
	var user models.AuthUserModel
	if err := db.GetTxFromContext(ctx, s.db).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, notFoundOr(err, "user not found", "failed to find user")
	}
	return &user, nil
}

func (s *Store) FindUserByID(ctx context.Context, id string) (*models.AuthUserModel, error) {
	var user models.AuthUserModel
	if err := db.GetTxFromContext(ctx, s.db).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, notFoundOr(err, "user not found", "failed to find user")
	}
	return &user, nil
}

func (s *Store) UpdatePassword(ctx context.Context, userID, hash string, now time.Time) error {
	err := db.GetTxFromContext(ctx, s.db).
		Model(&models.AuthUserModel{}).
		Where("id = ?", userID).
		Updates(map[string]any{"password_hash": hash, "updated_at": biztime.ToMillis(now)}).Error
	if err != nil {
		return appErrors.NewInternalError("failed to update password").WithCause(err)
	}
	return nil
}

func (s *Store) CreateSession(ctx context.Context, session *models.AuthSessionModel) error {
	if err := db.GetTxFromContext(ctx, s.db).Create(session).Error; err != nil {
		return appErrors.NewInternalError("failed to create session").WithCause(err)
	}
	return nil
}

// FindActiveSession returns a session that is neither revoked nor expired.
func (s *Store) FindActiveSession(ctx context.Context, id string, now time.Time) (*models.AuthSessionModel, error) {
	var session models.AuthSessionModel
	err := db.GetTxFromContext(ctx, s.db).
		Where("id = ? AND revoked_at IS NULL AND expires_at > ?", id, biztime.ToMillis(now)).
		First(&session).Error
	if err != nil {
		return nil, notFoundOr(err, "session not found", "failed to find session")
	}
	return &session, nil
}

func (s *Store) FindSessionByRefreshHash(ctx context.Context, hash string) (*models.AuthSessionModel, error) {
	var session models.AuthSessionModel
	if err := db.GetTxFromContext(ctx, s.db).Where("refresh_token_hash = ?", hash).First(&session).Error; err != nil {
		return nil, notFoundOr(err, "session not found", "failed to find session")
	}
	return &session, nil
}

// RotateSession swaps the refresh token hash only if oldHash is still
// current, so a replayed token loses the race.
func (s *Store) RotateSession(ctx context.Context, id, oldHash, newHash string, expiresAt, now time.Time) error {
	result := db.GetTxFromContext(ctx, s.db).
		Model(&models.AuthSessionModel{}).
		Where("id = ? AND refresh_token_hash = ? AND revoked_at IS NULL", id, oldHash).
		Updates(map[string]any{
			"refresh_token_hash": newHash,
			"expires_at":         biztime.ToMillis(expiresAt),
			"last_refreshed_at":  biztime.ToMillis(now),
		})
	if result.Error != nil {
		return appErrors.NewInternalError("failed to rotate session").WithCause(result.Error)
	}
	if result.RowsAffected == 0 {
		return appErrors.NewUnauthorizedError("refresh token is no longer valid")
	}
	return nil
}

// RevokeSession reports whether the session was active.
func (s *Store) RevokeSession(ctx context.Context, id string, now time.Time) (bool, error) {
	result := db.GetTxFromContext(ctx, s.db).
		Model(&models.AuthSessionModel{}).
		Where("id = ? AND revoked_at IS NULL", id).
		Update("revoked_at", biztime.ToMillis(now))
	if result.Error != nil {
		return false, appErrors.NewInternalError("failed to revoke session").WithCause(result.Error)
	}
	return result.RowsAffected > 0, nil
}

// RevokeUserSessions revokes every active session of a user and returns
// their ids.
func (s *Store) RevokeUserSessions(ctx context.Context, userID string, now time.Time) ([]string, error) {
	tx := db.GetTxFromContext(ctx, s.db)

	var ids []string
	if err := tx.Model(&models.AuthSessionModel{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Pluck("id", &ids).Error; err != nil {
		return nil, appErrors.NewInternalError("failed to list sessions").WithCause(err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	if err := tx.Model(&models.AuthSessionModel{}).
		Where("id IN ?", ids).
		Update("revoked_at", biztime.ToMillis(now)).Error; err != nil {
		return nil, appErrors.NewInternalError("failed to revoke sessions").WithCause(err)
	}
	return ids, nil
}

func (s *Store) CreatePasswordReset(ctx context.Context, reset *models.PasswordResetModel) error {
	if err := db.GetTxFromContext(ctx, s.db).Create(reset).Error; err != nil {
		return appErrors.NewInternalError("failed to create password reset").WithCause(err)
	}
	return nil
}

// ConsumePasswordReset marks an unused, unexpired reset token as used and
// returns it. Each token can be consumed once.
func (s *Store) ConsumePasswordReset(ctx context.Context, hash string, now time.Time) (*models.PasswordResetModel, error) {
	tx := db.GetTxFromContext(ctx, s.db)

	var reset models.PasswordResetModel
	err := tx.Where("token_hash = ? AND used_at IS NULL AND expires_at > ?", hash, biztime.ToMillis(now)).
		First(&reset).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appErrors.NewValidationError("reset token is invalid or expired")
		}
		return nil, appErrors.NewInternalError("failed to find password reset").WithCause(err)
	}

	result := tx.Model(&models.PasswordResetModel{}).
		Where("id = ? AND used_at IS NULL", reset.ID).
		Update("used_at", biztime.ToMillis(now))
	if result.Error != nil {
		return nil, appErrors.NewInternalError("failed to consume password reset").WithCause(result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, appErrors.NewValidationError("reset token is invalid or expired")
	}
	return &reset, nil
}

// PurgeExpired deletes expired or revoked sessions and expired or used
// reset tokens.
func (s *Store) PurgeExpired(ctx context.Context, now time.Time) (sessions, resets int64, err error) {
	cutoff := biztime.ToMillis(now)
	tx := db.GetTxFromContext(ctx, s.db)

	res := tx.Where("expires_at <= ? OR revoked_at IS NOT NULL", cutoff).Delete(&models.AuthSessionModel{})
	if res.Error != nil {
		return 0, 0, appErrors.NewInternalError("failed to purge sessions").WithCause(res.Error)
	}
	sessions = res.RowsAffected

	res = tx.Where("expires_at <= ? OR used_at IS NOT NULL", cutoff).Delete(&models.PasswordResetModel{})
	if res.Error != nil {
		return sessions, 0, appErrors.NewInternalError("failed to purge password resets").WithCause(res.Error)
	}
	return sessions, res.RowsAffected, nil
}

func notFoundOr(err error, notFoundMsg, internalMsg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return appErrors.NewNotFoundError(notFoundMsg)
	}
	return appErrors.NewInternalError(internalMsg).WithCause(err)
}
