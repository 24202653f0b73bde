package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/orris-inc/helpdesk/internal/domain/profile"
	"github.com/orris-inc/helpdesk/internal/infrastructure/persistence/mappers"
	"github.com/orris-inc/helpdesk/internal/infrastructure/persistence/models"
	"github.com/orris-inc/helpdesk/internal/shared/biztime"
	db "github.com/orris-inc/helpdesk/internal/shared/db"
	"github.com/orris-inc/helpdesk/internal/shared/errors"
	"github.com/orris-inc/helpdesk/internal/shared/logger"
)

type ProfileRepository struct {
	db     *gorm.DB
	mapper mappers.ProfileMapper
	logger logger.Interface
	now    biztime.Clock
}

func NewProfileRepository(db *gorm.DB, logger logger.Interface) *ProfileRepository {
	return &ProfileRepository{
		db:     db,
		mapper: mappers.NewProfileMapper(),
		logger: logger,
		now:    biztime.NowUTC,
	}
}

func (r *ProfileRepository) GetByID(ctx context.Context, id string) (*profile.Profile, error) {
	var model models.ProfileModel
	tx := db.GetTxFromContext(ctx, r.db)

	if err := tx.Where("id = ?", id).First(&model).Error; err != nil {
		if isNotFound(err) {
			return nil, errors.NewNotFoundError("profile not found", id)
		}
		r.logger.Errorw("failed to get profile", "id", id, "error", err)
		return nil, errors.NewInternalError("failed to get profile").WithCause(err)
	}

	return r.mapper.ToDomain(&model), nil
}

func (r *ProfileRepository) ListByIDs(ctx context.Context, ids []string) ([]*profile.Profile, error) {
	if len(ids) == 0 {
		return []*profile.Profile{}, nil
	}

	var list []models.ProfileModel
	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Where("id IN ?", ids).Find(&list).Error; err != nil {
		r.logger.Errorw("failed to list profiles", "count", len(ids), "error", err)
		return nil, errors.NewInternalError("failed to list profiles").WithCause(err)
	}

	return r.mapper.ToDomainList(list), nil
}

// Create inserts a profile. A row with the same id yields a Conflict.
func (r *ProfileRepository) Create(ctx context.Context, p *profile.Profile) error {
	model := r.mapper.ToModel(p)
	tx := db.GetTxFromContext(ctx, r.db)

	if err := tx.Create(model).Error; err != nil {
		if isDuplicate(err) {
			return errors.NewConflictError("profile already exists", p.ID)
		}
		r.logger.Errorw("failed to create profile", "id", p.ID, "error", err)
		return errors.NewInternalError("failed to create profile").WithCause(err)
	}

	return nil
}

func (r *ProfileRepository) Update(ctx context.Context, id string, patch profile.Patch) (*profile.Profile, error) {
	updates := map[string]any{
		"updated_at": biztime.ToMillis(r.now()),
	}
	if patch.FullName != nil {
		updates["full_name"] = *patch.FullName
	}
	if patch.AvatarURL != nil {
		updates["avatar_url"] = *patch.AvatarURL
	}

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Model(&models.ProfileModel{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		r.logger.Errorw("failed to update profile", "id", id, "error", err)
		return nil, errors.NewInternalError("failed to update profile").WithCause(err)
	}

	return r.GetByID(ctx, id)
}
