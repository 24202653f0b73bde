package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/orris-inc/helpdesk/internal/domain/ticket"
	"github.com/orris-inc/helpdesk/internal/infrastructure/persistence/mappers"
	"github.com/orris-inc/helpdesk/internal/infrastructure/persistence/models"
	db "github.com/orris-inc/helpdesk/internal/shared/db"
	"github.com/orris-inc/helpdesk/internal/shared/errors"
	"github.com/orris-inc/helpdesk/internal/shared/logger"
)

type AttachmentRepository struct {
	db     *gorm.DB
	mapper mappers.TicketMapper
	logger logger.Interface
}

func NewAttachmentRepository(db *gorm.DB, logger logger.Interface) *AttachmentRepository {
	return &AttachmentRepository{
		db:     db,
		mapper: mappers.NewTicketMapper(),
		logger: logger,
	}
}

func (r *AttachmentRepository) ListByMessageIDs(ctx context.Context, messageIDs []string) ([]*ticket.Attachment, error) {
	if len(messageIDs) == 0 {
		return []*ticket.Attachment{}, nil
	}

	var list []models.AttachmentModel
	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Where("message_id IN ?", messageIDs).Order("created_at ASC").Find(&list).Error; err != nil {
		r.logger.Errorw("failed to list attachments", "messages", len(messageIDs), "error", err)
		return nil, errors.NewInternalError("failed to list attachments").WithCause(err)
	}

	return r.mapper.AttachmentsToDomain(list), nil
}

func (r *AttachmentRepository) Create(ctx context.Context, a *ticket.Attachment) error {
	model := r.mapper.AttachmentToModel(a)
	tx := db.GetTxFromContext(ctx, r.db)

	if err := tx.Create(model).Error; err != nil {
		r.logger.Errorw("failed to create attachment", "message_id", a.MessageID, "error", err)
		return errors.NewInternalError("failed to create attachment").WithCause(err)
	}

	a.ID = model.ID
	return nil
}
