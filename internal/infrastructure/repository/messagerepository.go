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

type MessageRepository struct {
	db     *gorm.DB
	mapper mappers.TicketMapper
	logger logger.Interface
}

func NewMessageRepository(db *gorm.DB, logger logger.Interface) *MessageRepository {
	return &MessageRepository{
		db:     db,
		mapper: mappers.NewTicketMapper(),
		logger: logger,
	}
}

// ListByTicketID orders by created_at; messages in the same millisecond keep
// insertion order.
func (r *MessageRepository) ListByTicketID(ctx context.Context, ticketID string) ([]*ticket.Message, error) {
	var list []models.MessageModel
	tx := db.GetTxFromContext(ctx, r.db)

	if err := tx.Where("ticket_id = ?", ticketID).Order("created_at ASC, seq ASC").Find(&list).Error; err != nil {
		r.logger.Errorw("failed to list messages", "ticket_id", ticketID, "error", err)
		return nil, errors.NewInternalError("failed to list messages").WithCause(err)
	}

	return r.mapper.MessagesToDomain(list), nil
}

// ListRefsByTicketIDs selects only the id columns, for counting.
func (r *MessageRepository) ListRefsByTicketIDs(ctx context.Context, ticketIDs []string) ([]ticket.MessageRef, error) {
	if len(ticketIDs) == 0 {
		return []ticket.MessageRef{}, nil
	}

	var list []models.MessageModel
	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Select("id", "ticket_id").Where("ticket_id IN ?", ticketIDs).Find(&list).Error; err != nil {
		r.logger.Errorw("failed to list message refs", "tickets", len(ticketIDs), "error", err)
		return nil, errors.NewInternalError("failed to list message refs").WithCause(err)
	}

	refs := make([]ticket.MessageRef, 0, len(list))
	for _, m := range list {
		refs = append(refs, ticket.MessageRef{ID: m.ID, TicketID: m.TicketID})
	}
	return refs, nil
}

// GetLatestByTicketID returns the last message ListByTicketID would return.
func (r *MessageRepository) GetLatestByTicketID(ctx context.Context, ticketID string) (*ticket.Message, error) {
	var model models.MessageModel
	tx := db.GetTxFromContext(ctx, r.db)

	err := tx.Where("ticket_id = ?", ticketID).Order("created_at DESC, seq DESC").Take(&model).Error
	if err != nil {
		if isNotFound(err) {
			return nil, errors.NewNotFoundError("ticket has no messages", ticketID)
		}
		r.logger.Errorw("failed to get latest message", "ticket_id", ticketID, "error", err)
		return nil, errors.NewInternalError("failed to get latest message").WithCause(err)
	}

	return r.mapper.MessageToDomain(&model), nil
}

// GetByID is used to check ownership before attaching files to a message.
func (r *MessageRepository) GetByID(ctx context.Context, id string) (*ticket.Message, error) {
	var model models.MessageModel
	tx := db.GetTxFromContext(ctx, r.db)

	if err := tx.Where("id = ?", id).First(&model).Error; err != nil {
		if isNotFound(err) {
			return nil, errors.NewNotFoundError("message not found", id)
		}
		r.logger.Errorw("failed to get message", "message_id", id, "error", err)
		return nil, errors.NewInternalError("failed to get message").WithCause(err)
	}

	return r.mapper.MessageToDomain(&model), nil
}

// Create inserts m and writes the generated id back.
func (r *MessageRepository) Create(ctx context.Context, m *ticket.Message) error {
	model := r.mapper.MessageToModel(m)
	tx := db.GetTxFromContext(ctx, r.db)

	if err := tx.Create(model).Error; err != nil {
		r.logger.Errorw("failed to create message", "ticket_id", m.TicketID, "error", err)
		return errors.NewInternalError("failed to create message").WithCause(err)
	}

	m.ID = model.ID
	return nil
}
