package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/orris-inc/helpdesk/internal/domain/ticket"
	"github.com/orris-inc/helpdesk/internal/infrastructure/persistence/mappers"
	"github.com/orris-inc/helpdesk/internal/infrastructure/persistence/models"
	"github.com/orris-inc/helpdesk/internal/shared/biztime"
	db "github.com/orris-inc/helpdesk/internal/shared/db"
	"github.com/orris-inc/helpdesk/internal/shared/errors"
	"github.com/orris-inc/helpdesk/internal/shared/logger"
)

type TicketRepository struct {
	db     *gorm.DB
	mapper mappers.TicketMapper
	logger logger.Interface
	now    biztime.Clock
}

func NewTicketRepository(db *gorm.DB, logger logger.Interface) *TicketRepository {
	return &TicketRepository{
		db:     db,
		mapper: mappers.NewTicketMapper(),
		logger: logger,
		now:    biztime.NowUTC,
	}
}

func (r *TicketRepository) List(ctx context.Context, filter ticket.Filter) ([]*ticket.Ticket, error) {
	query := db.GetTxFromContext(ctx, r.db).Model(&models.TicketModel{})

	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", filter.Status.String())
	}

	var list []models.TicketModel
	if err := query.Order("updated_at DESC").Find(&list).Error; err != nil {
		r.logger.Errorw("failed to list tickets", "error", err)
		return nil, errors.NewInternalError("failed to list tickets").WithCause(err)
	}

	return r.mapper.ToDomainList(list), nil
}

func (r *TicketRepository) GetByID(ctx context.Context, id string) (*ticket.Ticket, error) {
	var model models.TicketModel
	tx := db.GetTxFromContext(ctx, r.db)

	if err := tx.Where("id = ?", id).First(&model).Error; err != nil {
		if isNotFound(err) {
			return nil, errors.NewNotFoundError("ticket not found", id)
		}
		r.logger.Errorw("failed to get ticket", "id", id, "error", err)
		return nil, errors.NewInternalError("failed to get ticket").WithCause(err)
	}

	return r.mapper.ToDomain(&model), nil
}

// Create inserts t and writes the generated id back.
func (r *TicketRepository) Create(ctx context.Context, t *ticket.Ticket) error {
	model := r.mapper.ToModel(t)
	tx := db.GetTxFromContext(ctx, r.db)

	if err := tx.Create(model).Error; err != nil {
		r.logger.Errorw("failed to create ticket", "customer_id", t.CustomerID, "error", err)
		return errors.NewInternalError("failed to create ticket").WithCause(err)
	}

	t.ID = model.ID
	return nil
}

// Update applies patch and returns the stored row. updated_at is always
// written, so an empty patch only refreshes it.
func (r *TicketRepository) Update(ctx context.Context, id string, patch ticket.Patch) (*ticket.Ticket, error) {
	updatedAt := patch.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = r.now()
	}

	updates := map[string]any{
		"updated_at": biztime.ToMillis(updatedAt),
	}
	if patch.Subject != nil {
		updates["subject"] = *patch.Subject
	}
	if patch.Status != nil {
		updates["status"] = patch.Status.String()
	}
	if patch.Priority != nil {
		updates["priority"] = patch.Priority.String()
	}
	if patch.Category != nil {
		updates["category"] = patch.Category.String()
	}
	if patch.AssignedTo != nil {
		updates["assigned_to"] = *patch.AssignedTo
	}
	if patch.ClearAssignee {
		updates["assigned_to"] = nil
	}

	tx := db.GetTxFromContext(ctx, r.db)
	result := tx.Model(&models.TicketModel{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		r.logger.Errorw("failed to update ticket", "id", id, "error", result.Error)
		return nil, errors.NewInternalError("failed to update ticket").WithCause(result.Error)
	}

	// Note: RowsAffected may be 0 when updated values are identical to existing values.

	return r.GetByID(ctx, id)
}
