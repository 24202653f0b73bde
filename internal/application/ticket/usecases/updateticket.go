package usecases

import (
	"context"

	"github.com/orris-inc/helpdesk/internal/domain/ticket"
	"github.com/orris-inc/helpdesk/internal/shared/biztime"
	"github.com/orris-inc/helpdesk/internal/shared/errors"
	"github.com/orris-inc/helpdesk/internal/shared/logger"
)

type UpdateTicketCommand struct {
	TicketID string
	Patch    ticket.Patch
}

type UpdateTicketUseCase struct {
	tickets ticket.TicketRepository
	logger  logger.Interface
	now     biztime.Clock
}

func NewUpdateTicketUseCase(tickets ticket.TicketRepository, logger logger.Interface) *UpdateTicketUseCase {
	return &UpdateTicketUseCase{tickets: tickets, logger: logger, now: biztime.NowUTC}
}

// Execute applies the patch with a fresh updated_at. An empty patch only
// refreshes the timestamp.
func (uc *UpdateTicketUseCase) Execute(ctx context.Context, cmd UpdateTicketCommand) (*ticket.Ticket, error) {
	uc.logger.Infow("executing update ticket use case", "ticket_id", cmd.TicketID, "touch_only", cmd.Patch.IsEmpty())

	if cmd.TicketID == "" {
		return nil, errors.NewValidationError("ticket ID is required")
	}
	if err := cmd.Patch.Validate(); err != nil {
		return nil, errors.NewValidationError(err.Error())
	}

	patch := cmd.Patch
	patch.UpdatedAt = uc.now()

	updated, err := uc.tickets.Update(ctx, cmd.TicketID, patch)
	if err != nil {
		if errors.IsNotFoundError(err) {
			return nil, errors.NewNotFoundError("ticket not found", cmd.TicketID)
		}
		uc.logger.Errorw("failed to update ticket", "ticket_id", cmd.TicketID, "error", err)
		return nil, errors.NewInternalError("failed to update ticket").WithCause(err)
	}

	return updated, nil
}
