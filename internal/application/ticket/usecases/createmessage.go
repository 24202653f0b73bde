package usecases

import (
	"context"

	"github.com/orris-inc/helpdesk/internal/domain/ticket"
	"github.com/orris-inc/helpdesk/internal/shared/biztime"
	"github.com/orris-inc/helpdesk/internal/shared/errors"
	"github.com/orris-inc/helpdesk/internal/shared/logger"
)

type CreateMessageCommand struct {
	TicketID string
	SenderID string
	Content  string
}

type CreateMessageResult struct {
	Message *ticket.Message
	// TicketTouched is false when the message was stored but the ticket's
	// updated_at refresh failed.
	TicketTouched bool
}

type CreateMessageUseCase struct {
	messages     ticket.MessageRepository
	updateTicket UpdateTicketExecutor
	logger       logger.Interface
	now          biztime.Clock
}

func NewCreateMessageUseCase(
	messages ticket.MessageRepository,
	updateTicket UpdateTicketExecutor,
	logger logger.Interface,
) *CreateMessageUseCase {
	return &CreateMessageUseCase{
		messages:     messages,
		updateTicket: updateTicket,
		logger:       logger,
		now:          biztime.NowUTC,
	}
}

func (uc *CreateMessageUseCase) Execute(ctx context.Context, cmd CreateMessageCommand) (*CreateMessageResult, error) {
	uc.logger.Infow("executing create message use case", "ticket_id", cmd.TicketID, "sender_id", cmd.SenderID)

	m, err := ticket.NewMessage(cmd.TicketID, cmd.SenderID, cmd.Content, uc.now())
	if err != nil {
		return nil, errors.NewValidationError(err.Error())
	}

	if err := uc.messages.Create(ctx, m); err != nil {
		uc.logger.Errorw("failed to create message", "ticket_id", cmd.TicketID, "error", err)
		return nil, errors.NewInternalError("failed to create message").WithCause(err)
	}

	result := &CreateMessageResult{Message: m, TicketTouched: true}

	// Secondary: bump the ticket's updated_at. Failure is reported, not returned.
	if _, err := uc.updateTicket.Execute(ctx, UpdateTicketCommand{TicketID: cmd.TicketID}); err != nil {
		uc.logger.Warnw("message created but ticket timestamp refresh failed",
			"ticket_id", cmd.TicketID,
			"message_id", m.ID,
			"error", err,
		)
		result.TicketTouched = false
	}

	return result, nil
}
