package usecases

import (
	"context"
	"strings"

	"github.com/orris-inc/helpdesk/internal/domain/ticket"
	vo "github.com/orris-inc/helpdesk/internal/domain/ticket/valueobjects"
	"github.com/orris-inc/helpdesk/internal/shared/biztime"
	"github.com/orris-inc/helpdesk/internal/shared/errors"
	"github.com/orris-inc/helpdesk/internal/shared/logger"
	"github.com/orris-inc/helpdesk/internal/shared/utils"
)

type CreateTicketCommand struct {
	Subject        string `json:"subject" validate:"required,max=200"`
	CustomerID     string `json:"customer_id" validate:"required"`
	Priority       string `json:"priority" validate:"required,oneof=low medium high"`
	Category       string `json:"category" validate:"required"`
	InitialMessage string `json:"initial_message" validate:"max=5000"`
}

type CreateTicketResult struct {
	Ticket         *ticket.Ticket  `json:"ticket"`
	InitialMessage *ticket.Message `json:"initial_message"`
	// InitialMessageFailed is set when the ticket was stored but its first
	// message was not.
	InitialMessageFailed bool `json:"initial_message_failed"`
}

type CreateTicketUseCase struct {
	tickets  ticket.TicketRepository
	messages ticket.MessageRepository
	logger   logger.Interface
	now      biztime.Clock
}

func NewCreateTicketUseCase(
	tickets ticket.TicketRepository,
	messages ticket.MessageRepository,
	logger logger.Interface,
) *CreateTicketUseCase {
	return &CreateTicketUseCase{
		tickets:  tickets,
		messages: messages,
		logger:   logger,
		now:      biztime.NowUTC,
	}
}

func (uc *CreateTicketUseCase) Execute(ctx context.Context, cmd CreateTicketCommand) (*CreateTicketResult, error) {
	uc.logger.Infow("executing create ticket use case", "customer_id", cmd.CustomerID, "priority", cmd.Priority)

	if err := utils.ValidateStruct(cmd); err != nil {
		uc.logger.Warnw("invalid create ticket command", "error", err)
		return nil, err
	}

	category, err := vo.NewCategory(cmd.Category)
	if err != nil {
		return nil, errors.NewValidationError(err.Error())
	}

	now := uc.now()
	t, err := ticket.NewTicket(cmd.Subject, cmd.CustomerID, vo.Priority(cmd.Priority), category, now)
	if err != nil {
		return nil, errors.NewValidationError(err.Error())
	}

	if err := uc.tickets.Create(ctx, t); err != nil {
		uc.logger.Errorw("failed to create ticket", "customer_id", cmd.CustomerID, "error", err)
		return nil, errors.NewInternalError("failed to create ticket").WithCause(err)
	}

	result := &CreateTicketResult{Ticket: t}

	if strings.TrimSpace(cmd.InitialMessage) == "" {
		uc.logger.Infow("ticket created", "ticket_id", t.ID)
		return result, nil
	}

	// Secondary: the ticket stands even if its first message cannot be stored.
	m, err := ticket.NewMessage(t.ID, cmd.CustomerID, cmd.InitialMessage, now)
	if err == nil {
		err = uc.messages.Create(ctx, m)
	}
	if err != nil {
		uc.logger.Warnw("ticket created but initial message failed", "ticket_id", t.ID, "error", err)
		result.InitialMessageFailed = true
		return result, nil
	}

	result.InitialMessage = m
	uc.logger.Infow("ticket created", "ticket_id", t.ID, "message_id", m.ID)
	return result, nil
}
