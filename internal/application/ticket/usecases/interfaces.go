package usecases

import (
	"context"

	"github.com/orris-inc/helpdesk/internal/domain/ticket"
)

type ListTicketsExecutor interface {
	Execute(ctx context.Context, query ListTicketsQuery) ([]*ticket.EnrichedTicket, error)
}

type GetTicketExecutor interface {
	Execute(ctx context.Context, query GetTicketQuery) (*ticket.EnrichedTicket, error)
}

type CreateTicketExecutor interface {
	Execute(ctx context.Context, cmd CreateTicketCommand) (*CreateTicketResult, error)
}

type UpdateTicketExecutor interface {
	Execute(ctx context.Context, cmd UpdateTicketCommand) (*ticket.Ticket, error)
}

type CreateMessageExecutor interface {
	Execute(ctx context.Context, cmd CreateMessageCommand) (*CreateMessageResult, error)
}

type UploadAttachmentExecutor interface {
	Execute(ctx context.Context, cmd UploadAttachmentCommand) (*ticket.Attachment, error)
}

type ReplyToTicketExecutor interface {
	Execute(ctx context.Context, cmd ReplyToTicketCommand) (*ReplyToTicketResult, error)
}
