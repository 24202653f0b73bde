// Package ticket composes the ticket use cases into the aggregator consumed by
// the HTTP and console front ends.
package ticket

import (
	"context"

	"github.com/orris-inc/helpdesk/internal/application/ticket/usecases"
	"github.com/orris-inc/helpdesk/internal/domain/profile"
	domainTicket "github.com/orris-inc/helpdesk/internal/domain/ticket"
	"github.com/orris-inc/helpdesk/internal/shared/logger"
)

// Repositories bundles the backend accessors the aggregator reads and writes.
type Repositories struct {
	Tickets     domainTicket.TicketRepository
	Messages    domainTicket.MessageRepository
	Attachments domainTicket.AttachmentRepository
	Profiles    profile.Repository
	Blobs       domainTicket.BlobStore
}

// Aggregator assembles enriched ticket views from normalized rows. It keeps no
// state between calls.
type Aggregator struct {
	listTicketsUC      *usecases.ListTicketsUseCase
	getTicketUC        *usecases.GetTicketUseCase
	createTicketUC     *usecases.CreateTicketUseCase
	updateTicketUC     *usecases.UpdateTicketUseCase
	createMessageUC    *usecases.CreateMessageUseCase
	uploadAttachmentUC *usecases.UploadAttachmentUseCase
	replyUC            *usecases.ReplyToTicketUseCase
}

func NewAggregator(repos Repositories, logger logger.Interface) *Aggregator {
	log := logger.Named("aggregator")

	updateUC := usecases.NewUpdateTicketUseCase(repos.Tickets, log)
	createMessageUC := usecases.NewCreateMessageUseCase(repos.Messages, updateUC, log)
	uploadUC := usecases.NewUploadAttachmentUseCase(repos.Blobs, repos.Attachments, log)

	return &Aggregator{
		listTicketsUC:      usecases.NewListTicketsUseCase(repos.Tickets, repos.Messages, repos.Profiles, log),
		getTicketUC:        usecases.NewGetTicketUseCase(repos.Tickets, repos.Messages, repos.Attachments, repos.Profiles, log),
		createTicketUC:     usecases.NewCreateTicketUseCase(repos.Tickets, repos.Messages, log),
		updateTicketUC:     updateUC,
		createMessageUC:    createMessageUC,
		uploadAttachmentUC: uploadUC,
		replyUC:            usecases.NewReplyToTicketUseCase(repos.Tickets, updateUC, createMessageUC, uploadUC, log),
	}
}

func (a *Aggregator) ListTickets(ctx context.Context, role profile.Role, currentUserID, status string) ([]*domainTicket.EnrichedTicket, error) {
	return a.listTicketsUC.Execute(ctx, usecases.ListTicketsQuery{
		Role:          role,
		CurrentUserID: currentUserID,
		Status:        status,
	})
}

func (a *Aggregator) GetTicket(ctx context.Context, ticketID string) (*domainTicket.EnrichedTicket, error) {
	return a.getTicketUC.Execute(ctx, usecases.GetTicketQuery{TicketID: ticketID})
}

func (a *Aggregator) CreateTicket(ctx context.Context, cmd usecases.CreateTicketCommand) (*usecases.CreateTicketResult, error) {
	return a.createTicketUC.Execute(ctx, cmd)
}

func (a *Aggregator) UpdateTicket(ctx context.Context, ticketID string, patch domainTicket.Patch) (*domainTicket.Ticket, error) {
	return a.updateTicketUC.Execute(ctx, usecases.UpdateTicketCommand{TicketID: ticketID, Patch: patch})
}

func (a *Aggregator) CreateMessage(ctx context.Context, ticketID, senderID, content string) (*usecases.CreateMessageResult, error) {
	return a.createMessageUC.Execute(ctx, usecases.CreateMessageCommand{
		TicketID: ticketID,
		SenderID: senderID,
		Content:  content,
	})
}

func (a *Aggregator) UploadAttachment(ctx context.Context, cmd usecases.UploadAttachmentCommand) (*domainTicket.Attachment, error) {
	return a.uploadAttachmentUC.Execute(ctx, cmd)
}

func (a *Aggregator) Reply(ctx context.Context, cmd usecases.ReplyToTicketCommand) (*usecases.ReplyToTicketResult, error) {
	return a.replyUC.Execute(ctx, cmd)
}

// Executors exposes the use cases individually for handlers that depend on
// single-operation interfaces.
func (a *Aggregator) Executors() Executors {
	return Executors{
		ListTickets:      a.listTicketsUC,
		GetTicket:        a.getTicketUC,
		CreateTicket:     a.createTicketUC,
		UpdateTicket:     a.updateTicketUC,
		CreateMessage:    a.createMessageUC,
		UploadAttachment: a.uploadAttachmentUC,
		Reply:            a.replyUC,
	}
}

type Executors struct {
	ListTickets      usecases.ListTicketsExecutor
	GetTicket        usecases.GetTicketExecutor
	CreateTicket     usecases.CreateTicketExecutor
	UpdateTicket     usecases.UpdateTicketExecutor
	CreateMessage    usecases.CreateMessageExecutor
	UploadAttachment usecases.UploadAttachmentExecutor
	Reply            usecases.ReplyToTicketExecutor
}
