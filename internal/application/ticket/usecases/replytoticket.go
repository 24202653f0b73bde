package usecases

import (
	"context"
	"io"
	"strings"

	"github.com/orris-inc/helpdesk/internal/domain/profile"
	"github.com/orris-inc/helpdesk/internal/domain/ticket"
	vo "github.com/orris-inc/helpdesk/internal/domain/ticket/valueobjects"
	"github.com/orris-inc/helpdesk/internal/shared/errors"
	"github.com/orris-inc/helpdesk/internal/shared/logger"
)

type ReplyFile struct {
	Name    string
	Size    int64
	Content io.Reader
}

type ReplyToTicketCommand struct {
	TicketID   string
	SenderID   string
	SenderRole profile.Role
	Content    string
	Files      []ReplyFile
}

type ReplyToTicketResult struct {
	Message       *ticket.Message      `json:"message"`
	Reopened      bool                 `json:"reopened"`
	TicketTouched bool                 `json:"ticket_touched"`
	Attachments   []*ticket.Attachment `json:"attachments"`
	// FailedFiles names the files that could not be attached.
	FailedFiles []string `json:"failed_files"`
}

// ReplyToTicketUseCase posts a message on a ticket thread. A customer reply
// to a resolved ticket reopens it before the message is recorded.
type ReplyToTicketUseCase struct {
	tickets          ticket.TicketRepository
	updateTicket     UpdateTicketExecutor
	createMessage    CreateMessageExecutor
	uploadAttachment UploadAttachmentExecutor
	logger           logger.Interface
}

func NewReplyToTicketUseCase(
	tickets ticket.TicketRepository,
	updateTicket UpdateTicketExecutor,
	createMessage CreateMessageExecutor,
	uploadAttachment UploadAttachmentExecutor,
	logger logger.Interface,
) *ReplyToTicketUseCase {
	return &ReplyToTicketUseCase{
		tickets:          tickets,
		updateTicket:     updateTicket,
		createMessage:    createMessage,
		uploadAttachment: uploadAttachment,
		logger:           logger,
	}
}

func (uc *ReplyToTicketUseCase) Execute(ctx context.Context, cmd ReplyToTicketCommand) (*ReplyToTicketResult, error) {
	uc.logger.Infow("executing reply to ticket use case",
		"ticket_id", cmd.TicketID,
		"sender_id", cmd.SenderID,
		"role", cmd.SenderRole,
		"files", len(cmd.Files),
	)

	if !cmd.SenderRole.IsValid() {
		return nil, errors.NewValidationError("invalid role", string(cmd.SenderRole))
	}
	// Checked up front so an empty reply never reopens a ticket.
	if strings.TrimSpace(cmd.Content) == "" {
		return nil, errors.NewValidationError("content is required")
	}

	t, err := uc.tickets.GetByID(ctx, cmd.TicketID)
	if err != nil {
		if errors.IsNotFoundError(err) {
			return nil, errors.NewNotFoundError("ticket not found", cmd.TicketID)
		}
		return nil, errors.NewInternalError("failed to get ticket").WithCause(err)
	}
	if !t.CanBeViewedBy(cmd.SenderID, cmd.SenderRole) {
		return nil, errors.NewNotFoundError("ticket not found", cmd.TicketID)
	}

	result := &ReplyToTicketResult{}

	if cmd.SenderRole.IsCustomer() && t.Status.IsResolved() {
		open := vo.StatusOpen
		if _, err := uc.updateTicket.Execute(ctx, UpdateTicketCommand{
			TicketID: t.ID,
			Patch:    ticket.Patch{Status: &open},
		}); err != nil {
			uc.logger.Errorw("failed to reopen ticket before reply", "ticket_id", t.ID, "error", err)
			return nil, err
		}
		result.Reopened = true
	}

	created, err := uc.createMessage.Execute(ctx, CreateMessageCommand{
		TicketID: t.ID,
		SenderID: cmd.SenderID,
		Content:  cmd.Content,
	})
	if err != nil {
		return nil, err
	}
	result.Message = created.Message
	result.TicketTouched = created.TicketTouched

	for _, f := range cmd.Files {
		a, err := uc.uploadAttachment.Execute(ctx, UploadAttachmentCommand{
			MessageID: created.Message.ID,
			FileName:  f.Name,
			FileSize:  f.Size,
			Content:   f.Content,
		})
		if err != nil {
			uc.logger.Warnw("reply attachment failed", "message_id", created.Message.ID, "file_name", f.Name, "error", err)
			result.FailedFiles = append(result.FailedFiles, f.Name)
			continue
		}
		result.Attachments = append(result.Attachments, a)
	}

	return result, nil
}
