package ticket

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orris-inc/helpdesk/internal/application/ticket/usecases"
	domainTicket "github.com/orris-inc/helpdesk/internal/domain/ticket"
	"github.com/orris-inc/helpdesk/internal/shared/constants"
	"github.com/orris-inc/helpdesk/internal/shared/errors"
	"github.com/orris-inc/helpdesk/internal/shared/logger"
	"github.com/orris-inc/helpdesk/internal/shared/utils"
)

type messageReader interface {
	GetByID(ctx context.Context, id string) (*domainTicket.Message, error)
}

type ticketReader interface {
	GetByID(ctx context.Context, id string) (*domainTicket.Ticket, error)
}

// AttachmentHandler uploads files onto an existing message. Only the
// message's sender or an admin may attach, and only on a visible ticket.
type AttachmentHandler struct {
	messages       messageReader
	tickets        ticketReader
	uploadUC       usecases.UploadAttachmentExecutor
	maxUploadBytes int64
	logger         logger.Interface
}

func NewAttachmentHandler(
	messages messageReader,
	tickets ticketReader,
	uploadUC usecases.UploadAttachmentExecutor,
	maxUploadBytes int64,
	logger logger.Interface,
) *AttachmentHandler {
	return &AttachmentHandler{
		messages:       messages,
		tickets:        tickets,
		uploadUC:       uploadUC,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// Upload handles POST /api/messages/:id/attachments (multipart field "file")
func (h *AttachmentHandler) Upload(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	messageID := c.Param("id")

	msg, err := h.messages.GetByID(ctx, messageID)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	t, err := h.tickets.GetByID(ctx, msg.TicketID)
	if err != nil {
		if errors.IsNotFoundError(err) {
			utils.ErrorResponseWithError(c, errors.NewNotFoundError(constants.ErrMsgTicketNotFound, msg.TicketID))
			return
		}
		utils.ErrorResponseWithError(c, err)
		return
	}
	if !t.CanBeViewedBy(actor.ID, actor.Role) {
		utils.ErrorResponseWithError(c, errors.NewNotFoundError("message not found", messageID))
		return
	}
	if msg.SenderID != actor.ID && !actor.Role.IsAdmin() {
		h.logger.Warnw("attachment upload denied", "message_id", messageID, "user_id", actor.ID)
		utils.ErrorResponse(c, http.StatusForbidden, "only the sender may attach files to a message")
		return
	}

	fh, err := c.FormFile(constants.FormFieldFile)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "file is required")
		return
	}
	if err := checkUploadSize(fh, h.maxUploadBytes); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	f, err := fh.Open()
	if err != nil {
		h.logger.Warnw("failed to open uploaded file", "file_name", fh.Filename, "error", err)
		utils.ErrorResponse(c, http.StatusBadRequest, "failed to read uploaded file")
		return
	}
	defer f.Close()

	a, err := h.uploadUC.Execute(ctx, usecases.UploadAttachmentCommand{
		MessageID: messageID,
		FileName:  fh.Filename,
		FileSize:  fh.Size,
		Content:   f,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, a, "Attachment uploaded successfully")
}
