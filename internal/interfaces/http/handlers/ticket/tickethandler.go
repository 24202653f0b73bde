package ticket

import (
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	ticketApp "github.com/orris-inc/helpdesk/internal/application/ticket"
	"github.com/orris-inc/helpdesk/internal/application/ticket/usecases"
	"github.com/orris-inc/helpdesk/internal/domain/profile"
	domainTicket "github.com/orris-inc/helpdesk/internal/domain/ticket"
	"github.com/orris-inc/helpdesk/internal/infrastructure/permission"
	"github.com/orris-inc/helpdesk/internal/interfaces/http/middleware"
	"github.com/orris-inc/helpdesk/internal/shared/constants"
	"github.com/orris-inc/helpdesk/internal/shared/errors"
	"github.com/orris-inc/helpdesk/internal/shared/logger"
	"github.com/orris-inc/helpdesk/internal/shared/utils"
)

type TicketHandler struct {
	listTicketsUC  usecases.ListTicketsExecutor
	getTicketUC    usecases.GetTicketExecutor
	createTicketUC usecases.CreateTicketExecutor
	updateTicketUC usecases.UpdateTicketExecutor
	replyUC        usecases.ReplyToTicketExecutor
	enforcer       middleware.PolicyEnforcer
	mapper         responseMapper
	maxUploadBytes int64
	logger         logger.Interface
}

func NewTicketHandler(
	executors ticketApp.Executors,
	enforcer middleware.PolicyEnforcer,
	renderer ContentRenderer,
	maxUploadBytes int64,
	logger logger.Interface,
) *TicketHandler {
	return &TicketHandler{
		listTicketsUC:  executors.ListTickets,
		getTicketUC:    executors.GetTicket,
		createTicketUC: executors.CreateTicket,
		updateTicketUC: executors.UpdateTicket,
		replyUC:        executors.Reply,
		enforcer:       enforcer,
		mapper:         responseMapper{renderer: renderer, logger: logger},
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// ListTickets handles GET /api/tickets?status=&sort=
func (h *TicketHandler) ListTickets(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	sortKey := domainTicket.SortKey(c.DefaultQuery("sort", string(domainTicket.SortByUpdated)))
	if !sortKey.IsValid() {
		utils.ErrorResponseWithError(c, errors.NewValidationError("invalid sort key", string(sortKey)))
		return
	}

	list, err := h.listTicketsUC.Execute(c.Request.Context(), usecases.ListTicketsQuery{
		Role:          actor.Role,
		CurrentUserID: actor.ID,
		Status:        c.Query("status"),
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	domainTicket.SortTickets(list, sortKey)

	utils.SuccessResponse(c, http.StatusOK, "", h.mapper.tickets(list))
}

// GetTicket handles GET /api/tickets/:id. Tickets the caller may not see are
// reported as missing.
func (h *TicketHandler) GetTicket(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	ticketID := c.Param("id")
	et, err := h.getTicketUC.Execute(c.Request.Context(), usecases.GetTicketQuery{TicketID: ticketID})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	if !et.CanBeViewedBy(actor.ID, actor.Role) {
		h.logger.Warnw("ticket access denied", "ticket_id", ticketID, "user_id", actor.ID)
		utils.ErrorResponseWithError(c, errors.NewNotFoundError(constants.ErrMsgTicketNotFound, ticketID))
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", h.mapper.ticket(et))
}

// CreateTicket handles POST /api/tickets. The caller becomes the customer.
func (h *TicketHandler) CreateTicket(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req CreateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for create ticket", "error", err)
		utils.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.createTicketUC.Execute(c.Request.Context(), req.ToCommand(actor.ID))
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	resp := CreateTicketResponse{
		Ticket:               result.Ticket,
		InitialMessageFailed: result.InitialMessageFailed,
	}
	if result.InitialMessage != nil {
		msg := h.mapper.message(result.InitialMessage)
		resp.InitialMessage = &msg
	}

	utils.CreatedResponse(c, resp, "Ticket created successfully")
}

// UpdateTicket handles PATCH /api/tickets/:id. Changing the assignee also
// needs the assign permission.
func (h *TicketHandler) UpdateTicket(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req UpdateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	patch, err := req.ToPatch()
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	if patch.AssignedTo != nil || patch.ClearAssignee {
		allowed, err := h.enforcer.Enforce(actor.Role.String(), permission.ResourceTicket, permission.ActionAssign)
		if err != nil {
			h.logger.Errorw("permission check failed", "error", err, "role", actor.Role)
			utils.ErrorResponse(c, http.StatusInternalServerError, "permission check failed")
			return
		}
		if !allowed {
			utils.ErrorResponse(c, http.StatusForbidden, constants.ErrMsgForbidden)
			return
		}
	}

	updated, err := h.updateTicketUC.Execute(c.Request.Context(), usecases.UpdateTicketCommand{
		TicketID: c.Param("id"),
		Patch:    patch,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Ticket updated successfully", updated)
}

// Reply handles POST /api/tickets/:id/messages. The body is JSON, or a
// multipart form with a content field and any number of files.
func (h *TicketHandler) Reply(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	cmd := usecases.ReplyToTicketCommand{
		TicketID:   c.Param("id"),
		SenderID:   actor.ID,
		SenderRole: actor.Role,
	}

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		form, err := c.MultipartForm()
		if err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "invalid multipart form")
			return
		}
		cmd.Content = firstValue(form.Value[constants.FormFieldContent])

		var headers []*multipart.FileHeader
		headers = append(headers, form.File[constants.FormFieldFiles]...)
		headers = append(headers, form.File[constants.FormFieldFile]...)
		files, closeAll, err := h.openFiles(headers)
		defer closeAll()
		if err != nil {
			utils.ErrorResponseWithError(c, err)
			return
		}
		cmd.Files = files
	} else {
		var req ReplyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, err.Error())
			return
		}
		cmd.Content = req.Content
	}

	result, err := h.replyUC.Execute(c.Request.Context(), cmd)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	resp := ReplyResponse{
		Message:       h.mapper.message(result.Message),
		Reopened:      result.Reopened,
		TicketTouched: result.TicketTouched,
		Attachments:   result.Attachments,
		FailedFiles:   result.FailedFiles,
	}
	if resp.Attachments == nil {
		resp.Attachments = []*domainTicket.Attachment{}
	}
	for _, a := range result.Attachments {
		resp.Message.Attachments = append(resp.Message.Attachments, *a)
	}

	utils.CreatedResponse(c, resp, "Reply posted successfully")
}

// openFiles opens every uploaded part. All parts are size-checked before the
// reply is written, so an oversized file rejects the whole request.
func (h *TicketHandler) openFiles(headers []*multipart.FileHeader) ([]usecases.ReplyFile, func(), error) {
	var closers []io.Closer
	closeAll := func() {
		for _, cl := range closers {
			_ = cl.Close()
		}
	}

	files := make([]usecases.ReplyFile, 0, len(headers))
	for _, fh := range headers {
		if err := checkUploadSize(fh, h.maxUploadBytes); err != nil {
			return nil, closeAll, err
		}
		f, err := fh.Open()
		if err != nil {
			h.logger.Warnw("failed to open uploaded file", "file_name", fh.Filename, "error", err)
			return nil, closeAll, errors.NewBadRequestError("failed to read uploaded file", fh.Filename)
		}
		closers = append(closers, f)
		files = append(files, usecases.ReplyFile{Name: fh.Filename, Size: fh.Size, Content: f})
	}
	return files, closeAll, nil
}

// requireActor returns the resolved profile or writes a 401.
func requireActor(c *gin.Context) (*profile.Profile, bool) {
	p := middleware.GetProfile(c)
	if p == nil {
		utils.ErrorResponse(c, http.StatusUnauthorized, constants.ErrMsgUnauthorized)
		return nil, false
	}
	return p, true
}

func checkUploadSize(fh *multipart.FileHeader, limit int64) error {
	if limit > 0 && fh.Size > limit {
		return errors.NewValidationError("file exceeds maximum upload size",
			fh.Filename+" > "+strconv.FormatInt(limit, 10)+" bytes")
	}
	return nil
}

func firstValue(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
