package ticket

import (
	"time"

	"github.com/orris-inc/helpdesk/internal/application/ticket/usecases"
	"github.com/orris-inc/helpdesk/internal/domain/profile"
	domainTicket "github.com/orris-inc/helpdesk/internal/domain/ticket"
	vo "github.com/orris-inc/helpdesk/internal/domain/ticket/valueobjects"
	"github.com/orris-inc/helpdesk/internal/shared/errors"
	"github.com/orris-inc/helpdesk/internal/shared/logger"
)

type CreateTicketRequest struct {
	Subject        string `json:"subject" binding:"required,max=200"`
	Priority       string `json:"priority" binding:"omitempty,oneof=low medium high"`
	Category       string `json:"category"`
	InitialMessage string `json:"initial_message" binding:"max=5000"`
}

func (r *CreateTicketRequest) ToCommand(customerID string) usecases.CreateTicketCommand {
	priority := r.Priority
	if priority == "" {
		priority = string(vo.PriorityMedium)
	}
	category := r.Category
	if category == "" {
		category = string(vo.CategoryGeneral)
	}
	return usecases.CreateTicketCommand{
		Subject:        r.Subject,
		CustomerID:     customerID,
		Priority:       priority,
		Category:       category,
		InitialMessage: r.InitialMessage,
	}
}

// UpdateTicketRequest is a partial update. Omitted fields are left as is;
// clear_assignee unassigns the ticket.
type UpdateTicketRequest struct {
	Subject       *string `json:"subject"`
	Status        *string `json:"status"`
	Priority      *string `json:"priority"`
	Category      *string `json:"category"`
	AssignedTo    *string `json:"assigned_to"`
	ClearAssignee bool    `json:"clear_assignee"`
}

func (r *UpdateTicketRequest) ToPatch() (domainTicket.Patch, error) {
	patch := domainTicket.Patch{
		Subject:       r.Subject,
		AssignedTo:    r.AssignedTo,
		ClearAssignee: r.ClearAssignee,
	}
	if r.Status != nil {
		s, err := vo.NewTicketStatus(*r.Status)
		if err != nil {
			return patch, errors.NewValidationError(err.Error())
		}
		patch.Status = &s
	}
	if r.Priority != nil {
		p, err := vo.NewPriority(*r.Priority)
		if err != nil {
			return patch, errors.NewValidationError(err.Error())
		}
		patch.Priority = &p
	}
	if r.Category != nil {
		c, err := vo.NewCategory(*r.Category)
		if err != nil {
			return patch, errors.NewValidationError(err.Error())
		}
		patch.Category = &c
	}
	return patch, nil
}

type ReplyRequest struct {
	Content string `json:"content" binding:"required,max=5000"`
}

type MessageResponse struct {
	ID          string                    `json:"id"`
	TicketID    string                    `json:"ticket_id"`
	SenderID    string                    `json:"sender_id"`
	Content     string                    `json:"content"`
	ContentHTML string                    `json:"content_html"`
	CreatedAt   time.Time                 `json:"created_at"`
	Sender      *profile.Profile          `json:"sender,omitempty"`
	Attachments []domainTicket.Attachment `json:"attachments"`
}

// TicketResponse is the wire shape of an enriched ticket. Messages is
// omitted from list responses.
type TicketResponse struct {
	ID                string                    `json:"id"`
	Subject           string                    `json:"subject"`
	CustomerID        string                    `json:"customer_id"`
	Status            vo.TicketStatus           `json:"status"`
	Priority          vo.Priority               `json:"priority"`
	Category          vo.Category               `json:"category"`
	AssignedTo        *string                   `json:"assigned_to"`
	CreatedAt         time.Time                 `json:"created_at"`
	UpdatedAt         time.Time                 `json:"updated_at"`
	Customer          *profile.Profile          `json:"customer"`
	AssignedToProfile *profile.Profile          `json:"assigned_to_profile"`
	MessageCount      int                       `json:"message_count"`
	LastMessage       *domainTicket.LastMessage `json:"last_message"`
	Messages          []MessageResponse         `json:"messages,omitempty"`
}

type CreateTicketResponse struct {
	Ticket               *domainTicket.Ticket `json:"ticket"`
	InitialMessage       *MessageResponse     `json:"initial_message,omitempty"`
	InitialMessageFailed bool                 `json:"initial_message_failed"`
}

type ReplyResponse struct {
	Message       MessageResponse            `json:"message"`
	Reopened      bool                       `json:"reopened"`
	TicketTouched bool                       `json:"ticket_touched"`
	Attachments   []*domainTicket.Attachment `json:"attachments"`
	FailedFiles   []string                   `json:"failed_files,omitempty"`
}

// ContentRenderer turns a message body into sanitised HTML.
type ContentRenderer interface {
	ToHTMLSanitized(markdown string) (string, error)
}

type responseMapper struct {
	renderer ContentRenderer
	logger   logger.Interface
}

func (m responseMapper) renderContent(content string) string {
	if m.renderer == nil {
		return ""
	}
	out, err := m.renderer.ToHTMLSanitized(content)
	if err != nil {
		m.logger.Warnw("failed to render message content", "error", err)
		return ""
	}
	return out
}

func (m responseMapper) message(msg *domainTicket.Message) MessageResponse {
	return MessageResponse{
		ID:          msg.ID,
		TicketID:    msg.TicketID,
		SenderID:    msg.SenderID,
		Content:     msg.Content,
		ContentHTML: m.renderContent(msg.Content),
		CreatedAt:   msg.CreatedAt,
		Attachments: []domainTicket.Attachment{},
	}
}

func (m responseMapper) enrichedMessage(em domainTicket.EnrichedMessage) MessageResponse {
	out := m.message(&em.Message)
	out.Sender = em.Sender
	if em.Attachments != nil {
		out.Attachments = em.Attachments
	}
	return out
}

func (m responseMapper) ticket(et *domainTicket.EnrichedTicket) TicketResponse {
	out := TicketResponse{
		ID:                et.ID,
		Subject:           et.Subject,
		CustomerID:        et.CustomerID,
		Status:            et.Status,
		Priority:          et.Priority,
		Category:          et.Category,
		AssignedTo:        et.AssignedTo,
		CreatedAt:         et.CreatedAt,
		UpdatedAt:         et.UpdatedAt,
		Customer:          et.Customer,
		AssignedToProfile: et.AssignedToProfile,
		MessageCount:      et.MessageCount,
		LastMessage:       et.LastMessage,
	}
	if et.Messages != nil {
		out.Messages = make([]MessageResponse, 0, len(et.Messages))
		for _, em := range et.Messages {
			out.Messages = append(out.Messages, m.enrichedMessage(em))
		}
	}
	return out
}

func (m responseMapper) tickets(list []*domainTicket.EnrichedTicket) []TicketResponse {
	out := make([]TicketResponse, 0, len(list))
	for _, et := range list {
		out = append(out, m.ticket(et))
	}
	return out
}
