package mappers

import (
	"github.com/orris-inc/helpdesk/internal/domain/ticket"
	vo "github.com/orris-inc/helpdesk/internal/domain/ticket/valueobjects"
	"github.com/orris-inc/helpdesk/internal/infrastructure/persistence/models"
	"github.com/orris-inc/helpdesk/internal/shared/biztime"
)

// TicketMapper handles the conversion between ticket aggregates and persistence models.
type TicketMapper interface {
	ToModel(t *ticket.Ticket) *models.TicketModel
	ToDomain(model *models.TicketModel) *ticket.Ticket
	ToDomainList(list []models.TicketModel) []*ticket.Ticket

	MessageToModel(m *ticket.Message) *models.MessageModel
	MessageToDomain(model *models.MessageModel) *ticket.Message
	MessagesToDomain(list []models.MessageModel) []*ticket.Message

	AttachmentToModel(a *ticket.Attachment) *models.AttachmentModel
	AttachmentToDomain(model *models.AttachmentModel) *ticket.Attachment
	AttachmentsToDomain(list []models.AttachmentModel) []*ticket.Attachment
}

// TicketMapperImpl is the concrete implementation of TicketMapper.
type TicketMapperImpl struct{}

// NewTicketMapper creates a new TicketMapper.
func NewTicketMapper() TicketMapper {
	return &TicketMapperImpl{}
}

func (m *TicketMapperImpl) ToModel(t *ticket.Ticket) *models.TicketModel {
	return &models.TicketModel{
		ID:         t.ID,
		Subject:    t.Subject,
		CustomerID: t.CustomerID,
		Status:     t.Status.String(),
		Priority:   t.Priority.String(),
		Category:   t.Category.String(),
		AssignedTo: t.AssignedTo,
		CreatedAt:  biztime.ToMillis(t.CreatedAt),
		UpdatedAt:  biztime.ToMillis(t.UpdatedAt),
	}
}

// ToDomain does not validate enum columns. Values written by other tools
// surface as-is and sort last.
func (m *TicketMapperImpl) ToDomain(model *models.TicketModel) *ticket.Ticket {
	return &ticket.Ticket{
		ID:         model.ID,
		Subject:    model.Subject,
		CustomerID: model.CustomerID,
		Status:     vo.TicketStatus(model.Status),
		Priority:   vo.Priority(model.Priority),
		Category:   vo.Category(model.Category),
		AssignedTo: model.AssignedTo,
		CreatedAt:  biztime.FromMillis(model.CreatedAt),
		UpdatedAt:  biztime.FromMillis(model.UpdatedAt),
	}
}

func (m *TicketMapperImpl) ToDomainList(list []models.TicketModel) []*ticket.Ticket {
	out := make([]*ticket.Ticket, 0, len(list))
	for i := range list {
		out = append(out, m.ToDomain(&list[i]))
	}
	return out
}

func (m *TicketMapperImpl) MessageToModel(msg *ticket.Message) *models.MessageModel {
	return &models.MessageModel{
		ID:        msg.ID,
		TicketID:  msg.TicketID,
		SenderID:  msg.SenderID,
		Content:   msg.Content,
		CreatedAt: biztime.ToMillis(msg.CreatedAt),
	}
}

func (m *TicketMapperImpl) MessageToDomain(model *models.MessageModel) *ticket.Message {
	return &ticket.Message{
		ID:        model.ID,
		TicketID:  model.TicketID,
		SenderID:  model.SenderID,
		Content:   model.Content,
		CreatedAt: biztime.FromMillis(model.CreatedAt),
	}
}

func (m *TicketMapperImpl) MessagesToDomain(list []models.MessageModel) []*ticket.Message {
	out := make([]*ticket.Message, 0, len(list))
	for i := range list {
		out = append(out, m.MessageToDomain(&list[i]))
	}
	return out
}

func (m *TicketMapperImpl) AttachmentToModel(a *ticket.Attachment) *models.AttachmentModel {
	return &models.AttachmentModel{
		ID:        a.ID,
		MessageID: a.MessageID,
		FileName:  a.FileName,
		FilePath:  a.FilePath,
		FileSize:  a.FileSize,
		CreatedAt: biztime.ToMillis(a.CreatedAt),
	}
}

func (m *TicketMapperImpl) AttachmentToDomain(model *models.AttachmentModel) *ticket.Attachment {
	return &ticket.Attachment{
		ID:        model.ID,
		MessageID: model.MessageID,
		FileName:  model.FileName,
		FilePath:  model.FilePath,
		FileSize:  model.FileSize,
		CreatedAt: biztime.FromMillis(model.CreatedAt),
	}
}

func (m *TicketMapperImpl) AttachmentsToDomain(list []models.AttachmentModel) []*ticket.Attachment {
	out := make([]*ticket.Attachment, 0, len(list))
	for i := range list {
		out = append(out, m.AttachmentToDomain(&list[i]))
	}
	return out
}
