package ticket

import (
	"context"
	"io"

	vo "github.com/orris-inc/helpdesk/internal/domain/ticket/valueobjects"
)

// Filter restricts a ticket listing. Nil fields do not filter.
type Filter struct {
	CustomerID *string
	Status     *vo.TicketStatus
}

// TicketRepository reads and writes the tickets table. GetByID and Update
// return a NotFound AppError when the row is absent.
type TicketRepository interface {
	// List returns tickets ordered by updated_at descending.
	List(ctx context.Context, filter Filter) ([]*Ticket, error)
	GetByID(ctx context.Context, id string) (*Ticket, error)
	Create(ctx context.Context, t *Ticket) error
	Update(ctx context.Context, id string, patch Patch) (*Ticket, error)
}

type MessageRepository interface {
	// ListByTicketID returns the messages of one ticket ordered by created_at ascending.
	ListByTicketID(ctx context.Context, ticketID string) ([]*Message, error)
	ListRefsByTicketIDs(ctx context.Context, ticketIDs []string) ([]MessageRef, error)
	// GetLatestByTicketID returns the newest message or a NotFound AppError.
	GetLatestByTicketID(ctx context.Context, ticketID string) (*Message, error)
	Create(ctx context.Context, m *Message) error
}

type AttachmentRepository interface {
	ListByMessageIDs(ctx context.Context, messageIDs []string) ([]*Attachment, error)
	Create(ctx context.Context, a *Attachment) error
}

// BlobStore writes attachment content into the attachments bucket.
type BlobStore interface {
	Store(ctx context.Context, path string, content io.Reader) error
}
