package usecases

import (
	"context"
	"io"

	"github.com/orris-inc/helpdesk/internal/domain/profile"
	"github.com/orris-inc/helpdesk/internal/domain/ticket"
)

type mockTicketRepository struct {
	ListFunc    func(ctx context.Context, filter ticket.Filter) ([]*ticket.Ticket, error)
	GetByIDFunc func(ctx context.Context, id string) (*ticket.Ticket, error)
	CreateFunc  func(ctx context.Context, t *ticket.Ticket) error
	UpdateFunc  func(ctx context.Context, id string, patch ticket.Patch) (*ticket.Ticket, error)
}

func (m *mockTicketRepository) List(ctx context.Context, filter ticket.Filter) ([]*ticket.Ticket, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	return nil, nil
}

func (m *mockTicketRepository) GetByID(ctx context.Context, id string) (*ticket.Ticket, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockTicketRepository) Create(ctx context.Context, t *ticket.Ticket) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, t)
	}
	return nil
}

func (m *mockTicketRepository) Update(ctx context.Context, id string, patch ticket.Patch) (*ticket.Ticket, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, patch)
	}
	return nil, nil
}

type mockMessageRepository struct {
	ListByTicketIDFunc      func(ctx context.Context, ticketID string) ([]*ticket.Message, error)
	ListRefsByTicketIDsFunc func(ctx context.Context, ticketIDs []string) ([]ticket.MessageRef, error)
	GetLatestByTicketIDFunc func(ctx context.Context, ticketID string) (*ticket.Message, error)
	CreateFunc              func(ctx context.Context, m *ticket.Message) error
}

func (m *mockMessageRepository) ListByTicketID(ctx context.Context, ticketID string) ([]*ticket.Message, error) {
	if m.ListByTicketIDFunc != nil {
		return m.ListByTicketIDFunc(ctx, ticketID)
	}
	return nil, nil
}

func (m *mockMessageRepository) ListRefsByTicketIDs(ctx context.Context, ticketIDs []string) ([]ticket.MessageRef, error) {
	if m.ListRefsByTicketIDsFunc != nil {
		return m.ListRefsByTicketIDsFunc(ctx, ticketIDs)
	}
	return nil, nil
}

func (m *mockMessageRepository) GetLatestByTicketID(ctx context.Context, ticketID string) (*ticket.Message, error) {
	if m.GetLatestByTicketIDFunc != nil {
		return m.GetLatestByTicketIDFunc(ctx, ticketID)
	}
	return nil, nil
}

func (m *mockMessageRepository) Create(ctx context.Context, msg *ticket.Message) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, msg)
	}
	return nil
}

type mockAttachmentRepository struct {
	ListByMessageIDsFunc func(ctx context.Context, messageIDs []string) ([]*ticket.Attachment, error)
	CreateFunc           func(ctx context.Context, a *ticket.Attachment) error
}

func (m *mockAttachmentRepository) ListByMessageIDs(ctx context.Context, messageIDs []string) ([]*ticket.Attachment, error) {
	if m.ListByMessageIDsFunc != nil {
		return m.ListByMessageIDsFunc(ctx, messageIDs)
	}
	return nil, nil
}

func (m *mockAttachmentRepository) Create(ctx context.Context, a *ticket.Attachment) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, a)
	}
	return nil
}

type mockProfileRepository struct {
	GetByIDFunc   func(ctx context.Context, id string) (*profile.Profile, error)
	ListByIDsFunc func(ctx context.Context, ids []string) ([]*profile.Profile, error)
	CreateFunc    func(ctx context.Context, p *profile.Profile) error
	UpdateFunc    func(ctx context.Context, id string, patch profile.Patch) (*profile.Profile, error)
}

func (m *mockProfileRepository) GetByID(ctx context.Context, id string) (*profile.Profile, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockProfileRepository) ListByIDs(ctx context.Context, ids []string) ([]*profile.Profile, error) {
	if m.ListByIDsFunc != nil {
		return m.ListByIDsFunc(ctx, ids)
	}
	return nil, nil
}

func (m *mockProfileRepository) Create(ctx context.Context, p *profile.Profile) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, p)
	}
	return nil
}

func (m *mockProfileRepository) Update(ctx context.Context, id string, patch profile.Patch) (*profile.Profile, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, patch)
	}
	return nil, nil
}

type mockBlobStore struct {
	StoreFunc func(ctx context.Context, path string, content io.Reader) error
}

func (m *mockBlobStore) Store(ctx context.Context, path string, content io.Reader) error {
	if m.StoreFunc != nil {
		return m.StoreFunc(ctx, path, content)
	}
	return nil
}

type mockUpdateTicketExecutor struct {
	ExecuteFunc func(ctx context.Context, cmd UpdateTicketCommand) (*ticket.Ticket, error)
}

func (m *mockUpdateTicketExecutor) Execute(ctx context.Context, cmd UpdateTicketCommand) (*ticket.Ticket, error) {
	if m.ExecuteFunc != nil {
		return m.ExecuteFunc(ctx, cmd)
	}
	return &ticket.Ticket{ID: cmd.TicketID}, nil
}

type mockCreateMessageExecutor struct {
	ExecuteFunc func(ctx context.Context, cmd CreateMessageCommand) (*CreateMessageResult, error)
}

func (m *mockCreateMessageExecutor) Execute(ctx context.Context, cmd CreateMessageCommand) (*CreateMessageResult, error) {
	if m.ExecuteFunc != nil {
		return m.ExecuteFunc(ctx, cmd)
	}
	return &CreateMessageResult{Message: &ticket.Message{ID: "m-new", TicketID: cmd.TicketID}, TicketTouched: true}, nil
}

type mockUploadAttachmentExecutor struct {
	ExecuteFunc func(ctx context.Context, cmd UploadAttachmentCommand) (*ticket.Attachment, error)
}

func (m *mockUploadAttachmentExecutor) Execute(ctx context.Context, cmd UploadAttachmentCommand) (*ticket.Attachment, error) {
	if m.ExecuteFunc != nil {
		return m.ExecuteFunc(ctx, cmd)
	}
	return &ticket.Attachment{MessageID: cmd.MessageID, FileName: cmd.FileName}, nil
}
