package ticket

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/orris-inc/helpdesk/internal/application/ticket/usecases"
	domainTicket "github.com/orris-inc/helpdesk/internal/domain/ticket"
)

type mockListTickets struct {
	result []*domainTicket.EnrichedTicket
	err    error
	query  usecases.ListTicketsQuery
}

func (m *mockListTickets) Execute(_ context.Context, q usecases.ListTicketsQuery) ([]*domainTicket.EnrichedTicket, error) {
	m.query = q
	return m.result, m.err
}

type mockGetTicket struct {
	result *domainTicket.EnrichedTicket
	err    error
}

func (m *mockGetTicket) Execute(_ context.Context, _ usecases.GetTicketQuery) (*domainTicket.EnrichedTicket, error) {
	return m.result, m.err
}

type mockCreateTicket struct {
	result *usecases.CreateTicketResult
	err    error
	cmd    usecases.CreateTicketCommand
}

func (m *mockCreateTicket) Execute(_ context.Context, cmd usecases.CreateTicketCommand) (*usecases.CreateTicketResult, error) {
	m.cmd = cmd
	return m.result, m.err
}

type mockUpdateTicket struct {
	err    error
	calls  int
	cmd    usecases.UpdateTicketCommand
	ticket *domainTicket.Ticket
}

func (m *mockUpdateTicket) Execute(_ context.Context, cmd usecases.UpdateTicketCommand) (*domainTicket.Ticket, error) {
	m.calls++
	m.cmd = cmd
	if m.err != nil {
		return nil, m.err
	}
	t := *m.ticket
	cmd.Patch.Apply(&t)
	return &t, nil
}

type mockReply struct {
	err      error
	cmd      usecases.ReplyToTicketCommand
	calls    int
	contents map[string]string
}

func (m *mockReply) Execute(_ context.Context, cmd usecases.ReplyToTicketCommand) (*usecases.ReplyToTicketResult, error) {
	m.calls++
	m.cmd = cmd
	if m.err != nil {
		return nil, m.err
	}
	m.contents = make(map[string]string)
	msg := &domainTicket.Message{ID: "m-1", TicketID: cmd.TicketID, SenderID: cmd.SenderID, Content: cmd.Content}
	result := &usecases.ReplyToTicketResult{Message: msg, TicketTouched: true}
	for _, f := range cmd.Files {
		b, _ := io.ReadAll(f.Content)
		m.contents[f.Name] = string(b)
		result.Attachments = append(result.Attachments, &domainTicket.Attachment{
			ID: "a-" + f.Name, MessageID: msg.ID, FileName: f.Name, FilePath: msg.ID + "/" + f.Name, FileSize: f.Size,
		})
	}
	return result, nil
}

type mockUpload struct {
	err   error
	calls int
	cmd   usecases.UploadAttachmentCommand
}

func (m *mockUpload) Execute(_ context.Context, cmd usecases.UploadAttachmentCommand) (*domainTicket.Attachment, error) {
	m.calls++
	m.cmd = cmd
	if m.err != nil {
		return nil, m.err
	}
	return &domainTicket.Attachment{ID: "a-1", MessageID: cmd.MessageID, FileName: cmd.FileName, FileSize: cmd.FileSize}, nil
}

type mockEnforcer struct {
	allow map[string]bool
	err   error
}

func (m *mockEnforcer) Enforce(sub, resource, action string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	return m.allow[sub+":"+resource+":"+action], nil
}

// upperRenderer stands in for the markdown service.
type upperRenderer struct {
	fail bool
}

func (r upperRenderer) ToHTMLSanitized(md string) (string, error) {
	if r.fail {
		return "", errors.New("render failed")
	}
	return "<p>" + strings.ToUpper(md) + "</p>\n", nil
}

type mockMessageReader struct {
	msg *domainTicket.Message
	err error
}

func (m *mockMessageReader) GetByID(_ context.Context, _ string) (*domainTicket.Message, error) {
	return m.msg, m.err
}

type mockTicketReader struct {
	ticket *domainTicket.Ticket
	err    error
}

func (m *mockTicketReader) GetByID(_ context.Context, _ string) (*domainTicket.Ticket, error) {
	return m.ticket, m.err
}
