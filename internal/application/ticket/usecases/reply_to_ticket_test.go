package usecases

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orris-inc/helpdesk/internal/domain/profile"
	"github.com/orris-inc/helpdesk/internal/domain/ticket"
	vo "github.com/orris-inc/helpdesk/internal/domain/ticket/valueobjects"
	apperrors "github.com/orris-inc/helpdesk/internal/shared/errors"
	"github.com/orris-inc/helpdesk/internal/shared/logger"
)

func TestReplyToTicketUseCase_CustomerReopensResolved(t *testing.T) {
	var steps []string
	tickets := &mockTicketRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*ticket.Ticket, error) {
			return newTestTicket(id, "c-1", vo.StatusResolved, 10), nil
		},
	}
	update := &mockUpdateTicketExecutor{
		ExecuteFunc: func(ctx context.Context, cmd UpdateTicketCommand) (*ticket.Ticket, error) {
			require.NotNil(t, cmd.Patch.Status)
			assert.Equal(t, vo.StatusOpen, *cmd.Patch.Status)
			steps = append(steps, "reopen")
			return &ticket.Ticket{ID: cmd.TicketID, Status: vo.StatusOpen}, nil
		},
	}
	create := &mockCreateMessageExecutor{
		ExecuteFunc: func(ctx context.Context, cmd CreateMessageCommand) (*CreateMessageResult, error) {
			steps = append(steps, "message")
			return &CreateMessageResult{Message: &ticket.Message{ID: "m-1", TicketID: cmd.TicketID}, TicketTouched: true}, nil
		},
	}
	uc := NewReplyToTicketUseCase(tickets, update, create, &mockUploadAttachmentExecutor{}, logger.NewNop())

	result, err := uc.Execute(context.Background(), ReplyToTicketCommand{
		TicketID:   "t1",
		SenderID:   "c-1",
		SenderRole: profile.RoleCustomer,
		Content:    "still broken",
	})

	require.NoError(t, err)
	assert.True(t, result.Reopened)
	assert.Equal(t, []string{"reopen", "message"}, steps)
}

func TestReplyToTicketUseCase_AdminDoesNotReopen(t *testing.T) {
	tickets := &mockTicketRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*ticket.Ticket, error) {
			return newTestTicket(id, "c-1", vo.StatusResolved, 10), nil
		},
	}
	update := &mockUpdateTicketExecutor{
		ExecuteFunc: func(ctx context.Context, cmd UpdateTicketCommand) (*ticket.Ticket, error) {
			t.Fatal("admin replies must not change status")
			return nil, nil
		},
	}
	uc := NewReplyToTicketUseCase(tickets, update, &mockCreateMessageExecutor{}, &mockUploadAttachmentExecutor{}, logger.NewNop())

	result, err := uc.Execute(context.Background(), ReplyToTicketCommand{
		TicketID:   "t1",
		SenderID:   "a-1",
		SenderRole: profile.RoleAdmin,
		Content:    "closing note",
	})

	require.NoError(t, err)
	assert.False(t, result.Reopened)
}

func TestReplyToTicketUseCase_ReopenFailureAborts(t *testing.T) {
	tickets := &mockTicketRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*ticket.Ticket, error) {
			return newTestTicket(id, "c-1", vo.StatusResolved, 10), nil
		},
	}
	update := &mockUpdateTicketExecutor{
		ExecuteFunc: func(ctx context.Context, cmd UpdateTicketCommand) (*ticket.Ticket, error) {
			return nil, apperrors.NewInternalError("failed to update ticket")
		},
	}
	create := &mockCreateMessageExecutor{
		ExecuteFunc: func(ctx context.Context, cmd CreateMessageCommand) (*CreateMessageResult, error) {
			t.Fatal("message must not be recorded while the ticket is still resolved")
			return nil, nil
		},
	}
	uc := NewReplyToTicketUseCase(tickets, update, create, &mockUploadAttachmentExecutor{}, logger.NewNop())

	_, err := uc.Execute(context.Background(), ReplyToTicketCommand{
		TicketID: "t1", SenderID: "c-1", SenderRole: profile.RoleCustomer, Content: "hello?",
	})

	assert.Error(t, err)
}

func TestReplyToTicketUseCase_ForeignTicketIsHidden(t *testing.T) {
	tickets := &mockTicketRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*ticket.Ticket, error) {
			return newTestTicket(id, "c-2", vo.StatusOpen, 1), nil
		},
	}
	uc := NewReplyToTicketUseCase(tickets, &mockUpdateTicketExecutor{}, &mockCreateMessageExecutor{}, &mockUploadAttachmentExecutor{}, logger.NewNop())

	_, err := uc.Execute(context.Background(), ReplyToTicketCommand{
		TicketID: "t1", SenderID: "c-1", SenderRole: profile.RoleCustomer, Content: "hi",
	})

	assert.True(t, apperrors.IsNotFoundError(err))
}

func TestReplyToTicketUseCase_CollectsAttachmentFailures(t *testing.T) {
	tickets := &mockTicketRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*ticket.Ticket, error) {
			return newTestTicket(id, "c-1", vo.StatusOpen, 1), nil
		},
	}
	upload := &mockUploadAttachmentExecutor{
		ExecuteFunc: func(ctx context.Context, cmd UploadAttachmentCommand) (*ticket.Attachment, error) {
			if cmd.FileName == "bad.bin" {
				return nil, errors.New("bucket unavailable")
			}
			return &ticket.Attachment{ID: "f-1", MessageID: cmd.MessageID, FileName: cmd.FileName}, nil
		},
	}
	uc := NewReplyToTicketUseCase(tickets, &mockUpdateTicketExecutor{}, &mockCreateMessageExecutor{}, upload, logger.NewNop())

	result, err := uc.Execute(context.Background(), ReplyToTicketCommand{
		TicketID:   "t1",
		SenderID:   "c-1",
		SenderRole: profile.RoleCustomer,
		Content:    "logs attached",
		Files: []ReplyFile{
			{Name: "good.log", Size: 3, Content: strings.NewReader("abc")},
			{Name: "bad.bin", Size: 3, Content: strings.NewReader("xyz")},
		},
	})

	require.NoError(t, err)
	require.Len(t, result.Attachments, 1)
	assert.Equal(t, "m-new", result.Attachments[0].MessageID)
	assert.Equal(t, []string{"bad.bin"}, result.FailedFiles)
}

func TestReplyToTicketUseCase_EmptyContentNeverReopens(t *testing.T) {
	tickets := &mockTicketRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*ticket.Ticket, error) {
			t.Fatal("ticket must not be read for an empty reply")
			return nil, nil
		},
	}
	uc := NewReplyToTicketUseCase(tickets, &mockUpdateTicketExecutor{}, &mockCreateMessageExecutor{}, &mockUploadAttachmentExecutor{}, logger.NewNop())

	_, err := uc.Execute(context.Background(), ReplyToTicketCommand{
		TicketID: "t1", SenderID: "c-1", SenderRole: profile.RoleCustomer, Content: "  ",
	})

	assert.True(t, apperrors.IsValidationError(err))
}

// Reply against the in-memory backend: status change and message both persist.
func TestReplyToTicketUseCase_ResolvedTicketScenario(t *testing.T) {
	store := newMemStore()
	tickets := memTickets{store}
	messages := memMessages{store}
	log := logger.NewNop()

	update := NewUpdateTicketUseCase(tickets, log)
	create := NewCreateMessageUseCase(messages, update, log)
	upload := NewUploadAttachmentUseCase(&mockBlobStore{}, memAttachments{store}, log)
	uc := NewReplyToTicketUseCase(tickets, update, create, upload, log)

	tk := newTestTicket("", "c-1", vo.StatusResolved, 0)
	require.NoError(t, tickets.Create(context.Background(), tk))

	_, err := uc.Execute(context.Background(), ReplyToTicketCommand{
		TicketID: tk.ID, SenderID: "c-1", SenderRole: profile.RoleCustomer, Content: "it happened again",
	})
	require.NoError(t, err)

	after, err := tickets.GetByID(context.Background(), tk.ID)
	require.NoError(t, err)
	assert.Equal(t, vo.StatusOpen, after.Status)

	thread, err := messages.ListByTicketID(context.Background(), tk.ID)
	require.NoError(t, err)
	require.Len(t, thread, 1)
	assert.Equal(t, "it happened again", thread[0].Content)
}
