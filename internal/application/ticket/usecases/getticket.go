package usecases

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/orris-inc/helpdesk/internal/domain/profile"
	"github.com/orris-inc/helpdesk/internal/domain/ticket"
	"github.com/orris-inc/helpdesk/internal/shared/errors"
	"github.com/orris-inc/helpdesk/internal/shared/logger"
)

type GetTicketQuery struct {
	TicketID string
}

type GetTicketUseCase struct {
	tickets     ticket.TicketRepository
	messages    ticket.MessageRepository
	attachments ticket.AttachmentRepository
	profiles    profile.Repository
	logger      logger.Interface
}

func NewGetTicketUseCase(
	tickets ticket.TicketRepository,
	messages ticket.MessageRepository,
	attachments ticket.AttachmentRepository,
	profiles profile.Repository,
	logger logger.Interface,
) *GetTicketUseCase {
	return &GetTicketUseCase{
		tickets:     tickets,
		messages:    messages,
		attachments: attachments,
		profiles:    profiles,
		logger:      logger,
	}
}

func (uc *GetTicketUseCase) Execute(ctx context.Context, query GetTicketQuery) (*ticket.EnrichedTicket, error) {
	uc.logger.Infow("executing get ticket use case", "ticket_id", query.TicketID)

	if query.TicketID == "" {
		return nil, errors.NewValidationError("ticket ID is required")
	}

	t, err := uc.tickets.GetByID(ctx, query.TicketID)
	if err != nil {
		if errors.IsNotFoundError(err) {
			return nil, errors.NewNotFoundError("ticket not found", query.TicketID)
		}
		uc.logger.Errorw("failed to get ticket", "ticket_id", query.TicketID, "error", err)
		return nil, errors.NewInternalError("failed to get ticket").WithCause(err)
	}

	var (
		customer *profile.Profile
		assignee *profile.Profile
		messages []*ticket.Message
	)

	var g errgroup.Group
	g.Go(func() error {
		customer = uc.fetchProfile(ctx, t.CustomerID, "customer")
		return nil
	})
	if t.IsAssigned() {
		g.Go(func() error {
			assignee = uc.fetchProfile(ctx, *t.AssignedTo, "assigned_to_profile")
			return nil
		})
	}
	g.Go(func() error {
		messages = uc.fetchMessages(ctx, t.ID)
		return nil
	})
	_ = g.Wait()

	thread := uc.decorateMessages(ctx, messages)

	et := &ticket.EnrichedTicket{
		Ticket:            *t,
		Customer:          customer,
		AssignedToProfile: assignee,
		Messages:          thread,
		MessageCount:      len(thread),
	}
	if n := len(messages); n > 0 {
		et.LastMessage = ticket.NewLastMessage(messages[n-1])
	}

	return et, nil
}

func (uc *GetTicketUseCase) fetchProfile(ctx context.Context, id, field string) *profile.Profile {
	p, err := uc.profiles.GetByID(ctx, id)
	if err != nil {
		if !errors.IsNotFoundError(err) {
			uc.logger.Warnw("profile lookup failed, degrading to null", "field", field, "profile_id", id, "error", err)
		}
		return nil
	}
	return p
}

func (uc *GetTicketUseCase) fetchMessages(ctx context.Context, ticketID string) []*ticket.Message {
	messages, err := uc.messages.ListByTicketID(ctx, ticketID)
	if err != nil {
		uc.logger.Warnw("message lookup failed, degrading to empty thread", "ticket_id", ticketID, "error", err)
		return nil
	}
	// Storage already orders by created_at; a stable sort keeps insertion
	// order for equal timestamps.
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})
	return messages
}

// decorateMessages resolves senders and attachments with one batch query each.
func (uc *GetTicketUseCase) decorateMessages(ctx context.Context, messages []*ticket.Message) []ticket.EnrichedMessage {
	out := make([]ticket.EnrichedMessage, 0, len(messages))
	if len(messages) == 0 {
		return out
	}

	senderIDs := make([]string, 0, len(messages))
	messageIDs := make([]string, 0, len(messages))
	for _, m := range messages {
		senderIDs = append(senderIDs, m.SenderID)
		messageIDs = append(messageIDs, m.ID)
	}

	var (
		senders     map[string]*profile.Profile
		attachments map[string][]ticket.Attachment
	)

	var g errgroup.Group
	g.Go(func() error {
		senders = lookupProfiles(ctx, uc.profiles, distinct(senderIDs), uc.logger, "sender")
		return nil
	})
	g.Go(func() error {
		rows, err := uc.attachments.ListByMessageIDs(ctx, messageIDs)
		if err != nil {
			uc.logger.Warnw("attachment lookup failed, degrading to empty lists", "messages", len(messageIDs), "error", err)
			attachments = map[string][]ticket.Attachment{}
			return nil
		}
		attachments = ticket.GroupByMessage(rows)
		return nil
	})
	_ = g.Wait()

	for _, m := range messages {
		files := attachments[m.ID]
		if files == nil {
			files = []ticket.Attachment{}
		}
		out = append(out, ticket.EnrichedMessage{
			Message:     *m,
			Sender:      senders[m.SenderID],
			Attachments: files,
		})
	}
	return out
}
