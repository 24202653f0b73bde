package usecases

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/orris-inc/helpdesk/internal/domain/profile"
	"github.com/orris-inc/helpdesk/internal/domain/ticket"
	vo "github.com/orris-inc/helpdesk/internal/domain/ticket/valueobjects"
	"github.com/orris-inc/helpdesk/internal/shared/errors"
	"github.com/orris-inc/helpdesk/internal/shared/logger"
)

const defaultLastMessageParallelism = 8

type ListTicketsQuery struct {
	Role          profile.Role
	CurrentUserID string
	// Status is a ticket status or "all"; empty means all.
	Status string
}

type ListTicketsUseCase struct {
	tickets     ticket.TicketRepository
	messages    ticket.MessageRepository
	profiles    profile.Repository
	logger      logger.Interface
	parallelism int
}

func NewListTicketsUseCase(
	tickets ticket.TicketRepository,
	messages ticket.MessageRepository,
	profiles profile.Repository,
	logger logger.Interface,
) *ListTicketsUseCase {
	return &ListTicketsUseCase{
		tickets:     tickets,
		messages:    messages,
		profiles:    profiles,
		logger:      logger,
		parallelism: defaultLastMessageParallelism,
	}
}

func (uc *ListTicketsUseCase) Execute(ctx context.Context, query ListTicketsQuery) ([]*ticket.EnrichedTicket, error) {
	uc.logger.Infow("executing list tickets use case", "role", query.Role, "status", query.Status)

	filter, err := uc.buildFilter(query)
	if err != nil {
		uc.logger.Warnw("invalid list tickets query", "error", err)
		return nil, err
	}

	rows, err := uc.tickets.List(ctx, filter)
	if err != nil {
		uc.logger.Errorw("failed to list tickets", "error", err)
		return nil, errors.NewInternalError("failed to list tickets").WithCause(err)
	}
	if len(rows) == 0 {
		return []*ticket.EnrichedTicket{}, nil
	}

	customerIDs := make([]string, 0, len(rows))
	assigneeIDs := make([]string, 0, len(rows))
	ticketIDs := make([]string, 0, len(rows))
	for _, t := range rows {
		customerIDs = append(customerIDs, t.CustomerID)
		if t.IsAssigned() {
			assigneeIDs = append(assigneeIDs, *t.AssignedTo)
		}
		ticketIDs = append(ticketIDs, t.ID)
	}

	var (
		customers map[string]*profile.Profile
		assignees map[string]*profile.Profile
		counts    map[string]int
		latest    = make([]*ticket.LastMessage, len(rows))
	)

	// Sub-fetches degrade instead of failing, so the group never reports an error.
	var g errgroup.Group
	g.Go(func() error {
		customers = lookupProfiles(ctx, uc.profiles, distinct(customerIDs), uc.logger, "customer")
		return nil
	})
	g.Go(func() error {
		assignees = lookupProfiles(ctx, uc.profiles, distinct(assigneeIDs), uc.logger, "assigned_to_profile")
		return nil
	})
	g.Go(func() error {
		counts = uc.countMessages(ctx, ticketIDs)
		return nil
	})
	g.Go(func() error {
		uc.loadLastMessages(ctx, rows, latest)
		return nil
	})
	_ = g.Wait()

	out := make([]*ticket.EnrichedTicket, len(rows))
	for i, t := range rows {
		et := &ticket.EnrichedTicket{
			Ticket:       *t,
			Customer:     customers[t.CustomerID],
			Messages:     []ticket.EnrichedMessage{},
			MessageCount: counts[t.ID],
			LastMessage:  latest[i],
		}
		if t.IsAssigned() {
			et.AssignedToProfile = assignees[*t.AssignedTo]
		}
		out[i] = et
	}

	uc.logger.Infow("tickets listed", "count", len(out))
	return out, nil
}

func (uc *ListTicketsUseCase) buildFilter(query ListTicketsQuery) (ticket.Filter, error) {
	if !query.Role.IsValid() {
		return ticket.Filter{}, errors.NewValidationError("invalid role", string(query.Role))
	}

	status, err := vo.ParseStatusFilter(query.Status)
	if err != nil {
		return ticket.Filter{}, errors.NewValidationError(err.Error())
	}

	filter := ticket.Filter{Status: status}
	if query.Role.IsCustomer() {
		if query.CurrentUserID == "" {
			return ticket.Filter{}, errors.NewValidationError("current user ID is required for customers")
		}
		customerID := query.CurrentUserID
		filter.CustomerID = &customerID
	}
	return filter, nil
}

func (uc *ListTicketsUseCase) countMessages(ctx context.Context, ticketIDs []string) map[string]int {
	refs, err := uc.messages.ListRefsByTicketIDs(ctx, ticketIDs)
	if err != nil {
		uc.logger.Warnw("message count lookup failed, degrading to zero", "tickets", len(ticketIDs), "error", err)
		return map[string]int{}
	}
	return ticket.CountByTicket(refs)
}

// loadLastMessages issues one latest-message query per ticket and writes the
// summaries into out by position.
func (uc *ListTicketsUseCase) loadLastMessages(ctx context.Context, rows []*ticket.Ticket, out []*ticket.LastMessage) {
	var g errgroup.Group
	g.SetLimit(uc.parallelism)

	for i, t := range rows {
		g.Go(func() error {
			m, err := uc.messages.GetLatestByTicketID(ctx, t.ID)
			if err != nil {
				if !errors.IsNotFoundError(err) {
					uc.logger.Warnw("last message lookup failed, degrading to null", "ticket_id", t.ID, "error", err)
				}
				return nil
			}
			out[i] = ticket.NewLastMessage(m)
			return nil
		})
	}
	_ = g.Wait()
}
