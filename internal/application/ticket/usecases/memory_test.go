package usecases

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/orris-inc/helpdesk/internal/domain/profile"
	"github.com/orris-inc/helpdesk/internal/domain/ticket"
	apperrors "github.com/orris-inc/helpdesk/internal/shared/errors"
)

// memStore is an in-memory backend with insertion-ordered tables.
type memStore struct {
	mu          sync.Mutex
	seq         int
	tickets     []*ticket.Ticket
	messages    []*ticket.Message
	attachments []*ticket.Attachment
	profiles    map[string]*profile.Profile
}

func newMemStore() *memStore {
	return &memStore{profiles: map[string]*profile.Profile{}}
}

func (s *memStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

type memTickets struct{ *memStore }

func (r memTickets) List(ctx context.Context, filter ticket.Filter) ([]*ticket.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*ticket.Ticket
	for _, t := range r.tickets {
		if filter.CustomerID != nil && t.CustomerID != *filter.CustomerID {
			continue
		}
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (r memTickets) GetByID(ctx context.Context, id string) (*ticket.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tickets {
		if t.ID == id {
			cp := *t
			return &cp, nil
		}
	}
	return nil, apperrors.NewNotFoundError("ticket not found")
}

func (r memTickets) Create(ctx context.Context, t *ticket.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t.ID = r.nextID("t")
	cp := *t
	r.tickets = append(r.tickets, &cp)
	return nil
}

func (r memTickets) Update(ctx context.Context, id string, patch ticket.Patch) (*ticket.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tickets {
		if t.ID == id {
			patch.Apply(t)
			cp := *t
			return &cp, nil
		}
	}
	return nil, apperrors.NewNotFoundError("ticket not found")
}

type memMessages struct{ *memStore }

func (r memMessages) ListByTicketID(ctx context.Context, ticketID string) ([]*ticket.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*ticket.Message
	for _, m := range r.messages {
		if m.TicketID == ticketID {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r memMessages) ListRefsByTicketIDs(ctx context.Context, ticketIDs []string) ([]ticket.MessageRef, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	want := map[string]bool{}
	for _, id := range ticketIDs {
		want[id] = true
	}
	var out []ticket.MessageRef
	for _, m := range r.messages {
		if want[m.TicketID] {
			out = append(out, ticket.MessageRef{ID: m.ID, TicketID: m.TicketID})
		}
	}
	return out, nil
}

func (r memMessages) GetLatestByTicketID(ctx context.Context, ticketID string) (*ticket.Message, error) {
	msgs, _ := r.ListByTicketID(ctx, ticketID)
	if len(msgs) == 0 {
		return nil, apperrors.NewNotFoundError("no messages")
	}
	return msgs[len(msgs)-1], nil
}

func (r memMessages) Create(ctx context.Context, m *ticket.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m.ID = r.nextID("m")
	cp := *m
	r.messages = append(r.messages, &cp)
	return nil
}

type memAttachments struct{ *memStore }

func (r memAttachments) ListByMessageIDs(ctx context.Context, ids []string) ([]*ticket.Attachment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	want := map[string]bool{}
	for _, id := range ids {
		want[id] = true
	}
	var out []*ticket.Attachment
	for _, a := range r.attachments {
		if want[a.MessageID] {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r memAttachments) Create(ctx context.Context, a *ticket.Attachment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a.ID = r.nextID("f")
	cp := *a
	r.attachments = append(r.attachments, &cp)
	return nil
}

type memProfiles struct{ *memStore }

func (r memProfiles) GetByID(ctx context.Context, id string) (*profile.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.profiles[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, apperrors.NewNotFoundError("profile not found")
}

func (r memProfiles) ListByIDs(ctx context.Context, ids []string) ([]*profile.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*profile.Profile
	for _, id := range ids {
		if p, ok := r.profiles[id]; ok {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r memProfiles) Create(ctx context.Context, p *profile.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.profiles[p.ID]; ok {
		return apperrors.NewConflictError("profile already exists")
	}
	cp := *p
	r.profiles[p.ID] = &cp
	return nil
}

func (r memProfiles) Update(ctx context.Context, id string, patch profile.Patch) (*profile.Profile, error) {
	return nil, apperrors.NewInternalError("not supported")
}
