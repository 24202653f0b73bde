package ticket

import (
	"fmt"
	"strings"
	"time"

	"github.com/orris-inc/helpdesk/internal/domain/profile"
	vo "github.com/orris-inc/helpdesk/internal/domain/ticket/valueobjects"
)

const MaxSubjectLength = 200

type Ticket struct {
	ID         string          `json:"id"`
	Subject    string          `json:"subject"`
	CustomerID string          `json:"customer_id"`
	Status     vo.TicketStatus `json:"status"`
	Priority   vo.Priority     `json:"priority"`
	Category   vo.Category     `json:"category"`
	AssignedTo *string         `json:"assigned_to"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// NewTicket builds a ticket opened by a customer. New tickets are always open.
func NewTicket(
	subject string,
	customerID string,
	priority vo.Priority,
	category vo.Category,
	now time.Time,
) (*Ticket, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return nil, fmt.Errorf("subject is required")
	}
	if len(subject) > MaxSubjectLength {
		return nil, fmt.Errorf("subject exceeds maximum length of %d characters", MaxSubjectLength)
	}
	if customerID == "" {
		return nil, fmt.Errorf("customer ID is required")
	}
	if !priority.IsValid() {
		return nil, fmt.Errorf("invalid priority: %s", priority)
	}
	if !category.IsValid() {
		return nil, fmt.Errorf("invalid category: %s", category)
	}

	return &Ticket{
		Subject:    subject,
		CustomerID: customerID,
		Status:     vo.StatusOpen,
		Priority:   priority,
		Category:   category,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// CanBeViewedBy reports whether a user with the given role may read the ticket.
func (t *Ticket) CanBeViewedBy(userID string, role profile.Role) bool {
	return role.IsAdmin() || t.CustomerID == userID
}

// IsAssigned reports whether an admin has been assigned.
func (t *Ticket) IsAssigned() bool {
	return t.AssignedTo != nil && *t.AssignedTo != ""
}

// Patch is a partial ticket update. UpdatedAt is always written; an empty
// patch only refreshes the timestamp.
type Patch struct {
	Subject       *string
	Status        *vo.TicketStatus
	Priority      *vo.Priority
	Category      *vo.Category
	AssignedTo    *string
	ClearAssignee bool
	UpdatedAt     time.Time
}

// IsEmpty reports whether the patch carries no field besides the timestamp.
func (p Patch) IsEmpty() bool {
	return p.Subject == nil && p.Status == nil && p.Priority == nil &&
		p.Category == nil && p.AssignedTo == nil && !p.ClearAssignee
}

// Validate rejects out-of-enum values before they reach storage.
func (p Patch) Validate() error {
	if p.Subject != nil {
		s := strings.TrimSpace(*p.Subject)
		if s == "" {
			return fmt.Errorf("subject is required")
		}
		if len(s) > MaxSubjectLength {
			return fmt.Errorf("subject exceeds maximum length of %d characters", MaxSubjectLength)
		}
	}
	if p.Status != nil && !p.Status.IsValid() {
		return fmt.Errorf("invalid ticket status: %s", *p.Status)
	}
	if p.Priority != nil && !p.Priority.IsValid() {
		return fmt.Errorf("invalid priority: %s", *p.Priority)
	}
	if p.Category != nil && !p.Category.IsValid() {
		return fmt.Errorf("invalid category: %s", *p.Category)
	}
	if p.AssignedTo != nil && p.ClearAssignee {
		return fmt.Errorf("cannot assign and clear assignee at once")
	}
	return nil
}

// Apply writes the patch onto t. Used by in-memory stores and tests.
func (p Patch) Apply(t *Ticket) {
	if p.Subject != nil {
		t.Subject = strings.TrimSpace(*p.Subject)
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.AssignedTo != nil {
		id := *p.AssignedTo
		t.AssignedTo = &id
	}
	if p.ClearAssignee {
		t.AssignedTo = nil
	}
	if !p.UpdatedAt.IsZero() {
		t.UpdatedAt = p.UpdatedAt
	}
}
