package permission

import (
	"fmt"

	"github.com/orris-inc/helpdesk/internal/domain/profile"
)

const (
	ResourceTicket     = "ticket"
	ResourceMessage    = "message"
	ResourceAttachment = "attachment"
	ResourceProfile    = "profile"
	ResourceNavigation = "navigation"
)

const (
	ActionRead   = "read"
	ActionCreate = "create"
	ActionUpdate = "update"
	// ActionAssign changes the assignee of a ticket.
	ActionAssign = "assign"
)

// DefaultPolicies is the role matrix seeded on startup. Customer ownership
// of individual tickets is checked by the handlers, not here.
func DefaultPolicies() [][]string {
	admin := profile.RoleAdmin.String()
	customer := profile.RoleCustomer.String()

	return [][]string{
		{admin, ResourceTicket, ActionRead},
		{admin, ResourceTicket, ActionCreate},
		{admin, ResourceTicket, ActionUpdate},
		{admin, ResourceTicket, ActionAssign},
		{admin, ResourceMessage, ActionCreate},
		{admin, ResourceAttachment, ActionCreate},
		{admin, ResourceProfile, ActionRead},
		{admin, ResourceProfile, ActionUpdate},
		{admin, ResourceNavigation, ActionRead},

		{customer, ResourceTicket, ActionRead},
		{customer, ResourceTicket, ActionCreate},
		{customer, ResourceMessage, ActionCreate},
		{customer, ResourceAttachment, ActionCreate},
		{customer, ResourceProfile, ActionRead},
		{customer, ResourceProfile, ActionUpdate},
		{customer, ResourceNavigation, ActionRead},
	}
}

// SeedDefaultPolicies adds any missing default policy.
func (e *Enforcer) SeedDefaultPolicies() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	added := 0
	for _, p := range DefaultPolicies() {
		ok, err := e.enforcer.AddPolicy(p[0], p[1], p[2])
		if err != nil {
			e.logger.Errorw("failed to add permission policy",
				"error", err,
				"role", p[0],
				"resource", p[1],
				"action", p[2])
			return fmt.Errorf("failed to add policy [%s, %s, %s]: %w", p[0], p[1], p[2], err)
		}
		if ok {
			added++
		}
	}

	e.logger.Infow("permission policies seeded", "added", added)
	return nil
}
