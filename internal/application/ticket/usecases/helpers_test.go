package usecases

import (
	"time"

	"github.com/orris-inc/helpdesk/internal/domain/profile"
	"github.com/orris-inc/helpdesk/internal/domain/ticket"
	vo "github.com/orris-inc/helpdesk/internal/domain/ticket/valueobjects"
)

var baseTime = time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)

func at(minutes int) time.Time {
	return baseTime.Add(time.Duration(minutes) * time.Minute)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func strPtr(s string) *string { return &s }

func newTestTicket(id, customerID string, status vo.TicketStatus, updated int) *ticket.Ticket {
	return &ticket.Ticket{
		ID:         id,
		Subject:    "subject " + id,
		CustomerID: customerID,
		Status:     status,
		Priority:   vo.PriorityMedium,
		Category:   vo.CategoryGeneral,
		CreatedAt:  baseTime,
		UpdatedAt:  at(updated),
	}
}

func newTestProfile(id string, role profile.Role) *profile.Profile {
	return &profile.Profile{ID: id, Email: id + "@example.com", Role: role, CreatedAt: baseTime, UpdatedAt: baseTime}
}
