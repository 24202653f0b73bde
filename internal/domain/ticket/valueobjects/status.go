package valueobjects

import "fmt"

type TicketStatus string

const (
	StatusOpen     TicketStatus = "open"
	StatusPending  TicketStatus = "pending"
	StatusResolved TicketStatus = "resolved"
)

// StatusFilterAll is the list filter sentinel that matches every status.
const StatusFilterAll = "all"

var validTicketStatuses = map[TicketStatus]bool{
	StatusOpen:     true,
	StatusPending:  true,
	StatusResolved: true,
}

// statusRank orders statuses for list sorting, most actionable first.
var statusRank = map[TicketStatus]int{
	StatusOpen:     0,
	StatusPending:  1,
	StatusResolved: 2,
}

func (ts TicketStatus) String() string {
	return string(ts)
}

func (ts TicketStatus) IsValid() bool {
	return validTicketStatuses[ts]
}

func (ts TicketStatus) IsResolved() bool {
	return ts == StatusResolved
}

// Rank returns the sort position of the status. Unknown values rank last.
func (ts TicketStatus) Rank() int {
	if r, ok := statusRank[ts]; ok {
		return r
	}
	return len(statusRank)
}

func NewTicketStatus(s string) (TicketStatus, error) {
	ts := TicketStatus(s)
	if !ts.IsValid() {
		return "", fmt.Errorf("invalid ticket status: %s", s)
	}
	return ts, nil
}

// ParseStatusFilter turns a list filter into an optional status. Empty input
// and the "all" sentinel mean no restriction.
func ParseStatusFilter(s string) (*TicketStatus, error) {
	if s == "" || s == StatusFilterAll {
		return nil, nil
	}
	ts, err := NewTicketStatus(s)
	if err != nil {
		return nil, err
	}
	return &ts, nil
}
