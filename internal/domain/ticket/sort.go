package ticket

import "sort"

type SortKey string

const (
	SortByUpdated  SortKey = "updated"
	SortByPriority SortKey = "priority"
	SortByStatus   SortKey = "status"
)

func (k SortKey) IsValid() bool {
	switch k {
	case SortByUpdated, SortByPriority, SortByStatus:
		return true
	}
	return false
}

// SortTickets reorders a fetched list in place. Ties keep the fetched order,
// which is updated_at descending, so SortByUpdated is a no-op.
func SortTickets(list []*EnrichedTicket, by SortKey) {
	switch by {
	case SortByPriority:
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].Priority.Rank() < list[j].Priority.Rank()
		})
	case SortByStatus:
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].Status.Rank() < list[j].Status.Rank()
		})
	}
}
