package ticket

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orris-inc/helpdesk/internal/domain/profile"
	vo "github.com/orris-inc/helpdesk/internal/domain/ticket/valueobjects"
)

func TestNewTicket(t *testing.T) {
	now := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

	tk, err := NewTicket("  Cannot log in ", "c-1", vo.PriorityHigh, vo.CategoryAccount, now)

	require.NoError(t, err)
	assert.Equal(t, "Cannot log in", tk.Subject)
	assert.Equal(t, vo.StatusOpen, tk.Status)
	assert.Equal(t, "c-1", tk.CustomerID)
	assert.Nil(t, tk.AssignedTo)
	assert.False(t, tk.UpdatedAt.Before(tk.CreatedAt))
}

func TestNewTicket_Validation(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name     string
		subject  string
		customer string
		priority vo.Priority
		category vo.Category
		errMsg   string
	}{
		{"empty subject", " ", "c-1", vo.PriorityLow, vo.CategoryGeneral, "subject is required"},
		{"long subject", strings.Repeat("x", MaxSubjectLength+1), "c-1", vo.PriorityLow, vo.CategoryGeneral, "subject exceeds maximum length"},
		{"no customer", "Help", "", vo.PriorityLow, vo.CategoryGeneral, "customer ID is required"},
		{"bad priority", "Help", "c-1", vo.Priority("urgent"), vo.CategoryGeneral, "invalid priority: urgent"},
		{"bad category", "Help", "c-1", vo.PriorityLow, vo.Category("misc"), "invalid category: misc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTicket(tt.subject, tt.customer, tt.priority, tt.category, now)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestTicket_CanBeViewedBy(t *testing.T) {
	tk := &Ticket{CustomerID: "c-1"}

	assert.True(t, tk.CanBeViewedBy("c-1", profile.RoleCustomer))
	assert.False(t, tk.CanBeViewedBy("c-2", profile.RoleCustomer))
	assert.True(t, tk.CanBeViewedBy("a-1", profile.RoleAdmin))
}

func TestPatch(t *testing.T) {
	created := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	tk := &Ticket{Status: vo.StatusResolved, CreatedAt: created, UpdatedAt: created}

	assert.True(t, Patch{}.IsEmpty())

	status := vo.StatusOpen
	admin := "a-1"
	p := Patch{Status: &status, AssignedTo: &admin, UpdatedAt: created.Add(time.Minute)}
	require.NoError(t, p.Validate())
	assert.False(t, p.IsEmpty())

	p.Apply(tk)
	assert.Equal(t, vo.StatusOpen, tk.Status)
	require.NotNil(t, tk.AssignedTo)
	assert.Equal(t, "a-1", *tk.AssignedTo)
	assert.Equal(t, created.Add(time.Minute), tk.UpdatedAt)

	Patch{ClearAssignee: true}.Apply(tk)
	assert.Nil(t, tk.AssignedTo)
}

func TestPatch_ValidateRejectsOutOfEnum(t *testing.T) {
	bad := vo.TicketStatus("closed")
	assert.Error(t, Patch{Status: &bad}.Validate())

	pr := vo.Priority("urgent")
	assert.Error(t, Patch{Priority: &pr}.Validate())

	empty := "  "
	assert.Error(t, Patch{Subject: &empty}.Validate())

	admin := "a-1"
	assert.Error(t, Patch{AssignedTo: &admin, ClearAssignee: true}.Validate())
}

func TestNewMessage(t *testing.T) {
	now := time.Now()

	m, err := NewMessage("t-1", "c-1", "printer is on fire", now)
	require.NoError(t, err)
	assert.Equal(t, "t-1", m.TicketID)

	_, err = NewMessage("t-1", "c-1", "   ", now)
	assert.EqualError(t, err, "content is required")

	_, err = NewMessage("t-1", "c-1", strings.Repeat("a", MaxMessageLength+1), now)
	assert.Error(t, err)
}

func TestCountByTicket(t *testing.T) {
	counts := CountByTicket([]MessageRef{
		{ID: "m1", TicketID: "t1"},
		{ID: "m2", TicketID: "t1"},
		{ID: "m3", TicketID: "t2"},
	})

	assert.Equal(t, 2, counts["t1"])
	assert.Equal(t, 1, counts["t2"])
	assert.Zero(t, counts["t3"])
}

func TestAttachmentPath(t *testing.T) {
	p, err := AttachmentPath("m-1", "invoice.pdf")
	require.NoError(t, err)
	assert.Equal(t, "m-1/invoice.pdf", p)

	p, err = AttachmentPath("m-1", "../../etc/passwd")
	require.NoError(t, err)
	assert.Equal(t, "m-1/passwd", p)

	p, err = AttachmentPath("m-1", `C:\Users\ada\shot.png`)
	require.NoError(t, err)
	assert.Equal(t, "m-1/shot.png", p)

	_, err = AttachmentPath("", "a.txt")
	assert.Error(t, err)

	_, err = AttachmentPath("m-1", "..")
	assert.Error(t, err)
}

func TestGroupByMessage(t *testing.T) {
	groups := GroupByMessage([]*Attachment{
		{ID: "a1", MessageID: "m1"},
		{ID: "a2", MessageID: "m2"},
		{ID: "a3", MessageID: "m1"},
	})

	require.Len(t, groups["m1"], 2)
	assert.Equal(t, "a1", groups["m1"][0].ID)
	assert.Equal(t, "a3", groups["m1"][1].ID)
	assert.Len(t, groups["m2"], 1)
}

func TestSortTickets(t *testing.T) {
	mk := func(id string, s vo.TicketStatus, p vo.Priority) *EnrichedTicket {
		return &EnrichedTicket{Ticket: Ticket{ID: id, Status: s, Priority: p}}
	}
	ids := func(list []*EnrichedTicket) []string {
		out := make([]string, len(list))
		for i, t := range list {
			out[i] = t.ID
		}
		return out
	}

	list := []*EnrichedTicket{
		mk("1", vo.StatusResolved, vo.PriorityLow),
		mk("2", vo.StatusOpen, vo.PriorityHigh),
		mk("3", vo.StatusPending, vo.PriorityLow),
		mk("4", vo.StatusOpen, vo.PriorityMedium),
	}

	SortTickets(list, SortByPriority)
	assert.Equal(t, []string{"2", "4", "1", "3"}, ids(list))

	SortTickets(list, SortByStatus)
	assert.Equal(t, []string{"2", "4", "3", "1"}, ids(list))

	before := ids(list)
	SortTickets(list, SortByUpdated)
	assert.Equal(t, before, ids(list))
}
