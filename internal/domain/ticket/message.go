package ticket

import (
	"fmt"
	"strings"
	"time"
)

const MaxMessageLength = 5000

type Message struct {
	ID        string    `json:"id"`
	TicketID  string    `json:"ticket_id"`
	SenderID  string    `json:"sender_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

func NewMessage(ticketID, senderID, content string, now time.Time) (*Message, error) {
	if ticketID == "" {
		return nil, fmt.Errorf("ticket ID is required")
	}
	if senderID == "" {
		return nil, fmt.Errorf("sender ID is required")
	}
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("content is required")
	}
	if len(content) > MaxMessageLength {
		return nil, fmt.Errorf("content exceeds maximum length of %d characters", MaxMessageLength)
	}

	return &Message{
		TicketID:  ticketID,
		SenderID:  senderID,
		Content:   content,
		CreatedAt: now,
	}, nil
}

// MessageRef is the id projection used to count messages per ticket.
type MessageRef struct {
	ID       string
	TicketID string
}

// CountByTicket groups message refs by ticket id.
func CountByTicket(refs []MessageRef) map[string]int {
	out := make(map[string]int)
	for _, r := range refs {
		out[r.TicketID]++
	}
	return out
}
