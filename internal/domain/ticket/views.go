package ticket

import (
	"time"

	"github.com/orris-inc/helpdesk/internal/domain/profile"
)

// LastMessage summarises the newest message of a ticket.
type LastMessage struct {
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	SenderID  string    `json:"sender_id"`
}

func NewLastMessage(m *Message) *LastMessage {
	if m == nil {
		return nil
	}
	return &LastMessage{Content: m.Content, CreatedAt: m.CreatedAt, SenderID: m.SenderID}
}

// EnrichedMessage is a message decorated with its sender and attachments.
type EnrichedMessage struct {
	Message
	Sender      *profile.Profile `json:"sender"`
	Attachments []Attachment     `json:"attachments"`
}

// EnrichedTicket is a ticket decorated with related rows resolved at read
// time. Messages is populated only for single-ticket reads.
type EnrichedTicket struct {
	Ticket
	Customer          *profile.Profile  `json:"customer"`
	AssignedToProfile *profile.Profile  `json:"assigned_to_profile"`
	Messages          []EnrichedMessage `json:"messages"`
	MessageCount      int               `json:"message_count"`
	LastMessage       *LastMessage      `json:"last_message"`
}
