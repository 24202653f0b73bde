package models

import "gorm.io/gorm"

type TicketModel struct {
	ID         string  `gorm:"primaryKey;size:36"`
	Subject    string  `gorm:"size:200;not null"`
	CustomerID string  `gorm:"size:36;not null;index"`
	Status     string  `gorm:"size:20;not null;index"`
	Priority   string  `gorm:"size:20;not null"`
	Category   string  `gorm:"size:32;not null"`
	AssignedTo *string `gorm:"size:36;index"`
	CreatedAt  int64   `gorm:"not null"`
	UpdatedAt  int64   `gorm:"not null;index"`

	// Note: No foreign key constraints or associations.
	// All relationships are managed by application business logic.
}

func (TicketModel) TableName() string {
	return "tickets"
}

func (m *TicketModel) BeforeCreate(tx *gorm.DB) error {
	m.ID = newID(m.ID)
	return nil
}

type MessageModel struct {
	ID        string `gorm:"primaryKey;size:36"`
	TicketID  string `gorm:"size:36;not null;index"`
	SenderID  string `gorm:"size:36;not null"`
	Content   string `gorm:"type:text;not null"`
	CreatedAt int64  `gorm:"not null;index"`
	// Seq orders messages that share a created_at millisecond.
	Seq int64 `gorm:"not null;default:0"`
}

func (MessageModel) TableName() string {
	return "messages"
}

func (m *MessageModel) BeforeCreate(tx *gorm.DB) error {
	m.ID = newID(m.ID)
	if m.Seq == 0 {
		m.Seq = nextSeq()
	}
	return nil
}

type AttachmentModel struct {
	ID        string `gorm:"primaryKey;size:36"`
	MessageID string `gorm:"size:36;not null;index"`
	FileName  string `gorm:"size:255;not null"`
	FilePath  string `gorm:"size:512;not null"`
	FileSize  int64  `gorm:"not null"`
	CreatedAt int64  `gorm:"not null"`
}

func (AttachmentModel) TableName() string {
	return "attachments"
}

func (m *AttachmentModel) BeforeCreate(tx *gorm.DB) error {
	m.ID = newID(m.ID)
	return nil
}
