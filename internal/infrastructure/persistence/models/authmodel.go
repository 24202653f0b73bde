package models

import "gorm.io/gorm"

// AuthUserModel holds credentials. Profiles reference its id.
type AuthUserModel struct {
	ID           string `gorm:"primaryKey;size:36"`
	Email        string `gorm:"size:255;not null;uniqueIndex"`
	PasswordHash string `gorm:"size:255;not null"`
	CreatedAt    int64  `gorm:"not null"`
	UpdatedAt    int64  `gorm:"not null"`
}

func (AuthUserModel) TableName() string {
	return "auth_users"
}

func (m *AuthUserModel) BeforeCreate(tx *gorm.DB) error {
	m.ID = newID(m.ID)
	return nil
}

// AuthSessionModel stores only the SHA-256 of the refresh token.
type AuthSessionModel struct {
	ID               string `gorm:"primaryKey;size:36"`
	UserID           string `gorm:"size:36;not null;index"`
	RefreshTokenHash string `gorm:"size:64;not null;uniqueIndex"`
	ExpiresAt        int64  `gorm:"not null;index"`
	RevokedAt        *int64
	CreatedAt        int64 `gorm:"not null"`
	LastRefreshedAt  int64 `gorm:"not null"`
}

func (AuthSessionModel) TableName() string {
	return "auth_sessions"
}

func (m *AuthSessionModel) BeforeCreate(tx *gorm.DB) error {
	m.ID = newID(m.ID)
	return nil
}

type PasswordResetModel struct {
	ID        string `gorm:"primaryKey;size:36"`
	UserID    string `gorm:"size:36;not null;index"`
	TokenHash string `gorm:"size:64;not null;uniqueIndex"`
	ExpiresAt int64  `gorm:"not null;index"`
	UsedAt    *int64
	CreatedAt int64 `gorm:"not null"`
}

func (PasswordResetModel) TableName() string {
	return "auth_password_resets"
}

func (m *PasswordResetModel) BeforeCreate(tx *gorm.DB) error {
	m.ID = newID(m.ID)
	return nil
}
