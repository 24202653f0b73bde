package models

// ProfileModel is keyed by the auth user id. The primary key doubles as the
// uniqueness guarantee that makes concurrent provisioning safe.
type ProfileModel struct {
	ID        string  `gorm:"primaryKey;size:36"`
	Email     string  `gorm:"size:255;not null;index"`
	FullName  *string `gorm:"size:100"`
	AvatarURL *string `gorm:"size:500"`
	Role      string  `gorm:"size:20;not null;index"`
	CreatedAt int64   `gorm:"not null"`
	UpdatedAt int64   `gorm:"not null"`
}

func (ProfileModel) TableName() string {
	return "profiles"
}
