package migration

import (
	"github.com/orris-inc/helpdesk/internal/infrastructure/persistence/models"
)

// AutoMigrateModels lists every persisted model, for the auto-migrate strategy.
func AutoMigrateModels() []interface{} {
	return []interface{}{
		&models.ProfileModel{},
		&models.TicketModel{},
		&models.MessageModel{},
		&models.AttachmentModel{},
		&models.AuthUserModel{},
		&models.AuthSessionModel{},
		&models.PasswordResetModel{},
	}
}
