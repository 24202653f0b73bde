package repository

import (
	"errors"

	"gorm.io/gorm"

	sharedErrors "github.com/orris-inc/helpdesk/internal/shared/errors"
)

// isDuplicate recognises uniqueness violations from either driver, with or
// without gorm error translation.
func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) || sharedErrors.IsDuplicateError(err)
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
