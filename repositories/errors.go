package repositories

import (
	"errors"

	"gorm.io/gorm"

	"research-review-portal/models"
)

// storeError maps a gorm error to the typed error taxonomy. It relies on
// gorm.Config.TranslateError being enabled.
func storeError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return models.NewConflictError("%s: record already exists", op)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return models.NewConflictError("%s: referenced record is missing or still in use", op)
	}
	return models.NewDependencyError(op, err)
}
