package repository

import (
	"errors"

	"kabu-advisor/pkg/apperrors"

	"gorm.io/gorm"
)

// translateDuplicate converts gorm duplicate-key errors into the engine's
// ConstraintViolation type so idempotency bugs surface with context.
func translateDuplicate(err error, entityName, key string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperrors.NewConstraintViolation(entityName, key, "duplicate key")
	}
	return err
}
