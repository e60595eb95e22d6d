package service

import (
	"fmt"

	"github.com/garyjia/broker-workflow/internal/domain/entity"
)

func validationError(err error) error {
	return fmt.Errorf("%w: %w", entity.ErrValidation, err)
}

func persistenceError(action string, err error) error {
	return fmt.Errorf("%w: %s: %w", entity.ErrPersistence, action, err)
}

func notFoundError(resource string, id int64) error {
	return fmt.Errorf("%w: %s %d", entity.ErrNotFound, resource, id)
}
