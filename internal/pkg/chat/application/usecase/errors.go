package usecase

import (
	"errors"
	"fmt"

	chat "github.com/Team-7-graduated-project/HelloB-sub001/internal/pkg/chat/application/domain"
)

// ErrPersistence indicates an infrastructure/repository failure inside a use case
var ErrPersistence = fmt.Errorf("chat use case persistence error")

// ErrProfileNameRequired rejects a profile update without a display name.
var ErrProfileNameRequired = fmt.Errorf("%w: name is required", chat.ErrValidation)

// storeError passes domain errors through and tags everything else as a
// persistence failure. The cause stays reachable so timeouts can be told apart.
func storeError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, chat.ErrValidation) || errors.Is(err, chat.ErrForbidden) || errors.Is(err, chat.ErrNotFound) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrPersistence, err)
}
