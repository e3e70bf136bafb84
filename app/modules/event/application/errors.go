package eventservice

import (
	"fmt"

	"github.com/Black-And-White-Club/opsboard/pkg/apperrors"
)

// Error classes. Every error returned for a rejected request wraps one of these.
var (
	ErrUnauthorized = apperrors.ErrUnauthorized
	ErrForbidden    = apperrors.ErrForbidden
	ErrNotFound     = apperrors.ErrNotFound
	ErrInvalidInput = apperrors.ErrInvalidInput
)

var (
	ErrEventNotFound = fmt.Errorf("event %w", ErrNotFound)
	ErrSlotNotFound  = fmt.Errorf("slot %w", ErrNotFound)
	ErrUserNotFound  = fmt.Errorf("user %w", ErrNotFound)

	// ErrSlotTaken is returned when the requested slot already has an assignee.
	ErrSlotTaken = fmt.Errorf("slot is already assigned: %w", ErrForbidden)

	// ErrPermissionDenied is returned when no policy allows the action.
	ErrPermissionDenied = fmt.Errorf("permission denied: %w", ErrForbidden)

	ErrStartInPast = fmt.Errorf("start time must be in the future: %w", ErrInvalidInput)
)
