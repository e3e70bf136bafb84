package userservice

import (
	"fmt"

	"github.com/Black-And-White-Club/opsboard/pkg/apperrors"
)

// Domain errors for the user service. Each wraps an apperrors class so
// transports map them without knowing the user module.
var (
	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = fmt.Errorf("user %w", apperrors.ErrNotFound)

	// ErrInvalidDiscordID indicates an empty Discord ID was provided.
	ErrInvalidDiscordID = fmt.Errorf("discord id cannot be empty: %w", apperrors.ErrInvalidInput)

	// ErrInvalidRole indicates an unknown role name.
	ErrInvalidRole = fmt.Errorf("invalid role: %w", apperrors.ErrInvalidInput)

	// ErrNotAdmin is returned when a non-admin tries to change roles.
	ErrNotAdmin = fmt.Errorf("only admins can change roles: %w", apperrors.ErrForbidden)
)
