package contentservice

import (
	"fmt"

	"github.com/Black-And-White-Club/opsboard/pkg/apperrors"
)

var (
	ErrUnauthorized = apperrors.ErrUnauthorized
	ErrForbidden    = apperrors.ErrForbidden
	ErrNotFound     = apperrors.ErrNotFound
	ErrInvalidInput = apperrors.ErrInvalidInput

	// ErrModPackNotFound indicates the mod pack does not exist.
	ErrModPackNotFound = fmt.Errorf("mod pack %w", apperrors.ErrNotFound)

	// ErrAlreadyExists indicates a title, class name or tag is already taken.
	ErrAlreadyExists = fmt.Errorf("content already exists: %w", apperrors.ErrForbidden)
)
