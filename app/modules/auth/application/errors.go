package authservice

import (
	"errors"
	"fmt"

	"github.com/Black-And-White-Club/opsboard/pkg/apperrors"
)

var (
	// ErrInvalidToken is returned when the token is invalid.
	ErrInvalidToken = fmt.Errorf("invalid authentication token: %w", apperrors.ErrUnauthorized)

	// ErrExpiredToken is returned when the token has expired.
	ErrExpiredToken = fmt.Errorf("authentication token has expired: %w", apperrors.ErrUnauthorized)

	// ErrMissingCode is returned when the OAuth callback carries no code.
	ErrMissingCode = fmt.Errorf("missing authorization code: %w", apperrors.ErrInvalidInput)

	// ErrDiscordLogin is returned when Discord rejects the authorization code.
	ErrDiscordLogin = fmt.Errorf("discord login failed: %w", apperrors.ErrUnauthorized)

	// ErrGenerateToken is returned when token generation fails.
	ErrGenerateToken = errors.New("failed to generate token")
)
