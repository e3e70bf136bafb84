package userservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	authdomain "github.com/Black-And-White-Club/opsboard/app/modules/auth/domain"
	userdb "github.com/Black-And-White-Club/opsboard/app/modules/user/infrastructure/repositories"
	"github.com/Black-And-White-Club/opsboard/pkg/apperrors"
	"github.com/Black-And-White-Club/opsboard/pkg/results"
)

// UpdateRole sets a member's role. Only admins may call it.
func (s *UserService) UpdateRole(ctx context.Context, caller *authdomain.Claims, discordID string, role authdomain.Role) error {
	if caller == nil {
		return apperrors.ErrUnauthorized
	}
	if caller.Role != authdomain.RoleAdmin {
		return ErrNotAdmin
	}
	discordID = strings.TrimSpace(discordID)
	if discordID == "" {
		return ErrInvalidDiscordID
	}
	if !role.IsValid() {
		return fmt.Errorf("%q: %w", role, ErrInvalidRole)
	}

	_, err := unwrap(withTelemetry(s, ctx, "UpdateRole", discordID, func(ctx context.Context) (results.OperationResult[bool, error], error) {
		if err := s.repo.UpdateRole(ctx, nil, discordID, role); err != nil {
			if errors.Is(err, userdb.ErrNotFound) {
				return results.FailureResult[bool, error](ErrUserNotFound), nil
			}
			return results.OperationResult[bool, error]{}, err
		}

		s.logger.InfoContext(ctx, "User role updated successfully",
			slog.String("discord_id", discordID),
			slog.String("new_role", string(role)),
			slog.String("updated_by", caller.UserUUID.String()),
		)
		return results.SuccessResult[bool, error](true), nil
	}))
	return err
}
