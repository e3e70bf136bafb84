package userservice

import (
	"context"
	"errors"

	authdomain "github.com/Black-And-White-Club/opsboard/app/modules/auth/domain"
	userdb "github.com/Black-And-White-Club/opsboard/app/modules/user/infrastructure/repositories"
	"github.com/Black-And-White-Club/opsboard/pkg/results"
	"github.com/google/uuid"
)

// GetUser returns one member by id.
func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*userdb.User, error) {
	return unwrap(withTelemetry(s, ctx, "GetUser", id.String(), func(ctx context.Context) (results.OperationResult[*userdb.User, error], error) {
		user, err := s.repo.GetByID(ctx, nil, id)
		if err != nil {
			if errors.Is(err, userdb.ErrNotFound) {
				return results.FailureResult[*userdb.User, error](ErrUserNotFound), nil
			}
			return results.OperationResult[*userdb.User, error]{}, err
		}
		return results.SuccessResult[*userdb.User, error](user), nil
	}))
}

// ClaimsForDiscordID builds the identity of a registered member, used when
// commands arrive from the chat bot rather than an authenticated session.
func (s *UserService) ClaimsForDiscordID(ctx context.Context, discordID string) (*authdomain.Claims, error) {
	if discordID == "" {
		return nil, ErrInvalidDiscordID
	}
	return unwrap(withTelemetry(s, ctx, "ClaimsForDiscordID", discordID, func(ctx context.Context) (results.OperationResult[*authdomain.Claims, error], error) {
		user, err := s.repo.GetByDiscordID(ctx, nil, discordID)
		if err != nil {
			if errors.Is(err, userdb.ErrNotFound) {
				return results.FailureResult[*authdomain.Claims, error](ErrUserNotFound), nil
			}
			return results.OperationResult[*authdomain.Claims, error]{}, err
		}
		return results.SuccessResult[*authdomain.Claims, error](ClaimsFor(user)), nil
	}))
}

// ClaimsFor converts a stored user into claims.
func ClaimsFor(user *userdb.User) *authdomain.Claims {
	return &authdomain.Claims{
		UserUUID:  user.ID,
		DiscordID: user.DiscordID,
		Nickname:  user.Nickname,
		Role:      user.Role,
	}
}

// Nicknames maps ids to display names. Unknown ids are left out.
func (s *UserService) Nicknames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	if len(ids) == 0 {
		return map[uuid.UUID]string{}, nil
	}
	users, err := s.repo.GetByIDs(ctx, nil, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]string, len(users))
	for _, u := range users {
		out[u.ID] = u.Nickname
	}
	return out, nil
}

// UserExists reports whether id names a registered member.
func (s *UserService) UserExists(ctx context.Context, id uuid.UUID) (bool, error) {
	_, err := s.repo.GetByID(ctx, nil, id)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, userdb.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}
