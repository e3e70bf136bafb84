package userservice

import (
	"context"
	"strings"

	userdb "github.com/Black-And-White-Club/opsboard/app/modules/user/infrastructure/repositories"
	"github.com/Black-And-White-Club/opsboard/pkg/results"
)

// RegisterFromDiscord creates the member on first login and refreshes the
// nickname and avatar afterwards. Roles are never changed here.
func (s *UserService) RegisterFromDiscord(ctx context.Context, profile DiscordProfile) (*userdb.User, error) {
	discordID := strings.TrimSpace(profile.ID)
	if discordID == "" {
		return nil, ErrInvalidDiscordID
	}

	return unwrap(withTelemetry(s, ctx, "RegisterFromDiscord", discordID, func(ctx context.Context) (results.OperationResult[*userdb.User, error], error) {
		user := &userdb.User{
			DiscordID: discordID,
			Nickname:  profile.DisplayName(),
		}
		if profile.Avatar != "" {
			avatar := profile.Avatar
			user.AvatarHash = &avatar
		}
		if user.Nickname == "" {
			user.Nickname = discordID
		}

		stored, err := s.repo.UpsertFromDiscord(ctx, nil, user)
		if err != nil {
			return results.OperationResult[*userdb.User, error]{}, err
		}
		return results.SuccessResult[*userdb.User, error](stored), nil
	}))
}
