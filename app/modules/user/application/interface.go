package userservice

import (
	"context"

	authdomain "github.com/Black-And-White-Club/opsboard/app/modules/auth/domain"
	userdb "github.com/Black-And-White-Club/opsboard/app/modules/user/infrastructure/repositories"
	"github.com/google/uuid"
)

// Service manages community members.
type Service interface {
	// User Creation
	RegisterFromDiscord(ctx context.Context, profile DiscordProfile) (*userdb.User, error)

	// User Role
	UpdateRole(ctx context.Context, caller *authdomain.Claims, discordID string, role authdomain.Role) error

	// User Retrieval
	GetUser(ctx context.Context, id uuid.UUID) (*userdb.User, error)
	ClaimsForDiscordID(ctx context.Context, discordID string) (*authdomain.Claims, error)
	Nicknames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)
	UserExists(ctx context.Context, id uuid.UUID) (bool, error)
}

// DiscordProfile is the identity returned by Discord after login.
type DiscordProfile struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	GlobalName string `json:"global_name"`
	Avatar     string `json:"avatar"`
}

// DisplayName prefers the global display name over the account name.
func (p DiscordProfile) DisplayName() string {
	if p.GlobalName != "" {
		return p.GlobalName
	}
	return p.Username
}
