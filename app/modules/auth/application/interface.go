package authservice

import (
	"context"
	"time"

	authdomain "github.com/Black-And-White-Club/opsboard/app/modules/auth/domain"
	userservice "github.com/Black-And-White-Club/opsboard/app/modules/user/application"
	userdb "github.com/Black-And-White-Club/opsboard/app/modules/user/infrastructure/repositories"
	"github.com/google/uuid"
)

// Service defines the authentication service interface.
type Service interface {
	// LoginURL returns the Discord consent page for the given state value.
	LoginURL(state string) string

	// CompleteLogin exchanges a Discord authorization code, registers the
	// member and issues a session token.
	CompleteLogin(ctx context.Context, code string) (*Session, error)

	// Authenticate validates a session token and returns the caller's current claims.
	Authenticate(ctx context.Context, token string) (*authdomain.Claims, error)
}

// Session is the result of a completed login.
type Session struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *userdb.User `json:"user"`
}

// DiscordClient performs the OAuth2 code flow against Discord.
type DiscordClient interface {
	AuthCodeURL(state string) string
	FetchProfile(ctx context.Context, code string) (*userservice.DiscordProfile, error)
}

// UserRegistry is the slice of the user service that login needs.
type UserRegistry interface {
	RegisterFromDiscord(ctx context.Context, profile userservice.DiscordProfile) (*userdb.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*userdb.User, error)
}
