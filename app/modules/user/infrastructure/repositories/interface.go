package userdb

import (
	"context"

	authdomain "github.com/Black-And-White-Club/opsboard/app/modules/auth/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Repository defines the persistence contract for user data.
//
// Error semantics:
//   - ErrNotFound: requested record does not exist
//   - other errors: infrastructure failures
type Repository interface {
	GetByID(ctx context.Context, db bun.IDB, id uuid.UUID) (*User, error)
	GetByDiscordID(ctx context.Context, db bun.IDB, discordID string) (*User, error)
	GetByIDs(ctx context.Context, db bun.IDB, ids []uuid.UUID) ([]*User, error)

	// UpsertFromDiscord creates the user or refreshes its profile fields.
	// The stored role is never changed by this call.
	UpsertFromDiscord(ctx context.Context, db bun.IDB, user *User) (*User, error)

	UpdateRole(ctx context.Context, db bun.IDB, discordID string, role authdomain.Role) error
}
