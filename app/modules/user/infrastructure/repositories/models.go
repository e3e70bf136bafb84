package userdb

import (
	"time"

	authdomain "github.com/Black-And-White-Club/opsboard/app/modules/auth/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is a community member, keyed internally by UUID and externally by
// Discord account id.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`
	ID            uuid.UUID       `bun:"id,pk,type:uuid,default:gen_random_uuid()" json:"id"`
	DiscordID     string          `bun:"discord_id,unique,notnull" json:"discord_id"`
	Nickname      string          `bun:"nickname,notnull" json:"nickname"`
	AvatarHash    *string         `bun:"avatar_hash,nullzero" json:"avatar_hash,omitempty"`
	Role          authdomain.Role `bun:"role,notnull,default:'player'" json:"role"`
	CreatedAt     time.Time       `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt     time.Time       `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}
