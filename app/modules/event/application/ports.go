package eventservice

import (
	"context"
	"time"

	authdomain "github.com/Black-And-White-Club/opsboard/app/modules/auth/domain"
	"github.com/google/uuid"
)

// Notifier delivers change notifications once a transaction has committed.
type Notifier interface {
	Publish(ctx context.Context, topic string, payload any) error
}

// ReminderScheduler queues a reminder ahead of an event's start.
type ReminderScheduler interface {
	ScheduleReminder(ctx context.Context, eventID uuid.UUID, startsAt time.Time) error
}

// ContentLookup validates terrain and mod pack revision references.
type ContentLookup interface {
	TerrainExists(ctx context.Context, id uuid.UUID) (bool, error)
	RevisionExists(ctx context.Context, id uuid.UUID) (bool, error)
}

// UserDirectory resolves users for rosters and chat-bot commands.
type UserDirectory interface {
	// ClaimsForDiscordID returns the identity of a registered Discord member.
	ClaimsForDiscordID(ctx context.Context, discordID string) (*authdomain.Claims, error)
	// Nicknames maps user ids to display names. Unknown ids are omitted.
	Nicknames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)
	UserExists(ctx context.Context, id uuid.UUID) (bool, error)
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }
