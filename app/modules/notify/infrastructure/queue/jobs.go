package notifyqueue

import (
	"time"

	"github.com/google/uuid"
	"github.com/riverqueue/river"
)

// QueueName is the River queue used by the notify module.
const QueueName = "notify"

// DiscordNotifyArgs posts one announcement to the Discord channel.
type DiscordNotifyArgs struct {
	EventID uuid.UUID `json:"event_id"`
	Content string    `json:"content"`
}

// Kind returns the job type identifier for River
func (DiscordNotifyArgs) Kind() string { return "event_discord_notify" }

func (DiscordNotifyArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{Queue: QueueName, MaxAttempts: 5}
}

// EventReminderArgs fires ahead of an event's start. StartsAt is the start
// time the reminder was scheduled for; a rescheduled event makes it stale.
type EventReminderArgs struct {
	EventID  uuid.UUID `json:"event_id"`
	StartsAt time.Time `json:"starts_at"`
}

// Kind returns the job type identifier for River
func (EventReminderArgs) Kind() string { return "event_reminder" }

func (EventReminderArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{Queue: QueueName, MaxAttempts: 3}
}
