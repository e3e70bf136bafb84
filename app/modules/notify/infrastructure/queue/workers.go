package notifyqueue

import (
	"context"
	"errors"
	"log/slog"
	"time"

	eventservice "github.com/Black-And-White-Club/opsboard/app/modules/event/application"
	eventdomain "github.com/Black-And-White-Club/opsboard/app/modules/event/domain"
	eventdb "github.com/Black-And-White-Club/opsboard/app/modules/event/infrastructure/repositories"
	"github.com/Black-And-White-Club/opsboard/app/modules/notify/infrastructure/webhook"
	"github.com/google/uuid"
	"github.com/riverqueue/river"
	"github.com/uptrace/bun"
)

// Poster sends a chat message.
type Poster interface {
	Send(ctx context.Context, content string) error
}

// EventSource loads events for reminders. eventdb.Repository satisfies it.
type EventSource interface {
	GetEvent(ctx context.Context, db bun.IDB, id uuid.UUID) (*eventdb.Event, error)
}

// DiscordNotifyWorker posts queued announcements.
type DiscordNotifyWorker struct {
	river.WorkerDefaults[DiscordNotifyArgs]
	poster Poster
	logger *slog.Logger
}

// NewDiscordNotifyWorker creates a DiscordNotifyWorker.
func NewDiscordNotifyWorker(poster Poster, logger *slog.Logger) *DiscordNotifyWorker {
	return &DiscordNotifyWorker{poster: poster, logger: logger}
}

func (w *DiscordNotifyWorker) Work(ctx context.Context, job *river.Job[DiscordNotifyArgs]) error {
	err := w.poster.Send(ctx, job.Args.Content)
	var limited *webhook.RateLimitedError
	if errors.As(err, &limited) {
		w.logger.WarnContext(ctx, "Discord webhook rate limited, snoozing",
			slog.String("event_id", job.Args.EventID.String()),
			slog.Duration("retry_after", limited.RetryAfter),
		)
		return river.JobSnooze(limited.RetryAfter)
	}
	return err
}

// Timeout bounds one webhook call.
func (w *DiscordNotifyWorker) Timeout(*river.Job[DiscordNotifyArgs]) time.Duration {
	return 30 * time.Second
}

// EventReminderWorker publishes the reminder change for an event that is
// about to start.
type EventReminderWorker struct {
	river.WorkerDefaults[EventReminderArgs]
	events   EventSource
	notifier eventservice.Notifier
	logger   *slog.Logger
	now      func() time.Time
}

// NewEventReminderWorker creates an EventReminderWorker.
func NewEventReminderWorker(events EventSource, notifier eventservice.Notifier, logger *slog.Logger) *EventReminderWorker {
	return &EventReminderWorker{events: events, notifier: notifier, logger: logger, now: time.Now}
}

func (w *EventReminderWorker) Work(ctx context.Context, job *river.Job[EventReminderArgs]) error {
	args := job.Args
	logger := w.logger.With(slog.String("event_id", args.EventID.String()))

	event, err := w.events.GetEvent(ctx, nil, args.EventID)
	if err != nil {
		if errors.Is(err, eventdb.ErrNotFound) {
			logger.InfoContext(ctx, "Dropping reminder for deleted event")
			return nil
		}
		return err
	}

	if !event.ScheduledTime.Equal(args.StartsAt) {
		logger.InfoContext(ctx, "Dropping stale reminder",
			slog.Time("scheduled_for", args.StartsAt),
			slog.Time("starts_at", event.ScheduledTime),
		)
		return nil
	}

	startsAt := event.ScheduledTime
	payload := eventdomain.EventChangedPayloadV1{
		EventID:    event.ID,
		Title:      event.Title,
		Kind:       eventdomain.ChangeReminder,
		Tally:      event.Tally(),
		StartsAt:   &startsAt,
		Hidden:     !event.IsVisible,
		OccurredAt: w.now().UTC(),
	}
	if err := w.notifier.Publish(ctx, eventservice.ChangeTopic(event), payload); err != nil {
		logger.WarnContext(ctx, "Reminder delivery incomplete", slog.String("error", err.Error()))
	}
	return nil
}
