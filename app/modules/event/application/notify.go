package eventservice

import (
	"context"
	"log/slog"

	authdomain "github.com/Black-And-White-Club/opsboard/app/modules/auth/domain"
	eventdomain "github.com/Black-And-White-Club/opsboard/app/modules/event/domain"
	eventdb "github.com/Black-And-White-Club/opsboard/app/modules/event/infrastructure/repositories"
	"github.com/Black-And-White-Club/opsboard/pkg/eventbus"
)

// ChangeTopic returns the notification topic of one event.
func ChangeTopic(event *eventdb.Event) string {
	return eventbus.FormatScopedTopic(eventdomain.EventChangedTopic, event.ID.String())
}

// publishChange notifies subscribers after commit. Delivery is best effort:
// a failure is logged and never undoes the committed change.
func (s *EventService) publishChange(
	ctx context.Context,
	event *eventdb.Event,
	kind eventdomain.ChangeKind,
	caller *authdomain.Claims,
	decorate func(*eventdomain.EventChangedPayloadV1),
) {
	if s.notifier == nil || event == nil {
		return
	}

	payload := eventdomain.EventChangedPayloadV1{
		EventID:    event.ID,
		Title:      event.Title,
		Kind:       kind,
		Tally:      event.Tally(),
		Hidden:     !event.IsVisible,
		OccurredAt: s.clock.Now().UTC(),
	}
	startsAt := event.ScheduledTime
	payload.StartsAt = &startsAt
	if caller != nil {
		payload.ActorID = caller.UserUUID
	}
	if decorate != nil {
		decorate(&payload)
	}

	ctx = context.WithoutCancel(ctx)
	if err := s.notifier.Publish(ctx, ChangeTopic(event), payload); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish event change",
			slog.String("event_id", event.ID.String()),
			slog.String("kind", string(kind)),
			slog.String("error", err.Error()),
		)
	}
}
