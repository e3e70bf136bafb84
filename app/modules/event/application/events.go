package eventservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	authdomain "github.com/Black-And-White-Club/opsboard/app/modules/auth/domain"
	eventdomain "github.com/Black-And-White-Club/opsboard/app/modules/event/domain"
	eventdb "github.com/Black-And-White-Club/opsboard/app/modules/event/infrastructure/repositories"
	"github.com/Black-And-White-Club/opsboard/pkg/results"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type eventResult = results.OperationResult[*eventdb.Event, error]

// CreateEvent schedules a new event owned by the caller. The caller hosts it
// unless HostID names another user.
func (s *EventService) CreateEvent(ctx context.Context, caller *authdomain.Claims, in CreateEventInput) (*eventdb.Event, error) {
	if caller == nil {
		return nil, ErrUnauthorized
	}
	if err := s.authorize(caller, authdomain.ActionCreateEvent, authdomain.Resource{}); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("event title is required: %w", ErrInvalidInput)
	}
	startsAt, err := s.parser.Parse(in.StartsAt, s.clock.Now())
	if err != nil {
		return nil, err
	}

	event, err := unwrap(withTelemetry(s, ctx, "CreateEvent", title, func(ctx context.Context) (eventResult, error) {
		if fail, err := s.checkReferences(ctx, in); err != nil || fail != nil {
			if err != nil {
				return eventResult{}, err
			}
			return failure[*eventdb.Event](fail), nil
		}

		hostID := caller.UserUUID
		if in.HostID != nil && *in.HostID != uuid.Nil && *in.HostID != caller.UserUUID {
			hostID = *in.HostID
			if s.users != nil {
				ok, err := s.users.UserExists(ctx, hostID)
				if err != nil {
					return eventResult{}, err
				}
				if !ok {
					return failure[*eventdb.Event](fmt.Errorf("host: %w", ErrUserNotFound)), nil
				}
			}
		}

		event := &eventdb.Event{
			Title:             title,
			Description:       strings.TrimSpace(in.Description),
			OriginalTime:      startsAt,
			ScheduledTime:     startsAt,
			IsVisible:         !in.Hidden,
			OwnerID:           caller.UserUUID,
			HostID:            hostID,
			TerrainID:         in.TerrainID,
			ModPackRevisionID: in.ModPackRevisionID,
		}
		if err := s.repo.CreateEvent(ctx, nil, event); err != nil {
			return eventResult{}, err
		}
		return success(event), nil
	}))
	if err != nil {
		return nil, err
	}

	s.scheduleReminder(ctx, event)
	s.publishChange(ctx, event, eventdomain.ChangeCreated, caller, nil)
	return event, nil
}

// checkReferences validates the optional terrain and revision ids.
func (s *EventService) checkReferences(ctx context.Context, in CreateEventInput) (fail error, err error) {
	if s.content == nil {
		return nil, nil
	}
	if in.TerrainID != nil {
		ok, err := s.content.TerrainExists(ctx, *in.TerrainID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return fmt.Errorf("terrain %s: %w", in.TerrainID, ErrNotFound), nil
		}
	}
	if in.ModPackRevisionID != nil {
		ok, err := s.content.RevisionExists(ctx, *in.ModPackRevisionID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return fmt.Errorf("mod pack revision %s: %w", in.ModPackRevisionID, ErrNotFound), nil
		}
	}
	return nil, nil
}

// GetEvent returns an event the caller may see. Hidden events look missing
// to everyone else. Anonymous callers see visible events.
func (s *EventService) GetEvent(ctx context.Context, caller *authdomain.Claims, eventID uuid.UUID) (*eventdb.Event, error) {
	return unwrap(withTelemetry(s, ctx, "GetEvent", eventID.String(), func(ctx context.Context) (eventResult, error) {
		event, fail, err := s.visibleEvent(ctx, caller, eventID)
		if err != nil {
			return eventResult{}, err
		}
		if fail != nil {
			return failure[*eventdb.Event](fail), nil
		}
		return success(event), nil
	}))
}

// visibleEvent loads an event without locking it.
func (s *EventService) visibleEvent(ctx context.Context, caller *authdomain.Claims, eventID uuid.UUID) (event *eventdb.Event, fail error, err error) {
	event, err = s.repo.GetEvent(ctx, nil, eventID)
	if err != nil {
		if errors.Is(err, eventdb.ErrNotFound) {
			return nil, ErrEventNotFound, nil
		}
		return nil, nil, err
	}
	if !s.canView(caller, event) {
		return nil, ErrEventNotFound, nil
	}
	return event, nil, nil
}

// ListEvents returns events ordered by start time.
func (s *EventService) ListEvents(ctx context.Context, caller *authdomain.Claims, opts ListOptions) ([]*eventdb.Event, error) {
	type result = results.OperationResult[[]*eventdb.Event, error]

	return unwrap(withTelemetry(s, ctx, "ListEvents", "", func(ctx context.Context) (result, error) {
		filter := eventdb.ListFilter{Limit: opts.Limit}
		if caller != nil {
			filter.ViewerID = caller.UserUUID
			filter.IncludeHidden = s.policies.Allowed(authdomain.Request{
				Claims: caller,
				Action: authdomain.ActionViewHidden,
			})
		}
		if opts.Upcoming {
			filter.From = s.clock.Now()
		}
		events, err := s.repo.ListEvents(ctx, nil, filter)
		if err != nil {
			return result{}, err
		}
		return success(events), nil
	}))
}

// RescheduleEvent moves the event. The original time is kept.
func (s *EventService) RescheduleEvent(ctx context.Context, caller *authdomain.Claims, eventID uuid.UUID, startsAt string) (*eventdb.Event, error) {
	if caller == nil {
		return nil, ErrUnauthorized
	}
	scheduled, err := s.parser.Parse(startsAt, s.clock.Now())
	if err != nil {
		return nil, err
	}

	event, err := s.editEvent(ctx, caller, eventID, "RescheduleEvent", func(ctx context.Context, db bun.IDB, event *eventdb.Event) error {
		if err := s.repo.UpdateSchedule(ctx, db, eventID, scheduled); err != nil {
			return err
		}
		event.ScheduledTime = scheduled
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.scheduleReminder(ctx, event)
	s.publishChange(ctx, event, eventdomain.ChangeRescheduled, caller, nil)
	return event, nil
}

// SetEventVisibility shows or hides the event.
func (s *EventService) SetEventVisibility(ctx context.Context, caller *authdomain.Claims, eventID uuid.UUID, visible bool) (*eventdb.Event, error) {
	if caller == nil {
		return nil, ErrUnauthorized
	}
	event, err := s.editEvent(ctx, caller, eventID, "SetEventVisibility", func(ctx context.Context, db bun.IDB, event *eventdb.Event) error {
		if err := s.repo.SetVisibility(ctx, db, eventID, visible); err != nil {
			return err
		}
		event.IsVisible = visible
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishChange(ctx, event, eventdomain.ChangeVisibility, caller, nil)
	return event, nil
}

// editEvent runs mutate under the event row lock after the edit check.
func (s *EventService) editEvent(
	ctx context.Context,
	caller *authdomain.Claims,
	eventID uuid.UUID,
	operationName string,
	mutate func(ctx context.Context, db bun.IDB, event *eventdb.Event) error,
) (*eventdb.Event, error) {
	return unwrap(withTelemetry(s, ctx, operationName, eventID.String(), func(ctx context.Context) (eventResult, error) {
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (eventResult, error) {
			event, fail, err := s.lockEvent(ctx, db, caller, eventID)
			if err != nil {
				return eventResult{}, err
			}
			if fail != nil {
				return failure[*eventdb.Event](fail), nil
			}
			if err := s.authorize(caller, authdomain.ActionEditEvent, eventResource(event)); err != nil {
				return failure[*eventdb.Event](err), nil
			}
			if err := mutate(ctx, db, event); err != nil {
				return eventResult{}, err
			}
			return success(event), nil
		})
	}))
}

// scheduleReminder queues the start reminder. Failures are logged; the event
// itself is already committed.
func (s *EventService) scheduleReminder(ctx context.Context, event *eventdb.Event) {
	if s.reminders == nil || !event.ScheduledTime.After(s.clock.Now()) {
		return
	}
	ctx = context.WithoutCancel(ctx)
	if err := s.reminders.ScheduleReminder(ctx, event.ID, event.ScheduledTime); err != nil {
		s.logger.WarnContext(ctx, "Failed to schedule event reminder",
			slog.String("event_id", event.ID.String()),
			slog.String("scheduled_time", event.ScheduledTime.Format(time.RFC3339)),
			slog.String("error", err.Error()),
		)
	}
}
