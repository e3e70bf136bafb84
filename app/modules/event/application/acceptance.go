package eventservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	authdomain "github.com/Black-And-White-Club/opsboard/app/modules/auth/domain"
	eventdomain "github.com/Black-And-White-Club/opsboard/app/modules/event/domain"
	eventdb "github.com/Black-And-White-Club/opsboard/app/modules/event/infrastructure/repositories"
	"github.com/Black-And-White-Club/opsboard/pkg/results"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type acceptanceOutcome struct {
	event  *eventdb.Event
	result *AcceptanceResult
}

// SetAcceptance records userID's answer for eventID. A zero userID means the
// caller. The tally is moved from the previous status to the new one even
// when both are equal, so the record is always rewritten.
func (s *EventService) SetAcceptance(
	ctx context.Context,
	caller *authdomain.Claims,
	eventID, userID uuid.UUID,
	status eventdomain.AcceptanceStatus,
) (*AcceptanceResult, error) {
	if caller == nil {
		return nil, ErrUnauthorized
	}
	if !status.IsValid() {
		return nil, fmt.Errorf("acceptance status %q: %w", status, ErrInvalidInput)
	}
	if userID == uuid.Nil {
		userID = caller.UserUUID
	}

	outcome, err := unwrap(withTelemetry(s, ctx, "SetAcceptance", eventID.String(), func(ctx context.Context) (results.OperationResult[*acceptanceOutcome, error], error) {
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[*acceptanceOutcome, error], error) {
			event, fail, err := s.lockEvent(ctx, db, caller, eventID)
			if err != nil {
				return results.OperationResult[*acceptanceOutcome, error]{}, err
			}
			if fail != nil {
				return failure[*acceptanceOutcome](fail), nil
			}

			action := authdomain.ActionSetAcceptance
			if userID == caller.UserUUID {
				action = authdomain.ActionSetOwnAcceptance
			}
			res := eventResource(event)
			res.TargetUserID = userID
			if err := s.authorize(caller, action, res); err != nil {
				return failure[*acceptanceOutcome](err), nil
			}

			if userID != caller.UserUUID && s.users != nil {
				ok, err := s.users.UserExists(ctx, userID)
				if err != nil {
					return results.OperationResult[*acceptanceOutcome, error]{}, err
				}
				if !ok {
					return failure[*acceptanceOutcome](ErrUserNotFound), nil
				}
			}

			result, err := s.applyAcceptance(ctx, db, event, userID, status)
			if err != nil {
				return results.OperationResult[*acceptanceOutcome, error]{}, err
			}
			return success(&acceptanceOutcome{event: event, result: result}), nil
		})
	}))
	if err != nil {
		return nil, err
	}

	st := status
	s.publishChange(ctx, outcome.event, eventdomain.ChangeAcceptance, caller, func(p *eventdomain.EventChangedPayloadV1) {
		p.UserID = &userID
		p.Acceptance = &st
	})
	return outcome.result, nil
}

// applyAcceptance is the ledger step. The caller must hold the event row lock
// in db. event's cached counters are updated to the committed values.
func (s *EventService) applyAcceptance(
	ctx context.Context,
	db bun.IDB,
	event *eventdb.Event,
	userID uuid.UUID,
	status eventdomain.AcceptanceStatus,
) (*AcceptanceResult, error) {
	existing, err := s.repo.GetAcceptance(ctx, db, event.ID, userID)
	if err != nil && !errors.Is(err, eventdb.ErrNotFound) {
		return nil, err
	}

	result := &AcceptanceResult{}
	record := &eventdb.UserEventMeta{UserID: userID, EventID: event.ID, Acceptance: status}

	if existing != nil {
		prev := existing.Acceptance
		result.Previous = &prev
		record.CreatedAt = existing.CreatedAt
		if _, err := s.repo.AdjustTally(ctx, db, event.ID, prev, -1); err != nil {
			return nil, err
		}
	}

	if err := s.repo.UpsertAcceptance(ctx, db, record); err != nil {
		return nil, err
	}

	tally, err := s.repo.AdjustTally(ctx, db, event.ID, status, 1)
	if err != nil {
		return nil, err
	}

	event.SetTally(tally)
	result.Record = record
	result.Tally = tally
	return result, nil
}

// ListAcceptances returns every acceptance record of a visible event.
func (s *EventService) ListAcceptances(ctx context.Context, caller *authdomain.Claims, eventID uuid.UUID) ([]*eventdb.UserEventMeta, error) {
	return unwrap(withTelemetry(s, ctx, "ListAcceptances", eventID.String(), func(ctx context.Context) (results.OperationResult[[]*eventdb.UserEventMeta, error], error) {
		_, fail, err := s.visibleEvent(ctx, caller, eventID)
		if err != nil {
			return results.OperationResult[[]*eventdb.UserEventMeta, error]{}, err
		}
		if fail != nil {
			return failure[[]*eventdb.UserEventMeta](fail), nil
		}
		metas, err := s.repo.ListAcceptances(ctx, nil, eventID)
		if err != nil {
			return results.OperationResult[[]*eventdb.UserEventMeta, error]{}, err
		}
		return success(metas), nil
	}))
}

// RecountTallies recomputes the cached counters from the acceptance records
// under the event row lock.
func (s *EventService) RecountTallies(ctx context.Context, caller *authdomain.Claims, eventID uuid.UUID) (eventdomain.Tally, error) {
	if caller == nil {
		return eventdomain.Tally{}, ErrUnauthorized
	}

	outcome, err := unwrap(withTelemetry(s, ctx, "RecountTallies", eventID.String(), func(ctx context.Context) (results.OperationResult[*eventdb.Event, error], error) {
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[*eventdb.Event, error], error) {
			event, err := s.repo.GetEventForUpdate(ctx, db, eventID)
			if err != nil {
				if errors.Is(err, eventdb.ErrNotFound) {
					return failure[*eventdb.Event](ErrEventNotFound), nil
				}
				return results.OperationResult[*eventdb.Event, error]{}, err
			}
			if err := s.authorize(caller, authdomain.ActionRepairEvent, eventResource(event)); err != nil {
				return failure[*eventdb.Event](err), nil
			}

			tally, err := s.repo.CountAcceptances(ctx, db, eventID)
			if err != nil {
				return results.OperationResult[*eventdb.Event, error]{}, err
			}
			if tally != event.Tally() {
				s.logger.WarnContext(ctx, "Tally drift repaired",
					slog.String("event_id", eventID.String()),
					slog.Any("cached", event.Tally()),
					slog.Any("counted", tally),
				)
			}
			if err := s.repo.SetTallies(ctx, db, eventID, tally); err != nil {
				return results.OperationResult[*eventdb.Event, error]{}, err
			}
			event.SetTally(tally)
			return success(event), nil
		})
	}))
	if err != nil {
		return eventdomain.Tally{}, err
	}

	s.publishChange(ctx, outcome, eventdomain.ChangeRecount, caller, nil)
	return outcome.Tally(), nil
}
