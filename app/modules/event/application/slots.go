package eventservice

import (
	"context"
	"errors"
	"fmt"
	"strings"

	authdomain "github.com/Black-And-White-Club/opsboard/app/modules/auth/domain"
	eventdomain "github.com/Black-And-White-Club/opsboard/app/modules/event/domain"
	eventdb "github.com/Black-And-White-Club/opsboard/app/modules/event/infrastructure/repositories"
	"github.com/Black-And-White-Club/opsboard/pkg/results"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type assignOutcome struct {
	event  *eventdb.Event
	result *AssignmentResult
}

type unassignOutcome struct {
	event      *eventdb.Event
	changed    bool
	slotNumber int
	userID     uuid.UUID
}

// AssignSelf puts the caller into a slot.
func (s *EventService) AssignSelf(ctx context.Context, caller *authdomain.Claims, eventID uuid.UUID, slotNumber int) (*AssignmentResult, error) {
	if caller == nil {
		return nil, ErrUnauthorized
	}
	return s.assign(ctx, caller, eventID, slotNumber, caller.UserUUID, authdomain.ActionAssignSelf, "AssignSelf")
}

// AssignUser puts userID into a slot on the caller's authority.
func (s *EventService) AssignUser(ctx context.Context, caller *authdomain.Claims, eventID uuid.UUID, slotNumber int, userID uuid.UUID) (*AssignmentResult, error) {
	if caller == nil {
		return nil, ErrUnauthorized
	}
	if userID == uuid.Nil {
		return nil, fmt.Errorf("target user is required: %w", ErrInvalidInput)
	}
	return s.assign(ctx, caller, eventID, slotNumber, userID, authdomain.ActionAssignUser, "AssignUser")
}

// assign moves target into the slot, vacating any other slot target holds in
// the event, and records target as accepted. An occupied slot is never
// overwritten.
func (s *EventService) assign(
	ctx context.Context,
	caller *authdomain.Claims,
	eventID uuid.UUID,
	slotNumber int,
	target uuid.UUID,
	action authdomain.Action,
	operationName string,
) (*AssignmentResult, error) {
	type result = results.OperationResult[*assignOutcome, error]

	outcome, err := unwrap(withTelemetry(s, ctx, operationName, eventID.String(), func(ctx context.Context) (result, error) {
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (result, error) {
			event, slot, fail, err := s.lockSlot(ctx, db, caller, eventID, slotNumber)
			if err != nil {
				return result{}, err
			}
			if fail != nil {
				return failure[*assignOutcome](fail), nil
			}

			if err := s.authorize(caller, action, slotResource(event, slot, target)); err != nil {
				return failure[*assignOutcome](err), nil
			}
			if slot.IsAssigned() {
				return failure[*assignOutcome](fmt.Errorf("slot %d: %w", slotNumber, ErrSlotTaken)), nil
			}

			if action == authdomain.ActionAssignUser && s.users != nil {
				ok, err := s.users.UserExists(ctx, target)
				if err != nil {
					return result{}, err
				}
				if !ok {
					return failure[*assignOutcome](ErrUserNotFound), nil
				}
			}

			assignment := &AssignmentResult{}
			held, err := s.repo.FindSlotByUser(ctx, db, eventID, target)
			switch {
			case err == nil:
				if err := s.repo.SetSlotAssignee(ctx, db, eventID, held.SlotNumber, nil); err != nil {
					return result{}, err
				}
				vacated := held.SlotNumber
				assignment.VacatedSlot = &vacated
			case !errors.Is(err, eventdb.ErrNotFound):
				return result{}, err
			}

			if err := s.repo.SetSlotAssignee(ctx, db, eventID, slotNumber, &target); err != nil {
				return result{}, err
			}
			slot.AssignedUserID = &target

			acceptance, err := s.applyAcceptance(ctx, db, event, target, eventdomain.AcceptanceAccepted)
			if err != nil {
				return result{}, err
			}

			assignment.Slot = slot
			assignment.Tally = acceptance.Tally
			return success(&assignOutcome{event: event, result: assignment}), nil
		})
	}))
	if err != nil {
		return nil, err
	}

	s.publishChange(ctx, outcome.event, eventdomain.ChangeSlotAssign, caller, func(p *eventdomain.EventChangedPayloadV1) {
		p.UserID = &target
		p.SlotNumber = &slotNumber
	})
	return outcome.result, nil
}

// Unassign clears a slot. It reports whether the slot had an assignee.
// Acceptance is left as it is.
func (s *EventService) Unassign(ctx context.Context, caller *authdomain.Claims, eventID uuid.UUID, slotNumber int) (bool, error) {
	if caller == nil {
		return false, ErrUnauthorized
	}
	type result = results.OperationResult[*unassignOutcome, error]

	outcome, err := unwrap(withTelemetry(s, ctx, "Unassign", eventID.String(), func(ctx context.Context) (result, error) {
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (result, error) {
			event, slot, fail, err := s.lockSlot(ctx, db, caller, eventID, slotNumber)
			if err != nil {
				return result{}, err
			}
			if fail != nil {
				return failure[*unassignOutcome](fail), nil
			}

			out := &unassignOutcome{event: event, slotNumber: slotNumber}
			if !slot.IsAssigned() {
				return success(out), nil
			}
			out.userID = *slot.AssignedUserID
			if err := s.authorize(caller, authdomain.ActionUnassign, slotResource(event, slot, out.userID)); err != nil {
				return failure[*unassignOutcome](err), nil
			}

			if err := s.repo.SetSlotAssignee(ctx, db, eventID, slotNumber, nil); err != nil {
				return result{}, err
			}
			out.changed = true
			return success(out), nil
		})
	}))
	if err != nil {
		return false, err
	}

	s.publishUnassigned(ctx, caller, outcome)
	return outcome.changed, nil
}

// UnassignSelfIfAssigned clears whichever slot the caller holds in the event.
func (s *EventService) UnassignSelfIfAssigned(ctx context.Context, caller *authdomain.Claims, eventID uuid.UUID) (bool, error) {
	if caller == nil {
		return false, ErrUnauthorized
	}
	type result = results.OperationResult[*unassignOutcome, error]

	outcome, err := unwrap(withTelemetry(s, ctx, "UnassignSelfIfAssigned", eventID.String(), func(ctx context.Context) (result, error) {
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (result, error) {
			event, fail, err := s.lockEvent(ctx, db, caller, eventID)
			if err != nil {
				return result{}, err
			}
			if fail != nil {
				return failure[*unassignOutcome](fail), nil
			}

			res := eventResource(event)
			res.TargetUserID = caller.UserUUID
			if err := s.authorize(caller, authdomain.ActionUnassign, res); err != nil {
				return failure[*unassignOutcome](err), nil
			}

			out := &unassignOutcome{event: event, userID: caller.UserUUID}
			held, err := s.repo.FindSlotByUser(ctx, db, eventID, caller.UserUUID)
			if err != nil {
				if errors.Is(err, eventdb.ErrNotFound) {
					return success(out), nil
				}
				return result{}, err
			}
			if err := s.repo.SetSlotAssignee(ctx, db, eventID, held.SlotNumber, nil); err != nil {
				return result{}, err
			}
			out.slotNumber = held.SlotNumber
			out.changed = true
			return success(out), nil
		})
	}))
	if err != nil {
		return false, err
	}

	s.publishUnassigned(ctx, caller, outcome)
	return outcome.changed, nil
}

func (s *EventService) publishUnassigned(ctx context.Context, caller *authdomain.Claims, outcome *unassignOutcome) {
	if !outcome.changed {
		return
	}
	userID, slotNumber := outcome.userID, outcome.slotNumber
	s.publishChange(ctx, outcome.event, eventdomain.ChangeSlotClear, caller, func(p *eventdomain.EventChangedPayloadV1) {
		p.UserID = &userID
		p.SlotNumber = &slotNumber
	})
}

// lockEvent row-locks a visible event. Domain failures come back in fail.
func (s *EventService) lockEvent(ctx context.Context, db bun.IDB, caller *authdomain.Claims, eventID uuid.UUID) (event *eventdb.Event, fail error, err error) {
	event, err = s.repo.GetEventForUpdate(ctx, db, eventID)
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

// lockSlot row-locks the event and loads one of its slots.
func (s *EventService) lockSlot(ctx context.Context, db bun.IDB, caller *authdomain.Claims, eventID uuid.UUID, slotNumber int) (*eventdb.Event, *eventdb.EventSlot, error, error) {
	event, fail, err := s.lockEvent(ctx, db, caller, eventID)
	if err != nil || fail != nil {
		return nil, nil, fail, err
	}
	slot, err := s.repo.GetSlot(ctx, db, eventID, slotNumber)
	if err != nil {
		if errors.Is(err, eventdb.ErrNotFound) {
			return nil, nil, fmt.Errorf("slot %d: %w", slotNumber, ErrSlotNotFound), nil
		}
		return nil, nil, nil, err
	}
	return event, slot, nil, nil
}

// -----------------------------------------------------------------------------
// Slot management
// -----------------------------------------------------------------------------

func (in SlotInput) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("slot title is required: %w", ErrInvalidInput)
	}
	return nil
}

func (in SlotInput) applyTo(slot *eventdb.EventSlot) {
	slot.Title = strings.TrimSpace(in.Title)
	slot.GroupName = strings.TrimSpace(in.GroupName)
	slot.Side = strings.TrimSpace(in.Side)
	slot.IsSelfAssignable = in.IsSelfAssignable
	slot.IsVisible = in.IsVisible
}

// CreateSlot appends a slot numbered one past the event's highest slot.
func (s *EventService) CreateSlot(ctx context.Context, caller *authdomain.Claims, eventID uuid.UUID, in SlotInput) (*eventdb.EventSlot, error) {
	if caller == nil {
		return nil, ErrUnauthorized
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	type result = results.OperationResult[*slotOutcome, error]

	outcome, err := unwrap(withTelemetry(s, ctx, "CreateSlot", eventID.String(), func(ctx context.Context) (result, error) {
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (result, error) {
			event, fail, err := s.lockManagedEvent(ctx, db, caller, eventID)
			if err != nil {
				return result{}, err
			}
			if fail != nil {
				return failure[*slotOutcome](fail), nil
			}

			number, err := s.repo.NextSlotNumber(ctx, db, eventID)
			if err != nil {
				return result{}, err
			}
			slot := &eventdb.EventSlot{EventID: eventID, SlotNumber: number}
			in.applyTo(slot)
			if err := s.repo.CreateSlot(ctx, db, slot); err != nil {
				return result{}, err
			}
			return success(&slotOutcome{event: event, slot: slot}), nil
		})
	}))
	if err != nil {
		return nil, err
	}

	s.publishChange(ctx, outcome.event, eventdomain.ChangeSlots, caller, nil)
	return outcome.slot, nil
}

// UpdateSlot edits a slot's description and flags. The assignee is untouched.
func (s *EventService) UpdateSlot(ctx context.Context, caller *authdomain.Claims, eventID uuid.UUID, slotNumber int, in SlotInput) (*eventdb.EventSlot, error) {
	if caller == nil {
		return nil, ErrUnauthorized
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	type result = results.OperationResult[*slotOutcome, error]

	outcome, err := unwrap(withTelemetry(s, ctx, "UpdateSlot", eventID.String(), func(ctx context.Context) (result, error) {
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (result, error) {
			event, fail, err := s.lockManagedEvent(ctx, db, caller, eventID)
			if err != nil {
				return result{}, err
			}
			if fail != nil {
				return failure[*slotOutcome](fail), nil
			}

			slot, err := s.repo.GetSlot(ctx, db, eventID, slotNumber)
			if err != nil {
				if errors.Is(err, eventdb.ErrNotFound) {
					return failure[*slotOutcome](ErrSlotNotFound), nil
				}
				return result{}, err
			}
			in.applyTo(slot)
			if err := s.repo.UpdateSlot(ctx, db, slot); err != nil {
				return result{}, err
			}
			return success(&slotOutcome{event: event, slot: slot}), nil
		})
	}))
	if err != nil {
		return nil, err
	}

	s.publishChange(ctx, outcome.event, eventdomain.ChangeSlots, caller, nil)
	return outcome.slot, nil
}

// DeleteSlot removes a slot. Its number is not reused while a higher slot exists.
func (s *EventService) DeleteSlot(ctx context.Context, caller *authdomain.Claims, eventID uuid.UUID, slotNumber int) error {
	if caller == nil {
		return ErrUnauthorized
	}
	type result = results.OperationResult[*slotOutcome, error]

	outcome, err := unwrap(withTelemetry(s, ctx, "DeleteSlot", eventID.String(), func(ctx context.Context) (result, error) {
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (result, error) {
			event, fail, err := s.lockManagedEvent(ctx, db, caller, eventID)
			if err != nil {
				return result{}, err
			}
			if fail != nil {
				return failure[*slotOutcome](fail), nil
			}
			if err := s.repo.DeleteSlot(ctx, db, eventID, slotNumber); err != nil {
				if errors.Is(err, eventdb.ErrNotFound) {
					return failure[*slotOutcome](ErrSlotNotFound), nil
				}
				return result{}, err
			}
			return success(&slotOutcome{event: event}), nil
		})
	}))
	if err != nil {
		return err
	}

	s.publishChange(ctx, outcome.event, eventdomain.ChangeSlots, caller, nil)
	return nil
}

// ListSlots returns the event's slots. Hidden slots are included for callers
// who manage the event's slots.
func (s *EventService) ListSlots(ctx context.Context, caller *authdomain.Claims, eventID uuid.UUID) ([]*eventdb.EventSlot, error) {
	type result = results.OperationResult[[]*eventdb.EventSlot, error]

	return unwrap(withTelemetry(s, ctx, "ListSlots", eventID.String(), func(ctx context.Context) (result, error) {
		event, fail, err := s.visibleEvent(ctx, caller, eventID)
		if err != nil {
			return result{}, err
		}
		if fail != nil {
			return failure[[]*eventdb.EventSlot](fail), nil
		}
		slots, err := s.repo.ListSlots(ctx, nil, eventID, s.canManageSlots(caller, event))
		if err != nil {
			return result{}, err
		}
		return success(slots), nil
	}))
}

type slotOutcome struct {
	event *eventdb.Event
	slot  *eventdb.EventSlot
}

// lockManagedEvent row-locks the event and checks the caller manages its slots.
func (s *EventService) lockManagedEvent(ctx context.Context, db bun.IDB, caller *authdomain.Claims, eventID uuid.UUID) (*eventdb.Event, error, error) {
	event, fail, err := s.lockEvent(ctx, db, caller, eventID)
	if err != nil || fail != nil {
		return nil, fail, err
	}
	if err := s.authorize(caller, authdomain.ActionManageSlots, eventResource(event)); err != nil {
		return nil, err, nil
	}
	return event, nil, nil
}
