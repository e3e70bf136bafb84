package eventservice

import (
	"fmt"

	authdomain "github.com/Black-And-White-Club/opsboard/app/modules/auth/domain"
	eventdb "github.com/Black-And-White-Club/opsboard/app/modules/event/infrastructure/repositories"
	"github.com/google/uuid"
)

// eventResource describes event for a policy request.
func eventResource(event *eventdb.Event) authdomain.Resource {
	return authdomain.Resource{OwnerID: event.OwnerID, HostID: event.HostID}
}

// slotResource describes a slot in event acted on for target.
func slotResource(event *eventdb.Event, slot *eventdb.EventSlot, target uuid.UUID) authdomain.Resource {
	res := eventResource(event)
	res.TargetUserID = target
	res.SlotSelfAssignable = slot.IsSelfAssignable
	res.SlotVisible = slot.IsVisible
	return res
}

// authorize evaluates the policy set once for the request.
func (s *EventService) authorize(caller *authdomain.Claims, action authdomain.Action, res authdomain.Resource) error {
	if caller == nil {
		return ErrUnauthorized
	}
	if !s.policies.Allowed(authdomain.Request{Claims: caller, Action: action, Resource: res}) {
		return fmt.Errorf("%s: %w", action, ErrPermissionDenied)
	}
	return nil
}

// canView reports whether caller may see event. Hidden events are visible to
// their owner, host and callers allowed to view hidden events.
func (s *EventService) canView(caller *authdomain.Claims, event *eventdb.Event) bool {
	if event.IsVisible {
		return true
	}
	if caller == nil {
		return false
	}
	return s.policies.Allowed(authdomain.Request{
		Claims:   caller,
		Action:   authdomain.ActionViewHidden,
		Resource: eventResource(event),
	})
}

// canManageSlots reports whether caller sees hidden slots of event.
func (s *EventService) canManageSlots(caller *authdomain.Claims, event *eventdb.Event) bool {
	if caller == nil {
		return false
	}
	return s.policies.Allowed(authdomain.Request{
		Claims:   caller,
		Action:   authdomain.ActionManageSlots,
		Resource: eventResource(event),
	})
}
