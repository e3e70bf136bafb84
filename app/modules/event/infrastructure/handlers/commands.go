package eventhandlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	authdomain "github.com/Black-And-White-Club/opsboard/app/modules/auth/domain"
	eventservice "github.com/Black-And-White-Club/opsboard/app/modules/event/application"
	eventdomain "github.com/Black-And-White-Club/opsboard/app/modules/event/domain"
	"github.com/Black-And-White-Club/opsboard/pkg/apperrors"
	"github.com/Black-And-White-Club/opsboard/pkg/handlerwrapper"
	"github.com/google/uuid"
)

// CommandHandlers turns chat-bot commands from the bus into service calls.
// Members are identified by Discord id and resolved through the user directory.
type CommandHandlers struct {
	service eventservice.Service
	users   eventservice.UserDirectory
	logger  *slog.Logger
}

// NewCommandHandlers creates a new CommandHandlers instance.
func NewCommandHandlers(service eventservice.Service, users eventservice.UserDirectory, logger *slog.Logger) *CommandHandlers {
	return &CommandHandlers{service: service, users: users, logger: logger}
}

// HandleAcceptanceRequested records a member's answer to an event.
func (h *CommandHandlers) HandleAcceptanceRequested(ctx context.Context, payload *eventdomain.AcceptanceRequestedPayloadV1) ([]handlerwrapper.Result, error) {
	if payload == nil {
		return nil, errors.New("payload cannot be nil")
	}

	status, err := eventdomain.ParseAcceptanceStatus(payload.Status)
	if err != nil {
		return reply(payload.EventID, payload.RequestorDiscord, err.Error(), false), nil
	}

	caller, fail, err := h.resolve(ctx, payload.RequestorDiscord)
	if err != nil || fail != nil {
		return h.outcome(payload.EventID, payload.RequestorDiscord, fail, err)
	}

	target := caller.UserUUID
	if payload.TargetDiscord != "" && payload.TargetDiscord != payload.RequestorDiscord {
		other, fail, err := h.resolve(ctx, payload.TargetDiscord)
		if err != nil || fail != nil {
			return h.outcome(payload.EventID, payload.RequestorDiscord, fail, err)
		}
		target = other.UserUUID
	}

	result, err := h.service.SetAcceptance(ctx, caller, payload.EventID, target, status)
	if err != nil {
		return h.outcome(payload.EventID, payload.RequestorDiscord, nil, err)
	}

	msg := fmt.Sprintf("Marked as %s (%d accepted, %d maybe, %d rejected)",
		status, result.Tally.Accepted, result.Tally.Maybe, result.Tally.Rejected)
	return reply(payload.EventID, payload.RequestorDiscord, msg, true), nil
}

// HandleSlotAssignRequested claims a slot for the member, or clears their
// slot when SlotNumber is zero.
func (h *CommandHandlers) HandleSlotAssignRequested(ctx context.Context, payload *eventdomain.SlotAssignRequestedPayloadV1) ([]handlerwrapper.Result, error) {
	if payload == nil {
		return nil, errors.New("payload cannot be nil")
	}
	if payload.SlotNumber < 0 {
		return reply(payload.EventID, payload.RequestorDiscord, "Slot numbers start at 1", false), nil
	}

	caller, fail, err := h.resolve(ctx, payload.RequestorDiscord)
	if err != nil || fail != nil {
		return h.outcome(payload.EventID, payload.RequestorDiscord, fail, err)
	}

	if payload.SlotNumber == 0 {
		changed, err := h.service.UnassignSelfIfAssigned(ctx, caller, payload.EventID)
		if err != nil {
			return h.outcome(payload.EventID, payload.RequestorDiscord, nil, err)
		}
		msg := "You did not hold a slot"
		if changed {
			msg = "Your slot is open again"
		}
		return reply(payload.EventID, payload.RequestorDiscord, msg, true), nil
	}

	result, err := h.service.AssignSelf(ctx, caller, payload.EventID, payload.SlotNumber)
	if err != nil {
		return h.outcome(payload.EventID, payload.RequestorDiscord, nil, err)
	}

	msg := fmt.Sprintf("You are in slot #%d", result.Slot.SlotNumber)
	if result.VacatedSlot != nil {
		msg += fmt.Sprintf(" (left slot #%d)", *result.VacatedSlot)
	}
	return reply(payload.EventID, payload.RequestorDiscord, msg, true), nil
}

// resolve maps a Discord id to claims. Unknown members come back in fail.
func (h *CommandHandlers) resolve(ctx context.Context, discordID string) (claims *authdomain.Claims, fail error, err error) {
	if discordID == "" {
		return nil, eventservice.ErrUnauthorized, nil
	}
	claims, err = h.users.ClaimsForDiscordID(ctx, discordID)
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return nil, eventservice.ErrUserNotFound, nil
	case apperrors.IsDomain(err):
		return nil, err, nil
	case err != nil:
		return nil, nil, err
	}
	return claims, nil, nil
}

// outcome answers a domain rejection and passes infrastructure errors on
// for retry.
func (h *CommandHandlers) outcome(eventID uuid.UUID, requestor string, fail, err error) ([]handlerwrapper.Result, error) {
	if err != nil && !apperrors.IsDomain(err) {
		return nil, err
	}
	if fail == nil {
		fail = err
	}
	return reply(eventID, requestor, rejectionMessage(fail), false), nil
}

func rejectionMessage(err error) string {
	switch {
	case errors.Is(err, eventservice.ErrSlotTaken):
		return "That slot is already taken"
	case errors.Is(err, eventservice.ErrUnauthorized), errors.Is(err, eventservice.ErrUserNotFound):
		return "Sign in on the website first"
	case errors.Is(err, eventservice.ErrForbidden):
		return "You are not allowed to do that"
	case errors.Is(err, eventservice.ErrEventNotFound):
		return "That event does not exist"
	case errors.Is(err, eventservice.ErrSlotNotFound):
		return "That slot does not exist"
	default:
		return err.Error()
	}
}

func reply(eventID uuid.UUID, requestor, msg string, ok bool) []handlerwrapper.Result {
	return []handlerwrapper.Result{{
		Topic: eventdomain.CommandRepliedTopic,
		Payload: eventdomain.CommandReplyPayloadV1{
			EventID:          eventID,
			RequestorDiscord: requestor,
			OK:               ok,
			Message:          msg,
		},
	}}
}
