package eventdomain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventChangedTopic is the base topic for change notifications. Each event
// publishes on EventChangedTopic + "." + its id.
const EventChangedTopic = "event.changed.v1"

// Inbound chat-bot commands.
const (
	AcceptanceRequestedTopic = "event.acceptance.requested.v1"
	SlotAssignRequestedTopic = "event.slot.assign.requested.v1"

	// CommandRepliedTopic carries the outcome of a chat-bot command back to
	// the bot so it can answer the member.
	CommandRepliedTopic = "event.command.replied.v1"
)

// ChangeKind says what happened to an event.
type ChangeKind string

const (
	ChangeCreated     ChangeKind = "created"
	ChangeRescheduled ChangeKind = "rescheduled"
	ChangeVisibility  ChangeKind = "visibility"
	ChangeAcceptance  ChangeKind = "acceptance"
	ChangeSlotAssign  ChangeKind = "slot_assigned"
	ChangeSlotClear   ChangeKind = "slot_unassigned"
	ChangeSlots       ChangeKind = "slots"
	ChangeRecount     ChangeKind = "recount"
	ChangeReminder    ChangeKind = "reminder"
)

// Announced reports whether chat channels are told about this kind of change.
func (k ChangeKind) Announced() bool {
	switch k {
	case ChangeCreated, ChangeRescheduled, ChangeAcceptance, ChangeSlotAssign, ChangeSlotClear, ChangeReminder:
		return true
	default:
		return false
	}
}

// EventChangedPayloadV1 is published after a change to an event commits.
type EventChangedPayloadV1 struct {
	EventID    uuid.UUID         `json:"event_id"`
	Title      string            `json:"title"`
	Kind       ChangeKind        `json:"kind"`
	ActorID    uuid.UUID         `json:"actor_id,omitempty"`
	UserID     *uuid.UUID        `json:"user_id,omitempty"`
	SlotNumber *int              `json:"slot_number,omitempty"`
	Acceptance *AcceptanceStatus `json:"acceptance,omitempty"`
	Tally      Tally             `json:"tally"`
	StartsAt   *time.Time        `json:"starts_at,omitempty"`
	// Hidden events are never announced in chat.
	Hidden     bool      `json:"hidden,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Summary is a one-line, human readable description used by chat sinks.
func (p EventChangedPayloadV1) Summary() string {
	switch p.Kind {
	case ChangeAcceptance:
		status := "updated"
		if p.Acceptance != nil {
			status = string(*p.Acceptance)
		}
		return fmt.Sprintf("**%s**: a player is now %s (%d accepted, %d maybe, %d rejected)",
			p.Title, status, p.Tally.Accepted, p.Tally.Maybe, p.Tally.Rejected)
	case ChangeSlotAssign:
		return fmt.Sprintf("**%s**: slot #%d taken (%d accepted)", p.Title, deref(p.SlotNumber), p.Tally.Accepted)
	case ChangeSlotClear:
		return fmt.Sprintf("**%s**: slot #%d is open again", p.Title, deref(p.SlotNumber))
	case ChangeCreated:
		return fmt.Sprintf("New event **%s**", p.Title)
	case ChangeRescheduled:
		if p.StartsAt != nil {
			return fmt.Sprintf("**%s** was rescheduled to <t:%d:F>", p.Title, p.StartsAt.Unix())
		}
		return fmt.Sprintf("**%s** was rescheduled", p.Title)
	case ChangeReminder:
		if p.StartsAt != nil {
			return fmt.Sprintf("**%s** starts <t:%d:R> (%d accepted, %d maybe)", p.Title, p.StartsAt.Unix(), p.Tally.Accepted, p.Tally.Maybe)
		}
		return fmt.Sprintf("**%s** starts soon", p.Title)
	default:
		return fmt.Sprintf("**%s** was updated", p.Title)
	}
}

func deref(n *int) int {
	if n == nil {
		return 0
	}
	return *n
}

// AcceptanceRequestedPayloadV1 is sent by the chat bot when a member answers
// an event invitation.
type AcceptanceRequestedPayloadV1 struct {
	EventID          uuid.UUID `json:"event_id"`
	RequestorDiscord string    `json:"requestor_discord_id"`
	// TargetDiscord defaults to the requestor.
	TargetDiscord string `json:"target_discord_id,omitempty"`
	Status        string `json:"status"`
}

// SlotAssignRequestedPayloadV1 is sent by the chat bot when a member claims
// a slot, or clears their own slot when SlotNumber is zero.
type SlotAssignRequestedPayloadV1 struct {
	EventID          uuid.UUID `json:"event_id"`
	RequestorDiscord string    `json:"requestor_discord_id"`
	SlotNumber       int       `json:"slot_number"`
}

// CommandReplyPayloadV1 answers one chat-bot command.
type CommandReplyPayloadV1 struct {
	EventID          uuid.UUID `json:"event_id"`
	RequestorDiscord string    `json:"requestor_discord_id"`
	OK               bool      `json:"ok"`
	Message          string    `json:"message"`
}
