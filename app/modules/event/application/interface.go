package eventservice

import (
	"context"

	authdomain "github.com/Black-And-White-Club/opsboard/app/modules/auth/domain"
	eventdomain "github.com/Black-And-White-Club/opsboard/app/modules/event/domain"
	eventdb "github.com/Black-And-White-Club/opsboard/app/modules/event/infrastructure/repositories"
	"github.com/google/uuid"
)

// Service is the event scheduling, acceptance and slotting API. Mutating
// calls with a nil caller fail with ErrUnauthorized before touching storage.
type Service interface {
	// Acceptance ledger
	SetAcceptance(ctx context.Context, caller *authdomain.Claims, eventID, userID uuid.UUID, status eventdomain.AcceptanceStatus) (*AcceptanceResult, error)
	ListAcceptances(ctx context.Context, caller *authdomain.Claims, eventID uuid.UUID) ([]*eventdb.UserEventMeta, error)
	RecountTallies(ctx context.Context, caller *authdomain.Claims, eventID uuid.UUID) (eventdomain.Tally, error)

	// Slot assignment
	AssignSelf(ctx context.Context, caller *authdomain.Claims, eventID uuid.UUID, slotNumber int) (*AssignmentResult, error)
	AssignUser(ctx context.Context, caller *authdomain.Claims, eventID uuid.UUID, slotNumber int, userID uuid.UUID) (*AssignmentResult, error)
	Unassign(ctx context.Context, caller *authdomain.Claims, eventID uuid.UUID, slotNumber int) (bool, error)
	UnassignSelfIfAssigned(ctx context.Context, caller *authdomain.Claims, eventID uuid.UUID) (bool, error)

	// Slot management
	CreateSlot(ctx context.Context, caller *authdomain.Claims, eventID uuid.UUID, in SlotInput) (*eventdb.EventSlot, error)
	UpdateSlot(ctx context.Context, caller *authdomain.Claims, eventID uuid.UUID, slotNumber int, in SlotInput) (*eventdb.EventSlot, error)
	DeleteSlot(ctx context.Context, caller *authdomain.Claims, eventID uuid.UUID, slotNumber int) error
	ListSlots(ctx context.Context, caller *authdomain.Claims, eventID uuid.UUID) ([]*eventdb.EventSlot, error)

	// Events
	CreateEvent(ctx context.Context, caller *authdomain.Claims, in CreateEventInput) (*eventdb.Event, error)
	GetEvent(ctx context.Context, caller *authdomain.Claims, eventID uuid.UUID) (*eventdb.Event, error)
	ListEvents(ctx context.Context, caller *authdomain.Claims, opts ListOptions) ([]*eventdb.Event, error)
	RescheduleEvent(ctx context.Context, caller *authdomain.Claims, eventID uuid.UUID, startsAt string) (*eventdb.Event, error)
	SetEventVisibility(ctx context.Context, caller *authdomain.Claims, eventID uuid.UUID, visible bool) (*eventdb.Event, error)

	// Reports
	ExportRoster(ctx context.Context, caller *authdomain.Claims, eventID uuid.UUID) ([]byte, error)
	AttendanceChart(ctx context.Context, caller *authdomain.Claims, eventID uuid.UUID) ([]byte, error)
}

// AcceptanceResult is the outcome of SetAcceptance.
type AcceptanceResult struct {
	Record   *eventdb.UserEventMeta        `json:"record"`
	Previous *eventdomain.AcceptanceStatus `json:"previous,omitempty"`
	Tally    eventdomain.Tally             `json:"tally"`
}

// AssignmentResult is the outcome of AssignSelf and AssignUser.
type AssignmentResult struct {
	Slot *eventdb.EventSlot `json:"slot"`
	// VacatedSlot is the slot number the user held before, if any.
	VacatedSlot *int              `json:"vacated_slot,omitempty"`
	Tally       eventdomain.Tally `json:"tally"`
}

// CreateEventInput carries the fields of a new event.
type CreateEventInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	// StartsAt is RFC 3339 or a phrase such as "next friday at 8pm".
	StartsAt          string     `json:"starts_at"`
	HostID            *uuid.UUID `json:"host_id,omitempty"`
	TerrainID         *uuid.UUID `json:"terrain_id,omitempty"`
	ModPackRevisionID *uuid.UUID `json:"mod_pack_revision_id,omitempty"`
	Hidden            bool       `json:"hidden"`
}

// SlotInput carries the editable fields of a slot.
type SlotInput struct {
	Title            string `json:"title"`
	GroupName        string `json:"group_name"`
	Side             string `json:"side"`
	IsSelfAssignable bool   `json:"is_self_assignable"`
	IsVisible        bool   `json:"is_visible"`
}

// ListOptions narrows ListEvents.
type ListOptions struct {
	Upcoming bool
	Limit    int
}
