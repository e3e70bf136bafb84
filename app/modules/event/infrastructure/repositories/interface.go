package eventdb

import (
	"context"
	"time"

	eventdomain "github.com/Black-And-White-Club/opsboard/app/modules/event/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Repository defines the contract for event, acceptance and slot persistence.
// Every method accepts an optional bun.IDB so callers can run it inside a
// transaction; nil uses the repository's own connection.
type Repository interface {
	// --- Events ---
	CreateEvent(ctx context.Context, db bun.IDB, event *Event) error
	GetEvent(ctx context.Context, db bun.IDB, id uuid.UUID) (*Event, error)
	// GetEventForUpdate loads the event and holds its row lock until the
	// surrounding transaction ends.
	GetEventForUpdate(ctx context.Context, db bun.IDB, id uuid.UUID) (*Event, error)
	ListEvents(ctx context.Context, db bun.IDB, filter ListFilter) ([]*Event, error)
	UpdateSchedule(ctx context.Context, db bun.IDB, id uuid.UUID, scheduled time.Time) error
	SetVisibility(ctx context.Context, db bun.IDB, id uuid.UUID, visible bool) error

	// --- Tallies ---
	// AdjustTally atomically adds delta to the counter for status and
	// returns the counters after the update.
	AdjustTally(ctx context.Context, db bun.IDB, id uuid.UUID, status eventdomain.AcceptanceStatus, delta int) (eventdomain.Tally, error)
	SetTallies(ctx context.Context, db bun.IDB, id uuid.UUID, tally eventdomain.Tally) error
	CountAcceptances(ctx context.Context, db bun.IDB, eventID uuid.UUID) (eventdomain.Tally, error)

	// --- Acceptance records ---
	GetAcceptance(ctx context.Context, db bun.IDB, eventID, userID uuid.UUID) (*UserEventMeta, error)
	UpsertAcceptance(ctx context.Context, db bun.IDB, meta *UserEventMeta) error
	ListAcceptances(ctx context.Context, db bun.IDB, eventID uuid.UUID) ([]*UserEventMeta, error)

	// --- Slots ---
	GetSlot(ctx context.Context, db bun.IDB, eventID uuid.UUID, slotNumber int) (*EventSlot, error)
	FindSlotByUser(ctx context.Context, db bun.IDB, eventID, userID uuid.UUID) (*EventSlot, error)
	ListSlots(ctx context.Context, db bun.IDB, eventID uuid.UUID, includeHidden bool) ([]*EventSlot, error)
	NextSlotNumber(ctx context.Context, db bun.IDB, eventID uuid.UUID) (int, error)
	CreateSlot(ctx context.Context, db bun.IDB, slot *EventSlot) error
	UpdateSlot(ctx context.Context, db bun.IDB, slot *EventSlot) error
	DeleteSlot(ctx context.Context, db bun.IDB, eventID uuid.UUID, slotNumber int) error
	// SetSlotAssignee sets or, with a nil userID, clears the slot's assignee.
	SetSlotAssignee(ctx context.Context, db bun.IDB, eventID uuid.UUID, slotNumber int, userID *uuid.UUID) error
}
