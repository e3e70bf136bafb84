package eventdb

import (
	"time"

	eventdomain "github.com/Black-And-White-Club/opsboard/app/modules/event/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Event is a scheduled community gathering. The three counters cache the
// per-status number of UserEventMeta rows.
type Event struct {
	bun.BaseModel     `bun:"table:events,alias:e"`
	ID                uuid.UUID  `bun:"id,pk,type:uuid,default:gen_random_uuid()" json:"id"`
	Title             string     `bun:"title,notnull" json:"title"`
	Description       string     `bun:"description,notnull,default:''" json:"description"`
	OriginalTime      time.Time  `bun:"original_time,notnull" json:"original_time"`
	ScheduledTime     time.Time  `bun:"scheduled_time,notnull" json:"scheduled_time"`
	IsVisible         bool       `bun:"is_visible,notnull,default:true" json:"is_visible"`
	OwnerID           uuid.UUID  `bun:"owner_id,type:uuid,notnull" json:"owner_id"`
	HostID            uuid.UUID  `bun:"host_id,type:uuid,notnull" json:"host_id"`
	TerrainID         *uuid.UUID `bun:"terrain_id,type:uuid" json:"terrain_id,omitempty"`
	ModPackRevisionID *uuid.UUID `bun:"mod_pack_revision_id,type:uuid" json:"mod_pack_revision_id,omitempty"`
	AcceptedCount     int        `bun:"accepted_count,notnull,default:0" json:"accepted_count"`
	MaybeCount        int        `bun:"maybe_count,notnull,default:0" json:"maybe_count"`
	RejectedCount     int        `bun:"rejected_count,notnull,default:0" json:"rejected_count"`
	CreatedAt         time.Time  `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt         time.Time  `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}

// Tally returns the cached counters.
func (e Event) Tally() eventdomain.Tally {
	return eventdomain.Tally{
		Accepted: e.AcceptedCount,
		Maybe:    e.MaybeCount,
		Rejected: e.RejectedCount,
	}
}

// SetTally overwrites the cached counters.
func (e *Event) SetTally(t eventdomain.Tally) {
	e.AcceptedCount = t.Accepted
	e.MaybeCount = t.Maybe
	e.RejectedCount = t.Rejected
}

// UserEventMeta is one user's acceptance record for one event.
type UserEventMeta struct {
	bun.BaseModel `bun:"table:user_event_meta,alias:uem"`
	UserID        uuid.UUID                    `bun:"user_id,pk,type:uuid" json:"user_id"`
	EventID       uuid.UUID                    `bun:"event_id,pk,type:uuid" json:"event_id"`
	Acceptance    eventdomain.AcceptanceStatus `bun:"acceptance,notnull" json:"acceptance"`
	CreatedAt     time.Time                    `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt     time.Time                    `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}

// EventSlot is a numbered position in an event that one user may hold.
type EventSlot struct {
	bun.BaseModel    `bun:"table:event_slots,alias:es"`
	EventID          uuid.UUID  `bun:"event_id,pk,type:uuid" json:"event_id"`
	SlotNumber       int        `bun:"slot_number,pk" json:"slot_number"`
	Title            string     `bun:"title,notnull" json:"title"`
	GroupName        string     `bun:"group_name,notnull,default:''" json:"group_name"`
	Side             string     `bun:"side,notnull,default:''" json:"side"`
	IsSelfAssignable bool       `bun:"is_self_assignable,notnull,default:true" json:"is_self_assignable"`
	IsVisible        bool       `bun:"is_visible,notnull,default:true" json:"is_visible"`
	AssignedUserID   *uuid.UUID `bun:"assigned_user_id,type:uuid" json:"assigned_user_id,omitempty"`
}

// IsAssigned reports whether someone holds the slot.
func (s *EventSlot) IsAssigned() bool {
	return s.AssignedUserID != nil && *s.AssignedUserID != uuid.Nil
}

// HeldBy reports whether userID holds the slot.
func (s *EventSlot) HeldBy(userID uuid.UUID) bool {
	return s.IsAssigned() && *s.AssignedUserID == userID
}

// ListFilter narrows ListEvents.
type ListFilter struct {
	// IncludeHidden returns hidden events regardless of owner or host.
	IncludeHidden bool
	// ViewerID additionally returns hidden events the viewer owns or hosts.
	ViewerID uuid.UUID
	// From excludes events scheduled before it when non-zero.
	From  time.Time
	Limit int
}
