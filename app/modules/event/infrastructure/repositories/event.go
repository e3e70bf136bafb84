package eventdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	eventdomain "github.com/Black-And-White-Club/opsboard/app/modules/event/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
)

// slotHolderIndex is the partial unique index on (event_id, assigned_user_id).
const slotHolderIndex = "event_slots_one_per_user_idx"

// Impl implements the Repository interface using Bun ORM.
type Impl struct {
	db bun.IDB
}

// NewRepository creates a new event repository.
func NewRepository(db bun.IDB) Repository {
	return &Impl{db: db}
}

func (r *Impl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return fmt.Errorf("failed to get %s: %w", what, err)
}

func checkAffected(res sql.Result, what string) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}

// tallyColumn maps a status to its counter column.
func tallyColumn(status eventdomain.AcceptanceStatus) (string, error) {
	switch status {
	case eventdomain.AcceptanceAccepted:
		return "accepted_count", nil
	case eventdomain.AcceptanceMaybe:
		return "maybe_count", nil
	case eventdomain.AcceptanceRejected:
		return "rejected_count", nil
	}
	return "", fmt.Errorf("unknown acceptance status %q", status)
}

// -----------------------------------------------------------------------------
// Events
// -----------------------------------------------------------------------------

func (r *Impl) CreateEvent(ctx context.Context, db bun.IDB, event *Event) error {
	db = r.resolveDB(db)
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	now := time.Now().UTC()
	event.CreatedAt = now
	event.UpdatedAt = now
	if _, err := db.NewInsert().Model(event).Exec(ctx); err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	return nil
}

func (r *Impl) GetEvent(ctx context.Context, db bun.IDB, id uuid.UUID) (*Event, error) {
	db = r.resolveDB(db)
	event := new(Event)
	if err := db.NewSelect().Model(event).Where("e.id = ?", id).Scan(ctx); err != nil {
		return nil, notFound(err, "event")
	}
	return event, nil
}

func (r *Impl) GetEventForUpdate(ctx context.Context, db bun.IDB, id uuid.UUID) (*Event, error) {
	db = r.resolveDB(db)
	event := new(Event)
	if err := db.NewSelect().Model(event).Where("e.id = ?", id).For("UPDATE").Scan(ctx); err != nil {
		return nil, notFound(err, "event")
	}
	return event, nil
}

func (r *Impl) ListEvents(ctx context.Context, db bun.IDB, filter ListFilter) ([]*Event, error) {
	db = r.resolveDB(db)
	events := make([]*Event, 0)
	q := db.NewSelect().Model(&events).Order("e.scheduled_time ASC")

	if !filter.IncludeHidden {
		if filter.ViewerID != uuid.Nil {
			q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
				return q.Where("e.is_visible = TRUE").
					WhereOr("e.owner_id = ?", filter.ViewerID).
					WhereOr("e.host_id = ?", filter.ViewerID)
			})
		} else {
			q = q.Where("e.is_visible = TRUE")
		}
	}
	if !filter.From.IsZero() {
		q = q.Where("e.scheduled_time >= ?", filter.From)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

func (r *Impl) UpdateSchedule(ctx context.Context, db bun.IDB, id uuid.UUID, scheduled time.Time) error {
	db = r.resolveDB(db)
	res, err := db.NewUpdate().
		Model((*Event)(nil)).
		Set("scheduled_time = ?", scheduled).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update event schedule: %w", err)
	}
	return checkAffected(res, "event")
}

func (r *Impl) SetVisibility(ctx context.Context, db bun.IDB, id uuid.UUID, visible bool) error {
	db = r.resolveDB(db)
	res, err := db.NewUpdate().
		Model((*Event)(nil)).
		Set("is_visible = ?", visible).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update event visibility: %w", err)
	}
	return checkAffected(res, "event")
}

// -----------------------------------------------------------------------------
// Tallies
// -----------------------------------------------------------------------------

func (r *Impl) AdjustTally(ctx context.Context, db bun.IDB, id uuid.UUID, status eventdomain.AcceptanceStatus, delta int) (eventdomain.Tally, error) {
	column, err := tallyColumn(status)
	if err != nil {
		return eventdomain.Tally{}, err
	}
	db = r.resolveDB(db)

	event := &Event{ID: id}
	res, err := db.NewUpdate().
		Model(event).
		Set(column+" = "+column+" + ?", delta).
		Where("id = ?", id).
		Returning("accepted_count, maybe_count, rejected_count").
		Exec(ctx)
	if err != nil {
		return eventdomain.Tally{}, fmt.Errorf("failed to adjust %s: %w", column, err)
	}
	if err := checkAffected(res, "event"); err != nil {
		return eventdomain.Tally{}, err
	}
	return event.Tally(), nil
}

func (r *Impl) SetTallies(ctx context.Context, db bun.IDB, id uuid.UUID, tally eventdomain.Tally) error {
	db = r.resolveDB(db)
	res, err := db.NewUpdate().
		Model((*Event)(nil)).
		Set("accepted_count = ?", tally.Accepted).
		Set("maybe_count = ?", tally.Maybe).
		Set("rejected_count = ?", tally.Rejected).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to set tallies: %w", err)
	}
	return checkAffected(res, "event")
}

func (r *Impl) CountAcceptances(ctx context.Context, db bun.IDB, eventID uuid.UUID) (eventdomain.Tally, error) {
	db = r.resolveDB(db)
	var rows []struct {
		Acceptance eventdomain.AcceptanceStatus `bun:"acceptance"`
		Count      int                          `bun:"count"`
	}
	err := db.NewSelect().
		Model((*UserEventMeta)(nil)).
		ColumnExpr("uem.acceptance").
		ColumnExpr("COUNT(*) AS count").
		Where("uem.event_id = ?", eventID).
		Group("uem.acceptance").
		Scan(ctx, &rows)
	if err != nil {
		return eventdomain.Tally{}, fmt.Errorf("failed to count acceptances: %w", err)
	}

	var tally eventdomain.Tally
	for _, row := range rows {
		tally.Apply(row.Acceptance, row.Count)
	}
	return tally, nil
}

// -----------------------------------------------------------------------------
// Acceptance records
// -----------------------------------------------------------------------------

func (r *Impl) GetAcceptance(ctx context.Context, db bun.IDB, eventID, userID uuid.UUID) (*UserEventMeta, error) {
	db = r.resolveDB(db)
	meta := new(UserEventMeta)
	err := db.NewSelect().
		Model(meta).
		Where("uem.event_id = ?", eventID).
		Where("uem.user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		return nil, notFound(err, "acceptance")
	}
	return meta, nil
}

func (r *Impl) UpsertAcceptance(ctx context.Context, db bun.IDB, meta *UserEventMeta) error {
	if !meta.Acceptance.IsValid() {
		return fmt.Errorf("invalid acceptance status %q", meta.Acceptance)
	}
	db = r.resolveDB(db)
	now := time.Now().UTC()
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = now
	}
	meta.UpdatedAt = now

	_, err := db.NewInsert().
		Model(meta).
		On("CONFLICT (user_id, event_id) DO UPDATE").
		Set("acceptance = EXCLUDED.acceptance").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to upsert acceptance: %w", err)
	}
	return nil
}

func (r *Impl) ListAcceptances(ctx context.Context, db bun.IDB, eventID uuid.UUID) ([]*UserEventMeta, error) {
	db = r.resolveDB(db)
	metas := make([]*UserEventMeta, 0)
	err := db.NewSelect().
		Model(&metas).
		Where("uem.event_id = ?", eventID).
		Order("uem.created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list acceptances: %w", err)
	}
	return metas, nil
}

// -----------------------------------------------------------------------------
// Slots
// -----------------------------------------------------------------------------

func (r *Impl) GetSlot(ctx context.Context, db bun.IDB, eventID uuid.UUID, slotNumber int) (*EventSlot, error) {
	db = r.resolveDB(db)
	slot := new(EventSlot)
	err := db.NewSelect().
		Model(slot).
		Where("es.event_id = ?", eventID).
		Where("es.slot_number = ?", slotNumber).
		Scan(ctx)
	if err != nil {
		return nil, notFound(err, "slot")
	}
	return slot, nil
}

func (r *Impl) FindSlotByUser(ctx context.Context, db bun.IDB, eventID, userID uuid.UUID) (*EventSlot, error) {
	db = r.resolveDB(db)
	slot := new(EventSlot)
	err := db.NewSelect().
		Model(slot).
		Where("es.event_id = ?", eventID).
		Where("es.assigned_user_id = ?", userID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, notFound(err, "slot")
	}
	return slot, nil
}

func (r *Impl) ListSlots(ctx context.Context, db bun.IDB, eventID uuid.UUID, includeHidden bool) ([]*EventSlot, error) {
	db = r.resolveDB(db)
	slots := make([]*EventSlot, 0)
	q := db.NewSelect().
		Model(&slots).
		Where("es.event_id = ?", eventID).
		Order("es.slot_number ASC")
	if !includeHidden {
		q = q.Where("es.is_visible = TRUE")
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list slots: %w", err)
	}
	return slots, nil
}

func (r *Impl) NextSlotNumber(ctx context.Context, db bun.IDB, eventID uuid.UUID) (int, error) {
	db = r.resolveDB(db)
	var max int
	err := db.NewSelect().
		Model((*EventSlot)(nil)).
		ColumnExpr("COALESCE(MAX(es.slot_number), 0)").
		Where("es.event_id = ?", eventID).
		Scan(ctx, &max)
	if err != nil {
		return 0, fmt.Errorf("failed to get max slot number: %w", err)
	}
	return max + 1, nil
}

func (r *Impl) CreateSlot(ctx context.Context, db bun.IDB, slot *EventSlot) error {
	db = r.resolveDB(db)
	if _, err := db.NewInsert().Model(slot).Exec(ctx); err != nil {
		return fmt.Errorf("failed to create slot: %w", mapSlotErr(err))
	}
	return nil
}

func (r *Impl) UpdateSlot(ctx context.Context, db bun.IDB, slot *EventSlot) error {
	db = r.resolveDB(db)
	res, err := db.NewUpdate().
		Model(slot).
		Column("title", "group_name", "side", "is_self_assignable", "is_visible").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update slot: %w", err)
	}
	return checkAffected(res, "slot")
}

func (r *Impl) DeleteSlot(ctx context.Context, db bun.IDB, eventID uuid.UUID, slotNumber int) error {
	db = r.resolveDB(db)
	res, err := db.NewDelete().
		Model((*EventSlot)(nil)).
		Where("event_id = ?", eventID).
		Where("slot_number = ?", slotNumber).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete slot: %w", err)
	}
	return checkAffected(res, "slot")
}

func (r *Impl) SetSlotAssignee(ctx context.Context, db bun.IDB, eventID uuid.UUID, slotNumber int, userID *uuid.UUID) error {
	db = r.resolveDB(db)
	res, err := db.NewUpdate().
		Model((*EventSlot)(nil)).
		Set("assigned_user_id = ?", userID).
		Where("event_id = ?", eventID).
		Where("slot_number = ?", slotNumber).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to set slot assignee: %w", mapSlotErr(err))
	}
	return checkAffected(res, "slot")
}

// mapSlotErr turns a violation of the one-slot-per-user index into ErrSlotHeld.
func mapSlotErr(err error) error {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) && pgErr.IntegrityViolation() && pgErr.Field('n') == slotHolderIndex {
		return ErrSlotHeld
	}
	return err
}
