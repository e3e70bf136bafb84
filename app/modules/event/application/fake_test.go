package eventservice

import (
	"context"
	"sort"
	"sync"
	"time"

	authdomain "github.com/Black-And-White-Club/opsboard/app/modules/auth/domain"
	eventdomain "github.com/Black-And-White-Club/opsboard/app/modules/event/domain"
	eventdb "github.com/Black-And-White-Club/opsboard/app/modules/event/infrastructure/repositories"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ------------------------
// Fake Event Repo
// ------------------------

type slotKey struct {
	eventID uuid.UUID
	number  int
}

type metaKey struct {
	eventID uuid.UUID
	userID  uuid.UUID
}

// FakeEventRepo keeps events, acceptance records and slots in memory.
type FakeEventRepo struct {
	mu    sync.Mutex
	trace []string

	events map[uuid.UUID]*eventdb.Event
	metas  map[metaKey]*eventdb.UserEventMeta
	slots  map[slotKey]*eventdb.EventSlot

	GetEventForUpdateFunc func(ctx context.Context, db bun.IDB, id uuid.UUID) (*eventdb.Event, error)
	AdjustTallyFunc       func(ctx context.Context, db bun.IDB, id uuid.UUID, status eventdomain.AcceptanceStatus, delta int) (eventdomain.Tally, error)
	UpsertAcceptanceFunc  func(ctx context.Context, db bun.IDB, meta *eventdb.UserEventMeta) error
	ListEventsFunc        func(ctx context.Context, db bun.IDB, filter eventdb.ListFilter) ([]*eventdb.Event, error)
}

func NewFakeEventRepo() *FakeEventRepo {
	return &FakeEventRepo{
		trace:  []string{},
		events: map[uuid.UUID]*eventdb.Event{},
		metas:  map[metaKey]*eventdb.UserEventMeta{},
		slots:  map[slotKey]*eventdb.EventSlot{},
	}
}

func (f *FakeEventRepo) record(step string) {
	f.trace = append(f.trace, step)
}

// --- Seeding helpers ---

func (f *FakeEventRepo) AddEvent(e *eventdb.Event) *eventdb.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	cp := *e
	f.events[e.ID] = &cp
	return e
}

func (f *FakeEventRepo) AddSlot(s *eventdb.EventSlot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *s
	f.slots[slotKey{s.EventID, s.SlotNumber}] = &cp
}

func (f *FakeEventRepo) AddAcceptance(eventID, userID uuid.UUID, status eventdomain.AcceptanceStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.metas[metaKey{eventID, userID}] = &eventdb.UserEventMeta{EventID: eventID, UserID: userID, Acceptance: status}
	e := f.events[eventID]
	t := e.Tally()
	t.Apply(status, 1)
	e.SetTally(t)
}

// --- Inspection helpers ---

func (f *FakeEventRepo) Event(id uuid.UUID) eventdb.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.events[id]
}

func (f *FakeEventRepo) Slot(eventID uuid.UUID, n int) eventdb.EventSlot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.slots[slotKey{eventID, n}]
}

func (f *FakeEventRepo) Acceptance(eventID, userID uuid.UUID) (eventdomain.AcceptanceStatus, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.metas[metaKey{eventID, userID}]
	if !ok {
		return "", false
	}
	return m.Acceptance, true
}

// CountedTally recomputes the tally from the stored records.
func (f *FakeEventRepo) CountedTally(eventID uuid.UUID) eventdomain.Tally {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.count(eventID)
}

func (f *FakeEventRepo) count(eventID uuid.UUID) eventdomain.Tally {
	var t eventdomain.Tally
	for k, m := range f.metas {
		if k.eventID == eventID {
			t.Apply(m.Acceptance, 1)
		}
	}
	return t
}

// HoldersOf returns how many slots each user holds in the event.
func (f *FakeEventRepo) HoldersOf(eventID uuid.UUID) map[uuid.UUID]int {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[uuid.UUID]int{}
	for k, s := range f.slots {
		if k.eventID == eventID && s.IsAssigned() {
			out[*s.AssignedUserID]++
		}
	}
	return out
}

func (f *FakeEventRepo) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

// --- Repository Interface Implementation ---

func (f *FakeEventRepo) CreateEvent(ctx context.Context, db bun.IDB, event *eventdb.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CreateEvent")
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	cp := *event
	f.events[event.ID] = &cp
	return nil
}

func (f *FakeEventRepo) GetEvent(ctx context.Context, db bun.IDB, id uuid.UUID) (*eventdb.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetEvent")
	e, ok := f.events[id]
	if !ok {
		return nil, eventdb.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (f *FakeEventRepo) GetEventForUpdate(ctx context.Context, db bun.IDB, id uuid.UUID) (*eventdb.Event, error) {
	if f.GetEventForUpdateFunc != nil {
		f.mu.Lock()
		f.record("GetEventForUpdate")
		f.mu.Unlock()
		return f.GetEventForUpdateFunc(ctx, db, id)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetEventForUpdate")
	e, ok := f.events[id]
	if !ok {
		return nil, eventdb.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (f *FakeEventRepo) ListEvents(ctx context.Context, db bun.IDB, filter eventdb.ListFilter) ([]*eventdb.Event, error) {
	if f.ListEventsFunc != nil {
		return f.ListEventsFunc(ctx, db, filter)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListEvents")
	out := []*eventdb.Event{}
	for _, e := range f.events {
		visible := e.IsVisible || filter.IncludeHidden ||
			(filter.ViewerID != uuid.Nil && (e.OwnerID == filter.ViewerID || e.HostID == filter.ViewerID))
		if !visible || (!filter.From.IsZero() && e.ScheduledTime.Before(filter.From)) {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledTime.Before(out[j].ScheduledTime) })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (f *FakeEventRepo) UpdateSchedule(ctx context.Context, db bun.IDB, id uuid.UUID, scheduled time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UpdateSchedule")
	e, ok := f.events[id]
	if !ok {
		return eventdb.ErrNotFound
	}
	e.ScheduledTime = scheduled
	return nil
}

func (f *FakeEventRepo) SetVisibility(ctx context.Context, db bun.IDB, id uuid.UUID, visible bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("SetVisibility")
	e, ok := f.events[id]
	if !ok {
		return eventdb.ErrNotFound
	}
	e.IsVisible = visible
	return nil
}

func (f *FakeEventRepo) AdjustTally(ctx context.Context, db bun.IDB, id uuid.UUID, status eventdomain.AcceptanceStatus, delta int) (eventdomain.Tally, error) {
	if f.AdjustTallyFunc != nil {
		return f.AdjustTallyFunc(ctx, db, id, status, delta)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("AdjustTally")
	e, ok := f.events[id]
	if !ok {
		return eventdomain.Tally{}, eventdb.ErrNotFound
	}
	t := e.Tally()
	t.Apply(status, delta)
	e.SetTally(t)
	return t, nil
}

func (f *FakeEventRepo) SetTallies(ctx context.Context, db bun.IDB, id uuid.UUID, tally eventdomain.Tally) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("SetTallies")
	e, ok := f.events[id]
	if !ok {
		return eventdb.ErrNotFound
	}
	e.SetTally(tally)
	return nil
}

func (f *FakeEventRepo) CountAcceptances(ctx context.Context, db bun.IDB, eventID uuid.UUID) (eventdomain.Tally, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CountAcceptances")
	return f.count(eventID), nil
}

func (f *FakeEventRepo) GetAcceptance(ctx context.Context, db bun.IDB, eventID, userID uuid.UUID) (*eventdb.UserEventMeta, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetAcceptance")
	m, ok := f.metas[metaKey{eventID, userID}]
	if !ok {
		return nil, eventdb.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (f *FakeEventRepo) UpsertAcceptance(ctx context.Context, db bun.IDB, meta *eventdb.UserEventMeta) error {
	if f.UpsertAcceptanceFunc != nil {
		return f.UpsertAcceptanceFunc(ctx, db, meta)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UpsertAcceptance")
	cp := *meta
	f.metas[metaKey{meta.EventID, meta.UserID}] = &cp
	return nil
}

func (f *FakeEventRepo) ListAcceptances(ctx context.Context, db bun.IDB, eventID uuid.UUID) ([]*eventdb.UserEventMeta, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListAcceptances")
	out := []*eventdb.UserEventMeta{}
	for k, m := range f.metas {
		if k.eventID == eventID {
			cp := *m
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID.String() < out[j].UserID.String() })
	return out, nil
}

func (f *FakeEventRepo) GetSlot(ctx context.Context, db bun.IDB, eventID uuid.UUID, slotNumber int) (*eventdb.EventSlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetSlot")
	s, ok := f.slots[slotKey{eventID, slotNumber}]
	if !ok {
		return nil, eventdb.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *FakeEventRepo) FindSlotByUser(ctx context.Context, db bun.IDB, eventID, userID uuid.UUID) (*eventdb.EventSlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("FindSlotByUser")
	for k, s := range f.slots {
		if k.eventID == eventID && s.HeldBy(userID) {
			cp := *s
			return &cp, nil
		}
	}
	return nil, eventdb.ErrNotFound
}

func (f *FakeEventRepo) ListSlots(ctx context.Context, db bun.IDB, eventID uuid.UUID, includeHidden bool) ([]*eventdb.EventSlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListSlots")
	out := []*eventdb.EventSlot{}
	for k, s := range f.slots {
		if k.eventID == eventID && (includeHidden || s.IsVisible) {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SlotNumber < out[j].SlotNumber })
	return out, nil
}

func (f *FakeEventRepo) NextSlotNumber(ctx context.Context, db bun.IDB, eventID uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("NextSlotNumber")
	max := 0
	for k := range f.slots {
		if k.eventID == eventID && k.number > max {
			max = k.number
		}
	}
	return max + 1, nil
}

func (f *FakeEventRepo) CreateSlot(ctx context.Context, db bun.IDB, slot *eventdb.EventSlot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CreateSlot")
	cp := *slot
	f.slots[slotKey{slot.EventID, slot.SlotNumber}] = &cp
	return nil
}

func (f *FakeEventRepo) UpdateSlot(ctx context.Context, db bun.IDB, slot *eventdb.EventSlot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UpdateSlot")
	existing, ok := f.slots[slotKey{slot.EventID, slot.SlotNumber}]
	if !ok {
		return eventdb.ErrNotFound
	}
	cp := *slot
	cp.AssignedUserID = existing.AssignedUserID
	f.slots[slotKey{slot.EventID, slot.SlotNumber}] = &cp
	return nil
}

func (f *FakeEventRepo) DeleteSlot(ctx context.Context, db bun.IDB, eventID uuid.UUID, slotNumber int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteSlot")
	k := slotKey{eventID, slotNumber}
	if _, ok := f.slots[k]; !ok {
		return eventdb.ErrNotFound
	}
	delete(f.slots, k)
	return nil
}

func (f *FakeEventRepo) SetSlotAssignee(ctx context.Context, db bun.IDB, eventID uuid.UUID, slotNumber int, userID *uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("SetSlotAssignee")
	s, ok := f.slots[slotKey{eventID, slotNumber}]
	if !ok {
		return eventdb.ErrNotFound
	}
	if userID != nil {
		for k, other := range f.slots {
			if k.eventID == eventID && k.number != slotNumber && other.HeldBy(*userID) {
				return eventdb.ErrSlotHeld
			}
		}
		id := *userID
		s.AssignedUserID = &id
		return nil
	}
	s.AssignedUserID = nil
	return nil
}

var _ eventdb.Repository = (*FakeEventRepo)(nil)

// ------------------------
// Fake collaborators
// ------------------------

type publishedChange struct {
	Topic   string
	Payload eventdomain.EventChangedPayloadV1
}

type FakeNotifier struct {
	mu        sync.Mutex
	Published []publishedChange
	Err       error
}

func (f *FakeNotifier) Publish(ctx context.Context, topic string, payload any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, _ := payload.(eventdomain.EventChangedPayloadV1)
	f.Published = append(f.Published, publishedChange{Topic: topic, Payload: p})
	return f.Err
}

func (f *FakeNotifier) Kinds() []eventdomain.ChangeKind {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]eventdomain.ChangeKind, 0, len(f.Published))
	for _, p := range f.Published {
		out = append(out, p.Payload.Kind)
	}
	return out
}

type FakeReminders struct {
	Scheduled map[uuid.UUID]time.Time
}

func (f *FakeReminders) ScheduleReminder(ctx context.Context, eventID uuid.UUID, startsAt time.Time) error {
	if f.Scheduled == nil {
		f.Scheduled = map[uuid.UUID]time.Time{}
	}
	f.Scheduled[eventID] = startsAt
	return nil
}

type FakeContent struct {
	Terrains  map[uuid.UUID]bool
	Revisions map[uuid.UUID]bool
}

func (f *FakeContent) TerrainExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return f.Terrains[id], nil
}

func (f *FakeContent) RevisionExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return f.Revisions[id], nil
}

type FakeUsers struct {
	Names map[uuid.UUID]string
	ByID  map[string]*authdomain.Claims
}

func (f *FakeUsers) ClaimsForDiscordID(ctx context.Context, discordID string) (*authdomain.Claims, error) {
	c, ok := f.ByID[discordID]
	if !ok {
		return nil, ErrUserNotFound
	}
	return c, nil
}

func (f *FakeUsers) Nicknames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	out := map[uuid.UUID]string{}
	for _, id := range ids {
		if n, ok := f.Names[id]; ok {
			out[id] = n
		}
	}
	return out, nil
}

func (f *FakeUsers) UserExists(ctx context.Context, id uuid.UUID) (bool, error) {
	_, ok := f.Names[id]
	return ok, nil
}

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }
