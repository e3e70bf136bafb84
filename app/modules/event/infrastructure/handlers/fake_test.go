package eventhandlers

import (
	"context"
	"sync"

	authdomain "github.com/Black-And-White-Club/opsboard/app/modules/auth/domain"
	eventservice "github.com/Black-And-White-Club/opsboard/app/modules/event/application"
	eventdomain "github.com/Black-And-White-Club/opsboard/app/modules/event/domain"
	eventdb "github.com/Black-And-White-Club/opsboard/app/modules/event/infrastructure/repositories"
	"github.com/google/uuid"
)

// FakeService records calls and delegates to the Func fields when set.
type FakeService struct {
	mu    sync.Mutex
	trace []string

	SetAcceptanceFunc          func(ctx context.Context, caller *authdomain.Claims, eventID, userID uuid.UUID, status eventdomain.AcceptanceStatus) (*eventservice.AcceptanceResult, error)
	AssignSelfFunc             func(ctx context.Context, caller *authdomain.Claims, eventID uuid.UUID, slotNumber int) (*eventservice.AssignmentResult, error)
	AssignUserFunc             func(ctx context.Context, caller *authdomain.Claims, eventID uuid.UUID, slotNumber int, userID uuid.UUID) (*eventservice.AssignmentResult, error)
	UnassignFunc               func(ctx context.Context, caller *authdomain.Claims, eventID uuid.UUID, slotNumber int) (bool, error)
	UnassignSelfIfAssignedFunc func(ctx context.Context, caller *authdomain.Claims, eventID uuid.UUID) (bool, error)
	CreateEventFunc            func(ctx context.Context, caller *authdomain.Claims, in eventservice.CreateEventInput) (*eventdb.Event, error)
	GetEventFunc               func(ctx context.Context, caller *authdomain.Claims, eventID uuid.UUID) (*eventdb.Event, error)
	ListEventsFunc             func(ctx context.Context, caller *authdomain.Claims, opts eventservice.ListOptions) ([]*eventdb.Event, error)
	ExportRosterFunc           func(ctx context.Context, caller *authdomain.Claims, eventID uuid.UUID) ([]byte, error)
}

func (f *FakeService) record(step string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trace = append(f.trace, step)
}

func (f *FakeService) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

func (f *FakeService) SetAcceptance(ctx context.Context, caller *authdomain.Claims, eventID, userID uuid.UUID, status eventdomain.AcceptanceStatus) (*eventservice.AcceptanceResult, error) {
	f.record("SetAcceptance")
	if f.SetAcceptanceFunc != nil {
		return f.SetAcceptanceFunc(ctx, caller, eventID, userID, status)
	}
	return &eventservice.AcceptanceResult{}, nil
}

func (f *FakeService) ListAcceptances(ctx context.Context, caller *authdomain.Claims, eventID uuid.UUID) ([]*eventdb.UserEventMeta, error) {
	f.record("ListAcceptances")
	return []*eventdb.UserEventMeta{}, nil
}

func (f *FakeService) RecountTallies(ctx context.Context, caller *authdomain.Claims, eventID uuid.UUID) (eventdomain.Tally, error) {
	f.record("RecountTallies")
	return eventdomain.Tally{}, nil
}

func (f *FakeService) AssignSelf(ctx context.Context, caller *authdomain.Claims, eventID uuid.UUID, slotNumber int) (*eventservice.AssignmentResult, error) {
	f.record("AssignSelf")
	if f.AssignSelfFunc != nil {
		return f.AssignSelfFunc(ctx, caller, eventID, slotNumber)
	}
	return &eventservice.AssignmentResult{Slot: &eventdb.EventSlot{EventID: eventID, SlotNumber: slotNumber}}, nil
}

func (f *FakeService) AssignUser(ctx context.Context, caller *authdomain.Claims, eventID uuid.UUID, slotNumber int, userID uuid.UUID) (*eventservice.AssignmentResult, error) {
	f.record("AssignUser")
	if f.AssignUserFunc != nil {
		return f.AssignUserFunc(ctx, caller, eventID, slotNumber, userID)
	}
	return &eventservice.AssignmentResult{Slot: &eventdb.EventSlot{EventID: eventID, SlotNumber: slotNumber, AssignedUserID: &userID}}, nil
}

func (f *FakeService) Unassign(ctx context.Context, caller *authdomain.Claims, eventID uuid.UUID, slotNumber int) (bool, error) {
	f.record("Unassign")
	if f.UnassignFunc != nil {
		return f.UnassignFunc(ctx, caller, eventID, slotNumber)
	}
	return true, nil
}

func (f *FakeService) UnassignSelfIfAssigned(ctx context.Context, caller *authdomain.Claims, eventID uuid.UUID) (bool, error) {
	f.record("UnassignSelfIfAssigned")
	if f.UnassignSelfIfAssignedFunc != nil {
		return f.UnassignSelfIfAssignedFunc(ctx, caller, eventID)
	}
	return false, nil
}

func (f *FakeService) CreateSlot(ctx context.Context, caller *authdomain.Claims, eventID uuid.UUID, in eventservice.SlotInput) (*eventdb.EventSlot, error) {
	f.record("CreateSlot")
	return &eventdb.EventSlot{EventID: eventID, SlotNumber: 1, Title: in.Title}, nil
}

func (f *FakeService) UpdateSlot(ctx context.Context, caller *authdomain.Claims, eventID uuid.UUID, slotNumber int, in eventservice.SlotInput) (*eventdb.EventSlot, error) {
	f.record("UpdateSlot")
	return &eventdb.EventSlot{EventID: eventID, SlotNumber: slotNumber, Title: in.Title}, nil
}

func (f *FakeService) DeleteSlot(ctx context.Context, caller *authdomain.Claims, eventID uuid.UUID, slotNumber int) error {
	f.record("DeleteSlot")
	return nil
}

func (f *FakeService) ListSlots(ctx context.Context, caller *authdomain.Claims, eventID uuid.UUID) ([]*eventdb.EventSlot, error) {
	f.record("ListSlots")
	return []*eventdb.EventSlot{}, nil
}

func (f *FakeService) CreateEvent(ctx context.Context, caller *authdomain.Claims, in eventservice.CreateEventInput) (*eventdb.Event, error) {
	f.record("CreateEvent")
	if f.CreateEventFunc != nil {
		return f.CreateEventFunc(ctx, caller, in)
	}
	return &eventdb.Event{ID: uuid.New(), Title: in.Title}, nil
}

func (f *FakeService) GetEvent(ctx context.Context, caller *authdomain.Claims, eventID uuid.UUID) (*eventdb.Event, error) {
	f.record("GetEvent")
	if f.GetEventFunc != nil {
		return f.GetEventFunc(ctx, caller, eventID)
	}
	return &eventdb.Event{ID: eventID}, nil
}

func (f *FakeService) ListEvents(ctx context.Context, caller *authdomain.Claims, opts eventservice.ListOptions) ([]*eventdb.Event, error) {
	f.record("ListEvents")
	if f.ListEventsFunc != nil {
		return f.ListEventsFunc(ctx, caller, opts)
	}
	return []*eventdb.Event{}, nil
}

func (f *FakeService) RescheduleEvent(ctx context.Context, caller *authdomain.Claims, eventID uuid.UUID, startsAt string) (*eventdb.Event, error) {
	f.record("RescheduleEvent")
	return &eventdb.Event{ID: eventID}, nil
}

func (f *FakeService) SetEventVisibility(ctx context.Context, caller *authdomain.Claims, eventID uuid.UUID, visible bool) (*eventdb.Event, error) {
	f.record("SetEventVisibility")
	return &eventdb.Event{ID: eventID, IsVisible: visible}, nil
}

func (f *FakeService) ExportRoster(ctx context.Context, caller *authdomain.Claims, eventID uuid.UUID) ([]byte, error) {
	f.record("ExportRoster")
	if f.ExportRosterFunc != nil {
		return f.ExportRosterFunc(ctx, caller, eventID)
	}
	return []byte("PK"), nil
}

func (f *FakeService) AttendanceChart(ctx context.Context, caller *authdomain.Claims, eventID uuid.UUID) ([]byte, error) {
	f.record("AttendanceChart")
	return []byte("\x89PNG"), nil
}

var _ eventservice.Service = (*FakeService)(nil)

// FakeUsers resolves Discord ids from a map.
type FakeUsers struct {
	ByDiscord map[string]*authdomain.Claims
	Err       error
}

func (f *FakeUsers) ClaimsForDiscordID(ctx context.Context, discordID string) (*authdomain.Claims, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	c, ok := f.ByDiscord[discordID]
	if !ok {
		return nil, eventservice.ErrUserNotFound
	}
	return c, nil
}

func (f *FakeUsers) Nicknames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	return map[uuid.UUID]string{}, nil
}

func (f *FakeUsers) UserExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return true, nil
}
