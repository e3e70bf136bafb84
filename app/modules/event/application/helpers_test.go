package eventservice

import (
	"io"
	"log/slog"
	"testing"
	"time"

	authdomain "github.com/Black-And-White-Club/opsboard/app/modules/auth/domain"
	eventdb "github.com/Black-And-White-Club/opsboard/app/modules/event/infrastructure/repositories"
	"github.com/Black-And-White-Club/opsboard/pkg/observability"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace/noop"
)

var testNow = time.Date(2027, 6, 5, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	repo      *FakeEventRepo
	notifier  *FakeNotifier
	reminders *FakeReminders
	content   *FakeContent
	users     *FakeUsers
	svc       *EventService

	event *eventdb.Event
	owner uuid.UUID
	host  uuid.UUID
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		repo:      NewFakeEventRepo(),
		notifier:  &FakeNotifier{},
		reminders: &FakeReminders{},
		content:   &FakeContent{Terrains: map[uuid.UUID]bool{}, Revisions: map[uuid.UUID]bool{}},
		users:     &FakeUsers{Names: map[uuid.UUID]string{}, ByID: map[string]*authdomain.Claims{}},
		owner:     uuid.New(),
		host:      uuid.New(),
	}
	env.users.Names[env.owner] = "Owner"
	env.users.Names[env.host] = "Host"

	env.event = env.repo.AddEvent(&eventdb.Event{
		Title:         "Operation Thunder",
		OriginalTime:  testNow.Add(48 * time.Hour),
		ScheduledTime: testNow.Add(48 * time.Hour),
		IsVisible:     true,
		OwnerID:       env.owner,
		HostID:        env.host,
	})

	env.svc = NewEventService(
		env.repo,
		Collaborators{
			Notifier:  env.notifier,
			Reminders: env.reminders,
			Content:   env.content,
			Users:     env.users,
			Clock:     fixedClock{now: testNow},
		},
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		observability.NewNoopMetrics(),
		noop.NewTracerProvider().Tracer("test"),
		nil,
	)
	return env
}

func (env *testEnv) addSlot(n int, holder *uuid.UUID) {
	env.repo.AddSlot(&eventdb.EventSlot{
		EventID:          env.event.ID,
		SlotNumber:       n,
		Title:            "Rifleman",
		IsSelfAssignable: true,
		IsVisible:        true,
		AssignedUserID:   holder,
	})
}

func (env *testEnv) newPlayer() *authdomain.Claims {
	id := uuid.New()
	env.users.Names[id] = "player-" + id.String()[:8]
	return &authdomain.Claims{UserUUID: id, DiscordID: id.String()[:8], Role: authdomain.RolePlayer}
}

func withRole(c *authdomain.Claims, role authdomain.Role) *authdomain.Claims {
	cp := *c
	cp.Role = role
	return &cp
}

func ptr[T any](v T) *T { return &v }
