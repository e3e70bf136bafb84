package eventservice_integration_tests

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	authdomain "github.com/Black-And-White-Club/opsboard/app/modules/auth/domain"
	eventservice "github.com/Black-And-White-Club/opsboard/app/modules/event/application"
	eventdomain "github.com/Black-And-White-Club/opsboard/app/modules/event/domain"
	eventdb "github.com/Black-And-White-Club/opsboard/app/modules/event/infrastructure/repositories"
	notifyservice "github.com/Black-And-White-Club/opsboard/app/modules/notify/application"
	"github.com/Black-And-White-Club/opsboard/integration_tests/testutils"
	"github.com/Black-And-White-Club/opsboard/pkg/observability"
)

type testDeps struct {
	env     *testutils.TestEnvironment
	service eventservice.Service
	repo    eventdb.Repository
	gen     *testutils.TestDataGenerator
	sent    *sentChanges
}

// sentChanges records every change delivered through the fan-out.
type sentChanges struct {
	mu      sync.Mutex
	changes []*eventdomain.EventChangedPayloadV1
}

func (s *sentChanges) Deliver(_ context.Context, n notifyservice.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.changes = append(s.changes, n.Change)
	return nil
}

func (s *sentChanges) Kinds() []eventdomain.ChangeKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	kinds := make([]eventdomain.ChangeKind, 0, len(s.changes))
	for _, c := range s.changes {
		kinds = append(kinds, c.Kind)
	}
	return kinds
}

func setup(t *testing.T) testDeps {
	t.Helper()
	env := testutils.RequireEnv(t)
	obs := testutils.Observability()

	sent := &sentChanges{}
	fanOut := notifyservice.NewFanOut(obs.Logger, observability.NewNoopMetrics(), obs.Tracer)
	fanOut.Register("recorder", sent)

	repo := eventdb.NewRepository(env.DB)
	service := eventservice.NewEventService(repo, eventservice.Collaborators{
		Notifier: fanOut,
	}, obs.Logger, observability.NewNoopMetrics(), obs.Tracer, env.DB)

	return testDeps{
		env:     env,
		service: service,
		repo:    repo,
		gen:     testutils.NewTestDataGenerator(env.DB, 42),
		sent:    sent,
	}
}

// requireTallyMatchesRecords checks the cached counters against the records.
func requireTallyMatchesRecords(t *testing.T, deps testDeps, event *eventdb.Event) eventdomain.Tally {
	t.Helper()
	ctx := context.Background()

	stored, err := deps.repo.GetEvent(ctx, nil, event.ID)
	require.NoError(t, err)
	counted, err := deps.repo.CountAcceptances(ctx, nil, event.ID)
	require.NoError(t, err)
	require.Equal(t, counted, stored.Tally(), "cached tally drifted from acceptance records")
	return stored.Tally()
}

func seedEvent(t *testing.T, deps testDeps, slots int) (*authdomain.Claims, *eventdb.Event) {
	t.Helper()
	ctx := context.Background()

	host, err := deps.gen.CreateUser(ctx, authdomain.RolePlayer)
	require.NoError(t, err)
	event, err := deps.gen.CreateEvent(ctx, host.UserUUID)
	require.NoError(t, err)
	if slots > 0 {
		_, err = deps.gen.CreateSlots(ctx, event.ID, slots)
		require.NoError(t, err)
	}
	return host, event
}
