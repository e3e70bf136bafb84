package eventservice

import (
	"context"
	"errors"
	"sync"
	"testing"

	authdomain "github.com/Black-And-White-Club/opsboard/app/modules/auth/domain"
	eventdomain "github.com/Black-And-White-Club/opsboard/app/modules/event/domain"
	eventdb "github.com/Black-And-White-Club/opsboard/app/modules/event/infrastructure/repositories"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

func TestSetAcceptance_FirstRejectedOnlyTouchesRejected(t *testing.T) {
	env := newTestEnv(t)
	u1 := env.newPlayer()

	res, err := env.svc.SetAcceptance(context.Background(), u1, env.event.ID, uuid.Nil, eventdomain.AcceptanceRejected)
	require.NoError(t, err)

	assert.Nil(t, res.Previous)
	assert.Equal(t, eventdomain.Tally{Rejected: 1}, res.Tally)
	assert.Equal(t, eventdomain.Tally{Rejected: 1}, env.repo.Event(env.event.ID).Tally())

	status, ok := env.repo.Acceptance(env.event.ID, u1.UserUUID)
	require.True(t, ok)
	assert.Equal(t, eventdomain.AcceptanceRejected, status)

	require.Len(t, env.notifier.Published, 1)
	change := env.notifier.Published[0]
	assert.Equal(t, "event.changed.v1."+env.event.ID.String(), change.Topic)
	assert.Equal(t, eventdomain.ChangeAcceptance, change.Payload.Kind)
	assert.Equal(t, u1.UserUUID, *change.Payload.UserID)
	assert.Equal(t, eventdomain.Tally{Rejected: 1}, change.Payload.Tally)
}

func TestSetAcceptance_SameStatusTwiceRewritesRecord(t *testing.T) {
	env := newTestEnv(t)
	u1 := env.newPlayer()
	ctx := context.Background()

	_, err := env.svc.SetAcceptance(ctx, u1, env.event.ID, u1.UserUUID, eventdomain.AcceptanceMaybe)
	require.NoError(t, err)
	before := env.repo.Event(env.event.ID).Tally()
	traceLen := len(env.repo.Trace())

	res, err := env.svc.SetAcceptance(ctx, u1, env.event.ID, u1.UserUUID, eventdomain.AcceptanceMaybe)
	require.NoError(t, err)

	assert.Equal(t, before, env.repo.Event(env.event.ID).Tally())
	assert.Equal(t, eventdomain.Tally{Maybe: 1}, res.Tally)
	require.NotNil(t, res.Previous)
	assert.Equal(t, eventdomain.AcceptanceMaybe, *res.Previous)

	// The decrement and increment still run and the record is written again.
	assert.Equal(t, []string{
		"GetEventForUpdate",
		"GetAcceptance",
		"AdjustTally",
		"UpsertAcceptance",
		"AdjustTally",
	}, env.repo.Trace()[traceLen:])
}

func TestSetAcceptance_ChangeMovesTally(t *testing.T) {
	env := newTestEnv(t)
	u1 := env.newPlayer()
	ctx := context.Background()

	_, err := env.svc.SetAcceptance(ctx, u1, env.event.ID, uuid.Nil, eventdomain.AcceptanceAccepted)
	require.NoError(t, err)
	res, err := env.svc.SetAcceptance(ctx, u1, env.event.ID, uuid.Nil, eventdomain.AcceptanceRejected)
	require.NoError(t, err)

	assert.Equal(t, eventdomain.Tally{Rejected: 1}, res.Tally)
	assert.Equal(t, eventdomain.AcceptanceAccepted, *res.Previous)
}

func TestSetAcceptance_TalliesMatchRecords(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	faker := gofakeit.New(7)

	players := make([]*authdomain.Claims, 12)
	for i := range players {
		players[i] = env.newPlayer()
	}
	statuses := []string{"accepted", "maybe", "rejected"}

	for i := 0; i < 200; i++ {
		p := players[faker.Number(0, len(players)-1)]
		status := eventdomain.AcceptanceStatus(faker.RandomString(statuses))

		_, err := env.svc.SetAcceptance(ctx, p, env.event.ID, uuid.Nil, status)
		require.NoError(t, err)

		cached := env.repo.Event(env.event.ID).Tally()
		require.Equal(t, env.repo.CountedTally(env.event.ID), cached, "after call %d", i)
	}
}

func TestSetAcceptance_ConcurrentUsers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		p := env.newPlayer()
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.svc.SetAcceptance(ctx, p, env.event.ID, uuid.Nil, eventdomain.AcceptanceAccepted)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, eventdomain.Tally{Accepted: 25}, env.repo.Event(env.event.ID).Tally())
}

func TestSetAcceptance_Failures(t *testing.T) {
	tests := []struct {
		name    string
		caller  func(env *testEnv) *authdomain.Claims
		target  func(env *testEnv) uuid.UUID
		eventID func(env *testEnv) uuid.UUID
		status  eventdomain.AcceptanceStatus
		wantErr error
		noTrace bool
	}{
		{
			name:    "unauthenticated caller touches nothing",
			caller:  func(env *testEnv) *authdomain.Claims { return nil },
			status:  eventdomain.AcceptanceAccepted,
			wantErr: ErrUnauthorized,
			noTrace: true,
		},
		{
			name:    "invalid status",
			caller:  func(env *testEnv) *authdomain.Claims { return env.newPlayer() },
			status:  eventdomain.AcceptanceStatus("sure"),
			wantErr: ErrInvalidInput,
			noTrace: true,
		},
		{
			name:    "missing event",
			caller:  func(env *testEnv) *authdomain.Claims { return env.newPlayer() },
			eventID: func(env *testEnv) uuid.UUID { return uuid.New() },
			status:  eventdomain.AcceptanceAccepted,
			wantErr: ErrEventNotFound,
		},
		{
			name:    "player answering for someone else",
			caller:  func(env *testEnv) *authdomain.Claims { return env.newPlayer() },
			target:  func(env *testEnv) uuid.UUID { return env.newPlayer().UserUUID },
			status:  eventdomain.AcceptanceAccepted,
			wantErr: ErrForbidden,
		},
		{
			name:    "host answering for an unknown user",
			caller:  func(env *testEnv) *authdomain.Claims { return &authdomain.Claims{UserUUID: env.host, Role: authdomain.RolePlayer} },
			target:  func(env *testEnv) uuid.UUID { return uuid.New() },
			status:  eventdomain.AcceptanceAccepted,
			wantErr: ErrUserNotFound,
		},
		{
			name:    "viewer cannot answer",
			caller:  func(env *testEnv) *authdomain.Claims { return withRole(env.newPlayer(), authdomain.RoleViewer) },
			status:  eventdomain.AcceptanceAccepted,
			wantErr: ErrPermissionDenied,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			eventID := env.event.ID
			if tt.eventID != nil {
				eventID = tt.eventID(env)
			}
			target := uuid.Nil
			if tt.target != nil {
				target = tt.target(env)
			}

			_, err := env.svc.SetAcceptance(context.Background(), tt.caller(env), eventID, target, tt.status)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)

			if tt.noTrace {
				assert.Empty(t, env.repo.Trace())
			}
			assert.Equal(t, eventdomain.Tally{}, env.repo.Event(env.event.ID).Tally())
			assert.Empty(t, env.notifier.Published)
		})
	}
}

func TestSetAcceptance_HostAnswersForPlayer(t *testing.T) {
	env := newTestEnv(t)
	host := &authdomain.Claims{UserUUID: env.host, Role: authdomain.RolePlayer}
	target := env.newPlayer()

	res, err := env.svc.SetAcceptance(context.Background(), host, env.event.ID, target.UserUUID, eventdomain.AcceptanceMaybe)
	require.NoError(t, err)
	assert.Equal(t, target.UserUUID, res.Record.UserID)
	assert.Equal(t, env.host, env.notifier.Published[0].Payload.ActorID)
}

func TestSetAcceptance_StorageErrorIsWrapped(t *testing.T) {
	env := newTestEnv(t)
	env.repo.UpsertAcceptanceFunc = func(ctx context.Context, db bun.IDB, meta *eventdb.UserEventMeta) error {
		return errors.New("connection reset")
	}

	_, err := env.svc.SetAcceptance(context.Background(), env.newPlayer(), env.event.ID, uuid.Nil, eventdomain.AcceptanceAccepted)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SetAcceptance: connection reset")
	assert.Empty(t, env.notifier.Published)
}

func TestRecountTallies(t *testing.T) {
	env := newTestEnv(t)
	u1, u2 := env.newPlayer(), env.newPlayer()
	env.repo.AddAcceptance(env.event.ID, u1.UserUUID, eventdomain.AcceptanceAccepted)
	env.repo.AddAcceptance(env.event.ID, u2.UserUUID, eventdomain.AcceptanceMaybe)

	// Corrupt the cache.
	require.NoError(t, env.repo.SetTallies(context.Background(), nil, env.event.ID, eventdomain.Tally{Accepted: 9}))

	_, err := env.svc.RecountTallies(context.Background(), u1, env.event.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	owner := &authdomain.Claims{UserUUID: env.owner, Role: authdomain.RolePlayer}
	tally, err := env.svc.RecountTallies(context.Background(), owner, env.event.ID)
	require.NoError(t, err)
	assert.Equal(t, eventdomain.Tally{Accepted: 1, Maybe: 1}, tally)
	assert.Equal(t, tally, env.repo.Event(env.event.ID).Tally())
}
