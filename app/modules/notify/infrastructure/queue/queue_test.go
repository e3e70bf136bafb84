package notifyqueue

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	eventdomain "github.com/Black-And-White-Club/opsboard/app/modules/event/domain"
	eventdb "github.com/Black-And-White-Club/opsboard/app/modules/event/infrastructure/repositories"
	notifyservice "github.com/Black-And-White-Club/opsboard/app/modules/notify/application"
	"github.com/Black-And-White-Club/opsboard/app/modules/notify/infrastructure/webhook"
	"github.com/Black-And-White-Club/opsboard/pkg/observability"
	"github.com/google/uuid"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type insertCall struct {
	args river.JobArgs
	opts *river.InsertOpts
}

type fakeInserter struct {
	calls []insertCall
	err   error
}

func (f *fakeInserter) Insert(ctx context.Context, args river.JobArgs, opts *river.InsertOpts) (*rivertype.JobInsertResult, error) {
	f.calls = append(f.calls, insertCall{args: args, opts: opts})
	if f.err != nil {
		return nil, f.err
	}
	return &rivertype.JobInsertResult{Job: &rivertype.JobRow{ID: int64(len(f.calls))}}, nil
}

func TestScheduleReminder(t *testing.T) {
	now := time.Date(2027, 6, 5, 12, 0, 0, 0, time.UTC)
	eventID := uuid.New()

	tests := []struct {
		name     string
		startsAt time.Time
		wantAt   time.Time
		wantCall bool
	}{
		{name: "lead before start", startsAt: now.Add(2 * time.Hour), wantAt: now.Add(90 * time.Minute), wantCall: true},
		{name: "inside the lead fires now", startsAt: now.Add(10 * time.Minute), wantAt: now, wantCall: true},
		{name: "already started", startsAt: now.Add(-time.Minute)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ins := &fakeInserter{}
			s := newService(ins, 30*time.Minute, true, discardLogger(), observability.NewNoopMetrics())
			s.now = func() time.Time { return now }

			require.NoError(t, s.ScheduleReminder(context.Background(), eventID, tt.startsAt))
			if !tt.wantCall {
				assert.Empty(t, ins.calls)
				return
			}
			require.Len(t, ins.calls, 1)
			assert.Equal(t, EventReminderArgs{EventID: eventID, StartsAt: tt.startsAt}, ins.calls[0].args)
			assert.Equal(t, tt.wantAt, ins.calls[0].opts.ScheduledAt)
			assert.Equal(t, QueueName, ins.calls[0].opts.Queue)
			assert.True(t, ins.calls[0].opts.UniqueOpts.ByArgs)
		})
	}

	t.Run("insert failure", func(t *testing.T) {
		s := newService(&fakeInserter{err: errors.New("pool closed")}, time.Minute, true, discardLogger(), observability.NewNoopMetrics())
		s.now = func() time.Time { return now }
		err := s.ScheduleReminder(context.Background(), eventID, now.Add(time.Hour))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "pool closed")
	})
}

func TestDeliverQueuesAnnouncements(t *testing.T) {
	eventID := uuid.New()
	change := func(kind eventdomain.ChangeKind, hidden bool) *eventdomain.EventChangedPayloadV1 {
		return &eventdomain.EventChangedPayloadV1{EventID: eventID, Title: "Op Harvest", Kind: kind, Hidden: hidden}
	}

	tests := []struct {
		name     string
		announce bool
		change   *eventdomain.EventChangedPayloadV1
		wantJob  bool
	}{
		{name: "acceptance", announce: true, change: change(eventdomain.ChangeAcceptance, false), wantJob: true},
		{name: "hidden event", announce: true, change: change(eventdomain.ChangeAcceptance, true)},
		{name: "quiet kind", announce: true, change: change(eventdomain.ChangeRecount, false)},
		{name: "not a change", announce: true},
		{name: "discord disabled", announce: false, change: change(eventdomain.ChangeCreated, false)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ins := &fakeInserter{}
			s := newService(ins, time.Minute, tt.announce, discardLogger(), observability.NewNoopMetrics())

			require.NoError(t, s.Deliver(context.Background(), notifyservice.Notification{EventID: eventID, Change: tt.change}))
			if !tt.wantJob {
				assert.Empty(t, ins.calls)
				return
			}
			require.Len(t, ins.calls, 1)
			assert.Equal(t, DiscordNotifyArgs{EventID: eventID, Content: tt.change.Summary()}, ins.calls[0].args)
			assert.Nil(t, ins.calls[0].opts)
		})
	}
}

type fakePoster struct {
	sent []string
	err  error
}

func (f *fakePoster) Send(ctx context.Context, content string) error {
	f.sent = append(f.sent, content)
	return f.err
}

func TestDiscordNotifyWorker(t *testing.T) {
	job := &river.Job[DiscordNotifyArgs]{Args: DiscordNotifyArgs{EventID: uuid.New(), Content: "hello"}}

	t.Run("posts", func(t *testing.T) {
		poster := &fakePoster{}
		require.NoError(t, NewDiscordNotifyWorker(poster, discardLogger()).Work(context.Background(), job))
		assert.Equal(t, []string{"hello"}, poster.sent)
	})

	t.Run("rate limited snoozes", func(t *testing.T) {
		poster := &fakePoster{err: &webhook.RateLimitedError{RetryAfter: 3 * time.Second}}
		err := NewDiscordNotifyWorker(poster, discardLogger()).Work(context.Background(), job)
		require.Error(t, err)
		var limited *webhook.RateLimitedError
		assert.False(t, errors.As(err, &limited))
	})

	t.Run("other failures retry", func(t *testing.T) {
		poster := &fakePoster{err: errors.New("boom")}
		err := NewDiscordNotifyWorker(poster, discardLogger()).Work(context.Background(), job)
		assert.EqualError(t, err, "boom")
	})
}

type fakeEvents struct {
	event *eventdb.Event
	err   error
}

func (f *fakeEvents) GetEvent(ctx context.Context, db bun.IDB, id uuid.UUID) (*eventdb.Event, error) {
	return f.event, f.err
}

type fakeNotifier struct {
	topics   []string
	payloads []eventdomain.EventChangedPayloadV1
}

func (f *fakeNotifier) Publish(ctx context.Context, topic string, payload any) error {
	f.topics = append(f.topics, topic)
	f.payloads = append(f.payloads, payload.(eventdomain.EventChangedPayloadV1))
	return nil
}

func TestEventReminderWorker(t *testing.T) {
	starts := time.Date(2027, 6, 6, 17, 0, 0, 0, time.UTC)
	event := &eventdb.Event{ID: uuid.New(), Title: "Op Harvest", ScheduledTime: starts, IsVisible: true, AcceptedCount: 4}

	tests := []struct {
		name        string
		events      *fakeEvents
		argsStart   time.Time
		wantErr     bool
		wantPublish bool
	}{
		{name: "due", events: &fakeEvents{event: event}, argsStart: starts, wantPublish: true},
		{name: "rescheduled", events: &fakeEvents{event: event}, argsStart: starts.Add(-time.Hour)},
		{name: "deleted", events: &fakeEvents{err: eventdb.ErrNotFound}, argsStart: starts},
		{name: "storage down", events: &fakeEvents{err: errors.New("conn refused")}, argsStart: starts, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notifier := &fakeNotifier{}
			w := NewEventReminderWorker(tt.events, notifier, discardLogger())
			job := &river.Job[EventReminderArgs]{Args: EventReminderArgs{EventID: event.ID, StartsAt: tt.argsStart}}

			err := w.Work(context.Background(), job)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			if !tt.wantPublish {
				assert.Empty(t, notifier.payloads)
				return
			}
			require.Len(t, notifier.payloads, 1)
			p := notifier.payloads[0]
			assert.Equal(t, eventdomain.ChangeReminder, p.Kind)
			assert.Equal(t, 4, p.Tally.Accepted)
			assert.False(t, p.Hidden)
			assert.Equal(t, "event.changed.v1."+event.ID.String(), notifier.topics[0])
		})
	}
}
