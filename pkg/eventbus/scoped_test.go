package eventbus

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/nats-io/nkeys"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatScopedTopic(t *testing.T) {
	assert.Equal(t, "event.changed.v1.abc", FormatScopedTopic("event.changed.v1", "abc"))
}

func TestScopeFromTopic(t *testing.T) {
	tests := []struct {
		name   string
		topic  string
		want   string
		wantOK bool
	}{
		{name: "scoped", topic: "event.changed.v1.abc", want: "abc", wantOK: true},
		{name: "other base", topic: "slot.changed.v1.abc", wantOK: false},
		{name: "no scope", topic: "event.changed.v1.", wantOK: false},
		{name: "bare base", topic: "event.changed.v1", wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ScopeFromTopic("event.changed.v1", tt.topic)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPublishWithScope(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bus := NewInMemoryEventBus(logger)
	defer bus.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	messages, err := bus.Subscribe(ctx, "event.changed.v1.e1")
	require.NoError(t, err)

	msg := NewMessage(WithCorrelationID(ctx, "corr-1"), []byte(`{"ok":true}`))
	require.NoError(t, PublishWithScope(bus, "event.changed.v1", "e1", msg))

	select {
	case got := <-messages:
		assert.Equal(t, `{"ok":true}`, string(got.Payload))
		assert.Equal(t, "corr-1", got.Metadata.Get(CorrelationIDKey))
		got.Ack()
	case <-ctx.Done():
		t.Fatal("message not delivered")
	}

	err = PublishWithScope(bus, "event.changed.v1", "", message.NewMessage("x", nil))
	assert.Error(t, err)
}

func TestNkeyOption(t *testing.T) {
	_, err := nkeyOption("not-a-seed")
	assert.Error(t, err)

	kp, err := nkeys.CreateUser()
	require.NoError(t, err)
	seed, err := kp.Seed()
	require.NoError(t, err)

	opt, err := nkeyOption(string(seed))
	require.NoError(t, err)
	assert.NotNil(t, opt)
}

func TestNewNATSEventBus_RequiresURL(t *testing.T) {
	_, err := NewNATSEventBus(NATSConfig{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Error(t, err)
}
