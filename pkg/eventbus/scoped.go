package eventbus

import (
	"context"
	"fmt"
	"strings"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
)

// CorrelationIDKey is the metadata key carrying the correlation id.
const CorrelationIDKey = middleware.CorrelationIDMetadataKey

type correlationKey struct{}

// WithCorrelationID stores a correlation id on the context.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

// CorrelationID returns the correlation id stored on the context.
func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}

// PublishWithScope publishes msg on {baseTopic}.{scope}.
//
// Consumers subscribe to one scope ("event.changed.v1.<id>") or, on NATS, to
// all of them with a wildcard ("event.changed.v1.*").
func PublishWithScope(bus EventBus, baseTopic, scope string, msg *message.Message) error {
	if scope == "" {
		return fmt.Errorf("scope cannot be empty for scoped publish")
	}
	return bus.Publish(FormatScopedTopic(baseTopic, scope), msg)
}

// FormatScopedTopic formats a topic with a scope suffix without publishing.
func FormatScopedTopic(baseTopic, scope string) string {
	return fmt.Sprintf("%s.%s", baseTopic, scope)
}

// ScopeFromTopic returns the scope suffix of a topic built by FormatScopedTopic.
func ScopeFromTopic(baseTopic, topic string) (string, bool) {
	prefix := baseTopic + "."
	if !strings.HasPrefix(topic, prefix) || len(topic) == len(prefix) {
		return "", false
	}
	return topic[len(prefix):], true
}
