// Package handlerwrapper adapts typed message handlers to watermill.
package handlerwrapper

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Black-And-White-Club/opsboard/pkg/apperrors"
	"github.com/Black-And-White-Club/opsboard/pkg/eventbus"
	"github.com/Black-And-White-Club/opsboard/pkg/observability"
	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const handlerService = "MessageHandler"

// Result is one message a handler wants published.
type Result struct {
	Topic    string
	Payload  any
	Metadata map[string]string
}

// Publisher is the subset of eventbus.EventBus the wrapper needs.
type Publisher interface {
	Publish(topic string, messages ...*message.Message) error
}

// Deps are shared by every wrapped handler of a router.
type Deps struct {
	Logger    *slog.Logger
	Tracer    trace.Tracer
	Metrics   observability.OperationMetrics
	Publisher Publisher
}

// WrapTyped decodes the JSON payload into T, runs handler and publishes its
// results with the incoming correlation id.
//
// Undecodable payloads and domain errors are acknowledged: retrying them
// cannot succeed. Any other error is returned so the router retries.
func WrapTyped[T any](
	handlerName string,
	deps Deps,
	handler func(ctx context.Context, payload *T) ([]Result, error),
) message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		ctx := msg.Context()
		correlationID := msg.Metadata.Get(eventbus.CorrelationIDKey)
		if correlationID != "" {
			ctx = eventbus.WithCorrelationID(ctx, correlationID)
		}

		ctx, span := deps.Tracer.Start(ctx, handlerName, trace.WithAttributes(
			attribute.String("message.uuid", msg.UUID),
			attribute.String("correlation_id", correlationID),
		))
		defer span.End()

		logger := deps.Logger.With(
			slog.String("handler", handlerName),
			slog.String("message_id", msg.UUID),
			slog.String("correlation_id", correlationID),
		)

		if deps.Metrics != nil {
			deps.Metrics.RecordOperationAttempt(ctx, handlerName, handlerService)
			start := time.Now()
			defer func() {
				deps.Metrics.RecordOperationDuration(ctx, handlerName, handlerService, time.Since(start))
			}()
		}

		payload := new(T)
		if err := json.Unmarshal(msg.Payload, payload); err != nil {
			logger.WarnContext(ctx, "Dropping undecodable message", slog.String("error", err.Error()))
			span.SetStatus(codes.Error, "undecodable payload")
			return nil
		}

		results, err := handler(ctx, payload)
		if err != nil {
			if apperrors.IsDomain(err) {
				logger.WarnContext(ctx, "Handler rejected message", slog.String("error", err.Error()))
				return nil
			}
			logger.ErrorContext(ctx, "Handler failed", slog.String("error", err.Error()))
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			if deps.Metrics != nil {
				deps.Metrics.RecordOperationFailure(ctx, handlerName, handlerService)
			}
			return fmt.Errorf("%s: %w", handlerName, err)
		}

		for _, result := range results {
			if err := publish(ctx, deps.Publisher, result); err != nil {
				logger.ErrorContext(ctx, "Failed to publish handler result",
					slog.String("topic", result.Topic),
					slog.String("error", err.Error()),
				)
				if deps.Metrics != nil {
					deps.Metrics.RecordOperationFailure(ctx, handlerName, handlerService)
				}
				return fmt.Errorf("%s: publish %s: %w", handlerName, result.Topic, err)
			}
		}

		if deps.Metrics != nil {
			deps.Metrics.RecordOperationSuccess(ctx, handlerName, handlerService)
		}
		logger.InfoContext(ctx, "Handler completed", slog.Int("results", len(results)))
		return nil
	}
}

func publish(ctx context.Context, publisher Publisher, result Result) error {
	if publisher == nil {
		return fmt.Errorf("no publisher configured")
	}
	data, err := json.Marshal(result.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}
	out := eventbus.NewMessage(ctx, data)
	for k, v := range result.Metadata {
		out.Metadata.Set(k, v)
	}
	return publisher.Publish(result.Topic, out)
}
