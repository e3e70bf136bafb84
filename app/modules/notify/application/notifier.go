package notifyservice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	eventdomain "github.com/Black-And-White-Club/opsboard/app/modules/event/domain"
	"github.com/Black-And-White-Club/opsboard/pkg/eventbus"
	"github.com/Black-And-White-Club/opsboard/pkg/observability"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "Notifier"

// Notification is one committed change, encoded once for every sink.
type Notification struct {
	Topic   string
	EventID uuid.UUID
	Data    []byte
	// Change is set when the payload is an event change.
	Change *eventdomain.EventChangedPayloadV1
}

// Sink delivers notifications to one audience.
type Sink interface {
	Deliver(ctx context.Context, n Notification) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, n Notification) error

func (f SinkFunc) Deliver(ctx context.Context, n Notification) error { return f(ctx, n) }

type namedSink struct {
	name string
	sink Sink
}

// FanOut delivers each notification to every registered sink. A failing
// sink does not stop delivery to the others.
type FanOut struct {
	sinks   []namedSink
	logger  *slog.Logger
	metrics observability.OperationMetrics
	tracer  trace.Tracer
}

// NewFanOut creates a FanOut with no sinks.
func NewFanOut(logger *slog.Logger, metrics observability.OperationMetrics, tracer trace.Tracer) *FanOut {
	if metrics == nil {
		metrics = observability.NewNoopMetrics()
	}
	return &FanOut{logger: logger, metrics: metrics, tracer: tracer}
}

// Register adds a sink. Sinks must be registered before the first Publish.
func (f *FanOut) Register(name string, sink Sink) {
	f.sinks = append(f.sinks, namedSink{name: name, sink: sink})
}

// Publish encodes payload and hands it to each sink.
func (f *FanOut) Publish(ctx context.Context, topic string, payload any) error {
	ctx, span := f.tracer.Start(ctx, "Notifier.Publish", trace.WithAttributes(
		attribute.String("topic", topic),
	))
	defer span.End()

	data, err := json.Marshal(payload)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to encode notification: %w", err)
	}

	n := Notification{Topic: topic, Data: data}
	switch p := payload.(type) {
	case eventdomain.EventChangedPayloadV1:
		n.EventID, n.Change = p.EventID, &p
	case *eventdomain.EventChangedPayloadV1:
		n.EventID, n.Change = p.EventID, p
	default:
		if scope, ok := eventbus.ScopeFromTopic(eventdomain.EventChangedTopic, topic); ok {
			n.EventID, _ = uuid.Parse(scope)
		}
	}

	var errs []error
	for _, s := range f.sinks {
		op := "Deliver." + s.name
		f.metrics.RecordOperationAttempt(ctx, op, serviceName)
		start := time.Now()
		err := s.sink.Deliver(ctx, n)
		f.metrics.RecordOperationDuration(ctx, op, serviceName, time.Since(start))
		if err != nil {
			f.metrics.RecordOperationFailure(ctx, op, serviceName)
			f.logger.WarnContext(ctx, "Notification sink failed",
				slog.String("sink", s.name),
				slog.String("topic", topic),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
			continue
		}
		f.metrics.RecordOperationSuccess(ctx, op, serviceName)
	}

	if err := errors.Join(errs...); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// BusSink publishes notifications on the message bus under their topic.
func BusSink(bus eventbus.EventBus) Sink {
	return SinkFunc(func(ctx context.Context, n Notification) error {
		msg := eventbus.NewMessage(ctx, n.Data)
		msg.Metadata.Set("topic", n.Topic)
		return bus.Publish(n.Topic, msg)
	})
}
