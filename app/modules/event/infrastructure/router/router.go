package eventrouter

import (
	"context"
	"fmt"
	"log/slog"

	eventdomain "github.com/Black-And-White-Club/opsboard/app/modules/event/domain"
	eventhandlers "github.com/Black-And-White-Club/opsboard/app/modules/event/infrastructure/handlers"
	"github.com/Black-And-White-Club/opsboard/pkg/eventbus"
	"github.com/Black-And-White-Club/opsboard/pkg/handlerwrapper"
	"github.com/Black-And-White-Club/opsboard/pkg/observability"
	"github.com/ThreeDotsLabs/watermill/components/metrics"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
)

// EventRouter registers the chat-bot command handlers on the watermill router.
type EventRouter struct {
	logger         *slog.Logger
	Router         *message.Router
	subscriber     eventbus.EventBus
	publisher      eventbus.EventBus
	tracer         trace.Tracer
	metricsBuilder *metrics.PrometheusMetricsBuilder
}

// NewEventRouter creates a new EventRouter. A nil registry disables router metrics.
func NewEventRouter(
	logger *slog.Logger,
	router *message.Router,
	subscriber eventbus.EventBus,
	publisher eventbus.EventBus,
	tracer trace.Tracer,
	registry prometheus.Registerer,
) *EventRouter {
	var metricsBuilder *metrics.PrometheusMetricsBuilder
	if registry != nil {
		builder := metrics.NewPrometheusMetricsBuilder(registry, "opsboard", "event")
		metricsBuilder = &builder
	}
	return &EventRouter{
		logger:         logger,
		Router:         router,
		subscriber:     subscriber,
		publisher:      publisher,
		tracer:         tracer,
		metricsBuilder: metricsBuilder,
	}
}

// Configure adds the middleware and registers the command handlers.
func (r *EventRouter) Configure(routerCtx context.Context, handlers *eventhandlers.CommandHandlers, handlerMetrics observability.OperationMetrics) error {
	if r.metricsBuilder != nil {
		r.logger.InfoContext(routerCtx, "Adding Prometheus router metrics middleware")
		r.metricsBuilder.AddPrometheusRouterMetrics(r.Router)
	}

	r.Router.AddMiddleware(
		middleware.CorrelationID,
		middleware.Recoverer,
		middleware.Retry{MaxRetries: 3}.Middleware,
	)

	if err := r.RegisterHandlers(routerCtx, handlers, handlerMetrics); err != nil {
		return fmt.Errorf("failed to register handlers: %w", err)
	}
	return nil
}

type handlerDeps struct {
	router     *message.Router
	subscriber eventbus.EventBus
	wrapper    handlerwrapper.Deps
}

// registerHandler registers a typed handler whose results go back on the bus.
func registerHandler[T any](
	deps handlerDeps,
	topic string,
	handler func(context.Context, *T) ([]handlerwrapper.Result, error),
) {
	handlerName := "event." + topic
	deps.router.AddNoPublisherHandler(
		handlerName,
		topic,
		deps.subscriber,
		handlerwrapper.WrapTyped(handlerName, deps.wrapper, handler),
	)
}

// RegisterHandlers subscribes the command topics.
func (r *EventRouter) RegisterHandlers(ctx context.Context, handlers *eventhandlers.CommandHandlers, handlerMetrics observability.OperationMetrics) error {
	deps := handlerDeps{
		router:     r.Router,
		subscriber: r.subscriber,
		wrapper: handlerwrapper.Deps{
			Logger:    r.logger,
			Tracer:    r.tracer,
			Metrics:   handlerMetrics,
			Publisher: r.publisher,
		},
	}

	registerHandler(deps, eventdomain.AcceptanceRequestedTopic, handlers.HandleAcceptanceRequested)
	registerHandler(deps, eventdomain.SlotAssignRequestedTopic, handlers.HandleSlotAssignRequested)

	r.logger.InfoContext(ctx, "Event command handlers registered")
	return nil
}

// Close stops the router.
func (r *EventRouter) Close() error {
	return r.Router.Close()
}
