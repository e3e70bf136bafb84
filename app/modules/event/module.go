package event

import (
	"context"
	"errors"
	"fmt"

	eventservice "github.com/Black-And-White-Club/opsboard/app/modules/event/application"
	eventhandlers "github.com/Black-And-White-Club/opsboard/app/modules/event/infrastructure/handlers"
	eventdb "github.com/Black-And-White-Club/opsboard/app/modules/event/infrastructure/repositories"
	eventrouter "github.com/Black-And-White-Club/opsboard/app/modules/event/infrastructure/router"
	"github.com/Black-And-White-Club/opsboard/pkg/eventbus"
	"github.com/Black-And-White-Club/opsboard/pkg/observability"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/uptrace/bun"
)

// Module represents the event module.
type Module struct {
	EventService  eventservice.Service
	Repository    eventdb.Repository
	EventRouter   *eventrouter.EventRouter
	observability observability.Observability
}

// NewEventModule wires the event service, mounts /api/events and registers
// the chat-bot command handlers on router when both router and bus are set.
func NewEventModule(
	ctx context.Context,
	obs observability.Observability,
	db *bun.DB,
	collab eventservice.Collaborators,
	bus eventbus.EventBus,
	router *message.Router,
	httpRouter chi.Router,
) (*Module, error) {
	logger := obs.Logger
	tracer := obs.Tracer
	logger.InfoContext(ctx, "event.NewEventModule initializing")

	metrics := observability.NewOperationMetrics(obs.Registry, "event")

	repo := eventdb.NewRepository(db)
	service := eventservice.NewEventService(repo, collab, logger, metrics, tracer, db)

	if httpRouter != nil {
		handlers := eventhandlers.NewHTTPHandlers(service, logger)
		httpRouter.Mount("/api/events", handlers.Routes())
	}

	module := &Module{
		EventService:  service,
		Repository:    repo,
		observability: obs,
	}

	if router != nil && bus != nil {
		if collab.Users == nil {
			return nil, errors.New("event command handlers need a user directory")
		}
		var registry prometheus.Registerer
		if obs.Registry != nil {
			registry = obs.Registry
		}
		evRouter := eventrouter.NewEventRouter(logger, router, bus, bus, tracer, registry)
		commands := eventhandlers.NewCommandHandlers(service, collab.Users, logger)
		if err := evRouter.Configure(ctx, commands, observability.NewOperationMetrics(obs.Registry, "event_commands")); err != nil {
			return nil, fmt.Errorf("failed to configure event router: %w", err)
		}
		module.EventRouter = evRouter
	}

	return module, nil
}

// Close stops the event module.
func (m *Module) Close() error {
	m.observability.Logger.Info("Event module stopped")
	return nil
}
