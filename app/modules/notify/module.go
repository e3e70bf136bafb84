package notify

import (
	"context"
	"fmt"

	eventservice "github.com/Black-And-White-Club/opsboard/app/modules/event/application"
	notifyservice "github.com/Black-And-White-Club/opsboard/app/modules/notify/application"
	notifyqueue "github.com/Black-And-White-Club/opsboard/app/modules/notify/infrastructure/queue"
	"github.com/Black-And-White-Club/opsboard/app/modules/notify/infrastructure/webhook"
	notifyws "github.com/Black-And-White-Club/opsboard/app/modules/notify/infrastructure/websocket"
	"github.com/Black-And-White-Club/opsboard/config"
	"github.com/Black-And-White-Club/opsboard/pkg/eventbus"
	"github.com/Black-And-White-Club/opsboard/pkg/observability"
	"github.com/go-chi/chi/v5"
)

// Module delivers committed changes to the bus, websocket clients and Discord.
type Module struct {
	Notifier      *notifyservice.FanOut
	Hub           *notifyws.Hub
	queue         *notifyqueue.Service
	observability observability.Observability
}

// NewModule builds the fan-out notifier. When the queue is enabled it also
// starts River for reminders and Discord announcements.
func NewModule(
	ctx context.Context,
	cfg *config.Config,
	obs observability.Observability,
	bus eventbus.EventBus,
	events notifyqueue.EventSource,
) (*Module, error) {
	logger := obs.Logger
	logger.InfoContext(ctx, "notify.NewModule initializing")

	metrics := observability.NewOperationMetrics(obs.Registry, "notify")
	fanOut := notifyservice.NewFanOut(logger, metrics, obs.Tracer)
	hub := notifyws.NewHub(logger)

	if bus != nil {
		fanOut.Register("bus", notifyservice.BusSink(bus))
	}
	fanOut.Register("websocket", hub)

	m := &Module{
		Notifier:      fanOut,
		Hub:           hub,
		observability: obs,
	}

	if cfg.Queue.Enabled {
		var poster notifyqueue.Poster
		if cfg.Discord.WebhookURL != "" {
			poster = webhook.NewClient(cfg.Discord.WebhookURL, nil)
		}
		queue, err := notifyqueue.NewService(ctx, notifyqueue.Config{
			DSN:          cfg.Postgres.DSN,
			MaxWorkers:   cfg.Queue.MaxWorkers,
			ReminderLead: cfg.Discord.ReminderLead,
		}, poster, events, fanOut, logger, metrics)
		if err != nil {
			return nil, fmt.Errorf("failed to create notify queue: %w", err)
		}
		fanOut.Register("discord", queue)
		m.queue = queue
	}

	return m, nil
}

// Reminders returns the reminder scheduler, or nil when the queue is disabled.
func (m *Module) Reminders() eventservice.ReminderScheduler {
	if m.queue == nil {
		return nil
	}
	return m.queue
}

// MountStream serves /ws/events/{eventID} for callers allowed to view the event.
func (m *Module) MountStream(httpRouter chi.Router, viewer notifyws.EventViewer, allowedOrigins []string) {
	handler := notifyws.NewHandler(m.Hub, viewer, allowedOrigins, m.observability.Logger)
	httpRouter.Mount("/ws", handler.Routes())
}

// Start starts the job workers.
func (m *Module) Start(ctx context.Context) error {
	if m.queue == nil {
		return nil
	}
	return m.queue.Start(ctx)
}

// Close stops the workers and disconnects websocket clients.
func (m *Module) Close(ctx context.Context) error {
	m.Hub.Close()
	if m.queue != nil {
		if err := m.queue.Stop(ctx); err != nil {
			return err
		}
	}
	m.observability.Logger.Info("Notify module stopped")
	return nil
}
