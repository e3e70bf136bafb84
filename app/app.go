package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/Black-And-White-Club/opsboard/app/modules/auth"
	"github.com/Black-And-White-Club/opsboard/app/modules/content"
	"github.com/Black-And-White-Club/opsboard/app/modules/event"
	eventservice "github.com/Black-And-White-Club/opsboard/app/modules/event/application"
	eventdb "github.com/Black-And-White-Club/opsboard/app/modules/event/infrastructure/repositories"
	"github.com/Black-And-White-Club/opsboard/app/modules/notify"
	"github.com/Black-And-White-Club/opsboard/app/modules/user"
	"github.com/Black-And-White-Club/opsboard/config"
	"github.com/Black-And-White-Club/opsboard/db/bundb"
	"github.com/Black-And-White-Club/opsboard/pkg/eventbus"
	"github.com/Black-And-White-Club/opsboard/pkg/observability"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-chi/chi/v5"
	"github.com/uptrace/bun"
)

// Modules holds every application module.
type Modules struct {
	UserModule    *user.Module
	ContentModule *content.Module
	AuthModule    *auth.Module
	NotifyModule  *notify.Module
	EventModule   *event.Module
}

// App wires configuration, storage, the bus and the modules together.
type App struct {
	Config        *config.Config
	Observability observability.Observability
	Modules       Modules
	DB            *bun.DB
	EventBus      eventbus.EventBus
	Router        *message.Router
	HTTPRouter    chi.Router
	server        *http.Server
}

// Initialize builds the application. Modules are created in dependency order:
// user, content, auth, notify, event.
func (app *App) Initialize(ctx context.Context, cfg *config.Config, obs observability.Observability) error {
	app.Config = cfg
	app.Observability = obs
	logger := obs.Logger

	db, err := bundb.Open(ctx, cfg.Postgres, logger)
	if err != nil {
		return err
	}
	app.DB = db

	if cfg.NATS.URL != "" {
		bus, err := eventbus.NewNATSEventBus(eventbus.NATSConfig{
			URL:        cfg.NATS.URL,
			NKeySeed:   cfg.NATS.NKeySeed,
			QueueGroup: cfg.NATS.QueueGroup,
		}, logger)
		if err != nil {
			return fmt.Errorf("failed to create event bus: %w", err)
		}
		app.EventBus = bus
	} else {
		logger.WarnContext(ctx, "NATS url not set, using in-process event bus")
		app.EventBus = eventbus.NewInMemoryEventBus(logger)
	}

	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: 30 * time.Second}, watermill.NewSlogLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to create Watermill router: %w", err)
	}
	app.Router = router

	if err := app.initializeModules(ctx); err != nil {
		return err
	}

	logger.InfoContext(ctx, "Application initialized")
	return nil
}

func (app *App) initializeModules(ctx context.Context) error {
	cfg := app.Config
	obs := app.Observability
	root := newHTTPRouter(cfg, obs)
	app.HTTPRouter = root
	mountHealth(root, app.DB)

	userModule, err := user.NewUserModule(ctx, obs, app.DB)
	if err != nil {
		return fmt.Errorf("failed to initialize user module: %w", err)
	}
	app.Modules.UserModule = userModule

	authModule, err := auth.NewModule(ctx, cfg, obs, userModule.UserService, root)
	if err != nil {
		return fmt.Errorf("failed to initialize auth module: %w", err)
	}
	app.Modules.AuthModule = authModule

	// Everything below sees the caller's claims.
	api := root.With(authModule.Middleware())
	userModule.MountRoutes(api)

	contentModule, err := content.NewContentModule(ctx, obs, api, app.DB)
	if err != nil {
		return fmt.Errorf("failed to initialize content module: %w", err)
	}
	app.Modules.ContentModule = contentModule

	notifyModule, err := notify.NewModule(ctx, cfg, obs, app.EventBus, eventdb.NewRepository(app.DB))
	if err != nil {
		return fmt.Errorf("failed to initialize notify module: %w", err)
	}
	app.Modules.NotifyModule = notifyModule

	eventModule, err := event.NewEventModule(ctx, obs, app.DB, eventservice.Collaborators{
		Notifier:  notifyModule.Notifier,
		Reminders: notifyModule.Reminders(),
		Content:   contentModule.ContentService,
		Users:     userModule.UserService,
	}, app.EventBus, app.Router, api)
	if err != nil {
		return fmt.Errorf("failed to initialize event module: %w", err)
	}
	app.Modules.EventModule = eventModule

	notifyModule.MountStream(api, eventModule.EventService, cfg.HTTP.AllowedOrigins)
	return nil
}

// Run serves HTTP, consumes bus commands and runs the job workers until ctx is
// cancelled.
func (app *App) Run(ctx context.Context) error {
	logger := app.Observability.Logger

	if err := app.Modules.NotifyModule.Start(ctx); err != nil {
		return fmt.Errorf("failed to start notify workers: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	errCh := make(chan error, 2)

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.Router.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- fmt.Errorf("watermill router: %w", err)
		}
	}()

	app.server = &http.Server{
		Addr:              app.Config.HTTP.Address,
		Handler:           app.HTTPRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.InfoContext(ctx, "HTTP server listening", slog.String("address", app.server.Addr))
		if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.InfoContext(ctx, "Shutdown signal received")
	case runErr = <-errCh:
		logger.ErrorContext(ctx, "Component failed, shutting down", slog.Any("error", runErr))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.WithoutCancel(ctx), app.Config.HTTP.ShutdownGrace)
	defer shutdownCancel()
	if err := app.server.Shutdown(shutdownCtx); err != nil {
		logger.ErrorContext(ctx, "HTTP server shutdown failed", slog.Any("error", err))
	}
	cancel()
	wg.Wait()

	return runErr
}

// Close releases every resource in reverse order of creation.
func (app *App) Close(ctx context.Context) {
	logger := app.Observability.Logger

	if m := app.Modules.EventModule; m != nil {
		if err := m.Close(); err != nil {
			logger.ErrorContext(ctx, "Error closing event module", slog.Any("error", err))
		}
	}
	if m := app.Modules.NotifyModule; m != nil {
		if err := m.Close(ctx); err != nil {
			logger.ErrorContext(ctx, "Error closing notify module", slog.Any("error", err))
		}
	}
	if m := app.Modules.AuthModule; m != nil {
		if err := m.Close(); err != nil {
			logger.ErrorContext(ctx, "Error closing auth module", slog.Any("error", err))
		}
	}
	if m := app.Modules.ContentModule; m != nil {
		if err := m.Close(); err != nil {
			logger.ErrorContext(ctx, "Error closing content module", slog.Any("error", err))
		}
	}
	if m := app.Modules.UserModule; m != nil {
		if err := m.Close(); err != nil {
			logger.ErrorContext(ctx, "Error closing user module", slog.Any("error", err))
		}
	}

	if app.Router != nil {
		if err := app.Router.Close(); err != nil {
			logger.ErrorContext(ctx, "Error closing Watermill router", slog.Any("error", err))
		}
	}
	if app.EventBus != nil {
		if err := app.EventBus.Close(); err != nil {
			logger.ErrorContext(ctx, "Error closing event bus", slog.Any("error", err))
		}
	}
	if app.DB != nil {
		if err := app.DB.Close(); err != nil {
			logger.ErrorContext(ctx, "Error closing database", slog.Any("error", err))
		}
	}
	if err := app.Observability.Shutdown(ctx); err != nil {
		logger.ErrorContext(ctx, "Error shutting down tracer provider", slog.Any("error", err))
	}
	logger.InfoContext(ctx, "Application closed")
}
