package content

import (
	"context"

	authdomain "github.com/Black-And-White-Club/opsboard/app/modules/auth/domain"
	contentservice "github.com/Black-And-White-Club/opsboard/app/modules/content/application"
	contenthandlers "github.com/Black-And-White-Club/opsboard/app/modules/content/infrastructure/handlers"
	contentdb "github.com/Black-And-White-Club/opsboard/app/modules/content/infrastructure/repositories"
	"github.com/Black-And-White-Club/opsboard/pkg/observability"
	"github.com/go-chi/chi/v5"
	"github.com/uptrace/bun"
)

// Module represents the content catalogue module.
type Module struct {
	ContentService contentservice.Service
	observability  observability.Observability
}

// NewContentModule wires the catalogue and mounts its routes under /api/content.
func NewContentModule(
	ctx context.Context,
	obs observability.Observability,
	httpRouter chi.Router,
	db *bun.DB,
) (*Module, error) {
	logger := obs.Logger
	logger.InfoContext(ctx, "content.NewContentModule initializing")

	metrics := observability.NewOperationMetrics(obs.Registry, "content")

	repo := contentdb.NewRepository(db)
	service := contentservice.NewContentService(repo, authdomain.DefaultPolicies(), logger, metrics, obs.Tracer, db)

	if httpRouter != nil {
		handlers := contenthandlers.NewContentHandlers(service, logger)
		httpRouter.Mount("/api/content", handlers.Routes())
	}

	return &Module{
		ContentService: service,
		observability:  obs,
	}, nil
}

// Close shuts down the content module.
func (m *Module) Close() error {
	m.observability.Logger.Info("Content module stopped")
	return nil
}
