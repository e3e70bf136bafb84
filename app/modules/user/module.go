package user

import (
	"context"

	userservice "github.com/Black-And-White-Club/opsboard/app/modules/user/application"
	userhandlers "github.com/Black-And-White-Club/opsboard/app/modules/user/infrastructure/handlers"
	userdb "github.com/Black-And-White-Club/opsboard/app/modules/user/infrastructure/repositories"
	"github.com/Black-And-White-Club/opsboard/pkg/observability"
	"github.com/go-chi/chi/v5"
	"github.com/uptrace/bun"
)

// Module represents the user module.
type Module struct {
	UserService   userservice.Service
	observability observability.Observability
}

// NewUserModule wires the member directory. Its routes are mounted separately
// because request authentication itself depends on the directory.
func NewUserModule(
	ctx context.Context,
	obs observability.Observability,
	db *bun.DB,
) (*Module, error) {
	logger := obs.Logger
	logger.InfoContext(ctx, "user.NewUserModule initializing")

	metrics := observability.NewOperationMetrics(obs.Registry, "user")
	service := userservice.NewUserService(userdb.NewRepository(db), logger, metrics, obs.Tracer, db)

	return &Module{
		UserService:   service,
		observability: obs,
	}, nil
}

// MountRoutes serves /api/users on httpRouter.
func (m *Module) MountRoutes(httpRouter chi.Router) {
	handlers := userhandlers.NewUserHandlers(m.UserService, m.observability.Logger)
	httpRouter.Mount("/api/users", handlers.Routes())
}

// Close shuts down the user module.
func (m *Module) Close() error {
	m.observability.Logger.Info("User module stopped")
	return nil
}
