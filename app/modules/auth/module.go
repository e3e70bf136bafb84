package auth

import (
	"context"
	"net/http"
	"strings"

	authservice "github.com/Black-And-White-Club/opsboard/app/modules/auth/application"
	"github.com/Black-And-White-Club/opsboard/app/modules/auth/infrastructure/discord"
	authhandlers "github.com/Black-And-White-Club/opsboard/app/modules/auth/infrastructure/handlers"
	authjwt "github.com/Black-And-White-Club/opsboard/app/modules/auth/infrastructure/jwt"
	"github.com/Black-And-White-Club/opsboard/config"
	"github.com/Black-And-White-Club/opsboard/pkg/observability"
	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"
)

// Module represents the auth module.
type Module struct {
	observability observability.Observability
	service       authservice.Service
}

// NewModule wires Discord login and mounts /api/auth. The returned module
// provides the Authenticate middleware for the rest of the API.
func NewModule(
	ctx context.Context,
	cfg *config.Config,
	obs observability.Observability,
	users authservice.UserRegistry,
	httpRouter chi.Router,
) (*Module, error) {
	logger := obs.Logger
	logger.InfoContext(ctx, "Initializing auth module")

	client := discord.NewClient(discord.Config{
		ClientID:     cfg.Discord.ClientID,
		ClientSecret: cfg.Discord.ClientSecret,
		RedirectURL:  cfg.Discord.RedirectURL,
	})

	service := authservice.NewService(
		client,
		users,
		authjwt.NewProvider(cfg.JWT.Secret),
		authservice.Config{TokenTTL: cfg.JWT.DefaultTTL},
		logger,
		obs.Tracer,
	)

	// Use secure cookies unless in development or serving plain http
	secureCookies := cfg.Observability.Environment != "development"
	if strings.HasPrefix(cfg.Discord.RedirectURL, "http://") {
		secureCookies = false
	}

	if httpRouter != nil {
		handlers := authhandlers.NewAuthHandlers(service, logger, secureCookies)
		limiter := authhandlers.NewIPRateLimiter(5, 10)
		httpRouter.Route("/api/auth", func(r chi.Router) {
			r.Use(authhandlers.RateLimitMiddleware(limiter))
			r.Mount("/", handlers.Routes())
		})
	}

	return &Module{
		observability: obs,
		service:       service,
	}, nil
}

// Middleware returns the request authentication middleware.
func (m *Module) Middleware() func(http.Handler) http.Handler {
	return authhandlers.Authenticate(m.service, m.observability.Logger)
}

// APILimiter builds the rate limiter applied to the whole API.
func APILimiter(cfg *config.Config) *authhandlers.IPRateLimiter {
	return authhandlers.NewIPRateLimiter(rate.Limit(cfg.HTTP.RateLimit), cfg.HTTP.RateBurst)
}

// Close stops the auth module.
func (m *Module) Close() error {
	m.observability.Logger.Info("Auth module stopped")
	return nil
}
