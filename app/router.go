package app

import (
	"context"
	"net/http"
	"time"

	"github.com/Black-And-White-Club/opsboard/app/modules/auth"
	authhandlers "github.com/Black-And-White-Club/opsboard/app/modules/auth/infrastructure/handlers"
	"github.com/Black-And-White-Club/opsboard/config"
	"github.com/Black-And-White-Club/opsboard/pkg/httpjson"
	"github.com/Black-And-White-Club/opsboard/pkg/observability"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/uptrace/bun"
)

// newHTTPRouter builds the root router with the middleware shared by every
// route, plus the health and metrics endpoints.
func newHTTPRouter(cfg *config.Config, obs observability.Observability) chi.Router {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		authhandlers.CORSMiddleware(cfg.HTTP.AllowedOrigins),
		authhandlers.RateLimitMiddleware(auth.APILimiter(cfg)),
	)

	r.Handle("/metrics", obs.MetricsHandler())
	return r
}

// mountHealth serves /healthz, reporting unavailable while the database does
// not answer.
func mountHealth(r chi.Router, db *bun.DB) {
	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			httpjson.Write(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		httpjson.Write(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}
