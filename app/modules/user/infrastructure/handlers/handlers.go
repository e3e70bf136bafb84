package userhandlers

import (
	"log/slog"
	"net/http"

	authdomain "github.com/Black-And-White-Club/opsboard/app/modules/auth/domain"
	userservice "github.com/Black-And-White-Club/opsboard/app/modules/user/application"
	"github.com/Black-And-White-Club/opsboard/pkg/apperrors"
	"github.com/Black-And-White-Club/opsboard/pkg/httpjson"
	"github.com/go-chi/chi/v5"
)

// UserHandlers serves member endpoints over HTTP.
type UserHandlers struct {
	service userservice.Service
	logger  *slog.Logger
}

// NewUserHandlers creates a new UserHandlers instance.
func NewUserHandlers(service userservice.Service, logger *slog.Logger) *UserHandlers {
	return &UserHandlers{service: service, logger: logger}
}

// Routes mounts the member endpoints.
func (h *UserHandlers) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/me", h.Me)
	r.Put("/{discordID}/role", h.UpdateRole)
	return r
}

func (h *UserHandlers) Me(w http.ResponseWriter, r *http.Request) {
	claims := authdomain.ClaimsFromContext(r.Context())
	if claims == nil {
		httpjson.WriteError(w, r, h.logger, apperrors.ErrUnauthorized)
		return
	}

	user, err := h.service.GetUser(r.Context(), claims.UserUUID)
	if err != nil {
		httpjson.WriteError(w, r, h.logger, err)
		return
	}
	httpjson.Write(w, http.StatusOK, user)
}

type roleRequest struct {
	Role string `json:"role"`
}

func (h *UserHandlers) UpdateRole(w http.ResponseWriter, r *http.Request) {
	var input roleRequest
	if err := httpjson.Decode(r, &input); err != nil {
		httpjson.WriteError(w, r, h.logger, err)
		return
	}

	err := h.service.UpdateRole(r.Context(), authdomain.ClaimsFromContext(r.Context()),
		chi.URLParam(r, "discordID"), authdomain.Role(input.Role))
	if err != nil {
		httpjson.WriteError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
