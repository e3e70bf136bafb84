package notifyws

import (
	"context"
	"log/slog"
	"net/http"

	authdomain "github.com/Black-And-White-Club/opsboard/app/modules/auth/domain"
	eventdb "github.com/Black-And-White-Club/opsboard/app/modules/event/infrastructure/repositories"
	"github.com/Black-And-White-Club/opsboard/pkg/apperrors"
	"github.com/Black-And-White-Club/opsboard/pkg/httpjson"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// EventViewer checks that the caller may see an event before streaming it.
type EventViewer interface {
	GetEvent(ctx context.Context, caller *authdomain.Claims, eventID uuid.UUID) (*eventdb.Event, error)
}

// Handler upgrades /ws/events/{eventID} requests and attaches them to the hub.
type Handler struct {
	hub      *Hub
	events   EventViewer
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewHandler creates a Handler. With no allowed origins only same-host
// browsers may connect.
func NewHandler(hub *Hub, events EventViewer, allowedOrigins []string, logger *slog.Logger) *Handler {
	h := &Handler{hub: hub, events: events, logger: logger}
	if len(allowedOrigins) > 0 {
		origins := make(map[string]struct{}, len(allowedOrigins))
		for _, o := range allowedOrigins {
			origins[o] = struct{}{}
		}
		h.upgrader.CheckOrigin = func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			_, ok := origins[origin]
			return ok
		}
	}
	return h
}

// Routes mounts the stream endpoint.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/events/{eventID}", h.ServeEvent)
	return r
}

func (h *Handler) ServeEvent(w http.ResponseWriter, r *http.Request) {
	eventID, err := uuid.Parse(chi.URLParam(r, "eventID"))
	if err != nil {
		httpjson.WriteError(w, r, h.logger, apperrors.ErrInvalidInput)
		return
	}
	if _, err := h.events.GetEvent(r.Context(), authdomain.ClaimsFromContext(r.Context()), eventID); err != nil {
		httpjson.WriteError(w, r, h.logger, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	c := &client{
		hub:     h.hub,
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
		eventID: eventID,
	}
	h.hub.register(c)

	go c.writePump()
	go c.readPump()
}
