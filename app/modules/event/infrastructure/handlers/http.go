package eventhandlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	authdomain "github.com/Black-And-White-Club/opsboard/app/modules/auth/domain"
	eventservice "github.com/Black-And-White-Club/opsboard/app/modules/event/application"
	eventdomain "github.com/Black-And-White-Club/opsboard/app/modules/event/domain"
	"github.com/Black-And-White-Club/opsboard/pkg/apperrors"
	"github.com/Black-And-White-Club/opsboard/pkg/httpjson"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// HTTPHandlers serves the event API.
type HTTPHandlers struct {
	service eventservice.Service
	logger  *slog.Logger
}

// NewHTTPHandlers creates a new HTTPHandlers instance.
func NewHTTPHandlers(service eventservice.Service, logger *slog.Logger) *HTTPHandlers {
	return &HTTPHandlers{service: service, logger: logger}
}

// Routes mounts the event endpoints.
func (h *HTTPHandlers) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListEvents)
	r.Post("/", h.CreateEvent)

	r.Route("/{eventID}", func(r chi.Router) {
		r.Get("/", h.GetEvent)
		r.Patch("/schedule", h.RescheduleEvent)
		r.Patch("/visibility", h.SetVisibility)

		r.Get("/acceptances", h.ListAcceptances)
		r.Put("/acceptance", h.SetAcceptance)
		r.Post("/recount", h.RecountTallies)

		r.Get("/slots", h.ListSlots)
		r.Post("/slots", h.CreateSlot)
		r.Put("/slots/{slotNumber}", h.UpdateSlot)
		r.Delete("/slots/{slotNumber}", h.DeleteSlot)
		r.Post("/slots/{slotNumber}/assignee", h.Assign)
		r.Delete("/slots/{slotNumber}/assignee", h.Unassign)
		r.Delete("/assignment", h.UnassignSelf)

		r.Get("/roster.xlsx", h.ExportRoster)
		r.Get("/chart.png", h.AttendanceChart)
	})
	return r
}

func eventIDParam(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "eventID"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("event id: %w", apperrors.ErrInvalidInput)
	}
	return id, nil
}

func slotParam(r *http.Request) (int, error) {
	n, err := strconv.Atoi(chi.URLParam(r, "slotNumber"))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("slot number: %w", apperrors.ErrInvalidInput)
	}
	return n, nil
}

func (h *HTTPHandlers) ListEvents(w http.ResponseWriter, r *http.Request) {
	opts := eventservice.ListOptions{Upcoming: r.URL.Query().Get("upcoming") == "true"}
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			httpjson.WriteError(w, r, h.logger, fmt.Errorf("limit: %w", apperrors.ErrInvalidInput))
			return
		}
		opts.Limit = limit
	}

	events, err := h.service.ListEvents(r.Context(), authdomain.ClaimsFromContext(r.Context()), opts)
	if err != nil {
		httpjson.WriteError(w, r, h.logger, err)
		return
	}
	httpjson.Write(w, http.StatusOK, events)
}

func (h *HTTPHandlers) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var input eventservice.CreateEventInput
	if err := httpjson.Decode(r, &input); err != nil {
		httpjson.WriteError(w, r, h.logger, err)
		return
	}

	event, err := h.service.CreateEvent(r.Context(), authdomain.ClaimsFromContext(r.Context()), input)
	if err != nil {
		httpjson.WriteError(w, r, h.logger, err)
		return
	}
	httpjson.Write(w, http.StatusCreated, event)
}

func (h *HTTPHandlers) GetEvent(w http.ResponseWriter, r *http.Request) {
	eventID, err := eventIDParam(r)
	if err != nil {
		httpjson.WriteError(w, r, h.logger, err)
		return
	}
	event, err := h.service.GetEvent(r.Context(), authdomain.ClaimsFromContext(r.Context()), eventID)
	if err != nil {
		httpjson.WriteError(w, r, h.logger, err)
		return
	}
	httpjson.Write(w, http.StatusOK, event)
}

type scheduleRequest struct {
	StartsAt string `json:"starts_at"`
}

func (h *HTTPHandlers) RescheduleEvent(w http.ResponseWriter, r *http.Request) {
	eventID, err := eventIDParam(r)
	if err != nil {
		httpjson.WriteError(w, r, h.logger, err)
		return
	}
	var input scheduleRequest
	if err := httpjson.Decode(r, &input); err != nil {
		httpjson.WriteError(w, r, h.logger, err)
		return
	}

	event, err := h.service.RescheduleEvent(r.Context(), authdomain.ClaimsFromContext(r.Context()), eventID, input.StartsAt)
	if err != nil {
		httpjson.WriteError(w, r, h.logger, err)
		return
	}
	httpjson.Write(w, http.StatusOK, event)
}

type visibilityRequest struct {
	Visible bool `json:"visible"`
}

func (h *HTTPHandlers) SetVisibility(w http.ResponseWriter, r *http.Request) {
	eventID, err := eventIDParam(r)
	if err != nil {
		httpjson.WriteError(w, r, h.logger, err)
		return
	}
	var input visibilityRequest
	if err := httpjson.Decode(r, &input); err != nil {
		httpjson.WriteError(w, r, h.logger, err)
		return
	}

	event, err := h.service.SetEventVisibility(r.Context(), authdomain.ClaimsFromContext(r.Context()), eventID, input.Visible)
	if err != nil {
		httpjson.WriteError(w, r, h.logger, err)
		return
	}
	httpjson.Write(w, http.StatusOK, event)
}

func (h *HTTPHandlers) ListAcceptances(w http.ResponseWriter, r *http.Request) {
	eventID, err := eventIDParam(r)
	if err != nil {
		httpjson.WriteError(w, r, h.logger, err)
		return
	}
	metas, err := h.service.ListAcceptances(r.Context(), authdomain.ClaimsFromContext(r.Context()), eventID)
	if err != nil {
		httpjson.WriteError(w, r, h.logger, err)
		return
	}
	httpjson.Write(w, http.StatusOK, metas)
}

type acceptanceRequest struct {
	Status string `json:"status"`
	// UserID answers on behalf of another user. Empty means the caller.
	UserID *uuid.UUID `json:"user_id,omitempty"`
}

func (h *HTTPHandlers) SetAcceptance(w http.ResponseWriter, r *http.Request) {
	eventID, err := eventIDParam(r)
	if err != nil {
		httpjson.WriteError(w, r, h.logger, err)
		return
	}
	var input acceptanceRequest
	if err := httpjson.Decode(r, &input); err != nil {
		httpjson.WriteError(w, r, h.logger, err)
		return
	}
	status, err := eventdomain.ParseAcceptanceStatus(input.Status)
	if err != nil {
		httpjson.WriteError(w, r, h.logger, fmt.Errorf("%v: %w", err, apperrors.ErrInvalidInput))
		return
	}
	userID := uuid.Nil
	if input.UserID != nil {
		userID = *input.UserID
	}

	result, err := h.service.SetAcceptance(r.Context(), authdomain.ClaimsFromContext(r.Context()), eventID, userID, status)
	if err != nil {
		httpjson.WriteError(w, r, h.logger, err)
		return
	}
	httpjson.Write(w, http.StatusOK, result)
}

func (h *HTTPHandlers) RecountTallies(w http.ResponseWriter, r *http.Request) {
	eventID, err := eventIDParam(r)
	if err != nil {
		httpjson.WriteError(w, r, h.logger, err)
		return
	}
	tally, err := h.service.RecountTallies(r.Context(), authdomain.ClaimsFromContext(r.Context()), eventID)
	if err != nil {
		httpjson.WriteError(w, r, h.logger, err)
		return
	}
	httpjson.Write(w, http.StatusOK, tally)
}

func (h *HTTPHandlers) ListSlots(w http.ResponseWriter, r *http.Request) {
	eventID, err := eventIDParam(r)
	if err != nil {
		httpjson.WriteError(w, r, h.logger, err)
		return
	}
	slots, err := h.service.ListSlots(r.Context(), authdomain.ClaimsFromContext(r.Context()), eventID)
	if err != nil {
		httpjson.WriteError(w, r, h.logger, err)
		return
	}
	httpjson.Write(w, http.StatusOK, slots)
}

func (h *HTTPHandlers) CreateSlot(w http.ResponseWriter, r *http.Request) {
	eventID, err := eventIDParam(r)
	if err != nil {
		httpjson.WriteError(w, r, h.logger, err)
		return
	}
	var input eventservice.SlotInput
	if err := httpjson.Decode(r, &input); err != nil {
		httpjson.WriteError(w, r, h.logger, err)
		return
	}

	slot, err := h.service.CreateSlot(r.Context(), authdomain.ClaimsFromContext(r.Context()), eventID, input)
	if err != nil {
		httpjson.WriteError(w, r, h.logger, err)
		return
	}
	httpjson.Write(w, http.StatusCreated, slot)
}

func (h *HTTPHandlers) UpdateSlot(w http.ResponseWriter, r *http.Request) {
	eventID, err := eventIDParam(r)
	if err != nil {
		httpjson.WriteError(w, r, h.logger, err)
		return
	}
	slotNumber, err := slotParam(r)
	if err != nil {
		httpjson.WriteError(w, r, h.logger, err)
		return
	}
	var input eventservice.SlotInput
	if err := httpjson.Decode(r, &input); err != nil {
		httpjson.WriteError(w, r, h.logger, err)
		return
	}

	slot, err := h.service.UpdateSlot(r.Context(), authdomain.ClaimsFromContext(r.Context()), eventID, slotNumber, input)
	if err != nil {
		httpjson.WriteError(w, r, h.logger, err)
		return
	}
	httpjson.Write(w, http.StatusOK, slot)
}

func (h *HTTPHandlers) DeleteSlot(w http.ResponseWriter, r *http.Request) {
	eventID, err := eventIDParam(r)
	if err != nil {
		httpjson.WriteError(w, r, h.logger, err)
		return
	}
	slotNumber, err := slotParam(r)
	if err != nil {
		httpjson.WriteError(w, r, h.logger, err)
		return
	}
	if err := h.service.DeleteSlot(r.Context(), authdomain.ClaimsFromContext(r.Context()), eventID, slotNumber); err != nil {
		httpjson.WriteError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type assignRequest struct {
	// UserID assigns another user. Empty means the caller.
	UserID *uuid.UUID `json:"user_id,omitempty"`
}

func (h *HTTPHandlers) Assign(w http.ResponseWriter, r *http.Request) {
	eventID, err := eventIDParam(r)
	if err != nil {
		httpjson.WriteError(w, r, h.logger, err)
		return
	}
	slotNumber, err := slotParam(r)
	if err != nil {
		httpjson.WriteError(w, r, h.logger, err)
		return
	}
	var input assignRequest
	if r.ContentLength != 0 {
		if err := httpjson.Decode(r, &input); err != nil {
			httpjson.WriteError(w, r, h.logger, err)
			return
		}
	}

	caller := authdomain.ClaimsFromContext(r.Context())
	var result *eventservice.AssignmentResult
	if input.UserID == nil || (caller != nil && *input.UserID == caller.UserUUID) {
		result, err = h.service.AssignSelf(r.Context(), caller, eventID, slotNumber)
	} else {
		result, err = h.service.AssignUser(r.Context(), caller, eventID, slotNumber, *input.UserID)
	}
	if err != nil {
		httpjson.WriteError(w, r, h.logger, err)
		return
	}
	httpjson.Write(w, http.StatusOK, result)
}

type unassignResponse struct {
	Changed bool `json:"changed"`
}

func (h *HTTPHandlers) Unassign(w http.ResponseWriter, r *http.Request) {
	eventID, err := eventIDParam(r)
	if err != nil {
		httpjson.WriteError(w, r, h.logger, err)
		return
	}
	slotNumber, err := slotParam(r)
	if err != nil {
		httpjson.WriteError(w, r, h.logger, err)
		return
	}

	changed, err := h.service.Unassign(r.Context(), authdomain.ClaimsFromContext(r.Context()), eventID, slotNumber)
	if err != nil {
		httpjson.WriteError(w, r, h.logger, err)
		return
	}
	httpjson.Write(w, http.StatusOK, unassignResponse{Changed: changed})
}

func (h *HTTPHandlers) UnassignSelf(w http.ResponseWriter, r *http.Request) {
	eventID, err := eventIDParam(r)
	if err != nil {
		httpjson.WriteError(w, r, h.logger, err)
		return
	}

	changed, err := h.service.UnassignSelfIfAssigned(r.Context(), authdomain.ClaimsFromContext(r.Context()), eventID)
	if err != nil {
		httpjson.WriteError(w, r, h.logger, err)
		return
	}
	httpjson.Write(w, http.StatusOK, unassignResponse{Changed: changed})
}

func (h *HTTPHandlers) ExportRoster(w http.ResponseWriter, r *http.Request) {
	eventID, err := eventIDParam(r)
	if err != nil {
		httpjson.WriteError(w, r, h.logger, err)
		return
	}
	data, err := h.service.ExportRoster(r.Context(), authdomain.ClaimsFromContext(r.Context()), eventID)
	if err != nil {
		httpjson.WriteError(w, r, h.logger, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="roster-%s.xlsx"`, eventID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *HTTPHandlers) AttendanceChart(w http.ResponseWriter, r *http.Request) {
	eventID, err := eventIDParam(r)
	if err != nil {
		httpjson.WriteError(w, r, h.logger, err)
		return
	}
	data, err := h.service.AttendanceChart(r.Context(), authdomain.ClaimsFromContext(r.Context()), eventID)
	if err != nil {
		httpjson.WriteError(w, r, h.logger, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
