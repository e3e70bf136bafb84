package contenthandlers

import (
	"log/slog"
	"net/http"

	authdomain "github.com/Black-And-White-Club/opsboard/app/modules/auth/domain"
	contentservice "github.com/Black-And-White-Club/opsboard/app/modules/content/application"
	"github.com/Black-And-White-Club/opsboard/pkg/apperrors"
	"github.com/Black-And-White-Club/opsboard/pkg/httpjson"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// ContentHandlers serves the terrain and mod pack catalogue over HTTP.
type ContentHandlers struct {
	service contentservice.Service
	logger  *slog.Logger
}

// NewContentHandlers creates a new ContentHandlers instance.
func NewContentHandlers(service contentservice.Service, logger *slog.Logger) *ContentHandlers {
	return &ContentHandlers{service: service, logger: logger}
}

// Routes mounts the catalogue endpoints.
func (h *ContentHandlers) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/terrains", h.ListTerrains)
	r.Post("/terrains", h.CreateTerrain)
	r.Get("/modpacks", h.ListModPacks)
	r.Post("/modpacks", h.CreateModPack)
	r.Post("/modpacks/{modPackID}/revisions", h.AddRevision)
	return r
}

func (h *ContentHandlers) ListTerrains(w http.ResponseWriter, r *http.Request) {
	terrains, err := h.service.ListTerrains(r.Context())
	if err != nil {
		httpjson.WriteError(w, r, h.logger, err)
		return
	}
	httpjson.Write(w, http.StatusOK, terrains)
}

func (h *ContentHandlers) CreateTerrain(w http.ResponseWriter, r *http.Request) {
	var input contentservice.TerrainInput
	if err := httpjson.Decode(r, &input); err != nil {
		httpjson.WriteError(w, r, h.logger, err)
		return
	}

	terrain, err := h.service.CreateTerrain(r.Context(), authdomain.ClaimsFromContext(r.Context()), input)
	if err != nil {
		httpjson.WriteError(w, r, h.logger, err)
		return
	}
	httpjson.Write(w, http.StatusCreated, terrain)
}

func (h *ContentHandlers) ListModPacks(w http.ResponseWriter, r *http.Request) {
	packs, err := h.service.ListModPacks(r.Context())
	if err != nil {
		httpjson.WriteError(w, r, h.logger, err)
		return
	}
	httpjson.Write(w, http.StatusOK, packs)
}

type titleRequest struct {
	Title string `json:"title"`
}

func (h *ContentHandlers) CreateModPack(w http.ResponseWriter, r *http.Request) {
	var input titleRequest
	if err := httpjson.Decode(r, &input); err != nil {
		httpjson.WriteError(w, r, h.logger, err)
		return
	}

	pack, err := h.service.CreateModPack(r.Context(), authdomain.ClaimsFromContext(r.Context()), input.Title)
	if err != nil {
		httpjson.WriteError(w, r, h.logger, err)
		return
	}
	httpjson.Write(w, http.StatusCreated, pack)
}

type revisionRequest struct {
	Tag string `json:"tag"`
}

func (h *ContentHandlers) AddRevision(w http.ResponseWriter, r *http.Request) {
	modPackID, err := uuid.Parse(chi.URLParam(r, "modPackID"))
	if err != nil {
		httpjson.WriteError(w, r, h.logger, apperrors.ErrInvalidInput)
		return
	}

	var input revisionRequest
	if err := httpjson.Decode(r, &input); err != nil {
		httpjson.WriteError(w, r, h.logger, err)
		return
	}

	revision, err := h.service.AddRevision(r.Context(), authdomain.ClaimsFromContext(r.Context()), modPackID, input.Tag)
	if err != nil {
		httpjson.WriteError(w, r, h.logger, err)
		return
	}
	httpjson.Write(w, http.StatusCreated, revision)
}
