package authhandlers

import (
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"
	"time"

	authservice "github.com/Black-And-White-Club/opsboard/app/modules/auth/application"
	"github.com/Black-And-White-Club/opsboard/pkg/apperrors"
	"github.com/Black-And-White-Club/opsboard/pkg/httpjson"
	"github.com/go-chi/chi/v5"
)

const (
	SessionCookie = "session"
	stateCookie   = "oauth_state"
	stateTTL      = 10 * time.Minute
)

// AuthHandlers serves the Discord login flow.
type AuthHandlers struct {
	service       authservice.Service
	logger        *slog.Logger
	secureCookies bool
}

// NewAuthHandlers creates a new AuthHandlers instance.
func NewAuthHandlers(service authservice.Service, logger *slog.Logger, secureCookies bool) *AuthHandlers {
	return &AuthHandlers{
		service:       service,
		logger:        logger,
		secureCookies: secureCookies,
	}
}

// Routes mounts the login endpoints.
func (h *AuthHandlers) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/login", h.HandleLogin)
	r.Get("/callback", h.HandleCallback)
	r.Post("/logout", h.HandleLogout)
	return r
}

// HandleLogin redirects to Discord with a fresh state value bound to a cookie.
func (h *AuthHandlers) HandleLogin(w http.ResponseWriter, r *http.Request) {
	state, err := newState()
	if err != nil {
		httpjson.WriteError(w, r, h.logger, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/api/auth",
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(stateTTL.Seconds()),
	})
	http.Redirect(w, r, h.service.LoginURL(state), http.StatusFound)
}

// HandleCallback completes the login and sets the session cookie.
func (h *AuthHandlers) HandleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cookie, err := r.Cookie(stateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != r.URL.Query().Get("state") {
		h.logger.WarnContext(ctx, "OAuth state mismatch")
		httpjson.WriteError(w, r, h.logger, apperrors.ErrUnauthorized)
		return
	}
	h.clearCookie(w, stateCookie, "/api/auth")

	session, err := h.service.CompleteLogin(ctx, r.URL.Query().Get("code"))
	if err != nil {
		httpjson.WriteError(w, r, h.logger, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    session.Token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
		Expires:  session.ExpiresAt,
	})
	httpjson.Write(w, http.StatusOK, session)
}

// HandleLogout clears the session cookie. Tokens stay valid until they expire.
func (h *AuthHandlers) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.clearCookie(w, SessionCookie, "/")
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandlers) clearCookie(w http.ResponseWriter, name, path string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		HttpOnly: true,
		Secure:   h.secureCookies,
		MaxAge:   -1,
	})
}

func newState() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
