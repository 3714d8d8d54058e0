package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/memotag/memotag-server/internal/audit"
	apperrors "github.com/memotag/memotag-server/internal/errors"
	"github.com/memotag/memotag-server/internal/middleware"
	"github.com/memotag/memotag-server/internal/service"
)

type AuthHandler struct {
	authService  *service.AuthService
	sessionMW    *middleware.SessionMiddleware
	loginLimiter *middleware.LoginRateLimiter
	cookieMaxAge int
	isProduction bool
}

func NewAuthHandler(
	authService *service.AuthService,
	sessionMW *middleware.SessionMiddleware,
	loginLimiter *middleware.LoginRateLimiter,
	cookieMaxAge int,
	isProduction bool,
) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		sessionMW:    sessionMW,
		loginLimiter: loginLimiter,
		cookieMaxAge: cookieMaxAge,
		isProduction: isProduction,
	}
}

func (h *AuthHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.With(h.loginLimiter.Handler).Post("/login", h.Login)
	r.Post("/logout", h.Logout)
	r.With(h.sessionMW.Handler).Get("/session", h.Session)
	return r
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.InvalidInput("body", "must be valid JSON"))
		return
	}

	token, err := h.authService.Login(r.Context(), req.Password)
	if err != nil {
		if apperrors.GetCode(err) == apperrors.ErrCodeInvalidCredentials {
			audit.LogFromRequest(r, audit.Event{Type: audit.EventLoginFailure})
		} else {
			log.Error().Err(err).Msg("login failed")
		}
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{Type: audit.EventLoginSuccess})
	middleware.SetSessionCookie(w, token, h.cookieMaxAge, h.isProduction)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := middleware.SessionToken(r); token != "" {
		h.authService.Logout(r.Context(), token)
		audit.LogFromRequest(r, audit.Event{Type: audit.EventLogout})
	}

	middleware.ClearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// Session reports who the current cookie belongs to. Only reachable
// through the session middleware, so the payload is always present here.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	payload := middleware.GetSessionPayload(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    payload,
	})
}
