package http

import (
	"log/slog"
	"net/http"

	"github.com/linkwise/linkwise/pkg/httputil"
	"github.com/linkwise/linkwise/services/onboarding/internal/domain"
	"github.com/linkwise/linkwise/services/onboarding/internal/service"
)

// SessionHandler serves session restore, logout, LinkedIn start and theme.
type SessionHandler struct {
	service *service.SessionService
	logger  *slog.Logger
}

// NewSessionHandler creates a new session HTTP handler.
func NewSessionHandler(svc *service.SessionService, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		service: svc,
		logger:  logger,
	}
}

// ThemeRequest is the JSON request body for storing a theme.
type ThemeRequest struct {
	Theme domain.Theme `json:"theme" validate:"required,oneof=light dark"`
}

// ThemeResponse reports the stored theme; empty when none was chosen.
type ThemeResponse struct {
	Theme domain.Theme `json:"theme"`
}

// Restore handles GET /api/v1/session
func (h *SessionHandler) Restore(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.Restore(r.Context(), sessionID(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, user)
}

// Logout handles DELETE /api/v1/session
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Logout(r.Context(), sessionID(r)); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// LinkedIn handles GET /api/v1/auth/linkedin
func (h *SessionHandler) LinkedIn(w http.ResponseWriter, r *http.Request) {
	u, err := h.service.LinkedInURL(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	http.Redirect(w, r, u, http.StatusFound)
}

// Theme handles GET /api/v1/preferences/theme
func (h *SessionHandler) Theme(w http.ResponseWriter, r *http.Request) {
	t, err := h.service.Theme(r.Context(), sessionID(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, ThemeResponse{Theme: t})
}

// SetTheme handles PUT /api/v1/preferences/theme
func (h *SessionHandler) SetTheme(w http.ResponseWriter, r *http.Request) {
	var req ThemeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	if err := h.service.SetTheme(r.Context(), sessionID(r), req.Theme); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, ThemeResponse(req))
}
