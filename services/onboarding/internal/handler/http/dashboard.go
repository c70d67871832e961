package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/linkwise/linkwise/pkg/httputil"
	"github.com/linkwise/linkwise/services/onboarding/internal/service"
)

// DashboardHandler serves the requester and invitee dashboards.
type DashboardHandler struct {
	service *service.DashboardService
	logger  *slog.Logger
}

// NewDashboardHandler creates a new dashboard HTTP handler.
func NewDashboardHandler(svc *service.DashboardService, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{
		service: svc,
		logger:  logger,
	}
}

// ListRequests handles GET /api/v1/requests
func (h *DashboardHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	requests, err := h.service.ListRequests(r.Context(), sessionID(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, requests)
}

// CreateRequest handles POST /api/v1/requests
func (h *DashboardHandler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	var req service.CreateRequestInput
	if err := decodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	created, err := h.service.CreateRequest(r.Context(), sessionID(r), req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, created)
}

// ListMatches handles GET /api/v1/requests/{id}/matches
func (h *DashboardHandler) ListMatches(w http.ResponseWriter, r *http.Request) {
	matches, err := h.service.ListMatches(r.Context(), sessionID(r), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, matches)
}

// MatchAction handles POST /api/v1/matches/{id}/{action}
func (h *DashboardHandler) MatchAction(w http.ResponseWriter, r *http.Request) {
	err := h.service.MatchAction(r.Context(), sessionID(r), chi.URLParam(r, "id"), chi.URLParam(r, "action"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListOpportunities handles GET /api/v1/opportunities
func (h *DashboardHandler) ListOpportunities(w http.ResponseWriter, r *http.Request) {
	opps, err := h.service.ListOpportunities(r.Context(), sessionID(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, opps)
}

// OpportunityAction handles POST /api/v1/opportunities/{id}/{action}
func (h *DashboardHandler) OpportunityAction(w http.ResponseWriter, r *http.Request) {
	err := h.service.OpportunityAction(r.Context(), sessionID(r), chi.URLParam(r, "id"), chi.URLParam(r, "action"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListConnections handles GET /api/v1/connections
func (h *DashboardHandler) ListConnections(w http.ResponseWriter, r *http.Request) {
	conns, err := h.service.ListConnections(r.Context(), sessionID(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, conns)
}
