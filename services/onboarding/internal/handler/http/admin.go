package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/linkwise/linkwise/pkg/httputil"
	"github.com/linkwise/linkwise/pkg/middleware"
	"github.com/linkwise/linkwise/pkg/pagination"
	"github.com/linkwise/linkwise/services/onboarding/internal/domain"
	"github.com/linkwise/linkwise/services/onboarding/internal/service"
)

// AdminHandler serves the operator dashboard.
type AdminHandler struct {
	service *service.AdminService
	logger  *slog.Logger
}

// NewAdminHandler creates a new operator HTTP handler.
func NewAdminHandler(svc *service.AdminService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		service: svc,
		logger:  logger,
	}
}

// UpdateOutreachStatusRequest is the JSON request body for moving an outreach.
type UpdateOutreachStatusRequest struct {
	Status domain.OutreachStatus `json:"status" validate:"required,oneof=pending contacted joined declined"`
}

// ListOutreach handles GET /api/v1/admin/outreach
func (h *AdminHandler) ListOutreach(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListOutreach(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, list)
}

// GetOutreach handles GET /api/v1/admin/outreach/{id}
func (h *AdminHandler) GetOutreach(w http.ResponseWriter, r *http.Request) {
	o, err := h.service.GetOutreach(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, o)
}

// CreateOutreach handles POST /api/v1/admin/outreach
func (h *AdminHandler) CreateOutreach(w http.ResponseWriter, r *http.Request) {
	var req service.CreateOutreachInput
	if err := decodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	o, err := h.service.CreateOutreach(r.Context(), req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.logger.InfoContext(r.Context(), "outreach logged",
		slog.String("operator_id", middleware.UserIDFromContext(r.Context())),
		slog.String("outreach_id", o.ID),
	)
	httputil.WriteData(w, http.StatusCreated, o)
}

// UpdateOutreachStatus handles PATCH /api/v1/admin/outreach/{id}
func (h *AdminHandler) UpdateOutreachStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateOutreachStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	o, err := h.service.UpdateOutreachStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, o)
}

// Funnel handles GET /api/v1/admin/funnel
func (h *AdminHandler) Funnel(w http.ResponseWriter, r *http.Request) {
	params, err := pagination.FromRequest(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	report, err := h.service.Funnel(r.Context(), r.URL.Query().Get("stage"), params)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, report)
}
