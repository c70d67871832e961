package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	apperrors "github.com/linkwise/linkwise/pkg/errors"
	"github.com/linkwise/linkwise/pkg/httputil"
	"github.com/linkwise/linkwise/services/onboarding/internal/domain"
	"github.com/linkwise/linkwise/services/onboarding/internal/onboarding"
)

// multipartOverhead is the allowance for form boundaries and headers on top
// of the image itself.
const multipartOverhead = 64 << 10

// Uploader stores an image and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, filename, contentType string, r io.Reader) (string, error)
}

// OnboardingHandler serves the sign-up wizard of the caller's session.
type OnboardingHandler struct {
	flows     *onboarding.Manager
	uploads   Uploader
	maxUpload int64
	logger    *slog.Logger
}

// NewOnboardingHandler creates a new onboarding HTTP handler.
func NewOnboardingHandler(flows *onboarding.Manager, uploads Uploader, maxUpload int64, logger *slog.Logger) *OnboardingHandler {
	return &OnboardingHandler{
		flows:     flows,
		uploads:   uploads,
		maxUpload: maxUpload,
		logger:    logger,
	}
}

// --- Request DTOs ---

// MountRequest carries the URL the browser landed on.
type MountRequest struct {
	URL string `json:"url" validate:"required"`
}

// MountResponse is the flow snapshot plus the URL to replace the address bar with.
type MountResponse struct {
	Snapshot onboarding.Snapshot `json:"snapshot"`
	URL      string              `json:"url"`
}

// PhoneRequest is the JSON request body for requesting a code.
type PhoneRequest struct {
	Phone       string `json:"phone" validate:"required,max=32"`
	CountryCode string `json:"country_code" validate:"omitempty,startswith=+,max=5"`
}

// CodeRequest is the JSON request body for confirming a code. Profile holds
// first-pass fields to create a new user with.
type CodeRequest struct {
	Code    string              `json:"code" validate:"required"`
	Profile *domain.ProfileSeed `json:"profile,omitempty"`
}

// --- Handlers ---

// Mount handles POST /api/v1/onboarding/mount
func (h *OnboardingHandler) Mount(w http.ResponseWriter, r *http.Request) {
	var req MountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	snap, clean, err := h.flows.Mount(r.Context(), sessionID(r), req.URL)
	if err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("url is not a valid address"), h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, MountResponse{Snapshot: snap, URL: clean})
}

// Get handles GET /api/v1/onboarding
func (h *OnboardingHandler) Get(w http.ResponseWriter, r *http.Request) {
	httputil.WriteData(w, http.StatusOK, h.flows.Get(sessionID(r)).Snapshot())
}

// SubmitPhone handles POST /api/v1/onboarding/phone
func (h *OnboardingHandler) SubmitPhone(w http.ResponseWriter, r *http.Request) {
	var req PhoneRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	snap, err := h.flows.Get(sessionID(r)).SubmitPhone(r.Context(), req.Phone, req.CountryCode)
	h.respond(w, r, snap, err)
}

// SubmitCode handles POST /api/v1/onboarding/code
func (h *OnboardingHandler) SubmitCode(w http.ResponseWriter, r *http.Request) {
	var req CodeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	snap, err := h.flows.Get(sessionID(r)).SubmitCode(r.Context(), req.Code, req.Profile)
	h.respond(w, r, snap, err)
}

// Back handles POST /api/v1/onboarding/back
func (h *OnboardingHandler) Back(w http.ResponseWriter, r *http.Request) {
	snap, err := h.flows.Get(sessionID(r)).Back(r.Context())
	h.respond(w, r, snap, err)
}

// SaveDraft handles PUT /api/v1/onboarding/profile/draft
func (h *OnboardingHandler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	var req onboarding.ProfileDraft
	if err := decodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	snap, err := h.flows.Get(sessionID(r)).SaveDraft(r.Context(), req)
	h.respond(w, r, snap, err)
}

// SaveProfile handles POST /api/v1/onboarding/profile
func (h *OnboardingHandler) SaveProfile(w http.ResponseWriter, r *http.Request) {
	var req onboarding.ProfileDraft
	if err := decodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	snap, err := h.flows.Get(sessionID(r)).SaveProfile(r.Context(), req)
	h.respond(w, r, snap, err)
}

// UploadPhoto handles POST /api/v1/onboarding/photo
func (h *OnboardingHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+multipartOverhead)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.WriteError(w, r, apperrors.Format("the image is too large"), h.logger)
			return
		}
		httputil.WriteError(w, r, apperrors.Format("choose an image to upload"), h.logger)
		return
	}
	defer func() { _ = file.Close() }()

	flow := h.flows.Get(sessionID(r))
	ticket, err := flow.StartUpload()
	if err != nil {
		h.respond(w, r, flow.Snapshot(), err)
		return
	}

	secureURL, uploadErr := h.uploads.Upload(r.Context(), header.Filename, header.Header.Get("Content-Type"), file)
	snap, err := flow.FinishUpload(ticket, secureURL, uploadErr)
	h.respond(w, r, snap, err)
}

// Reset handles DELETE /api/v1/onboarding
func (h *OnboardingHandler) Reset(w http.ResponseWriter, r *http.Request) {
	httputil.WriteData(w, http.StatusOK, h.flows.Get(sessionID(r)).Reset(r.Context()))
}

// respond writes the snapshot, alongside the error when the call failed.
func (h *OnboardingHandler) respond(w http.ResponseWriter, r *http.Request, snap onboarding.Snapshot, err error) {
	if err != nil {
		httputil.WriteErrorData(w, r, err, snap, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, snap)
}
