package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	apperrors "github.com/linkwise/linkwise/pkg/errors"
	"github.com/linkwise/linkwise/pkg/pagination"
	"github.com/linkwise/linkwise/pkg/validator"
	"github.com/linkwise/linkwise/services/onboarding/internal/domain"
	"github.com/linkwise/linkwise/services/onboarding/internal/lifecycle"
	"github.com/linkwise/linkwise/services/onboarding/internal/repository"
)

// OutreachBackend is the operator-only backend surface.
type OutreachBackend interface {
	ListOutreach(ctx context.Context, token string) ([]domain.Outreach, error)
	GetOutreach(ctx context.Context, token, id string) (*domain.Outreach, error)
	CreateOutreach(ctx context.Context, token string, o domain.Outreach) (*domain.Outreach, error)
	UpdateOutreachStatus(ctx context.Context, token, id string, status domain.OutreachStatus) (*domain.Outreach, error)
}

// AdminService implements the operator dashboard. Backend calls use the
// configured service token, never the operator's own credentials.
type AdminService struct {
	backend      OutreachBackend
	serviceToken string
	funnel       repository.FunnelRepository
	logger       *slog.Logger
}

// NewAdminService creates a new admin service. funnel may be nil when the
// funnel audit is disabled.
func NewAdminService(backend OutreachBackend, serviceToken string, funnel repository.FunnelRepository, logger *slog.Logger) *AdminService {
	return &AdminService{
		backend:      backend,
		serviceToken: serviceToken,
		funnel:       funnel,
		logger:       logger,
	}
}

// CreateOutreachInput holds the parameters for logging an outreach.
type CreateOutreachInput struct {
	Name       string `json:"name" validate:"required,max=200"`
	Platform   string `json:"platform" validate:"required,max=50"`
	ProfileURL string `json:"profile_url" validate:"required,url"`
	RequestID  string `json:"request_id,omitempty"`
	Notes      string `json:"notes,omitempty" validate:"max=2000"`
}

// ListOutreach returns all outreach records with their allowed next states.
func (s *AdminService) ListOutreach(ctx context.Context) ([]lifecycle.OutreachView, error) {
	list, err := s.backend.ListOutreach(ctx, s.serviceToken)
	if err != nil {
		return nil, err
	}
	out := make([]lifecycle.OutreachView, len(list))
	for i, o := range list {
		out[i] = lifecycle.DecorateOutreach(o)
	}
	return out, nil
}

// GetOutreach returns one outreach record.
func (s *AdminService) GetOutreach(ctx context.Context, id string) (*lifecycle.OutreachView, error) {
	o, err := s.backend.GetOutreach(ctx, s.serviceToken, id)
	if err != nil {
		return nil, err
	}
	view := lifecycle.DecorateOutreach(*o)
	return &view, nil
}

// CreateOutreach logs a new outreach in the pending state.
func (s *AdminService) CreateOutreach(ctx context.Context, input CreateOutreachInput) (*lifecycle.OutreachView, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Platform = strings.ToLower(strings.TrimSpace(input.Platform))
	input.ProfileURL = strings.TrimSpace(input.ProfileURL)
	if err := validator.Validate(input); err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}

	o, err := s.backend.CreateOutreach(ctx, s.serviceToken, domain.Outreach{
		Name:       input.Name,
		Platform:   input.Platform,
		ProfileURL: input.ProfileURL,
		RequestID:  input.RequestID,
		Notes:      input.Notes,
		Status:     domain.OutreachPending,
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "outreach created", slog.String("outreach_id", o.ID))
	view := lifecycle.DecorateOutreach(*o)
	return &view, nil
}

// UpdateOutreachStatus moves an outreach record along the transition table.
// Moves outside the table are refused without calling the backend update.
func (s *AdminService) UpdateOutreachStatus(ctx context.Context, id string, status domain.OutreachStatus) (*lifecycle.OutreachView, error) {
	if !lifecycle.IsValidOutreachStatus(status) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid outreach status: %s", status))
	}

	current, err := s.backend.GetOutreach(ctx, s.serviceToken, id)
	if err != nil {
		return nil, err
	}
	if !lifecycle.CanOutreachTransition(current.Status, status) {
		return nil, apperrors.Conflict(fmt.Sprintf("outreach cannot move from %s to %s", current.Status, status))
	}

	o, err := s.backend.UpdateOutreachStatus(ctx, s.serviceToken, id, status)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "outreach status changed",
		slog.String("outreach_id", id),
		slog.String("old_status", string(current.Status)),
		slog.String("new_status", string(status)),
	)
	view := lifecycle.DecorateOutreach(*o)
	return &view, nil
}

// FunnelReport is one page of funnel events plus the per-stage totals.
type FunnelReport struct {
	Events pagination.Result[domain.FunnelEvent] `json:"events"`
	Stages []domain.FunnelStageCount             `json:"stages"`
}

// Funnel returns the onboarding funnel audit.
func (s *AdminService) Funnel(ctx context.Context, stage string, params pagination.Params) (*FunnelReport, error) {
	if s.funnel == nil {
		return nil, apperrors.ServiceUnavailable("funnel audit is disabled")
	}

	filter := repository.FunnelFilter{Page: params.Page, PerPage: params.PerPage}
	if stage != "" {
		st := domain.FunnelStage(stage)
		filter.Stage = &st
	}

	events, total, err := s.funnel.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list funnel events: %w", err)
	}
	counts, err := s.funnel.CountByStage(ctx)
	if err != nil {
		return nil, fmt.Errorf("count funnel events: %w", err)
	}

	return &FunnelReport{
		Events: pagination.NewResult(events, total, params),
		Stages: counts,
	}, nil
}
