package service

import (
	"context"
	"log/slog"
	"strings"

	apperrors "github.com/linkwise/linkwise/pkg/errors"
	"github.com/linkwise/linkwise/pkg/validator"
	"github.com/linkwise/linkwise/services/onboarding/internal/domain"
	"github.com/linkwise/linkwise/services/onboarding/internal/lifecycle"
)

// DashboardBackend is the backend surface used by requester and invitee dashboards.
type DashboardBackend interface {
	ListRequests(ctx context.Context, token string) ([]domain.Request, error)
	CreateRequest(ctx context.Context, token, title, description string) (*domain.Request, error)
	ListMatches(ctx context.Context, token, requestID string) ([]domain.Match, error)
	GetMatch(ctx context.Context, token, matchID string) (*domain.Match, error)
	MatchAction(ctx context.Context, token, matchID, action string) error
	ListOpportunities(ctx context.Context, token string) ([]domain.Opportunity, error)
	OpportunityAction(ctx context.Context, token, opportunityID, action string) error
	ListConnections(ctx context.Context, token string) ([]domain.Connection, error)
}

// TokenSource returns the bearer token kept for a browser session.
type TokenSource interface {
	Token(ctx context.Context, sid string) (string, error)
}

// OpportunityEvents publishes invitee-side domain events.
type OpportunityEvents interface {
	PublishOpportunityAccepted(ctx context.Context, opportunityID, sessionID string) error
}

// DashboardService implements the requester and invitee dashboard use cases.
type DashboardService struct {
	backend DashboardBackend
	tokens  TokenSource
	events  OpportunityEvents
	logger  *slog.Logger
}

// NewDashboardService creates a new dashboard service. events may be nil.
func NewDashboardService(backend DashboardBackend, tokens TokenSource, events OpportunityEvents, logger *slog.Logger) *DashboardService {
	return &DashboardService{
		backend: backend,
		tokens:  tokens,
		events:  events,
		logger:  logger,
	}
}

// CreateRequestInput holds the parameters for creating a request.
type CreateRequestInput struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"required,max=2000"`
}

func (s *DashboardService) token(ctx context.Context, sid string) (string, error) {
	return sessionToken(ctx, s.tokens, sid)
}

// sessionToken returns the kept token or a 401 when the session has none.
func sessionToken(ctx context.Context, tokens TokenSource, sid string) (string, error) {
	token, err := tokens.Token(ctx, sid)
	if err != nil {
		return "", apperrors.Internal(err)
	}
	if token == "" {
		return "", apperrors.Unauthorized("please sign in to continue")
	}
	return token, nil
}

// ListRequests returns the requester's requests with their display labels.
func (s *DashboardService) ListRequests(ctx context.Context, sid string) ([]lifecycle.RequestView, error) {
	token, err := s.token(ctx, sid)
	if err != nil {
		return nil, err
	}
	reqs, err := s.backend.ListRequests(ctx, token)
	if err != nil {
		return nil, err
	}
	return lifecycle.DecorateRequests(reqs), nil
}

// CreateRequest creates a new request.
func (s *DashboardService) CreateRequest(ctx context.Context, sid string, input CreateRequestInput) (*lifecycle.RequestView, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	if err := validator.Validate(input); err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}

	token, err := s.token(ctx, sid)
	if err != nil {
		return nil, err
	}
	req, err := s.backend.CreateRequest(ctx, token, input.Title, input.Description)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "request created", slog.String("request_id", req.ID))
	view := lifecycle.RequestView{Request: *req, Label: lifecycle.RequestLabel(req.Status)}
	return &view, nil
}

// ListMatches returns a request's matches with the actions they expose.
func (s *DashboardService) ListMatches(ctx context.Context, sid, requestID string) ([]lifecycle.MatchView, error) {
	token, err := s.token(ctx, sid)
	if err != nil {
		return nil, err
	}
	matches, err := s.backend.ListMatches(ctx, token, requestID)
	if err != nil {
		return nil, err
	}
	return lifecycle.DecorateMatches(matches), nil
}

// MatchAction approves or skips a match. The action is refused unless the
// match currently exposes it.
func (s *DashboardService) MatchAction(ctx context.Context, sid, matchID, action string) error {
	if action != domain.ActionApprove && action != domain.ActionSkip {
		return apperrors.InvalidInput("unknown match action: " + action)
	}

	token, err := s.token(ctx, sid)
	if err != nil {
		return err
	}
	m, err := s.backend.GetMatch(ctx, token, matchID)
	if err != nil {
		return err
	}
	if !lifecycle.MatchActionAllowed(m.Status, action) {
		return apperrors.Conflict("this match can no longer be " + pastTense(action))
	}

	if err := s.backend.MatchAction(ctx, token, matchID, action); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "match action applied",
		slog.String("match_id", matchID),
		slog.String("action", action),
	)
	return nil
}

func pastTense(action string) string {
	switch action {
	case domain.ActionApprove:
		return "approved"
	case domain.ActionSkip:
		return "skipped"
	}
	return action + "ed"
}

// ListOpportunities returns the invitee's actionable opportunities.
func (s *DashboardService) ListOpportunities(ctx context.Context, sid string) ([]lifecycle.OpportunityView, error) {
	token, err := s.token(ctx, sid)
	if err != nil {
		return nil, err
	}
	opps, err := s.backend.ListOpportunities(ctx, token)
	if err != nil {
		return nil, err
	}
	return lifecycle.DecorateOpportunities(opps), nil
}

// OpportunityAction accepts or declines an opportunity. Accepting publishes
// an opportunity.accepted event on a best-effort basis.
func (s *DashboardService) OpportunityAction(ctx context.Context, sid, opportunityID, action string) error {
	if !lifecycle.IsOpportunityAction(action) {
		return apperrors.InvalidInput("unknown opportunity action: " + action)
	}

	token, err := s.token(ctx, sid)
	if err != nil {
		return err
	}
	if err := s.backend.OpportunityAction(ctx, token, opportunityID, action); err != nil {
		return err
	}

	if action == domain.ActionAccept && s.events != nil {
		if err := s.events.PublishOpportunityAccepted(ctx, opportunityID, sid); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish opportunity.accepted event",
				slog.String("opportunity_id", opportunityID),
				slog.String("error", err.Error()),
			)
		}
	}
	return nil
}

// ListConnections returns the user's connections.
func (s *DashboardService) ListConnections(ctx context.Context, sid string) ([]domain.Connection, error) {
	token, err := s.token(ctx, sid)
	if err != nil {
		return nil, err
	}
	conns, err := s.backend.ListConnections(ctx, token)
	if err != nil {
		return nil, err
	}
	if conns == nil {
		conns = []domain.Connection{}
	}
	return conns, nil
}
