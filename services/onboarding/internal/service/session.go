package service

import (
	"context"
	"fmt"
	"log/slog"

	apperrors "github.com/linkwise/linkwise/pkg/errors"
	"github.com/linkwise/linkwise/services/onboarding/internal/domain"
)

// SessionBackend is the backend surface for session restore and LinkedIn start.
type SessionBackend interface {
	FetchSelf(ctx context.Context, token string) (*domain.User, error)
	LinkedInAuthURL(ctx context.Context) (string, error)
}

// SessionKeeper owns the per-session key space.
type SessionKeeper interface {
	TokenSource
	Logout(ctx context.Context, sid string) error
	Theme(ctx context.Context, sid string) (domain.Theme, error)
	SetTheme(ctx context.Context, sid string, t domain.Theme) error
}

// FlowCloser forgets the onboarding flow of a session.
type FlowCloser interface {
	Remove(ctx context.Context, sid string)
}

// SessionService restores, ends and configures browser sessions.
type SessionService struct {
	backend SessionBackend
	keeper  SessionKeeper
	flows   FlowCloser
	logger  *slog.Logger
}

// NewSessionService creates a new session service.
func NewSessionService(backend SessionBackend, keeper SessionKeeper, flows FlowCloser, logger *slog.Logger) *SessionService {
	return &SessionService{
		backend: backend,
		keeper:  keeper,
		flows:   flows,
		logger:  logger,
	}
}

// Restore returns the signed-in user. The server record is always fetched
// so that profile_completed is never taken from a stale copy.
func (s *SessionService) Restore(ctx context.Context, sid string) (*domain.User, error) {
	token, err := sessionToken(ctx, s.keeper, sid)
	if err != nil {
		return nil, err
	}
	return s.backend.FetchSelf(ctx, token)
}

// Logout forgets the session's token and onboarding flow. The theme is kept.
func (s *SessionService) Logout(ctx context.Context, sid string) error {
	if err := s.keeper.Logout(ctx, sid); err != nil {
		return apperrors.Internal(err)
	}
	if s.flows != nil {
		s.flows.Remove(ctx, sid)
	}
	s.logger.InfoContext(ctx, "session logged out")
	return nil
}

// LinkedInURL returns the backend's LinkedIn authorization URL.
func (s *SessionService) LinkedInURL(ctx context.Context) (string, error) {
	u, err := s.backend.LinkedInAuthURL(ctx)
	if err != nil {
		return "", err
	}
	if u == "" {
		return "", apperrors.Network(fmt.Errorf("empty LinkedIn auth url"))
	}
	return u, nil
}

// Theme returns the session's theme preference.
func (s *SessionService) Theme(ctx context.Context, sid string) (domain.Theme, error) {
	t, err := s.keeper.Theme(ctx, sid)
	if err != nil {
		return "", apperrors.Internal(err)
	}
	return t, nil
}

// SetTheme stores the session's theme preference.
func (s *SessionService) SetTheme(ctx context.Context, sid string, t domain.Theme) error {
	if !t.Valid() {
		return apperrors.InvalidInput(fmt.Sprintf("unknown theme %q", t))
	}
	if err := s.keeper.SetTheme(ctx, sid, t); err != nil {
		return apperrors.Internal(err)
	}
	return nil
}
