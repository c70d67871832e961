package service

import (
	"context"
	"io"
	"log/slog"

	"github.com/stretchr/testify/mock"

	"github.com/linkwise/linkwise/services/onboarding/internal/domain"
	"github.com/linkwise/linkwise/services/onboarding/internal/repository"
)

// --- Mock Backend ---

type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) ListRequests(ctx context.Context, token string) ([]domain.Request, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Request), args.Error(1)
}

func (m *mockBackend) CreateRequest(ctx context.Context, token, title, description string) (*domain.Request, error) {
	args := m.Called(ctx, token, title, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Request), args.Error(1)
}

func (m *mockBackend) ListMatches(ctx context.Context, token, requestID string) ([]domain.Match, error) {
	args := m.Called(ctx, token, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Match), args.Error(1)
}

func (m *mockBackend) GetMatch(ctx context.Context, token, matchID string) (*domain.Match, error) {
	args := m.Called(ctx, token, matchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Match), args.Error(1)
}

func (m *mockBackend) MatchAction(ctx context.Context, token, matchID, action string) error {
	return m.Called(ctx, token, matchID, action).Error(0)
}

func (m *mockBackend) ListOpportunities(ctx context.Context, token string) ([]domain.Opportunity, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Opportunity), args.Error(1)
}

func (m *mockBackend) OpportunityAction(ctx context.Context, token, opportunityID, action string) error {
	return m.Called(ctx, token, opportunityID, action).Error(0)
}

func (m *mockBackend) ListConnections(ctx context.Context, token string) ([]domain.Connection, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Connection), args.Error(1)
}

func (m *mockBackend) ListOutreach(ctx context.Context, token string) ([]domain.Outreach, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Outreach), args.Error(1)
}

func (m *mockBackend) GetOutreach(ctx context.Context, token, id string) (*domain.Outreach, error) {
	args := m.Called(ctx, token, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Outreach), args.Error(1)
}

func (m *mockBackend) CreateOutreach(ctx context.Context, token string, o domain.Outreach) (*domain.Outreach, error) {
	args := m.Called(ctx, token, o)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Outreach), args.Error(1)
}

func (m *mockBackend) UpdateOutreachStatus(ctx context.Context, token, id string, status domain.OutreachStatus) (*domain.Outreach, error) {
	args := m.Called(ctx, token, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Outreach), args.Error(1)
}

func (m *mockBackend) FetchSelf(ctx context.Context, token string) (*domain.User, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockBackend) LinkedInAuthURL(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

// --- Mock Keeper ---

type mockKeeper struct {
	mock.Mock
}

func (m *mockKeeper) Token(ctx context.Context, sid string) (string, error) {
	args := m.Called(ctx, sid)
	return args.String(0), args.Error(1)
}

func (m *mockKeeper) Logout(ctx context.Context, sid string) error {
	return m.Called(ctx, sid).Error(0)
}

func (m *mockKeeper) Theme(ctx context.Context, sid string) (domain.Theme, error) {
	args := m.Called(ctx, sid)
	return args.Get(0).(domain.Theme), args.Error(1)
}

func (m *mockKeeper) SetTheme(ctx context.Context, sid string, t domain.Theme) error {
	return m.Called(ctx, sid, t).Error(0)
}

// --- Mock Events ---

type mockEvents struct {
	mock.Mock
}

func (m *mockEvents) PublishOpportunityAccepted(ctx context.Context, opportunityID, sessionID string) error {
	return m.Called(ctx, opportunityID, sessionID).Error(0)
}

// --- Mock Flows ---

type mockFlows struct {
	mock.Mock
}

func (m *mockFlows) Remove(ctx context.Context, sid string) {
	m.Called(ctx, sid)
}

// --- Mock Funnel Repository ---

type mockFunnel struct {
	mock.Mock
}

func (m *mockFunnel) Insert(ctx context.Context, ev *domain.FunnelEvent) error {
	return m.Called(ctx, ev).Error(0)
}

func (m *mockFunnel) List(ctx context.Context, filter repository.FunnelFilter) ([]domain.FunnelEvent, int, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.FunnelEvent), args.Int(1), args.Error(2)
}

func (m *mockFunnel) CountByStage(ctx context.Context) ([]domain.FunnelStageCount, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.FunnelStageCount), args.Error(1)
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
