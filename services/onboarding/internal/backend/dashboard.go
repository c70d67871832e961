package backend

import (
	"context"
	"net/http"

	"github.com/linkwise/linkwise/services/onboarding/internal/domain"
)

// ListRequests returns the requester's own requests.
func (c *Client) ListRequests(ctx context.Context, token string) ([]domain.Request, error) {
	var out []domain.Request
	if err := c.call(ctx, http.MethodGet, "/requests", token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateRequest creates a new request.
func (c *Client) CreateRequest(ctx context.Context, token, title, description string) (*domain.Request, error) {
	in := map[string]string{"title": title, "description": description}
	var out domain.Request
	if err := c.call(ctx, http.MethodPost, "/requests", token, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListMatches returns the matches for one request.
func (c *Client) ListMatches(ctx context.Context, token, requestID string) ([]domain.Match, error) {
	var out []domain.Match
	if err := c.call(ctx, http.MethodGet, "/requests/"+escape(requestID)+"/matches", token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetMatch returns a single match.
func (c *Client) GetMatch(ctx context.Context, token, matchID string) (*domain.Match, error) {
	var out domain.Match
	if err := c.call(ctx, http.MethodGet, "/matches/"+escape(matchID), token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MatchAction runs approve or skip on a match.
func (c *Client) MatchAction(ctx context.Context, token, matchID, action string) error {
	return c.call(ctx, http.MethodPost, "/matches/"+escape(matchID)+"/"+action, token, nil, nil)
}

// ListOpportunities returns the invitee's actionable opportunities.
func (c *Client) ListOpportunities(ctx context.Context, token string) ([]domain.Opportunity, error) {
	var out []domain.Opportunity
	if err := c.call(ctx, http.MethodGet, "/opportunities", token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// OpportunityAction runs accept or decline on an opportunity.
func (c *Client) OpportunityAction(ctx context.Context, token, opportunityID, action string) error {
	return c.call(ctx, http.MethodPost, "/opportunities/"+escape(opportunityID)+"/"+action, token, nil, nil)
}

// ListConnections returns the user's connections.
func (c *Client) ListConnections(ctx context.Context, token string) ([]domain.Connection, error) {
	var out []domain.Connection
	if err := c.call(ctx, http.MethodGet, "/connections", token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListOutreach returns every outreach record.
func (c *Client) ListOutreach(ctx context.Context, token string) ([]domain.Outreach, error) {
	var out []domain.Outreach
	if err := c.call(ctx, http.MethodGet, "/admin/outreach", token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetOutreach returns a single outreach record.
func (c *Client) GetOutreach(ctx context.Context, token, id string) (*domain.Outreach, error) {
	var out domain.Outreach
	if err := c.call(ctx, http.MethodGet, "/admin/outreach/"+escape(id), token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateOutreach logs a new outreach record.
func (c *Client) CreateOutreach(ctx context.Context, token string, o domain.Outreach) (*domain.Outreach, error) {
	var out domain.Outreach
	if err := c.call(ctx, http.MethodPost, "/admin/outreach", token, o, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateOutreachStatus moves an outreach record to status.
func (c *Client) UpdateOutreachStatus(ctx context.Context, token, id string, status domain.OutreachStatus) (*domain.Outreach, error) {
	in := map[string]domain.OutreachStatus{"status": status}
	var out domain.Outreach
	if err := c.call(ctx, http.MethodPatch, "/admin/outreach/"+escape(id), token, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
