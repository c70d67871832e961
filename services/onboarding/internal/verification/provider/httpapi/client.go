// Package httpapi talks to a REST SMS-verification provider.
//
// Contract:
//
//	POST   /v1/widgets                   {"anchor"}  -> {"id"}
//	POST   /v1/widgets/{id}/challenges   {"phone"}   -> {"id"}
//	POST   /v1/challenges/{id}/confirm   {"code"}    -> {"phone","token","verified_at"}
//	DELETE /v1/widgets/{id}
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/linkwise/linkwise/pkg/httpclient"
	"github.com/linkwise/linkwise/services/onboarding/internal/verification"
)

// Config holds provider connection settings.
type Config struct {
	BaseURL string
	APIKey  string
}

// Provider implements verification.Provider over HTTP.
type Provider struct {
	client  httpclient.Doer
	baseURL string
	apiKey  string
	logger  *slog.Logger
}

// New creates a provider. client is expected to be a circuit-breaker client.
func New(client httpclient.Doer, cfg Config, logger *slog.Logger) *Provider {
	return &Provider{
		client:  client,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		logger:  logger,
	}
}

// op distinguishes which 400 meaning applies.
type op int

const (
	opCreate op = iota
	opSend
	opConfirm
	opClear
)

func (p *Provider) do(ctx context.Context, method, path string, in, out any, o op) error {
	var body io.Reader = http.NoBody
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if p.apiKey != "" {
		req.Header.Set("Authorization", httpclient.BearerHeader(p.apiKey))
	}

	resp, err := p.client.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("%w: %w", verification.ErrProviderUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: decode response: %w", verification.ErrProviderUnavailable, err)
		}
		return nil
	}

	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	return mapStatus(resp.StatusCode, o)
}

func mapStatus(status int, o op) error {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		if o == opConfirm {
			return verification.ErrInvalidCode
		}
		if o == opSend {
			return verification.ErrInvalidPhoneFormat
		}
		return verification.ErrChallengeFailed
	case http.StatusForbidden:
		return verification.ErrChallengeFailed
	case http.StatusConflict:
		return verification.ErrChallengeConsumed
	case http.StatusGone:
		return verification.ErrCodeExpired
	case http.StatusTooManyRequests:
		return verification.ErrRateLimited
	}
	return fmt.Errorf("%w: unexpected status %d", verification.ErrProviderUnavailable, status)
}

// NewWidget creates a widget bound to anchor.
func (p *Provider) NewWidget(ctx context.Context, anchor string) (verification.Widget, error) {
	var out struct {
		ID string `json:"id"`
	}
	if err := p.do(ctx, http.MethodPost, "/v1/widgets", map[string]string{"anchor": anchor}, &out, opCreate); err != nil {
		return nil, err
	}
	if out.ID == "" {
		return nil, fmt.Errorf("%w: widget id missing", verification.ErrProviderUnavailable)
	}
	return &widget{provider: p, id: out.ID}, nil
}

type widget struct {
	provider *Provider
	id       string
}

func (w *widget) SendCode(ctx context.Context, e164 string) (verification.Challenge, error) {
	var out struct {
		ID string `json:"id"`
	}
	path := "/v1/widgets/" + url.PathEscape(w.id) + "/challenges"
	if err := w.provider.do(ctx, http.MethodPost, path, map[string]string{"phone": e164}, &out, opSend); err != nil {
		return nil, err
	}
	if out.ID == "" {
		return nil, fmt.Errorf("%w: challenge id missing", verification.ErrProviderUnavailable)
	}
	return &challenge{provider: w.provider, id: out.ID, phone: e164}, nil
}

func (w *widget) Clear(ctx context.Context) error {
	return w.provider.do(ctx, http.MethodDelete, "/v1/widgets/"+url.PathEscape(w.id), nil, nil, opClear)
}

type challenge struct {
	provider *Provider
	id       string
	phone    string
}

func (c *challenge) ID() string { return c.id }

func (c *challenge) Confirm(ctx context.Context, code string) (*verification.IdentityProof, error) {
	var out struct {
		Phone      string    `json:"phone"`
		Token      string    `json:"token"`
		VerifiedAt time.Time `json:"verified_at"`
	}
	path := "/v1/challenges/" + url.PathEscape(c.id) + "/confirm"
	if err := c.provider.do(ctx, http.MethodPost, path, map[string]string{"code": code}, &out, opConfirm); err != nil {
		return nil, err
	}

	phone := out.Phone
	if phone == "" {
		phone = c.phone
	}
	verifiedAt := out.VerifiedAt
	if verifiedAt.IsZero() {
		verifiedAt = time.Now().UTC()
	}
	return &verification.IdentityProof{
		Phone:       phone,
		ChallengeID: c.id,
		Token:       out.Token,
		VerifiedAt:  verifiedAt,
	}, nil
}
