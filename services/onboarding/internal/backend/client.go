package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"

	apperrors "github.com/linkwise/linkwise/pkg/errors"
	"github.com/linkwise/linkwise/pkg/httpclient"
	"github.com/linkwise/linkwise/pkg/tracing"
)

const tracerName = "services/onboarding/backend"

// AuthExpiryHook is invoked whenever an authenticated call is answered with
// 401. token is the credential that was rejected.
type AuthExpiryHook func(ctx context.Context, token string)

// Client is the session exchange client for the matching backend.
type Client struct {
	http    httpclient.Doer
	baseURL string
	logger  *slog.Logger

	onExpired AuthExpiryHook
}

// New creates a backend client. doer is normally a circuit-breaker client.
func New(doer httpclient.Doer, baseURL string, logger *slog.Logger) *Client {
	return &Client{
		http:    doer,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// OnAuthExpired registers the global 401 handler. Only one hook is kept.
func (c *Client) OnAuthExpired(hook AuthExpiryHook) {
	c.onExpired = hook
}

// call performs one JSON request. A non-empty token is sent as a bearer
// credential and makes the call "authenticated" for the purposes of the
// expiry hook.
func (c *Client) call(ctx context.Context, method, path, token string, in, out any) (err error) {
	ctx, span := tracing.Start(ctx, tracerName, "backend "+method+" "+routeOf(path),
		attribute.String("http.request.method", method),
	)
	defer func() { tracing.End(span, err) }()

	var body io.Reader = http.NoBody
	if in != nil {
		b, merr := json.Marshal(in)
		if merr != nil {
			return fmt.Errorf("marshal %s %s: %w", method, path, merr)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", httpclient.BearerHeader(token))
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return httpclient.TransportError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err = httpclient.ParseResponseError(resp)
		if token != "" && errors.Is(err, apperrors.ErrAuthExpired) {
			c.expired(ctx, token)
		}
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.Network(fmt.Errorf("decode %s %s: %w", method, path, err))
	}
	return nil
}

func (c *Client) expired(ctx context.Context, token string) {
	c.logger.InfoContext(ctx, "backend rejected session token")
	if c.onExpired != nil {
		c.onExpired(ctx, token)
	}
}

// routeOf collapses ids out of a path for span names.
func routeOf(path string) string {
	parts := strings.Split(path, "/")
	for i, p := range parts {
		if i > 0 && looksLikeID(p) {
			parts[i] = "{id}"
		}
	}
	return strings.Join(parts, "/")
}

func looksLikeID(seg string) bool {
	if len(seg) < 8 {
		return false
	}
	for _, r := range seg {
		if r >= '0' && r <= '9' {
			return true
		}
	}
	return false
}

func escape(id string) string {
	return url.PathEscape(id)
}
