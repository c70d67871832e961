// Package httpclient is the outbound HTTP stack shared by the backend, upload
// and verification clients: pooled transport, bounded retries for replayable
// requests, trace propagation, a circuit breaker and error translation.
package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// IdempotencyKeyHeader marks a non-idempotent request as safe to replay.
const IdempotencyKeyHeader = "Idempotency-Key"

// Config tunes the pooled transport and the retry policy.
type Config struct {
	Timeout         time.Duration
	MaxRetries      int
	RetryWaitMin    time.Duration
	RetryWaitMax    time.Duration
	MaxConnsPerHost int
	// UserAgent is sent on every request when set.
	UserAgent string
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Timeout:         30 * time.Second,
		MaxRetries:      3,
		RetryWaitMin:    time.Second,
		RetryWaitMax:    5 * time.Second,
		MaxConnsPerHost: 100,
	}
}

// Doer is the subset of client behavior used by API clients built on this package.
type Doer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

var retriesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "linkwise",
		Subsystem: "http_client",
		Name:      "retries_total",
		Help:      "Outbound HTTP retries, by host and reason.",
	},
	[]string{"host", "reason"},
)

// Client is an http.Client with retries and W3C trace propagation.
type Client struct {
	httpClient *http.Client
	config     Config
}

// New builds a Client over a pooled transport.
func New(cfg Config) *Client {
	if cfg.MaxConnsPerHost <= 0 {
		cfg.MaxConnsPerHost = DefaultConfig().MaxConnsPerHost
	}
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          cfg.MaxConnsPerHost * 2,
		MaxIdleConnsPerHost:   cfg.MaxConnsPerHost,
		MaxConnsPerHost:       cfg.MaxConnsPerHost,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: time.Second,
	}

	return &Client{
		httpClient: &http.Client{Transport: transport, Timeout: cfg.Timeout},
		config:     cfg,
	}
}

// Do sends req, retrying transport errors and 5xx responses other than 501.
//
// Only replayable requests are retried: idempotent methods with a rewindable
// body, or any method carrying an Idempotency-Key. Submitting a one-time code
// is a plain POST and therefore gets exactly one attempt.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	req = req.WithContext(ctx)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
	if c.config.UserAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	attempts := 1
	if isReplayable(req) {
		attempts += c.config.MaxRetries
	}

	var lastErr error
	for attempt := 1; ; attempt++ {
		resp, err := c.httpClient.Do(req)
		last := attempt >= attempts

		switch {
		case err != nil && (last || !isRetryableError(err)):
			return nil, fmt.Errorf("http request failed after %d attempts: %w", attempt, err)
		case err != nil:
			lastErr = err
			retriesTotal.WithLabelValues(req.URL.Host, "transport").Inc()
			if werr := c.pause(ctx, attempt, 0); werr != nil {
				return nil, werr
			}
		case last || !retryableStatus(resp.StatusCode):
			return resp, nil
		default:
			hint := retryAfter(resp)
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
			retriesTotal.WithLabelValues(req.URL.Host, strconv.Itoa(resp.StatusCode)).Inc()
			if werr := c.pause(ctx, attempt, hint); werr != nil {
				return nil, werr
			}
		}

		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, errors.Join(fmt.Errorf("rewind request body: %w", err), lastErr)
			}
			req.Body = body
		}
	}
}

// pause waits before the next attempt. A server-supplied hint replaces the
// exponential backoff but is still capped by RetryWaitMax.
func (c *Client) pause(ctx context.Context, attempt int, hint time.Duration) error {
	wait := hint
	if wait <= 0 {
		wait = addJitter(c.config.RetryWaitMin << (attempt - 1))
	}
	if c.config.RetryWaitMax > 0 && wait > c.config.RetryWaitMax {
		wait = c.config.RetryWaitMax
	}

	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Get performs a GET.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create GET request: %w", err)
	}
	return c.Do(ctx, req)
}

// Post performs a POST. It is sent once unless the caller goes through Do
// with an Idempotency-Key header.
func (c *Client) Post(ctx context.Context, url string, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, fmt.Errorf("create POST request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	return c.Do(ctx, req)
}

func isReplayable(req *http.Request) bool {
	if req.Body != nil && req.Body != http.NoBody && req.GetBody == nil {
		return false
	}
	switch req.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodPut, http.MethodDelete:
		return true
	}
	return req.Header.Get(IdempotencyKeyHeader) != ""
}

func retryableStatus(code int) bool {
	return code >= 500 && code != http.StatusNotImplemented
}

func isRetryableError(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr)
}

// retryAfter reads a delay-seconds Retry-After header. HTTP dates are ignored.
func retryAfter(resp *http.Response) time.Duration {
	secs, err := strconv.Atoi(resp.Header.Get("Retry-After"))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// addJitter spreads d by ±25% so synchronized clients do not retry in lockstep.
func addJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	delta := float64(d) * 0.25 * (2*rand.Float64() - 1) // #nosec G404 -- non-cryptographic jitter
	return d + time.Duration(delta)
}
