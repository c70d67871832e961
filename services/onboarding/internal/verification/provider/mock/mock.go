// Package mock is a deterministic in-process verification provider for
// development and tests. Every challenge accepts the same configured code.
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/linkwise/linkwise/services/onboarding/internal/verification"
)

// Option configures the mock provider.
type Option func(*Provider)

// WithTTL sets how long a sent code stays valid.
func WithTTL(ttl time.Duration) Option {
	return func(p *Provider) { p.ttl = ttl }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Provider) { p.now = now }
}

// WithCreateDelay slows widget creation down, to widen race windows in tests.
func WithCreateDelay(d time.Duration) Option {
	return func(p *Provider) { p.createDelay = d }
}

// WithSendHook lets tests fail SendCode for selected numbers.
func WithSendHook(hook func(e164 string) error) Option {
	return func(p *Provider) { p.sendHook = hook }
}

// Provider implements verification.Provider.
type Provider struct {
	code        string
	ttl         time.Duration
	now         func() time.Time
	createDelay time.Duration
	sendHook    func(string) error

	mu      sync.Mutex
	created int
	live    map[string]*widget
	sent    []string
}

// New creates a mock provider accepting code.
func New(code string, opts ...Option) *Provider {
	p := &Provider{
		code: code,
		ttl:  5 * time.Minute,
		now:  time.Now,
		live: make(map[string]*widget),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewWidget creates a widget bound to anchor.
func (p *Provider) NewWidget(ctx context.Context, anchor string) (verification.Widget, error) {
	if p.createDelay > 0 {
		select {
		case <-time.After(p.createDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	w := &widget{provider: p, id: uuid.NewString(), anchor: anchor}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.created++
	p.live[w.id] = w
	return w, nil
}

// Created returns how many widgets were ever created.
func (p *Provider) Created() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.created
}

// Live returns how many widgets exist for anchor.
func (p *Provider) Live(anchor string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, w := range p.live {
		if w.anchor == anchor {
			n++
		}
	}
	return n
}

// Sent returns the numbers codes were sent to, in order.
func (p *Provider) Sent() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.sent...)
}

type widget struct {
	provider *Provider
	id       string
	anchor   string
}

func (w *widget) SendCode(_ context.Context, e164 string) (verification.Challenge, error) {
	p := w.provider

	p.mu.Lock()
	_, alive := p.live[w.id]
	p.mu.Unlock()
	if !alive {
		return nil, verification.ErrChallengeFailed
	}

	if p.sendHook != nil {
		if err := p.sendHook(e164); err != nil {
			return nil, err
		}
	}

	p.mu.Lock()
	p.sent = append(p.sent, e164)
	p.mu.Unlock()

	return &challenge{
		provider: p,
		id:       uuid.NewString(),
		phone:    e164,
		expires:  p.now().Add(p.ttl),
	}, nil
}

func (w *widget) Clear(context.Context) error {
	w.provider.mu.Lock()
	delete(w.provider.live, w.id)
	w.provider.mu.Unlock()
	return nil
}

type challenge struct {
	provider *Provider
	id       string
	phone    string
	expires  time.Time

	mu   sync.Mutex
	used bool
}

func (c *challenge) ID() string { return c.id }

func (c *challenge) Confirm(_ context.Context, code string) (*verification.IdentityProof, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.provider.now()
	switch {
	case c.used:
		return nil, verification.ErrChallengeConsumed
	case now.After(c.expires):
		return nil, verification.ErrCodeExpired
	case code != c.provider.code:
		return nil, verification.ErrInvalidCode
	}

	c.used = true
	return &verification.IdentityProof{
		Phone:       c.phone,
		ChallengeID: c.id,
		Token:       "mock-" + c.id,
		VerifiedAt:  now,
	}, nil
}
