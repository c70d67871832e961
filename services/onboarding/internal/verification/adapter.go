package verification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/linkwise/linkwise/pkg/logger"
	"github.com/linkwise/linkwise/pkg/tracing"
)

const tracerName = "services/onboarding/verification"

// createTimeout bounds a shared widget creation. It is independent of the
// caller that happened to start it.
const createTimeout = 15 * time.Second

var e164Pattern = regexp.MustCompile(`^\+[1-9][0-9]{6,14}$`)

// Option configures an Adapter.
type Option func(*Adapter)

// WithRateLimit guards RequestCode with a local token bucket. An exhausted
// bucket fails with ErrRateLimited without reaching the provider.
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(a *Adapter) {
		a.limiter = rate.NewLimiter(limit, burst)
	}
}

// WithLogger sets the adapter logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Adapter) {
		a.logger = l
	}
}

// Adapter owns at most one verification widget for its anchor. It is safe
// for concurrent use: concurrent Setup or RequestCode calls share a single
// in-flight widget creation.
type Adapter struct {
	provider Provider
	anchor   string
	limiter  *rate.Limiter
	logger   *slog.Logger

	group singleflight.Group

	mu     sync.Mutex
	widget Widget
	gen    uint64
}

// NewAdapter creates an adapter bound to anchor.
func NewAdapter(provider Provider, anchor string, opts ...Option) *Adapter {
	a := &Adapter{
		provider: provider,
		anchor:   anchor,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Anchor returns the UI anchor the adapter is bound to.
func (a *Adapter) Anchor() string {
	return a.anchor
}

// Active reports whether a widget is currently held.
func (a *Adapter) Active() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.widget != nil
}

// Setup creates the widget if none exists. It is idempotent.
func (a *Adapter) Setup(ctx context.Context) error {
	_, err := a.acquire(ctx)
	return err
}

func (a *Adapter) acquire(ctx context.Context) (Widget, error) {
	a.mu.Lock()
	if a.widget != nil {
		w := a.widget
		a.mu.Unlock()
		return w, nil
	}
	gen := a.gen
	a.mu.Unlock()

	v, err, _ := a.group.Do(a.anchor, func() (any, error) {
		a.mu.Lock()
		if a.widget != nil {
			w := a.widget
			a.mu.Unlock()
			return w, nil
		}
		a.mu.Unlock()

		// Other callers may be waiting on this creation, so the first
		// caller's cancellation must not fail them too.
		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), createTimeout)
		defer cancel()
		w, err := a.provider.NewWidget(cctx, a.anchor)
		if err != nil {
			return nil, normalize(err)
		}

		a.mu.Lock()
		defer a.mu.Unlock()
		if a.gen != gen {
			// Torn down while the widget was being created.
			if cerr := w.Clear(context.WithoutCancel(ctx)); cerr != nil {
				a.logger.WarnContext(ctx, "failed to clear orphaned verification widget",
					slog.String("anchor", a.anchor),
					slog.String("error", cerr.Error()),
				)
			}
			return nil, ErrTornDown
		}
		a.widget = w
		widgetsLive.Inc()
		return w, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(Widget), nil
}

// RequestCode sends a one-time code to fullPhone (E.164). ErrChallengeFailed
// and ErrProviderUnavailable tear the widget down so that the next attempt
// recreates it; other failures leave it intact.
func (a *Adapter) RequestCode(ctx context.Context, fullPhone string) (h *Handle, err error) {
	ctx, span := tracing.Start(ctx, tracerName, "verification.RequestCode",
		attribute.String("verification.anchor", a.anchor),
	)
	defer func() {
		verificationOps.WithLabelValues("request_code", outcome(err)).Inc()
		tracing.End(span, err)
	}()

	if !e164Pattern.MatchString(fullPhone) {
		return nil, ErrInvalidPhoneFormat
	}
	if a.limiter != nil && !a.limiter.Allow() {
		return nil, ErrRateLimited
	}

	w, err := a.acquire(ctx)
	if err != nil {
		if forcesTeardown(err) {
			a.teardown(ctx)
		}
		return nil, err
	}

	ch, err := w.SendCode(ctx, fullPhone)
	if err != nil {
		err = normalize(err)
		if forcesTeardown(err) {
			a.logger.WarnContext(ctx, "verification widget unusable, tearing down",
				slog.String("anchor", a.anchor),
				slog.String("phone", logger.MaskPhone(fullPhone)),
				slog.String("error", err.Error()),
			)
			a.teardown(ctx)
		}
		return nil, err
	}

	return &Handle{phone: fullPhone, challenge: ch}, nil
}

// Confirm checks code against the challenge behind h. ErrInvalidCode keeps
// the handle usable; ErrCodeExpired discards it. A successful confirmation
// consumes the handle.
func (a *Adapter) Confirm(ctx context.Context, h *Handle, code string) (proof *IdentityProof, err error) {
	ctx, span := tracing.Start(ctx, tracerName, "verification.Confirm",
		attribute.String("verification.anchor", a.anchor),
	)
	defer func() {
		verificationOps.WithLabelValues("confirm", outcome(err)).Inc()
		tracing.End(span, err)
	}()

	if h == nil || h.challenge == nil {
		return nil, ErrInvalidHandle
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.consumed {
		return nil, ErrChallengeConsumed
	}
	if h.discarded {
		return nil, ErrInvalidHandle
	}

	proof, err = h.challenge.Confirm(ctx, code)
	if err != nil {
		err = normalize(err)
		if errors.Is(err, ErrCodeExpired) || errors.Is(err, ErrChallengeConsumed) {
			h.discarded = true
		}
		return nil, err
	}
	if proof == nil {
		return nil, fmt.Errorf("%w: empty proof", ErrProviderUnavailable)
	}

	h.consumed = true
	if proof.Phone == "" {
		proof.Phone = h.phone
	}
	if proof.ChallengeID == "" {
		proof.ChallengeID = h.challenge.ID()
	}
	return proof, nil
}

// Teardown releases the widget, if any. It is safe to call repeatedly and
// on every exit path.
func (a *Adapter) Teardown(ctx context.Context) {
	a.teardown(ctx)
}

// Detach forgets the widget immediately and returns the function that
// clears it on the provider. Callers holding their own locks detach under
// them and release afterwards; a widget created after Detach is never
// touched by the returned function.
func (a *Adapter) Detach() func(context.Context) {
	a.mu.Lock()
	w := a.widget
	a.widget = nil
	a.gen++
	a.mu.Unlock()

	if w == nil {
		return func(context.Context) {}
	}
	widgetsLive.Dec()
	return func(ctx context.Context) {
		if err := w.Clear(context.WithoutCancel(ctx)); err != nil {
			a.logger.WarnContext(ctx, "failed to clear verification widget",
				slog.String("anchor", a.anchor),
				slog.String("error", err.Error()),
			)
		}
	}
}

func (a *Adapter) teardown(ctx context.Context) {
	a.Detach()(ctx)
}

func normalize(err error) error {
	if err == nil || isKnown(err) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
}
