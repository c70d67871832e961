package verification_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	apperrors "github.com/linkwise/linkwise/pkg/errors"
	"github.com/linkwise/linkwise/services/onboarding/internal/verification"
	"github.com/linkwise/linkwise/services/onboarding/internal/verification/provider/mock"
)

const (
	anchor = "recaptcha-container"
	code   = "482913"
	phone  = "+15551234567"
)

func TestAdapter_SetupIsIdempotent(t *testing.T) {
	p := mock.New(code)
	a := verification.NewAdapter(p, anchor)
	ctx := context.Background()

	require.NoError(t, a.Setup(ctx))
	require.NoError(t, a.Setup(ctx))

	assert.Equal(t, 1, p.Created())
	assert.Equal(t, 1, p.Live(anchor))
	assert.True(t, a.Active())
}

func TestAdapter_ConcurrentRequestCodeSharesOneWidget(t *testing.T) {
	p := mock.New(code, mock.WithCreateDelay(20*time.Millisecond))
	a := verification.NewAdapter(p, anchor)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = a.RequestCode(context.Background(), phone)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, 1, p.Created())
	assert.Equal(t, 1, p.Live(anchor))
}

func TestAdapter_RequestCode_RejectsNonE164WithoutProvider(t *testing.T) {
	p := mock.New(code)
	a := verification.NewAdapter(p, anchor)

	_, err := a.RequestCode(context.Background(), "5551234")

	assert.ErrorIs(t, err, verification.ErrInvalidPhoneFormat)
	assert.Equal(t, 0, p.Created())
	assert.Empty(t, p.Sent())
}

func TestAdapter_RequestCode_LocalRateLimit(t *testing.T) {
	p := mock.New(code)
	a := verification.NewAdapter(p, anchor, verification.WithRateLimit(rate.Every(time.Hour), 1))
	ctx := context.Background()

	_, err := a.RequestCode(ctx, phone)
	require.NoError(t, err)

	_, err = a.RequestCode(ctx, phone)
	assert.ErrorIs(t, err, verification.ErrRateLimited)
	assert.Len(t, p.Sent(), 1)
	assert.True(t, a.Active(), "rate limiting must leave the widget intact")
}

func TestAdapter_RequestCode_ChallengeFailedTearsDown(t *testing.T) {
	fail := true
	p := mock.New(code, mock.WithSendHook(func(string) error {
		if fail {
			return verification.ErrChallengeFailed
		}
		return nil
	}))
	a := verification.NewAdapter(p, anchor)
	ctx := context.Background()

	_, err := a.RequestCode(ctx, phone)
	assert.ErrorIs(t, err, verification.ErrChallengeFailed)
	assert.False(t, a.Active())
	assert.Equal(t, 0, p.Live(anchor))

	fail = false
	_, err = a.RequestCode(ctx, phone)
	require.NoError(t, err)
	assert.Equal(t, 2, p.Created(), "next attempt recreates the widget")
	assert.Equal(t, 1, p.Live(anchor))
}

func TestAdapter_RequestCode_UnknownErrorIsProviderUnavailable(t *testing.T) {
	p := mock.New(code, mock.WithSendHook(func(string) error {
		return errors.New("socket hang up")
	}))
	a := verification.NewAdapter(p, anchor)

	_, err := a.RequestCode(context.Background(), phone)

	assert.ErrorIs(t, err, verification.ErrProviderUnavailable)
	assert.False(t, a.Active())
}

func TestAdapter_RequestCode_InvalidPhoneKeepsWidget(t *testing.T) {
	p := mock.New(code, mock.WithSendHook(func(string) error {
		return verification.ErrInvalidPhoneFormat
	}))
	a := verification.NewAdapter(p, anchor)

	_, err := a.RequestCode(context.Background(), phone)

	assert.ErrorIs(t, err, verification.ErrInvalidPhoneFormat)
	assert.True(t, a.Active())
}

func TestAdapter_Confirm_SingleUse(t *testing.T) {
	p := mock.New(code)
	a := verification.NewAdapter(p, anchor)
	ctx := context.Background()

	h, err := a.RequestCode(ctx, phone)
	require.NoError(t, err)

	proof, err := a.Confirm(ctx, h, code)
	require.NoError(t, err)
	assert.Equal(t, phone, proof.Phone)
	assert.Equal(t, h.ID(), proof.ChallengeID)
	assert.False(t, h.Usable())

	_, err = a.Confirm(ctx, h, code)
	assert.ErrorIs(t, err, verification.ErrChallengeConsumed)
}

func TestAdapter_Confirm_ConcurrentSucceedsOnce(t *testing.T) {
	p := mock.New(code)
	a := verification.NewAdapter(p, anchor)
	ctx := context.Background()

	h, err := a.RequestCode(ctx, phone)
	require.NoError(t, err)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := a.Confirm(ctx, h, code); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
}

func TestAdapter_Confirm_InvalidCodeAllowsRetry(t *testing.T) {
	p := mock.New(code)
	a := verification.NewAdapter(p, anchor)
	ctx := context.Background()

	h, err := a.RequestCode(ctx, phone)
	require.NoError(t, err)

	_, err = a.Confirm(ctx, h, "000000")
	assert.ErrorIs(t, err, verification.ErrInvalidCode)
	assert.True(t, h.Usable())

	_, err = a.Confirm(ctx, h, code)
	assert.NoError(t, err)
}

func TestAdapter_Confirm_ExpiredDiscardsHandle(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	p := mock.New(code, mock.WithTTL(time.Minute), mock.WithClock(clock))
	a := verification.NewAdapter(p, anchor)
	ctx := context.Background()

	h, err := a.RequestCode(ctx, phone)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = a.Confirm(ctx, h, code)
	assert.ErrorIs(t, err, verification.ErrCodeExpired)
	assert.False(t, h.Usable())

	_, err = a.Confirm(ctx, h, code)
	assert.ErrorIs(t, err, verification.ErrInvalidHandle)
}

func TestAdapter_Confirm_NilHandle(t *testing.T) {
	a := verification.NewAdapter(mock.New(code), anchor)

	_, err := a.Confirm(context.Background(), nil, code)

	assert.ErrorIs(t, err, verification.ErrInvalidHandle)
}

func TestAdapter_TeardownIsRepeatable(t *testing.T) {
	p := mock.New(code)
	a := verification.NewAdapter(p, anchor)
	ctx := context.Background()

	require.NoError(t, a.Setup(ctx))
	a.Teardown(ctx)
	a.Teardown(ctx)

	assert.False(t, a.Active())
	assert.Equal(t, 0, p.Live(anchor))
}

func TestAdapter_TeardownDuringCreationLeavesNoWidget(t *testing.T) {
	p := mock.New(code, mock.WithCreateDelay(30*time.Millisecond))
	a := verification.NewAdapter(p, anchor)

	done := make(chan error, 1)
	go func() { done <- a.Setup(context.Background()) }()

	time.Sleep(5 * time.Millisecond)
	a.Teardown(context.Background())

	err := <-done
	assert.ErrorIs(t, err, verification.ErrTornDown)
	assert.False(t, a.Active())
	assert.Equal(t, 0, p.Live(anchor))
}

func TestAdapter_DetachReleasesOnlyTheDetachedWidget(t *testing.T) {
	p := mock.New(code)
	a := verification.NewAdapter(p, anchor)
	ctx := context.Background()

	require.NoError(t, a.Setup(ctx))
	release := a.Detach()
	assert.False(t, a.Active())

	require.NoError(t, a.Setup(ctx))
	assert.Equal(t, 2, p.Live(anchor))

	release(ctx)
	assert.True(t, a.Active(), "a widget created after detaching survives the release")
	assert.Equal(t, 1, p.Live(anchor))

	a.Detach()(ctx)
	assert.Zero(t, p.Live(anchor))
}

// gatedProvider holds widget creation until release is closed.
type gatedProvider struct {
	*mock.Provider
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *gatedProvider) NewWidget(ctx context.Context, anchor string) (verification.Widget, error) {
	g.once.Do(func() { close(g.entered) })
	select {
	case <-g.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return g.Provider.NewWidget(ctx, anchor)
}

func TestAdapter_SharedCreationSurvivesFirstCallerCancel(t *testing.T) {
	p := &gatedProvider{Provider: mock.New(code), entered: make(chan struct{}), release: make(chan struct{})}
	a := verification.NewAdapter(p, anchor)

	first, cancel := context.WithCancel(context.Background())
	firstDone := make(chan error, 1)
	go func() { firstDone <- a.Setup(first) }()
	<-p.entered

	secondDone := make(chan error, 1)
	go func() { secondDone <- a.Setup(context.Background()) }()
	time.Sleep(20 * time.Millisecond)

	cancel()
	time.Sleep(10 * time.Millisecond)
	close(p.release)

	assert.NoError(t, <-firstDone)
	assert.NoError(t, <-secondDone)
	assert.True(t, a.Active())
	assert.Equal(t, 1, p.Created())
}

func TestUserError_DistinctMessages(t *testing.T) {
	errs := []error{
		verification.ErrInvalidPhoneFormat,
		verification.ErrRateLimited,
		verification.ErrChallengeFailed,
		verification.ErrProviderUnavailable,
		verification.ErrInvalidCode,
		verification.ErrCodeExpired,
		verification.ErrChallengeConsumed,
	}

	seen := make(map[string]bool)
	for _, err := range errs {
		mapped := verification.UserError(err)
		var appErr *apperrors.AppError
		require.True(t, errors.As(mapped, &appErr), "%v", err)
		assert.Equal(t, apperrors.CodeProvider, appErr.Code)
		assert.False(t, seen[appErr.Message], "duplicate message %q", appErr.Message)
		seen[appErr.Message] = true
		assert.ErrorIs(t, mapped, err)
	}
}

func TestUserError_Statuses(t *testing.T) {
	assert.Equal(t, http.StatusTooManyRequests, apperrors.HTTPStatus(verification.UserError(verification.ErrRateLimited)))
	assert.Equal(t, http.StatusServiceUnavailable, apperrors.HTTPStatus(verification.UserError(verification.ErrProviderUnavailable)))
	assert.Equal(t, http.StatusBadRequest, apperrors.HTTPStatus(verification.UserError(verification.ErrInvalidCode)))
	assert.Nil(t, verification.UserError(nil))

	other := errors.New("other")
	assert.Equal(t, other, verification.UserError(other))
}
