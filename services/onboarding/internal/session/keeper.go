// Package session owns the bearer token and theme preference of each
// browser session. Every token mutation goes through Keeper.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/linkwise/linkwise/pkg/middleware"
	"github.com/linkwise/linkwise/services/onboarding/internal/domain"
)

// Keeper is the single ownership point for session tokens.
type Keeper struct {
	store  Store
	ttl    time.Duration
	logger *slog.Logger
}

// NewKeeper creates a keeper. ttl bounds how long a token is kept.
func NewKeeper(store Store, ttl time.Duration, logger *slog.Logger) *Keeper {
	return &Keeper{store: store, ttl: ttl, logger: logger}
}

// Token returns the session's bearer token, or "" when logged out.
func (k *Keeper) Token(ctx context.Context, sid string) (string, error) {
	v, err := k.store.Get(ctx, sid, KeyAuthToken)
	if errors.Is(err, ErrMissing) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load token: %w", err)
	}
	return v, nil
}

// SetToken records the token obtained by a login.
func (k *Keeper) SetToken(ctx context.Context, sid, token string) error {
	if sid == "" {
		return fmt.Errorf("set token: empty session id")
	}
	if err := k.store.Set(ctx, sid, KeyAuthToken, token, k.ttl); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	return nil
}

// Logout forgets the session's token unconditionally.
func (k *Keeper) Logout(ctx context.Context, sid string) error {
	if err := k.store.Delete(ctx, sid, KeyAuthToken); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// Purge forgets token only if it is still the session's current token, so
// a 401 for an old token never erases a newer login.
func (k *Keeper) Purge(ctx context.Context, sid, token string) (bool, error) {
	ok, err := k.store.CompareAndDelete(ctx, sid, KeyAuthToken, token)
	if err != nil {
		return false, fmt.Errorf("purge token: %w", err)
	}
	return ok, nil
}

// ExpiryHook returns the global 401 handler. The session is taken from ctx.
func (k *Keeper) ExpiryHook() func(ctx context.Context, token string) {
	return func(ctx context.Context, token string) {
		sid := middleware.SessionIDFromContext(ctx)
		if sid == "" {
			return
		}
		purged, err := k.Purge(context.WithoutCancel(ctx), sid, token)
		if err != nil {
			k.logger.ErrorContext(ctx, "failed to purge expired token", slog.String("error", err.Error()))
			return
		}
		if purged {
			k.logger.InfoContext(ctx, "purged expired session token")
		}
	}
}

// Theme returns the stored theme, defaulting to light.
func (k *Keeper) Theme(ctx context.Context, sid string) (domain.Theme, error) {
	v, err := k.store.Get(ctx, sid, KeyTheme)
	if errors.Is(err, ErrMissing) {
		return domain.ThemeLight, nil
	}
	if err != nil {
		return "", fmt.Errorf("load theme: %w", err)
	}
	if t := domain.Theme(v); t.Valid() {
		return t, nil
	}
	return domain.ThemeLight, nil
}

// SetTheme stores the theme preference. It is kept across logouts.
func (k *Keeper) SetTheme(ctx context.Context, sid string, t domain.Theme) error {
	if !t.Valid() {
		return fmt.Errorf("set theme: invalid theme %q", t)
	}
	if err := k.store.Set(ctx, sid, KeyTheme, string(t), 0); err != nil {
		return fmt.Errorf("store theme: %w", err)
	}
	return nil
}

// Ping checks the backing store.
func (k *Keeper) Ping(ctx context.Context) error {
	return k.store.Ping(ctx)
}
