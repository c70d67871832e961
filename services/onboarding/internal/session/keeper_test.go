package session

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linkwise/linkwise/pkg/middleware"
	"github.com/linkwise/linkwise/services/onboarding/internal/domain"
)

const sid = "6f1c8d4e-5b1a-4c7e-9a2b-1d3e5f7a9b0c"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client), mr
}

func stores(t *testing.T) map[string]Store {
	rs, _ := newRedisStore(t)
	return map[string]Store{
		"memory": NewMemoryStore(),
		"redis":  rs,
	}
}

func TestKeeper_TokenLifecycle(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			k := NewKeeper(store, time.Hour, testLogger())
			ctx := context.Background()

			tok, err := k.Token(ctx, sid)
			require.NoError(t, err)
			assert.Empty(t, tok)

			require.NoError(t, k.SetToken(ctx, sid, "tok-1"))
			tok, err = k.Token(ctx, sid)
			require.NoError(t, err)
			assert.Equal(t, "tok-1", tok)

			require.NoError(t, k.Logout(ctx, sid))
			tok, err = k.Token(ctx, sid)
			require.NoError(t, err)
			assert.Empty(t, tok)
		})
	}
}

func TestKeeper_PurgeDoesNotEraseNewerLogin(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			k := NewKeeper(store, time.Hour, testLogger())
			ctx := context.Background()

			require.NoError(t, k.SetToken(ctx, sid, "old"))
			require.NoError(t, k.SetToken(ctx, sid, "new"))

			purged, err := k.Purge(ctx, sid, "old")
			require.NoError(t, err)
			assert.False(t, purged)

			tok, err := k.Token(ctx, sid)
			require.NoError(t, err)
			assert.Equal(t, "new", tok)

			purged, err = k.Purge(ctx, sid, "new")
			require.NoError(t, err)
			assert.True(t, purged)

			tok, err = k.Token(ctx, sid)
			require.NoError(t, err)
			assert.Empty(t, tok)
		})
	}
}

func TestKeeper_ExpiryHookUsesSessionFromContext(t *testing.T) {
	k := NewKeeper(NewMemoryStore(), time.Hour, testLogger())
	ctx := middleware.WithSessionID(context.Background(), sid)
	require.NoError(t, k.SetToken(ctx, sid, "tok"))

	k.ExpiryHook()(ctx, "tok")

	tok, err := k.Token(ctx, sid)
	require.NoError(t, err)
	assert.Empty(t, tok)
}

func TestKeeper_ExpiryHookWithoutSessionIsNoop(t *testing.T) {
	k := NewKeeper(NewMemoryStore(), time.Hour, testLogger())
	ctx := context.Background()
	require.NoError(t, k.SetToken(ctx, sid, "tok"))

	k.ExpiryHook()(ctx, "tok")

	tok, err := k.Token(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, "tok", tok)
}

func TestKeeper_SetTokenRequiresSession(t *testing.T) {
	k := NewKeeper(NewMemoryStore(), time.Hour, testLogger())
	assert.Error(t, k.SetToken(context.Background(), "", "tok"))
}

func TestKeeper_Theme(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			k := NewKeeper(store, time.Hour, testLogger())
			ctx := context.Background()

			th, err := k.Theme(ctx, sid)
			require.NoError(t, err)
			assert.Equal(t, domain.ThemeLight, th)

			require.NoError(t, k.SetTheme(ctx, sid, domain.ThemeDark))
			require.NoError(t, k.SetToken(ctx, sid, "tok"))
			require.NoError(t, k.Logout(ctx, sid))

			th, err = k.Theme(ctx, sid)
			require.NoError(t, err)
			assert.Equal(t, domain.ThemeDark, th, "theme survives logout")

			assert.Error(t, k.SetTheme(ctx, sid, domain.Theme("neon")))
		})
	}
}

func TestRedisStore_TokenExpires(t *testing.T) {
	rs, mr := newRedisStore(t)
	k := NewKeeper(rs, time.Minute, testLogger())
	ctx := context.Background()

	require.NoError(t, k.SetToken(ctx, sid, "tok"))
	assert.True(t, mr.Exists(keyPrefix+sid+":"+KeyAuthToken))

	mr.FastForward(2 * time.Minute)

	tok, err := k.Token(ctx, sid)
	require.NoError(t, err)
	assert.Empty(t, tok)
}

func TestRedisStore_PingFailsWhenDown(t *testing.T) {
	rs, mr := newRedisStore(t)
	require.NoError(t, rs.Ping(context.Background()))

	mr.Close()

	assert.Error(t, rs.Ping(context.Background()))
}

func TestMemoryStore_Expiry(t *testing.T) {
	s := NewMemoryStore()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, sid, KeyAuthToken, "tok", time.Minute))
	now = now.Add(time.Minute)

	_, err := s.Get(ctx, sid, KeyAuthToken)
	assert.ErrorIs(t, err, ErrMissing)

	ok, err := s.CompareAndDelete(ctx, sid, KeyAuthToken, "tok")
	require.NoError(t, err)
	assert.False(t, ok)
}
