package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linkwise/linkwise/pkg/logger"
)

func captureSession(t *testing.T, cfg SessionCookieConfig, req *http.Request) (string, *httptest.ResponseRecorder) {
	t.Helper()
	var sid string
	h := Session(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid = SessionIDFromContext(r.Context())
		assert.Equal(t, sid, logger.SessionIDFromContext(r.Context()))
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return sid, rec
}

func TestSession_MintsCookieWhenMissing(t *testing.T) {
	sid, rec := captureSession(t, SessionCookieConfig{Name: "sid", Secure: true, MaxAge: time.Hour},
		httptest.NewRequest(http.MethodGet, "/api/v1/onboarding", nil))

	_, err := uuid.Parse(sid)
	require.NoError(t, err)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, "sid", c.Name)
	assert.Equal(t, sid, c.Value)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.Equal(t, 3600, c.MaxAge)
}

func TestSession_ReusesValidCookie(t *testing.T) {
	existing := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "lw_session", Value: existing})

	sid, rec := captureSession(t, SessionCookieConfig{}, req)

	assert.Equal(t, existing, sid)
	assert.Empty(t, rec.Result().Cookies(), "no new cookie for a known session")
}

func TestSession_ReplacesForgedCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "lw_session", Value: "../../etc/passwd"})

	sid, rec := captureSession(t, SessionCookieConfig{}, req)

	assert.NotEqual(t, "../../etc/passwd", sid)
	require.Len(t, rec.Result().Cookies(), 1)
}

func TestWithSessionID_RoundTrip(t *testing.T) {
	ctx := WithSessionID(httptest.NewRequest(http.MethodGet, "/", nil).Context(), "s-1")
	assert.Equal(t, "s-1", SessionIDFromContext(ctx))
	assert.Equal(t, "s-1", logger.SessionIDFromContext(ctx))
}

func TestNoStore_SetsHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	NoStore(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/session", nil))

	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "no-cache", rec.Header().Get("Pragma"))
}
