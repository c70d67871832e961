package middleware

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestIPAllowlist(t *testing.T) {
	tests := []struct {
		name   string
		cidrs  []string
		remote string
		want   int
	}{
		{"loopback allowed", []string{"127.0.0.0/8"}, "127.0.0.1:5000", http.StatusOK},
		{"private range allowed", []string{"10.0.0.0/8", "192.168.0.0/16"}, "192.168.4.2:5000", http.StatusOK},
		{"public address denied", []string{"10.0.0.0/8", "192.168.0.0/16"}, "8.8.8.8:5000", http.StatusForbidden},
		{"ipv6 loopback", []string{"::1/128"}, "[::1]:5000", http.StatusOK},
		{"ipv4-mapped ipv6", []string{"127.0.0.0/8"}, "[::ffff:127.0.0.1]:5000", http.StatusOK},
		{"remote without port", []string{"127.0.0.0/8"}, "127.0.0.1", http.StatusOK},
		{"garbage remote", []string{"127.0.0.0/8"}, "not-an-ip", http.StatusForbidden},
		{"bad cidr skipped", []string{"nope", "127.0.0.0/8"}, "127.0.0.1:5000", http.StatusOK},
		{"empty list denies", nil, "127.0.0.1:5000", http.StatusForbidden},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := IPAllowlist(tc.cidrs, discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
			req := httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil)
			req.RemoteAddr = tc.remote
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestIPAllowlist_DeniedBodyIsErrorEnvelope(t *testing.T) {
	h := IPAllowlist([]string{"10.0.0.0/8"}, discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	req := httptest.NewRequest(http.MethodGet, "/debug/pprof/heap", nil)
	req.RemoteAddr = "203.0.113.9:443"
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "FORBIDDEN", body.Error.Code)
}

func TestRegisterPprof(t *testing.T) {
	r := chi.NewRouter()
	RegisterPprof(r, []string{"127.0.0.0/8"}, discardLogger())

	get := func(remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	ok := get("127.0.0.1:1234")
	assert.Equal(t, http.StatusOK, ok.Code)
	assert.Contains(t, ok.Body.String(), "goroutine")

	assert.Equal(t, http.StatusForbidden, get("198.51.100.7:1234").Code)
}
