package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

const appOrigin = "https://app.linkwise.example"

func corsResponse(cfg CORSConfig, method, origin string) *httptest.ResponseRecorder {
	h := CORS(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(method, "/api/v1/onboarding", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCORS_AllowOrigin(t *testing.T) {
	prod := CORSConfig{AllowedOrigins: []string{appOrigin, "https://admin.linkwise.example"}, Environment: "production"}

	tests := []struct {
		name   string
		cfg    CORSConfig
		origin string
		want   string
		vary   bool
	}{
		{"listed origin echoed", prod, appOrigin, appOrigin, true},
		{"second listed origin", prod, "https://admin.linkwise.example", "https://admin.linkwise.example", true},
		{"unlisted origin gets nothing", prod, "https://evil.example", "", false},
		{"no origin header", prod, "", "", false},
		{"development is wildcard", CORSConfig{Environment: "development"}, appOrigin, "*", false},
		{"wildcard in list", CORSConfig{AllowedOrigins: []string{"*"}, Environment: "production"}, "https://any.example", "*", false},
		{
			"credentialed wildcard echoes origin",
			CORSConfig{AllowedOrigins: []string{"*"}, AllowCredentials: true},
			appOrigin, appOrigin, true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := corsResponse(tc.cfg, http.MethodGet, tc.origin)
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tc.want, rec.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, tc.vary, rec.Header().Get("Vary") == "Origin")
		})
	}
}

func TestCORS_PreflightShortCircuits(t *testing.T) {
	rec := corsResponse(CORSConfig{AllowedOrigins: []string{appOrigin}}, http.MethodOptions, appOrigin)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "GET, POST, PUT, PATCH, DELETE, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "3600", rec.Header().Get("Access-Control-Max-Age"))
}

func TestCORS_DefaultHeaders(t *testing.T) {
	rec := corsResponse(CORSConfig{AllowedOrigins: []string{appOrigin}}, http.MethodGet, appOrigin)

	allowed := rec.Header().Get("Access-Control-Allow-Headers")
	for _, h := range []string{"Authorization", "Content-Type", CorrelationIDHeader, "X-Current-Path"} {
		assert.Contains(t, allowed, h)
	}
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORS_CustomSettings(t *testing.T) {
	cfg := CORSConfig{
		AllowedOrigins:   []string{appOrigin},
		AllowedMethods:   []string{"GET"},
		ExposedHeaders:   []string{CorrelationIDHeader},
		MaxAge:           600,
		AllowCredentials: true,
	}
	rec := corsResponse(cfg, http.MethodGet, appOrigin)

	assert.Equal(t, "GET", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, CorrelationIDHeader, rec.Header().Get("Access-Control-Expose-Headers"))
	assert.Equal(t, "600", rec.Header().Get("Access-Control-Max-Age"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestDefaultCORSConfig(t *testing.T) {
	cfg := DefaultCORSConfig()
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Equal(t, "development", cfg.Environment)
	assert.Contains(t, cfg.AllowedHeaders, "X-Current-Path")
}
