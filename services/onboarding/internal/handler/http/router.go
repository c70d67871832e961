package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/linkwise/linkwise/pkg/health"
	"github.com/linkwise/linkwise/pkg/middleware"
	"github.com/linkwise/linkwise/services/onboarding/internal/auth"
	"github.com/linkwise/linkwise/services/onboarding/internal/onboarding"
	"github.com/linkwise/linkwise/services/onboarding/internal/service"
)

// RouterConfig carries everything the router mounts.
type RouterConfig struct {
	Flows     *onboarding.Manager
	Uploads   Uploader
	MaxUpload int64

	Sessions  *service.SessionService
	Dashboard *service.DashboardService
	Admin     *service.AdminService

	// OperatorTokens validates bearer tokens on the operator routes.
	OperatorTokens middleware.TokenValidator

	Health      *health.Handler
	Cookie      middleware.SessionCookieConfig
	CORS        middleware.CORSConfig
	PprofCIDRs  []string
	ServiceName string
}

// NewRouter creates a chi router with all onboarding service routes registered.
func NewRouter(cfg RouterConfig, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(cfg.ServiceName))
	r.Use(middleware.Tracing(cfg.ServiceName))
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", cfg.Health.LivenessHandler())
	r.Get("/health/ready", cfg.Health.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Pprof debug endpoints with IP allowlist.
	middleware.RegisterPprof(r, cfg.PprofCIDRs, logger)

	onboardingHandler := NewOnboardingHandler(cfg.Flows, cfg.Uploads, cfg.MaxUpload, logger)
	sessionHandler := NewSessionHandler(cfg.Sessions, logger)
	dashboardHandler := NewDashboardHandler(cfg.Dashboard, logger)
	adminHandler := NewAdminHandler(cfg.Admin, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.NoStore)

		// Browser routes are keyed by the session cookie.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Session(cfg.Cookie))

			r.Route("/onboarding", func(r chi.Router) {
				r.Post("/photo", onboardingHandler.UploadPhoto)

				r.Group(func(r chi.Router) {
					r.Use(ContentTypeJSON)

					r.Get("/", onboardingHandler.Get)
					r.Delete("/", onboardingHandler.Reset)
					r.Post("/mount", onboardingHandler.Mount)
					r.Post("/phone", onboardingHandler.SubmitPhone)
					r.Post("/code", onboardingHandler.SubmitCode)
					r.Post("/back", onboardingHandler.Back)
					r.Post("/profile", onboardingHandler.SaveProfile)
					r.Put("/profile/draft", onboardingHandler.SaveDraft)
				})
			})

			r.Get("/auth/linkedin", sessionHandler.LinkedIn)

			r.Group(func(r chi.Router) {
				r.Use(ContentTypeJSON)

				r.Get("/session", sessionHandler.Restore)
				r.Delete("/session", sessionHandler.Logout)
				r.Get("/preferences/theme", sessionHandler.Theme)
				r.Put("/preferences/theme", sessionHandler.SetTheme)

				r.Get("/requests", dashboardHandler.ListRequests)
				r.Post("/requests", dashboardHandler.CreateRequest)
				r.Get("/requests/{id}/matches", dashboardHandler.ListMatches)
				r.Post("/matches/{id}/{action}", dashboardHandler.MatchAction)
				r.Get("/opportunities", dashboardHandler.ListOpportunities)
				r.Post("/opportunities/{id}/{action}", dashboardHandler.OpportunityAction)
				r.Get("/connections", dashboardHandler.ListConnections)
			})
		})

		// Operator routes authenticate with a bearer token, not the cookie.
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.Auth(cfg.OperatorTokens))
			r.Use(middleware.RequireRole(auth.RoleOperator))
			r.Use(ContentTypeJSON)

			r.Get("/outreach", adminHandler.ListOutreach)
			r.Post("/outreach", adminHandler.CreateOutreach)
			r.Get("/outreach/{id}", adminHandler.GetOutreach)
			r.Patch("/outreach/{id}", adminHandler.UpdateOutreachStatus)
			r.Get("/funnel", adminHandler.Funnel)
		})
	})

	return r
}
