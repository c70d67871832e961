package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/linkwise/linkwise/pkg/database"
	"github.com/linkwise/linkwise/pkg/health"
	"github.com/linkwise/linkwise/pkg/httpclient"
	pkgkafka "github.com/linkwise/linkwise/pkg/kafka"
	"github.com/linkwise/linkwise/pkg/middleware"
	"github.com/linkwise/linkwise/pkg/tracing"
	"github.com/linkwise/linkwise/services/onboarding/internal/auth"
	"github.com/linkwise/linkwise/services/onboarding/internal/backend"
	"github.com/linkwise/linkwise/services/onboarding/internal/config"
	"github.com/linkwise/linkwise/services/onboarding/internal/event"
	handler "github.com/linkwise/linkwise/services/onboarding/internal/handler/http"
	"github.com/linkwise/linkwise/services/onboarding/internal/onboarding"
	"github.com/linkwise/linkwise/services/onboarding/internal/repository"
	"github.com/linkwise/linkwise/services/onboarding/internal/repository/postgres"
	"github.com/linkwise/linkwise/services/onboarding/internal/service"
	"github.com/linkwise/linkwise/services/onboarding/internal/session"
	"github.com/linkwise/linkwise/services/onboarding/internal/upload"
	"github.com/linkwise/linkwise/services/onboarding/internal/verification"
	"github.com/linkwise/linkwise/services/onboarding/internal/verification/provider/httpapi"
	"github.com/linkwise/linkwise/services/onboarding/internal/verification/provider/mock"
	"github.com/linkwise/linkwise/services/onboarding/migrations"
)

const serviceName = "onboarding"

// operatorTokenExpiry bounds tokens issued for the operator dashboard.
const operatorTokenExpiry = 12 * time.Hour

// App wires together all dependencies and runs the onboarding service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	rdb            *redis.Client
	pool           *pgxpool.Pool
	producer       *pkgkafka.Producer
	flows          *onboarding.Manager
	stopSweep      context.CancelFunc
	sweepDone      sync.WaitGroup
	httpServer     *http.Server
	health         *health.Handler
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}

	// Initialize OpenTelemetry tracing.
	tracingCfg := cfg.Tracing
	tracingCfg.ServiceName = serviceName
	tracingCfg.ServiceVersion = "0.1.0"
	tracingCfg.Environment = cfg.Environment
	tracerShutdown, err := tracing.InitTracer(ctx, tracingCfg)
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	a.tracerShutdown = tracerShutdown

	healthHandler := health.NewHandler()
	a.health = healthHandler

	// Session key space.
	var store session.Store
	switch cfg.SessionStore {
	case config.StoreRedis:
		rdb, err := database.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		a.rdb = rdb
		store = session.NewRedisStore(rdb)
		logger.Info("connected to Redis", slog.String("addr", cfg.Redis.Addr()))
	default:
		store = session.NewMemoryStore()
		logger.Warn("using in-memory session store; sessions are lost on restart")
	}
	keeper := session.NewKeeper(store, cfg.SessionTTL, logger)
	healthHandler.RegisterCritical("session_store", keeper.Ping)

	// Funnel audit.
	var funnelRepo repository.FunnelRepository
	observers := onboarding.Observers{}
	if cfg.FunnelAuditEnabled {
		pool, err := database.NewPostgresPool(ctx, &cfg.Postgres, logger)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		a.pool = pool
		logger.Info("connected to PostgreSQL",
			slog.String("host", cfg.Postgres.Host),
			slog.Int("port", cfg.Postgres.Port),
			slog.String("database", cfg.Postgres.DBName),
		)
		if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, pool, serviceName); err != nil {
			logger.Warn("pool metrics not registered", slog.String("error", err.Error()))
		}

		if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
			a.close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		logger.Info("database migrations completed")

		database.SetSlowQueryLogging(cfg.SlowQueryThreshold, logger)

		repo := postgres.NewFunnelRepository(pool, logger)
		funnelRepo = repo
		observers = append(observers, repo)
		healthHandler.RegisterNonCritical("postgres", func(ctx context.Context) error {
			return pool.Ping(ctx)
		})
	}

	// Kafka domain events.
	var opportunityEvents service.OpportunityEvents
	if cfg.EventsEnabled {
		kafkaCfg := pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers)
		kafkaCfg.Async = true
		a.producer = pkgkafka.NewProducer(kafkaCfg, logger)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

		eventProducer := event.NewProducer(a.producer, logger)
		observers = append(observers, eventProducer)
		opportunityEvents = eventProducer
		healthHandler.RegisterNonCritical("kafka", a.producer.Ping)
	}

	// Outbound HTTP: each collaborator gets its own breaker.
	baseClient := httpclient.New(httpclient.Config{
		Timeout:         cfg.BackendTimeout,
		MaxRetries:      2,
		RetryWaitMin:    200 * time.Millisecond,
		RetryWaitMax:    2 * time.Second,
		MaxConnsPerHost: 100,
	})

	backendClient := backend.New(
		httpclient.NewCircuitBreakerClient(baseClient, httpclient.DefaultCircuitBreakerConfig("onboarding-backend"), logger),
		cfg.BackendBaseURL,
		logger,
	)
	backendClient.OnAuthExpired(keeper.ExpiryHook())

	uploadClient := upload.New(
		httpclient.NewCircuitBreakerClient(baseClient, httpclient.DefaultCircuitBreakerConfig("onboarding-upload"), logger),
		cfg.UploadURL,
		cfg.UploadMaxSize,
		logger,
	)

	provider, err := newProvider(cfg, baseClient, logger)
	if err != nil {
		a.close()
		return nil, err
	}

	// Onboarding flows, one per browser session.
	var observer onboarding.Observer = observers
	perMinute := rate.Limit(cfg.VerificationPerMin / 60)
	a.flows = onboarding.NewManager(func(sid string) *onboarding.Flow {
		return onboarding.NewFlow(sid, onboarding.Deps{
			Verifier: verification.NewAdapter(provider, "onboarding-"+sid,
				verification.WithRateLimit(perMinute, cfg.VerificationBurst),
				verification.WithLogger(logger),
			),
			Exchanger:   backendClient,
			Keeper:      keeper,
			Observer:    observer,
			Logger:      logger,
			CountryCode: cfg.DefaultCountryCode,
		})
	}, cfg.FlowIdleTimeout, logger)

	// Use cases.
	sessionService := service.NewSessionService(backendClient, keeper, a.flows, logger)
	dashboardService := service.NewDashboardService(backendClient, keeper, opportunityEvents, logger)
	adminService := service.NewAdminService(backendClient, cfg.BackendAdminToken, funnelRepo, logger)

	operatorTokens := auth.NewOperatorTokens(cfg.OperatorJWTSecret, operatorTokenExpiry)

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.CORSAllowedOrigins
	corsCfg.Environment = cfg.Environment
	corsCfg.AllowCredentials = true

	// HTTP router.
	router := handler.NewRouter(handler.RouterConfig{
		Flows:          a.flows,
		Uploads:        uploadClient,
		MaxUpload:      cfg.UploadMaxSize,
		Sessions:       sessionService,
		Dashboard:      dashboardService,
		Admin:          adminService,
		OperatorTokens: operatorTokens.Validate,
		Health:         healthHandler,
		Cookie: middleware.SessionCookieConfig{
			Name:   cfg.SessionCookieName,
			Secure: cfg.SessionCookieSecure,
			MaxAge: cfg.SessionTTL,
		},
		CORS:        corsCfg,
		PprofCIDRs:  cfg.PprofAllowedCIDRs,
		ServiceName: serviceName,
	}, logger)

	a.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 45 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return a, nil
}

// newProvider builds the configured SMS verification provider.
func newProvider(cfg *config.Config, base httpclient.Doer, logger *slog.Logger) (verification.Provider, error) {
	switch cfg.VerificationProvider {
	case config.ProviderMock:
		logger.Warn("using mock verification provider; codes are not delivered by SMS")
		return mock.New(cfg.VerificationMockCode, mock.WithTTL(cfg.VerificationCodeTTL)), nil
	case config.ProviderHTTP:
		cb := httpclient.NewCircuitBreakerClient(base, httpclient.DefaultCircuitBreakerConfig("onboarding-verification"), logger)
		return httpapi.New(cb, httpapi.Config{
			BaseURL: cfg.VerificationBaseURL,
			APIKey:  cfg.VerificationAPIKey,
		}, logger), nil
	}
	return nil, fmt.Errorf("unknown verification provider %q", cfg.VerificationProvider)
}

// Run starts the HTTP server and the idle-flow sweeper, and blocks until the
// context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	a.stopSweep = stopSweep
	a.sweepDone.Add(1)
	go func() {
		defer a.sweepDone.Done()
		a.flows.Run(sweepCtx, a.cfg.FlowSweepInterval)
	}()

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		_ = a.Shutdown()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components. Live flows are torn down after
// the server stops taking requests and before the clients are closed.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")
	if a.health != nil {
		a.health.SetDraining()
	}

	// Graceful HTTP server shutdown with a 10-second deadline.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	if a.stopSweep != nil {
		a.stopSweep()
		a.sweepDone.Wait()
	}

	a.close()
	a.logger.Info("application shutdown complete")
	return nil
}

// close releases every client opened so far. Safe on a partly built App.
func (a *App) close() {
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
		}
	}
	if a.tracerShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.tracerShutdown(ctx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
		}
	}
}
