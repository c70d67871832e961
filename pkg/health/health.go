// Package health serves liveness and readiness endpoints over named dependency
// checks.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/errgroup"
)

// Checker reports whether one dependency is reachable.
type Checker func(ctx context.Context) error

// Status is the state of the service or of one dependency.
type Status string

const (
	StatusUp       Status = "up"
	StatusDown     Status = "down"
	StatusDegraded Status = "degraded"
	StatusDraining Status = "draining"
)

// Response is the health endpoint body.
type Response struct {
	Status    Status                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

// CheckResult is the outcome of one dependency check.
type CheckResult struct {
	Status    Status `json:"status"`
	Critical  bool   `json:"critical"`
	LatencyMS int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

var dependencyUp = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: "linkwise",
		Subsystem: "health",
		Name:      "dependency_up",
		Help:      "1 when the last readiness check of a dependency passed.",
	},
	[]string{"dependency"},
)

type registration struct {
	check    Checker
	critical bool
}

// Handler owns the registered checks.
//
// A failing critical dependency makes the service unready (503). A failing
// non-critical one only degrades it: requests are still served and the side
// effects that need it are skipped.
type Handler struct {
	mu       sync.RWMutex
	checkers map[string]registration
	timeout  time.Duration
	draining atomic.Bool
}

// NewHandler returns a Handler with a five second check budget.
func NewHandler() *Handler {
	return &Handler{
		checkers: make(map[string]registration),
		timeout:  5 * time.Second,
	}
}

// Register is RegisterCritical.
func (h *Handler) Register(name string, checker Checker) {
	h.RegisterCritical(name, checker)
}

// RegisterCritical adds a check whose failure makes the service unready.
func (h *Handler) RegisterCritical(name string, checker Checker) {
	h.register(name, checker, true)
}

// RegisterNonCritical adds a check whose failure only degrades the service.
func (h *Handler) RegisterNonCritical(name string, checker Checker) {
	h.register(name, checker, false)
}

func (h *Handler) register(name string, checker Checker, critical bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checkers[name] = registration{check: checker, critical: critical}
}

// SetDraining makes readiness fail from now on so the load balancer stops
// routing here while in-flight requests finish.
func (h *Handler) SetDraining() {
	h.draining.Store(true)
}

// LivenessHandler answers 200 while the process is running.
func (h *Handler) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeResponse(w, http.StatusOK, Response{Status: StatusUp, Timestamp: time.Now().UTC()})
	}
}

// ReadinessHandler runs every check concurrently and answers 200 when up or
// degraded, 503 when a critical dependency is down or the service is draining.
func (h *Handler) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.draining.Load() {
			writeResponse(w, http.StatusServiceUnavailable, Response{Status: StatusDraining, Timestamp: time.Now().UTC()})
			return
		}

		checks := h.runChecks(r.Context())
		overall := summarize(checks)

		code := http.StatusOK
		if overall == StatusDown {
			code = http.StatusServiceUnavailable
		}
		writeResponse(w, code, Response{Status: overall, Timestamp: time.Now().UTC(), Checks: checks})
	}
}

func (h *Handler) runChecks(ctx context.Context) map[string]CheckResult {
	h.mu.RLock()
	regs := make(map[string]registration, len(h.checkers))
	for name, reg := range h.checkers {
		regs[name] = reg
	}
	h.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	var (
		mu      sync.Mutex
		results = make(map[string]CheckResult, len(regs))
		g       errgroup.Group
	)
	for name, reg := range regs {
		g.Go(func() error {
			start := time.Now()
			err := reg.check(ctx)
			res := CheckResult{Status: StatusUp, Critical: reg.critical, LatencyMS: time.Since(start).Milliseconds()}
			up := 1.0
			if err != nil {
				res.Status, res.Error, up = StatusDown, err.Error(), 0
			}
			dependencyUp.WithLabelValues(name).Set(up)

			mu.Lock()
			results[name] = res
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func summarize(checks map[string]CheckResult) Status {
	overall := StatusUp
	for _, res := range checks {
		if res.Status != StatusDown {
			continue
		}
		if res.Critical {
			return StatusDown
		}
		overall = StatusDegraded
	}
	return overall
}

func writeResponse(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
