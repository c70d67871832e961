package onboarding

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/linkwise/linkwise/services/onboarding/internal/resume"
)

// FlowFactory builds a fresh flow for a session, including its own
// verification adapter.
type FlowFactory func(sessionID string) *Flow

// Manager owns the flows of all live browser sessions and evicts idle ones.
type Manager struct {
	factory FlowFactory
	idle    time.Duration
	logger  *slog.Logger
	now     func() time.Time

	mu    sync.Mutex
	flows map[string]*Flow
}

// NewManager creates a Manager. Flows unused for longer than idle are
// closed by Sweep.
func NewManager(factory FlowFactory, idle time.Duration, logger *slog.Logger) *Manager {
	return &Manager{
		factory: factory,
		idle:    idle,
		logger:  logger,
		now:     time.Now,
		flows:   make(map[string]*Flow),
	}
}

// Get returns the flow for sid, creating it on first use.
func (m *Manager) Get(sid string) *Flow {
	m.mu.Lock()
	defer m.mu.Unlock()

	if f, ok := m.flows[sid]; ok {
		return f
	}
	f := m.factory(sid)
	m.flows[sid] = f
	activeFlows.Set(float64(len(m.flows)))
	return f
}

// Lookup returns the flow for sid without creating one.
func (m *Manager) Lookup(sid string) (*Flow, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.flows[sid]
	return f, ok
}

// Len returns the number of live flows.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.flows)
}

// Mount parses the page URL the browser landed on, applies any LinkedIn
// redirect parameters to the session's flow and returns the URL with those
// parameters removed.
func (m *Manager) Mount(ctx context.Context, sid, rawURL string) (Snapshot, string, error) {
	d, err := resume.Parse(rawURL)
	if err != nil {
		return Snapshot{}, "", err
	}
	clean := rawURL
	if d.NeedsStrip() {
		if clean, err = resume.Strip(rawURL); err != nil {
			return Snapshot{}, "", err
		}
	}
	return m.Get(sid).Mount(ctx, d), clean, nil
}

// Remove closes and forgets the flow for sid.
func (m *Manager) Remove(ctx context.Context, sid string) {
	m.mu.Lock()
	f, ok := m.flows[sid]
	delete(m.flows, sid)
	activeFlows.Set(float64(len(m.flows)))
	m.mu.Unlock()

	if ok {
		f.Close(ctx)
	}
}

// Sweep closes flows idle for longer than the idle timeout. Flows with a
// call in flight are skipped. It returns the number of evicted flows.
func (m *Manager) Sweep(ctx context.Context) int {
	cutoff := m.now().Add(-m.idle)

	m.mu.Lock()
	var evicted []*Flow
	for sid, f := range m.flows {
		last, busy := f.IdleSince()
		if busy || last.After(cutoff) {
			continue
		}
		evicted = append(evicted, f)
		delete(m.flows, sid)
	}
	activeFlows.Set(float64(len(m.flows)))
	m.mu.Unlock()

	for _, f := range evicted {
		f.Close(ctx)
	}
	if len(evicted) > 0 {
		m.logger.DebugContext(ctx, "evicted idle onboarding flows", slog.Int("count", len(evicted)))
	}
	return len(evicted)
}

// Run sweeps every interval until ctx is cancelled, then closes every
// remaining flow.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.closeAll(context.WithoutCancel(ctx))
			return
		case <-ticker.C:
			m.Sweep(ctx)
		}
	}
}

func (m *Manager) closeAll(ctx context.Context) {
	m.mu.Lock()
	flows := m.flows
	m.flows = make(map[string]*Flow)
	activeFlows.Set(0)
	m.mu.Unlock()

	for _, f := range flows {
		f.Close(ctx)
	}
}
