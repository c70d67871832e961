package onboarding

import (
	"context"

	"github.com/linkwise/linkwise/services/onboarding/internal/domain"
)

// Observer receives funnel events. Implementations must not block for long
// and must never fail the caller.
type Observer interface {
	Observe(ctx context.Context, ev domain.FunnelEvent)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, ev domain.FunnelEvent)

func (f ObserverFunc) Observe(ctx context.Context, ev domain.FunnelEvent) { f(ctx, ev) }

// Observers fans one event out to several observers.
type Observers []Observer

func (o Observers) Observe(ctx context.Context, ev domain.FunnelEvent) {
	for _, obs := range o {
		if obs != nil {
			obs.Observe(ctx, ev)
		}
	}
}

type nopObserver struct{}

func (nopObserver) Observe(context.Context, domain.FunnelEvent) {}
