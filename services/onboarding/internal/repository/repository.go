package repository

import (
	"context"

	"github.com/linkwise/linkwise/services/onboarding/internal/domain"
)

// FunnelFilter defines filter criteria for listing funnel events.
type FunnelFilter struct {
	Stage   *domain.FunnelStage
	Page    int
	PerPage int
}

// FunnelRepository defines the persistence operations for onboarding funnel events.
type FunnelRepository interface {
	// Insert stores one funnel event.
	Insert(ctx context.Context, ev *domain.FunnelEvent) error

	// List returns events matching the filter, newest first, with the total count.
	List(ctx context.Context, filter FunnelFilter) ([]domain.FunnelEvent, int, error)

	// CountByStage aggregates all events per stage and outcome.
	CountByStage(ctx context.Context) ([]domain.FunnelStageCount, error)
}
