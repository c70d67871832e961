package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/linkwise/linkwise/pkg/database"
	"github.com/linkwise/linkwise/pkg/pagination"
	"github.com/linkwise/linkwise/services/onboarding/internal/domain"
	"github.com/linkwise/linkwise/services/onboarding/internal/repository"
)

const (
	insertFunnelEventSQL = `
		INSERT INTO onboarding_funnel_events (id, session_id, user_id, stage, outcome, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	countFunnelEventsSQL = `SELECT COUNT(*) FROM onboarding_funnel_events`

	listFunnelEventsSQL = `
		SELECT id, session_id, user_id, stage, outcome, detail, created_at
		FROM onboarding_funnel_events`

	countByStageSQL = `
		SELECT stage, outcome, COUNT(*)
		FROM onboarding_funnel_events
		GROUP BY stage, outcome
		ORDER BY stage, outcome`
)

// FunnelRepository implements repository.FunnelRepository using PostgreSQL.
type FunnelRepository struct {
	pool   database.DBTX
	logger *slog.Logger
}

// NewFunnelRepository creates a new PostgreSQL-backed funnel repository.
func NewFunnelRepository(pool database.DBTX, logger *slog.Logger) *FunnelRepository {
	return &FunnelRepository{pool: pool, logger: logger}
}

// Insert stores one funnel event, assigning an id and timestamp when missing.
func (r *FunnelRepository) Insert(ctx context.Context, ev *domain.FunnelEvent) (err error) {
	ctx, end := database.TraceQuery(ctx, "InsertFunnelEvent", insertFunnelEventSQL)
	defer func() { end(err) }()

	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}

	_, err = r.pool.Exec(ctx, insertFunnelEventSQL,
		ev.ID,
		ev.SessionID,
		ev.UserID,
		string(ev.Stage),
		ev.Outcome,
		ev.Detail,
		ev.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert funnel event: %w", err)
	}
	return nil
}

// List returns funnel events matching the filter, newest first.
func (r *FunnelRepository) List(ctx context.Context, filter repository.FunnelFilter) (events []domain.FunnelEvent, total int, err error) {
	where := ""
	var args []any
	if filter.Stage != nil {
		where = " WHERE stage = $1"
		args = append(args, string(*filter.Stage))
	}

	ctx, end := database.TraceQuery(ctx, "ListFunnelEvents", listFunnelEventsSQL)
	defer func() { end(err) }()

	if err = r.pool.QueryRow(ctx, countFunnelEventsSQL+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count funnel events: %w", err)
	}

	page := pagination.Params{Page: filter.Page, PerPage: filter.PerPage}.Normalize()

	query := fmt.Sprintf("%s%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		listFunnelEventsSQL, where, len(args)+1, len(args)+2)
	args = append(args, page.PerPage, page.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list funnel events: %w", err)
	}
	defer rows.Close()

	events = make([]domain.FunnelEvent, 0, page.PerPage)
	for rows.Next() {
		var (
			ev    domain.FunnelEvent
			stage string
		)
		if err = rows.Scan(&ev.ID, &ev.SessionID, &ev.UserID, &stage, &ev.Outcome, &ev.Detail, &ev.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan funnel event: %w", err)
		}
		ev.Stage = domain.FunnelStage(stage)
		events = append(events, ev)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate funnel events: %w", err)
	}

	return events, total, nil
}

// CountByStage aggregates all events per stage and outcome.
func (r *FunnelRepository) CountByStage(ctx context.Context) (counts []domain.FunnelStageCount, err error) {
	ctx, end := database.TraceQuery(ctx, "CountFunnelByStage", countByStageSQL)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, countByStageSQL)
	if err != nil {
		return nil, fmt.Errorf("count funnel by stage: %w", err)
	}

	counts, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.FunnelStageCount, error) {
		var (
			c     domain.FunnelStageCount
			stage string
		)
		err := row.Scan(&stage, &c.Outcome, &c.Count)
		c.Stage = domain.FunnelStage(stage)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan funnel counts: %w", err)
	}
	return counts, nil
}

// Observe records ev. Failures are logged and never reach the caller.
func (r *FunnelRepository) Observe(ctx context.Context, ev domain.FunnelEvent) {
	if err := r.Insert(context.WithoutCancel(ctx), &ev); err != nil {
		r.logger.ErrorContext(ctx, "failed to record funnel event",
			slog.String("stage", string(ev.Stage)),
			slog.String("error", err.Error()),
		)
	}
}
