package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmehdipour/api-portal/internal/model"
	"github.com/jmoiron/sqlx"
)

// UsageEventsRepository stores usage events in ClickHouse and aggregates them.
type UsageEventsRepository interface {
	InsertBatch(ctx context.Context, events []model.UsageEvent) error
	MethodCounts(ctx context.Context, from, to time.Time, clientID string) ([]model.MethodCount, error)
}

type chUsageRepository struct {
	ch *sqlx.DB // ClickHouse connection
}

func NewCHUsageRepository(ch *sqlx.DB) UsageEventsRepository {
	return &chUsageRepository{ch: ch}
}

// InsertBatch sends all events as a single ClickHouse block (prepare + exec per row + commit).
func (r *chUsageRepository) InsertBatch(ctx context.Context, events []model.UsageEvent) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := r.ch.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO usage_events (id, client_id, api_id, method, occurred_at)`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}
	defer stmt.Close()

	for _, ev := range events {
		if _, err := stmt.ExecContext(ctx, ev.ID, ev.ClientID, ev.APIID, ev.Method, ev.OccurredAt.UTC()); err != nil {
			return fmt.Errorf("append event %s: %w", ev.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// MethodCounts aggregates traffic per method in [from, to]. An empty
// clientID aggregates over all clients.
func (r *chUsageRepository) MethodCounts(ctx context.Context, from, to time.Time, clientID string) ([]model.MethodCount, error) {
	q := `
		SELECT method, count() AS traffic
		FROM usage_events FINAL
		WHERE occurred_at >= ? AND occurred_at <= ?
	`
	args := []any{from.UTC(), to.UTC()}

	if clientID != "" {
		q += " AND client_id = ?"
		args = append(args, clientID)
	}
	q += " GROUP BY method ORDER BY method"

	var rows []model.MethodCount
	if err := r.ch.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, err
	}
	return rows, nil
}
