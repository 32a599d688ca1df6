package postgres

import (
	"context"
	"fmt"

	"github.com/c3foc/hagrid/internal/domain"
)

func (r *Repository) AppendCountEvent(ctx context.Context, event domain.CountEvent) error {
	const stmt = `
INSERT INTO variation_count_events (id, variation_id, at, count, name, comment)
VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db(ctx).Exec(ctx, stmt,
		event.ID, event.VariationID, event.At, event.Count, event.Name, event.Comment)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("append count event: %w", err)
	}
	return nil
}

func (r *Repository) ListCountEvents(ctx context.Context) ([]domain.CountEvent, error) {
	const query = `
SELECT id, variation_id, at, count, name, comment
FROM variation_count_events
ORDER BY at, id`

	rows, err := r.db(ctx).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list count events: %w", err)
	}
	defer rows.Close()

	var out []domain.CountEvent
	for rows.Next() {
		var e domain.CountEvent
		if err := rows.Scan(&e.ID, &e.VariationID, &e.At, &e.Count, &e.Name, &e.Comment); err != nil {
			return nil, fmt.Errorf("scan count event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *Repository) AppendAvailabilityEvent(ctx context.Context, event domain.AvailabilityEvent) error {
	const stmt = `
INSERT INTO variation_availability_events (id, variation_id, at, old_state, new_state)
VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db(ctx).Exec(ctx, stmt,
		event.ID, event.VariationID, event.At, string(event.OldState), string(event.NewState))
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("append availability event: %w", err)
	}
	return nil
}

func (r *Repository) ListAvailabilityEvents(ctx context.Context) ([]domain.AvailabilityEvent, error) {
	const query = `
SELECT id, variation_id, at, old_state, new_state
FROM variation_availability_events
ORDER BY at, id`

	rows, err := r.db(ctx).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list availability events: %w", err)
	}
	defer rows.Close()

	var out []domain.AvailabilityEvent
	for rows.Next() {
		var e domain.AvailabilityEvent
		if err := rows.Scan(&e.ID, &e.VariationID, &e.At, &e.OldState, &e.NewState); err != nil {
			return nil, fmt.Errorf("scan availability event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
