package postgres

import (
	"context"
	"fmt"

	"github.com/c3foc/hagrid/internal/domain"
)

func (r *Repository) ListStatusChanges(ctx context.Context) ([]domain.StatusChange, error) {
	const query = `
SELECT id, at, mode, comment, public_info
FROM status_changes
ORDER BY at, id`

	rows, err := r.db(ctx).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list status changes: %w", err)
	}
	defer rows.Close()

	var out []domain.StatusChange
	for rows.Next() {
		var c domain.StatusChange
		if err := rows.Scan(&c.ID, &c.At, &c.Mode, &c.Comment, &c.PublicInfo); err != nil {
			return nil, fmt.Errorf("scan status change: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repository) AppendStatusChange(ctx context.Context, change domain.StatusChange) error {
	const stmt = `
INSERT INTO status_changes (id, at, mode, comment, public_info)
VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db(ctx).Exec(ctx, stmt,
		change.ID, change.At, string(change.Mode), change.Comment, change.PublicInfo)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("append status change: %w", err)
	}
	return nil
}
