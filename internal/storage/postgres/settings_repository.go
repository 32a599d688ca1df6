package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/c3foc/hagrid/internal/domain"
)

// StoreSettings reads the singleton settings row. A missing row means
// counting has never been enabled.
func (r *Repository) StoreSettings(ctx context.Context) (domain.StoreSettings, error) {
	var s domain.StoreSettings
	err := r.db(ctx).QueryRow(ctx,
		`SELECT counting_enabled FROM store_settings WHERE id = 1`).
		Scan(&s.CountingEnabled)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.StoreSettings{}, nil
		}
		return domain.StoreSettings{}, fmt.Errorf("load store settings: %w", err)
	}
	return s, nil
}

func (r *Repository) SetCountingEnabled(ctx context.Context, enabled bool) error {
	_, err := r.db(ctx).Exec(ctx, `
INSERT INTO store_settings (id, counting_enabled)
VALUES (1, $1)
ON CONFLICT (id) DO UPDATE SET counting_enabled = EXCLUDED.counting_enabled`, enabled)
	if err != nil {
		return fmt.Errorf("set counting enabled: %w", err)
	}
	return nil
}
