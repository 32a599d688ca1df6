package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/c3foc/hagrid/internal/domain"
)

// FindAccessCode resolves a counter's code. Unknown and disabled codes are
// indistinguishable to the caller.
func (r *Repository) FindAccessCode(ctx context.Context, code string) (domain.AccessCode, error) {
	const query = `
SELECT id, code, name, disabled, as_queue
FROM access_codes
WHERE code = $1 AND NOT disabled`

	var ac domain.AccessCode
	err := r.db(ctx).QueryRow(ctx, query, code).
		Scan(&ac.ID, &ac.Code, &ac.Name, &ac.Disabled, &ac.AsQueue)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.AccessCode{}, domain.ErrAccessCodeNotFound
		}
		return domain.AccessCode{}, fmt.Errorf("find access code: %w", err)
	}

	scope, err := r.loadScope(ctx, ac.ID)
	if err != nil {
		return domain.AccessCode{}, err
	}
	ac.Scope = scope
	return ac, nil
}

func (r *Repository) loadScope(ctx context.Context, accessCodeID string) (domain.Scope, error) {
	const query = `
SELECT
  COALESCE((SELECT array_agg(product_id::text) FROM access_code_products WHERE access_code_id = $1), '{}'),
  COALESCE((SELECT array_agg(size_group_id::text) FROM access_code_size_groups WHERE access_code_id = $1), '{}'),
  COALESCE((SELECT array_agg(size_id::text) FROM access_code_sizes WHERE access_code_id = $1), '{}')`

	var scope domain.Scope
	err := r.db(ctx).QueryRow(ctx, query, accessCodeID).
		Scan(&scope.ProductIDs, &scope.SizeGroupIDs, &scope.SizeIDs)
	if err != nil {
		return domain.Scope{}, fmt.Errorf("load access code scope: %w", err)
	}
	return scope, nil
}

// CreateAccessCode stores a new code with its scope links.
func (r *Repository) CreateAccessCode(ctx context.Context, ac domain.AccessCode) error {
	return withTx(ctx, r.pool, func(txCtx context.Context) error {
		_, err := r.db(txCtx).Exec(txCtx, `
INSERT INTO access_codes (id, code, name, disabled, as_queue)
VALUES ($1, $2, $3, $4, $5)`,
			ac.ID, ac.Code, ac.Name, ac.Disabled, ac.AsQueue)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("access code %q already exists", ac.Code)
			}
			if isInvalidUUID(err) {
				return domain.ErrInvalidID
			}
			return fmt.Errorf("create access code: %w", err)
		}

		links := []struct {
			stmt string
			ids  []string
		}{
			{`INSERT INTO access_code_products (access_code_id, product_id) VALUES ($1, $2)`, ac.Scope.ProductIDs},
			{`INSERT INTO access_code_size_groups (access_code_id, size_group_id) VALUES ($1, $2)`, ac.Scope.SizeGroupIDs},
			{`INSERT INTO access_code_sizes (access_code_id, size_id) VALUES ($1, $2)`, ac.Scope.SizeIDs},
		}
		for _, link := range links {
			for _, id := range link.ids {
				if _, err := r.db(txCtx).Exec(txCtx, link.stmt, ac.ID, id); err != nil {
					if isInvalidUUID(err) {
						return domain.ErrInvalidID
					}
					return fmt.Errorf("link access code scope: %w", err)
				}
			}
		}
		return nil
	})
}
