package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/c3foc/hagrid/internal/domain"
)

const variationColumns = `
v.id, v.product_id, v.size_id, v.initial_amount, v.count, v.counted_at,
v.count_reserved_until, v.count_disabled_until, v.count_disabled_reason,
v.count_prio_bumped, v.count_version, v.availability, p.name, s.name`

const variationJoins = `
FROM variations v
JOIN products p ON p.id = v.product_id
JOIN sizes s ON s.id = v.size_id
JOIN size_groups sg ON sg.id = s.size_group_id
LEFT JOIN product_groups pg ON pg.id = p.product_group_id`

// catalogOrder is the stable "original catalog order" used for listings and
// for ranking tie-breaks.
const catalogOrder = `
ORDER BY COALESCE(pg.position, 0), p.position, sg.position, s.position, v.id`

const scopeFilter = `
(cardinality($1::uuid[]) = 0 OR v.product_id = ANY($1::uuid[]))
AND (cardinality($2::uuid[]) = 0 OR s.size_group_id = ANY($2::uuid[]))
AND (cardinality($3::uuid[]) = 0 OR v.size_id = ANY($3::uuid[]))`

func scanVariation(row pgx.Row) (domain.Variation, error) {
	var v domain.Variation
	err := row.Scan(
		&v.ID, &v.ProductID, &v.SizeID, &v.InitialAmount, &v.Count, &v.CountedAt,
		&v.CountReservedUntil, &v.CountDisabledUntil, &v.CountDisabledReason,
		&v.CountPrioBumped, &v.CountVersion, &v.Availability, &v.ProductName, &v.SizeName,
	)
	return v, err
}

// scopeArgs normalizes empty filters to empty (not NULL) arrays so that
// cardinality() treats them as "no restriction".
func scopeArgs(scope domain.Scope) (products, sizeGroups, sizes []string) {
	products = scope.ProductIDs
	if products == nil {
		products = []string{}
	}
	sizeGroups = scope.SizeGroupIDs
	if sizeGroups == nil {
		sizeGroups = []string{}
	}
	sizes = scope.SizeIDs
	if sizes == nil {
		sizes = []string{}
	}
	return
}

func (r *Repository) ListVariationsInScope(ctx context.Context, scope domain.Scope) ([]domain.Variation, error) {
	query := `SELECT ` + variationColumns + variationJoins + ` WHERE ` + scopeFilter + catalogOrder

	products, sizeGroups, sizes := scopeArgs(scope)
	rows, err := r.db(ctx).Query(ctx, query, products, sizeGroups, sizes)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("list variations in scope: %w", err)
	}
	defer rows.Close()

	var out []domain.Variation
	for rows.Next() {
		v, err := scanVariation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan variation: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *Repository) ListAllVariations(ctx context.Context) ([]domain.Variation, error) {
	return r.ListVariationsInScope(ctx, domain.Scope{})
}

// ReserveVariation places a lease in a single compare-and-set: the update
// applies only while the variation is still eligible at "now". It returns the
// reserved row, or nil when a competing counter won it first.
func (r *Repository) ReserveVariation(ctx context.Context, variationID string, until, now time.Time) (*domain.Variation, error) {
	const query = `
UPDATE variations v
SET count_reserved_until = $2, count_version = v.count_version + 1
FROM products p, sizes s
WHERE v.id = $1
  AND p.id = v.product_id
  AND s.id = v.size_id
  AND (v.count IS NULL OR v.count <> 0)
  AND (v.count_reserved_until IS NULL OR v.count_reserved_until <= $3)
  AND (v.count_disabled_until IS NULL OR v.count_disabled_until <= $3)
RETURNING v.id, v.product_id, v.size_id, v.initial_amount, v.count, v.counted_at,
  v.count_reserved_until, v.count_disabled_until, v.count_disabled_reason,
  v.count_prio_bumped, v.count_version, v.availability, p.name, s.name`

	v, err := scanVariation(r.db(ctx).QueryRow(ctx, query, variationID, until, now))
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("reserve variation: %w", err)
	}
	return &v, nil
}

// GetVariationInScopeForUpdate loads a variation with a row lock, hiding rows
// outside the access code's scope.
func (r *Repository) GetVariationInScopeForUpdate(ctx context.Context, scope domain.Scope, variationID string) (domain.Variation, error) {
	query := `SELECT ` + variationColumns + variationJoins +
		` WHERE v.id = $4 AND ` + scopeFilter + ` FOR UPDATE OF v`

	products, sizeGroups, sizes := scopeArgs(scope)
	v, err := scanVariation(r.db(ctx).QueryRow(ctx, query, products, sizeGroups, sizes, variationID))
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Variation{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Variation{}, domain.ErrVariationNotFound
		}
		return domain.Variation{}, fmt.Errorf("get variation for update: %w", err)
	}
	return v, nil
}

// ApplyCount stores a submitted count and resets every counting lock: lease,
// cooldown and manual bump. An empty availability keeps the stored state.
func (r *Repository) ApplyCount(ctx context.Context, variationID string, count int, countedAt time.Time, availability domain.Availability) error {
	const stmt = `
UPDATE variations
SET count = $2,
    counted_at = $3,
    count_reserved_until = NULL,
    count_disabled_until = NULL,
    count_disabled_reason = NULL,
    count_prio_bumped = FALSE,
    count_version = count_version + 1,
    availability = CASE WHEN $4 = '' THEN availability ELSE $4 END
WHERE id = $1`

	tag, err := r.db(ctx).Exec(ctx, stmt, variationID, count, countedAt, string(availability))
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("apply count: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrVariationNotFound
	}
	return nil
}

// SetCountUnavailability clears the lease and replaces the cooldown window.
// Nil reason and deadline clear the cooldown entirely.
func (r *Repository) SetCountUnavailability(ctx context.Context, variationID string, reason *string, until *time.Time) error {
	const stmt = `
UPDATE variations
SET count_reserved_until = NULL,
    count_disabled_reason = $2,
    count_disabled_until = $3,
    count_version = count_version + 1
WHERE id = $1`

	tag, err := r.db(ctx).Exec(ctx, stmt, variationID, reason, until)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("set count unavailability: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrVariationNotFound
	}
	return nil
}

func (r *Repository) SetPrioBumped(ctx context.Context, variationID string, bumped bool) error {
	tag, err := r.db(ctx).Exec(ctx,
		`UPDATE variations SET count_prio_bumped = $2 WHERE id = $1`, variationID, bumped)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("set prio bumped: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrVariationNotFound
	}
	return nil
}

func (r *Repository) ClearCountDisabled(ctx context.Context, variationID string) error {
	tag, err := r.db(ctx).Exec(ctx, `
UPDATE variations
SET count_disabled_until = NULL, count_disabled_reason = NULL
WHERE id = $1`, variationID)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("clear count disabled: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrVariationNotFound
	}
	return nil
}
