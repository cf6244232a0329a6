package postgresql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukex/roster/pkg/models"
	"github.com/lib/pq"
)

type CatalogRepository struct {
	db *sql.DB
}

func NewCatalogRepository(db *sql.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

const catalogFilter = `
	WHERE ($1::text = '' OR name ILIKE '%' || $1::text || '%')
	  AND (cardinality($2::text[]) = 0 OR id = ANY($2::text[]))
	ORDER BY name ASC`

func filterArgs(filter models.CatalogFilter) []any {
	ids := filter.IDs
	if ids == nil {
		ids = []string{}
	}

	return []any{filter.Search, pq.Array(ids)}
}

func (r *CatalogRepository) Roles(ctx context.Context, filter models.CatalogFilter) ([]models.Role, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, description FROM roles`+catalogFilter, filterArgs(filter)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query roles: %w", err)
	}
	defer rows.Close()

	roles := make([]models.Role, 0)

	for rows.Next() {
		var role models.Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}

		roles = append(roles, role)
	}

	return roles, rows.Err()
}

func (r *CatalogRepository) SaveRoles(ctx context.Context, roles []models.Role) error {
	return r.upsert(ctx, len(roles), func(tx *sql.Tx, i int) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO roles (id, name, description) VALUES ($1, $2, $3)
			ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, description = EXCLUDED.description`,
			roles[i].ID, roles[i].Name, roles[i].Description)

		return err
	})
}

func (r *CatalogRepository) PaidTimeOff(ctx context.Context, filter models.CatalogFilter) ([]models.PaidTimeOff, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, days_per_year FROM paid_time_off`+catalogFilter, filterArgs(filter)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query paid time off: %w", err)
	}
	defer rows.Close()

	entries := make([]models.PaidTimeOff, 0)

	for rows.Next() {
		var pto models.PaidTimeOff
		if err := rows.Scan(&pto.ID, &pto.Name, &pto.DaysPerYear); err != nil {
			return nil, fmt.Errorf("failed to scan paid time off: %w", err)
		}

		entries = append(entries, pto)
	}

	return entries, rows.Err()
}

func (r *CatalogRepository) SavePaidTimeOff(ctx context.Context, pto []models.PaidTimeOff) error {
	return r.upsert(ctx, len(pto), func(tx *sql.Tx, i int) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO paid_time_off (id, name, days_per_year) VALUES ($1, $2, $3)
			ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, days_per_year = EXCLUDED.days_per_year`,
			pto[i].ID, pto[i].Name, pto[i].DaysPerYear)

		return err
	})
}

func (r *CatalogRepository) upsert(ctx context.Context, n int, exec func(tx *sql.Tx, i int) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	for i := range n {
		if err := exec(tx, i); err != nil {
			_ = tx.Rollback()

			return fmt.Errorf("failed to save catalog entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit catalog: %w", err)
	}

	return nil
}
