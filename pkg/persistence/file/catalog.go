package file

import (
	"context"
	"sort"

	"github.com/dukex/roster/pkg/models"
	"github.com/dukex/roster/pkg/persistence"
)

// CatalogRepository keeps each catalog in a single file, keyed by entry id.
type CatalogRepository struct {
	catalogs *collection
}

func NewCatalogRepository(root string) *CatalogRepository {
	return &CatalogRepository{catalogs: newCollection(root, "catalogs")}
}

func (cr *CatalogRepository) Roles(_ context.Context, filter models.CatalogFilter) ([]models.Role, error) {
	cr.catalogs.mu.RLock()
	defer cr.catalogs.mu.RUnlock()

	roles := map[string]models.Role{}
	if _, err := cr.catalogs.read("roles", &roles); err != nil {
		return nil, err
	}

	out := make([]models.Role, 0, len(roles))

	for _, role := range roles {
		if persistence.MatchCatalog(filter, role.ID, role.Name) {
			out = append(out, role)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	return out, nil
}

// SaveRoles inserts or replaces roles by id.
func (cr *CatalogRepository) SaveRoles(_ context.Context, roles []models.Role) error {
	cr.catalogs.mu.Lock()
	defer cr.catalogs.mu.Unlock()

	stored := map[string]models.Role{}
	if _, err := cr.catalogs.read("roles", &stored); err != nil {
		return err
	}

	for _, role := range roles {
		stored[role.ID] = role
	}

	return cr.catalogs.write("roles", stored)
}

func (cr *CatalogRepository) PaidTimeOff(_ context.Context, filter models.CatalogFilter) ([]models.PaidTimeOff, error) {
	cr.catalogs.mu.RLock()
	defer cr.catalogs.mu.RUnlock()

	entries := map[string]models.PaidTimeOff{}
	if _, err := cr.catalogs.read("paid_time_off", &entries); err != nil {
		return nil, err
	}

	out := make([]models.PaidTimeOff, 0, len(entries))

	for _, pto := range entries {
		if persistence.MatchCatalog(filter, pto.ID, pto.Name) {
			out = append(out, pto)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	return out, nil
}

// SavePaidTimeOff inserts or replaces paid time off types by id.
func (cr *CatalogRepository) SavePaidTimeOff(_ context.Context, pto []models.PaidTimeOff) error {
	cr.catalogs.mu.Lock()
	defer cr.catalogs.mu.Unlock()

	stored := map[string]models.PaidTimeOff{}
	if _, err := cr.catalogs.read("paid_time_off", &stored); err != nil {
		return err
	}

	for _, entry := range pto {
		stored[entry.ID] = entry
	}

	return cr.catalogs.write("paid_time_off", stored)
}
