package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/opsfloor/helpdesk/domains/tenants/be/service"
	"github.com/opsfloor/helpdesk/platform/go/persistence"
)

// PostgresRepository implements the tenant repository over the shared persistence layer.
type PostgresRepository struct {
	store *persistence.TenantStore
}

// NewPostgresRepository constructs a repository backed by TenantStore.
func NewPostgresRepository(store *persistence.TenantStore) *PostgresRepository {
	if store == nil {
		panic("tenant store is required")
	}
	return &PostgresRepository{store: store}
}

func (r *PostgresRepository) Create(ctx context.Context, t service.Tenant) (service.Tenant, error) {
	rec, err := r.store.CreateTenant(ctx, persistence.CreateTenantParams{
		TenantID:  t.ID,
		Name:      t.Name,
		Subdomain: t.Subdomain,
	})
	if err != nil {
		return service.Tenant{}, mapStoreError(err)
	}
	return toServiceTenant(rec), nil
}

func (r *PostgresRepository) FindBySubdomain(ctx context.Context, subdomain string) (service.Tenant, error) {
	rec, err := r.store.FindBySubdomain(ctx, subdomain)
	if err != nil {
		return service.Tenant{}, mapStoreError(err)
	}
	return toServiceTenant(rec), nil
}

func (r *PostgresRepository) Get(ctx context.Context, id uuid.UUID) (service.Tenant, error) {
	rec, err := r.store.GetTenant(ctx, id)
	if err != nil {
		return service.Tenant{}, mapStoreError(err)
	}
	return toServiceTenant(rec), nil
}

func toServiceTenant(rec persistence.TenantRecord) service.Tenant {
	return service.Tenant{
		ID:        rec.TenantID,
		Name:      rec.Name,
		Subdomain: rec.Subdomain,
		CreatedAt: rec.CreatedAt,
	}
}

func mapStoreError(err error) error {
	switch {
	case errors.Is(err, persistence.ErrTenantNotFound):
		return service.ErrNotFound
	case errors.Is(err, persistence.ErrTenantConflict):
		return service.ErrConflict
	default:
		return err
	}
}

// Ensure interface compliance.
var _ service.Repository = (*PostgresRepository)(nil)
