package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const TenantsTable = "tenants"

// TenantRecord represents a row in the tenants table.
type TenantRecord struct {
	TenantID  uuid.UUID `db:"tenant_id"`
	Name      string    `db:"name"`
	Subdomain string    `db:"subdomain"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

var (
	// ErrTenantNotFound indicates a missing tenant record.
	ErrTenantNotFound = errors.New("tenant not found")
	// ErrTenantConflict indicates a uniqueness violation on name or subdomain.
	ErrTenantConflict = errors.New("tenant conflict")
)

// TenantStore exposes persistence helpers for the tenants table. Tenant
// resolution runs before any request scope exists, so its lookups are the one
// place keyed by raw subdomain instead of a scope access.
type TenantStore struct {
	pool *pgxpool.Pool
}

// NewTenantStore returns a store instance bound to the shared pool.
func NewTenantStore(pool *pgxpool.Pool) (*TenantStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &TenantStore{pool: pool}, nil
}

// CreateTenantParams captures the fields required to insert a tenant.
type CreateTenantParams struct {
	TenantID  uuid.UUID
	Name      string
	Subdomain string
}

// CreateTenant inserts a new tenant and returns the persisted record.
func (s *TenantStore) CreateTenant(ctx context.Context, params CreateTenantParams) (TenantRecord, error) {
	if params.TenantID == uuid.Nil {
		return TenantRecord{}, errors.New("tenant id is required")
	}

	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        INSERT INTO %s (tenant_id, name, subdomain)
        VALUES ($1, $2, $3)
        RETURNING tenant_id, name, subdomain, created_at, updated_at
    `, TenantsTable),
		params.TenantID,
		strings.TrimSpace(params.Name),
		strings.ToLower(strings.TrimSpace(params.Subdomain)),
	)

	tenant, err := scanTenant(row)
	if err != nil {
		if isUniqueViolation(err) {
			return TenantRecord{}, ErrTenantConflict
		}
		return TenantRecord{}, err
	}

	return tenant, nil
}

// FindBySubdomain returns the tenant owning the given subdomain.
func (s *TenantStore) FindBySubdomain(ctx context.Context, subdomain string) (TenantRecord, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        SELECT tenant_id, name, subdomain, created_at, updated_at
        FROM %s WHERE subdomain = $1
    `, TenantsTable), strings.ToLower(strings.TrimSpace(subdomain)))

	tenant, err := scanTenant(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return TenantRecord{}, ErrTenantNotFound
		}
		return TenantRecord{}, err
	}

	return tenant, nil
}

// GetTenant returns a single tenant by identifier.
func (s *TenantStore) GetTenant(ctx context.Context, id uuid.UUID) (TenantRecord, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        SELECT tenant_id, name, subdomain, created_at, updated_at
        FROM %s WHERE tenant_id = $1
    `, TenantsTable), id)

	tenant, err := scanTenant(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return TenantRecord{}, ErrTenantNotFound
		}
		return TenantRecord{}, err
	}

	return tenant, nil
}

func scanTenant(row pgx.Row) (TenantRecord, error) {
	var tenant TenantRecord

	if err := row.Scan(&tenant.TenantID, &tenant.Name, &tenant.Subdomain, &tenant.CreatedAt, &tenant.UpdatedAt); err != nil {
		return TenantRecord{}, err
	}

	return tenant, nil
}
