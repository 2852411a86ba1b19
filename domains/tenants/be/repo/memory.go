package repo

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/opsfloor/helpdesk/domains/tenants/be/service"
)

// MemoryRepository is a simple in-memory implementation suitable for tests and early development.
type MemoryRepository struct {
	mu          sync.RWMutex
	byID        map[uuid.UUID]service.Tenant
	bySubdomain map[string]uuid.UUID
	byName      map[string]uuid.UUID
}

// NewMemoryRepository constructs a MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:        make(map[uuid.UUID]service.Tenant),
		bySubdomain: make(map[string]uuid.UUID),
		byName:      make(map[string]uuid.UUID),
	}
}

func (r *MemoryRepository) Create(ctx context.Context, t service.Tenant) (service.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.bySubdomain[t.Subdomain]; exists {
		return service.Tenant{}, service.ErrConflict
	}
	if _, exists := r.byName[t.Name]; exists {
		return service.Tenant{}, service.ErrConflict
	}

	r.byID[t.ID] = t
	r.bySubdomain[t.Subdomain] = t.ID
	r.byName[t.Name] = t.ID
	return t, nil
}

func (r *MemoryRepository) FindBySubdomain(ctx context.Context, subdomain string) (service.Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.bySubdomain[subdomain]
	if !ok {
		return service.Tenant{}, service.ErrNotFound
	}
	return r.byID[id], nil
}

func (r *MemoryRepository) Get(ctx context.Context, id uuid.UUID) (service.Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.byID[id]
	if !ok {
		return service.Tenant{}, service.ErrNotFound
	}
	return t, nil
}

// Ensure interface compliance.
var _ service.Repository = (*MemoryRepository)(nil)
