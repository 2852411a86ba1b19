package repo

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/opsfloor/helpdesk/platform/go/persistence"
	"github.com/opsfloor/helpdesk/platform/go/requestscope"
)

type emailKey struct {
	tenantID uuid.UUID
	email    string
}

// MemoryRepository is a simple in-memory implementation suitable for tests and early development.
type MemoryRepository struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]persistence.UserRecord
	byEmail map[emailKey]uuid.UUID
}

// NewMemoryRepository constructs a MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:    make(map[uuid.UUID]persistence.UserRecord),
		byEmail: make(map[emailKey]uuid.UUID),
	}
}

func (r *MemoryRepository) Create(ctx context.Context, access requestscope.Access, params persistence.CreateUserParams) (persistence.UserRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := emailKey{tenantID: access.TenantID(), email: params.Email}
	if _, exists := r.byEmail[key]; exists {
		return persistence.UserRecord{}, persistence.ErrUserConflict
	}

	now := time.Now().UTC()
	record := persistence.UserRecord{
		UserID:       params.UserID,
		TenantID:     access.TenantID(),
		Email:        params.Email,
		PasswordHash: params.PasswordHash,
		Role:         params.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	r.byID[record.UserID] = record
	r.byEmail[key] = record.UserID
	return record, nil
}

func (r *MemoryRepository) FindByEmail(ctx context.Context, access requestscope.Access, email string) (persistence.UserRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[emailKey{tenantID: access.TenantID(), email: email}]
	if !ok {
		return persistence.UserRecord{}, persistence.ErrUserNotFound
	}
	return r.byID[id], nil
}

func (r *MemoryRepository) Get(ctx context.Context, id uuid.UUID) (persistence.UserRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.byID[id]
	if !ok {
		return persistence.UserRecord{}, persistence.ErrUserNotFound
	}
	return record, nil
}

// Ensure interface compliance.
var _ Repository = (*MemoryRepository)(nil)
