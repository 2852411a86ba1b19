package repo

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/opsfloor/helpdesk/platform/go/persistence"
)

// MemoryRepository is a simple in-memory implementation suitable for tests and early development.
type MemoryRepository struct {
	mu      sync.RWMutex
	byToken map[string]uuid.UUID
}

// NewMemoryRepository constructs a MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byToken: make(map[string]uuid.UUID)}
}

func (r *MemoryRepository) Insert(ctx context.Context, token string, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byToken[token] = userID
	return nil
}

func (r *MemoryRepository) Resolve(ctx context.Context, token string) (uuid.UUID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	userID, ok := r.byToken[token]
	if !ok {
		return uuid.Nil, persistence.ErrSessionNotFound
	}
	return userID, nil
}

func (r *MemoryRepository) Delete(ctx context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.byToken, token)
	return nil
}

// Ensure interface compliance.
var _ SessionRepository = (*MemoryRepository)(nil)
