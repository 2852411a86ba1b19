package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/opsfloor/helpdesk/platform/go/persistence"
)

// SessionRepository defines the persistence operations for session tokens.
// Tokens identify a user only; they are deliberately tenant-free, since the
// tenant is re-derived from the subdomain on every request.
type SessionRepository interface {
	Insert(ctx context.Context, token string, userID uuid.UUID) error
	Resolve(ctx context.Context, token string) (uuid.UUID, error)
	// Delete is idempotent; deleting an unknown token is not an error.
	Delete(ctx context.Context, token string) error
}

type postgresRepository struct {
	store *persistence.SessionStore
}

// NewPostgresRepository constructs a repository backed by the shared persistence layer.
func NewPostgresRepository(store *persistence.SessionStore) SessionRepository {
	if store == nil {
		panic("session store is required")
	}
	return &postgresRepository{store: store}
}

func (r *postgresRepository) Insert(ctx context.Context, token string, userID uuid.UUID) error {
	return r.store.InsertSession(ctx, token, userID)
}

func (r *postgresRepository) Resolve(ctx context.Context, token string) (uuid.UUID, error) {
	return r.store.ResolveSession(ctx, token)
}

func (r *postgresRepository) Delete(ctx context.Context, token string) error {
	return r.store.DeleteSession(ctx, token)
}
