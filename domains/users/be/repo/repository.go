package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/opsfloor/helpdesk/platform/go/persistence"
	"github.com/opsfloor/helpdesk/platform/go/requestscope"
)

// Repository defines the persistence operations required by the users service.
// Tenant-scoped operations take the request scope access; Get is the single
// cross-tenant lookup, needed to resolve a session back to its owner.
type Repository interface {
	Create(ctx context.Context, access requestscope.Access, params persistence.CreateUserParams) (persistence.UserRecord, error)
	FindByEmail(ctx context.Context, access requestscope.Access, email string) (persistence.UserRecord, error)
	Get(ctx context.Context, id uuid.UUID) (persistence.UserRecord, error)
}

type postgresRepository struct {
	store *persistence.UserStore
}

// NewPostgresRepository constructs a repository backed by the shared persistence layer.
func NewPostgresRepository(store *persistence.UserStore) Repository {
	if store == nil {
		panic("user store is required")
	}
	return &postgresRepository{store: store}
}

func (r *postgresRepository) Create(ctx context.Context, access requestscope.Access, params persistence.CreateUserParams) (persistence.UserRecord, error) {
	return r.store.CreateUser(ctx, access, params)
}

func (r *postgresRepository) FindByEmail(ctx context.Context, access requestscope.Access, email string) (persistence.UserRecord, error) {
	return r.store.FindUserByEmail(ctx, access, email)
}

func (r *postgresRepository) Get(ctx context.Context, id uuid.UUID) (persistence.UserRecord, error) {
	return r.store.GetUser(ctx, id)
}
