package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/opsfloor/helpdesk/platform/go/persistence"
	"github.com/opsfloor/helpdesk/platform/go/requestscope"
)

// Repository defines the persistence operations required by the tickets
// service. Every method takes the request scope access: there is no way to
// reach ticket rows without naming the tenant they belong to.
type Repository interface {
	Create(ctx context.Context, access requestscope.Access, params persistence.CreateTicketParams) (persistence.TicketRecord, error)
	List(ctx context.Context, access requestscope.Access, params persistence.ListTicketsParams) ([]persistence.TicketRecord, error)
	Get(ctx context.Context, access requestscope.Access, id uuid.UUID) (persistence.TicketRecord, error)
	UpdateStatus(ctx context.Context, access requestscope.Access, id uuid.UUID, status string) (persistence.TicketRecord, error)
	SoftDelete(ctx context.Context, access requestscope.Access, id uuid.UUID) error
}

type postgresRepository struct {
	store *persistence.TicketStore
}

// NewPostgresRepository constructs a repository backed by the shared persistence layer.
func NewPostgresRepository(store *persistence.TicketStore) Repository {
	if store == nil {
		panic("ticket store is required")
	}
	return &postgresRepository{store: store}
}

func (r *postgresRepository) Create(ctx context.Context, access requestscope.Access, params persistence.CreateTicketParams) (persistence.TicketRecord, error) {
	return r.store.CreateTicket(ctx, access, params)
}

func (r *postgresRepository) List(ctx context.Context, access requestscope.Access, params persistence.ListTicketsParams) ([]persistence.TicketRecord, error) {
	return r.store.ListTickets(ctx, access, params)
}

func (r *postgresRepository) Get(ctx context.Context, access requestscope.Access, id uuid.UUID) (persistence.TicketRecord, error) {
	return r.store.GetTicket(ctx, access, id)
}

func (r *postgresRepository) UpdateStatus(ctx context.Context, access requestscope.Access, id uuid.UUID, status string) (persistence.TicketRecord, error) {
	return r.store.UpdateTicketStatus(ctx, access, id, status)
}

func (r *postgresRepository) SoftDelete(ctx context.Context, access requestscope.Access, id uuid.UUID) error {
	return r.store.SoftDeleteTicket(ctx, access, id)
}
