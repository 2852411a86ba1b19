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

	"github.com/opsfloor/helpdesk/platform/go/requestscope"
)

const TicketsTable = "tickets"

// TicketRecord represents a row in the tickets table.
type TicketRecord struct {
	TicketID    uuid.UUID  `db:"ticket_id"`
	TenantID    uuid.UUID  `db:"tenant_id"`
	UserID      uuid.UUID  `db:"user_id"`
	Title       string     `db:"title"`
	Description *string    `db:"description"`
	Priority    string     `db:"priority"`
	Status      string     `db:"status"`
	DeletedAt   *time.Time `db:"deleted_at"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
}

// ErrTicketNotFound indicates a ticket that does not exist inside the
// access's tenant. A row owned by another tenant yields the same error.
var ErrTicketNotFound = errors.New("ticket not found")

// TicketStore exposes persistence helpers for the tickets table. Every method
// takes a requestscope.Access and folds its tenant into the query, so a read
// or write without a tenant filter cannot be expressed.
type TicketStore struct {
	pool *pgxpool.Pool
}

// NewTicketStore returns a store instance bound to the shared pool.
func NewTicketStore(pool *pgxpool.Pool) (*TicketStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &TicketStore{pool: pool}, nil
}

// CreateTicketParams captures the caller-controlled ticket fields. Tenant and
// owning user never appear here; they are stamped from the access.
type CreateTicketParams struct {
	TicketID    uuid.UUID
	Title       string
	Description *string
	Priority    string
	Status      string
}

// CreateTicket inserts a ticket stamped with the access's tenant and user.
func (s *TicketStore) CreateTicket(ctx context.Context, access requestscope.Access, params CreateTicketParams) (TicketRecord, error) {
	if params.TicketID == uuid.Nil {
		return TicketRecord{}, errors.New("ticket id is required")
	}
	if access.UserID() == uuid.Nil {
		return TicketRecord{}, errors.New("authenticated user is required to create a ticket")
	}

	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        INSERT INTO %s (ticket_id, tenant_id, user_id, title, description, priority, status)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING ticket_id, tenant_id, user_id, title, description, priority, status, deleted_at, created_at, updated_at
    `, TicketsTable),
		params.TicketID,
		access.TenantID(),
		access.UserID(),
		strings.TrimSpace(params.Title),
		params.Description,
		params.Priority,
		params.Status,
	)

	ticket, err := scanTicket(row)
	if err != nil {
		return TicketRecord{}, fmt.Errorf("create ticket: %w", err)
	}

	return ticket, nil
}

// ListTicketsParams captures optional filters for ListTickets.
type ListTicketsParams struct {
	Status *string
}

// ListTickets returns the access's tenant's live tickets, newest first.
func (s *TicketStore) ListTickets(ctx context.Context, access requestscope.Access, params ListTicketsParams) ([]TicketRecord, error) {
	whereParts := []string{"tenant_id = $1", "deleted_at IS NULL"}
	args := []any{access.TenantID()}

	if params.Status != nil && strings.TrimSpace(*params.Status) != "" {
		args = append(args, strings.TrimSpace(*params.Status))
		whereParts = append(whereParts, fmt.Sprintf("status = $%d", len(args)))
	}

	query := fmt.Sprintf(`
        SELECT ticket_id, tenant_id, user_id, title, description, priority, status, deleted_at, created_at, updated_at
        FROM %s
        WHERE %s
        ORDER BY created_at DESC
    `, TicketsTable, strings.Join(whereParts, " AND "))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	defer rows.Close()

	tickets := make([]TicketRecord, 0)
	for rows.Next() {
		ticket, scanErr := scanTicket(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan ticket: %w", scanErr)
		}
		tickets = append(tickets, ticket)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tickets: %w", err)
	}

	return tickets, nil
}

// GetTicket returns a single live ticket inside the access's tenant.
func (s *TicketStore) GetTicket(ctx context.Context, access requestscope.Access, id uuid.UUID) (TicketRecord, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        SELECT ticket_id, tenant_id, user_id, title, description, priority, status, deleted_at, created_at, updated_at
        FROM %s WHERE ticket_id = $1 AND tenant_id = $2 AND deleted_at IS NULL
    `, TicketsTable), id, access.TenantID())

	ticket, err := scanTicket(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return TicketRecord{}, ErrTicketNotFound
		}
		return TicketRecord{}, err
	}

	return ticket, nil
}

// UpdateTicketStatus transitions a ticket's status inside the access's tenant.
func (s *TicketStore) UpdateTicketStatus(ctx context.Context, access requestscope.Access, id uuid.UUID, status string) (TicketRecord, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        UPDATE %s
        SET status = $1, updated_at = NOW()
        WHERE ticket_id = $2 AND tenant_id = $3 AND deleted_at IS NULL
        RETURNING ticket_id, tenant_id, user_id, title, description, priority, status, deleted_at, created_at, updated_at
    `, TicketsTable), status, id, access.TenantID())

	ticket, err := scanTicket(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return TicketRecord{}, ErrTicketNotFound
		}
		return TicketRecord{}, err
	}

	return ticket, nil
}

// SoftDeleteTicket marks a ticket deleted inside the access's tenant.
func (s *TicketStore) SoftDeleteTicket(ctx context.Context, access requestscope.Access, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, fmt.Sprintf(`
        UPDATE %s SET deleted_at = NOW(), updated_at = NOW()
        WHERE ticket_id = $1 AND tenant_id = $2 AND deleted_at IS NULL
    `, TicketsTable), id, access.TenantID())
	if err != nil {
		return fmt.Errorf("soft delete ticket: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrTicketNotFound
	}

	return nil
}

func scanTicket(row pgx.Row) (TicketRecord, error) {
	var ticket TicketRecord

	if err := row.Scan(
		&ticket.TicketID,
		&ticket.TenantID,
		&ticket.UserID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Priority,
		&ticket.Status,
		&ticket.DeletedAt,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return TicketRecord{}, err
	}

	return ticket, nil
}
