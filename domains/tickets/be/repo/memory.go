package repo

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/opsfloor/helpdesk/platform/go/persistence"
	"github.com/opsfloor/helpdesk/platform/go/requestscope"
)

// MemoryRepository is a simple in-memory implementation suitable for tests and early development.
type MemoryRepository struct {
	mu   sync.RWMutex
	byID map[uuid.UUID]persistence.TicketRecord
}

// NewMemoryRepository constructs a MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byID: make(map[uuid.UUID]persistence.TicketRecord)}
}

func (r *MemoryRepository) Create(ctx context.Context, access requestscope.Access, params persistence.CreateTicketParams) (persistence.TicketRecord, error) {
	if access.UserID() == uuid.Nil {
		return persistence.TicketRecord{}, errors.New("authenticated user is required to create a ticket")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	record := persistence.TicketRecord{
		TicketID:    params.TicketID,
		TenantID:    access.TenantID(),
		UserID:      access.UserID(),
		Title:       params.Title,
		Description: params.Description,
		Priority:    params.Priority,
		Status:      params.Status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	r.byID[record.TicketID] = record
	return record, nil
}

func (r *MemoryRepository) List(ctx context.Context, access requestscope.Access, params persistence.ListTicketsParams) ([]persistence.TicketRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	records := make([]persistence.TicketRecord, 0)
	for _, record := range r.byID {
		if record.TenantID != access.TenantID() || record.DeletedAt != nil {
			continue
		}
		if params.Status != nil && *params.Status != "" && record.Status != *params.Status {
			continue
		}
		records = append(records, record)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})

	return records, nil
}

func (r *MemoryRepository) Get(ctx context.Context, access requestscope.Access, id uuid.UUID) (persistence.TicketRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.visible(access, id)
}

func (r *MemoryRepository) UpdateStatus(ctx context.Context, access requestscope.Access, id uuid.UUID, status string) (persistence.TicketRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, err := r.visible(access, id)
	if err != nil {
		return persistence.TicketRecord{}, err
	}

	record.Status = status
	record.UpdatedAt = time.Now().UTC()
	r.byID[id] = record
	return record, nil
}

func (r *MemoryRepository) SoftDelete(ctx context.Context, access requestscope.Access, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, err := r.visible(access, id)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	record.DeletedAt = &now
	record.UpdatedAt = now
	r.byID[id] = record
	return nil
}

// visible applies the same tenant and soft-delete filters as the SQL store:
// another tenant's ticket and a deleted ticket are both simply not found.
func (r *MemoryRepository) visible(access requestscope.Access, id uuid.UUID) (persistence.TicketRecord, error) {
	record, ok := r.byID[id]
	if !ok || record.TenantID != access.TenantID() || record.DeletedAt != nil {
		return persistence.TicketRecord{}, persistence.ErrTicketNotFound
	}
	return record, nil
}

// Ensure interface compliance.
var _ Repository = (*MemoryRepository)(nil)
