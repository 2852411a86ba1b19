package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/opsfloor/helpdesk/domains/tickets/be/repo"
	"github.com/opsfloor/helpdesk/platform/go/persistence"
	"github.com/opsfloor/helpdesk/platform/go/requestscope"
)

// FieldErrors maps request fields to validation issues.
type FieldErrors map[string][]string

// ValidationError is returned when the input payload is invalid. Nothing is
// persisted for a request that fails validation.
type ValidationError struct {
	Fields FieldErrors
}

func (v *ValidationError) Error() string {
	return "validation error"
}

// ErrNotFound covers tickets that do not exist, are soft-deleted, or belong
// to another tenant. The caller cannot tell those apart.
var ErrNotFound = errors.New("ticket not found")

// Ticket priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Ticket lifecycle states.
const (
	StatusOpen       = "open"
	StatusInProgress = "in_progress"
	StatusClosed     = "closed"
)

// Ticket represents the domain view of a ticket record.
type Ticket struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	CreatorID   uuid.UUID
	Title       string
	Description *string
	Priority    string
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateInput captures the caller-controlled fields of a new ticket. Tenant
// and creator never appear here; the store stamps both from the access.
type CreateInput struct {
	Title       string
	Description *string
	Priority    string
	Status      string
}

// ListFilter narrows List results. An empty status means no filter.
type ListFilter struct {
	Status string
}

// Service exposes the ticket operations. Every method takes the request scope
// access so a call without a resolved tenant cannot be written.
type Service interface {
	Create(ctx context.Context, access requestscope.Access, input CreateInput) (Ticket, error)
	List(ctx context.Context, access requestscope.Access, filter ListFilter) ([]Ticket, error)
	Get(ctx context.Context, access requestscope.Access, id uuid.UUID) (Ticket, error)
	Close(ctx context.Context, access requestscope.Access, id uuid.UUID) (Ticket, error)
	Delete(ctx context.Context, access requestscope.Access, id uuid.UUID) error
}

type service struct {
	repo repo.Repository
}

// New constructs a tickets Service backed by the provided repository.
func New(r repo.Repository) Service {
	if r == nil {
		panic("tickets repository is required")
	}
	return &service{repo: r}
}

// Create validates the input against the ticket schema and inserts the
// ticket. Validation is all-or-nothing: an invalid payload writes no row.
func (s *service) Create(ctx context.Context, access requestscope.Access, input CreateInput) (Ticket, error) {
	normalized := normalizeCreateInput(input)

	if err := validateCreateInput(normalized); err != nil {
		return Ticket{}, err
	}

	record, err := s.repo.Create(ctx, access, persistence.CreateTicketParams{
		TicketID:    uuid.New(),
		Title:       normalized.Title,
		Description: normalized.Description,
		Priority:    normalized.Priority,
		Status:      normalized.Status,
	})
	if err != nil {
		return Ticket{}, err
	}

	return mapTicket(record), nil
}

// List returns the tenant's live tickets, newest first, optionally filtered
// by status.
func (s *service) List(ctx context.Context, access requestscope.Access, filter ListFilter) ([]Ticket, error) {
	status := strings.TrimSpace(filter.Status)
	if status != "" && !validStatus(status) {
		return nil, &ValidationError{Fields: FieldErrors{
			"status": {`status must be one of "open", "in_progress", "closed"`},
		}}
	}

	params := persistence.ListTicketsParams{}
	if status != "" {
		params.Status = &status
	}

	records, err := s.repo.List(ctx, access, params)
	if err != nil {
		return nil, err
	}

	tickets := make([]Ticket, 0, len(records))
	for _, record := range records {
		tickets = append(tickets, mapTicket(record))
	}
	return tickets, nil
}

// Get returns a single live ticket inside the access's tenant.
func (s *service) Get(ctx context.Context, access requestscope.Access, id uuid.UUID) (Ticket, error) {
	record, err := s.repo.Get(ctx, access, id)
	if err != nil {
		return Ticket{}, mapPersistenceError(err)
	}
	return mapTicket(record), nil
}

// Close transitions a ticket to closed. Closing an already closed ticket is
// a no-op that still returns the ticket.
func (s *service) Close(ctx context.Context, access requestscope.Access, id uuid.UUID) (Ticket, error) {
	record, err := s.repo.UpdateStatus(ctx, access, id, StatusClosed)
	if err != nil {
		return Ticket{}, mapPersistenceError(err)
	}
	return mapTicket(record), nil
}

// Delete soft-deletes a ticket; it disappears from reads but the row stays.
func (s *service) Delete(ctx context.Context, access requestscope.Access, id uuid.UUID) error {
	if err := s.repo.SoftDelete(ctx, access, id); err != nil {
		return mapPersistenceError(err)
	}
	return nil
}

func normalizeCreateInput(input CreateInput) CreateInput {
	input.Title = strings.TrimSpace(input.Title)
	input.Priority = strings.TrimSpace(input.Priority)
	input.Status = strings.TrimSpace(input.Status)

	if input.Priority == "" {
		input.Priority = PriorityMedium
	}
	if input.Status == "" {
		input.Status = StatusOpen
	}

	return input
}

func validateCreateInput(input CreateInput) error {
	fieldErrors := FieldErrors{}

	if input.Title == "" {
		fieldErrors.add("title", "title is required")
	}

	document, err := json.Marshal(map[string]any{
		"title":       input.Title,
		"description": input.Description,
		"priority":    input.Priority,
		"status":      input.Status,
	})
	if err != nil {
		return err
	}

	var payload any
	if err := json.Unmarshal(document, &payload); err != nil {
		return err
	}

	if err := ticketSchema.Validate(payload); err != nil {
		collectSchemaErrors(err, fieldErrors)
	}

	// The manual title check and the schema's minLength overlap; keep the
	// friendlier message when both fire.
	if input.Title == "" {
		fieldErrors["title"] = []string{"title is required"}
	}

	if len(fieldErrors) > 0 {
		return &ValidationError{Fields: fieldErrors}
	}
	return nil
}

func validStatus(status string) bool {
	switch status {
	case StatusOpen, StatusInProgress, StatusClosed:
		return true
	default:
		return false
	}
}

func mapTicket(record persistence.TicketRecord) Ticket {
	return Ticket{
		ID:          record.TicketID,
		TenantID:    record.TenantID,
		CreatorID:   record.UserID,
		Title:       record.Title,
		Description: record.Description,
		Priority:    record.Priority,
		Status:      record.Status,
		CreatedAt:   record.CreatedAt,
		UpdatedAt:   record.UpdatedAt,
	}
}

func mapPersistenceError(err error) error {
	if errors.Is(err, persistence.ErrTicketNotFound) {
		return ErrNotFound
	}
	return err
}

func (f FieldErrors) add(field, message string) {
	if f == nil {
		return
	}
	f[field] = append(f[field], message)
}
