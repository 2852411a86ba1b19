package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/opsfloor/helpdesk/platform/go/tenant"
)

// Errors returned by the tenant directory.
var (
	ErrNotFound = errors.New("tenant not found")
	ErrConflict = errors.New("tenant name or subdomain already exists")
	ErrBadInput = errors.New("invalid tenant input")
)

var subdomainPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$`)

// Tenant represents a directory entry: one isolated customer organization.
type Tenant struct {
	ID        uuid.UUID
	Name      string
	Subdomain string
	CreatedAt time.Time
}

// CreateInput represents the request to register a tenant.
type CreateInput struct {
	Name      string
	Subdomain string
}

// Repository abstracts tenant persistence.
type Repository interface {
	Create(ctx context.Context, t Tenant) (Tenant, error)
	FindBySubdomain(ctx context.Context, subdomain string) (Tenant, error)
	Get(ctx context.Context, id uuid.UUID) (Tenant, error)
}

// Service is the tenant directory: the single authority mapping subdomains to
// tenant identities. Resolution is a pure lookup with no side effects.
type Service struct {
	repo Repository
}

// New constructs a Service with the required repository.
func New(repo Repository) *Service {
	if repo == nil {
		panic("tenants repo is required")
	}
	return &Service{repo: repo}
}

// ResolveSubdomain maps a subdomain to its tenant. Callers must treat
// ErrNotFound as fatal for the request: nothing downstream may run without a
// resolved tenant.
func (s *Service) ResolveSubdomain(ctx context.Context, subdomain string) (Tenant, error) {
	normalized := tenant.Normalize(subdomain)
	if normalized == "" {
		return Tenant{}, ErrNotFound
	}
	return s.repo.FindBySubdomain(ctx, normalized)
}

// Create registers a new tenant with a unique name and subdomain.
func (s *Service) Create(ctx context.Context, input CreateInput) (Tenant, error) {
	name := strings.TrimSpace(input.Name)
	subdomain := tenant.Normalize(input.Subdomain)

	if name == "" || subdomain == "" || !subdomainPattern.MatchString(subdomain) {
		return Tenant{}, ErrBadInput
	}

	t := Tenant{
		ID:        uuid.New(),
		Name:      name,
		Subdomain: subdomain,
		CreatedAt: time.Now().UTC(),
	}

	return s.repo.Create(ctx, t)
}

// Get returns a tenant by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Tenant, error) {
	return s.repo.Get(ctx, id)
}
