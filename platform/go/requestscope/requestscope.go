package requestscope

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

type contextKey string

const ctxScope contextKey = "HELPDESK_REQUEST_SCOPE"

// Errors returned by scope binding and access.
var (
	ErrTenantAlreadyBound = errors.New("tenant already bound to request scope")
	ErrUserAlreadyBound   = errors.New("user already bound to request scope")
	ErrTenantNotBound     = errors.New("no tenant bound to request scope")
)

// Scope carries the identities resolved for exactly one inbound request: the
// tenant derived from the subdomain and, once authenticated, the user. It is
// created fresh by the tenant middleware and discarded with the request
// context; it must never be shared across requests.
//
// Both identities are write-once. A handler downstream can read them but
// cannot re-point the scope at another tenant, which is what keeps a caller
// supplied tenant id off the data path.
type Scope struct {
	mu        sync.Mutex
	requestID string
	tenantID  uuid.UUID
	userID    uuid.UUID
}

// New creates an empty scope for the given request id.
func New(requestID string) *Scope {
	return &Scope{requestID: requestID}
}

// RequestID returns the correlation id the scope was created with.
func (s *Scope) RequestID() string {
	return s.requestID
}

// BindTenant records the resolved tenant. It may be called exactly once.
func (s *Scope) BindTenant(id uuid.UUID) error {
	if id == uuid.Nil {
		return errors.New("tenant id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tenantID != uuid.Nil {
		return ErrTenantAlreadyBound
	}
	s.tenantID = id
	return nil
}

// BindUser records the authenticated user. It may be called exactly once and
// only after the tenant has been bound.
func (s *Scope) BindUser(id uuid.UUID) error {
	if id == uuid.Nil {
		return errors.New("user id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tenantID == uuid.Nil {
		return ErrTenantNotBound
	}
	if s.userID != uuid.Nil {
		return ErrUserAlreadyBound
	}
	s.userID = id
	return nil
}

// TenantID returns the bound tenant id, reporting false when unresolved.
func (s *Scope) TenantID() (uuid.UUID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tenantID, s.tenantID != uuid.Nil
}

// UserID returns the bound user id, reporting false when unauthenticated.
func (s *Scope) UserID() (uuid.UUID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID, s.userID != uuid.Nil
}

// Access is an immutable snapshot of a scope handed to the data layer. Every
// store method takes one, so a tenant-less query is unrepresentable. The
// fields are unexported: the only way to obtain an Access is through a scope
// that already holds a resolved tenant.
type Access struct {
	requestID string
	tenantID  uuid.UUID
	userID    uuid.UUID
}

// Access snapshots the scope for data access. It fails when no tenant has
// been resolved yet, which keeps unresolved requests away from the stores.
func (s *Scope) Access() (Access, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tenantID == uuid.Nil {
		return Access{}, ErrTenantNotBound
	}
	return Access{requestID: s.requestID, tenantID: s.tenantID, userID: s.userID}, nil
}

// TenantID returns the tenant every query must be filtered or stamped with.
func (a Access) TenantID() uuid.UUID {
	return a.tenantID
}

// UserID returns the authenticated user, or uuid.Nil on anonymous access.
func (a Access) UserID() uuid.UUID {
	return a.userID
}

// RequestID returns the correlation id for logging.
func (a Access) RequestID() string {
	return a.requestID
}

// IntoContext stores the scope on the context.
func IntoContext(ctx context.Context, scope *Scope) context.Context {
	return context.WithValue(ctx, ctxScope, scope)
}

// FromContext extracts the scope, returning false when not present.
func FromContext(ctx context.Context) (*Scope, bool) {
	if ctx == nil {
		return nil, false
	}
	scope, ok := ctx.Value(ctxScope).(*Scope)
	return scope, ok && scope != nil
}
