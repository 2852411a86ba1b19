package middleware

import (
	"context"
	"errors"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	platformlogging "github.com/opsfloor/helpdesk/platform/go/logging"
	"github.com/opsfloor/helpdesk/platform/go/requestscope"
	"github.com/opsfloor/helpdesk/platform/go/tenant"
)

// ErrTenantNotFound is what a TenantResolver returns for an unknown subdomain.
var ErrTenantNotFound = errors.New("tenant not found")

// TenantResolver defines the minimal directory lookup the middleware needs.
// Implemented by a thin adapter over the tenant directory service.
type TenantResolver interface {
	ResolveTenant(ctx context.Context, subdomain string) (uuid.UUID, error)
}

// WithTenant derives the tenant subdomain from the Host header, resolves it
// through the directory and attaches a fresh request scope with the tenant
// bound. It runs first: a request whose host does not map to exactly one
// tenant is rejected before authentication or data access can happen.
//
// The resolution is a plain lookup per request, deliberately uncached, so no
// tenant identity can outlive the request that resolved it.
func WithTenant(resolver TenantResolver, rootDomain string) func(http.Handler) http.Handler {
	if resolver == nil {
		panic("tenant middleware: resolver is required")
	}
	if rootDomain == "" {
		panic("tenant middleware: root domain is required")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subdomain, ok := tenant.SubdomainFromHost(r.Host, rootDomain)
			if !ok {
				writeAlert(w, http.StatusNotFound, "Invalid tenant")
				return
			}

			tenantID, err := resolver.ResolveTenant(r.Context(), subdomain)
			if err != nil {
				if errors.Is(err, ErrTenantNotFound) {
					writeAlert(w, http.StatusNotFound, "Invalid tenant")
					return
				}
				writeAlert(w, http.StatusInternalServerError, "internal error")
				return
			}

			scope := requestscope.New(chimw.GetReqID(r.Context()))
			if err := scope.BindTenant(tenantID); err != nil {
				writeAlert(w, http.StatusInternalServerError, "internal error")
				return
			}

			ctx := requestscope.IntoContext(r.Context(), scope)
			if logger, found := platformlogging.FromContext(ctx); found {
				ctx = platformlogging.WithLogger(ctx, logger.With(
					zap.String("tenant_id", tenantID.String()),
					zap.String("subdomain", subdomain),
				))
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
