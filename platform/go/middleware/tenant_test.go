package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsfloor/helpdesk/platform/go/requestscope"
)

type stubTenantResolver struct {
	tenants map[string]uuid.UUID
}

func (s *stubTenantResolver) ResolveTenant(_ context.Context, subdomain string) (uuid.UUID, error) {
	if id, ok := s.tenants[subdomain]; ok {
		return id, nil
	}
	return uuid.Nil, ErrTenantNotFound
}

func TestWithTenantBindsScope(t *testing.T) {
	acmeID := uuid.New()
	resolver := &stubTenantResolver{tenants: map[string]uuid.UUID{"acme": acmeID}}

	var seenTenant uuid.UUID
	var hadScope bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scope, ok := requestscope.FromContext(r.Context())
		hadScope = ok
		if ok {
			seenTenant, _ = scope.TenantID()
		}
		w.WriteHeader(http.StatusOK)
	})

	handler := WithTenant(resolver, "helpdesk.test")(next)

	req := httptest.NewRequest(http.MethodGet, "/tickets", nil)
	req.Host = "acme.helpdesk.test"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, hadScope)
	assert.Equal(t, acmeID, seenTenant)
}

func TestWithTenantRejectsUnknownSubdomain(t *testing.T) {
	resolver := &stubTenantResolver{tenants: map[string]uuid.UUID{"acme": uuid.New()}}

	called := false
	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true })
	handler := WithTenant(resolver, "helpdesk.test")(next)

	req := httptest.NewRequest(http.MethodGet, "/tickets", nil)
	req.Host = "ghost.helpdesk.test"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"Invalid tenant"}`, rec.Body.String())
	assert.False(t, called, "handler must not run without a resolved tenant")
}

func TestWithTenantRejectsHostsOffTheRootDomain(t *testing.T) {
	resolver := &stubTenantResolver{tenants: map[string]uuid.UUID{"acme": uuid.New()}}
	handler := WithTenant(resolver, "helpdesk.test")(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	}))

	for _, host := range []string{"helpdesk.test", "acme.other.test", "a.b.helpdesk.test", ""} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Host = host
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code, "host %q", host)
	}
}

func TestWithTenantIgnoresHostPort(t *testing.T) {
	acmeID := uuid.New()
	resolver := &stubTenantResolver{tenants: map[string]uuid.UUID{"acme": acmeID}}

	handler := WithTenant(resolver, "helpdesk.test")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = "acme.helpdesk.test:8080"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
