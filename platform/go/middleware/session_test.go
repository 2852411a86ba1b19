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

type stubSessionResolver struct {
	token    string
	tenantID uuid.UUID
	userID   uuid.UUID
}

func (s *stubSessionResolver) ResolveSession(_ context.Context, access requestscope.Access, token string) (uuid.UUID, error) {
	if token != s.token || access.TenantID() != s.tenantID {
		return uuid.Nil, ErrSessionInvalid
	}
	return s.userID, nil
}

func scopedRequest(t *testing.T, tenantID uuid.UUID) *http.Request {
	t.Helper()
	scope := requestscope.New("req-test")
	require.NoError(t, scope.BindTenant(tenantID))
	req := httptest.NewRequest(http.MethodGet, "/tickets", nil)
	return req.WithContext(requestscope.IntoContext(req.Context(), scope))
}

func TestRequireSessionBindsUser(t *testing.T) {
	tenantID := uuid.New()
	userID := uuid.New()
	resolver := &stubSessionResolver{token: "tok-1", tenantID: tenantID, userID: userID}

	var boundUser uuid.UUID
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scope, ok := requestscope.FromContext(r.Context())
		require.True(t, ok)
		boundUser, _ = scope.UserID()
		w.WriteHeader(http.StatusOK)
	})

	handler := RequireSession(resolver, "helpdesk_session")(next)

	req := scopedRequest(t, tenantID)
	req.AddCookie(&http.Cookie{Name: "helpdesk_session", Value: "tok-1"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, userID, boundUser)
}

func TestRequireSessionRejectsMissingCookie(t *testing.T) {
	resolver := &stubSessionResolver{token: "tok-1", tenantID: uuid.New(), userID: uuid.New()}
	handler := RequireSession(resolver, "helpdesk_session")(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, scopedRequest(t, uuid.New()))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"Please log in"}`, rec.Body.String())
}

func TestRequireSessionRejectsTokenFromAnotherTenant(t *testing.T) {
	sessionTenant := uuid.New()
	resolver := &stubSessionResolver{token: "tok-1", tenantID: sessionTenant, userID: uuid.New()}
	handler := RequireSession(resolver, "helpdesk_session")(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	}))

	// Same valid token, presented under a different tenant's host.
	req := scopedRequest(t, uuid.New())
	req.AddCookie(&http.Cookie{Name: "helpdesk_session", Value: "tok-1"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"Please log in"}`, rec.Body.String())
}

func TestRequireSessionFailsWithoutScope(t *testing.T) {
	resolver := &stubSessionResolver{token: "tok-1", tenantID: uuid.New(), userID: uuid.New()}
	handler := RequireSession(resolver, "helpdesk_session")(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/tickets", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
