package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/opsfloor/helpdesk/domains/tickets/be/repo"
	ticketsservice "github.com/opsfloor/helpdesk/domains/tickets/be/service"
	"github.com/opsfloor/helpdesk/platform/go/requestscope"
)

// scopeInjector stands in for the tenant and session middleware: every
// request arrives with a scope already bound to the given tenant and user.
func scopeInjector(tenantID, userID uuid.UUID) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scope := requestscope.New(uuid.NewString())
			_ = scope.BindTenant(tenantID)
			_ = scope.BindUser(userID)
			next.ServeHTTP(w, r.WithContext(requestscope.IntoContext(r.Context(), scope)))
		})
	}
}

func newTestRouter(t *testing.T, svc ticketsservice.Service, tenantID, userID uuid.UUID) http.Handler {
	t.Helper()

	router := chi.NewRouter()
	router.Use(scopeInjector(tenantID, userID))
	New(svc, zaptest.NewLogger(t)).Register(router)
	return router
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   json.RawMessage `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestCreateTicketEndpoint(t *testing.T) {
	svc := ticketsservice.New(repo.NewMemoryRepository())
	tenantID := uuid.New()
	userID := uuid.New()
	router := newTestRouter(t, svc, tenantID, userID)

	// Client-supplied tenant and creator keys are dropped on the floor.
	body := `{"title":"Printer on fire","priority":"high","tenantId":"` + uuid.NewString() + `","creatorId":"` + uuid.NewString() + `"}`
	req := httptest.NewRequest(http.MethodPost, "/tickets", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	env := decodeEnvelope(t, rec)
	require.True(t, env.Success)
	assert.Equal(t, "Ticket created", env.Message)

	var ticket ticketPayload
	require.NoError(t, json.Unmarshal(env.Data, &ticket))
	assert.Equal(t, "Printer on fire", ticket.Title)
	assert.Equal(t, "high", ticket.Priority)
	assert.Equal(t, "open", ticket.Status)
	assert.Equal(t, userID, ticket.CreatorID, "creator comes from the scope, not the payload")
}

func TestCreateTicketEndpointRejectsInvalidPriority(t *testing.T) {
	svc := ticketsservice.New(repo.NewMemoryRepository())
	router := newTestRouter(t, svc, uuid.New(), uuid.New())

	req := httptest.NewRequest(http.MethodPost, "/tickets", strings.NewReader(`{"title":"Help","priority":"urgent"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	env := decodeEnvelope(t, rec)
	require.False(t, env.Success)

	var fields map[string][]string
	require.NoError(t, json.Unmarshal(env.Error, &fields))
	assert.Contains(t, fields, "priority")
}

func TestListTicketsEndpointFiltersByStatus(t *testing.T) {
	svc := ticketsservice.New(repo.NewMemoryRepository())
	tenantID := uuid.New()
	userID := uuid.New()
	router := newTestRouter(t, svc, tenantID, userID)

	access := accessFor(t, tenantID, userID)
	open, err := svc.Create(t.Context(), access, ticketsservice.CreateInput{Title: "Open"})
	require.NoError(t, err)
	toClose, err := svc.Create(t.Context(), access, ticketsservice.CreateInput{Title: "Closed"})
	require.NoError(t, err)
	_, err = svc.Close(t.Context(), access, toClose.ID)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tickets?status=open", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	env := decodeEnvelope(t, rec)
	var tickets []ticketPayload
	require.NoError(t, json.Unmarshal(env.Data, &tickets))
	require.Len(t, tickets, 1)
	assert.Equal(t, open.ID, tickets[0].ID)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tickets?status=archived", nil))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestGetTicketEndpointHidesOtherTenants(t *testing.T) {
	svc := ticketsservice.New(repo.NewMemoryRepository())

	acmeID := uuid.New()
	acmeUser := uuid.New()
	created, err := svc.Create(t.Context(), accessFor(t, acmeID, acmeUser), ticketsservice.CreateInput{Title: "Acme only"})
	require.NoError(t, err)

	// Same service, different tenant on the request.
	router := newTestRouter(t, svc, uuid.New(), uuid.New())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/tickets/%s", created.ID), nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"Ticket not found"}`, rec.Body.String())
}

func TestCloseTicketEndpoint(t *testing.T) {
	svc := ticketsservice.New(repo.NewMemoryRepository())
	tenantID := uuid.New()
	userID := uuid.New()
	router := newTestRouter(t, svc, tenantID, userID)

	created, err := svc.Create(t.Context(), accessFor(t, tenantID, userID), ticketsservice.CreateInput{Title: "Wrap up"})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, fmt.Sprintf("/tickets/%s/close", created.ID), nil))

	require.Equal(t, http.StatusOK, rec.Code)

	env := decodeEnvelope(t, rec)
	var ticket ticketPayload
	require.NoError(t, json.Unmarshal(env.Data, &ticket))
	assert.Equal(t, "closed", ticket.Status)
}

func TestDeleteTicketEndpoint(t *testing.T) {
	svc := ticketsservice.New(repo.NewMemoryRepository())
	tenantID := uuid.New()
	userID := uuid.New()
	router := newTestRouter(t, svc, tenantID, userID)

	created, err := svc.Create(t.Context(), accessFor(t, tenantID, userID), ticketsservice.CreateInput{Title: "Ephemeral"})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/tickets/%s", created.ID), nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/tickets/%s", created.ID), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTicketEndpointRejectsMalformedID(t *testing.T) {
	svc := ticketsservice.New(repo.NewMemoryRepository())
	router := newTestRouter(t, svc, uuid.New(), uuid.New())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tickets/not-a-uuid", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func accessFor(t *testing.T, tenantID, userID uuid.UUID) requestscope.Access {
	t.Helper()

	scope := requestscope.New(uuid.NewString())
	require.NoError(t, scope.BindTenant(tenantID))
	require.NoError(t, scope.BindUser(userID))
	access, err := scope.Access()
	require.NoError(t, err)
	return access
}
