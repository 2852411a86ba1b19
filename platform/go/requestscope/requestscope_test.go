package requestscope

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestBindTenantIsWriteOnce(t *testing.T) {
	t.Parallel()

	scope := New("req-1")
	first := uuid.New()
	require.NoError(t, scope.BindTenant(first))

	err := scope.BindTenant(uuid.New())
	require.ErrorIs(t, err, ErrTenantAlreadyBound)

	got, ok := scope.TenantID()
	require.True(t, ok)
	require.Equal(t, first, got)
}

func TestBindUserRequiresTenant(t *testing.T) {
	t.Parallel()

	scope := New("req-1")
	err := scope.BindUser(uuid.New())
	require.ErrorIs(t, err, ErrTenantNotBound)

	require.NoError(t, scope.BindTenant(uuid.New()))
	userID := uuid.New()
	require.NoError(t, scope.BindUser(userID))

	err = scope.BindUser(uuid.New())
	require.ErrorIs(t, err, ErrUserAlreadyBound)

	got, ok := scope.UserID()
	require.True(t, ok)
	require.Equal(t, userID, got)
}

func TestAccessRequiresResolvedTenant(t *testing.T) {
	t.Parallel()

	scope := New("req-1")
	_, err := scope.Access()
	require.ErrorIs(t, err, ErrTenantNotBound)

	tenantID := uuid.New()
	userID := uuid.New()
	require.NoError(t, scope.BindTenant(tenantID))
	require.NoError(t, scope.BindUser(userID))

	access, err := scope.Access()
	require.NoError(t, err)
	require.Equal(t, tenantID, access.TenantID())
	require.Equal(t, userID, access.UserID())
	require.Equal(t, "req-1", access.RequestID())
}

func TestAccessSnapshotDoesNotSeeLaterBinds(t *testing.T) {
	t.Parallel()

	scope := New("req-1")
	require.NoError(t, scope.BindTenant(uuid.New()))

	access, err := scope.Access()
	require.NoError(t, err)
	require.Equal(t, uuid.Nil, access.UserID())

	require.NoError(t, scope.BindUser(uuid.New()))
	require.Equal(t, uuid.Nil, access.UserID())
}

func TestContextRoundTrip(t *testing.T) {
	t.Parallel()

	_, ok := FromContext(context.Background())
	require.False(t, ok)

	scope := New("req-1")
	ctx := IntoContext(context.Background(), scope)

	got, ok := FromContext(ctx)
	require.True(t, ok)
	require.Same(t, scope, got)
}

func TestScopesAreIndependentPerRequest(t *testing.T) {
	t.Parallel()

	a := New("req-a")
	b := New("req-b")
	require.NoError(t, a.BindTenant(uuid.New()))

	_, ok := b.TenantID()
	require.False(t, ok, "binding one scope must not leak into another")
}
