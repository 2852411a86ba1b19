package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	authrepo "github.com/opsfloor/helpdesk/domains/auth/be/repo"
	"github.com/opsfloor/helpdesk/domains/auth/be/service"
	usersrepo "github.com/opsfloor/helpdesk/domains/users/be/repo"
	usersservice "github.com/opsfloor/helpdesk/domains/users/be/service"
	"github.com/opsfloor/helpdesk/platform/go/requestscope"
)

type fixture struct {
	auth  *service.Service
	users usersservice.Service
	acme  uuid.UUID
	beta  uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	users := usersservice.New(usersrepo.NewMemoryRepository())
	auth := service.New(users, authrepo.NewMemoryRepository())

	f := &fixture{auth: auth, users: users, acme: uuid.New(), beta: uuid.New()}

	// Same email string in both tenants, different passwords.
	f.register(t, f.acme, "alice@example.com", "secret-one")
	f.register(t, f.beta, "alice@example.com", "secret-two")

	return f
}

func (f *fixture) register(t *testing.T, tenantID uuid.UUID, email, password string) usersservice.User {
	t.Helper()

	user, err := f.users.Register(context.Background(), accessFor(t, tenantID), usersservice.RegisterInput{
		Email:                email,
		Password:             password,
		PasswordConfirmation: password,
	})
	require.NoError(t, err)
	return user
}

func accessFor(t *testing.T, tenantID uuid.UUID) requestscope.Access {
	t.Helper()

	scope := requestscope.New("test-request")
	require.NoError(t, scope.BindTenant(tenantID))
	access, err := scope.Access()
	require.NoError(t, err)
	return access
}

func TestLoginScopedByTenant(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	acmeAccess := accessFor(t, f.acme)

	// The other tenant's password never authenticates here, even for the
	// same email string.
	_, err := f.auth.Login(ctx, acmeAccess, "alice@example.com", "secret-two")
	require.ErrorIs(t, err, service.ErrInvalidCredentials)

	session, err := f.auth.Login(ctx, acmeAccess, "alice@example.com", "secret-one")
	require.NoError(t, err)
	require.NotEmpty(t, session.Token)
	require.Equal(t, f.acme, session.User.TenantID)
}

func TestLoginFailuresAreUniform(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	acmeAccess := accessFor(t, f.acme)

	_, unknownEmail := f.auth.Login(ctx, acmeAccess, "ghost@example.com", "whatever-pass")
	_, wrongPassword := f.auth.Login(ctx, acmeAccess, "alice@example.com", "not-the-password")

	require.ErrorIs(t, unknownEmail, service.ErrInvalidCredentials)
	require.ErrorIs(t, wrongPassword, service.ErrInvalidCredentials)
	require.Equal(t, unknownEmail.Error(), wrongPassword.Error())
}

func TestAuthenticateRejectsCrossTenantSession(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	session, err := f.auth.Login(ctx, accessFor(t, f.acme), "alice@example.com", "secret-one")
	require.NoError(t, err)

	// Same token presented under the right tenant works.
	user, err := f.auth.Authenticate(ctx, accessFor(t, f.acme), session.Token)
	require.NoError(t, err)
	require.Equal(t, session.User.ID, user.ID)

	// Presented under another tenant's subdomain it is invalid, despite the
	// token itself being live.
	_, err = f.auth.Authenticate(ctx, accessFor(t, f.beta), session.Token)
	require.ErrorIs(t, err, service.ErrSessionInvalid)
}

func TestAuthenticateRejectsUnknownAndEmptyTokens(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	access := accessFor(t, f.acme)

	_, err := f.auth.Authenticate(ctx, access, "no-such-token")
	require.ErrorIs(t, err, service.ErrSessionInvalid)

	_, err = f.auth.Authenticate(ctx, access, "")
	require.ErrorIs(t, err, service.ErrSessionInvalid)
}

func TestLogoutIsIdempotent(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	access := accessFor(t, f.acme)

	session, err := f.auth.Login(ctx, access, "alice@example.com", "secret-one")
	require.NoError(t, err)

	require.NoError(t, f.auth.Logout(ctx, session.Token))
	require.NoError(t, f.auth.Logout(ctx, session.Token))
	require.NoError(t, f.auth.Logout(ctx, "never-existed"))

	_, err = f.auth.Authenticate(ctx, access, session.Token)
	require.ErrorIs(t, err, service.ErrSessionInvalid)
}

func TestTokensAreOpaqueAndUnique(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	access := accessFor(t, f.acme)

	first, err := f.auth.Login(ctx, access, "alice@example.com", "secret-one")
	require.NoError(t, err)
	second, err := f.auth.Login(ctx, access, "alice@example.com", "secret-one")
	require.NoError(t, err)

	require.NotEqual(t, first.Token, second.Token)
	require.GreaterOrEqual(t, len(first.Token), 43, "32 random bytes base64url encoded")
	require.NotContains(t, first.Token, f.acme.String())
	require.NotContains(t, first.Token, first.User.ID.String())
}
