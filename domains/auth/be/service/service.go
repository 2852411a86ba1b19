package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/opsfloor/helpdesk/domains/auth/be/repo"
	usersservice "github.com/opsfloor/helpdesk/domains/users/be/service"
	"github.com/opsfloor/helpdesk/platform/go/persistence"
	"github.com/opsfloor/helpdesk/platform/go/requestscope"
)

// Errors returned by the authentication service. Both are deliberately
// information-free: a wrong password, an unknown email, an unknown token and
// a token minted under another tenant are indistinguishable to the caller.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrSessionInvalid     = errors.New("session invalid")
)

const tokenBytes = 32

// dummyHash is compared against when the email lookup misses, so the failure
// path costs a bcrypt verification either way.
var dummyHash []byte

func init() {
	var err error
	dummyHash, err = bcrypt.GenerateFromPassword([]byte("login-timing-placeholder"), bcrypt.DefaultCost)
	if err != nil {
		panic(fmt.Sprintf("auth: generate dummy hash: %v", err))
	}
}

// Session represents an established login: an opaque token bound to a user.
type Session struct {
	Token string
	User  usersservice.User
}

// Service orchestrates authentication: credential verification on login and
// session resolution on every other request. Session creation and destruction
// are its only mutating side effects.
type Service struct {
	users    usersservice.Service
	sessions repo.SessionRepository
}

// New constructs a Service with the required collaborators.
func New(users usersservice.Service, sessions repo.SessionRepository) *Service {
	if users == nil {
		panic("users service is required")
	}
	if sessions == nil {
		panic("session repository is required")
	}
	return &Service{users: users, sessions: sessions}
}

// Login verifies (email, password) against the access's tenant and mints a
// session on success. The email lookup is always tenant-scoped, so the same
// email under another tenant can never authenticate here, whatever its
// password. Unknown email and wrong password return the identical error.
func (s *Service) Login(ctx context.Context, access requestscope.Access, email, password string) (Session, error) {
	creds, err := s.users.FindCredentials(ctx, access, email)
	if err != nil {
		if errors.Is(err, usersservice.ErrNotFound) {
			// Burn a comparison so this path is not observably faster.
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(creds.PasswordHash), []byte(password)); err != nil {
		return Session{}, ErrInvalidCredentials
	}

	token, err := newToken()
	if err != nil {
		return Session{}, err
	}

	if err := s.sessions.Insert(ctx, token, creds.UserID); err != nil {
		return Session{}, err
	}

	user, err := s.users.Get(ctx, creds.UserID)
	if err != nil {
		return Session{}, err
	}

	return Session{Token: token, User: user}, nil
}

// Authenticate resolves a session token under the access's tenant. A token
// whose user belongs to a different tenant is rejected exactly like an
// unknown token: a session minted under one subdomain must never authenticate
// a request arriving under another.
func (s *Service) Authenticate(ctx context.Context, access requestscope.Access, token string) (usersservice.User, error) {
	if token == "" {
		return usersservice.User{}, ErrSessionInvalid
	}

	userID, err := s.sessions.Resolve(ctx, token)
	if err != nil {
		if errors.Is(err, persistence.ErrSessionNotFound) {
			return usersservice.User{}, ErrSessionInvalid
		}
		return usersservice.User{}, err
	}

	user, err := s.users.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, usersservice.ErrNotFound) {
			return usersservice.User{}, ErrSessionInvalid
		}
		return usersservice.User{}, err
	}

	if user.TenantID != access.TenantID() {
		return usersservice.User{}, ErrSessionInvalid
	}

	return user, nil
}

// Logout destroys the session. Destroying an unknown or already destroyed
// token succeeds, so logout is idempotent.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.sessions.Delete(ctx, token)
}

// newToken returns a cryptographically unpredictable opaque session token.
func newToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
