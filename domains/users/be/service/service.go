package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/opsfloor/helpdesk/domains/users/be/repo"
	"github.com/opsfloor/helpdesk/platform/go/persistence"
	"github.com/opsfloor/helpdesk/platform/go/requestscope"
)

// FieldErrors maps request fields to validation issues.
type FieldErrors map[string][]string

// ValidationError is returned when the input payload is invalid.
type ValidationError struct {
	Fields FieldErrors
}

func (v *ValidationError) Error() string {
	return "validation error"
}

// Domain sentinel errors.
var (
	ErrNotFound = errors.New("user not found")
	ErrConflict = errors.New("user conflict")
)

// Roles a user can hold within their tenant.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

const minPasswordLength = 8

// User represents the domain view of a user record. The password hash stays
// inside the credential store; only the auth service reads it via Credentials.
type User struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	Email     string
	Role      string
	CreatedAt time.Time
}

// IsAdmin reports whether the user holds the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Credentials is the auth-facing view of a stored user: identity plus the
// bcrypt hash to verify against.
type Credentials struct {
	UserID       uuid.UUID
	TenantID     uuid.UUID
	PasswordHash string
	Role         string
}

// RegisterInput represents a signup request inside an already resolved tenant.
type RegisterInput struct {
	Email                string
	Password             string
	PasswordConfirmation string
}

// Service defines the credential store operations.
type Service interface {
	Register(ctx context.Context, access requestscope.Access, input RegisterInput) (User, error)
	FindCredentials(ctx context.Context, access requestscope.Access, email string) (Credentials, error)
	Get(ctx context.Context, id uuid.UUID) (User, error)
}

type service struct {
	repo repo.Repository
}

// New constructs a users Service backed by the provided repository.
func New(r repo.Repository) Service {
	if r == nil {
		panic("users repository is required")
	}
	return &service{repo: r}
}

// Register creates a user inside the access's tenant. The tenant id is
// stamped by the store from the access, never taken from the payload.
func (s *service) Register(ctx context.Context, access requestscope.Access, input RegisterInput) (User, error) {
	fieldErrors := FieldErrors{}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		fieldErrors.add("email", "email is required")
	} else if !strings.Contains(email, "@") {
		fieldErrors.add("email", "email must contain '@'")
	}

	if len(input.Password) < minPasswordLength {
		fieldErrors.add("password", "password must be at least 8 characters")
	} else if input.Password != input.PasswordConfirmation {
		fieldErrors.add("passwordConfirmation", "passwords do not match")
	}

	if len(fieldErrors) > 0 {
		return User{}, &ValidationError{Fields: fieldErrors}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}

	record, err := s.repo.Create(ctx, access, persistence.CreateUserParams{
		UserID:       uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
		Role:         RoleUser,
	})
	if err != nil {
		if errors.Is(err, persistence.ErrUserConflict) {
			return User{}, &ValidationError{Fields: FieldErrors{"email": {"email is already taken"}}}
		}
		return User{}, err
	}

	return mapUser(record), nil
}

// FindCredentials resolves a user's credentials by email inside the access's
// tenant. The lookup is always compound: the same email under another tenant
// is a different user entirely.
func (s *service) FindCredentials(ctx context.Context, access requestscope.Access, email string) (Credentials, error) {
	record, err := s.repo.FindByEmail(ctx, access, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return Credentials{}, mapPersistenceError(err)
	}

	return Credentials{
		UserID:       record.UserID,
		TenantID:     record.TenantID,
		PasswordHash: record.PasswordHash,
		Role:         record.Role,
	}, nil
}

// Get returns a single user by identifier, across tenants. Callers comparing
// the user to a request's tenant must do so explicitly (see the auth service).
func (s *service) Get(ctx context.Context, id uuid.UUID) (User, error) {
	if id == uuid.Nil {
		return User{}, ErrNotFound
	}

	record, err := s.repo.Get(ctx, id)
	if err != nil {
		return User{}, mapPersistenceError(err)
	}

	return mapUser(record), nil
}

func mapUser(record persistence.UserRecord) User {
	return User{
		ID:        record.UserID,
		TenantID:  record.TenantID,
		Email:     record.Email,
		Role:      record.Role,
		CreatedAt: record.CreatedAt,
	}
}

func mapPersistenceError(err error) error {
	switch {
	case errors.Is(err, persistence.ErrUserNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrUserConflict):
		return ErrConflict
	default:
		return err
	}
}

func (f FieldErrors) add(field, message string) {
	if f == nil {
		return
	}
	f[field] = append(f[field], message)
}
