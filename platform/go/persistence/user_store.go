package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/opsfloor/helpdesk/platform/go/requestscope"
)

const UsersTable = "users"

// UserRecord represents a row in the users table.
type UserRecord struct {
	UserID       uuid.UUID `db:"user_id"`
	TenantID     uuid.UUID `db:"tenant_id"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	Role         string    `db:"role"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

var (
	// ErrUserNotFound indicates a missing user record.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserConflict indicates a (email, tenant_id) uniqueness violation.
	ErrUserConflict = errors.New("user conflict")
)

// UserStore exposes persistence helpers for the users table. Tenant-scoped
// lookups take the request scope access so the tenant filter cannot be
// omitted or forged by callers.
type UserStore struct {
	pool *pgxpool.Pool
}

// NewUserStore returns a store instance bound to the shared pool.
func NewUserStore(pool *pgxpool.Pool) (*UserStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &UserStore{pool: pool}, nil
}

// CreateUserParams captures the fields required to insert a new user record.
// The owning tenant is not part of the params: it is stamped from the access.
type CreateUserParams struct {
	UserID       uuid.UUID
	Email        string
	PasswordHash string
	Role         string
}

// CreateUser inserts a new user under the access's tenant and returns the persisted record.
func (s *UserStore) CreateUser(ctx context.Context, access requestscope.Access, params CreateUserParams) (UserRecord, error) {
	if params.UserID == uuid.Nil {
		return UserRecord{}, errors.New("user id is required")
	}

	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        INSERT INTO %s (user_id, tenant_id, email, password_hash, role)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING user_id, tenant_id, email, password_hash, role, created_at, updated_at
    `, UsersTable),
		params.UserID,
		access.TenantID(),
		strings.ToLower(strings.TrimSpace(params.Email)),
		params.PasswordHash,
		params.Role,
	)

	user, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return UserRecord{}, ErrUserConflict
		}
		return UserRecord{}, err
	}

	return user, nil
}

// FindUserByEmail resolves a user by email inside the access's tenant. The
// compound (email, tenant_id) predicate is the only lookup offered: a global
// email search does not exist on purpose.
func (s *UserStore) FindUserByEmail(ctx context.Context, access requestscope.Access, email string) (UserRecord, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        SELECT user_id, tenant_id, email, password_hash, role, created_at, updated_at
        FROM %s WHERE email = $1 AND tenant_id = $2
    `, UsersTable),
		strings.ToLower(strings.TrimSpace(email)),
		access.TenantID(),
	)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return UserRecord{}, ErrUserNotFound
		}
		return UserRecord{}, err
	}

	return user, nil
}

// GetUser returns a user by identifier regardless of tenant. Reserved for
// session resolution, where the caller must compare the record's tenant
// against the request's resolved tenant before trusting it.
func (s *UserStore) GetUser(ctx context.Context, id uuid.UUID) (UserRecord, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        SELECT user_id, tenant_id, email, password_hash, role, created_at, updated_at
        FROM %s WHERE user_id = $1
    `, UsersTable), id)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return UserRecord{}, ErrUserNotFound
		}
		return UserRecord{}, err
	}

	return user, nil
}

func scanUser(row pgx.Row) (UserRecord, error) {
	var user UserRecord

	if err := row.Scan(&user.UserID, &user.TenantID, &user.Email, &user.PasswordHash, &user.Role, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return UserRecord{}, err
	}

	return user, nil
}
