package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const SessionsTable = "sessions"

// SessionRecord represents a row in the sessions table.
type SessionRecord struct {
	Token     string    `db:"token"`
	UserID    uuid.UUID `db:"user_id"`
	CreatedAt time.Time `db:"created_at"`
}

// ErrSessionNotFound indicates an unknown session token.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore exposes persistence helpers for the sessions table. Tokens are
// opaque and identify a user only; the tenant is re-derived per request and
// checked upstream.
type SessionStore struct {
	pool *pgxpool.Pool
}

// NewSessionStore returns a store instance bound to the shared pool.
func NewSessionStore(pool *pgxpool.Pool) (*SessionStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &SessionStore{pool: pool}, nil
}

// InsertSession stores a token to user binding.
func (s *SessionStore) InsertSession(ctx context.Context, token string, userID uuid.UUID) error {
	if token == "" {
		return errors.New("token is required")
	}
	if userID == uuid.Nil {
		return errors.New("user id is required")
	}

	_, err := s.pool.Exec(ctx, fmt.Sprintf(`
        INSERT INTO %s (token, user_id) VALUES ($1, $2)
    `, SessionsTable), token, userID)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	return nil
}

// ResolveSession returns the user bound to the token.
func (s *SessionStore) ResolveSession(ctx context.Context, token string) (uuid.UUID, error) {
	var userID uuid.UUID

	err := s.pool.QueryRow(ctx, fmt.Sprintf(`
        SELECT user_id FROM %s WHERE token = $1
    `, SessionsTable), token).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, ErrSessionNotFound
		}
		return uuid.Nil, err
	}

	return userID, nil
}

// DeleteSession removes the token binding. Deleting an unknown token is not an error.
func (s *SessionStore) DeleteSession(ctx context.Context, token string) error {
	if _, err := s.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE token = $1`, SessionsTable), token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
