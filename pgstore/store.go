package pgstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/riodehq/authkit"
)

// Schema is the reference DDL for the users table. Apply it with
// [Store.EnsureSchema] or through your own migration tooling.
const Schema = `
CREATE TABLE IF NOT EXISTS authkit_users (
	id              TEXT PRIMARY KEY,
	username        TEXT NOT NULL,
	email           TEXT NOT NULL,
	password_hash   TEXT NOT NULL,
	email_confirmed BOOLEAN NOT NULL DEFAULT FALSE,
	active          BOOLEAN NOT NULL DEFAULT TRUE,
	failed_attempts INTEGER NOT NULL DEFAULT 0,
	lockout_until   TIMESTAMPTZ,
	version         BIGINT NOT NULL DEFAULT 1
);
CREATE UNIQUE INDEX IF NOT EXISTS authkit_users_username_idx ON authkit_users (lower(username));
CREATE UNIQUE INDEX IF NOT EXISTS authkit_users_email_idx ON authkit_users (lower(email));
`

const selectColumns = `id, username, email, password_hash, email_confirmed, active, failed_attempts, lockout_until, version`

// Store is a PostgreSQL-backed [authkit.UserStore]. Lookups are
// case-insensitive exact matches; Save enforces optimistic concurrency on
// the version column.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a [Store] on top of an existing pgx pool. The pool's
// lifecycle stays with the caller.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// EnsureSchema applies [Schema]. Safe to call on every startup.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("%w: %v", authkit.ErrStoreUnavailable, err)
	}
	return nil
}

// FindByUsername describes the findbyusername operation and its observable behavior.
//
// FindByUsername may return an error when input validation, dependency calls, or security checks fail.
// FindByUsername does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Store) FindByUsername(ctx context.Context, username string) (*authkit.User, error) {
	return s.findBy(ctx, "lower(username) = lower($1)", username)
}

// FindByEmail describes the findbyemail operation and its observable behavior.
//
// FindByEmail may return an error when input validation, dependency calls, or security checks fail.
// FindByEmail does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Store) FindByEmail(ctx context.Context, email string) (*authkit.User, error) {
	return s.findBy(ctx, "lower(email) = lower($1)", email)
}

func (s *Store) findBy(ctx context.Context, where, arg string) (*authkit.User, error) {
	query := "SELECT " + selectColumns + " FROM authkit_users WHERE " + where

	var (
		user         authkit.User
		lockoutUntil *time.Time
	)
	err := s.pool.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.EmailConfirmed,
		&user.Active,
		&user.FailedAttempts,
		&lockoutUntil,
		&user.Version,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, authkit.ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: %v", authkit.ErrStoreUnavailable, err)
	}

	if lockoutUntil != nil {
		user.LockoutUntil = *lockoutUntil
	}

	return &user, nil
}

// Save describes the save operation and its observable behavior.
//
// A user with an empty ID is inserted under a fresh UUID at version 1.
// An existing user is updated only when the in-memory version still matches
// the stored row; a mismatch returns [authkit.ErrStoreConflict] so the
// caller can reload and retry.
//
// Save may return an error when input validation, dependency calls, or security checks fail.
// Save does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Store) Save(ctx context.Context, user *authkit.User) error {
	var lockoutUntil *time.Time
	if !user.LockoutUntil.IsZero() {
		t := user.LockoutUntil
		lockoutUntil = &t
	}

	if user.ID == "" {
		user.ID = uuid.NewString()
		user.Version = 1

		_, err := s.pool.Exec(ctx, `
			INSERT INTO authkit_users
				(id, username, email, password_hash, email_confirmed, active, failed_attempts, lockout_until, version)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			user.ID, user.Username, user.Email, user.PasswordHash,
			user.EmailConfirmed, user.Active, user.FailedAttempts, lockoutUntil, user.Version,
		)
		if err != nil {
			return fmt.Errorf("%w: %v", authkit.ErrStoreUnavailable, err)
		}
		return nil
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE authkit_users SET
			username = $2,
			email = $3,
			password_hash = $4,
			email_confirmed = $5,
			active = $6,
			failed_attempts = $7,
			lockout_until = $8,
			version = version + 1
		WHERE id = $1 AND version = $9`,
		user.ID, user.Username, user.Email, user.PasswordHash,
		user.EmailConfirmed, user.Active, user.FailedAttempts, lockoutUntil, user.Version,
	)
	if err != nil {
		return fmt.Errorf("%w: %v", authkit.ErrStoreUnavailable, err)
	}
	if tag.RowsAffected() == 0 {
		return authkit.ErrStoreConflict
	}

	user.Version++
	return nil
}
