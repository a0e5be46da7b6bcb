// Package postgres implements auth.UserStore backed by PostgreSQL.
//
// The users table is keyed by email, mirroring the key space of the
// in-memory and BBolt backends. Only the Argon2id hash is ever stored;
// the plaintext password exists transiently in memory during Validate.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gskelton/gatehouse/auth"
	"github.com/gskelton/gatehouse/crypto"
)

// UserStore implements auth.UserStore backed by PostgreSQL.
type UserStore struct {
	pool   *pgxpool.Pool
	hasher *crypto.Hasher
}

var _ auth.UserStore = (*UserStore)(nil)

// NewUserStore returns a UserStore backed by the given pgx connection pool.
func NewUserStore(pool *pgxpool.Pool, hasher *crypto.Hasher) *UserStore {
	return &UserStore{pool: pool, hasher: hasher}
}

// NewUserStoreFromDSN creates a connection pool from a DSN string,
// ensures the schema exists, and returns a new UserStore.
func NewUserStoreFromDSN(ctx context.Context, dsn string, hasher *crypto.Hasher) (*UserStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensuring schema: %w", err)
	}
	return NewUserStore(pool, hasher), nil
}

// Close closes the underlying connection pool.
func (s *UserStore) Close() {
	s.pool.Close()
}

func (s *UserStore) Add(ctx context.Context, user auth.User) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (email, password_hash, requires_2fa) VALUES ($1, $2, $3)`,
		user.Email.String(), user.PasswordHash, user.Requires2FA)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return auth.ErrAlreadyExists
		}
		return fmt.Errorf("inserting user: %w", err)
	}
	return nil
}

func (s *UserStore) Get(ctx context.Context, email auth.Email) (auth.User, error) {
	var (
		passwordHash string
		requires2FA  bool
	)
	err := s.pool.QueryRow(ctx,
		`SELECT password_hash, requires_2fa FROM users WHERE email = $1`,
		email.String()).Scan(&passwordHash, &requires2FA)
	if errors.Is(err, pgx.ErrNoRows) {
		return auth.User{}, auth.ErrNotFound
	}
	if err != nil {
		return auth.User{}, fmt.Errorf("querying user: %w", err)
	}
	return auth.User{
		Email:        email,
		PasswordHash: passwordHash,
		Requires2FA:  requires2FA,
	}, nil
}

func (s *UserStore) Delete(ctx context.Context, email auth.Email) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM users WHERE email = $1`, email.String())
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return auth.ErrNotFound
	}
	return nil
}

func (s *UserStore) Validate(ctx context.Context, email auth.Email, password auth.Password) error {
	user, err := s.Get(ctx, email)
	if err != nil {
		return err
	}
	if err := s.hasher.Verify(ctx, password.Expose(), user.PasswordHash); err != nil {
		if errors.Is(err, crypto.ErrHashMismatch) {
			return auth.ErrInvalidCredentials
		}
		return err
	}
	return nil
}
