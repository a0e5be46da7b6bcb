// Package bbolt provides a BBolt-backed user store for single-node
// deployments that need credentials to survive a restart without an
// external database.
package bbolt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/gskelton/gatehouse/auth"
	"github.com/gskelton/gatehouse/crypto"
)

var usersBucket = []byte("users")

// UserStore implements auth.UserStore backed by a BBolt database.
type UserStore struct {
	db     *bbolt.DB
	hasher *crypto.Hasher
}

var _ auth.UserStore = (*UserStore)(nil)

type userRecord struct {
	PasswordHash string `json:"password_hash"`
	Requires2FA  bool   `json:"requires_2fa"`
}

// NewUserStore returns a UserStore backed by the given BBolt database.
func NewUserStore(db *bbolt.DB, hasher *crypto.Hasher) (*UserStore, error) {
	err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(usersBucket)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("creating users bucket: %w", err)
	}
	return &UserStore{db: db, hasher: hasher}, nil
}

// NewUserStoreFromFile opens a BBolt database at the given path and
// returns a new UserStore.
func NewUserStoreFromFile(path string, hasher *crypto.Hasher, options *bbolt.Options) (*UserStore, error) {
	db, err := bbolt.Open(path, 0600, options)
	if err != nil {
		return nil, fmt.Errorf("opening bbolt db: %w", err)
	}
	return NewUserStore(db, hasher)
}

// Close closes the underlying BBolt database.
func (s *UserStore) Close() error {
	return s.db.Close()
}

func (s *UserStore) Add(ctx context.Context, user auth.User) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(usersBucket)
		key := []byte(user.Email.String())
		if b.Get(key) != nil {
			return auth.ErrAlreadyExists
		}
		data, err := json.Marshal(userRecord{
			PasswordHash: user.PasswordHash,
			Requires2FA:  user.Requires2FA,
		})
		if err != nil {
			return fmt.Errorf("serializing user: %w", err)
		}
		return b.Put(key, data)
	})
}

func (s *UserStore) Get(ctx context.Context, email auth.Email) (auth.User, error) {
	var rec userRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(usersBucket).Get([]byte(email.String()))
		if data == nil {
			return auth.ErrNotFound
		}
		return json.Unmarshal(data, &rec)
	})
	if err != nil {
		return auth.User{}, err
	}
	return auth.User{
		Email:        email,
		PasswordHash: rec.PasswordHash,
		Requires2FA:  rec.Requires2FA,
	}, nil
}

func (s *UserStore) Delete(ctx context.Context, email auth.Email) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(usersBucket)
		key := []byte(email.String())
		if b.Get(key) == nil {
			return auth.ErrNotFound
		}
		return b.Delete(key)
	})
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
