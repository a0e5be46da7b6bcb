// Package memory provides thread-safe in-memory implementations of the
// auth store contracts. Suitable for testing, demos, and single-process
// deployments.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/gskelton/gatehouse/auth"
	"github.com/gskelton/gatehouse/crypto"
)

// UserStore is an in-memory auth.UserStore keyed by email.
type UserStore struct {
	mu     sync.RWMutex
	users  map[string]auth.User
	hasher *crypto.Hasher
}

var _ auth.UserStore = (*UserStore)(nil)

// NewUserStore creates an empty in-memory user store. hasher performs
// password verification for Validate.
func NewUserStore(hasher *crypto.Hasher) *UserStore {
	return &UserStore{
		users:  make(map[string]auth.User),
		hasher: hasher,
	}
}

func (s *UserStore) Add(ctx context.Context, user auth.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := user.Email.String()
	if _, ok := s.users[key]; ok {
		return auth.ErrAlreadyExists
	}
	s.users[key] = user
	return nil
}

func (s *UserStore) Get(ctx context.Context, email auth.Email) (auth.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[email.String()]
	if !ok {
		return auth.User{}, auth.ErrNotFound
	}
	return user, nil
}

func (s *UserStore) Delete(ctx context.Context, email auth.Email) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := email.String()
	if _, ok := s.users[key]; !ok {
		return auth.ErrNotFound
	}
	delete(s.users, key)
	return nil
}

func (s *UserStore) Validate(ctx context.Context, email auth.Email, password auth.Password) error {
	user, err := s.Get(ctx, email)
	if err != nil {
		return err
	}
	// Hash verification runs outside the lock: it is CPU-bound and must
	// not serialize concurrent logins.
	if err := s.hasher.Verify(ctx, password.Expose(), user.PasswordHash); err != nil {
		if err == crypto.ErrHashMismatch {
			return auth.ErrInvalidCredentials
		}
		return err
	}
	return nil
}

// BannedTokenStore is an in-memory auth.BannedTokenStore. Entries expire
// ttl after insertion; ttl 0 keeps them for the process lifetime.
type BannedTokenStore struct {
	mu     sync.RWMutex
	tokens map[string]time.Time
	ttl    time.Duration
}

var _ auth.BannedTokenStore = (*BannedTokenStore)(nil)

func NewBannedTokenStore(ttl time.Duration) *BannedTokenStore {
	return &BannedTokenStore{
		tokens: make(map[string]time.Time),
		ttl:    ttl,
	}
}

func (s *BannedTokenStore) Revoke(ctx context.Context, token string) error {
	s.mu.Lock()
	s.tokens[token] = time.Now()
	s.mu.Unlock()
	return nil
}

func (s *BannedTokenStore) IsRevoked(ctx context.Context, token string) (bool, error) {
	s.mu.RLock()
	insertedAt, ok := s.tokens[token]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if s.ttl > 0 && time.Since(insertedAt) > s.ttl {
		// Re-check under the write lock: a concurrent Revoke may have
		// refreshed the entry after the read above.
		s.mu.Lock()
		if cur, ok := s.tokens[token]; ok && cur.Equal(insertedAt) {
			delete(s.tokens, token)
		}
		s.mu.Unlock()
		return false, nil
	}
	return true, nil
}

func (s *BannedTokenStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.tokens = make(map[string]time.Time)
	s.mu.Unlock()
	return nil
}

type challenge struct {
	id        auth.LoginAttemptID
	code      auth.TwoFACode
	createdAt time.Time
}

// TwoFACodeStore is an in-memory auth.TwoFACodeStore. A challenge older
// than ttl is treated as absent; ttl 0 disables expiry.
type TwoFACodeStore struct {
	mu         sync.RWMutex
	challenges map[string]challenge
	ttl        time.Duration
}

var _ auth.TwoFACodeStore = (*TwoFACodeStore)(nil)

func NewTwoFACodeStore(ttl time.Duration) *TwoFACodeStore {
	return &TwoFACodeStore{
		challenges: make(map[string]challenge),
		ttl:        ttl,
	}
}

func (s *TwoFACodeStore) Put(ctx context.Context, email auth.Email, id auth.LoginAttemptID, code auth.TwoFACode) error {
	s.mu.Lock()
	// Overwrite on purpose: a new login attempt supersedes any pending
	// challenge for the same identity.
	s.challenges[email.String()] = challenge{id: id, code: code, createdAt: time.Now()}
	s.mu.Unlock()
	return nil
}

func (s *TwoFACodeStore) Get(ctx context.Context, email auth.Email) (auth.LoginAttemptID, auth.TwoFACode, error) {
	s.mu.RLock()
	ch, ok := s.challenges[email.String()]
	s.mu.RUnlock()
	if !ok {
		return auth.LoginAttemptID{}, auth.TwoFACode{}, auth.ErrNotFound
	}
	if s.ttl > 0 && time.Since(ch.createdAt) > s.ttl {
		// Re-check under the write lock: only the challenge observed
		// above may be reaped. A concurrent Put may have installed a
		// fresh one, and that supersession must stand.
		s.mu.Lock()
		if cur, ok := s.challenges[email.String()]; ok && cur.createdAt.Equal(ch.createdAt) {
			delete(s.challenges, email.String())
		}
		s.mu.Unlock()
		return auth.LoginAttemptID{}, auth.TwoFACode{}, auth.ErrNotFound
	}
	return ch.id, ch.code, nil
}

func (s *TwoFACodeStore) Remove(ctx context.Context, email auth.Email) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := email.String()
	if _, ok := s.challenges[key]; !ok {
		return auth.ErrNotFound
	}
	delete(s.challenges, key)
	return nil
}
