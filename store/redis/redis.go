// Package redis implements the banned-token and 2FA code stores on a
// shared Redis instance. Both stores lean on Redis key TTLs: a revoked
// token is forgotten exactly when it would have expired naturally, and
// abandoned 2FA challenges self-clean after the challenge window.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gskelton/gatehouse/auth"
)

// Key prefixes prevent collisions between the two key spaces on a
// shared database.
const (
	bannedTokenKeyPrefix = "banned_token:"
	twoFACodeKeyPrefix   = "two_fa_code:"
)

// BannedTokenStore is a Redis-backed auth.BannedTokenStore.
type BannedTokenStore struct {
	rdb *redis.Client
	ttl time.Duration
}

var _ auth.BannedTokenStore = (*BannedTokenStore)(nil)

// NewBannedTokenStore creates a store whose entries expire after ttl,
// which should equal the session token TTL.
func NewBannedTokenStore(rdb *redis.Client, ttl time.Duration) *BannedTokenStore {
	return &BannedTokenStore{rdb: rdb, ttl: ttl}
}

func (s *BannedTokenStore) Revoke(ctx context.Context, token string) error {
	if err := s.rdb.Set(ctx, bannedTokenKeyPrefix+token, true, s.ttl).Err(); err != nil {
		return fmt.Errorf("setting banned token: %w", err)
	}
	return nil
}

func (s *BannedTokenStore) IsRevoked(ctx context.Context, token string) (bool, error) {
	n, err := s.rdb.Exists(ctx, bannedTokenKeyPrefix+token).Result()
	if err != nil {
		return false, fmt.Errorf("checking banned token: %w", err)
	}
	return n > 0, nil
}

// Clear removes every banned-token entry. Only keys under this store's
// prefix are touched; the 2FA keyspace and any co-located data survive.
func (s *BannedTokenStore) Clear(ctx context.Context) error {
	iter := s.rdb.Scan(ctx, 0, bannedTokenKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := s.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("deleting banned token: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scanning banned tokens: %w", err)
	}
	return nil
}

// TwoFACodeStore is a Redis-backed auth.TwoFACodeStore.
type TwoFACodeStore struct {
	rdb *redis.Client
	ttl time.Duration
}

var _ auth.TwoFACodeStore = (*TwoFACodeStore)(nil)

// NewTwoFACodeStore creates a store whose challenges expire after ttl.
func NewTwoFACodeStore(rdb *redis.Client, ttl time.Duration) *TwoFACodeStore {
	return &TwoFACodeStore{rdb: rdb, ttl: ttl}
}

type twoFARecord struct {
	LoginAttemptID string `json:"login_attempt_id"`
	Code           string `json:"code"`
}

func (s *TwoFACodeStore) Put(ctx context.Context, email auth.Email, id auth.LoginAttemptID, code auth.TwoFACode) error {
	data, err := json.Marshal(twoFARecord{
		LoginAttemptID: id.String(),
		Code:           code.Expose(),
	})
	if err != nil {
		return fmt.Errorf("serializing 2fa challenge: %w", err)
	}
	// Plain SET: overwriting a pending challenge for the same identity
	// is the intended supersession behavior.
	if err := s.rdb.Set(ctx, twoFACodeKeyPrefix+email.String(), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("setting 2fa challenge: %w", err)
	}
	return nil
}

func (s *TwoFACodeStore) Get(ctx context.Context, email auth.Email) (auth.LoginAttemptID, auth.TwoFACode, error) {
	data, err := s.rdb.Get(ctx, twoFACodeKeyPrefix+email.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return auth.LoginAttemptID{}, auth.TwoFACode{}, auth.ErrNotFound
	}
	if err != nil {
		return auth.LoginAttemptID{}, auth.TwoFACode{}, fmt.Errorf("getting 2fa challenge: %w", err)
	}

	var rec twoFARecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return auth.LoginAttemptID{}, auth.TwoFACode{}, fmt.Errorf("deserializing 2fa challenge: %w", err)
	}
	id, err := auth.ParseLoginAttemptID(rec.LoginAttemptID)
	if err != nil {
		return auth.LoginAttemptID{}, auth.TwoFACode{}, err
	}
	code, err := auth.ParseTwoFACode(rec.Code)
	if err != nil {
		return auth.LoginAttemptID{}, auth.TwoFACode{}, err
	}
	return id, code, nil
}

func (s *TwoFACodeStore) Remove(ctx context.Context, email auth.Email) error {
	n, err := s.rdb.Del(ctx, twoFACodeKeyPrefix+email.String()).Result()
	if err != nil {
		return fmt.Errorf("deleting 2fa challenge: %w", err)
	}
	if n == 0 {
		return auth.ErrNotFound
	}
	return nil
}
