// Package token issues and verifies signed session tokens. It is the
// only component holding the signing secret, which lives in a memguard
// enclave and is decrypted only for the duration of a sign or verify
// operation.
package token

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/awnumar/memguard"
	"github.com/golang-jwt/jwt/v5"

	"github.com/gskelton/gatehouse/auth"
)

// CookieName is the session cookie carrying the signed token.
const CookieName = "jwt"

// DefaultTTL bounds session token validity. The banned-token store uses
// the same TTL so a revoked token is forgotten exactly when it would
// have expired on its own.
const DefaultTTL = 10 * time.Minute

// Claims are the payload of a session token: the subject identity and
// the registered expiry.
type Claims struct {
	jwt.RegisteredClaims
}

// Email returns the subject identity of verified claims.
func (c *Claims) Email() (auth.Email, error) {
	return auth.ParseEmail(c.Subject)
}

// Service signs and verifies session tokens.
type Service struct {
	secret *memguard.Enclave
	ttl    time.Duration
	banned auth.BannedTokenStore
}

// Option configures a Service.
type Option func(*Service)

// WithTTL overrides the default token lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.ttl = ttl
	}
}

// NewService creates a token Service. signingKey is copied into an
// enclave and the source slice is wiped; it must not be empty. banned
// is consulted on every Verify.
func NewService(signingKey []byte, banned auth.BannedTokenStore, opts ...Option) (*Service, error) {
	if len(signingKey) == 0 {
		return nil, fmt.Errorf("signing key must not be empty")
	}
	s := &Service{
		secret: memguard.NewEnclave(signingKey),
		ttl:    DefaultTTL,
		banned: banned,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// TTL returns the configured token lifetime.
func (s *Service) TTL() time.Duration {
	return s.ttl
}

// Issue signs a new token for email, expiring TTL from now.
func (s *Service) Issue(ctx context.Context, email auth.Email) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	key, err := s.secret.Open()
	if err != nil {
		return "", fmt.Errorf("opening signing key enclave: %w", err)
	}
	defer key.Destroy()

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key.Bytes())
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Verify checks revocation, signature, and expiry. It fails uniformly
// with auth.ErrInvalidToken regardless of which sub-check failed, so
// callers cannot distinguish a revoked token from a forged or expired
// one.
func (s *Service) Verify(ctx context.Context, tokenStr string) (*Claims, error) {
	revoked, err := s.banned.IsRevoked(ctx, tokenStr)
	if err != nil || revoked {
		return nil, auth.ErrInvalidToken
	}

	key, err := s.secret.Open()
	if err != nil {
		return nil, auth.ErrInvalidToken
	}
	defer key.Destroy()

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenStr, claims,
		func(t *jwt.Token) (any, error) { return key.Bytes(), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		return nil, auth.ErrInvalidToken
	}
	return claims, nil
}

// Revoke marks tokenStr as unusable until it would have expired.
func (s *Service) Revoke(ctx context.Context, tokenStr string) error {
	if err := s.banned.Revoke(ctx, tokenStr); err != nil {
		return fmt.Errorf("revoking token: %w", err)
	}
	return nil
}

// NewCookie wraps a signed token in the session cookie. This is the
// only place a token crosses the service boundary outside signed-string
// form.
func NewCookie(tokenStr string) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    tokenStr,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// ClearedCookie returns a cookie that instructs the client to drop the
// session cookie.
func ClearedCookie() *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	}
}
