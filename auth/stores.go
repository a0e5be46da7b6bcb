package auth

import "context"

// UserStore owns the canonical email → credential mapping. Implementations
// must be safe for concurrent use; each call is atomic and carries the
// caller's context for transport timeouts.
type UserStore interface {
	// Add stores a new credential. Returns ErrAlreadyExists if the
	// identity is already present.
	Add(ctx context.Context, user User) error
	// Get returns the credential for email, or ErrNotFound.
	Get(ctx context.Context, email Email) (User, error)
	// Delete removes the credential for email, or returns ErrNotFound.
	Delete(ctx context.Context, email Email) error
	// Validate verifies password against the stored hash. Returns
	// ErrNotFound for an unknown identity and ErrInvalidCredentials on
	// hash mismatch. Implementations never log either secret.
	Validate(ctx context.Context, email Email, password Password) error
}

// BannedTokenStore owns the set of revoked session tokens. Entries expire
// after the token TTL so the set never outgrows the tokens it revokes.
type BannedTokenStore interface {
	// Revoke marks a token as unusable. Idempotent.
	Revoke(ctx context.Context, token string) error
	// IsRevoked reports whether the token has been revoked.
	IsRevoked(ctx context.Context, token string) (bool, error)
	// Clear removes all entries. Test and maintenance hook only.
	Clear(ctx context.Context) error
}

// TwoFACodeStore owns pending 2FA challenges, one per identity. Put
// unconditionally overwrites any prior challenge for the same email:
// only the most recent login attempt's code is ever valid.
type TwoFACodeStore interface {
	Put(ctx context.Context, email Email, id LoginAttemptID, code TwoFACode) error
	// Get returns the pending challenge, or ErrNotFound if none exists
	// (never issued, consumed, superseded, or expired).
	Get(ctx context.Context, email Email) (LoginAttemptID, TwoFACode, error)
	Remove(ctx context.Context, email Email) error
}
