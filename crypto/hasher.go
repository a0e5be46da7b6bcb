package crypto

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/semaphore"
)

// Hasher runs Argon2id hashing and verification under a weighted
// semaphore. Concurrent login storms queue behind the semaphore and
// degrade hashing throughput instead of starving the accept path; a
// cancelled context aborts a queued request before any work starts.
type Hasher struct {
	params Argon2idParams
	sem    *semaphore.Weighted
}

// HasherOption configures a Hasher.
type HasherOption func(*Hasher)

// WithParams overrides the default KDF cost parameters. Intended for
// tests; production deployments use the service-wide defaults.
func WithParams(params Argon2idParams) HasherOption {
	return func(h *Hasher) {
		h.params = params
	}
}

// NewHasher creates a Hasher bounded to the given number of concurrent
// hashing operations. workers <= 0 defaults to GOMAXPROCS.
func NewHasher(workers int64, opts ...HasherOption) *Hasher {
	if workers <= 0 {
		workers = int64(runtime.GOMAXPROCS(0))
	}
	h := &Hasher{
		params: DefaultArgon2idParams(),
		sem:    semaphore.NewWeighted(workers),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Hash derives a PHC-formatted Argon2id hash for password.
func (h *Hasher) Hash(ctx context.Context, password string) (string, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("acquiring hash worker: %w", err)
	}
	defer h.sem.Release(1)
	return hashPassword(password, h.params)
}

// Verify checks password against a PHC-formatted hash. Returns
// ErrHashMismatch when they do not match.
func (h *Hasher) Verify(ctx context.Context, password, encoded string) error {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("acquiring hash worker: %w", err)
	}
	defer h.sem.Release(1)
	return verifyPassword(password, encoded)
}
