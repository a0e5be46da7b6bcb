package crypto

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testParams() Argon2idParams {
	return Argon2idParams{Time: 1, MemoryKiB: 8 * 1024, Parallelism: 1, KeyLen: 32}
}

func TestHashAndVerify(t *testing.T) {
	h := NewHasher(2, WithParams(testParams()))
	ctx := context.Background()

	encoded, err := h.Hash(ctx, "abcDEF123")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(encoded, "$argon2id$v=19$"))

	t.Run("correct password", func(t *testing.T) {
		assert.NoError(t, h.Verify(ctx, "abcDEF123", encoded))
	})

	t.Run("wrong password", func(t *testing.T) {
		assert.ErrorIs(t, h.Verify(ctx, "wrongPW123", encoded), ErrHashMismatch)
	})

	t.Run("unique salts", func(t *testing.T) {
		other, err := h.Hash(ctx, "abcDEF123")
		require.NoError(t, err)
		assert.NotEqual(t, encoded, other)
		assert.NoError(t, h.Verify(ctx, "abcDEF123", other))
	})
}

func TestVerifyMalformedHash(t *testing.T) {
	h := NewHasher(1, WithParams(testParams()))
	ctx := context.Background()

	for name, encoded := range map[string]string{
		"empty":          "",
		"not a hash":     "plaintext",
		"wrong variant":  "$argon2i$v=19$m=8192,t=1,p=1$c2FsdA$aGFzaA",
		"missing fields": "$argon2id$v=19$m=8192",
		"bad base64":     "$argon2id$v=19$m=8192,t=1,p=1$!!!$aGFzaA",
	} {
		t.Run(name, func(t *testing.T) {
			err := h.Verify(ctx, "abcDEF123", encoded)
			require.Error(t, err)
			assert.NotErrorIs(t, err, ErrHashMismatch)
		})
	}
}

func TestNormalizedPasswordsMatch(t *testing.T) {
	h := NewHasher(1, WithParams(testParams()))
	ctx := context.Background()

	// U+FB01 (fi ligature) and "fi" normalize to the same NFKD form.
	encoded, err := h.Hash(ctx, "ﬁshPASS123")
	require.NoError(t, err)
	assert.NoError(t, h.Verify(ctx, "fishPASS123", encoded))
}

func TestCancelledContext(t *testing.T) {
	h := NewHasher(1, WithParams(testParams()))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.Hash(ctx, "abcDEF123")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, h.Verify(ctx, "abcDEF123", "x"), context.Canceled)
}
