package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEmail(t *testing.T) {
	t.Run("valid addresses", func(t *testing.T) {
		for _, addr := range []string{
			"alice@test.com",
			"bob.smith@example.org",
			"user+tag@sub.domain.io",
		} {
			email, err := ParseEmail(addr)
			require.NoError(t, err, addr)
			assert.Equal(t, addr, email.String())
		}
	})

	t.Run("invalid addresses", func(t *testing.T) {
		for _, addr := range []string{
			"",
			"ursuladomain.com",
			"@domain.com",
			"spaces in@address.com",
			"Display Name <alice@test.com>",
		} {
			_, err := ParseEmail(addr)
			assert.ErrorIs(t, err, ErrInvalidEmail, addr)
		}
	})

	t.Run("case sensitive", func(t *testing.T) {
		lower, err := ParseEmail("alice@test.com")
		require.NoError(t, err)
		upper, err := ParseEmail("Alice@test.com")
		require.NoError(t, err)
		assert.NotEqual(t, lower, upper)
	})

	t.Run("zero value", func(t *testing.T) {
		assert.True(t, Email{}.IsZero())
		email, err := ParseEmail("alice@test.com")
		require.NoError(t, err)
		assert.False(t, email.IsZero())
	})
}
