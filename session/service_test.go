package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gskelton/gatehouse/auth"
	"github.com/gskelton/gatehouse/crypto"
	"github.com/gskelton/gatehouse/store/memory"
	"github.com/gskelton/gatehouse/token"
)

// captureSender records outbound mail so tests can read the delivered
// 2FA code out-of-band.
type captureSender struct {
	mu   sync.Mutex
	last struct {
		to      auth.Email
		subject string
		body    string
	}
	err error
}

func (c *captureSender) Send(ctx context.Context, to auth.Email, subject, body string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.last.to = to
	c.last.subject = subject
	c.last.body = body
	return nil
}

func (c *captureSender) lastCode(t *testing.T) string {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	require.NotEmpty(t, c.last.body)
	code := c.last.body[len(c.last.body)-auth.TwoFACodeLength:]
	return code
}

type fixture struct {
	svc    *Service
	sender *captureSender
	codes  *memory.TwoFACodeStore
	banned *memory.BannedTokenStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	hasher := crypto.NewHasher(4, crypto.WithParams(crypto.Argon2idParams{
		Time: 1, MemoryKiB: 8 * 1024, Parallelism: 1, KeyLen: 32,
	}))
	users := memory.NewUserStore(hasher)
	codes := memory.NewTwoFACodeStore(10 * time.Minute)
	banned := memory.NewBannedTokenStore(token.DefaultTTL)
	tokens, err := token.NewService([]byte("test-signing-key"), banned)
	require.NoError(t, err)
	sender := &captureSender{}
	svc := New(users, codes, tokens, hasher,
		WithEmailSender(sender),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	return &fixture{svc: svc, sender: sender, codes: codes, banned: banned}
}

func TestSignupAndLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.Signup(ctx, "alice@test.com", "abcDEF123", false))

	res, err := f.svc.Login(ctx, "alice@test.com", "abcDEF123")
	require.NoError(t, err)
	assert.False(t, res.TwoFactor)
	assert.NotEmpty(t, res.Token)

	claims, err := f.svc.VerifyToken(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice@test.com", claims.Subject)
}

func TestSignupRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.ErrorIs(t, f.svc.Signup(ctx, "not-an-email", "abcDEF123", false), auth.ErrInvalidEmail)
	assert.ErrorIs(t, f.svc.Signup(ctx, "alice@test.com", "weak", false), auth.ErrInvalidPassword)
}

func TestSignupDuplicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.Signup(ctx, "alice@test.com", "abcDEF123", false))
	assert.ErrorIs(t, f.svc.Signup(ctx, "alice@test.com", "abcDEF123", false), auth.ErrUserAlreadyExists)
}

func TestLoginFailuresAreUniform(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.Signup(ctx, "alice@test.com", "abcDEF123", false))

	// Unknown user, wrong password, and malformed input are
	// indistinguishable.
	_, errUnknown := f.svc.Login(ctx, "nobody@test.com", "abcDEF123")
	_, errWrongPW := f.svc.Login(ctx, "alice@test.com", "wrongPW123")
	_, errBadEmail := f.svc.Login(ctx, "not-an-email", "abcDEF123")
	_, errBadPW := f.svc.Login(ctx, "alice@test.com", "weak")

	for _, err := range []error{errUnknown, errWrongPW, errBadEmail, errBadPW} {
		assert.ErrorIs(t, err, auth.ErrIncorrectCredentials)
		assert.Equal(t, auth.ErrIncorrectCredentials.Error(), err.Error())
	}
}

func TestTwoFactorFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.Signup(ctx, "alice@test.com", "abcDEF123", true))

	res, err := f.svc.Login(ctx, "alice@test.com", "abcDEF123")
	require.NoError(t, err)
	require.True(t, res.TwoFactor)
	require.NotEmpty(t, res.LoginAttemptID)
	assert.Empty(t, res.Token)

	code := f.sender.lastCode(t)

	t.Run("wrong code rejected", func(t *testing.T) {
		wrong := "000000"
		if wrong == code {
			wrong = "000001"
		}
		_, err := f.svc.Verify2FA(ctx, "alice@test.com", res.LoginAttemptID, wrong)
		assert.ErrorIs(t, err, auth.ErrIncorrectCredentials)
	})

	t.Run("wrong attempt id rejected", func(t *testing.T) {
		_, err := f.svc.Verify2FA(ctx, "alice@test.com", auth.NewLoginAttemptID().String(), code)
		assert.ErrorIs(t, err, auth.ErrIncorrectCredentials)
	})

	t.Run("correct pair issues session once", func(t *testing.T) {
		tok, err := f.svc.Verify2FA(ctx, "alice@test.com", res.LoginAttemptID, code)
		require.NoError(t, err)
		require.NotEmpty(t, tok)

		_, err = f.svc.VerifyToken(ctx, tok)
		assert.NoError(t, err)

		// Challenge is single-use: the same pair fails on replay.
		_, err = f.svc.Verify2FA(ctx, "alice@test.com", res.LoginAttemptID, code)
		assert.ErrorIs(t, err, auth.ErrIncorrectCredentials)
	})
}

func TestSecondLoginSupersedesChallenge(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.Signup(ctx, "alice@test.com", "abcDEF123", true))

	first, err := f.svc.Login(ctx, "alice@test.com", "abcDEF123")
	require.NoError(t, err)
	firstCode := f.sender.lastCode(t)

	second, err := f.svc.Login(ctx, "alice@test.com", "abcDEF123")
	require.NoError(t, err)
	secondCode := f.sender.lastCode(t)
	require.NotEqual(t, first.LoginAttemptID, second.LoginAttemptID)

	// The first attempt ID is permanently unusable even though its
	// challenge never expired.
	_, err = f.svc.Verify2FA(ctx, "alice@test.com", first.LoginAttemptID, firstCode)
	assert.ErrorIs(t, err, auth.ErrIncorrectCredentials)

	_, err = f.svc.Verify2FA(ctx, "alice@test.com", second.LoginAttemptID, secondCode)
	assert.NoError(t, err)
}

func TestEmailFailureAbortsChallenge(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.Signup(ctx, "alice@test.com", "abcDEF123", true))
	f.sender.err = errors.New("ses unavailable")

	_, err := f.svc.Login(ctx, "alice@test.com", "abcDEF123")
	require.Error(t, err)
	assert.NotErrorIs(t, err, auth.ErrIncorrectCredentials)
}

// failingRemoveStore wraps a TwoFACodeStore so Remove always fails.
type failingRemoveStore struct {
	auth.TwoFACodeStore
}

func (f *failingRemoveStore) Remove(ctx context.Context, email auth.Email) error {
	return errors.New("store unavailable")
}

func TestChallengeRemovalFailureKeepsSession(t *testing.T) {
	hasher := crypto.NewHasher(4, crypto.WithParams(crypto.Argon2idParams{
		Time: 1, MemoryKiB: 8 * 1024, Parallelism: 1, KeyLen: 32,
	}))
	users := memory.NewUserStore(hasher)
	codes := &failingRemoveStore{TwoFACodeStore: memory.NewTwoFACodeStore(0)}
	tokens, err := token.NewService([]byte("test-signing-key"), memory.NewBannedTokenStore(0))
	require.NoError(t, err)
	sender := &captureSender{}
	svc := New(users, codes, tokens, hasher,
		WithEmailSender(sender),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	ctx := context.Background()

	require.NoError(t, svc.Signup(ctx, "alice@test.com", "abcDEF123", true))
	res, err := svc.Login(ctx, "alice@test.com", "abcDEF123")
	require.NoError(t, err)
	code := sender.lastCode(t)

	// Removal fails after issuance; the session must still be valid.
	tok, err := svc.Verify2FA(ctx, "alice@test.com", res.LoginAttemptID, code)
	require.NoError(t, err)
	_, err = svc.VerifyToken(ctx, tok)
	assert.NoError(t, err)
}

func TestLogoutFinality(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.Signup(ctx, "alice@test.com", "abcDEF123", false))
	res, err := f.svc.Login(ctx, "alice@test.com", "abcDEF123")
	require.NoError(t, err)

	_, err = f.svc.VerifyToken(ctx, res.Token)
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, res.Token))

	// The revoked token fails verification immediately after logout.
	_, err = f.svc.VerifyToken(ctx, res.Token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	// A second logout fails at the verify step.
	assert.ErrorIs(t, f.svc.Logout(ctx, res.Token), auth.ErrInvalidToken)
}

func TestDeleteUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.Signup(ctx, "alice@test.com", "abcDEF123", false))
	require.NoError(t, f.svc.DeleteUser(ctx, "alice@test.com"))
	assert.ErrorIs(t, f.svc.DeleteUser(ctx, "alice@test.com"), auth.ErrUserNotFound)
	assert.ErrorIs(t, f.svc.DeleteUser(ctx, "not-an-email"), auth.ErrInvalidEmail)

	_, err := f.svc.Login(ctx, "alice@test.com", "abcDEF123")
	assert.ErrorIs(t, err, auth.ErrIncorrectCredentials)
}
