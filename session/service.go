// Package session implements the login, two-factor, and logout flows on
// top of the store contracts and the token service. It owns the mapping
// from store-level failures to the service error taxonomy: nothing a
// store returns crosses the API boundary verbatim.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/gskelton/gatehouse/auth"
	"github.com/gskelton/gatehouse/crypto"
	"github.com/gskelton/gatehouse/email"
	"github.com/gskelton/gatehouse/token"
)

// Service orchestrates the authentication flows. It holds no locks
// across steps; every store call is atomic and carries the request
// context.
type Service struct {
	users  auth.UserStore
	codes  auth.TwoFACodeStore
	tokens *token.Service
	hasher *crypto.Hasher
	sender email.Sender
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithEmailSender sets the outbound mail implementation used for 2FA
// code delivery. Defaults to a log-only sender.
func WithEmailSender(sender email.Sender) Option {
	return func(s *Service) {
		s.sender = sender
	}
}

// WithLogger sets the structured logger for security events. If not
// set, a JSON logger writing to stderr is used.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// New creates a session Service.
func New(users auth.UserStore, codes auth.TwoFACodeStore, tokens *token.Service, hasher *crypto.Hasher, opts ...Option) *Service {
	s := &Service{
		users:  users,
		codes:  codes,
		tokens: tokens,
		hasher: hasher,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewJSONHandler(os.Stderr, nil))
	}
	if s.sender == nil {
		s.sender = email.NewLogSender(s.logger)
	}
	return s
}

// LoginResult is the outcome of a successful Login call. Either Token
// is set (session issued immediately) or TwoFactor is true and
// LoginAttemptID correlates the pending challenge.
type LoginResult struct {
	Token          string
	TwoFactor      bool
	LoginAttemptID string
}

// Signup creates a new credential. The password is hashed before it is
// handed to the user store; the plaintext never leaves this call.
func (s *Service) Signup(ctx context.Context, emailRaw, passwordRaw string, requires2FA bool) error {
	addr, err := auth.ParseEmail(emailRaw)
	if err != nil {
		return auth.ErrInvalidEmail
	}
	password, err := auth.ParsePassword(passwordRaw)
	if err != nil {
		return auth.ErrInvalidPassword
	}

	hash, err := s.hasher.Hash(ctx, password.Expose())
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	err = s.users.Add(ctx, auth.User{
		Email:        addr,
		PasswordHash: hash,
		Requires2FA:  requires2FA,
	})
	if err != nil {
		if errors.Is(err, auth.ErrAlreadyExists) {
			return auth.ErrUserAlreadyExists
		}
		return fmt.Errorf("adding user: %w", err)
	}

	s.logger.InfoContext(ctx, "user created", "event", "signup", "requires_2fa", requires2FA)
	return nil
}

// Login validates credentials and either issues a session token or
// opens a 2FA challenge. Malformed input, an unknown identity, and a
// wrong password all collapse to auth.ErrIncorrectCredentials so the
// response never reveals whether the account exists.
func (s *Service) Login(ctx context.Context, emailRaw, passwordRaw string) (LoginResult, error) {
	addr, err := auth.ParseEmail(emailRaw)
	if err != nil {
		return LoginResult{}, auth.ErrIncorrectCredentials
	}
	password, err := auth.ParsePassword(passwordRaw)
	if err != nil {
		return LoginResult{}, auth.ErrIncorrectCredentials
	}

	if err := s.users.Validate(ctx, addr, password); err != nil {
		switch {
		case errors.Is(err, auth.ErrNotFound), errors.Is(err, auth.ErrInvalidCredentials):
			s.logger.InfoContext(ctx, "login rejected", "event", "login_failure")
			return LoginResult{}, auth.ErrIncorrectCredentials
		default:
			return LoginResult{}, fmt.Errorf("validating credentials: %w", err)
		}
	}

	// Re-fetch after validation; a concurrent deletion between the two
	// calls surfaces as incorrect credentials, which is the accepted
	// outcome of that race.
	user, err := s.users.Get(ctx, addr)
	if err != nil {
		return LoginResult{}, auth.ErrIncorrectCredentials
	}

	if !user.Requires2FA {
		tok, err := s.tokens.Issue(ctx, user.Email)
		if err != nil {
			return LoginResult{}, fmt.Errorf("issuing token: %w", err)
		}
		s.logger.InfoContext(ctx, "session issued", "event", "login_success")
		return LoginResult{Token: tok}, nil
	}

	return s.openChallenge(ctx, user.Email)
}

func (s *Service) openChallenge(ctx context.Context, addr auth.Email) (LoginResult, error) {
	id := auth.NewLoginAttemptID()
	code, err := auth.NewTwoFACode()
	if err != nil {
		return LoginResult{}, err
	}

	// Put overwrites any pending challenge for this identity: the old
	// login attempt ID becomes permanently unusable.
	if err := s.codes.Put(ctx, addr, id, code); err != nil {
		return LoginResult{}, fmt.Errorf("storing 2fa challenge: %w", err)
	}

	body := fmt.Sprintf("The 2FA code requested is: %s", code.Expose())
	if err := s.sender.Send(ctx, addr, "2FA code", body); err != nil {
		return LoginResult{}, fmt.Errorf("sending 2fa code: %w", err)
	}

	s.logger.InfoContext(ctx, "2fa challenge issued", "event", "2fa_issued")
	return LoginResult{TwoFactor: true, LoginAttemptID: id.String()}, nil
}

// Verify2FA consumes a pending challenge. The attempt ID and code must
// both match by exact string equality; any mismatch, a missing
// challenge, and a malformed email fail uniformly. A successful
// verification issues the session token first and then removes the
// challenge; if removal fails the session stands and the failure is
// only logged, since the challenge self-expires.
func (s *Service) Verify2FA(ctx context.Context, emailRaw, attemptIDRaw, codeRaw string) (string, error) {
	addr, err := auth.ParseEmail(emailRaw)
	if err != nil {
		return "", auth.ErrIncorrectCredentials
	}

	id, code, err := s.codes.Get(ctx, addr)
	if err != nil {
		return "", auth.ErrIncorrectCredentials
	}
	if attemptIDRaw != id.String() {
		return "", auth.ErrIncorrectCredentials
	}
	if codeRaw != code.Expose() {
		return "", auth.ErrIncorrectCredentials
	}

	tok, err := s.tokens.Issue(ctx, addr)
	if err != nil {
		return "", fmt.Errorf("issuing token: %w", err)
	}

	if err := s.codes.Remove(ctx, addr); err != nil {
		s.logger.WarnContext(ctx, "removing consumed 2fa challenge failed",
			"event", "2fa_cleanup_failure", "error", err)
	}

	s.logger.InfoContext(ctx, "2fa verified", "event", "2fa_success")
	return tok, nil
}

// Logout revokes a session token. The token must still verify; a second
// logout with the same token fails with auth.ErrInvalidToken because
// the first revocation makes verification fail.
func (s *Service) Logout(ctx context.Context, tokenStr string) error {
	if _, err := s.tokens.Verify(ctx, tokenStr); err != nil {
		return auth.ErrInvalidToken
	}
	if err := s.tokens.Revoke(ctx, tokenStr); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "session revoked", "event", "logout")
	return nil
}

// VerifyToken is the stateless authorization query used by downstream
// services. It mutates nothing.
func (s *Service) VerifyToken(ctx context.Context, tokenStr string) (*token.Claims, error) {
	return s.tokens.Verify(ctx, tokenStr)
}

// DeleteUser removes a credential by email.
func (s *Service) DeleteUser(ctx context.Context, emailRaw string) error {
	addr, err := auth.ParseEmail(emailRaw)
	if err != nil {
		return auth.ErrInvalidEmail
	}
	if err := s.users.Delete(ctx, addr); err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			return auth.ErrUserNotFound
		}
		return fmt.Errorf("deleting user: %w", err)
	}
	s.logger.InfoContext(ctx, "user deleted", "event", "user_deleted")
	return nil
}
