package auth

import "errors"

// Service-boundary error taxonomy. The HTTP layer maps exactly these
// sentinels to status codes; anything else is treated as an unexpected
// internal failure and never exposed to the client.
var (
	// ErrInvalidEmail and ErrInvalidPassword reject malformed input
	// where revealing the reason is safe (signup, user deletion).
	ErrInvalidEmail    = errors.New("invalid email address")
	ErrInvalidPassword = errors.New("invalid password")

	// ErrIncorrectCredentials is the uniform login/2FA failure. Unknown
	// user, wrong password, wrong or expired 2FA code, and mismatched
	// login attempt ID are deliberately indistinguishable to prevent
	// account enumeration.
	ErrIncorrectCredentials = errors.New("incorrect credentials")

	ErrUserAlreadyExists = errors.New("user already exists")
	ErrUserNotFound      = errors.New("user not found")

	ErrMissingToken = errors.New("missing auth token")
	ErrInvalidToken = errors.New("invalid auth token")
)

// Store-level errors returned by UserStore, BannedTokenStore, and
// TwoFACodeStore implementations. The orchestrator translates these to
// the service-boundary taxonomy above before they cross the API.
var (
	ErrNotFound           = errors.New("not found")
	ErrAlreadyExists      = errors.New("already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)
