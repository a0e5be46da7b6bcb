package auth

import (
	"log/slog"
	"unicode"
)

const minPasswordLen = 9

// Password is a validated plaintext password. The raw value is reachable
// only through Expose; String, MarshalJSON, and LogValue all redact it so
// the secret cannot leak through formatting or structured logging.
type Password struct {
	secret string
}

// ParsePassword enforces the password policy: at least 9 characters with
// at least one lowercase letter, one uppercase letter, and one digit.
func ParsePassword(raw string) (Password, error) {
	if len(raw) < minPasswordLen {
		return Password{}, ErrInvalidPassword
	}
	var hasLower, hasUpper, hasDigit bool
	for _, r := range raw {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLower || !hasUpper || !hasDigit {
		return Password{}, ErrInvalidPassword
	}
	return Password{secret: raw}, nil
}

// Expose returns the raw password. Callers must not log or persist it.
func (p Password) Expose() string {
	return p.secret
}

func (p Password) String() string {
	return "[redacted]"
}

func (p Password) MarshalJSON() ([]byte, error) {
	return []byte(`"[redacted]"`), nil
}

func (p Password) LogValue() slog.Value {
	return slog.StringValue("[redacted]")
}
