package auth

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/gskelton/gatehouse/internal/util"
)

// TwoFACodeLength is the number of decimal digits in a generated 2FA code.
const TwoFACodeLength = 6

// ChallengeTTL is how long an issued 2FA challenge remains redeemable.
const ChallengeTTL = 10 * time.Minute

// LoginAttemptID correlates a client's 2FA submission with the login
// attempt that issued the challenge. Single-use by construction: each
// login attempt generates a fresh ID.
type LoginAttemptID struct {
	id string
}

// NewLoginAttemptID generates a fresh random attempt ID.
func NewLoginAttemptID() LoginAttemptID {
	return LoginAttemptID{id: uuid.NewString()}
}

// ParseLoginAttemptID validates an attempt ID received from storage.
func ParseLoginAttemptID(raw string) (LoginAttemptID, error) {
	if _, err := uuid.Parse(raw); err != nil {
		return LoginAttemptID{}, fmt.Errorf("parsing login attempt id: %w", err)
	}
	return LoginAttemptID{id: raw}, nil
}

func (l LoginAttemptID) String() string {
	return l.id
}

// TwoFACode is a 6-digit code delivered to the user out-of-band. Like
// Password it redacts itself everywhere except the explicit Expose call.
type TwoFACode struct {
	code string
}

// NewTwoFACode generates a random 6-digit code.
func NewTwoFACode() (TwoFACode, error) {
	code, err := util.RandomDigits(TwoFACodeLength)
	if err != nil {
		return TwoFACode{}, fmt.Errorf("generating 2fa code: %w", err)
	}
	return TwoFACode{code: code}, nil
}

// ParseTwoFACode validates a code received from storage.
func ParseTwoFACode(raw string) (TwoFACode, error) {
	if len(raw) != TwoFACodeLength {
		return TwoFACode{}, fmt.Errorf("2fa code must be %d digits", TwoFACodeLength)
	}
	for _, r := range raw {
		if r < '0' || r > '9' {
			return TwoFACode{}, fmt.Errorf("2fa code must be numeric")
		}
	}
	return TwoFACode{code: raw}, nil
}

// Expose returns the raw code for out-of-band delivery and comparison.
func (c TwoFACode) Expose() string {
	return c.code
}

func (c TwoFACode) String() string {
	return "[redacted]"
}

func (c TwoFACode) MarshalJSON() ([]byte, error) {
	return []byte(`"[redacted]"`), nil
}

func (c TwoFACode) LogValue() slog.Value {
	return slog.StringValue("[redacted]")
}
