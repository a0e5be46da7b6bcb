// Package auth defines the domain types, error taxonomy, and store
// contracts shared by every component of the authentication service.
package auth

import (
	"fmt"
	"net/mail"

	"golang.org/x/text/unicode/norm"
)

// Email is a validated, case-sensitive user identity. It is the unique
// key across the user, banned-token, and 2FA code stores. Equality and
// hashing operate on the NFC-normalized string value.
type Email struct {
	addr string
}

// ParseEmail validates and normalizes an email address.
func ParseEmail(raw string) (Email, error) {
	raw = norm.NFC.String(raw)
	if raw == "" {
		return Email{}, ErrInvalidEmail
	}
	parsed, err := mail.ParseAddress(raw)
	if err != nil || parsed.Address != raw {
		return Email{}, fmt.Errorf("%w: not an address", ErrInvalidEmail)
	}
	return Email{addr: raw}, nil
}

func (e Email) String() string {
	return e.addr
}

// IsZero reports whether the email is the unparsed zero value.
func (e Email) IsZero() bool {
	return e.addr == ""
}
