package auth

// User is the canonical credential record for one identity. PasswordHash
// is an Argon2id PHC-formatted string; the plaintext password never
// appears here.
type User struct {
	Email        Email
	PasswordHash string
	Requires2FA  bool
}
