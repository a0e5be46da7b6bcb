// Package crypto provides Argon2id password hashing behind a bounded
// worker pool so the deliberately expensive KDF cannot starve request
// handling under a login storm.
package crypto

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/gskelton/gatehouse/internal/util"
)

// ErrHashMismatch is returned when a password does not match its hash.
var ErrHashMismatch = errors.New("password hash mismatch")

const saltLen = 16

// Argon2idParams are the service-wide KDF cost parameters. Tuned so a
// single verification takes on the order of tens of milliseconds.
type Argon2idParams struct {
	Time        uint32
	MemoryKiB   uint32
	Parallelism uint8
	KeyLen      uint32
}

func DefaultArgon2idParams() Argon2idParams {
	return Argon2idParams{
		Time:        2,
		MemoryKiB:   15 * 1024,
		Parallelism: 1,
		KeyLen:      32,
	}
}

// hashPassword derives an Argon2id hash with a fresh random salt and
// returns it in PHC string format:
//
//	$argon2id$v=19$m=15360,t=2,p=1$<b64 salt>$<b64 key>
func hashPassword(password string, params Argon2idParams) (string, error) {
	salt, err := util.RandomBytes(saltLen)
	if err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}
	key := argon2.IDKey([]byte(util.Normalize(password)), salt,
		params.Time, params.MemoryKiB, params.Parallelism, params.KeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, params.MemoryKiB, params.Time, params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key)), nil
}

// verifyPassword re-derives the key using the parameters embedded in the
// encoded hash and compares in constant time. Returns ErrHashMismatch on
// any mismatch.
func verifyPassword(password, encoded string) error {
	params, salt, expected, err := decodeHash(encoded)
	if err != nil {
		return err
	}
	key := argon2.IDKey([]byte(util.Normalize(password)), salt,
		params.Time, params.MemoryKiB, params.Parallelism, params.KeyLen)
	if subtle.ConstantTimeCompare(key, expected) != 1 {
		return ErrHashMismatch
	}
	return nil
}

func decodeHash(encoded string) (Argon2idParams, []byte, []byte, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return Argon2idParams{}, nil, nil, fmt.Errorf("malformed argon2id hash")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return Argon2idParams{}, nil, nil, fmt.Errorf("parsing hash version: %w", err)
	}
	if version != argon2.Version {
		return Argon2idParams{}, nil, nil, fmt.Errorf("unsupported argon2 version %d", version)
	}

	var params Argon2idParams
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d",
		&params.MemoryKiB, &params.Time, &params.Parallelism); err != nil {
		return Argon2idParams{}, nil, nil, fmt.Errorf("parsing hash parameters: %w", err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return Argon2idParams{}, nil, nil, fmt.Errorf("decoding salt: %w", err)
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return Argon2idParams{}, nil, nil, fmt.Errorf("decoding key: %w", err)
	}
	params.KeyLen = uint32(len(key))

	return params, salt, key, nil
}
