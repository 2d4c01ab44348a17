// Package cryptox implements password hashing for stored accounts.
//
// New hashes use argon2id encoded in PHC string format:
//
//	$argon2id$v=19$m=65536,t=1,p=4$<salt>$<key>
//
// bcrypt hashes ($2a$, $2b$, $2y$) are accepted by Verify so that accounts
// imported from the legacy store can still log in.
package cryptox

import (
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrijs2005/vidkeeper/internal/common"
)

const (
	argon2Time    = 1
	argon2Memory  = 64 * 1024
	argon2Threads = 4
	argon2SaltLen = 16
	argon2KeyLen  = 32
)

// ErrEmptyPassword is returned when attempting to hash an empty password.
var ErrEmptyPassword = oops.Code("CREDENTIAL_EMPTY_PASSWORD").Errorf("password cannot be empty")

// Hasher hashes and verifies passwords.
type Hasher interface {
	// Hash derives a salted one-way hash of password.
	Hash(password string) (string, error)

	// Verify reports whether password matches hash. A malformed hash is an error.
	Verify(password, hash string) (bool, error)
}

// Argon2idHasher implements Hasher with argon2id.
type Argon2idHasher struct{}

func NewArgon2idHasher() *Argon2idHasher {
	return &Argon2idHasher{}
}

func (h *Argon2idHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	salt := common.GenerateRandByteArray(argon2SaltLen)
	pw := []byte(password)
	defer common.WipeByteArray(pw)

	key := argon2.IDKey(pw, salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argon2Memory, argon2Time, argon2Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

func (h *Argon2idHasher) Verify(password, encoded string) (bool, error) {
	if isBcrypt(encoded) {
		err := bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password))
		switch {
		case err == nil:
			return true, nil
		case err == bcrypt.ErrMismatchedHashAndPassword:
			return false, nil
		default:
			return false, oops.Code("CREDENTIAL_INVALID_HASH").Wrap(err)
		}
	}

	params, salt, expected, err := decodeArgon2id(encoded)
	if err != nil {
		return false, err
	}

	pw := []byte(password)
	defer common.WipeByteArray(pw)

	computed := argon2.IDKey(pw, salt, params.time, params.memory, params.threads, uint32(len(expected)))

	return subtle.ConstantTimeCompare(computed, expected) == 1, nil
}

type argon2Params struct {
	memory  uint32
	time    uint32
	threads uint8
}

func decodeArgon2id(encoded string) (argon2Params, []byte, []byte, error) {
	var p argon2Params

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 {
		return p, nil, nil, oops.Code("CREDENTIAL_INVALID_HASH").Errorf("invalid hash format")
	}
	if parts[1] != "argon2id" {
		return p, nil, nil, oops.Code("CREDENTIAL_INVALID_HASH").Errorf("unsupported hash algorithm: %s", parts[1])
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return p, nil, nil, oops.Code("CREDENTIAL_INVALID_HASH").Wrap(err)
	}
	if version != argon2.Version {
		return p, nil, nil, oops.Code("CREDENTIAL_INVALID_HASH").Errorf("unsupported argon2 version: %d", version)
	}

	var threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.time, &threads); err != nil {
		return p, nil, nil, oops.Code("CREDENTIAL_INVALID_HASH").Wrap(err)
	}
	if threads == 0 || threads > 255 {
		return p, nil, nil, oops.Code("CREDENTIAL_INVALID_HASH").Errorf("invalid parallelism: %d", threads)
	}
	p.threads = uint8(threads)

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return p, nil, nil, oops.Code("CREDENTIAL_INVALID_HASH").Wrap(err)
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return p, nil, nil, oops.Code("CREDENTIAL_INVALID_HASH").Wrap(err)
	}
	if len(key) == 0 || len(key) > 1024 {
		return p, nil, nil, oops.Code("CREDENTIAL_INVALID_HASH").Errorf("invalid key length: %d", len(key))
	}

	return p, salt, key, nil
}

func isBcrypt(hash string) bool {
	return strings.HasPrefix(hash, "$2a$") || strings.HasPrefix(hash, "$2b$") || strings.HasPrefix(hash, "$2y$")
}
