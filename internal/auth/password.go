// Package auth provides password hashing for player accounts. Passwords are
// optional; an empty hash means the account has no password set.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
	saltLen      = 16
)

// ErrInvalidHash indicates a stored hash could not be parsed.
var ErrInvalidHash = errors.New("invalid password hash")

// HashPassword derives an argon2id hash from the password with a random
// salt. An empty password yields an empty hash, meaning no password is
// required on login.
func HashPassword(password string) (string, error) {
	password = strings.TrimSpace(password)
	if password == "" {
		return "", nil
	}

	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)
	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argonMemory, argonTime, argonThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// VerifyPassword checks a password attempt against a stored hash. Accounts
// without a password (empty hash) accept only an empty attempt.
func VerifyPassword(password, hash string) bool {
	if strings.TrimSpace(hash) == "" {
		return strings.TrimSpace(password) == ""
	}

	salt, key, memory, time, threads, err := decodeHash(hash)
	if err != nil {
		return false
	}

	attempt := argon2.IDKey([]byte(strings.TrimSpace(password)), salt, time, memory, threads, uint32(len(key)))
	return subtle.ConstantTimeCompare(attempt, key) == 1
}

func decodeHash(hash string) (salt, key []byte, memory, timeCost uint32, threads uint8, err error) {
	parts := strings.Split(hash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return nil, nil, 0, 0, 0, ErrInvalidHash
	}

	var version int
	if _, err = fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return nil, nil, 0, 0, 0, ErrInvalidHash
	}
	if version != argon2.Version {
		return nil, nil, 0, 0, 0, ErrInvalidHash
	}

	if _, err = fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &timeCost, &threads); err != nil {
		return nil, nil, 0, 0, 0, ErrInvalidHash
	}

	salt, err = base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, nil, 0, 0, 0, ErrInvalidHash
	}
	key, err = base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return nil, nil, 0, 0, 0, ErrInvalidHash
	}
	return salt, key, memory, timeCost, threads, nil
}
