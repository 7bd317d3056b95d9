// Package auth provides salted password hashing for the persistence gateway
// using PBKDF2-SHA256. The relay core never compares passwords itself; it
// always goes through HashPassword and VerifyPassword.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	scheme     = "pbkdf2-sha256"
	saltSize   = 16
	keySize    = 32
	iterations = 600_000
)

// ErrInvalidHash marks a stored hash that does not match the expected
// scheme$iterations$salt$key layout.
var ErrInvalidHash = errors.New("invalid password hash format")

// HashPassword hashes a password with a fresh random salt. The result is a
// self-describing string: pbkdf2-sha256$<iterations>$<b64 salt>$<b64 key>.
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	key := pbkdf2.Key([]byte(password), salt, iterations, keySize, sha256.New)

	return strings.Join([]string{
		scheme,
		strconv.Itoa(iterations),
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	}, "$"), nil
}

// VerifyPassword reports whether password matches the stored hash. The
// iteration count is taken from the hash so old records stay verifiable
// after the default changes.
func VerifyPassword(password, encoded string) (bool, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 4 || parts[0] != scheme {
		return false, ErrInvalidHash
	}

	iter, err := strconv.Atoi(parts[1])
	if err != nil || iter < 1 {
		return false, ErrInvalidHash
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[2])
	if err != nil {
		return false, ErrInvalidHash
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[3])
	if err != nil {
		return false, ErrInvalidHash
	}

	got := pbkdf2.Key([]byte(password), salt, iter, len(want), sha256.New)
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}
