// Package secrets generates and checks the bcrypt-hashed service keys
// presented on the internal API.
package secrets

import (
	"crypto/rand"
	"encoding/base64"
	"errors"

	"golang.org/x/crypto/bcrypt"

	dErrors "doceo/pkg/domain-errors"
)

const keyBytes = 32

// Generate returns a fresh service key: random bytes encoded as
// unpadded base64url, safe to paste into env files and headers.
func Generate() (string, error) {
	buf := make([]byte, keyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "could not generate secret")
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Hash derives the bcrypt digest stored in configuration. Only the digest
// is kept server-side; the plaintext key lives with the sibling service.
func Hash(secret string) (string, error) {
	if secret == "" {
		return "", dErrors.New(dErrors.CodeValidation, "secret cannot be empty")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	switch {
	case err == nil:
		return string(hashed), nil
	case errors.Is(err, bcrypt.ErrPasswordTooLong):
		return "", dErrors.New(dErrors.CodeValidation, "secret is too long")
	default:
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "could not hash secret")
	}
}

// Verify reports nil when secret matches hash. Mismatches surface as
// unauthorized domain errors the middleware can write straight out.
func Verify(secret, hash string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return dErrors.New(dErrors.CodeUnauthorized, "invalid secret")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "could not verify secret")
	}
}
