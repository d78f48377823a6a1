package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const passwordHashCost = 10

// ErrPasswordMismatch indicates the plaintext does not match the stored hash.
// Any other verification failure is an internal error, never a silent "no match".
var ErrPasswordMismatch = errors.New("auth: password mismatch")

// PasswordHasher hashes and verifies passwords with bcrypt.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher constructs a hasher with the fixed production cost.
func NewPasswordHasher() *PasswordHasher {
	return &PasswordHasher{cost: passwordHashCost}
}

// Hash derives a salted one-way hash from the plaintext password.
func (h *PasswordHasher) Hash(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}
	return string(hashed), nil
}

// Verify compares plaintext against the stored hash. A mismatch returns
// ErrPasswordMismatch; a malformed hash surfaces as an internal error.
func (h *PasswordHasher) Verify(plaintext, hashed string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plaintext))
	if err == nil {
		return nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrPasswordMismatch
	}
	return fmt.Errorf("auth: verifying password: %w", err)
}
