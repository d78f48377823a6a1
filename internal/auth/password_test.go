package auth

import (
	"errors"
	"testing"
)

func TestPasswordHashIsOneWay(t *testing.T) {
	hasher := NewPasswordHasher()

	hashed, err := hasher.Hash("secret1")
	if err != nil {
		t.Fatalf("unexpected hash error: %v", err)
	}
	if hashed == "secret1" {
		t.Fatalf("hash must never equal the plaintext")
	}

	if err := hasher.Verify("secret1", hashed); err != nil {
		t.Fatalf("expected matching password to verify: %v", err)
	}
	if err := hasher.Verify("wrong-password", hashed); !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("expected ErrPasswordMismatch, got %v", err)
	}
}

func TestPasswordHashesAreSalted(t *testing.T) {
	hasher := NewPasswordHasher()

	first, err := hasher.Hash("secret1")
	if err != nil {
		t.Fatalf("unexpected hash error: %v", err)
	}
	second, err := hasher.Hash("secret1")
	if err != nil {
		t.Fatalf("unexpected hash error: %v", err)
	}
	if first == second {
		t.Fatalf("expected distinct salted hashes for equal plaintexts")
	}
}

func TestPasswordVerifySurfacesMalformedHashAsInternal(t *testing.T) {
	hasher := NewPasswordHasher()

	err := hasher.Verify("secret1", "not-a-bcrypt-hash")
	if err == nil {
		t.Fatalf("expected error for malformed stored hash")
	}
	if errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("malformed hash must not be reported as a mismatch")
	}
}
