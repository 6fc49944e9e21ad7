package application

import (
	"errors"
	"testing"
)

// fastParams keeps argon2 cheap in tests.
var fastParams = Argon2idParams{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 8, KeyLength: 16}

func TestCreateAndVerifyKey(t *testing.T) {
	t.Parallel()

	hash, err := CreateKeyHash("s3cret", fastParams)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := VerifyKey(hash, "s3cret"); err != nil {
		t.Fatalf("expected key to verify, got %v", err)
	}
	if err := VerifyKey(hash, "wrong"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if err := VerifyKey("not-a-hash", "s3cret"); !errors.Is(err, ErrInvalidKeyHash) {
		t.Fatalf("expected ErrInvalidKeyHash, got %v", err)
	}
	if _, err := CreateKeyHash("  ", fastParams); err == nil {
		t.Fatal("expected blank key to be rejected")
	}
}

func TestOperatorAuthenticator(t *testing.T) {
	t.Parallel()

	t.Run("disabled without hash", func(t *testing.T) {
		t.Parallel()

		auth, err := NewOperatorAuthenticator("")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if auth.Enabled() {
			t.Fatal("expected authenticator to be disabled")
		}
		if err := auth.Authenticate(""); err != nil {
			t.Fatalf("expected disabled authenticator to admit caller, got %v", err)
		}
	})

	t.Run("rejects malformed hash", func(t *testing.T) {
		t.Parallel()

		if _, err := NewOperatorAuthenticator("plain"); !errors.Is(err, ErrInvalidKeyHash) {
			t.Fatalf("expected ErrInvalidKeyHash, got %v", err)
		}
	})

	t.Run("checks key", func(t *testing.T) {
		t.Parallel()

		hash, err := CreateKeyHash("s3cret", fastParams)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		auth, err := NewOperatorAuthenticator(hash)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := auth.Authenticate("s3cret"); err != nil {
			t.Fatalf("expected key to authenticate, got %v", err)
		}
		if err := auth.Authenticate(""); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized for missing key, got %v", err)
		}
		if err := auth.Authenticate("nope"); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized for wrong key, got %v", err)
		}
	})
}
