package auth

import (
	"errors"
	"strings"
	"testing"
)

// cheap parameters keep the test suite fast.
var testParams = Params{Time: 1, Memory: 1024, Threads: 1, KeyLen: 32, SaltLen: 16}

func TestPasswordHasher_Format(t *testing.T) {
	t.Parallel()

	hash, err := NewPasswordHasher(DefaultParams).Hash("password123")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}

	parts := strings.Split(hash, "$")
	if len(parts) != 6 {
		t.Fatalf("hash should have 6 parts, got %d", len(parts))
	}
	if parts[1] != "argon2id" {
		t.Errorf("algorithm = %s, want argon2id", parts[1])
	}
	if parts[2] != "v=19" {
		t.Errorf("version = %s, want v=19", parts[2])
	}
	if parts[3] != "m=65536,t=3,p=4" {
		t.Errorf("params = %s, want m=65536,t=3,p=4", parts[3])
	}
}

func TestPasswordHasher_RoundTrip(t *testing.T) {
	t.Parallel()

	h := NewPasswordHasher(testParams)

	hash1, err := h.Hash("secret-pass")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	hash2, err := h.Hash("secret-pass")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if hash1 == hash2 {
		t.Error("same password should hash differently with random salts")
	}

	for _, hash := range []string{hash1, hash2} {
		ok, err := h.Verify("secret-pass", hash)
		if err != nil || !ok {
			t.Errorf("Verify(correct) = %v, %v", ok, err)
		}
		ok, err = h.Verify("wrong-pass", hash)
		if err != nil || ok {
			t.Errorf("Verify(wrong) = %v, %v", ok, err)
		}
	}
}

func TestPasswordHasher_VerifyUsesEncodedParams(t *testing.T) {
	t.Parallel()

	hash, err := NewPasswordHasher(testParams).Hash("pw-123456")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}

	ok, err := NewPasswordHasher(DefaultParams).Verify("pw-123456", hash)
	if err != nil || !ok {
		t.Errorf("Verify across params = %v, %v", ok, err)
	}
}

func TestPasswordHasher_InvalidHash(t *testing.T) {
	t.Parallel()

	h := NewPasswordHasher(testParams)
	testCases := []struct {
		name    string
		encoded string
		wantErr error
	}{
		{"empty", "", ErrInvalidHash},
		{"plaintext", "password123", ErrInvalidHash},
		{"wrong algorithm", "$argon2i$v=19$m=1024,t=1,p=1$c2FsdA$aGFzaA", ErrInvalidHash},
		{"bad version", "$argon2id$v=18$m=1024,t=1,p=1$c2FsdA$aGFzaA", ErrIncompatibleVersion},
		{"bad params", "$argon2id$v=19$garbage$c2FsdA$aGFzaA", ErrInvalidHash},
		{"bad salt", "$argon2id$v=19$m=1024,t=1,p=1$!!!$aGFzaA", ErrInvalidHash},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			ok, err := h.Verify("x", tc.encoded)
			if ok {
				t.Error("Verify should not succeed")
			}
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("error = %v, want %v", err, tc.wantErr)
			}
		})
	}
}
