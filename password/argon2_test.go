package password

import (
	"errors"
	"strings"
	"testing"
)

func cheapArgon2Config() Argon2Config {
	return Argon2Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
}

func TestArgon2HashAndVerify(t *testing.T) {
	hasher, err := NewArgon2(cheapArgon2Config())
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}

	hash, err := hasher.Hash("secret123")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=8192,t=1,p=1$") {
		t.Fatalf("unexpected PHC prefix: %s", hash)
	}

	ok, err := hasher.Verify("secret123", hash)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if !ok {
		t.Fatal("expected password verification to succeed")
	}
	if !hasher.Matches("secret123", hash) {
		t.Fatal("expected Matches to succeed")
	}
}

func TestArgon2VerifyWrongPassword(t *testing.T) {
	hasher, err := NewArgon2(cheapArgon2Config())
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}

	hash, err := hasher.Hash("secret123")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	ok, err := hasher.Verify("wrong", hash)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if ok {
		t.Fatal("expected wrong password verification to fail")
	}
	if hasher.Matches("wrong", hash) {
		t.Fatal("expected Matches to fail")
	}
}

func TestArgon2NeedsUpgrade(t *testing.T) {
	oldHasher, err := NewArgon2(cheapArgon2Config())
	if err != nil {
		t.Fatalf("NewArgon2(old) error: %v", err)
	}
	hash, err := oldHasher.Hash("test-password")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	stronger := cheapArgon2Config()
	stronger.Time = 2
	newHasher, err := NewArgon2(stronger)
	if err != nil {
		t.Fatalf("NewArgon2(new) error: %v", err)
	}

	needsUpgrade, err := newHasher.NeedsUpgrade(hash)
	if err != nil {
		t.Fatalf("NeedsUpgrade error: %v", err)
	}
	if !needsUpgrade {
		t.Fatal("expected NeedsUpgrade to return true for weaker hash parameters")
	}

	needsUpgrade, err = oldHasher.NeedsUpgrade(hash)
	if err != nil {
		t.Fatalf("NeedsUpgrade error: %v", err)
	}
	if needsUpgrade {
		t.Fatal("expected NeedsUpgrade to return false for current parameters")
	}
}

func TestArgon2MalformedHash(t *testing.T) {
	hasher, err := NewArgon2(cheapArgon2Config())
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}

	hash, err := hasher.Hash("version-test")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	cases := map[string]string{
		"not phc":       "not-a-phc-hash",
		"wrong version": strings.Replace(hash, "$v=19$", "$v=18$", 1),
		"wrong alg":     strings.Replace(hash, "$argon2id$", "$argon2i$", 1),
		"bad params":    strings.Replace(hash, "m=8192,t=1,p=1", "m=8192,t=1", 1),
		"low memory":    strings.Replace(hash, "m=8192", "m=1", 1),
	}
	for name, encoded := range cases {
		if _, err := hasher.Verify("version-test", encoded); !errors.Is(err, ErrMalformedHash) {
			t.Fatalf("%s: expected ErrMalformedHash, got %v", name, err)
		}
		if hasher.Matches("version-test", encoded) {
			t.Fatalf("%s: expected malformed hash to be a mismatch", name)
		}
	}
}

func TestArgon2AcceptsPaddedEncoding(t *testing.T) {
	hasher, err := NewArgon2(cheapArgon2Config())
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}

	hash, err := hasher.Hash("padded-password")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	// 16-byte salt and 32-byte key pad to 24 and 44 characters.
	parts := strings.Split(hash, "$")
	parts[4] += "=="
	parts[5] += "="
	padded := strings.Join(parts, "$")

	if !hasher.Matches("padded-password", padded) {
		t.Fatal("expected padded standard base64 to verify")
	}
}

func TestArgon2HashEmptyPassword(t *testing.T) {
	hasher, err := NewArgon2(cheapArgon2Config())
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}

	if _, err := hasher.Hash(""); !errors.Is(err, ErrEmptyPassword) {
		t.Fatalf("expected ErrEmptyPassword, got %v", err)
	}
}

func TestNewArgon2RejectsWeakConfig(t *testing.T) {
	weak := cheapArgon2Config()
	weak.Memory = 1024
	if _, err := NewArgon2(weak); err == nil {
		t.Fatal("expected low memory to be rejected")
	}

	weak = cheapArgon2Config()
	weak.SaltLength = 8
	if _, err := NewArgon2(weak); err == nil {
		t.Fatal("expected short salt to be rejected")
	}
}
