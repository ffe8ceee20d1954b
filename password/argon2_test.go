package password

import (
	"strings"
	"testing"
)

func newHasher(t *testing.T, cfg Config) *Argon2 {
	t.Helper()

	h, err := NewArgon2(cfg)
	if err != nil {
		t.Fatalf("NewArgon2 failed: %v", err)
	}
	return h
}

func testConfig() Config {
	return Config{
		Memory:      65536,
		Time:        3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

func TestHashVerifyRoundTrip(t *testing.T) {
	h := newHasher(t, testConfig())

	encoded, err := h.Hash("correct-horse")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if !strings.HasPrefix(encoded, "$argon2id$") {
		t.Fatalf("expected PHC format, got %q", encoded)
	}

	ok, err := h.Verify("correct-horse", encoded)
	if err != nil || !ok {
		t.Fatalf("expected match, ok=%v err=%v", ok, err)
	}

	ok, err = h.Verify("wrong-password", encoded)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if ok {
		t.Fatal("expected mismatch for wrong password")
	}
}

func TestHashesAreSalted(t *testing.T) {
	h := newHasher(t, testConfig())

	a, err := h.Hash("correct-horse")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	b, err := h.Hash("correct-horse")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if a == b {
		t.Fatal("two hashes of the same password must differ")
	}
}

func TestHashRejectsShortPassword(t *testing.T) {
	h := newHasher(t, testConfig())

	if _, err := h.Hash("short"); err == nil {
		t.Fatal("expected error for password under the byte floor")
	}
}

func TestHashHonorsConfiguredMinLength(t *testing.T) {
	cfg := testConfig()
	cfg.MinLength = 12
	h := newHasher(t, cfg)

	// Would pass the default floor of 8 but not the configured one.
	if _, err := h.Hash("ten-bytes!"); err == nil {
		t.Fatal("expected error for password under the configured floor")
	}
	if _, err := h.Hash("twelve-bytes!"); err != nil {
		t.Fatalf("Hash failed above the configured floor: %v", err)
	}
}

func TestNeedsUpgradeOnWeakerParams(t *testing.T) {
	weak := newHasher(t, Config{
		Memory:      8192,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   16,
	})

	encoded, err := weak.Hash("correct-horse")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}

	strong := newHasher(t, testConfig())

	upgrade, err := strong.NeedsUpgrade(encoded)
	if err != nil {
		t.Fatalf("NeedsUpgrade failed: %v", err)
	}
	if !upgrade {
		t.Fatal("expected upgrade for weaker stored params")
	}

	current, err := strong.Hash("correct-horse")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	upgrade, err = strong.NeedsUpgrade(current)
	if err != nil {
		t.Fatalf("NeedsUpgrade failed: %v", err)
	}
	if upgrade {
		t.Fatal("expected no upgrade for current params")
	}
}

func TestVerifyRejectsMalformedHash(t *testing.T) {
	h := newHasher(t, testConfig())

	if _, err := h.Verify("correct-horse", "not-a-phc-string"); err == nil {
		t.Fatal("expected error for malformed encoded hash")
	}
}
