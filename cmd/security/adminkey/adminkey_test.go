package adminkey

import (
	"errors"
	"strings"
	"testing"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Params.MemoryKiB = 8 * 1024
	cfg.Params.Iterations = 1
	cfg.Params.Parallelism = 1
	return cfg
}

func TestHashAndVerify_OK(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	key := strings.Repeat("k", 32)

	h, err := cfg.Hash(key)
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if !strings.HasPrefix(h, "$argon2id$v=19$") {
		t.Fatalf("unexpected encoding: %q", h)
	}

	ok, err := cfg.Verify(h, key)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if !ok {
		t.Fatalf("expected match")
	}

	ok, err = cfg.Verify(h, key+"x")
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if ok {
		t.Fatalf("expected mismatch")
	}
}

func TestHash_RejectsShortKey(t *testing.T) {
	t.Parallel()

	if _, err := testConfig().Hash("short"); !errors.Is(err, ErrKeyTooShort) {
		t.Fatalf("expected ErrKeyTooShort, got %v", err)
	}
}

func TestVerify_InvalidHash(t *testing.T) {
	t.Parallel()

	cases := []string{
		"not-a-hash",
		"$argon2i$v=19$m=8192,t=1,p=1$c2FsdHNhbHQ$aGFzaGhhc2hoYXNoaGFzaA",
		"$argon2id$v=18$m=8192,t=1,p=1$c2FsdHNhbHQ$aGFzaGhhc2hoYXNoaGFzaA",
		"$argon2id$v=19$m=0,t=1,p=1$c2FsdHNhbHQ$aGFzaGhhc2hoYXNoaGFzaA",
	}
	for _, in := range cases {
		ok, err := testConfig().Verify(in, "whatever")
		if !errors.Is(err, ErrInvalidHash) || ok {
			t.Fatalf("Verify(%q)=(%v,%v) want (false, ErrInvalidHash)", in, ok, err)
		}
	}
}

func TestVerify_RejectsOversizedParams(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	heavy := cfg
	heavy.Params.Iterations = cfg.Params.Iterations * 3
	h, err := heavy.Hash(strings.Repeat("k", 32))
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if _, err := cfg.Verify(h, strings.Repeat("k", 32)); !errors.Is(err, ErrInvalidHash) {
		t.Fatalf("expected ErrInvalidHash for oversized params, got %v", err)
	}
}

func TestVerifier_Check(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	key, err := Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	h, err := cfg.Hash(key)
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}

	v, err := NewVerifier(cfg, h)
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}
	if v.Check("") || v.Check("wrong-key-wrong-key-wrong") {
		t.Fatalf("expected rejection")
	}
	for i := 0; i < 3; i++ {
		if !v.Check(key) {
			t.Fatalf("expected acceptance on attempt %d", i)
		}
	}
}

func TestNewVerifier_Errors(t *testing.T) {
	t.Parallel()

	if _, err := NewVerifier(testConfig(), ""); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	if _, err := NewVerifier(testConfig(), "garbage"); !errors.Is(err, ErrInvalidHash) {
		t.Fatalf("expected ErrInvalidHash, got %v", err)
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("PROFRANK_ADMIN_KEY_MIN_LEN", "30")
	t.Setenv("PROFRANK_ARGON2_ITERATIONS", "3")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.MinKeyLength != 30 || cfg.Params.Iterations != 3 {
		t.Fatalf("override failed: %+v", cfg)
	}

	t.Setenv("PROFRANK_ADMIN_KEY_MAX_LEN", "10")
	if _, err := FromEnv(); err == nil {
		t.Fatalf("expected min > max error")
	}
}
