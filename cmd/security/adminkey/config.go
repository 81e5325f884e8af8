package adminkey

import (
	"fmt"
	"math"
	"os"
	"runtime"
	"strconv"
	"strings"
)

// Argon2idParams controls Argon2id hashing cost.
// MemoryKiB is in KiB as required by argon2.IDKey.
type Argon2idParams struct {
	MemoryKiB   uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// Config is the single configuration surface for this package.
type Config struct {
	Params Argon2idParams

	MinKeyLength int
	MaxKeyLength int
}

// DefaultConfig returns the baseline cost for admin key hashing.
// Admin routes verify on every request, so memory is lower than a login hash would use.
func DefaultConfig() Config {
	threads := runtime.NumCPU()
	if threads <= 0 {
		threads = 1
	}
	if threads > 4 {
		threads = 4
	}

	return Config{
		Params: Argon2idParams{
			MemoryKiB:   19 * 1024,
			Iterations:  2,
			Parallelism: uint8(threads), // #nosec G115 -- clamped to [1..4] above; safe conversion.
			SaltLength:  16,
			KeyLength:   32,
		},
		MinKeyLength: 24,
		MaxKeyLength: 256,
	}
}

// FromEnv loads config from environment variables.
//
// Env surface:
// - PROFRANK_ADMIN_KEY_MIN_LEN
// - PROFRANK_ADMIN_KEY_MAX_LEN
// - PROFRANK_ARGON2_MEMORY_KIB
// - PROFRANK_ARGON2_ITERATIONS
// - PROFRANK_ARGON2_PARALLELISM
func FromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v, ok := os.LookupEnv("PROFRANK_ADMIN_KEY_MIN_LEN"); ok {
		n, err := atoiRange(v, 8, 1024)
		if err != nil {
			return Config{}, fmt.Errorf("PROFRANK_ADMIN_KEY_MIN_LEN: %w", err)
		}
		cfg.MinKeyLength = n
	}
	if v, ok := os.LookupEnv("PROFRANK_ADMIN_KEY_MAX_LEN"); ok {
		n, err := atoiRange(v, 8, 4096)
		if err != nil {
			return Config{}, fmt.Errorf("PROFRANK_ADMIN_KEY_MAX_LEN: %w", err)
		}
		cfg.MaxKeyLength = n
	}
	if v, ok := os.LookupEnv("PROFRANK_ARGON2_MEMORY_KIB"); ok {
		u, err := atou32(v, 8*1024, 1024*1024)
		if err != nil {
			return Config{}, fmt.Errorf("PROFRANK_ARGON2_MEMORY_KIB: %w", err)
		}
		cfg.Params.MemoryKiB = u
	}
	if v, ok := os.LookupEnv("PROFRANK_ARGON2_ITERATIONS"); ok {
		u, err := atou32(v, 1, 20)
		if err != nil {
			return Config{}, fmt.Errorf("PROFRANK_ARGON2_ITERATIONS: %w", err)
		}
		cfg.Params.Iterations = u
	}
	if v, ok := os.LookupEnv("PROFRANK_ARGON2_PARALLELISM"); ok {
		u, err := atou32(v, 1, math.MaxUint8)
		if err != nil {
			return Config{}, fmt.Errorf("PROFRANK_ARGON2_PARALLELISM: %w", err)
		}
		cfg.Params.Parallelism = uint8(u) // #nosec G115 -- bounded by atou32 range.
	}

	if cfg.MinKeyLength > cfg.MaxKeyLength {
		return Config{}, fmt.Errorf(
			"admin key policy invalid: min_len(%d) > max_len(%d)",
			cfg.MinKeyLength,
			cfg.MaxKeyLength,
		)
	}
	return cfg, nil
}

// Validate checks the key length policy for newly hashed keys.
func (c Config) Validate(key string) error {
	n := len(key)
	if n < c.MinKeyLength {
		return ErrKeyTooShort
	}
	if c.MaxKeyLength > 0 && n > c.MaxKeyLength {
		return ErrKeyTooLong
	}
	return nil
}

func atoiRange(s string, minVal, maxVal int) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("not an integer")
	}
	if n < minVal || n > maxVal {
		return 0, fmt.Errorf("out of range [%d..%d]", minVal, maxVal)
	}
	return n, nil
}

func atou32(s string, minVal, maxVal uint32) (uint32, error) {
	u64, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("not an unsigned integer")
	}
	u := uint32(u64)
	if u < minVal || u > maxVal {
		return 0, fmt.Errorf("out of range [%d..%d]", minVal, maxVal)
	}
	return u, nil
}
