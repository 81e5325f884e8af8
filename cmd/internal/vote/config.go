package vote

import (
	"os"
	"strconv"
	"time"
)

// Config controls session issuance.
type Config struct {
	// DefaultTTL is used when the caller does not ask for a specific window.
	DefaultTTL time.Duration

	// MaxTTL caps any requested window.
	MaxTTL time.Duration

	// TokenBytes is the number of random bytes behind each session token.
	TokenBytes int
}

// DefaultConfig matches the five-minute QR window used in classrooms.
func DefaultConfig() Config {
	return Config{
		DefaultTTL: 5 * time.Minute,
		MaxTTL:     time.Hour,
		TokenBytes: 32,
	}
}

// Validate checks invariants between fields.
func (c Config) Validate() error {
	if c.DefaultTTL <= 0 || c.MaxTTL <= 0 || c.DefaultTTL > c.MaxTTL {
		return ErrConfig
	}
	if c.TokenBytes < minTokenBytes || c.TokenBytes > maxTokenBytes {
		return ErrConfig
	}
	return nil
}

// LoadConfigFromEnv loads session configuration from environment variables.
//
// Optional:
//   - PROFRANK_SESSION_TTL (Go duration)
//   - PROFRANK_SESSION_TTL_MAX (Go duration)
//   - PROFRANK_SESSION_TOKEN_BYTES (16..64)
//
// Returns ErrConfig if configuration is invalid.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v := os.Getenv("PROFRANK_SESSION_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, ErrConfig
		}
		cfg.DefaultTTL = d
	}

	if v := os.Getenv("PROFRANK_SESSION_TTL_MAX"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, ErrConfig
		}
		cfg.MaxTTL = d
	}

	if v := os.Getenv("PROFRANK_SESSION_TOKEN_BYTES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, ErrConfig
		}
		cfg.TokenBytes = n
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// clampTTL applies the default for non-positive values and the configured cap.
func (c Config) clampTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		ttl = c.DefaultTTL
	}
	if ttl > c.MaxTTL {
		ttl = c.MaxTTL
	}
	return ttl
}
