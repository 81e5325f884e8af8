package voteapi

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config controls vote API behavior and abuse limits.
type Config struct {
	// PublicBaseURL prefixes vote links handed out with new sessions.
	PublicBaseURL string

	TrustProxy   bool
	MaxBodyBytes int64

	// VoteRateEvents submissions (and, separately, liveness checks) are allowed
	// per client IP within VoteRateWindow.
	VoteRateEvents int
	VoteRateWindow time.Duration

	// AdminRateEvents admin requests are allowed per client IP within
	// AdminRateWindow. The check runs before the admin key is hashed.
	AdminRateEvents int
	AdminRateWindow time.Duration
}

// LoadConfigFromEnv loads API config from environment variables with safe defaults.
func LoadConfigFromEnv() Config {
	cfg := Config{
		PublicBaseURL:  strings.TrimRight(strings.TrimSpace(os.Getenv("PROFRANK_PUBLIC_BASE_URL")), "/"),
		TrustProxy:     envBool("PROFRANK_API_TRUST_PROXY", false),
		MaxBodyBytes:   envInt64("PROFRANK_API_MAX_BODY_BYTES", 64<<10),
		VoteRateEvents: envInt("PROFRANK_API_VOTE_RATE_EVENTS", 30),
		VoteRateWindow: envDuration("PROFRANK_API_VOTE_RATE_WINDOW", time.Minute),

		AdminRateEvents: envInt("PROFRANK_API_ADMIN_RATE_EVENTS", 10),
		AdminRateWindow: envDuration("PROFRANK_API_ADMIN_RATE_WINDOW", time.Minute),
	}
	if cfg.PublicBaseURL == "" {
		cfg.PublicBaseURL = "http://localhost:8080"
	}
	return cfg
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func envInt64(key string, def int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
