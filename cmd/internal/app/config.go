package app

import (
	"strings"
	"time"
)

// Config contains all runtime configuration loaded from environment variables.
type Config struct {
	HTTPAddr  string
	LogLevel  string
	LogFormat string

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int

	DatabaseURL   string
	DBMaxConns    int32
	DBMinConns    int32
	DBSchema      string
	DBAutoMigrate bool
	SQLitePath    string
	RosterFile    string

	// If true, /readyz returns 503 unless Postgres is configured and reachable.
	ReadinessRequireDB bool

	// If true, PROFRANK_TOKEN_HMAC_KEY must be set (>= 32 bytes) and token hashing is HMAC-based.
	RequireTokenHMAC bool

	// AdminKeyHash is the argon2id hash guarding the admin routes. Empty disables them.
	AdminKeyHash string

	CORSAllowedOrigins   []string
	CORSAllowCredentials bool
	CORSMaxAgeSeconds    int

	OTelEndpoint string
	OTelEnabled  bool
}

// LoadConfig loads Config from environment variables with defaults.
func LoadConfig() Config {
	return Config{
		HTTPAddr:  EnvString("PROFRANK_HTTP_ADDR", "0.0.0.0:8080"),
		LogLevel:  EnvString("PROFRANK_LOG_LEVEL", "info"),
		LogFormat: strings.ToLower(EnvString("PROFRANK_LOG_FORMAT", "json")),

		ReadHeaderTimeout: EnvDuration("PROFRANK_HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
		ReadTimeout:       EnvDuration("PROFRANK_HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:      EnvDuration("PROFRANK_HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:       EnvDuration("PROFRANK_HTTP_IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    EnvInt("PROFRANK_HTTP_MAX_HEADER_BYTES", 1<<20),

		DatabaseURL:   EnvString("PROFRANK_DATABASE_URL", ""),
		DBMaxConns:    EnvInt32("PROFRANK_DB_MAX_CONNS", 10),
		DBMinConns:    EnvInt32("PROFRANK_DB_MIN_CONNS", 0),
		DBSchema:      EnvString("PROFRANK_DB_SCHEMA", "profrank"),
		DBAutoMigrate: EnvBool("PROFRANK_DB_AUTO_MIGRATE", false),
		SQLitePath:    EnvString("PROFRANK_SQLITE_PATH", ""),
		RosterFile:    EnvString("PROFRANK_ROSTER_FILE", ""),

		ReadinessRequireDB: EnvBool("PROFRANK_READINESS_REQUIRE_DB", false),
		RequireTokenHMAC:   EnvBool("PROFRANK_REQUIRE_TOKEN_HMAC", false),
		AdminKeyHash:       EnvString("PROFRANK_ADMIN_KEY_HASH", ""),

		CORSAllowedOrigins:   EnvList("PROFRANK_CORS_ALLOWED_ORIGINS"),
		CORSAllowCredentials: EnvBool("PROFRANK_CORS_ALLOW_CREDENTIALS", false),
		CORSMaxAgeSeconds:    EnvInt("PROFRANK_CORS_MAX_AGE_SECONDS", 600),

		OTelEndpoint: EnvString("PROFRANK_OTEL_ENDPOINT", ""),
		OTelEnabled:  EnvBool("PROFRANK_OTEL_ENABLED", true),
	}
}
