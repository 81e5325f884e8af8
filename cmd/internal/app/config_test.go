package app

import (
	"reflect"
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, k := range []string{"PROFRANK_HTTP_ADDR", "PROFRANK_DB_SCHEMA", "PROFRANK_LOG_FORMAT", "PROFRANK_OTEL_ENABLED"} {
		t.Setenv(k, "")
	}

	cfg := LoadConfig()
	if cfg.HTTPAddr != "0.0.0.0:8080" {
		t.Fatalf("HTTPAddr=%q", cfg.HTTPAddr)
	}
	if cfg.DBSchema != "profrank" {
		t.Fatalf("DBSchema=%q", cfg.DBSchema)
	}
	if cfg.LogFormat != "json" {
		t.Fatalf("LogFormat=%q", cfg.LogFormat)
	}
	if !cfg.OTelEnabled {
		t.Fatalf("expected tracing enabled by default")
	}
	if cfg.ReadTimeout != 15*time.Second {
		t.Fatalf("ReadTimeout=%v", cfg.ReadTimeout)
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("PROFRANK_HTTP_ADDR", "127.0.0.1:9000")
	t.Setenv("PROFRANK_LOG_FORMAT", "PRETTY")
	t.Setenv("PROFRANK_DB_MAX_CONNS", "25")
	t.Setenv("PROFRANK_DB_AUTO_MIGRATE", "true")
	t.Setenv("PROFRANK_HTTP_IDLE_TIMEOUT", "2m")
	t.Setenv("PROFRANK_CORS_ALLOWED_ORIGINS", " https://a.example , ,https://b.example")

	cfg := LoadConfig()
	if cfg.HTTPAddr != "127.0.0.1:9000" {
		t.Fatalf("HTTPAddr=%q", cfg.HTTPAddr)
	}
	if cfg.LogFormat != "pretty" {
		t.Fatalf("LogFormat=%q", cfg.LogFormat)
	}
	if cfg.DBMaxConns != 25 {
		t.Fatalf("DBMaxConns=%d", cfg.DBMaxConns)
	}
	if !cfg.DBAutoMigrate {
		t.Fatalf("expected auto migrate")
	}
	if cfg.IdleTimeout != 2*time.Minute {
		t.Fatalf("IdleTimeout=%v", cfg.IdleTimeout)
	}
	want := []string{"https://a.example", "https://b.example"}
	if !reflect.DeepEqual(cfg.CORSAllowedOrigins, want) {
		t.Fatalf("CORSAllowedOrigins=%v want=%v", cfg.CORSAllowedOrigins, want)
	}
}

func TestEnvHelpers_InvalidFallsBack(t *testing.T) {
	t.Setenv("PROFRANK_TEST_INT", "nope")
	t.Setenv("PROFRANK_TEST_DUR", "soon")
	t.Setenv("PROFRANK_TEST_BOOL", "maybe")

	if got := EnvInt("PROFRANK_TEST_INT", 7); got != 7 {
		t.Fatalf("EnvInt=%d", got)
	}
	if got := EnvDuration("PROFRANK_TEST_DUR", time.Second); got != time.Second {
		t.Fatalf("EnvDuration=%v", got)
	}
	if got := EnvBool("PROFRANK_TEST_BOOL", true); !got {
		t.Fatalf("EnvBool=%v", got)
	}
}
