package config

import (
	"testing"
	"time"

	"github.com/dotalytics/dota-ingest/internal/platform/logging"
)

func TestLoad_AppEnvValidation(t *testing.T) {
	t.Setenv("APP_ENV", "invalid")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid APP_ENV")
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.ServiceName != "dota-ingest" {
		t.Fatalf("unexpected service name: %q", cfg.ServiceName)
	}
	if cfg.CheckpointBackend != CheckpointBackendPostgres {
		t.Fatalf("unexpected default checkpoint backend: %q", cfg.CheckpointBackend)
	}
	if cfg.OpenDotaBaseURL != "https://api.opendota.com/api" {
		t.Fatalf("unexpected default base url: %q", cfg.OpenDotaBaseURL)
	}
	if cfg.OpenDotaTimeout != 20*time.Second {
		t.Fatalf("unexpected default timeout: %s", cfg.OpenDotaTimeout)
	}
	if cfg.OpenDotaMaxRetries != 4 {
		t.Fatalf("unexpected default max retries: %d", cfg.OpenDotaMaxRetries)
	}
	if cfg.PipelineMaxWorkers != 4 {
		t.Fatalf("unexpected default worker count: %d", cfg.PipelineMaxWorkers)
	}
	if cfg.LogLevel != logging.LevelInfo {
		t.Fatalf("unexpected default log level: %v", cfg.LogLevel)
	}
}

func TestLoad_CheckpointBackendValidation(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)

	t.Run("invalid backend", func(t *testing.T) {
		t.Setenv("CHECKPOINT_BACKEND", "redis")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for invalid CHECKPOINT_BACKEND")
		}
	})

	t.Run("file backend", func(t *testing.T) {
		t.Setenv("CHECKPOINT_BACKEND", "file")
		t.Setenv("CHECKPOINT_FILE_PATH", "/tmp/checkpoint.json")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.CheckpointBackend != CheckpointBackendFile {
			t.Fatalf("unexpected backend: %q", cfg.CheckpointBackend)
		}
		if cfg.CheckpointFilePath != "/tmp/checkpoint.json" {
			t.Fatalf("unexpected file path: %q", cfg.CheckpointFilePath)
		}
	})
}

func TestLoad_BackoffValidation(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)

	t.Run("invalid duration", func(t *testing.T) {
		t.Setenv("OPENDOTA_BACKOFF_BASE", "fast")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for invalid OPENDOTA_BACKOFF_BASE")
		}
	})

	t.Run("max below base", func(t *testing.T) {
		t.Setenv("OPENDOTA_BACKOFF_BASE", "10s")
		t.Setenv("OPENDOTA_BACKOFF_MAX", "5s")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error when OPENDOTA_BACKOFF_MAX < OPENDOTA_BACKOFF_BASE")
		}
	})

	t.Run("valid override", func(t *testing.T) {
		t.Setenv("OPENDOTA_BACKOFF_BASE", "500ms")
		t.Setenv("OPENDOTA_BACKOFF_MAX", "30s")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.OpenDotaBackoffBase != 500*time.Millisecond {
			t.Fatalf("unexpected backoff base: %s", cfg.OpenDotaBackoffBase)
		}
		if cfg.OpenDotaBackoffMax != 30*time.Second {
			t.Fatalf("unexpected backoff max: %s", cfg.OpenDotaBackoffMax)
		}
	})
}

func TestLoad_PipelineValidation(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)

	t.Run("workers must be positive", func(t *testing.T) {
		t.Setenv("PIPELINE_MAX_WORKERS", "0")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for PIPELINE_MAX_WORKERS=0")
		}
	})

	t.Run("discovery limit must be positive", func(t *testing.T) {
		t.Setenv("PIPELINE_MAX_WORKERS", "4")
		t.Setenv("PIPELINE_DISCOVERY_LIMIT", "-1")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for negative PIPELINE_DISCOVERY_LIMIT")
		}
	})
}

func TestLoad_DBDisablePreparedBinaryResultParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)

	t.Run("default true", func(t *testing.T) {
		t.Setenv("DB_DISABLE_PREPARED_BINARY_RESULT", "")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if !cfg.DBDisablePreparedBinary {
			t.Fatalf("expected DBDisablePreparedBinary=true by default")
		}
	})

	t.Run("invalid value", func(t *testing.T) {
		t.Setenv("DB_DISABLE_PREPARED_BINARY_RESULT", "not-bool")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for invalid DB_DISABLE_PREPARED_BINARY_RESULT")
		}
	})
}

func TestLoad_CacheValidation(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)

	t.Run("defaults", func(t *testing.T) {
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if !cfg.CacheEnabled {
			t.Fatalf("expected cache enabled by default")
		}
		if cfg.CacheTTL != 60*time.Second {
			t.Fatalf("unexpected default cache ttl: %s", cfg.CacheTTL)
		}
	})

	t.Run("ttl must be positive when enabled", func(t *testing.T) {
		t.Setenv("CACHE_TTL", "0s")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for CACHE_TTL=0s with cache enabled")
		}
	})

	t.Run("disabled ignores ttl", func(t *testing.T) {
		t.Setenv("CACHE_ENABLED", "false")
		t.Setenv("CACHE_TTL", "0s")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.CacheEnabled {
			t.Fatalf("expected cache disabled")
		}
	})
}

func TestLoad_CircuitBreakerValidation(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)

	t.Run("failure count must be positive", func(t *testing.T) {
		t.Setenv("OPENDOTA_CIRCUIT_FAILURE_COUNT", "0")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for OPENDOTA_CIRCUIT_FAILURE_COUNT=0")
		}
	})

	t.Run("disabled parses", func(t *testing.T) {
		t.Setenv("OPENDOTA_CIRCUIT_FAILURE_COUNT", "5")
		t.Setenv("OPENDOTA_CIRCUIT_ENABLED", "false")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.OpenDotaCircuitEnabled {
			t.Fatalf("expected circuit breaker disabled")
		}
	})
}

func TestParseLogLevel(t *testing.T) {
	cases := map[string]logging.Level{
		"debug":   logging.LevelDebug,
		"info":    logging.LevelInfo,
		"warn":    logging.LevelWarn,
		"warning": logging.LevelWarn,
		"error":   logging.LevelError,
		"bogus":   logging.LevelInfo,
	}
	for raw, want := range cases {
		if got := parseLogLevel(raw); got != want {
			t.Fatalf("parseLogLevel(%q) = %v, want %v", raw, got, want)
		}
	}
}
