package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"SITE_ADDR", "SITE_STORAGE", "SITE_MAX_UPLOAD_BYTES", "SITE_FORM_ENDPOINT", "SITE_RELAY_TIMEOUT_SECONDS", "S3_USE_SSL"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.Addr != ":8080" {
		t.Errorf("Addr = %q, want :8080", cfg.Addr)
	}
	if cfg.Storage != StorageMemory {
		t.Errorf("Storage = %q, want %q", cfg.Storage, StorageMemory)
	}
	if cfg.MaxUploadBytes != 10<<20 {
		t.Errorf("MaxUploadBytes = %d, want %d", cfg.MaxUploadBytes, 10<<20)
	}
	if cfg.FormEndpoint != "https://formspree.io/f/mnnzavyd" {
		t.Errorf("FormEndpoint = %q", cfg.FormEndpoint)
	}
	if cfg.RelayTimeout != 10*time.Second {
		t.Errorf("RelayTimeout = %v, want 10s", cfg.RelayTimeout)
	}
	if cfg.S3UseSSL {
		t.Error("S3UseSSL should default to false")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SITE_STORAGE", "Redis")
	t.Setenv("SITE_MAX_UPLOAD_BYTES", "2048")
	t.Setenv("SITE_FORM_ENDPOINT", "off")
	t.Setenv("S3_USE_SSL", "true")
	t.Setenv("SITE_RELAY_TIMEOUT_SECONDS", "3")

	cfg := Load()
	if cfg.Storage != StorageRedis {
		t.Errorf("Storage = %q, want %q", cfg.Storage, StorageRedis)
	}
	if cfg.MaxUploadBytes != 2048 {
		t.Errorf("MaxUploadBytes = %d, want 2048", cfg.MaxUploadBytes)
	}
	if cfg.FormEndpoint != "" {
		t.Errorf("FormEndpoint = %q, want empty", cfg.FormEndpoint)
	}
	if !cfg.S3UseSSL {
		t.Error("S3UseSSL should be true")
	}
	if cfg.RelayTimeout != 3*time.Second {
		t.Errorf("RelayTimeout = %v, want 3s", cfg.RelayTimeout)
	}
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("SITE_MAX_UPLOAD_BYTES", "lots")
	t.Setenv("S3_USE_SSL", "maybe")

	cfg := Load()
	if cfg.MaxUploadBytes != 10<<20 {
		t.Errorf("MaxUploadBytes = %d, want default", cfg.MaxUploadBytes)
	}
	if cfg.S3UseSSL {
		t.Error("malformed bool should fall back to false")
	}
}
