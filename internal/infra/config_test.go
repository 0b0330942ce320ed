package infra

import (
	"testing"
	"time"
)

func TestLoadConfigDerivesURLsFromPort(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("PORT", "1919")
	t.Setenv("BASE_URL", "")
	t.Setenv("STORAGE_BASE_URL", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.BaseURL != "http://localhost:1919" {
		t.Fatalf("BaseURL mismatch: %q", cfg.BaseURL)
	}
	if cfg.StorageBaseURL != "http://localhost:1919/static" {
		t.Fatalf("StorageBaseURL mismatch: %q", cfg.StorageBaseURL)
	}
	if got := cfg.CallbackURL(); got != "http://localhost:1919/v1/callback/music" {
		t.Fatalf("CallbackURL mismatch: %q", got)
	}
}

func TestLoadConfigRequiresDatabaseForPostgresStore(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("STORE", "postgres")

	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error when DATABASE_URL missing")
	}
}

func TestLoadConfigMemoryStoreSkipsDatabase(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("STORE", "memory")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Store != StoreMemory {
		t.Fatalf("Store mismatch: %q", cfg.Store)
	}
}

func TestLoadConfigRejectsUnknownMusicBackend(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("MUSIC_BACKEND", "imaginary")

	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error for unknown music backend")
	}
}

func TestLoadConfigRetentionDefault(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.TaskRetention != 24*time.Hour {
		t.Fatalf("TaskRetention mismatch: %v", cfg.TaskRetention)
	}
}
