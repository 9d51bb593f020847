package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ovestreet/storefront-backend/internal/platform/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return log
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("JWT_SECRET_KEY", "")

	cfg, err := LoadConfig(testLogger(t))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("expected default http addr, got %q", cfg.HTTPAddr)
	}
	if cfg.JWTSecretKey != "defaultsecret" {
		t.Fatalf("expected default jwt secret, got %q", cfg.JWTSecretKey)
	}
	if cfg.Environment != "development" {
		t.Fatalf("expected development environment, got %q", cfg.Environment)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("HTTP_ADDR", ":9000")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("ALLOW_ORIGINS", "https://a.example, https://b.example")

	cfg, err := LoadConfig(testLogger(t))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.HTTPAddr != ":9000" {
		t.Fatalf("expected :9000, got %q", cfg.HTTPAddr)
	}
	if cfg.RedisAddr != "localhost:6379" {
		t.Fatalf("expected redis addr, got %q", cfg.RedisAddr)
	}
	if len(cfg.AllowOrigins) != 2 || cfg.AllowOrigins[1] != "https://b.example" {
		t.Fatalf("expected two trimmed origins, got %v", cfg.AllowOrigins)
	}
}

func TestLoadConfigYAMLOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	overlay := []byte("http_addr: \":7070\"\nredis_db: 3\nallow_origins:\n  - https://shop.example\n")
	if err := os.WriteFile(path, overlay, 0o600); err != nil {
		t.Fatalf("write overlay: %v", err)
	}

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("HTTP_ADDR", ":9000")
	t.Setenv("JWT_SECRET_KEY", "env-secret")

	cfg, err := LoadConfig(testLogger(t))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.HTTPAddr != ":7070" {
		t.Fatalf("overlay should win over env, got %q", cfg.HTTPAddr)
	}
	if cfg.RedisDB != 3 {
		t.Fatalf("expected redis db 3, got %d", cfg.RedisDB)
	}
	if len(cfg.AllowOrigins) != 1 || cfg.AllowOrigins[0] != "https://shop.example" {
		t.Fatalf("expected overlay origins, got %v", cfg.AllowOrigins)
	}
	// Fields absent from the overlay keep their environment values.
	if cfg.JWTSecretKey != "env-secret" {
		t.Fatalf("expected env secret to survive, got %q", cfg.JWTSecretKey)
	}
}

func TestLoadConfigBadOverlayFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("{not yaml"), 0o600); err != nil {
		t.Fatalf("write overlay: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)

	if _, err := LoadConfig(testLogger(t)); err == nil {
		t.Fatal("expected error for malformed overlay")
	}
}
