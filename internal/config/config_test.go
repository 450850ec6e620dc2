package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// clearEnv blanks every override so the host environment cannot leak into a test.
func clearEnv(t *testing.T) {
	for _, k := range []string{"PORT", "ALLOWED_ORIGINS", "ADMIN_API_KEY", "DATABASE_DRIVER", "DATABASE_URL",
		"AI_PROVIDER", "GEMINI_API_KEY", "AI_API_KEY", "AI_MODEL", "AI_BASE_URL", "AI_TIMEOUT_SECONDS",
		"SESSION_SECRET", "GOOGLE_CLIENT_ID", "GOOGLE_CLIENT_SECRET", "GOOGLE_CALLBACK_URL",
		"MINIO_ENDPOINT", "MINIO_BUCKET"} {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load error = %v", err)
	}
	if cfg.Server.Port != 5000 || cfg.Database.Driver != "memory" || cfg.AI.Provider != "mock" {
		t.Fatalf("defaults = %+v", cfg)
	}
	if cfg.Upload.MaxBytes != 50*1024*1024 {
		t.Fatalf("Upload.MaxBytes = %d, want 50 MiB", cfg.Upload.MaxBytes)
	}
	if cfg.AIEnabled() || cfg.GoogleEnabled() || cfg.MinioEnabled() {
		t.Fatalf("optional integrations enabled without credentials")
	}
	if cfg.AITimeout() != 30*time.Second {
		t.Fatalf("AITimeout = %v, want 30s", cfg.AITimeout())
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)
	p := writeFile(t, `
server:
  port: 8080
database:
  driver: postgres
  host: db
  port: 5432
  user: app
  password: secret
  name: policylens
ai:
  provider: openai
  timeoutSeconds: 5
`)
	t.Setenv("PORT", "9090")
	t.Setenv("AI_API_KEY", "sk-test")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load error = %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Fatalf("Port = %d, want env override 9090", cfg.Server.Port)
	}
	if len(cfg.Server.AllowedOrigins) != 2 || cfg.Server.AllowedOrigins[1] != "https://b.example" {
		t.Fatalf("AllowedOrigins = %v", cfg.Server.AllowedOrigins)
	}
	if !cfg.AIEnabled() || cfg.AITimeout() != 5*time.Second {
		t.Fatalf("AI = %+v, want enabled with 5s timeout", cfg.AI)
	}
	if got, want := cfg.PostgresDSN(), "host=db port=5432 user=app password=secret dbname=policylens sslmode=disable"; got != want {
		t.Fatalf("PostgresDSN = %q, want %q", got, want)
	}
	// rate limit keeps its default when the file omits it
	if cfg.Server.RateLimit.Capacity != 20 {
		t.Fatalf("RateLimit.Capacity = %d, want 20", cfg.Server.RateLimit.Capacity)
	}
}

func TestDatabaseURLWins(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_DRIVER", "mysql")
	t.Setenv("DATABASE_URL", "u:p@tcp(localhost:3306)/x?parseTime=true")
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load error = %v", err)
	}
	if cfg.MySQLDSN() != "u:p@tcp(localhost:3306)/x?parseTime=true" {
		t.Fatalf("MySQLDSN = %q", cfg.MySQLDSN())
	}
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	clearEnv(t)
	p := writeFile(t, "database:\n  driver: oracle\n")
	if _, err := Load(p); err == nil {
		t.Fatalf("Load accepted unknown driver")
	}
}
